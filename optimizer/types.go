package optimizer

import (
	"github.com/guiperry/promptinspector/analyzer"
)

// Suggestion is one recommended change, tied to the dimension it addresses.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
	Dimension   string `json:"dimension"`
}

// Result is the outcome of Optimize.
type Result struct {
	OriginalPrompt  string           `json:"original_prompt"`
	OptimizedPrompt string           `json:"optimized_prompt"`
	Suggestions     []Suggestion     `json:"suggestions"`
	Analysis        *analyzer.Result `json:"analysis"`
}

// AppendSuggestions adds extra after the existing suggestions, skipping titles
// already present and stopping once max suggestions are held.
func (r *Result) AppendSuggestions(extra []Suggestion, max int) {
	seen := make(map[string]bool, len(r.Suggestions))
	for _, s := range r.Suggestions {
		seen[normalizeTitle(s.Title)] = true
	}
	for _, s := range extra {
		if len(r.Suggestions) >= max {
			return
		}
		key := normalizeTitle(s.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		r.Suggestions = append(r.Suggestions, s)
	}
}
