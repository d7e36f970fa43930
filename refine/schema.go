package refine

import (
	"sync"

	"github.com/invopop/jsonschema"
)

// Critique is the reply shape requested from the provider. Replies are parsed
// tolerantly, so this type documents the request rather than binding the
// parser.
type Critique struct {
	DimensionScores map[string]float64   `json:"dimension_scores" jsonschema:"description=Score from 1 (poor) to 5 (excellent) keyed by dimension id"`
	Strengths       []string             `json:"strengths" jsonschema:"description=What the prompt already does well"`
	Weaknesses      []string             `json:"weaknesses" jsonschema:"description=What the prompt does poorly"`
	Suggestions     []CritiqueSuggestion `json:"suggestions" jsonschema:"maxItems=5"`
	ImprovedPrompt  string               `json:"improved_prompt" jsonschema:"description=A revised version of the prompt"`
}

type CritiqueSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
	Dimension   string `json:"dimension,omitempty" jsonschema:"description=Dimension id the suggestion addresses"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

// Schema returns the JSON schema of Critique, reflected once.
func Schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
		schema = r.Reflect(&Critique{})
	})
	return schema
}
