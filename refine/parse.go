package refine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/optimizer"
)

var (
	errNoJSON   = errors.New("no JSON object in response")
	fenceRE     = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	nonAlnumRE  = regexp.MustCompile(`[^a-z0-9]+`)
	outOfFiveRE = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*/\s*5\s*$`)
)

// aliases maps normalized names a provider might use to dimension ids. The
// catalogue's own ids and labels are added in init.
var aliases = map[string]string{
	"clarity_specificity":         dimension.Clarity,
	"background":                  dimension.Context,
	"context_provided":            dimension.Context,
	"task":                        dimension.TaskDefinition,
	"task_clarity":                dimension.TaskDefinition,
	"organization":                dimension.Structure,
	"structure_organization":      dimension.Structure,
	"structure_and_organization":  dimension.Structure,
	"example":                     dimension.Examples,
	"concision":                   dimension.Conciseness,
	"brevity":                     dimension.Conciseness,
	"output_format":               dimension.Specificity,
	"output_format_specification": dimension.Specificity,
	"format":                      dimension.Specificity,
	"role":                        dimension.RoleAssignment,
	"persona":                     dimension.RoleAssignment,
	"reasoning":                   dimension.ReasoningGuidance,
	"chain_of_thought":            dimension.ReasoningGuidance,
	"limitations":                 dimension.Constraints,
	"constraints_limitations":     dimension.Constraints,
}

func init() {
	for _, d := range dimension.List() {
		aliases[normalizeName(d.ID)] = d.ID
		aliases[normalizeName(d.Label)] = d.ID
	}
}

func normalizeName(name string) string {
	n := strings.ToLower(strings.ReplaceAll(name, "&", " and "))
	n = strings.Trim(nonAlnumRE.ReplaceAllString(n, "_"), "_")
	return strings.TrimSuffix(n, "_if_applicable")
}

// resolveDimension maps a provider's name for a dimension to its id.
func resolveDimension(name string) (string, bool) {
	id, ok := aliases[normalizeName(name)]
	return id, ok
}

// parsed is what could be recovered from a reply. Scores holds only the
// dimensions the reply scored usably, already on the [0,1] scale.
type parsed struct {
	Scores         map[string]float64
	Strengths      []string
	Weaknesses     []string
	Suggestions    []optimizer.Suggestion
	ImprovedPrompt string
}

// cleanJSON extracts the JSON object from a reply that may wrap it in a code
// fence or surround it with prose.
func cleanJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if m := fenceRE.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", errNoJSON
	}
	return text[start : end+1], nil
}

// parseCritique reads a provider reply. Fields that are missing or of the
// wrong type are skipped; only a reply with no JSON object at all fails.
func parseCritique(text string) (*parsed, error) {
	raw, err := cleanJSON(text)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding critique: %w", err)
	}

	p := &parsed{Scores: map[string]float64{}}
	scores, _ := first(doc, "dimension_scores", "scores").(map[string]any)
	p.Scores = normalizeScores(scores)
	p.Strengths = stringList(doc["strengths"])
	p.Weaknesses = stringList(doc["weaknesses"])
	p.Suggestions = suggestionList(doc["suggestions"])
	p.ImprovedPrompt, _ = first(doc, "improved_prompt", "optimized_prompt").(string)
	p.ImprovedPrompt = strings.TrimSpace(p.ImprovedPrompt)
	return p, nil
}

func first(doc map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			return v
		}
	}
	return nil
}

// normalizeScores keeps the entries that name a known dimension and carry a
// number in [0,5]. The critique asks for 1 to 5, so values are mapped
// linearly from that scale onto [0,1], unless the reply has a value below 1
// and none above it, in which case it is read as already on [0,1].
func normalizeScores(raw map[string]any) map[string]float64 {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	values := make(map[string]float64)
	var belowOne, aboveOne bool
	for _, name := range names {
		id, ok := resolveDimension(name)
		if !ok {
			continue
		}
		if _, seen := values[id]; seen {
			continue
		}
		v, ok := number(raw[name])
		if !ok || math.IsNaN(v) || v < 0 || v > 5 {
			continue
		}
		values[id] = v
		switch {
		case v < 1:
			belowOne = true
		case v > 1:
			aboveOne = true
		}
	}

	fivePoint := aboveOne || !belowOne
	for id, v := range values {
		if fivePoint {
			v = (v - 1) / 4
		}
		values[id] = math.Round(math.Max(0, math.Min(1, v))*1e4) / 1e4
	}
	return values
}

// number accepts 4, "4", "4/5" and {"score": 4}.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if m := outOfFiveRE.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case map[string]any:
		return number(x["score"])
	}
	return 0, false
}

func stringList(v any) []string {
	items, _ := v.([]any)
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func suggestionList(v any) []optimizer.Suggestion {
	items, _ := v.([]any)
	var out []optimizer.Suggestion
	for _, item := range items {
		switch x := item.(type) {
		case string:
			if s := strings.TrimSpace(x); s != "" {
				out = append(out, optimizer.Suggestion{Title: s, Description: s})
			}
		case map[string]any:
			s := optimizer.Suggestion{
				Title:       field(x, "title"),
				Description: field(x, "description"),
				Example:     field(x, "example"),
				Rationale:   field(x, "rationale"),
			}
			if id, ok := resolveDimension(field(x, "dimension")); ok {
				s.Dimension = id
			}
			if s.Title == "" {
				s.Title = s.Description
			}
			if s.Title != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func field(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
