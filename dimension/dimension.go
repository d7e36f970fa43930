// Package dimension is the fixed catalogue of prompt-quality dimensions.
//
// Each Definition pairs a weight with a pure scoring function, a deterministic
// rewrite that addresses a low score, and the wording used when the dimension
// is reported as a strength or a weakness. The catalogue is built once at
// package initialisation and never changes for the life of the process.
package dimension

import (
	"math"
	"strings"
)

// Dimension identifiers.
const (
	Clarity           = "clarity"
	Context           = "context"
	TaskDefinition    = "task_definition"
	Structure         = "structure"
	Examples          = "examples"
	Conciseness       = "conciseness"
	Specificity       = "specificity"
	RoleAssignment    = "role_assignment"
	ReasoningGuidance = "reasoning_guidance"
	Constraints       = "constraints"
)

// Observation is one finding a scorer made about a prompt.
type Observation struct {
	Note     string `json:"note"`
	Positive bool   `json:"positive"`
}

// Evaluation is the output of a scoring function.
type Evaluation struct {
	Score        float64
	Observations []Observation
}

func (e *Evaluation) add(delta float64) {
	e.Score += delta
}

func (e *Evaluation) good(note string) {
	e.Observations = append(e.Observations, Observation{Note: note, Positive: true})
}

func (e *Evaluation) bad(note string) {
	e.Observations = append(e.Observations, Observation{Note: note})
}

// Notes returns the observations with the given polarity.
func (e Evaluation) Notes(positive bool) []string {
	var out []string
	for _, o := range e.Observations {
		if o.Positive == positive {
			out = append(out, o.Note)
		}
	}
	return out
}

// EmptyInputNote is the observation every scorer reports for blank text.
const EmptyInputNote = "prompt is empty or whitespace only"

// Definition describes one dimension.
type Definition struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`

	// Strength and Weakness are the fallback statements used when the scorer
	// produced no observation of the matching polarity.
	Strength string `json:"-"`
	Weakness string `json:"-"`

	score     func(text string) Evaluation
	transform func(text string) string
}

// Score evaluates text. It never fails: blank input scores 0 with an
// observation saying so, and the result is always clamped to [0,1] and
// rounded to four decimals so that threshold comparisons are exact.
func (d Definition) Score(text string) Evaluation {
	if strings.TrimSpace(text) == "" {
		return Evaluation{Observations: []Observation{{Note: EmptyInputNote}}}
	}
	ev := d.score(text)
	ev.Score = math.Round(clamp01(ev.Score)*1e4) / 1e4
	return ev
}

// Transform applies the dimension's rewrite. Applying it to its own output
// returns the text unchanged.
func (d Definition) Transform(text string) string {
	if d.transform == nil {
		return text
	}
	return d.transform(text)
}

var catalogue = []Definition{
	{
		ID:          Clarity,
		Label:       "Clarity & Specificity",
		Description: "How clear and unambiguous the instructions are",
		Weight:      1.0,
		Strength:    "Clear and specific instructions",
		Weakness:    "Instructions lack clarity and specificity",
		score:       scoreClarity,
		transform:   addClarityDirective,
	},
	{
		ID:          Context,
		Label:       "Context Provided",
		Description: "Adequacy of background information",
		Weight:      0.8,
		Strength:    "Good background context provided",
		Weakness:    "Insufficient context or background information",
		score:       scoreContext,
		transform:   addContextScaffold,
	},
	{
		ID:          TaskDefinition,
		Label:       "Task Definition",
		Description: "How well the expected task is defined",
		Weight:      1.0,
		Strength:    "Well-defined task or request",
		Weakness:    "Task or request is poorly defined",
		score:       scoreTaskDefinition,
		transform:   addTaskSteps,
	},
	{
		ID:          Structure,
		Label:       "Structure",
		Description: "Organization and formatting of the prompt",
		Weight:      0.7,
		Strength:    "Well-structured prompt with good organization",
		Weakness:    "Poor structure or organization",
		score:       scoreStructure,
		transform:   addStructureHeader,
	},
	{
		ID:          Examples,
		Label:       "Examples",
		Description: "Quality and relevance of examples provided",
		Weight:      0.8,
		Strength:    "Effective use of examples",
		Weakness:    "Missing or ineffective examples",
		score:       scoreExamples,
		transform:   addExamplePlaceholder,
	},
	{
		ID:          Conciseness,
		Label:       "Conciseness",
		Description: "Efficiency of language without unnecessary verbosity",
		Weight:      0.6,
		Strength:    "Concise and efficient language",
		Weakness:    "Unnecessarily verbose or repetitive",
		score:       scoreConciseness,
		transform:   removeFillers,
	},
	{
		ID:          Specificity,
		Label:       "Output Specificity",
		Description: "Clarity about the desired output format or style",
		Weight:      0.9,
		Strength:    "Clear output format or style specifications",
		Weakness:    "Unclear expectations for output format or style",
		score:       scoreSpecificity,
		transform:   addOutputFormat,
	},
	{
		ID:          RoleAssignment,
		Label:       "Role Assignment",
		Description: "Effective use of role prompting",
		Weight:      0.7,
		Strength:    "Effective use of role prompting",
		Weakness:    "No role or persona assigned to the model",
		score:       scoreRoleAssignment,
		transform:   addRolePreamble,
	},
	{
		ID:          ReasoningGuidance,
		Label:       "Reasoning Guidance",
		Description: "Instructions for step-by-step thinking",
		Weight:      0.8,
		Strength:    "Good guidance for reasoning process",
		Weakness:    "No guidance on how to reason through the task",
		score:       scoreReasoningGuidance,
		transform:   addReasoningGuidance,
	},
	{
		ID:          Constraints,
		Label:       "Constraints & Limitations",
		Description: "Clear boundaries and constraints",
		Weight:      0.7,
		Strength:    "Clear constraints and limitations",
		Weakness:    "No boundaries or constraints on the response",
		score:       scoreConstraints,
		transform:   addConstraints,
	},
}

var byID = func() map[string]int {
	idx := make(map[string]int, len(catalogue))
	for i, d := range catalogue {
		if _, dup := idx[d.ID]; dup {
			panic("duplicate dimension id " + d.ID)
		}
		idx[d.ID] = i
	}
	return idx
}()

// List returns the catalogue in its canonical order. The slice is a copy;
// callers may reorder it freely.
func List() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup returns the definition registered under id.
func Lookup(id string) (Definition, bool) {
	i, ok := byID[id]
	if !ok {
		return Definition{}, false
	}
	return catalogue[i], true
}

// IDs returns every registered id in canonical order.
func IDs() []string {
	ids := make([]string, len(catalogue))
	for i, d := range catalogue {
		ids[i] = d.ID
	}
	return ids
}

// TotalWeight is the sum of all weights.
func TotalWeight() float64 {
	var total float64
	for _, d := range catalogue {
		total += d.Weight
	}
	return total
}

// Bucket is the qualitative band a score falls into.
type Bucket int

const (
	BucketMissing Bucket = iota
	BucketWeak
	BucketNeutral
	BucketStrong
)

// missingBelow marks scores low enough that the quality is judged absent
// rather than merely weak.
const missingBelow = 0.25

func (b Bucket) String() string {
	switch b {
	case BucketMissing:
		return "missing"
	case BucketWeak:
		return "weak"
	case BucketNeutral:
		return "neutral"
	case BucketStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// BucketFor classifies score. Comparisons are strict on both thresholds, so a
// score equal to a threshold is neutral.
func BucketFor(score, weak, strong float64) Bucket {
	switch {
	case score < weak && score < missingBelow:
		return BucketMissing
	case score < weak:
		return BucketWeak
	case score > strong:
		return BucketStrong
	default:
		return BucketNeutral
	}
}
