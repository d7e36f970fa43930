// Package optimizer turns an analysis into a rewritten prompt and a ranked
// list of suggestions.
package optimizer

import (
	"sort"
	"strings"

	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/utils"
)

const (
	DefaultMaxSuggestions = 5
	excerptLength         = 60
)

type Optimizer struct {
	analyzer       *analyzer.Analyzer
	maxSuggestions int
	logger         utils.Logger
}

type OptimizerOption func(*Optimizer)

func WithMaxSuggestions(n int) OptimizerOption {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxSuggestions = n
		}
	}
}

func WithLogger(logger utils.Logger) OptimizerOption {
	return func(o *Optimizer) {
		o.logger = logger
	}
}

// New returns an Optimizer that uses a's thresholds to decide what is weak and
// a itself to re-check its own rewrites.
func New(a *analyzer.Analyzer, opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{
		analyzer:       a,
		maxSuggestions: DefaultMaxSuggestions,
		logger:         utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Prioritize orders the catalogue by ascending score, then descending weight,
// then id.
func Prioritize(scores map[string]float64) []dimension.Definition {
	defs := dimension.List()
	sort.SliceStable(defs, func(i, j int) bool {
		si, sj := scores[defs[i].ID], scores[defs[j].ID]
		if si != sj {
			return si < sj
		}
		if defs[i].Weight != defs[j].Weight {
			return defs[i].Weight > defs[j].Weight
		}
		return defs[i].ID < defs[j].ID
	})
	return defs
}

// Optimize rewrites prompt to address every dimension the analysis rates as
// weak and explains the highest-priority changes.
//
// Suggestions come from the analysis passed in. The rewrite is then re-scored
// and any dimension that is still or newly weak has its rewrite applied too,
// until a pass changes nothing, so that optimizing the output again is a no-op.
// A dimension the analysis rates at or above the weak threshold is left alone
// even where the rules alone would rewrite it.
func (o *Optimizer) Optimize(prompt string, analysis *analyzer.Result) *Result {
	res := &Result{
		OriginalPrompt:  prompt,
		OptimizedPrompt: prompt,
		Suggestions:     []Suggestion{},
		Analysis:        analysis,
	}

	weak := o.weakInOrder(analysis.Scores)
	if len(weak) == 0 {
		return res
	}

	th := o.analyzer.Thresholds()
	excerpt := dimension.Excerpt(prompt, excerptLength)
	for _, d := range weak {
		if len(res.Suggestions) >= o.maxSuggestions {
			break
		}
		bucket := dimension.BucketFor(analysis.Scores[d.ID], th.Weak, th.Strong)
		tpl, ok := dimension.TemplateFor(d.ID, bucket)
		if !ok {
			o.logger.Warn("No suggestion template", "dimension", d.ID, "bucket", bucket.String())
			continue
		}
		evidence := analysis.Evidence(d.ID)
		if evidence == "" {
			evidence = strings.ToLower(d.Weakness)
		}
		filled := tpl.Fill(d.Label, excerpt, evidence)
		res.Suggestions = append(res.Suggestions, Suggestion{
			Title:       filled.Title,
			Description: filled.Description,
			Example:     filled.Example,
			Rationale:   filled.Rationale,
			Dimension:   d.ID,
		})
	}

	held := o.heldByAnalysis(prompt, analysis.Scores)
	text := applyAll(prompt, weak)
	// Each pass either adds a scaffold that was not there or stops, so the
	// loop is bounded by the catalogue size.
	for pass := 1; pass <= len(dimension.IDs()); pass++ {
		next := applyAll(text, without(o.weakInOrder(o.analyzer.Analyze(text).Scores), held))
		if next == text {
			o.logger.Debug("Optimization converged", "passes", pass, "suggestions", len(res.Suggestions))
			break
		}
		text = next
	}
	res.OptimizedPrompt = text
	return res
}

func (o *Optimizer) weakInOrder(scores map[string]float64) []dimension.Definition {
	weakBelow := o.analyzer.Thresholds().Weak
	var out []dimension.Definition
	for _, d := range Prioritize(scores) {
		if scores[d.ID] < weakBelow {
			out = append(out, d)
		}
	}
	return out
}

// heldByAnalysis returns the dimensions the rules rate weak in prompt while
// the given scores do not. Those are never rewritten.
func (o *Optimizer) heldByAnalysis(prompt string, scores map[string]float64) map[string]bool {
	weakBelow := o.analyzer.Thresholds().Weak
	held := map[string]bool{}
	for id, score := range o.analyzer.Analyze(prompt).Scores {
		if score < weakBelow && scores[id] >= weakBelow {
			held[id] = true
		}
	}
	return held
}

func without(defs []dimension.Definition, skip map[string]bool) []dimension.Definition {
	if len(skip) == 0 {
		return defs
	}
	out := defs[:0]
	for _, d := range defs {
		if !skip[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

func applyAll(text string, defs []dimension.Definition) string {
	for _, d := range defs {
		text = d.Transform(text)
	}
	return text
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
