// Package analyzer scores a prompt against every dimension of the catalogue
// and classifies the results into strengths and weaknesses.
package analyzer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/guiperry/promptinspector/dimension"
)

// MaxScore is the top of the overall scale.
const MaxScore = 5.0

// ErrInvariant marks a Result that does not satisfy the analysis invariants.
// It indicates a programming error, never bad input.
var ErrInvariant = errors.New("analysis invariant violated")

// Thresholds splits the [0,1] score range into weak, neutral and strong.
type Thresholds struct {
	Strong float64
	Weak   float64
}

var DefaultThresholds = Thresholds{Strong: 0.75, Weak: 0.4}

// Result is the outcome of one analysis. It belongs to the request that
// produced it.
type Result struct {
	Scores       map[string]float64 `json:"scores"`
	OverallScore float64            `json:"overall_score"`
	Strengths    []string           `json:"strengths"`
	Weaknesses   []string           `json:"weaknesses"`

	// Observations keeps what each scorer noticed, for suggestion text.
	Observations map[string][]dimension.Observation `json:"-"`
}

type Analyzer struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze runs every scorer over text. It cannot fail.
func (a *Analyzer) Analyze(text string) *Result {
	defs := dimension.List()
	r := &Result{
		Scores:       make(map[string]float64, len(defs)),
		Observations: make(map[string][]dimension.Observation, len(defs)),
	}
	for _, d := range defs {
		ev := d.Score(text)
		r.Scores[d.ID] = ev.Score
		r.Observations[d.ID] = ev.Observations
	}
	r.OverallScore = Overall(r.Scores)
	a.Classify(r)
	return r
}

// Overall is clamp(weighted mean of scores * 5, 0, 5). Missing ids count as 0.
func Overall(scores map[string]float64) float64 {
	var sum, weights float64
	for _, d := range dimension.List() {
		sum += scores[d.ID] * d.Weight
		weights += d.Weight
	}
	if weights == 0 {
		return 0
	}
	return math.Max(0, math.Min(MaxScore, sum/weights*MaxScore))
}

// Classify rebuilds r's strengths and weaknesses from its scores, in
// catalogue order. A score equal to a threshold is neither.
func (a *Analyzer) Classify(r *Result) {
	r.Strengths = []string{}
	r.Weaknesses = []string{}
	for _, d := range dimension.List() {
		score := r.Scores[d.ID]
		switch {
		case score > a.thresholds.Strong:
			r.Strengths = append(r.Strengths, statement(d.Strength, r.Observations[d.ID], true))
		case score < a.thresholds.Weak:
			r.Weaknesses = append(r.Weaknesses, statement(d.Weakness, r.Observations[d.ID], false))
		}
	}
}

func statement(summary string, obs []dimension.Observation, positive bool) string {
	var notes []string
	for _, o := range obs {
		if o.Positive == positive {
			notes = append(notes, o.Note)
		}
	}
	if len(notes) == 0 {
		return summary
	}
	if len(notes) > 2 {
		notes = notes[:2]
	}
	return summary + ": " + strings.Join(notes, "; ")
}

// Weak returns the ids of dimensions strictly below the weak threshold, in
// catalogue order.
func (a *Analyzer) Weak(r *Result) []string {
	var ids []string
	for _, id := range dimension.IDs() {
		if r.Scores[id] < a.thresholds.Weak {
			ids = append(ids, id)
		}
	}
	return ids
}

// Evidence joins the negative observations recorded for id.
func (r *Result) Evidence(id string) string {
	var notes []string
	for _, o := range r.Observations[id] {
		if !o.Positive {
			notes = append(notes, o.Note)
		}
	}
	return strings.Join(notes, "; ")
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	c := &Result{
		Scores:       make(map[string]float64, len(r.Scores)),
		OverallScore: r.OverallScore,
		Strengths:    append([]string{}, r.Strengths...),
		Weaknesses:   append([]string{}, r.Weaknesses...),
		Observations: make(map[string][]dimension.Observation, len(r.Observations)),
	}
	for k, v := range r.Scores {
		c.Scores[k] = v
	}
	for k, v := range r.Observations {
		c.Observations[k] = append([]dimension.Observation(nil), v...)
	}
	return c
}

// Check verifies that r holds exactly the catalogue's ids, that every score is
// in [0,1] and that the overall score matches the scores.
func (r *Result) Check() error {
	ids := dimension.IDs()
	if len(r.Scores) != len(ids) {
		return fmt.Errorf("%w: %d scores for %d dimensions", ErrInvariant, len(r.Scores), len(ids))
	}
	for _, id := range ids {
		s, ok := r.Scores[id]
		if !ok {
			return fmt.Errorf("%w: dimension %q missing", ErrInvariant, id)
		}
		if math.IsNaN(s) || s < 0 || s > 1 {
			return fmt.Errorf("%w: dimension %q scored %v", ErrInvariant, id, s)
		}
	}
	if want := Overall(r.Scores); math.Abs(want-r.OverallScore) > 1e-9 {
		return fmt.Errorf("%w: overall score %v, expected %v", ErrInvariant, r.OverallScore, want)
	}
	return nil
}
