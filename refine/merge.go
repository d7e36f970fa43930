package refine

import (
	"slices"
	"strings"

	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/dimension"
)

// merge lays p over base. Dimensions p scored replace the rule-based score;
// every other dimension keeps it. The result is a new Result, reclassified
// with a's thresholds, and the ids that changed hands are returned in
// catalogue order.
func merge(a *analyzer.Analyzer, base *analyzer.Result, p *parsed) (*analyzer.Result, []string) {
	r := base.Clone()
	var addressed []string
	for _, id := range dimension.IDs() {
		if v, ok := p.Scores[id]; ok {
			r.Scores[id] = v
			addressed = append(addressed, id)
		}
	}
	r.OverallScore = analyzer.Overall(r.Scores)
	a.Classify(r)
	r.Strengths = appendDistinct(r.Strengths, p.Strengths)
	r.Weaknesses = appendDistinct(r.Weaknesses, p.Weaknesses)
	return r, addressed
}

// appendDistinct appends the items of extra not already in list, ignoring
// case and surrounding space.
func appendDistinct(list, extra []string) []string {
	key := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	seen := make([]string, 0, len(list)+len(extra))
	for _, s := range list {
		seen = append(seen, key(s))
	}
	for _, s := range extra {
		if k := key(s); k != "" && !slices.Contains(seen, k) {
			seen = append(seen, k)
			list = append(list, s)
		}
	}
	return list
}
