package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/utils"
)

const richPrompt = "You are an experienced data analyst who specializes in retail sales reporting.\n\n" +
	"Context: our team is preparing the quarterly review for regional store managers, and the audience has no statistics background.\n\n" +
	"Task: Summarize the attached sales figures in order to highlight the 3 strongest and 3 weakest product categories.\n\n" +
	"Output format:\n" +
	"- Use a markdown table with the columns Category, Revenue, and Change\n" +
	"- Keep the summary under 200 words in a friendly, professional tone\n" +
	"- Do not include raw transaction data\n\n" +
	"For example:\n" +
	"| Category | Revenue | Change |\n" +
	"| Outdoor | $120k | +8% |\n\n" +
	"Think step by step before answering."

func newOptimizer(opts ...OptimizerOption) (*analyzer.Analyzer, *Optimizer) {
	a := analyzer.New(analyzer.DefaultThresholds)
	return a, New(a, opts...)
}

func TestPrioritize(t *testing.T) {
	scores := map[string]float64{}
	for _, id := range dimension.IDs() {
		scores[id] = 0.9
	}
	scores[dimension.Examples] = 0.3       // weight 0.8
	scores[dimension.TaskDefinition] = 0.3 // weight 1.0
	scores[dimension.Structure] = 0.3      // weight 0.7
	scores[dimension.Constraints] = 0.3    // weight 0.7
	scores[dimension.Context] = 0.1

	got := Prioritize(scores)
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = got[i].ID
	}
	assert.Equal(t, []string{
		dimension.Context,
		dimension.TaskDefinition,
		dimension.Examples,
		dimension.Constraints,
		dimension.Structure,
	}, ids)
}

func TestOptimizeMinimalPrompt(t *testing.T) {
	a, o := newOptimizer()
	res := o.Optimize("write something", a.Analyze("write something"))

	assert.Equal(t, "write something", res.OriginalPrompt)
	assert.NotEqual(t, res.OriginalPrompt, res.OptimizedPrompt)
	assert.Contains(t, res.OptimizedPrompt, "You are an expert")
	assert.Contains(t, res.OptimizedPrompt, "Context:")
	assert.Contains(t, res.OptimizedPrompt, "write something")

	require.Len(t, res.Suggestions, DefaultMaxSuggestions)
	got := make([]string, len(res.Suggestions))
	for i, s := range res.Suggestions {
		got[i] = s.Dimension
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Description)
		assert.NotContains(t, s.Description, "{")
	}
	assert.Equal(t, []string{
		dimension.Specificity,
		dimension.Context,
		dimension.TaskDefinition,
		dimension.Examples,
		dimension.Constraints,
	}, got)
	assert.Contains(t, res.Suggestions[1].Description, `"write something"`)
}

func TestOptimizeStrongPromptIsUnchanged(t *testing.T) {
	a, o := newOptimizer()
	res := o.Optimize(richPrompt, a.Analyze(richPrompt))

	assert.Equal(t, richPrompt, res.OptimizedPrompt)
	assert.Empty(t, res.Suggestions)
	assert.NotNil(t, res.Suggestions)
}

func TestOptimizeIsFixedPoint(t *testing.T) {
	prompts := []string{
		"write something",
		"maybe do stuff",
		"Compare the two pricing plans and decide which is better.",
		"I basically just really need a very quick summary of things etc",
		strings.Repeat("Tell me about dogs. ", 120),
		richPrompt,
		"",
	}
	a, o := newOptimizer()
	for _, p := range prompts {
		first := o.Optimize(p, a.Analyze(p)).OptimizedPrompt
		second := o.Optimize(first, a.Analyze(first)).OptimizedPrompt
		assert.Equal(t, first, second, "prompt %q", p)
	}
}

func TestOptimizeNeverLowersTheScore(t *testing.T) {
	a, o := newOptimizer()
	for _, p := range []string{"write something", "Compare the two pricing plans."} {
		before := a.Analyze(p)
		after := a.Analyze(o.Optimize(p, before).OptimizedPrompt)
		assert.Greater(t, after.OverallScore, before.OverallScore, p)
	}
}

func TestSuggestionCap(t *testing.T) {
	a, o := newOptimizer(WithMaxSuggestions(2))
	res := o.Optimize("write something", a.Analyze("write something"))
	require.Len(t, res.Suggestions, 2)
	// The cap drops suggestions, not rewrites.
	assert.Contains(t, res.OptimizedPrompt, "Constraints:")
	assert.Contains(t, res.OptimizedPrompt, "You are an expert")
}

func TestOptimizeUsesGivenAnalysis(t *testing.T) {
	a, o := newOptimizer()
	analysis := a.Analyze(richPrompt)
	analysis.Scores[dimension.ReasoningGuidance] = 0.1

	res := o.Optimize(richPrompt, analysis)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, dimension.ReasoningGuidance, res.Suggestions[0].Dimension)
	// Guidance is already present, so the rewrite has nothing to add.
	assert.Equal(t, richPrompt, res.OptimizedPrompt)
}

func TestOptimizeRespectsStrongerAnalysis(t *testing.T) {
	a, o := newOptimizer()
	analysis := a.Analyze("write something")
	require.Less(t, analysis.Scores[dimension.Context], a.Thresholds().Weak)
	analysis.Scores[dimension.Context] = 1.0
	a.Classify(analysis)

	res := o.Optimize("write something", analysis)
	for _, s := range res.Suggestions {
		assert.NotEqual(t, dimension.Context, s.Dimension)
	}
	assert.NotContains(t, res.OptimizedPrompt, "Context:")
	assert.Contains(t, res.OptimizedPrompt, "You are an expert")
}

func TestOptimizeFallsBackToWeaknessText(t *testing.T) {
	a, o := newOptimizer()
	analysis := a.Analyze(richPrompt)
	analysis.Scores[dimension.Constraints] = 0.3

	res := o.Optimize(richPrompt, analysis)
	require.Len(t, res.Suggestions, 1)
	assert.Contains(t, res.Suggestions[0].Description, "no boundaries or constraints on the response")
}

func TestOptimizeLogsConvergence(t *testing.T) {
	logger := utils.NewMockLogger()
	a, o := newOptimizer(WithLogger(logger))
	o.Optimize("write something", a.Analyze("write something"))
	logger.AssertCalled(t, "Debug", "Optimization converged", []any{"passes", 1, "suggestions", 5})
}

func TestAppendSuggestions(t *testing.T) {
	res := &Result{Suggestions: []Suggestion{{Title: "Use role prompting", Dimension: dimension.RoleAssignment}}}
	res.AppendSuggestions([]Suggestion{
		{Title: "use  role prompting"},
		{Title: ""},
		{Title: "Mention the audience"},
		{Title: "Shorten it"},
		{Title: "Never reached"},
	}, 3)

	require.Len(t, res.Suggestions, 3)
	assert.Equal(t, "Mention the audience", res.Suggestions[1].Title)
	assert.Equal(t, "Shorten it", res.Suggestions[2].Title)
}
