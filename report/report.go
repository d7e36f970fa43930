// Package report renders an analysis for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/dimension"
)

const barWidth = 20

// Render lays out resp as a terminal report: the overall score, a bar per
// dimension coloured by its band, the strengths, weaknesses and suggestions,
// and the optimized prompt in a box.
func Render(resp *promptinspector.Response, th analyzer.Thresholds, s *Styles) string {
	if s == nil {
		s = NewStyles(nil)
	}
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("Overall score: %.1f / %.0f", resp.OverallScore, analyzer.MaxScore)))
	b.WriteString("\n")
	if resp.Detailed {
		b.WriteString(s.Muted.Render(fmt.Sprintf("Includes a critique from %s (%s)", resp.Provider, resp.Model)))
		b.WriteString("\n")
	}
	if resp.Notice != "" {
		b.WriteString(s.Neutral.Render(resp.Notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, d := range dimension.List() {
		score := resp.Scores[d.ID]
		style := s.Neutral
		switch dimension.BucketFor(score, th.Weak, th.Strong) {
		case dimension.BucketStrong:
			style = s.Strong
		case dimension.BucketMissing, dimension.BucketWeak:
			style = s.Weak
		}
		fmt.Fprintf(&b, "%s %s %s\n", s.Label.Render(d.Label), style.Render(bar(score)), s.Muted.Render(fmt.Sprintf("%3.0f%%", score*100)))
	}

	list(&b, s, "Strengths", resp.Strengths)
	list(&b, s, "Weaknesses", resp.Weaknesses)

	if len(resp.Suggestions) > 0 {
		b.WriteString("\n" + s.Heading.Render("Suggestions") + "\n")
		for i, sg := range resp.Suggestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, sg.Title)
			if sg.Description != "" && sg.Description != sg.Title {
				fmt.Fprintf(&b, "   %s\n", sg.Description)
			}
			if sg.Example != "" {
				fmt.Fprintf(&b, "   %s\n", s.Muted.Render("e.g. "+sg.Example))
			}
		}
	}

	b.WriteString("\n" + s.Heading.Render("Optimized prompt") + "\n")
	b.WriteString(s.Box.Render(resp.OptimizedPrompt))
	b.WriteString("\n")
	if resp.LLMPrompt != "" {
		b.WriteString("\n" + s.Heading.Render("Provider rewrite") + "\n")
		b.WriteString(s.Box.Render(resp.LLMPrompt))
		b.WriteString("\n")
	}
	return b.String()
}

func list(b *strings.Builder, s *Styles, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + s.Heading.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}

func bar(score float64) string {
	filled := int(score*barWidth + 0.5)
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
