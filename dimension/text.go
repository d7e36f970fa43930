package dimension

import (
	"regexp"
	"strings"
)

var (
	wordRE      = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’-]*`)
	sentenceRE  = regexp.MustCompile(`[^.!?\n]+`)
	numberedRE  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s`)
	bulletRE    = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	headerRE    = regexp.MustCompile(`(?m)^(#{1,6}\s|[A-Z][A-Za-z ]{1,30}:)`)
	codeFenceRE = regexp.MustCompile("```")
)

// fillers are words that add length without meaning. They are ignored when
// counting words and removed by the conciseness rewrite.
var fillers = map[string]bool{
	"basically": true,
	"actually":  true,
	"literally": true,
	"really":    true,
	"very":      true,
	"just":      true,
	"quite":     true,
}

var fillerRE = regexp.MustCompile(`(?i)\b(basically|actually|literally|really|very|just|quite)\b[ \t]*`)

// words lower-cases text and splits it into word tokens.
func words(text string) []string {
	return wordRE.FindAllString(strings.ToLower(text), -1)
}

func contentWords(text string) []string {
	all := words(text)
	out := all[:0:0]
	for _, w := range all {
		if !fillers[w] {
			out = append(out, w)
		}
	}
	return out
}

// keywords compiles a case-insensitive, word-bounded alternation.
func keywords(terms ...string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// distinct returns the distinct lower-cased matches of re in text, in order of
// first appearance.
func distinct(re *regexp.Regexp, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllString(text, -1) {
		key := strings.Join(strings.Fields(strings.ToLower(m)), " ")
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

func sentences(text string) []string {
	return sentenceRE.FindAllString(text, -1)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func quoteList(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = `"` + it + `"`
	}
	return strings.Join(quoted, ", ")
}

// Excerpt returns the first n runes of text with whitespace collapsed, marking
// truncation with an ellipsis.
func Excerpt(text string, n int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= n {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
