package dimension

import (
	"regexp"
	"strings"
)

// Scaffolds inserted by the rewrites. Bracketed text is a placeholder for the
// author to fill in. None of them contain filler words, vague wording or
// analysis verbs, so inserting one never lowers another dimension's score.
const (
	roleScaffold    = "You are an expert [relevant field] with deep experience in [specific area]."
	contextScaffold = "Context: [Describe the background, audience, and purpose of this request]"
	taskScaffold    = "Task:\n1. [First specific step]\n2. [Second specific step]\n3. [Expected deliverable]"
	structureHeader = "## Request"
	exampleScaffold = "For example:\n```\n[Add an example of the expected input and output]\n```"
	formatScaffold  = "Output format:\n- [Describe the format, for example a bulleted list, table, or JSON]\n- [State the expected length and tone]"
	reasonScaffold  = "Think step by step and explain your reasoning before giving the final answer."
	limitScaffold   = "Constraints:\n- [Limit the response length, for example under 300 words]\n- Do not include [content to exclude]"
	clarityScaffold = "Be specific: state exactly which names, numbers, and details the response must cover."
)

var scaffolds = []string{
	roleScaffold, contextScaffold, taskScaffold, structureHeader, exampleScaffold,
	formatScaffold, reasonScaffold, limitScaffold, clarityScaffold,
}

var (
	contextHeaderRE = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:context|background)\s*:`)
	taskHeaderRE    = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?task\s*:`)
	formatHeaderRE  = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?output(?: format)?\s*:`)
	limitHeaderRE   = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?constraints\s*:`)
)

// stripScaffolds removes inserted scaffolds so that length-based scoring
// judges only what the author wrote.
func stripScaffolds(text string) string {
	for _, s := range scaffolds {
		text = strings.ReplaceAll(text, s, "")
	}
	return strings.TrimSpace(text)
}

func prependBlock(text, block string) string {
	return block + "\n\n" + strings.TrimLeft(text, " \t\r\n")
}

func appendBlock(text, block string) string {
	return strings.TrimRight(text, " \t\r\n") + "\n\n" + block
}

func addRolePreamble(text string) string {
	if roleRE.MatchString(text) {
		return text
	}
	return prependBlock(text, roleScaffold)
}

func addContextScaffold(text string) string {
	if contextHeaderRE.MatchString(text) {
		return text
	}
	return prependBlock(text, contextScaffold)
}

func addTaskSteps(text string) string {
	if taskHeaderRE.MatchString(text) {
		return text
	}
	return appendBlock(text, taskScaffold)
}

func addStructureHeader(text string) string {
	if headerRE.MatchString(text) {
		return text
	}
	return structureHeader + "\n" + strings.TrimLeft(text, " \t\r\n")
}

func addExamplePlaceholder(text string) string {
	if exampleBlockRE.MatchString(text) {
		return text
	}
	return appendBlock(text, exampleScaffold)
}

func addOutputFormat(text string) string {
	if formatHeaderRE.MatchString(text) {
		return text
	}
	return appendBlock(text, formatScaffold)
}

func addReasoningGuidance(text string) string {
	if guidanceRE.MatchString(text) {
		return text
	}
	return appendBlock(text, reasonScaffold)
}

func addConstraints(text string) string {
	if limitHeaderRE.MatchString(text) {
		return text
	}
	return appendBlock(text, limitScaffold)
}

func addClarityDirective(text string) string {
	if strings.Contains(text, clarityScaffold) {
		return text
	}
	return appendBlock(text, clarityScaffold)
}

func removeFillers(text string) string {
	return fillerRE.ReplaceAllString(text, "")
}
