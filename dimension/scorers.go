package dimension

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	actionVerbRE = keywords("write", "explain", "describe", "list", "summarize", "summarise",
		"create", "generate", "analyze", "analyse", "compare", "classify", "translate", "rewrite",
		"draft", "outline", "identify", "provide", "design", "build", "calculate", "review",
		"evaluate", "recommend", "suggest", "extract", "convert", "define", "plan", "answer")
	questionRE = regexp.MustCompile(`(?i)\?|\b(?:what|how|why|which|when|where|who)\b`)
	quantityRE = regexp.MustCompile(`(?i)\d|\b(?:one|two|three|four|five|six|seven|eight|nine|ten|dozen|hundred)\b`)
	ambiguousRE = keywords("kind of", "sort of", "and so on", "maybe", "perhaps", "somewhat",
		"etc", "something", "stuff", "things")

	contextRE = keywords("background", "context", "currently", "situation", "scenario",
		"audience", "given that", "assuming", "we are", "we're", "i am", "i'm", "our", "my",
		"purpose", "because", "working on", "project")

	taskPhraseRE = regexp.MustCompile(`(?i)\btask:|\b(?:your task|i need|i want you to|please|the goal is|you will|you should)\b`)
	purposeRE    = keywords("in order to", "so that", "purpose", "goal", "aim", "objective")
	stepsRE      = keywords("first", "then", "next", "finally", "step", "steps")
	vagueTaskRE  = keywords("do something", "help me", "not sure", "whatever you think",
		"something", "anything")

	emphasisRE = regexp.MustCompile("(?m)\\*\\*|__|```|^\\s*\\|")

	exampleRE      = regexp.MustCompile(`(?i)\b(?:for example|for instance|such as|examples?|samples?)\b|\be\.g\.`)
	exampleBlockRE = regexp.MustCompile(`(?i)(?:example|for instance|e\.g\.)[^\n]*:[ \t]*\n`)
	inlineCodeRE   = regexp.MustCompile("`[^`\n]+`")
	quotedRE       = regexp.MustCompile(`"[^"\n]{3,}"|“[^”\n]{3,}”`)
	ioPairRE       = regexp.MustCompile(`(?is)\b(?:input|before)\b.*\b(?:output|after)\b`)

	wordyRE = keywords("please note that", "it is important to note", "i would like you to",
		"due to the fact that", "at this point in time", "in the event that")

	formatRE   = keywords("format", "bullet", "bulleted", "bullets", "list", "table", "json",
		"markdown", "csv", "yaml", "paragraph", "paragraphs", "heading", "headings", "outline", "numbered")
	lengthRE   = regexp.MustCompile(`(?i)\b\d+\s*(?:-\s*\d+\s*)?(?:words|sentences|paragraphs|bullet points|bullets|items|characters|lines|pages|points)\b`)
	toneRE     = keywords("tone", "style", "formal", "informal", "friendly", "professional",
		"casual", "persuasive", "technical", "conversational")
	audienceRE = regexp.MustCompile(`(?i)\baudience\b|\breaders?\b|\bfor (?:beginners|experts|children|students|executives|managers|developers|engineers)\b`)
	outputRE   = keywords("output", "response", "answer")

	roleRE      = regexp.MustCompile(`(?i)\b(?:act as|you are (?:an?|the)|assume the role of|pretend (?:you are|to be)|as an? (?:expert|experienced|senior|professional))\b`)
	expertiseRE = keywords("expert", "experienced", "specialist", "professional", "senior",
		"seasoned", "veteran")
	qualifierRE = regexp.MustCompile(`(?i)\bspeciali[sz]\w*|\b(?:experience in|expertise in|trained in|background in)\b`)

	guidanceRE = keywords("step by step", "step-by-step", "think through", "walk through",
		"before answering", "explain your reasoning", "show your work", "reason about",
		"consider each", "break it down", "break this down")
	thinkingRE  = keywords("think", "reasoning", "rationale", "justify", "consider")
	frameworkRE = keywords("pros and cons", "first principles", "chain of thought",
		"trade-offs", "tradeoffs", "trade-off", "criteria")
	analyticRE = keywords("analyze", "analyse", "compare", "solve", "calculate", "evaluate",
		"decide", "why", "prove", "debug")

	constraintRE = keywords("no more than", "at most", "at least", "need to", "do not", "don't",
		"must", "should", "only", "avoid", "limit", "keep", "never", "exclude", "without",
		"within", "under", "maximum", "minimum")
	numericLimitRE = regexp.MustCompile(`(?i)\b(?:under|no more than|at most|at least|within|maximum of|minimum of|fewer than|less than|up to)\s+\$?\d+`)
	deadlineRE     = regexp.MustCompile(`(?i)\bdeadline\b|\bby (?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|today|end of)\b|\bwithin \d+ (?:minutes|hours|days|weeks)\b`)
)

func scoreClarity(text string) Evaluation {
	ev := Evaluation{Score: 0.4}
	n := len(contentWords(text))

	if actionVerbRE.MatchString(text) {
		ev.add(0.15)
		ev.good("uses a direct instruction verb")
	}
	if questionRE.MatchString(text) {
		ev.add(0.1)
		ev.good("asks a direct question")
	}
	if quantityRE.MatchString(text) {
		ev.add(0.15)
		ev.good("includes concrete quantities")
	}
	if n >= 12 {
		ev.add(0.1)
	}
	if n >= 30 {
		ev.add(0.1)
	}
	if vague := distinct(ambiguousRE, text); len(vague) > 0 {
		ev.add(-0.15)
		ev.bad("contains vague wording such as " + quoteList(vague, 3))
	}
	if n < 6 {
		ev.bad("instruction is too short to be unambiguous")
	}
	return ev
}

func scoreContext(text string) Evaluation {
	ev := Evaluation{Score: 0.2}
	cw := len(contentWords(text))

	found := distinct(contextRE, text)
	if len(found) > 0 {
		ev.add(min(0.15*float64(len(found)), 0.45))
		ev.good("mentions background such as " + quoteList(found, 3))
	} else {
		ev.bad("gives no background, audience or purpose")
	}

	for _, s := range sentences(text) {
		if contextRE.MatchString(s) && len(contentWords(s)) >= 10 {
			ev.add(0.15)
			ev.good("explains the situation in a full sentence")
			break
		}
	}
	if cw >= 40 {
		ev.add(0.1)
	}
	return ev
}

func scoreTaskDefinition(text string) Evaluation {
	ev := Evaluation{Score: 0.3}

	if actionVerbRE.MatchString(text) {
		ev.add(0.2)
		ev.good("names a concrete action")
	} else {
		ev.bad("does not say what action to take")
	}
	if taskPhraseRE.MatchString(text) {
		ev.add(0.15)
		ev.good("states the request explicitly")
	}
	if purposeRE.MatchString(text) {
		ev.add(0.15)
		ev.good("explains the goal of the task")
	}
	if numberedRE.MatchString(text) || stepsRE.MatchString(text) {
		ev.add(0.1)
		ev.good("breaks the task into steps")
	}
	if len(contentWords(text)) >= 15 {
		ev.add(0.1)
	}
	if vague := distinct(vagueTaskRE, text); len(vague) > 0 {
		ev.add(-0.2)
		ev.bad("the requested outcome is open-ended (" + quoteList(vague, 2) + ")")
	}
	return ev
}

func scoreStructure(text string) Evaluation {
	ev := Evaluation{Score: 0.3}
	organised := false

	if numberedRE.MatchString(text) {
		ev.add(0.2)
		ev.good("uses a numbered list")
		organised = true
	}
	if bulletRE.MatchString(text) {
		ev.add(0.2)
		ev.good("uses bullet points")
		organised = true
	}
	if headerRE.MatchString(text) {
		ev.add(0.15)
		ev.good("separates sections with headings")
		organised = true
	}
	if strings.Contains(text, "\n\n") {
		ev.add(0.1)
	}
	if emphasisRE.MatchString(text) {
		ev.add(0.05)
	}
	if !organised {
		ev.bad("is a single block without lists or sections")
	}
	return ev
}

func scoreExamples(text string) Evaluation {
	ev := Evaluation{Score: 0.3}

	switch n := len(exampleRE.FindAllString(text, -1)); {
	case n >= 2:
		ev.add(0.3)
		ev.good("refers to examples more than once")
	case n == 1:
		ev.add(0.2)
		ev.good("refers to an example")
	}
	if exampleBlockRE.MatchString(text) {
		ev.add(0.15)
		ev.good("sets an example apart in its own block")
	}
	if codeFenceRE.MatchString(text) || inlineCodeRE.MatchString(text) {
		ev.add(0.15)
		ev.good("includes code or literal samples")
	}
	if quotedRE.MatchString(text) {
		ev.add(0.1)
	}
	if ioPairRE.MatchString(text) {
		ev.add(0.15)
		ev.good("shows an input/output pair")
	}
	if len(ev.Notes(true)) == 0 {
		ev.bad("shows no example of the expected result")
	}
	return ev
}

func scoreConciseness(text string) Evaluation {
	ev := Evaluation{Score: 0.9}
	body := stripScaffolds(text)

	switch l := len([]rune(body)); {
	case l > 1500:
		ev.add(-0.2)
		ev.bad(fmt.Sprintf("is long (%d characters)", l))
	case l > 800:
		ev.add(-0.1)
		ev.bad(fmt.Sprintf("is long (%d characters)", l))
	}

	all := words(body)
	if len(all) >= 20 {
		unique := make(map[string]bool, len(all))
		for _, w := range all {
			unique[w] = true
		}
		ratio := float64(len(unique)) / float64(len(all))
		switch {
		case ratio < 0.5:
			ev.add(-0.3)
			ev.bad("repeats the same words heavily")
		case ratio < 0.65:
			ev.add(-0.15)
			ev.bad("repeats words often")
		}
	}

	var used []string
	count := 0
	for _, w := range all {
		if fillers[w] {
			count++
			used = append(used, w)
		}
	}
	if count > 0 {
		ev.add(-min(0.05*float64(count), 0.25))
		ev.bad("uses filler words such as " + quoteList(distinctStrings(used), 3))
	}
	if wordy := distinct(wordyRE, body); len(wordy) > 0 {
		ev.add(-min(0.1*float64(len(wordy)), 0.2))
		ev.bad("uses wordy phrasing such as " + quoteList(wordy, 2))
	}
	if len(ev.Notes(false)) == 0 {
		ev.good("says what it needs without padding")
	}
	return ev
}

func scoreSpecificity(text string) Evaluation {
	ev := Evaluation{Score: 0.2}

	if f := distinct(formatRE, text); len(f) > 0 {
		ev.add(0.25)
		ev.good("names an output format (" + quoteList(f, 2) + ")")
	} else {
		ev.bad("does not say what form the answer should take")
	}
	if lengthRE.MatchString(text) {
		ev.add(0.2)
		ev.good("sets an expected length")
	}
	if toneRE.MatchString(text) {
		ev.add(0.15)
		ev.good("describes the tone or style")
	}
	if audienceRE.MatchString(text) {
		ev.add(0.15)
		ev.good("identifies the audience")
	}
	if outputRE.MatchString(text) {
		ev.add(0.05)
	}
	return ev
}

func scoreRoleAssignment(text string) Evaluation {
	ev := Evaluation{Score: 0.3}

	if roleRE.MatchString(text) {
		ev.add(0.45)
		ev.good("assigns the model a role")
	} else {
		ev.bad("does not tell the model who it should act as")
	}
	if expertiseRE.MatchString(text) {
		ev.add(0.15)
		ev.good("states the expected level of expertise")
	}
	if qualifierRE.MatchString(text) {
		ev.add(0.1)
	}
	return ev
}

func scoreReasoningGuidance(text string) Evaluation {
	ev := Evaluation{Score: 0.5}
	guided := false

	if guidanceRE.MatchString(text) {
		ev.add(0.25)
		ev.good("asks for step-by-step reasoning")
		guided = true
	}
	if thinkingRE.MatchString(text) {
		ev.add(0.15)
		guided = true
	}
	if frameworkRE.MatchString(text) {
		ev.add(0.15)
		ev.good("suggests a framework for the reasoning")
	}
	if !guided && analyticRE.MatchString(text) {
		ev.add(-0.2)
		ev.bad("asks for analysis without guiding the reasoning")
	}
	return ev
}

func scoreConstraints(text string) Evaluation {
	ev := Evaluation{Score: 0.45}
	if len(contentWords(text)) < 8 {
		ev.Score = 0.3
	}

	if found := distinct(constraintRE, text); len(found) > 0 {
		ev.add(min(0.1*float64(len(found)), 0.3))
		ev.good("sets boundaries (" + quoteList(found, 3) + ")")
	} else {
		ev.bad("sets no limits on the response")
	}
	if numericLimitRE.MatchString(text) {
		ev.add(0.15)
		ev.good("gives a measurable limit")
	}
	if deadlineRE.MatchString(text) {
		ev.add(0.1)
	}
	return ev
}

func distinctStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
