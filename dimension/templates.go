package dimension

import "strings"

// Template is the suggestion content for one (dimension, bucket) pair.
// Title, Description and Rationale may reference {label}, {excerpt} and
// {evidence}.
type Template struct {
	Title       string
	Description string
	Example     string
	Rationale   string
}

type templateKey struct {
	id     string
	bucket Bucket
}

var templates = map[templateKey]Template{
	{Clarity, BucketMissing}: {
		Title:       "Rewrite the request in precise terms",
		Description: "The prompt {excerpt} leaves the model guessing: {evidence}.",
		Example:     "Instead of 'Tell me about AI', try 'Explain how AI is used in healthcare, focusing on diagnostic applications and patient outcomes'.",
		Rationale:   "Clear, specific instructions help the model understand exactly what you are looking for.",
	},
	{Clarity, BucketWeak}: {
		Title:       "Improve clarity and specificity",
		Description: "Your prompt could benefit from clearer instructions and more specific language ({evidence}).",
		Example:     "Replace words like 'stuff' or 'something' with the exact subject, and add numbers where they matter.",
		Rationale:   "Clear, specific instructions help the model understand exactly what you are looking for.",
	},
	{Context, BucketMissing}: {
		Title:       "Add context or background information",
		Description: "The prompt {excerpt} gives the model no background: {evidence}.",
		Example:     "Instead of 'How do I fix this?', try 'I'm working with a Python Flask application that returns a 500 error on the /users endpoint. The log shows a database connection issue. How can I troubleshoot it?'",
		Rationale:   "Context helps the model give relevant and accurate responses.",
	},
	{Context, BucketWeak}: {
		Title:       "Expand the background information",
		Description: "Some context is present, but the situation, audience or purpose is still unclear ({evidence}).",
		Example:     "Add a sentence such as 'This is for a team of new hires who have never used our billing system.'",
		Rationale:   "Context helps the model give relevant and accurate responses.",
	},
	{TaskDefinition, BucketMissing}: {
		Title:       "Define the task",
		Description: "It is not clear what the model should produce from {excerpt}: {evidence}.",
		Example:     "Instead of 'Help with my presentation', try 'Create an outline for a 10-minute presentation on renewable energy sources, including 3 main points with supporting data'.",
		Rationale:   "A well-defined task leads to focused and useful responses.",
	},
	{TaskDefinition, BucketWeak}: {
		Title:       "Define the task more clearly",
		Description: "Be more explicit about what you want the model to do ({evidence}).",
		Example:     "List the steps or deliverables you expect, for example '1. Summarize the report 2. List three risks 3. Recommend one action'.",
		Rationale:   "A well-defined task leads to focused and useful responses.",
	},
	{Structure, BucketMissing}: {
		Title:       "Organize the prompt into sections",
		Description: "The prompt is one unbroken block ({evidence}).",
		Example:     "Use headers such as 'Context:', 'Task:' and 'Output format:', each followed by its details.",
		Rationale:   "Well-structured prompts are easier for a model to parse and answer methodically.",
	},
	{Structure, BucketWeak}: {
		Title:       "Improve prompt structure",
		Description: "Organizing your prompt with clear sections or bullet points makes it easier to follow ({evidence}).",
		Example:     "Try structuring your prompt with numbered points or sections with headers.",
		Rationale:   "Well-structured prompts are easier for a model to parse and answer methodically.",
	},
	{Examples, BucketMissing}: {
		Title:       "Include examples",
		Description: "Adding an example of what you are looking for can improve results ({evidence}).",
		Example:     "Write a product description for a coffee maker. Example tone: 'Our premium water filter combines elegant design with powerful filtration technology...'",
		Rationale:   "Examples show the model your expectations for style, format, and content.",
	},
	{Examples, BucketWeak}: {
		Title:       "Show a concrete example",
		Description: "The expected result is easier to hit when the prompt shows one ({evidence}).",
		Example:     "Put the example in its own block after 'For example:' and show both the input and the expected output.",
		Rationale:   "Examples show the model your expectations for style, format, and content.",
	},
	{Conciseness, BucketMissing}: {
		Title:       "Cut the prompt down to essentials",
		Description: "The prompt is padded and repetitive: {evidence}.",
		Example:     "Remove repeated sentences and filler words, keeping one statement per requirement.",
		Rationale:   "Concise prompts are clearer and help the model focus on what is important.",
	},
	{Conciseness, BucketWeak}: {
		Title:       "Make your prompt more concise",
		Description: "Your prompt contains unnecessary words or repetition that could be removed ({evidence}).",
		Example:     "Try removing filler words and focusing on essential information.",
		Rationale:   "Concise prompts are clearer and help the model focus on what is important.",
	},
	{Specificity, BucketMissing}: {
		Title:       "Specify desired output format",
		Description: "Clearly indicate what format you want the response in ({evidence}).",
		Example:     "Add instructions like 'Format the response as a bulleted list' or 'Provide your answer in a table with columns for Feature, Benefit, and Example'.",
		Rationale:   "Specifying the output format ensures you get results in the most useful form.",
	},
	{Specificity, BucketWeak}: {
		Title:       "Tighten the output requirements",
		Description: "Some output expectations are present, but length, tone or audience are missing ({evidence}).",
		Example:     "Add 'Keep it under 150 words, in a friendly tone, for readers new to the topic.'",
		Rationale:   "Specifying the output format ensures you get results in the most useful form.",
	},
	{RoleAssignment, BucketMissing}: {
		Title:       "Use role prompting",
		Description: "Assigning a specific role to the model can improve responses ({evidence}).",
		Example:     "Start your prompt with 'Act as an experienced data scientist' or 'You are an expert in maritime law'.",
		Rationale:   "Role prompting frames the model's perspective and knowledge base for your question.",
	},
	{RoleAssignment, BucketWeak}: {
		Title:       "Use role prompting",
		Description: "Assigning a specific role to the model can improve responses ({evidence}).",
		Example:     "Start your prompt with 'Act as an experienced data scientist' or 'You are an expert in maritime law'.",
		Rationale:   "Role prompting frames the model's perspective and knowledge base for your question.",
	},
	{ReasoningGuidance, BucketMissing}: {
		Title:       "Add reasoning guidance",
		Description: "The prompt {excerpt} asks for analysis without guiding the reasoning ({evidence}).",
		Example:     "Add 'Think step by step' or 'Explain your reasoning as you solve this problem'.",
		Rationale:   "Guidance for reasoning leads to more thorough and logical responses.",
	},
	{ReasoningGuidance, BucketWeak}: {
		Title:       "Add reasoning guidance",
		Description: "Instruct the model to explain its thinking process ({evidence}).",
		Example:     "Add 'Think step by step' or 'Explain your reasoning as you solve this problem'.",
		Rationale:   "Guidance for reasoning leads to more thorough and logical responses.",
	},
	{Constraints, BucketMissing}: {
		Title:       "Add clear constraints",
		Description: "Specify limitations or boundaries for the response ({evidence}).",
		Example:     "Add constraints like 'Keep the explanation under 200 words' or 'Only include methods that don't require specialized tools'.",
		Rationale:   "Clear constraints focus the response on what is most useful to you.",
	},
	{Constraints, BucketWeak}: {
		Title:       "Set measurable constraints",
		Description: "State limits the response can be checked against ({evidence}).",
		Example:     "Replace 'keep it short' with 'no more than 5 bullet points'.",
		Rationale:   "Clear constraints focus the response on what is most useful to you.",
	},
}

// TemplateFor looks up the suggestion template for id in bucket. Only the
// missing and weak buckets carry templates.
func TemplateFor(id string, bucket Bucket) (Template, bool) {
	t, ok := templates[templateKey{id, bucket}]
	return t, ok
}

// Fill substitutes the placeholders in every field of t.
func (t Template) Fill(label, excerpt, evidence string) Template {
	r := strings.NewReplacer(
		"{label}", label,
		"{excerpt}", `"`+excerpt+`"`,
		"{evidence}", evidence,
	)
	return Template{
		Title:       r.Replace(t.Title),
		Description: r.Replace(t.Description),
		Example:     r.Replace(t.Example),
		Rationale:   r.Replace(t.Rationale),
	}
}
