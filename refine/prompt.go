package refine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/utils"
)

const systemPrompt = "You are a prompt engineering expert who reviews prompts written for AI models. " +
	"Judge each prompt against the dimensions you are given and give specific, actionable feedback. " +
	"Reply with JSON only."

const (
	truncationMarker = "\n[prompt truncated]"
	// fallbackEncoding is used for models the tokenizer does not know.
	fallbackEncoding = "cl100k_base"
)

// Encodings come from files embedded in the loader module, never the network.
var installLoader sync.Once

// critiquePrompt asks the provider to score text on the catalogue's
// dimensions, by id, and to reply in the Critique shape.
func critiquePrompt(text, targetModel string) string {
	var b strings.Builder
	b.WriteString("Analyze the following prompt and explain how to improve it.\n\n")
	b.WriteString("PROMPT TO ANALYZE:\n```\n")
	b.WriteString(text)
	b.WriteString("\n```\n\n")
	if targetModel != "" {
		fmt.Fprintf(&b, "Target AI model: %s\n\n", targetModel)
	}
	b.WriteString("Score the prompt from 1 (poor) to 5 (excellent) on each of these dimensions, keyed by id:\n")
	for _, d := range dimension.List() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", d.ID, d.Label, d.Description)
	}
	b.WriteString("\nThen list its strengths and weaknesses, give 3 to 5 specific suggestions, " +
		"and write an improved version of the prompt.\n\n")
	b.WriteString(`Respond with a JSON object of the form {"dimension_scores": {"clarity": 4, ...}, ` +
		`"strengths": [...], "weaknesses": [...], ` +
		`"suggestions": [{"title": "...", "description": "...", "example": "...", "rationale": "...", "dimension": "..."}], ` +
		`"improved_prompt": "..."}`)
	return b.String()
}

// truncator cuts prompts down to a token budget, with one encoder per model.
type truncator struct {
	maxTokens int
	logger    utils.Logger

	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

func newTruncator(maxTokens int, logger utils.Logger) *truncator {
	installLoader.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	return &truncator{
		maxTokens: maxTokens,
		logger:    logger,
		encoders:  make(map[string]*tiktoken.Tiktoken),
	}
}

// Truncate returns text cut to the token budget under model's encoding, and
// whether it was cut. A token is never shorter than a byte, so text within
// the budget in bytes is returned without encoding it.
func (t *truncator) Truncate(text, model string) (string, bool) {
	if t.maxTokens <= 0 || len(text) <= t.maxTokens {
		return text, false
	}
	enc, err := t.encoder(model)
	if err != nil {
		t.logger.Warn("No token encoding available, sending prompt untruncated", "model", model, "error", err)
		return text, false
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= t.maxTokens {
		return text, false
	}
	t.logger.Debug("Prompt truncated", "model", model, "tokens", len(tokens), "max_tokens", t.maxTokens)
	return enc.Decode(tokens[:t.maxTokens]) + truncationMarker, true
}

func (t *truncator) encoder(model string) (*tiktoken.Tiktoken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if enc, ok := t.encoders[model]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get default encoding: %w", err)
		}
	}
	t.encoders[model] = enc
	return enc, nil
}
