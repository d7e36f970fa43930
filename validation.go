package promptinspector

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/guiperry/promptinspector/llm"
)

// modelID matches target model names such as "gpt-4o", "claude-3-5-haiku-latest"
// or "openrouter:meta-llama/llama-3.3-8b-instruct:free".
var modelID = regexp.MustCompile(`^[A-Za-z0-9._:/@-]+$`)

func init() {
	if err := llm.RegisterCustomValidation("modelid", func(fl validator.FieldLevel) bool {
		return modelID.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register modelid validator: %v", err))
	}
}

// Validate checks s against its struct tags. A failure is an
// ErrorTypeInvalidInput llm.LLMError naming every offending field.
//
// Example usage:
//
//	err := Validate(&Request{Text: "   "})
//	// err: Text must not be empty
func Validate(s any) error {
	if err := llm.Validate(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
