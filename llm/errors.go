package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of an error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeProvider
	ErrorTypeRequest
	ErrorTypeResponse
	ErrorTypeAPI
	ErrorTypeRateLimit
	ErrorTypeAuthentication
	ErrorTypeInvalidInput
	ErrorTypeTimeout
	ErrorTypeInvariant
)

// LLMError represents an error raised while analyzing a prompt or talking to
// a provider.
type LLMError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

func (e *LLMError) TypeString() string {
	switch e.Type {
	case ErrorTypeProvider:
		return "ProviderError"
	case ErrorTypeRequest:
		return "RequestError"
	case ErrorTypeResponse:
		return "ResponseError"
	case ErrorTypeAPI:
		return "APIError"
	case ErrorTypeRateLimit:
		return "RateLimitError"
	case ErrorTypeAuthentication:
		return "AuthenticationError"
	case ErrorTypeInvalidInput:
		return "InvalidInputError"
	case ErrorTypeTimeout:
		return "TimeoutError"
	case ErrorTypeInvariant:
		return "InvariantError"
	default:
		return "UnknownError"
	}
}

// LoggableFields returns the error as key/value pairs for a utils.Logger.
func (e *LLMError) LoggableFields() []any {
	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return []any{"error_type", e.TypeString(), "message", e.Message, "cause", cause}
}

// NewLLMError creates a new LLMError
func NewLLMError(errType ErrorType, message string, err error) *LLMError {
	return &LLMError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the type of the outermost LLMError in err's chain, or
// ErrorTypeUnknown if there is none.
func TypeOf(err error) ErrorType {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether any LLMError in err's chain has type t.
func IsType(err error, t ErrorType) bool {
	for err != nil {
		var llmErr *LLMError
		if !errors.As(err, &llmErr) {
			return false
		}
		if llmErr.Type == t {
			return true
		}
		err = llmErr.Err
	}
	return false
}

// IsRecoverable reports whether err belongs to the provider family: failures
// of an outbound call that the caller can absorb by falling back to the
// rule-based result. Cancellation by the caller is never recoverable.
func IsRecoverable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch TypeOf(err) {
	case ErrorTypeProvider, ErrorTypeRequest, ErrorTypeResponse, ErrorTypeAPI,
		ErrorTypeAuthentication, ErrorTypeTimeout:
		return true
	}
	return false
}
