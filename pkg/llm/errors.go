package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Error wraps a provider failure with enough context to decide whether the
// chain should move on to the next provider or retry the same one.
type Error struct {
	Model     string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s model=%s: %v", e.Message, e.Model, e.Cause)
	}
	return fmt.Sprintf("%s model=%s", e.Message, e.Model)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether retrying the same provider could help.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// classifyError categorizes a raw provider error. Auth and model-selection
// failures are permanent; timeouts, rate limits, and 5xx are retryable.
func classifyError(model string, err error) *Error {
	if err == nil {
		return nil
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key"):
		return &Error{Model: model, Message: "authentication failed", Retryable: false, Cause: err}
	case strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return &Error{Model: model, Message: "model not found", Retryable: false, Cause: err}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &Error{Model: model, Message: "rate limited", Retryable: true, Cause: err}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return &Error{Model: model, Message: "request timeout", Retryable: true, Cause: err}
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return &Error{Model: model, Message: "connection failed", Retryable: true, Cause: err}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") || strings.Contains(lower, "504"):
		return &Error{Model: model, Message: "server error", Retryable: true, Cause: err}
	default:
		return &Error{Model: model, Message: "generation failed", Retryable: false, Cause: err}
	}
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
