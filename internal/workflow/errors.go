package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Code tags an AgentError for programmatic handling.
type Code string

const (
	CodeWorkflowNotFound          Code = "WORKFLOW_NOT_FOUND"
	CodeInvalidWorkflowParameters Code = "INVALID_WORKFLOW_PARAMETERS"
	CodeWorkflowExecutionFailed   Code = "WORKFLOW_EXECUTION_FAILED"
	CodeLLMProviderUnavailable    Code = "LLM_PROVIDER_UNAVAILABLE"
	CodeNoResponsesToAggregate    Code = "NO_RESPONSES_TO_AGGREGATE"
	CodeWorkflowMetricsNotFound   Code = "WORKFLOW_METRICS_NOT_FOUND"
	CodeUnknown                   Code = "UNKNOWN_ERROR"
)

// AgentError is a failure value that carries recovery intent along with the
// usual message. Recoverable is fixed at construction.
type AgentError struct {
	Code        Code
	Message     string
	Details     any
	Recoverable bool
	Timestamp   time.Time
	Inner       error
}

// NewError creates an AgentError.
func NewError(code Code, message string, recoverable bool) *AgentError {
	return &AgentError{
		Code:        code,
		Message:     message,
		Recoverable: recoverable,
		Timestamp:   time.Now(),
	}
}

// WrapError creates an AgentError around an underlying cause.
func WrapError(code Code, message string, recoverable bool, inner error, details any) *AgentError {
	e := NewError(code, message, recoverable)
	e.Inner = inner
	e.Details = details
	return e
}

func (e *AgentError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(e.Code))
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Inner != nil {
		if msg := e.Inner.Error(); msg != "" && msg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(msg)
		}
	}
	return sb.String()
}

func (e *AgentError) Unwrap() error {
	return e.Inner
}

// AsAgentError returns err as an AgentError. The outermost AgentError in the
// chain wins; anything untagged becomes a recoverable UNKNOWN_ERROR.
func AsAgentError(err error) *AgentError {
	if err == nil {
		return nil
	}
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae
	}
	return WrapError(CodeUnknown, err.Error(), true, err, nil)
}

// HasCode reports whether any AgentError in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var ae *AgentError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Code == code {
			return true
		}
		err = ae.Inner
	}
	return false
}

func errWorkflowNotFound(p PatternType) *AgentError {
	return NewError(CodeWorkflowNotFound, fmt.Sprintf("no handler registered for pattern %s", p), true)
}

func errInvalidParameters(p PatternType) *AgentError {
	return NewError(CodeInvalidWorkflowParameters, fmt.Sprintf("invalid parameters for pattern %s", p), true)
}

func errMetricsNotFound(p PatternType) *AgentError {
	return NewError(CodeWorkflowMetricsNotFound, fmt.Sprintf("no metrics tracked for pattern %s", p), false)
}
