package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Record stores return it when a url has already been persisted.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or store driver.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Classification and completion fall back to their safe defaults.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the inference service rejected the call with a rate limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates a transient server-side failure (5xx).
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrMalformedResponse indicates the inference service answered with
	// something that could not be decoded into the expected JSON object.
	ErrMalformedResponse = errors.New("malformed response")
)

// AgentErrorKind classifies why an agent call failed.
type AgentErrorKind string

// Agent failure kinds.
const (
	// AgentErrorTransport covers network errors, timeouts and non-200 replies.
	AgentErrorTransport AgentErrorKind = "transport"

	// AgentErrorRateLimited means retries were exhausted against a rate limit.
	AgentErrorRateLimited AgentErrorKind = "rate_limited"

	// AgentErrorMalformed means the reply could not be parsed.
	AgentErrorMalformed AgentErrorKind = "malformed"

	// AgentErrorUnavailable means no inference service is configured.
	AgentErrorUnavailable AgentErrorKind = "unavailable"
)

// AgentError is the typed failure returned by the classification and
// completion agents. Callers decide what to substitute.
type AgentError struct {
	// Agent names the failing agent ("classify" or "complete").
	Agent string

	// Kind classifies the failure.
	Kind AgentErrorKind

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *AgentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s agent: %s", e.Agent, e.Kind)
	}
	return fmt.Sprintf("%s agent: %s: %v", e.Agent, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError wraps err, deriving the kind from the sentinel it carries.
func NewAgentError(agent string, err error) *AgentError {
	kind := AgentErrorTransport
	switch {
	case errors.Is(err, ErrLLMUnavailable):
		kind = AgentErrorUnavailable
	case errors.Is(err, ErrMalformedResponse):
		kind = AgentErrorMalformed
	case errors.Is(err, ErrRateLimited):
		kind = AgentErrorRateLimited
	}
	return &AgentError{Agent: agent, Kind: kind, Err: err}
}
