// Package agent adapts an LLMService into the classification and
// completion agents used during ingestion.
//
// Both agents share one Limiter so consecutive inference calls are spaced
// out, retry transient failures with exponential backoff, and report every
// failure as a *domain.AgentError. Substituting a safe default is left to
// the caller.
package agent
