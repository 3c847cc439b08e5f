package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
)

// caller holds what both agents need to reach the inference service.
type caller struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings driven.SettingsProvider
	limiter  *Limiter
}

func (c *caller) agentSettings() domain.AgentSettings {
	if c.settings != nil {
		if s := c.settings.Current(); s != nil {
			return s.Agents
		}
	}
	return domain.DefaultAgentSettings()
}

// template returns the named prompt, falling back to the built-in one.
func (c *caller) template(name, fallback string) string {
	if c.prompts == nil {
		return fallback
	}
	prompt, err := c.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// chat sends one request, waiting for the limiter before every attempt.
// Rate limits, 5xx replies and network errors are retried.
func (c *caller) chat(
	ctx context.Context,
	s domain.AgentSettings,
	msg driven.ChatMessage,
	opts driven.ChatOptions,
) (string, error) {
	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	base := s.RetryBaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	retries := s.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(base))

	var reply string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx := ctx
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}

		out, err := c.llm.Chat(callCtx, []driven.ChatMessage{msg}, opts)
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		reply = out
		return nil
	})
	return reply, err
}

func retryable(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrServiceUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// decodeReply extracts the JSON object from a model reply into v.
// Markdown fences and text around the object are ignored.
func decodeReply(reply string, v any) error {
	text := strings.TrimSpace(reply)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return nil
}

// truncate cuts s to at most limit characters.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
