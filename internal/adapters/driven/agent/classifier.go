package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

const (
	classifyAgent     = "classify"
	classifyMaxTokens = 200
)

// Classifier labels posts using the inference service.
type Classifier struct {
	caller
}

// NewClassifier creates a classification agent.
// prompts and settings may be nil, in which case built-in defaults are used.
// A nil llm makes every call fail with an unavailable AgentError.
func NewClassifier(
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings driven.SettingsProvider,
	limiter *Limiter,
) *Classifier {
	return &Classifier{caller{llm: llm, prompts: prompts, settings: settings, limiter: limiter}}
}

// classifyReply is the JSON object the model is asked to return.
// Both camelCase and snake_case broker keys are accepted.
type classifyReply struct {
	Category      string   `json:"category"`
	IsBroker      *bool    `json:"isBroker"`
	IsBrokerSnake *bool    `json:"is_broker"`
	Confidence    *float64 `json:"confidence"`
	Reason        string   `json:"reason"`
}

// Classify asks the service for a category and applies the confidence floor.
func (c *Classifier) Classify(
	ctx context.Context,
	content, author string,
	images []string,
) (domain.ClassificationResult, error) {
	s := c.agentSettings()

	if c.llm == nil || !c.llm.SupportsImages() {
		images = nil
	}
	if s.MaxImages >= 0 && len(images) > s.MaxImages {
		images = images[:s.MaxImages]
	}
	instruction, note := "Read the post below", ""
	if len(images) > 0 {
		instruction = "Read the attached images and the post below"
		note = "Images: attached. Read them carefully."
	}
	if author == "" {
		author = "unknown"
	}

	prompt := fmt.Sprintf(
		c.template(driven.PromptClassify, DefaultClassifyPrompt),
		instruction, author, truncate(content, s.ClassifyContentLimit), note,
	)
	msg := driven.ChatMessage{Role: "user", Content: prompt, ImageURLs: images}

	reply, err := c.chat(ctx, s, msg, driven.ChatOptions{MaxTokens: classifyMaxTokens, Temperature: 0})
	if err != nil {
		return domain.ClassificationResult{}, domain.NewAgentError(classifyAgent, err)
	}

	result, err := parseClassification(reply)
	if err != nil {
		logger.Debug("classify: unparseable reply: %q", reply)
		return domain.ClassificationResult{}, domain.NewAgentError(classifyAgent, err)
	}
	return result.Finalise(s.ConfidenceFloor), nil
}

func parseClassification(reply string) (domain.ClassificationResult, error) {
	var r classifyReply
	if err := decodeReply(reply, &r); err != nil {
		return domain.ClassificationResult{}, err
	}
	if r.Category == "" || r.Confidence == nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: missing category or confidence", domain.ErrMalformedResponse)
	}

	broker := r.IsBroker
	if broker == nil {
		broker = r.IsBrokerSnake
	}
	return domain.ClassificationResult{
		Category:   domain.Category(strings.ToUpper(strings.TrimSpace(r.Category))),
		IsBroker:   broker != nil && *broker,
		Confidence: *r.Confidence,
		Reason:     strings.TrimSpace(r.Reason),
	}, nil
}
