package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// Ensure Completer implements the interface.
var _ driven.Completer = (*Completer)(nil)

const (
	completeAgent     = "complete"
	completeMaxTokens = 200
)

// fieldLabels describes each fillable field in the completion prompt.
var fieldLabels = map[domain.Field]string{
	domain.FieldPrice:    "price",
	domain.FieldCity:     "city",
	domain.FieldLocation: "location (neighbourhood and/or street)",
	domain.FieldRooms:    "rooms",
}

// Completer fills fields the deterministic extractor left empty.
type Completer struct {
	caller
}

// NewCompleter creates a completion agent. See NewClassifier for nil handling.
func NewCompleter(
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings driven.SettingsProvider,
	limiter *Limiter,
) *Completer {
	return &Completer{caller{llm: llm, prompts: prompts, settings: settings, limiter: limiter}}
}

// completeReply accepts strings or numbers for price and rooms.
type completeReply struct {
	Price    json.RawMessage `json:"price"`
	City     *string         `json:"city"`
	Location *string         `json:"location"`
	Rooms    json.RawMessage `json:"rooms"`
}

// CompleteMissing asks only for the fields missing from found.
// Nothing is sent when no field is missing.
func (c *Completer) CompleteMissing(
	ctx context.Context,
	content string,
	found domain.ExtractedDetails,
) (domain.PartialDetails, error) {
	missing := found.Missing()
	if len(missing) == 0 {
		return domain.PartialDetails{}, nil
	}

	labels := make([]string, len(missing))
	for i, f := range missing {
		labels[i] = fieldLabels[f]
	}

	s := c.agentSettings()
	prompt := fmt.Sprintf(
		c.template(driven.PromptComplete, DefaultCompletePrompt),
		strings.Join(labels, ", "), truncate(content, s.CompleteContentLimit),
	)
	msg := driven.ChatMessage{Role: "user", Content: prompt}

	reply, err := c.chat(ctx, s, msg, driven.ChatOptions{MaxTokens: completeMaxTokens, Temperature: 0})
	if err != nil {
		return domain.PartialDetails{}, domain.NewAgentError(completeAgent, err)
	}

	var r completeReply
	if err := decodeReply(reply, &r); err != nil {
		logger.Debug("complete: unparseable reply: %q", reply)
		return domain.PartialDetails{}, domain.NewAgentError(completeAgent, err)
	}
	return r.partial(missing), nil
}

// partial keeps only the requested fields that carry a usable value.
func (r completeReply) partial(missing []domain.Field) domain.PartialDetails {
	var p domain.PartialDetails
	for _, f := range missing {
		switch f {
		case domain.FieldPrice:
			p.Price = parsePrice(r.Price)
		case domain.FieldCity:
			p.City = cleanText(r.City)
		case domain.FieldLocation:
			p.Location = cleanText(r.Location)
		case domain.FieldRooms:
			p.Rooms = parseRooms(r.Rooms)
		}
	}
	return p
}

func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// parsePrice accepts 2500000, "2500000" or "2,500,000".
// Values outside the accepted price range are dropped.
func parsePrice(raw json.RawMessage) *int64 {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return inRange(int64(num))
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return nil
	}
	return inRange(v)
}

func inRange(v int64) *int64 {
	if !domain.PriceInRange(v) {
		return nil
	}
	return &v
}

// parseRooms accepts 3, 2.5, "3" or "2.5".
func parseRooms(raw json.RawMessage) *string {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num <= 0 {
			return nil
		}
		v := strconv.FormatFloat(num, 'f', -1, 64)
		return &v
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || num <= 0 {
		return nil
	}
	v := strconv.FormatFloat(num, 'f', -1, 64)
	return &v
}
