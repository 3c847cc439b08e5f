package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/core/ports/driving"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.Ingestor = (*IngestOrchestrator)(nil)

// IngestOrchestrator takes raw posts through dedupe, keyword filtering,
// classification, extraction and completion, and writes one record per url.
//
// Posts are processed one at a time; the existence check and the insert
// for a url happen back to back. The store's url uniqueness covers the
// case of two orchestrators sharing one store.
type IngestOrchestrator struct {
	store      driven.RecordStore
	classifier driven.Classifier
	completer  driven.Completer
	extractor  *DetailExtractor
	settings   driven.SettingsProvider

	now   func() time.Time
	newID func() string

	// The keyword filter is rebuilt when the published settings change.
	mu         sync.Mutex
	filterFrom *domain.Settings
	filter     *KeywordFilter
}

// NewIngestOrchestrator creates a new orchestrator.
func NewIngestOrchestrator(
	store driven.RecordStore,
	classifier driven.Classifier,
	completer driven.Completer,
	extractor *DetailExtractor,
	settings driven.SettingsProvider,
) *IngestOrchestrator {
	if extractor == nil {
		extractor = NewDetailExtractor(nil)
	}
	return &IngestOrchestrator{
		store:      store,
		classifier: classifier,
		completer:  completer,
		extractor:  extractor,
		settings:   settings,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// keywordFilter returns the filter for the current settings.
func (o *IngestOrchestrator) keywordFilter() *KeywordFilter {
	current := o.settings.Current()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filter == nil || o.filterFrom != current {
		o.filter = NewKeywordFilter(current.Keywords)
		o.filterFrom = current
	}
	return o.filter
}

// Ingest processes a single post.
func (o *IngestOrchestrator) Ingest(ctx context.Context, post domain.RawPost) (domain.IngestOutcome, error) {
	if err := post.Validate(); err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("%w: post has no url", err)
	}
	outcome := domain.IngestOutcome{URL: post.URL}

	// 1. Dedupe
	exists, err := o.store.Exists(ctx, post.URL)
	if err != nil {
		return outcome, fmt.Errorf("check %s: %w", post.URL, err)
	}
	if exists {
		logger.Debug("skip %s: already stored", post.URL)
		outcome.State = domain.StateDeduped
		return outcome, nil
	}

	body := StripNoise(post.Content)
	filter := o.keywordFilter()
	record := o.newRecord(post)

	// 2. Broker keyword pre-empts classification
	if term := filter.MatchBrokerKeyword(body); term != "" {
		record.Category = domain.CategoryBroker
		record.IsBroker = true
		record.Reason = "broker keyword: " + term
		record.FilterMatch = term
		logger.Info("broker %s: matched %q", post.URL, term)
		return o.persist(ctx, outcome, record, domain.StateBrokerRejected)
	}

	// 3. Blacklist
	if term := filter.MatchBlacklist(body); term != "" {
		record.Category = domain.CategorySpam
		record.Reason = "blacklist keyword: " + term
		record.FilterMatch = term
		logger.Info("filtered %s: blacklisted %q", post.URL, term)
		return o.persist(ctx, outcome, record, domain.StateFilteredPersisted)
	}

	// 4. Classification
	result := o.classify(ctx, body, post)
	confidence := result.Confidence
	record.Category = result.Category
	record.IsBroker = result.IsBroker
	record.Confidence = &confidence
	record.Reason = result.Reason
	if !result.Category.IsRelevant() {
		logger.Info("filtered %s: %s (%.2f)", post.URL, result.Category, result.Confidence)
		return o.persist(ctx, outcome, record, domain.StateFilteredPersisted)
	}

	// 5. Extraction and completion
	details := o.extractor.Extract(post.Content, post.GroupName)
	if len(details.Missing()) > 0 {
		details = details.MergeMissing(o.complete(ctx, body, details, post.URL))
	}
	record.Details = details
	record.Relevant = true
	return o.persist(ctx, outcome, record, domain.StatePersisted)
}

func (o *IngestOrchestrator) newRecord(post domain.RawPost) domain.PostRecord {
	scannedAt := post.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = o.now()
	}
	return domain.PostRecord{
		ID:        o.newID(),
		URL:       post.URL,
		Content:   post.Content,
		Author:    post.Author,
		GroupName: post.GroupName,
		ScannedAt: scannedAt,
	}
}

// classify calls the agent and substitutes the fallback on failure.
func (o *IngestOrchestrator) classify(ctx context.Context, body string, post domain.RawPost) domain.ClassificationResult {
	if o.classifier == nil {
		return domain.FallbackClassification(domain.NewAgentError("classify", domain.ErrLLMUnavailable))
	}
	result, err := o.classifier.Classify(ctx, body, post.Author, post.Images)
	if err != nil {
		logger.Warn("classify %s: %v", post.URL, err)
		return domain.FallbackClassification(err)
	}
	return result
}

// complete calls the agent; a failure contributes nothing.
func (o *IngestOrchestrator) complete(
	ctx context.Context,
	body string,
	found domain.ExtractedDetails,
	url string,
) domain.PartialDetails {
	if o.completer == nil {
		return domain.PartialDetails{}
	}
	partial, err := o.completer.CompleteMissing(ctx, body, found)
	if err != nil {
		logger.Warn("complete %s: %v", url, err)
		return domain.PartialDetails{}
	}
	return partial
}

// persist writes the record. A url inserted concurrently by another
// writer is reported as deduped.
func (o *IngestOrchestrator) persist(
	ctx context.Context,
	outcome domain.IngestOutcome,
	record domain.PostRecord,
	state domain.IngestState,
) (domain.IngestOutcome, error) {
	record.CreatedAt = o.now()
	if err := o.store.Insert(ctx, record); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Debug("skip %s: stored by another writer", record.URL)
			outcome.State = domain.StateDeduped
			return outcome, nil
		}
		return outcome, fmt.Errorf("insert %s: %w", record.URL, err)
	}
	logger.Debug("%s %s [%s]", state, record.URL, record.Category)
	outcome.State = state
	outcome.Record = &record
	return outcome, nil
}

// IngestAll processes posts in order. Per-post failures are counted and
// logged; only a cancelled context stops the pass early.
func (o *IngestOrchestrator) IngestAll(ctx context.Context, posts []domain.RawPost) (domain.PassSummary, error) {
	summary := domain.PassSummary{RunID: uuid.NewString()}
	logger.Section("ingest " + summary.RunID)

	for i := range posts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := o.Ingest(ctx, posts[i])
		if err != nil {
			summary.Total++
			summary.Errors++
			logger.Error("post %d: %v", i+1, err)
			continue
		}
		summary.Add(outcome)
	}

	logger.Info("pass %s: %d posts, %d new, %d filtered, %d broker, %d seen, %d errors",
		summary.RunID, summary.Total, summary.Persisted, summary.Filtered,
		summary.Broker, summary.Deduped, summary.Errors)
	return summary, nil
}
