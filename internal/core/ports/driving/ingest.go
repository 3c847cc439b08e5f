package driving

import (
	"context"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

// Ingestor runs raw posts through the pipeline: dedupe, broker filter,
// blacklist, classification, extraction, completion and persistence.
type Ingestor interface {
	// Ingest processes a single post. Agent failures never surface here;
	// only invalid input and store failures do.
	Ingest(ctx context.Context, post domain.RawPost) (domain.IngestOutcome, error)

	// IngestAll processes a batch in order. A failing post is counted and
	// logged and the pass continues.
	IngestAll(ctx context.Context, posts []domain.RawPost) (domain.PassSummary, error)
}

// DetailExtractor pulls structured fields out of free text without any
// external calls.
type DetailExtractor interface {
	Extract(content, groupName string) domain.ExtractedDetails
}

// PostService exposes stored records to outer actors.
type PostService interface {
	List(ctx context.Context, relevantOnly bool, limit int) ([]domain.PostRecord, error)
}
