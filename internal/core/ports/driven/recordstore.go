package driven

import (
	"context"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

// RecordStore persists processed posts.
//
// The pipeline only needs Exists and Insert; implementations must also
// enforce url uniqueness so a racing duplicate insert returns
// domain.ErrAlreadyExists instead of writing a second row.
type RecordStore interface {
	// Exists reports whether a record for url was already written.
	Exists(ctx context.Context, url string) (bool, error)

	// Insert writes a new record.
	Insert(ctx context.Context, record domain.PostRecord) error

	// List returns records newest first.
	List(ctx context.Context, opts ListOptions) ([]domain.PostRecord, error)
}

// ListOptions filters List results.
type ListOptions struct {
	// RelevantOnly restricts results to records with the relevance flag set.
	RelevantOnly bool

	// Limit caps the number of records. Zero means the store default.
	Limit int
}
