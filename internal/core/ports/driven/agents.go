package driven

import (
	"context"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

// Classifier assigns a category to a post using the inference service.
//
// On failure the returned error is a *domain.AgentError and the result is
// the zero value; the caller chooses the substitute.
type Classifier interface {
	Classify(ctx context.Context, content, author string, images []string) (domain.ClassificationResult, error)
}

// Completer asks the inference service for the fields deterministic
// extraction left empty.
//
// When nothing is missing it returns an empty result without calling out.
// On failure the returned error is a *domain.AgentError.
type Completer interface {
	CompleteMissing(ctx context.Context, content string, found domain.ExtractedDetails) (domain.PartialDetails, error)
}
