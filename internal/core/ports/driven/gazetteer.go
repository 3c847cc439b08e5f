package driven

import "github.com/custodia-labs/homeradar/internal/core/domain"

// GazetteerSource reads the reference geography.
// Errors are reported as-is; the core decides how to degrade.
type GazetteerSource interface {
	Load() (domain.GazetteerData, error)
}
