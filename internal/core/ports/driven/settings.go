package driven

import "github.com/custodia-labs/homeradar/internal/core/domain"

// SettingsProvider exposes the current settings value.
// The returned value must be treated as read-only.
type SettingsProvider interface {
	Current() *domain.Settings
}
