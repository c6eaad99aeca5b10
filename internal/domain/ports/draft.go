package ports

import (
	"context"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// DraftStore persists the single working draft
type DraftStore interface {
	// Save replaces the stored draft
	Save(ctx context.Context, draft entities.Draft) error

	// Load returns the stored draft, or nil when none was saved
	Load(ctx context.Context) (*entities.Draft, error)
}
