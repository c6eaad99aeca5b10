package ports

import (
	"context"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// PreviewRenderer renders the carousel preview page. Each slide is an
// element whose id is SurfaceID(index).
type PreviewRenderer interface {
	RenderPreview(ctx context.Context, carousel entities.Carousel) ([]byte, error)
}

// OutlineParser turns a markdown outline into a carousel
type OutlineParser interface {
	Parse(ctx context.Context, content []byte) (*entities.Carousel, error)
}
