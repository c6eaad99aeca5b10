package ports

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// SurfacePrefix prefixes every rendered slide surface id
const SurfacePrefix = "slide-preview-"

// SurfaceID returns the stable lookup key of the slide rendered at index
func SurfaceID(index int) string {
	return SurfacePrefix + strconv.Itoa(index)
}

// SurfaceIDs returns the keys of the first n slides in order
func SurfaceIDs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = SurfaceID(i)
	}
	return out
}

// ParseSurfaceID returns the slide index encoded in a surface id
func ParseSurfaceID(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, SurfacePrefix)
	if !ok {
		return 0, fmt.Errorf("surface id %q lacks prefix %q", id, SurfacePrefix)
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("surface id %q has no slide index", id)
	}
	return i, nil
}

// CaptureOptions controls one capture
type CaptureOptions struct {
	// Scale is the upscale factor applied to the on-screen size
	Scale float64

	// Background, when set, is forced behind transparent regions
	Background *color.RGBA
}

// Capturer rasterises the visible output of a rendered slide surface
type Capturer interface {
	Capture(ctx context.Context, surfaceID string, opts CaptureOptions) (image.Image, error)
}

// SurfaceSource supplies the carousel a capturer draws from
type SurfaceSource interface {
	Snapshot() entities.Carousel
}

// ProgressSink receives the completed fraction after each captured frame
type ProgressSink interface {
	Report(done, total int)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(done, total int)

// Report calls f
func (f ProgressFunc) Report(done, total int) {
	f(done, total)
}

// ProgressPublisher fans export job events out to connected clients
type ProgressPublisher interface {
	Publish(event UpdateEvent)
}

// ImageLoader resolves an image reference (data URL, remote URL or file)
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}
