package export

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// Pipeline drives the capture primitive over a list of surfaces
type Pipeline struct {
	capturer ports.Capturer
	metrics  ports.Metrics
	logger   *zap.Logger
}

// NewPipeline creates a pipeline around capturer
func NewPipeline(capturer ports.Capturer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{capturer: capturer, metrics: ports.NopMetrics{}, logger: logger}
}

// CaptureAll captures surfaces one at a time in order and reports k/N to
// sink after frame k. The first failure stops the loop; nothing captured so
// far is returned.
func (p *Pipeline) CaptureAll(ctx context.Context, surfaces []string, opts ports.CaptureOptions, sink ports.ProgressSink) ([]image.Image, error) {
	total := len(surfaces)
	frames := make([]image.Image, 0, total)

	for i, id := range surfaces {
		if err := ctx.Err(); err != nil {
			return nil, &ExportError{Type: ErrorTypeCancelled, Message: "export cancelled", Slide: i + 1, Total: total, Cause: err}
		}

		start := time.Now()
		frame, err := p.capturer.Capture(ctx, id, opts)
		if err == nil && frame == nil {
			err = errEmptyFrame
		}
		if err != nil {
			p.logger.Warn("Slide capture failed",
				zap.String("surface", id),
				zap.Int("slide", i+1),
				zap.Int("total", total),
				zap.Error(err))
			return nil, &ExportError{Type: ErrorTypeCapture, Message: "capturing " + id, Slide: i + 1, Total: total, Cause: err}
		}

		p.metrics.RecordCapture(time.Since(start))
		frames = append(frames, frame)
		if sink != nil {
			sink.Report(i+1, total)
		}
	}

	return frames, nil
}
