package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ErrSurfaceNotFound is returned when no slide is rendered under a surface id
var ErrSurfaceNotFound = errors.New("surface not found")

// Rasterizer draws slides straight from the carousel model
type Rasterizer struct {
	source ports.SurfaceSource
	images ports.ImageLoader
	width  int
	height int
	logger *zap.Logger
}

// NewRasterizer creates a rasterizer drawing slides of the configured on-screen size
func NewRasterizer(source ports.SurfaceSource, images ports.ImageLoader, cfg entities.CaptureConfig, logger *zap.Logger) *Rasterizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, h := cfg.GetSlideSize()
	return &Rasterizer{
		source: source,
		images: images,
		width:  w,
		height: h,
		logger: logger.Named("rasterizer"),
	}
}

// Capture draws the slide rendered under surfaceID
func (r *Rasterizer) Capture(ctx context.Context, surfaceID string, opts ports.CaptureOptions) (image.Image, error) {
	index, err := ports.ParseSurfaceID(surfaceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSurfaceNotFound, err)
	}

	carousel := r.source.Snapshot()
	if index >= len(carousel.Slides) {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceNotFound, surfaceID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	f := &frame{
		ctx:      ctx,
		r:        r,
		slide:    carousel.Slides[index],
		template: entities.ResolveTemplate(carousel.Template),
		unit:     scale,
		dc:       gg.NewContext(int(math.Round(float64(r.width)*scale)), int(math.Round(float64(r.height)*scale))),
	}
	f.unit *= f.template.FontScale

	if opts.Background != nil {
		f.dc.SetColor(*opts.Background)
		f.dc.Clear()
	}
	f.drawBackground()
	f.drawBackgroundImage()
	if carousel.Logo != "" {
		f.drawLogo(carousel.Logo)
	}
	if len(carousel.Slides) > 1 {
		if err := f.drawCounter(index+1, len(carousel.Slides)); err != nil {
			return nil, err
		}
	}
	if err := f.drawText(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.dc.Image(), nil
}

// frame holds the state of one slide being drawn
type frame struct {
	ctx      context.Context
	r        *Rasterizer
	slide    entities.Slide
	template entities.Template
	unit     float64
	dc       *gg.Context
	err      error
}

func (f *frame) px(v float64) float64 {
	return v * f.unit
}

func (f *frame) color(hex string, fallback color.Color) color.Color {
	c, err := entities.ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return c
}

func (f *frame) drawBackground() {
	w, h := float64(f.dc.Width()), float64(f.dc.Height())
	start := f.color(f.template.Background, color.White)

	if f.template.BackgroundEnd != "" {
		grad := gg.NewLinearGradient(0, 0, 0, h)
		grad.AddColorStop(0, start)
		grad.AddColorStop(1, f.color(f.template.BackgroundEnd, start))
		f.dc.SetFillStyle(grad)
	} else {
		f.dc.SetColor(start)
	}
	f.dc.DrawRectangle(0, 0, w, h)
	f.dc.Fill()
}

func (f *frame) drawBackgroundImage() {
	ref, ok := f.slide.SelectedImage()
	if !ok || f.r.images == nil {
		return
	}

	img, err := f.r.images.Load(f.ctx, ref)
	if err != nil {
		// a broken image renders as the plain template background
		f.r.logger.Warn("Background image unavailable",
			zap.String("slide", f.slide.ID),
			zap.Error(err))
		return
	}

	w, h := f.dc.Width(), f.dc.Height()
	f.dc.DrawImage(imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos), 0, 0)

	// fade the template colour in from the top so text stays legible
	bg, err := entities.ParseHexColor(f.template.Background)
	if err != nil {
		bg = color.RGBA{A: 0xff}
	}
	grad := gg.NewLinearGradient(0, 0, 0, float64(h))
	grad.AddColorStop(0, color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 0})
	grad.AddColorStop(1, color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: uint8(f.template.Overlay * 255)})
	f.dc.SetFillStyle(grad)
	f.dc.DrawRectangle(0, 0, float64(w), float64(h))
	f.dc.Fill()
}

func (f *frame) drawLogo(ref string) {
	if f.r.images == nil {
		return
	}
	img, err := f.r.images.Load(f.ctx, ref)
	if err != nil {
		f.r.logger.Warn("Logo unavailable", zap.Error(err))
		return
	}

	size := int(math.Round(f.px(logoSize)))
	logo := imaging.Fit(img, size, size, imaging.Lanczos)
	x := f.dc.Width() - int(math.Round(f.px(logoInset))) - logo.Bounds().Dx()
	f.dc.DrawImage(logo, x, int(math.Round(f.px(logoInset))))
}

func (f *frame) drawCounter(n, total int) error {
	face, err := Face(FontStyle{Bold: true}, f.px(counterSize))
	if err != nil {
		return err
	}
	defer func() { _ = face.Close() }()

	f.dc.SetFontFace(face)
	f.dc.SetColor(f.color(f.template.AccentColor, color.Black))
	f.dc.DrawString(strconv.Itoa(n)+"/"+strconv.Itoa(total), f.px(logoInset), f.px(logoInset)+f.px(counterSize))
	return nil
}

func (f *frame) drawText() error {
	w, h := float64(f.dc.Width()), float64(f.dc.Height())
	layout, err := LayoutSlide(f.slide, f.template, w, h, f.unit, f.r.logger)
	if err != nil {
		return err
	}

	f.drawBlock(layout.Title)
	if err := f.err; err != nil {
		return err
	}

	f.dc.SetColor(f.color(f.template.AccentColor, f.color(f.template.TextColor, color.Black)))
	f.dc.DrawRectangle(layout.Accent.Left, layout.Accent.Top, layout.Accent.Width, layout.Accent.Height)
	f.dc.Fill()

	for _, block := range layout.Body {
		f.drawBlock(block)
	}
	return f.err
}

func (f *frame) drawBlock(placed PlacedBlock) {
	for _, line := range placed.Block.Lines {
		for _, seg := range line.Segments {
			if f.err != nil {
				return
			}
			if seg.space && !seg.Style.Underline && !seg.Style.Strike {
				continue
			}
			f.err = f.drawSegment(seg, placed.X+seg.X, placed.Y+line.Baseline)
		}
	}
}

func (f *frame) drawSegment(seg Segment, x, baseline float64) error {
	face, err := Face(seg.Style.Font, seg.Style.Size)
	if err != nil {
		return err
	}
	defer func() { _ = face.Close() }()
	f.dc.SetFontFace(face)

	if !seg.space {
		if seg.Style.Shadow {
			d := f.px(shadowOffset)
			f.dc.SetColor(color.NRGBA{A: 0x80})
			f.dc.DrawString(seg.Text, x+d, baseline+d)
		}
		if seg.Style.Outline {
			d := f.px(outlineStroke)
			f.dc.SetColor(color.Black)
			for _, o := range [][2]float64{{-d, 0}, {d, 0}, {0, -d}, {0, d}, {-d, -d}, {d, d}, {-d, d}, {d, -d}} {
				f.dc.DrawString(seg.Text, x+o[0], baseline+o[1])
			}
		}
		f.dc.SetColor(seg.Style.Color)
		f.dc.DrawString(seg.Text, x, baseline)
	}

	thickness := math.Max(1, seg.Style.Size/15)
	f.dc.SetColor(seg.Style.Color)
	if seg.Style.Underline {
		f.dc.DrawRectangle(x, baseline+seg.Style.Size*0.1, seg.Width, thickness)
		f.dc.Fill()
	}
	if seg.Style.Strike {
		f.dc.DrawRectangle(x, baseline-seg.Style.Size*0.3, seg.Width, thickness)
		f.dc.Fill()
	}
	return nil
}
