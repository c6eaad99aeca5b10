// Package surface implements editable slide fields on top of the rich-text
// document model, with viewport geometry taken from the slide layout.
package surface

import (
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/adapters/secondary/capture"
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// Viewport describes where the preview page draws slides: stacked
// vertically from Origin, Gap pixels apart, scrolled by ScrollY
type Viewport struct {
	Origin  ports.Point
	Gap     float64
	ScrollY float64
}

// Factory opens surfaces over slide fields of the working carousel
type Factory struct {
	source   ports.SurfaceSource
	viewport Viewport
	width    float64
	height   float64
	logger   *zap.Logger
}

// NewFactory creates a factory for slides of the configured on-screen size
func NewFactory(source ports.SurfaceSource, cfg entities.CaptureConfig, viewport Viewport, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, h := cfg.GetSlideSize()
	return &Factory{
		source:   source,
		viewport: viewport,
		width:    float64(w),
		height:   float64(h),
		logger:   logger.Named("surface"),
	}
}

// Open implements ports.SurfaceFactory
func (f *Factory) Open(slide entities.Slide, slideIndex int, field entities.ContentField) (ports.EditableSurface, error) {
	content, err := slide.FieldContent(field)
	if err != nil {
		return nil, err
	}
	doc, err := richtext.Parse(content)
	if err != nil {
		return nil, err
	}

	return &Surface{
		doc:      doc,
		slide:    slide,
		field:    field,
		template: entities.ResolveTemplate(f.source.Snapshot().Template),
		origin: ports.Point{
			X: f.viewport.Origin.X,
			Y: f.viewport.Origin.Y + float64(slideIndex)*(f.height+f.viewport.Gap) - f.viewport.ScrollY,
		},
		width:  f.width,
		height: f.height,
		logger: f.logger,
	}, nil
}

// Surface is one editable field. It is not safe for concurrent use.
type Surface struct {
	doc     *richtext.Document
	sel     richtext.Selection
	focused bool

	slide    entities.Slide
	field    entities.ContentField
	template entities.Template
	origin   ports.Point
	width    float64
	height   float64
	logger   *zap.Logger
}

func (s *Surface) Content() string {
	return s.doc.HTML()
}

func (s *Surface) Replace(html string) error {
	doc, err := richtext.Parse(html)
	if err != nil {
		return err
	}
	s.doc = doc
	s.sel = s.sel.Clamp(doc.Len())
	return nil
}

func (s *Surface) Selection() richtext.Selection {
	return s.sel
}

func (s *Surface) Select(sel richtext.Selection) error {
	n := sel.Normalize()
	if n.Start < 0 || n.End > s.doc.Len() {
		return richtext.ErrSelectionOutOfRange
	}
	s.sel = sel
	return nil
}

func (s *Surface) Wrap(style richtext.Style) error {
	sel, err := s.doc.WrapSelection(s.sel, style)
	if err != nil {
		return err
	}
	s.sel = sel
	return nil
}

func (s *Surface) UnwrapAncestorStyle(style richtext.Style) error {
	return s.doc.UnwrapAncestorStyle(s.sel, style)
}

func (s *Surface) HasAncestorStyle(style richtext.Style) bool {
	return s.doc.HasAncestorStyle(s.sel, style)
}

// BoundingBox lays the slide out with the current field content and returns
// the selection rectangle in viewport coordinates. Layout failures yield an
// empty rectangle.
func (s *Surface) BoundingBox() ports.Rect {
	slide, err := s.slide.WithContent(s.field, s.doc.HTML())
	if err != nil {
		return ports.Rect{}
	}
	layout, err := capture.LayoutSlide(slide, s.template, s.width, s.height, s.template.FontScale, s.logger)
	if err != nil {
		s.logger.Warn("Laying out slide for selection geometry", zap.Error(err))
		return ports.Rect{}
	}
	placed, ok := layout.Field(s.field)
	if !ok {
		return ports.Rect{}
	}

	sel := s.sel.Normalize()
	box, err := placed.Block.SelectionBox(sel.Start, sel.End)
	if err != nil {
		s.logger.Warn("Measuring selection", zap.Error(err))
		return ports.Rect{}
	}
	box.Left += s.origin.X + placed.X
	box.Top += s.origin.Y + placed.Y
	return box
}

func (s *Surface) Exec(cmd richtext.Command, value string) error {
	return s.doc.Exec(cmd, value, s.sel)
}

func (s *Surface) QueryActive(cmd richtext.Command) bool {
	return s.doc.QueryActive(cmd, s.sel)
}

func (s *Surface) QueryValue(cmd richtext.Command) string {
	return s.doc.QueryValue(cmd, s.sel)
}

func (s *Surface) Focus() {
	s.focused = true
}

func (s *Surface) Focused() bool {
	return s.focused
}

var (
	_ ports.EditableSurface = (*Surface)(nil)
	_ ports.SurfaceFactory  = (*Factory)(nil)
)
