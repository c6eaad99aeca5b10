package capture

import (
	"html"
	"image/color"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// Slide geometry in CSS pixels of the on-screen preview
const (
	padding       = 32.0
	titleSize     = 36.0
	bodySize      = 18.0
	titleGap      = 16.0
	paragraphGap  = 8.0
	logoSize      = 64.0
	logoInset     = 20.0
	counterSize   = 14.0
	accentBarW    = 48.0
	accentBarH    = 4.0
	shadowOffset  = 2.0
	outlineStroke = 1.0
)

// PlacedBlock is a laid-out field and the position of its top-left corner
// within the slide
type PlacedBlock struct {
	Block *TextBlock
	X, Y  float64
}

// SlideLayout places a slide's text fields. Text sits at the bottom of the
// slide: title, accent bar, then one paragraph per content line.
type SlideLayout struct {
	Title  PlacedBlock
	Accent ports.Rect
	Body   []PlacedBlock
}

// Field returns the placement of a content field
func (l *SlideLayout) Field(field entities.ContentField) (PlacedBlock, bool) {
	if field.Kind == entities.FieldTitle {
		return l.Title, true
	}
	if field.Index < 0 || field.Index >= len(l.Body) {
		return PlacedBlock{}, false
	}
	return l.Body[field.Index], true
}

// LayoutSlide lays the slide out on a width x height canvas. unit converts
// CSS pixels to canvas pixels.
func LayoutSlide(slide entities.Slide, tpl entities.Template, width, height, unit float64, logger *zap.Logger) (*SlideLayout, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	px := func(v float64) float64 { return v * unit }

	textColor, err := entities.ParseHexColor(tpl.TextColor)
	if err != nil {
		textColor = color.RGBA{A: 0xff}
	}
	maxWidth := width - 2*px(padding)

	title, err := layoutField(slide.Title, LayoutOptions{
		MaxWidth: maxWidth,
		BaseSize: px(titleSize),
		Color:    textColor,
		Bold:     true,
		Align:    string(tpl.TitleAlign),
	}, logger)
	if err != nil {
		return nil, err
	}

	body := make([]*TextBlock, 0, len(slide.Content))
	bodyHeight := 0.0
	for _, line := range slide.Content {
		block, err := layoutField(line, LayoutOptions{
			MaxWidth: maxWidth,
			BaseSize: px(bodySize),
			Color:    textColor,
			Align:    string(tpl.BodyAlign),
		}, logger)
		if err != nil {
			return nil, err
		}
		body = append(body, block)
		bodyHeight += block.Height
	}
	if len(body) > 1 {
		bodyHeight += float64(len(body)-1) * px(paragraphGap)
	}

	gap := 2*px(titleGap) + px(accentBarH)
	y := height - px(padding) - bodyHeight - gap - title.Height

	layout := &SlideLayout{Title: PlacedBlock{Block: title, X: px(padding), Y: y}}
	y += title.Height + px(titleGap)

	barX := px(padding)
	switch tpl.TitleAlign {
	case entities.AlignCenter:
		barX = (width - px(accentBarW)) / 2
	case entities.AlignRight:
		barX = width - px(padding) - px(accentBarW)
	}
	layout.Accent = ports.Rect{Left: barX, Top: y, Width: px(accentBarW), Height: px(accentBarH)}
	y += px(accentBarH) + px(titleGap)

	for _, block := range body {
		layout.Body = append(layout.Body, PlacedBlock{Block: block, X: px(padding), Y: y})
		y += block.Height + px(paragraphGap)
	}
	return layout, nil
}

// layoutField lays out one rich-text field. Unparseable markup is laid out as plain text.
func layoutField(fragment string, opts LayoutOptions, logger *zap.Logger) (*TextBlock, error) {
	doc, err := richtext.Parse(fragment)
	if err != nil {
		logger.Warn("Laying out unparseable field as text", zap.Error(err))
		doc, err = richtext.Parse(html.EscapeString(fragment))
		if err != nil {
			return nil, err
		}
	}
	if align, ok := doc.ExplicitAlignment(); ok {
		opts.Align = align
	}
	return Layout(doc.Runs(), opts)
}

// SelectionBox returns the rectangle, relative to the block, enclosing the
// rune range [start, end). A collapsed range yields a zero-width caret box.
func (b *TextBlock) SelectionBox(start, end int) (ports.Rect, error) {
	if start > end {
		start, end = end, start
	}

	var (
		box   ports.Rect
		found bool
	)
	include := func(r ports.Rect) {
		if !found {
			box, found = r, true
			return
		}
		left := math.Min(box.Left, r.Left)
		top := math.Min(box.Top, r.Top)
		right := math.Max(box.Left+box.Width, r.Left+r.Width)
		bottom := math.Max(box.Bottom(), r.Bottom())
		box = ports.Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
	}

	for _, line := range b.Lines {
		for _, seg := range line.Segments {
			from, to := max(start, seg.Offset), min(end, seg.End())
			if from > to || (from == to && start != end) {
				continue
			}
			x0, err := seg.xAt(from)
			if err != nil {
				return ports.Rect{}, err
			}
			x1, err := seg.xAt(to)
			if err != nil {
				return ports.Rect{}, err
			}
			include(ports.Rect{Left: x0, Top: line.Top, Width: x1 - x0, Height: line.Height})
			if start == end {
				return box, nil
			}
		}
	}
	return box, nil
}

// xAt returns the x position of a rune offset inside the segment
func (s Segment) xAt(offset int) (float64, error) {
	n := offset - s.Offset
	if n <= 0 {
		return s.X, nil
	}
	if n >= utf8.RuneCountInString(s.Text) {
		return s.X + s.Width, nil
	}
	prefix := string([]rune(s.Text)[:n])
	w, err := measure(prefix, s.Style)
	if err != nil {
		return 0, err
	}
	return s.X + w, nil
}
