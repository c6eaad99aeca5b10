package ports

import (
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// Point is a viewport position in CSS pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a viewport rectangle in CSS pixels
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the rectangle's bottom edge
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// CenterX returns the horizontal centre
func (r Rect) CenterX() float64 {
	return r.Left + r.Width/2
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// EditableSurface is the platform's editable region: its rich-text content,
// the user's selection inside it, formatting primitives and focus.
type EditableSurface interface {
	Content() string
	Replace(html string) error
	Selection() richtext.Selection
	Select(sel richtext.Selection) error

	// Wrap moves the current selection into a span carrying style
	Wrap(style richtext.Style) error
	UnwrapAncestorStyle(style richtext.Style) error
	HasAncestorStyle(style richtext.Style) bool

	// BoundingBox returns the viewport rectangle of the current selection
	BoundingBox() Rect

	Exec(cmd richtext.Command, value string) error
	QueryActive(cmd richtext.Command) bool
	QueryValue(cmd richtext.Command) string

	Focus()
	Focused() bool
}

// SurfaceFactory opens an editable surface over one field of a slide
type SurfaceFactory interface {
	Open(slide entities.Slide, slideIndex int, field entities.ContentField) (EditableSurface, error)
}
