package mocks

import (
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// Surface is an in-memory ports.EditableSurface with a fixed selection box
type Surface struct {
	Doc      *richtext.Document
	Sel      richtext.Selection
	Box      ports.Rect
	HasFocus bool

	// WrapErr, when set, is returned by Wrap without touching the document
	WrapErr error

	Replaced int
}

// NewSurface creates a surface showing html
func NewSurface(html string) *Surface {
	return &Surface{Doc: richtext.MustParse(html)}
}

func (s *Surface) Content() string { return s.Doc.HTML() }

func (s *Surface) Replace(html string) error {
	doc, err := richtext.Parse(html)
	if err != nil {
		return err
	}
	s.Doc = doc
	s.Replaced++
	return nil
}

func (s *Surface) Selection() richtext.Selection { return s.Sel }

func (s *Surface) Select(sel richtext.Selection) error {
	n := sel.Normalize()
	if n.Start < 0 || n.End > s.Doc.Len() {
		return richtext.ErrSelectionOutOfRange
	}
	s.Sel = sel
	return nil
}

func (s *Surface) Wrap(style richtext.Style) error {
	if s.WrapErr != nil {
		return s.WrapErr
	}
	sel, err := s.Doc.WrapSelection(s.Sel, style)
	if err == nil {
		s.Sel = sel
	}
	return err
}

func (s *Surface) UnwrapAncestorStyle(style richtext.Style) error {
	return s.Doc.UnwrapAncestorStyle(s.Sel, style)
}

func (s *Surface) HasAncestorStyle(style richtext.Style) bool {
	return s.Doc.HasAncestorStyle(s.Sel, style)
}

func (s *Surface) BoundingBox() ports.Rect { return s.Box }

func (s *Surface) Exec(cmd richtext.Command, value string) error {
	return s.Doc.Exec(cmd, value, s.Sel)
}

func (s *Surface) QueryActive(cmd richtext.Command) bool { return s.Doc.QueryActive(cmd, s.Sel) }

func (s *Surface) QueryValue(cmd richtext.Command) string { return s.Doc.QueryValue(cmd, s.Sel) }

func (s *Surface) Focus() { s.HasFocus = true }

func (s *Surface) Focused() bool { return s.HasFocus }

// SurfaceFactory opens Surfaces over slide fields with a fixed box
type SurfaceFactory struct {
	Box    ports.Rect
	Opened []*Surface
}

// Open implements ports.SurfaceFactory
func (f *SurfaceFactory) Open(slide entities.Slide, _ int, field entities.ContentField) (ports.EditableSurface, error) {
	html, err := slide.FieldContent(field)
	if err != nil {
		return nil, err
	}
	s := NewSurface(html)
	s.Box = f.Box
	f.Opened = append(f.Opened, s)
	return s, nil
}

var (
	_ ports.EditableSurface = (*Surface)(nil)
	_ ports.SurfaceFactory  = (*SurfaceFactory)(nil)
)
