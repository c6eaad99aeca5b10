package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

type staticSource struct {
	carousel entities.Carousel
}

func (s staticSource) Snapshot() entities.Carousel {
	return s.carousel
}

func testFactory(t *testing.T, viewport Viewport) (*Factory, entities.Carousel) {
	t.Helper()
	carousel := entities.Carousel{
		Template: "minimal",
		Slides: []entities.Slide{
			{ID: "a", Title: "First slide", Content: []string{"hello world"}, SelectedImageIndex: entities.NoImageSelected},
			{ID: "b", Title: "Second slide", Content: []string{"more text"}, SelectedImageIndex: entities.NoImageSelected},
		},
	}
	return NewFactory(staticSource{carousel: carousel}, entities.CaptureConfig{SlideWidth: 540, SlideHeight: 540}, viewport, zaptest.NewLogger(t)), carousel
}

func TestSurfaceEditing(t *testing.T) {
	f, carousel := testFactory(t, Viewport{})
	s, err := f.Open(carousel.Slides[0], 0, entities.ContentField{Kind: entities.FieldContent, Index: 0})
	require.NoError(t, err)

	assert.Equal(t, "hello world", s.Content())
	assert.False(t, s.Focused())
	s.Focus()
	assert.True(t, s.Focused())

	require.NoError(t, s.Select(richtext.Selection{Start: 0, End: 5}))
	require.NoError(t, s.Exec(richtext.Bold, ""))
	assert.Equal(t, "<b>hello</b> world", s.Content())
	assert.True(t, s.QueryActive(richtext.Bold))

	require.NoError(t, s.Wrap(richtext.ShadowStyle))
	assert.True(t, s.HasAncestorStyle(richtext.ShadowStyle))
	require.NoError(t, s.UnwrapAncestorStyle(richtext.ShadowStyle))
	assert.False(t, s.HasAncestorStyle(richtext.ShadowStyle))
	assert.Equal(t, "<b>hello</b> world", s.Content())

	assert.ErrorIs(t, s.Select(richtext.Selection{Start: 0, End: 50}), richtext.ErrSelectionOutOfRange)
}

func TestSurfaceReplaceClampsSelection(t *testing.T) {
	f, carousel := testFactory(t, Viewport{})
	s, err := f.Open(carousel.Slides[0], 0, entities.ContentField{Kind: entities.FieldContent, Index: 0})
	require.NoError(t, err)

	require.NoError(t, s.Select(richtext.Selection{Start: 6, End: 11}))
	require.NoError(t, s.Replace("hi"))
	assert.Equal(t, richtext.Selection{Start: 2, End: 2}, s.Selection())
}

func TestSurfaceOpenRejectsUnknownField(t *testing.T) {
	f, carousel := testFactory(t, Viewport{})
	_, err := f.Open(carousel.Slides[0], 0, entities.ContentField{Kind: entities.FieldContent, Index: 3})
	assert.Error(t, err)
}

func TestSurfaceBoundingBoxFollowsViewport(t *testing.T) {
	field := entities.ContentField{Kind: entities.FieldTitle}

	f, carousel := testFactory(t, Viewport{Origin: ports.Point{X: 10, Y: 100}, Gap: 20})
	first, err := f.Open(carousel.Slides[0], 0, field)
	require.NoError(t, err)
	require.NoError(t, first.Select(richtext.Selection{Start: 0, End: 5}))
	box := first.BoundingBox()
	assert.False(t, box.Empty())
	assert.InDelta(t, 10+32, box.Left, 0.001)
	assert.Greater(t, box.Top, 100.0)
	assert.Less(t, box.Bottom(), 100+540.0)

	second, err := f.Open(carousel.Slides[1], 1, field)
	require.NoError(t, err)
	require.NoError(t, second.Select(richtext.Selection{Start: 0, End: 6}))
	assert.Greater(t, second.BoundingBox().Top, 100+540+20.0)

	scrolled, _ := testFactory(t, Viewport{Origin: ports.Point{X: 10, Y: 100}, ScrollY: 500})
	moved, err := scrolled.Open(carousel.Slides[0], 0, field)
	require.NoError(t, err)
	require.NoError(t, moved.Select(richtext.Selection{Start: 0, End: 5}))
	assert.InDelta(t, box.Top-500, moved.BoundingBox().Top, 0.001)
}

func TestSurfaceBoundingBoxTracksEdits(t *testing.T) {
	f, carousel := testFactory(t, Viewport{})
	s, err := f.Open(carousel.Slides[0], 0, entities.ContentField{Kind: entities.FieldContent, Index: 0})
	require.NoError(t, err)
	require.NoError(t, s.Select(richtext.Selection{Start: 0, End: 11}))
	before := s.BoundingBox()

	require.NoError(t, s.Exec(richtext.FontSize, "7"))
	after := s.BoundingBox()
	assert.Greater(t, after.Height, before.Height)
	assert.Greater(t, after.Width, before.Width)
}
