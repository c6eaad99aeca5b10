package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
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

type solidLoader struct {
	c     color.RGBA
	err   error
	calls []string
}

func (l *solidLoader) Load(_ context.Context, ref string) (image.Image, error) {
	l.calls = append(l.calls, ref)
	if l.err != nil {
		return nil, l.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.SetRGBA(x, y, l.c)
		}
	}
	return img, nil
}

func testCarousel() entities.Carousel {
	return entities.Carousel{
		Topic:    "Go tips",
		Template: "minimal",
		Slides: []entities.Slide{
			{ID: "a", Title: "Use <b>gofmt</b>", Content: []string{"Always", `<span style="text-shadow: 2px 2px 4px rgba(0,0,0,0.5)">everywhere</span>`}, SelectedImageIndex: entities.NoImageSelected},
			{ID: "b", Title: "Errors", Content: []string{"<u>wrap</u> them"}, ImageURLs: []string{"https://img.example/b.png"}, SelectedImageIndex: 0},
		},
	}
}

func newTestRasterizer(t *testing.T, loader ports.ImageLoader) *Rasterizer {
	t.Helper()
	return NewRasterizer(staticSource{carousel: testCarousel()}, loader, entities.CaptureConfig{SlideWidth: 200, SlideHeight: 250}, zaptest.NewLogger(t))
}

func TestRasterizerScalesFrames(t *testing.T) {
	r := newTestRasterizer(t, &solidLoader{})

	img, err := r.Capture(context.Background(), ports.SurfaceID(0), ports.CaptureOptions{Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 250), img.Bounds())

	img, err = r.Capture(context.Background(), ports.SurfaceID(0), ports.CaptureOptions{Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 500), img.Bounds())
}

func TestRasterizerDrawsTemplateBackground(t *testing.T) {
	r := newTestRasterizer(t, &solidLoader{})

	img, err := r.Capture(context.Background(), ports.SurfaceID(0), ports.CaptureOptions{Scale: 1})
	require.NoError(t, err)

	// the top-right corner holds neither text nor counter
	red, green, blue, _ := img.At(195, 5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{red, green, blue})
}

func TestRasterizerDrawsSelectedImage(t *testing.T) {
	loader := &solidLoader{c: color.RGBA{R: 0, G: 0, B: 255, A: 255}}
	r := newTestRasterizer(t, loader)

	img, err := r.Capture(context.Background(), ports.SurfaceID(1), ports.CaptureOptions{Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example/b.png"}, loader.calls)

	// near the top the overlay is almost transparent
	_, _, blue, _ := img.At(195, 2).RGBA()
	assert.Greater(t, blue, uint32(0xe000))
}

func TestRasterizerToleratesBrokenImages(t *testing.T) {
	r := newTestRasterizer(t, &solidLoader{err: errors.New("404")})

	img, err := r.Capture(context.Background(), ports.SurfaceID(1), ports.CaptureOptions{Scale: 1})
	require.NoError(t, err)
	assert.NotNil(t, img)
}

func TestRasterizerSurfaceNotFound(t *testing.T) {
	r := newTestRasterizer(t, nil)

	for _, id := range []string{ports.SurfaceID(2), "slide-9", "slide-preview-x"} {
		_, err := r.Capture(context.Background(), id, ports.CaptureOptions{Scale: 1})
		assert.ErrorIs(t, err, ErrSurfaceNotFound, id)
	}
}

func TestRasterizerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRasterizer(t, nil).Capture(ctx, ports.SurfaceID(0), ports.CaptureOptions{Scale: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayoutWrapsAndAligns(t *testing.T) {
	doc := richtext.MustParse("alpha beta gamma delta")
	opts := LayoutOptions{BaseSize: 20, Align: "left"}

	opts.MaxWidth = 1000
	wide, err := Layout(doc.Runs(), opts)
	require.NoError(t, err)
	require.Len(t, wide.Lines, 1)

	opts.MaxWidth = 80
	narrow, err := Layout(doc.Runs(), opts)
	require.NoError(t, err)
	assert.Greater(t, len(narrow.Lines), 1)
	assert.InDelta(t, float64(len(narrow.Lines))*20*1.25, narrow.Height, 0.001)
	for _, line := range narrow.Lines {
		assert.Zero(t, line.Segments[0].X)
		assert.False(t, line.Segments[len(line.Segments)-1].space, "trailing spaces are trimmed")
	}

	opts.MaxWidth = 1000
	opts.Align = "right"
	right, err := Layout(doc.Runs(), opts)
	require.NoError(t, err)
	last := right.Lines[0].Segments[len(right.Lines[0].Segments)-1]
	assert.InDelta(t, 1000, last.X+last.Width, 0.001)
}

func TestLayoutJustifySkipsLastLine(t *testing.T) {
	doc := richtext.MustParse("one two three four five six")
	block, err := Layout(doc.Runs(), LayoutOptions{BaseSize: 20, MaxWidth: 120, Align: "justify"})
	require.NoError(t, err)
	require.Greater(t, len(block.Lines), 1)

	assert.InDelta(t, 120, block.Lines[0].Width, 0.001)
	assert.Less(t, block.Lines[len(block.Lines)-1].Width, 120.0)
}

func TestLayoutKeepsOffsetsAndStyles(t *testing.T) {
	doc := richtext.MustParse(`he<b>llo</b> <font color="#ff0000" size="7">big</font><br>next`)
	block, err := Layout(doc.Runs(), LayoutOptions{BaseSize: 10, MaxWidth: 1000})
	require.NoError(t, err)
	require.Len(t, block.Lines, 2)

	first := block.Lines[0].Segments
	require.Len(t, first, 4)
	assert.Equal(t, "he", first[0].Text)
	assert.Equal(t, 2, first[1].Offset)
	assert.True(t, first[1].Style.Font.Bold)
	assert.Equal(t, 6, first[3].Offset)
	assert.Equal(t, 30.0, first[3].Style.Size)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, first[3].Style.Color)
	assert.Equal(t, 30*1.25, block.Lines[0].Height)

	assert.Equal(t, "next", block.Lines[1].Segments[0].Text)
	assert.Equal(t, 9, block.Lines[1].Segments[0].Offset)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{in: "#f00", want: color.RGBA{R: 0xff, A: 0xff}, ok: true},
		{in: "White", want: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, ok: true},
		{in: "rgb(0, 128, 0)", want: color.RGBA{G: 128, A: 0xff}, ok: true},
		{in: "rgba(255,255,255,0)", want: color.RGBA{}, ok: true},
		{in: "rgb(300,0,0)"},
		{in: "chartreuse-ish"},
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBrowserCapturerRejectsUnknownSurfaces(t *testing.T) {
	b := NewBrowserCapturer("http://127.0.0.1:1/", entities.CaptureConfig{BrowserBin: "/nonexistent/chrome"}, zaptest.NewLogger(t))
	defer func() { _ = b.Close() }()

	_, err := b.Capture(context.Background(), "header", ports.CaptureOptions{Scale: 2})
	assert.ErrorIs(t, err, ErrSurfaceNotFound)

	_, err = b.Capture(context.Background(), ports.SurfaceID(0), ports.CaptureOptions{Scale: 2})
	assert.Error(t, err, "a missing browser binary fails the capture")
}

func TestLayoutSlidePlacesFieldsBottomUp(t *testing.T) {
	slide := testCarousel().Slides[0]
	tpl := entities.ResolveTemplate("minimal")

	layout, err := LayoutSlide(slide, tpl, 540, 540, 1, nil)
	require.NoError(t, err)
	require.Len(t, layout.Body, 2)

	assert.Less(t, layout.Title.Y, layout.Accent.Top)
	assert.Less(t, layout.Accent.Bottom(), layout.Body[0].Y)
	assert.Less(t, layout.Body[0].Y, layout.Body[1].Y)

	last := layout.Body[1]
	assert.InDelta(t, 540-padding, last.Y+last.Block.Height, 0.001)

	_, ok := layout.Field(entities.ContentField{Kind: entities.FieldContent, Index: 5})
	assert.False(t, ok)
	title, ok := layout.Field(entities.ContentField{Kind: entities.FieldTitle})
	require.True(t, ok)
	assert.Equal(t, layout.Title, title)
}

func TestSelectionBox(t *testing.T) {
	doc := richtext.MustParse("hello world")
	block, err := Layout(doc.Runs(), LayoutOptions{BaseSize: 20, MaxWidth: 1000})
	require.NoError(t, err)

	whole, err := block.SelectionBox(0, 11)
	require.NoError(t, err)
	assert.Zero(t, whole.Left)
	assert.Equal(t, 25.0, whole.Height)

	word, err := block.SelectionBox(6, 11)
	require.NoError(t, err)
	assert.Greater(t, word.Left, 0.0)
	assert.InDelta(t, whole.Left+whole.Width, word.Left+word.Width, 0.001)
	assert.Less(t, word.Width, whole.Width)

	caret, err := block.SelectionBox(6, 6)
	require.NoError(t, err)
	assert.Zero(t, caret.Width)
	assert.InDelta(t, word.Left, caret.Left, 0.001)
}

func TestSelectionBoxSpansLines(t *testing.T) {
	doc := richtext.MustParse("first<br>second")
	block, err := Layout(doc.Runs(), LayoutOptions{BaseSize: 20, MaxWidth: 1000})
	require.NoError(t, err)
	require.Len(t, block.Lines, 2)

	box, err := block.SelectionBox(2, 8)
	require.NoError(t, err)
	assert.Zero(t, box.Top)
	assert.Equal(t, 50.0, box.Height)
}
