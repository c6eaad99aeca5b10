package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeArchive(t *testing.T) {
	frames := []image.Image{
		solidFrame(16, 16, color.White),
		solidFrame(16, 16, color.Black),
	}
	modified := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	data, err := EncodeArchive(frames, 92, modified)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	for i, f := range zr.File {
		assert.Equal(t, ArchiveEntryName(i), f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		img, err := jpeg.Decode(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
	}

	again, err := EncodeArchive(frames, 92, modified)
	require.NoError(t, err)
	assert.Equal(t, data, again, "same frames produce the same archive")

	_, err = EncodeArchive(nil, 92, modified)
	assert.Error(t, err)
}

func TestEncodeAnimation(t *testing.T) {
	frames := []image.Image{
		solidFrame(20, 20, color.NRGBA{R: 255, A: 255}),
		solidFrame(40, 40, color.NRGBA{G: 255, A: 255}),
		solidFrame(20, 20, color.NRGBA{A: 0}),
	}

	data, err := EncodeAnimation(frames, 1500*time.Millisecond, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	require.NoError(t, err)

	anim, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	assert.Equal(t, []int{150, 150, 150}, anim.Delay)
	assert.Equal(t, 0, anim.LoopCount)
	for _, frame := range anim.Image {
		assert.Equal(t, image.Rect(0, 0, 20, 20), frame.Bounds())
	}

	r, g, b, _ := anim.Image[2].At(5, 5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "transparent regions become the background")

	_, err = EncodeAnimation(nil, time.Second, color.RGBA{})
	assert.Error(t, err)
}

func TestDelayUnits(t *testing.T) {
	assert.Equal(t, 200, delayUnits(2*time.Second))
	assert.Equal(t, 10, delayUnits(100*time.Millisecond))
	assert.Equal(t, 1000, delayUnits(10*time.Second))
}

func TestEncodeDocument(t *testing.T) {
	frames := []image.Image{
		solidFrame(30, 30, color.White),
		solidFrame(30, 30, color.Black),
	}

	data, err := EncodeDocument(frames, 90, "topic", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "/Count 2")

	_, err = EncodeDocument(nil, 90, "", time.Time{})
	assert.Error(t, err)
}
