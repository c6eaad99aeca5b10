package export

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"time"

	"github.com/disintegration/imaging"
)

// delayUnits converts a frame delay into GIF hundredths of a second
func delayUnits(d time.Duration) int {
	return int(d.Milliseconds() / 10)
}

// EncodeAnimation assembles frames into a looping GIF with a uniform delay.
// Every frame is flattened onto bg, resized to the first frame's size and
// dithered onto a fixed palette.
func EncodeAnimation(frames []image.Image, delay time.Duration, bg color.RGBA) ([]byte, error) {
	if len(frames) == 0 {
		return nil, &ExportError{Type: ErrorTypeEncode, Message: "no frames to animate"}
	}

	bounds := frames[0].Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	units := delayUnits(delay)

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: 0,
		Config:    image.Config{ColorModel: color.Palette(palette.Plan9), Width: w, Height: h},
	}

	for i, frame := range frames {
		if b := frame.Bounds(); b.Dx() != w || b.Dy() != h {
			frame = imaging.Resize(frame, w, h, imaging.Lanczos)
		}

		flat := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(flat, flat.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), frame, frame.Bounds().Min, draw.Over)

		paletted := image.NewPaletted(flat.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), flat, image.Point{})

		anim.Image[i] = paletted
		anim.Delay[i] = units
		anim.Disposal[i] = gif.DisposalBackground
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, &ExportError{Type: ErrorTypeEncode, Message: "encoding animation", Cause: err}
	}
	return buf.Bytes(), nil
}
