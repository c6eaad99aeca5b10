// Package capture rasterises rendered slide surfaces into frames, either by
// drawing the slide model directly or by screenshotting the preview page in a
// headless browser.
package capture

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// FontStyle selects one of the embedded Go fonts
type FontStyle struct {
	Bold   bool
	Italic bool
	Mono   bool
}

var (
	fontsOnce sync.Once
	fontsErr  error
	fontSet   map[FontStyle]*truetype.Font
)

func loadFonts() {
	sources := map[FontStyle][]byte{
		{}:                         goregular.TTF,
		{Bold: true}:               gobold.TTF,
		{Italic: true}:             goitalic.TTF,
		{Bold: true, Italic: true}: gobolditalic.TTF,
		{Mono: true}:               gomono.TTF,
	}

	fontSet = make(map[FontStyle]*truetype.Font, len(sources))
	for style, ttf := range sources {
		f, err := truetype.Parse(ttf)
		if err != nil {
			fontsErr = fmt.Errorf("parsing embedded font: %w", err)
			return
		}
		fontSet[style] = f
	}
}

// Face returns a new font face for the style at size pixels. Faces are not
// safe for concurrent use, so every caller gets its own.
func Face(style FontStyle, size float64) (font.Face, error) {
	fontsOnce.Do(loadFonts)
	if fontsErr != nil {
		return nil, fontsErr
	}

	if style.Mono {
		// no bold or italic monospace variants are embedded
		style = FontStyle{Mono: true}
	}
	return truetype.NewFace(fontSet[style], &truetype.Options{Size: size}), nil
}
