package export

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf/v2"
)

// pointsPerPixel maps CSS pixels onto PDF points
const pointsPerPixel = 0.75

// EncodeDocument lays frames out one per page, each page sized to its frame
func EncodeDocument(frames []image.Image, quality int, title string, created time.Time) ([]byte, error) {
	if len(frames) == 0 {
		return nil, &ExportError{Type: ErrorTypeEncode, Message: "no frames for document"}
	}

	first := frames[0].Bounds()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(first.Dx()) * pointsPerPixel, Ht: float64(first.Dy()) * pointsPerPixel},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("carousel", true)
	pdf.SetTitle(title, true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}

	for i, frame := range frames {
		b := frame.Bounds()
		size := gofpdf.SizeType{Wd: float64(b.Dx()) * pointsPerPixel, Ht: float64(b.Dy()) * pointsPerPixel}
		pdf.AddPageFormat("P", size)

		var jpg bytes.Buffer
		if err := imaging.Encode(&jpg, frame, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, &ExportError{Type: ErrorTypeEncode, Message: fmt.Sprintf("encoding page %d", i+1), Cause: err}
		}

		name := fmt.Sprintf("slide-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, opts, &jpg)
		pdf.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, &ExportError{Type: ErrorTypeEncode, Message: "writing document", Cause: err}
	}
	return out.Bytes(), nil
}
