package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
)

var errEmptyFrame = errors.New("capture returned no image")

// ArchiveEntryName is the name of slide i (0-based) inside the zip
func ArchiveEntryName(i int) string {
	return fmt.Sprintf("slide_%d.jpg", i+1)
}

// EncodeArchive writes one JPEG per frame into an in-memory zip. Entries are
// stored uncompressed since JPEG data does not deflate.
func EncodeArchive(frames []image.Image, quality int, modified time.Time) ([]byte, error) {
	if len(frames) == 0 {
		return nil, &ExportError{Type: ErrorTypeEncode, Message: "no frames to archive"}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, frame := range frames {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     ArchiveEntryName(i),
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return nil, &ExportError{Type: ErrorTypeEncode, Message: "adding " + ArchiveEntryName(i), Cause: err}
		}
		if err := imaging.Encode(w, frame, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, &ExportError{Type: ErrorTypeEncode, Message: "encoding " + ArchiveEntryName(i), Cause: err}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &ExportError{Type: ErrorTypeEncode, Message: "finalising archive", Cause: err}
	}
	return buf.Bytes(), nil
}
