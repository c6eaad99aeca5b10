// Package media resolves image references (data URLs, remote URLs and local
// files) into decoded images and turns raw uploads into data URLs.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
)

var (
	// ErrNotImage is returned when content is not a recognised image type
	ErrNotImage = errors.New("content is not an image")

	// ErrMalformedDataURL is returned for data URLs that cannot be decoded
	ErrMalformedDataURL = errors.New("malformed data URL")
)

// IsDataURL reports whether ref carries its content inline
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeDataURL returns the MIME type and content of a data URL
func DecodeDataURL(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformedDataURL
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrMalformedDataURL, err)
		}
		return mimeType, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformedDataURL, err)
	}
	return mimeType, []byte(text), nil
}

// EncodeDataURL embeds image bytes in a data URL, detecting the MIME type
// from the content
func EncodeDataURL(data []byte) (string, error) {
	mimeType, err := SniffImage(data)
	if err != nil {
		return "", err
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// SniffImage returns the MIME type of image content
func SniffImage(data []byte) (string, error) {
	if !filetype.IsImage(data) {
		return "", ErrNotImage
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("detecting image type: %w", err)
	}
	return kind.MIME.Value, nil
}
