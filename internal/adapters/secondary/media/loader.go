package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// maxImageBytes bounds a single fetched or uploaded image
const maxImageBytes = 20 << 20

// Loader resolves image references into decoded images
type Loader struct {
	client ports.HTTPClient
	fs     ports.FileSystem
	cache  *ImageCache
	logger *zap.Logger
}

// NewLoader creates a loader. cache may be nil.
func NewLoader(client ports.HTTPClient, fs ports.FileSystem, cache *ImageCache, logger *zap.Logger) *Loader {
	if client == nil {
		client = ports.NewRealHTTPClient(ports.HTTPClientConfig{
			Timeout:         30 * time.Second,
			MaxRetries:      2,
			RetryDelay:      500 * time.Millisecond,
			FollowRedirects: true,
			UserAgent:       "carousel/1.0",
		})
	}
	if fs == nil {
		fs = ports.NewRealFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{client: client, fs: fs, cache: cache, logger: logger.Named("media")}
}

// Load returns the decoded image ref points to
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty image reference: %w", ErrNotImage)
	}
	if l.cache != nil {
		if img, ok := l.cache.Get(ref); ok {
			return img, nil
		}
	}

	data, err := l.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", describe(ref), err)
	}

	if l.cache != nil {
		l.cache.Set(ref, img)
	}
	return img, nil
}

// Fetch returns the raw bytes ref points to
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case IsDataURL(ref):
		_, data, err := DecodeDataURL(ref)
		return data, err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetchRemote(ctx, ref)
	default:
		path := strings.TrimPrefix(ref, "file://")
		data, err := l.fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", path, err)
		}
		return data, nil
	}
}

func (l *Loader) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", url, maxImageBytes)
	}

	l.logger.Debug("Fetched remote image", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

// Decode checks data is an image and decodes it, honouring EXIF orientation
func Decode(data []byte) (image.Image, error) {
	if _, err := SniffImage(data); err != nil {
		return nil, err
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func describe(ref string) string {
	if IsDataURL(ref) {
		return "inline image"
	}
	return ref
}
