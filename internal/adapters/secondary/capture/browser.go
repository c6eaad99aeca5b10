package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ErrBrowserNotFound is returned when no Chromium-based browser is installed
var ErrBrowserNotFound = errors.New("no Chrome or Chromium executable found; install one or set capture.browser_bin")

// BrowserCapturer screenshots slide surfaces of the live preview page in a
// headless Chromium
type BrowserCapturer struct {
	pageURL string
	bin     string
	timeout time.Duration
	width   int
	height  int
	logger  *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserCapturer creates a capturer for the preview served at pageURL.
// The browser is launched on the first capture.
func NewBrowserCapturer(pageURL string, cfg entities.CaptureConfig, logger *zap.Logger) *BrowserCapturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, h := cfg.GetSlideSize()
	return &BrowserCapturer{
		pageURL: pageURL,
		bin:     cfg.BrowserBin,
		timeout: cfg.GetTimeout(),
		width:   w,
		height:  h,
		logger:  logger.Named("browser-capture"),
	}
}

// Capture opens the preview page at the requested scale factor and
// screenshots the element rendered under surfaceID
func (b *BrowserCapturer) Capture(ctx context.Context, surfaceID string, opts ports.CaptureOptions) (image.Image, error) {
	if _, err := ports.ParseSurfaceID(surfaceID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSurfaceNotFound, err)
	}

	browser, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx).Timeout(b.timeout)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		// the viewport leaves room for the editor chrome around the slides
		Width:             b.width * 2,
		Height:            b.height * 2,
		DeviceScaleFactor: scale,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("setting scale factor: %w", err)
	}

	if bg := opts.Background; bg != nil {
		alpha := float64(bg.A) / 255
		if err := (proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{R: int(bg.R), G: int(bg.G), B: int(bg.B), A: &alpha},
		}).Call(page); err != nil {
			return nil, fmt.Errorf("setting background: %w", err)
		}
	}

	if err := page.Navigate(b.pageURL); err != nil {
		return nil, fmt.Errorf("loading %s: %w", b.pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", b.pageURL, err)
	}

	found, el, err := page.Has("#" + surfaceID)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", surfaceID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceNotFound, surfaceID)
	}

	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot of %s: %w", surfaceID, err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot of %s: %w", surfaceID, err)
	}
	return img, nil
}

func (b *BrowserCapturer) connect(ctx context.Context) (*rod.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return b.browser, nil
		}
		b.logger.Warn("Stale browser connection, relaunching")
		_ = b.closeLocked()
	}

	bin := b.bin
	if bin == "" {
		var err error
		if bin, err = findBrowser(); err != nil {
			return nil, err
		}
	}

	l := launcher.New().Bin(bin).Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching %s: %w", bin, err)
	}

	// the browser outlives this capture's context
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to %s: %w", bin, err)
	}

	b.logger.Debug("Launched headless browser", zap.String("bin", bin))
	b.launcher, b.browser = l, browser
	return browser, nil
}

// Close shuts the browser down
func (b *BrowserCapturer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *BrowserCapturer) closeLocked() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}

// browserCandidates lists well-known install locations per platform
func browserCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	default:
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	}
}

func findBrowser() (string, error) {
	for _, candidate := range browserCandidates() {
		if isExecutableFile(candidate) {
			return candidate, nil
		}
	}
	if path, ok := launcher.LookPath(); ok {
		return path, nil
	}
	return "", ErrBrowserNotFound
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return !info.IsDir()
	}
	return !info.IsDir() && info.Mode()&0o111 != 0
}
