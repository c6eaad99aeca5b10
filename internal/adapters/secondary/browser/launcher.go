// Package browser opens the editor in the user's desktop browser.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ErrNoBrowser is returned when no launch command is available on this system
var ErrNoBrowser = errors.New("no supported browser found")

// Candidate is one way of opening a URL on the current platform
type Candidate struct {
	Name    string
	Command string
	Args    func(url string) []string
}

// Launcher implements ports.EditorOpener
type Launcher struct {
	candidates []Candidate
	lookPath   func(string) (string, error)
	start      func(*exec.Cmd) error
	logger     *zap.Logger
}

// NewLauncher creates a launcher for the running platform
func NewLauncher(logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		candidates: platformCandidates(runtime.GOOS),
		lookPath:   exec.LookPath,
		start:      startDetached,
		logger:     logger,
	}
}

// Open starts the first available browser on url
func (l *Launcher) Open(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http url", rawURL)
	}

	candidate, err := l.selectCandidate()
	if err != nil {
		return err
	}

	cmd := exec.Command(candidate.Command, candidate.Args(u.String())...) // #nosec G204 - command comes from the fixed candidate table
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("launching %s: %w", candidate.Name, err)
	}

	l.logger.Info("opened editor in browser",
		zap.String("browser", candidate.Name),
		zap.String("url", u.String()))
	return nil
}

// Detect implements ports.EditorOpener
func (l *Launcher) Detect() (string, error) {
	candidate, err := l.selectCandidate()
	if err != nil {
		return "", err
	}
	return candidate.Name, nil
}

func (l *Launcher) selectCandidate() (Candidate, error) {
	for _, candidate := range l.candidates {
		if _, err := l.lookPath(candidate.Command); err == nil {
			return candidate, nil
		}
	}
	return Candidate{}, ErrNoBrowser
}

// startDetached starts cmd and reaps it in the background
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func urlOnly(u string) []string { return []string{u} }

func platformCandidates(goos string) []Candidate {
	switch goos {
	case "darwin":
		return []Candidate{
			{Name: "Default", Command: "open", Args: urlOnly},
		}
	case "linux", "freebsd", "openbsd":
		return []Candidate{
			{Name: "xdg-open", Command: "xdg-open", Args: urlOnly},
			{Name: "Chrome", Command: "google-chrome", Args: urlOnly},
			{Name: "Chromium", Command: "chromium", Args: urlOnly},
			{Name: "Firefox", Command: "firefox", Args: urlOnly},
		}
	case "windows":
		return []Candidate{
			{Name: "Default", Command: "rundll32", Args: func(u string) []string {
				return []string{"url.dll,FileProtocolHandler", u}
			}},
		}
	default:
		return nil
	}
}

var _ ports.EditorOpener = (*Launcher)(nil)
