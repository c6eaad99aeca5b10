// Package watcher detects changes to an outline file by polling it.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// PollingWatcher implements ports.FileWatcher by polling size, mtime and
// content hash
type PollingWatcher struct {
	interval time.Duration
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	files   map[string]fileState
	events  chan ports.FileChangeEvent
	wg      sync.WaitGroup
	stopped bool
	stopCh  chan struct{}
}

type fileState struct {
	size     int64
	modTime  time.Time
	checksum string
}

// NewPollingWatcher creates a watcher that checks every interval and emits
// at most one event per debounce window
func NewPollingWatcher(interval, debounce time.Duration, logger *zap.Logger) *PollingWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollingWatcher{
		interval: interval,
		debounce: debounce,
		logger:   logger.Named("watcher"),
		files:    make(map[string]fileState),
		events:   make(chan ports.FileChangeEvent, 10),
		stopCh:   make(chan struct{}),
	}
}

// Watch starts polling path in the background
func (w *PollingWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileChangeEvent, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return nil, errors.New("watcher stopped")
	}

	state, err := scan(absPath)
	if err != nil {
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	w.mu.Lock()
	w.files[absPath] = state
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx, absPath)
	}()

	return w.events, nil
}

// Stop ends polling and closes the event channel
func (w *PollingWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	return nil
}

func (w *PollingWatcher) pollLoop(ctx context.Context, path string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastEvent time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			change, changed, err := w.check(path)
			if err != nil {
				w.logger.Warn("Watch check failed", zap.String("path", path), zap.Error(err))
				continue
			}
			if !changed || time.Since(lastEvent) < w.debounce {
				continue
			}

			event := ports.FileChangeEvent{Path: path, Type: change, Timestamp: time.Now()}
			select {
			case w.events <- event:
				lastEvent = event.Timestamp
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

// check compares the file against its last known state. The hash is only
// computed when size or mtime moved.
func (w *PollingWatcher) check(path string) (ports.FileChangeType, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.mu.Lock()
			_, known := w.files[path]
			delete(w.files, path)
			w.mu.Unlock()
			return ports.Removed, known, nil
		}
		return ports.Modified, false, fmt.Errorf("stat file: %w", err)
	}

	w.mu.RLock()
	old, known := w.files[path]
	w.mu.RUnlock()

	if known && old.size == info.Size() && old.modTime.Equal(info.ModTime()) {
		return ports.Modified, false, nil
	}

	checksum, err := checksumOf(path)
	if err != nil {
		return ports.Modified, false, fmt.Errorf("calculate checksum: %w", err)
	}

	w.mu.Lock()
	w.files[path] = fileState{size: info.Size(), modTime: info.ModTime(), checksum: checksum}
	w.mu.Unlock()

	return ports.Modified, !known || old.checksum != checksum, nil
}

func scan(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, fmt.Errorf("stat file: %w", err)
	}
	checksum, err := checksumOf(path)
	if err != nil {
		return fileState{}, fmt.Errorf("calculate checksum: %w", err)
	}
	return fileState{size: info.Size(), modTime: info.ModTime(), checksum: checksum}, nil
}

func checksumOf(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - path is chosen by the user on the command line
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

var _ ports.FileWatcher = (*PollingWatcher)(nil)
