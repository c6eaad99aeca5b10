package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// OutlineSync keeps the working carousel in step with a markdown outline on
// disk: the outline is imported once on Start and again on every change.
// A change replaces the carousel as one undoable step.
type OutlineSync struct {
	watcher  ports.FileWatcher
	fs       ports.FileSystem
	parser   ports.OutlineParser
	carousel *CarouselService
	logger   *zap.Logger

	mu          sync.Mutex
	watching    bool
	watchCancel context.CancelFunc
	path        string
	done        chan struct{}
}

// NewOutlineSync creates an outline sync
func NewOutlineSync(
	watcher ports.FileWatcher,
	fs ports.FileSystem,
	parser ports.OutlineParser,
	carousel *CarouselService,
	logger *zap.Logger,
) *OutlineSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutlineSync{
		watcher:  watcher,
		fs:       fs,
		parser:   parser,
		carousel: carousel,
		logger:   logger.Named("outline_sync"),
	}
}

// Start imports path and begins watching it
func (s *OutlineSync) Start(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return errors.New("already watching")
	}
	s.watching = true
	s.path = path
	s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		s.reset()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := s.watcher.Watch(watchCtx, path)
	if err != nil {
		cancel()
		s.reset()
		return fmt.Errorf("starting watcher: %w", err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.watchCancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.handleEvents(watchCtx, events)
	}()

	s.logger.Info("Watching outline", zap.String("path", path))
	return nil
}

// Stop ends watching and waits for the event loop to exit
func (s *OutlineSync) Stop() error {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.watchCancel, s.done
	s.watching = false
	s.watchCancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return s.watcher.Stop()
}

// IsWatching returns whether an outline is being watched
func (s *OutlineSync) IsWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *OutlineSync) reset() {
	s.mu.Lock()
	s.watching = false
	s.path = ""
	s.mu.Unlock()
}

func (s *OutlineSync) handleEvents(ctx context.Context, events <-chan ports.FileChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			if event.Type == ports.Removed {
				s.logger.Warn("Outline removed, keeping current carousel", zap.String("path", event.Path))
				continue
			}

			s.logger.Info("Outline changed", zap.String("path", event.Path), zap.Time("timestamp", event.Timestamp))

			// a broken outline leaves the carousel as it was
			if err := s.reload(ctx); err != nil {
				s.logger.Error("Failed to reload outline", zap.String("path", event.Path), zap.Error(err))
			}
		}
	}
}

func (s *OutlineSync) reload(ctx context.Context) error {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	content, err := s.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading outline: %w", err)
	}

	carousel, err := s.parser.Parse(ctx, content)
	if err != nil {
		return fmt.Errorf("parsing outline: %w", err)
	}

	if _, err := s.carousel.Replace(*carousel); err != nil {
		return fmt.Errorf("replacing carousel: %w", err)
	}

	s.logger.Debug("Outline imported", zap.String("path", path), zap.Int("slides", carousel.SlideCount()))
	return nil
}
