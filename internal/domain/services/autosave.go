package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// DraftAutosaver writes the latest draft to the store once changes settle.
// Every Notify restarts the debounce timer; only the newest snapshot is written.
type DraftAutosaver struct {
	store    ports.DraftStore
	clock    ports.TimeProvider
	debounce time.Duration
	logger   *zap.Logger

	// saveMu keeps store writes in notification order
	saveMu sync.Mutex

	mu      sync.Mutex
	pending *entities.Draft
	timer   ports.Timer
	saved   int
}

// NewDraftAutosaver creates an autosaver
func NewDraftAutosaver(store ports.DraftStore, clock ports.TimeProvider, debounce time.Duration, logger *zap.Logger) *DraftAutosaver {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = entities.DraftConfig{}.GetDebounce()
	}
	return &DraftAutosaver{
		store:    store,
		clock:    clock,
		debounce: debounce,
		logger:   logger.Named("autosave"),
	}
}

// Notify schedules draft to be written after the debounce delay
func (a *DraftAutosaver) Notify(draft entities.Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = &draft
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = a.clock.AfterFunc(a.debounce, a.fire)
}

func (a *DraftAutosaver) fire() {
	if err := a.Flush(context.Background()); err != nil {
		a.logger.Error("Autosave failed", zap.Error(err))
	}
}

// Flush writes any pending draft immediately
func (a *DraftAutosaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	draft := a.pending
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if draft == nil {
		return nil
	}

	if err := a.store.Save(ctx, *draft); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}

	a.mu.Lock()
	a.saved++
	a.mu.Unlock()

	a.logger.Debug("Draft saved", zap.Int("slides", len(draft.Slides)))
	return nil
}

// Saves returns how many drafts were written
func (a *DraftAutosaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved
}

// Restore reads the stored draft once at startup
func (a *DraftAutosaver) Restore(ctx context.Context) (entities.Carousel, bool, error) {
	draft, err := a.store.Load(ctx)
	if err != nil {
		return entities.Carousel{}, false, fmt.Errorf("loading draft: %w", err)
	}
	if draft == nil {
		return entities.Carousel{}, false, nil
	}

	c := draft.Carousel()
	if err := c.Validate(); err != nil {
		a.logger.Warn("Stored draft is invalid, starting empty", zap.Error(err))
		return entities.Carousel{}, false, nil
	}
	return c, true, nil
}

var _ DraftNotifier = (*DraftAutosaver)(nil)
