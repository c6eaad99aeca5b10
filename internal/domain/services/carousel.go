package services

import (
	"sync"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// DraftNotifier is told about every new carousel value
type DraftNotifier interface {
	Notify(draft entities.Draft)
}

// CarouselService owns the working carousel. Every mutation produces a new
// value that becomes the current one and a history entry.
type CarouselService struct {
	mu      sync.RWMutex
	current entities.Carousel
	history *entities.History

	drafts    DraftNotifier
	publisher ports.ProgressPublisher
	clock     ports.TimeProvider
	logger    *zap.Logger
}

// CarouselOption configures a CarouselService
type CarouselOption func(*CarouselService)

// WithDraftNotifier sends every new value to an autosaver
func WithDraftNotifier(n DraftNotifier) CarouselOption {
	return func(s *CarouselService) { s.drafts = n }
}

// WithPublisher announces every new value to connected clients
func WithPublisher(p ports.ProgressPublisher) CarouselOption {
	return func(s *CarouselService) { s.publisher = p }
}

// WithClock overrides the time source
func WithClock(c ports.TimeProvider) CarouselOption {
	return func(s *CarouselService) { s.clock = c }
}

// NewCarouselService creates the service around an initial carousel
func NewCarouselService(initial entities.Carousel, historySize int, logger *zap.Logger, opts ...CarouselOption) *CarouselService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CarouselService{
		current: initial.Clone(),
		history: entities.NewHistory(initial, historySize),
		clock:   ports.NewRealTimeProvider(),
		logger:  logger.Named("carousel"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current carousel
func (s *CarouselService) Snapshot() entities.Carousel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Replace installs a whole new carousel, e.g. after generation or import
func (s *CarouselService) Replace(c entities.Carousel) (entities.Carousel, error) {
	if err := c.Validate(); err != nil {
		return s.Snapshot(), err
	}
	return s.apply("replace", func(entities.Carousel) (entities.Carousel, error) {
		return c.Clone(), nil
	})
}

// UpdateContent stores edited rich text. Unchanged content does not create a
// history entry.
func (s *CarouselService) UpdateContent(slideID string, field entities.ContentField, html string) (entities.Carousel, error) {
	s.mu.RLock()
	slide, err := s.current.SlideByID(slideID)
	s.mu.RUnlock()
	if err != nil {
		return s.Snapshot(), err
	}
	if old, err := slide.FieldContent(field); err == nil && old == html {
		return s.Snapshot(), nil
	}

	return s.apply("update_content", func(c entities.Carousel) (entities.Carousel, error) {
		return c.UpdateContent(slideID, field, html)
	})
}

// AddImage appends an image candidate to a slide
func (s *CarouselService) AddImage(slideID, url string) (entities.Carousel, error) {
	return s.apply("add_image", func(c entities.Carousel) (entities.Carousel, error) {
		return c.AddImage(slideID, url)
	})
}

// DeleteImage removes an image candidate
func (s *CarouselService) DeleteImage(slideID string, index int) (entities.Carousel, error) {
	return s.apply("delete_image", func(c entities.Carousel) (entities.Carousel, error) {
		return c.DeleteImage(slideID, index)
	})
}

// SelectImage selects the displayed candidate
func (s *CarouselService) SelectImage(slideID string, index int) (entities.Carousel, error) {
	return s.apply("select_image", func(c entities.Carousel) (entities.Carousel, error) {
		return c.SelectImage(slideID, index)
	})
}

// SetImagePrompt edits the prompt of a manually added slide
func (s *CarouselService) SetImagePrompt(slideID, prompt string) (entities.Carousel, error) {
	return s.apply("set_image_prompt", func(c entities.Carousel) (entities.Carousel, error) {
		return c.SetImagePrompt(slideID, prompt)
	})
}

// Reorder moves a slide
func (s *CarouselService) Reorder(from, to int) (entities.Carousel, error) {
	return s.apply("reorder", func(c entities.Carousel) (entities.Carousel, error) {
		return c.Reorder(from, to)
	})
}

// AddSlide inserts a slide
func (s *CarouselService) AddSlide(at int, slide entities.Slide) (entities.Carousel, error) {
	return s.apply("add_slide", func(c entities.Carousel) (entities.Carousel, error) {
		return c.AddSlide(at, slide)
	})
}

// RemoveSlide deletes a slide
func (s *CarouselService) RemoveSlide(slideID string) (entities.Carousel, error) {
	return s.apply("remove_slide", func(c entities.Carousel) (entities.Carousel, error) {
		return c.RemoveSlide(slideID)
	})
}

// SetTemplate switches the visual template
func (s *CarouselService) SetTemplate(name string) (entities.Carousel, error) {
	return s.apply("set_template", func(c entities.Carousel) (entities.Carousel, error) {
		return c.WithTemplate(name)
	})
}

// SetLogo sets or clears the logo
func (s *CarouselService) SetLogo(logo string) (entities.Carousel, error) {
	return s.apply("set_logo", func(c entities.Carousel) (entities.Carousel, error) {
		return c.WithLogo(logo), nil
	})
}

// Undo restores the previous snapshot
func (s *CarouselService) Undo() (entities.Carousel, error) {
	return s.travel("undo", s.history.Undo)
}

// Redo restores the next snapshot
func (s *CarouselService) Redo() (entities.Carousel, error) {
	return s.travel("redo", s.history.Redo)
}

// History reports undo/redo availability
func (s *CarouselService) History() ports.HistoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.HistoryState{
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
		Size:    s.history.Len(),
	}
}

func (s *CarouselService) apply(op string, fn func(entities.Carousel) (entities.Carousel, error)) (entities.Carousel, error) {
	s.mu.Lock()
	next, err := fn(s.current)
	if err != nil {
		current := s.current.Clone()
		s.mu.Unlock()
		s.logger.Debug("Mutation rejected", zap.String("op", op), zap.Error(err))
		return current, err
	}
	s.current = next
	s.history.Push(next)
	s.mu.Unlock()

	s.logger.Debug("Carousel updated", zap.String("op", op), zap.Int("slides", next.SlideCount()))
	s.announce(next)
	return next.Clone(), nil
}

func (s *CarouselService) travel(op string, move func() (entities.Carousel, error)) (entities.Carousel, error) {
	s.mu.Lock()
	next, err := move()
	if err != nil {
		s.mu.Unlock()
		return next, err
	}
	s.current = next
	s.mu.Unlock()

	s.logger.Debug("History moved", zap.String("op", op))
	s.announce(next)
	return next.Clone(), nil
}

func (s *CarouselService) announce(c entities.Carousel) {
	if s.drafts != nil {
		s.drafts.Notify(entities.DraftOf(c, s.clock.Now()))
	}
	if s.publisher != nil {
		s.publisher.Publish(ports.UpdateEvent{
			Type:      ports.EventTypeCarouselUpdated,
			Timestamp: s.clock.Now(),
			Data:      c,
		})
	}
}

var _ ports.CarouselService = (*CarouselService)(nil)
