package entities

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	// DefaultTemplate is used when a carousel does not name one
	DefaultTemplate = "minimal"

	// MaxSlideCount bounds the number of slides a single generation may request
	MaxSlideCount = 10
)

// Carousel is the owning slide-content model: the ordered slides plus the
// logo and template shared by every slide.
//
// Every mutation returns a new Carousel; the receiver is never modified.
type Carousel struct {
	// Topic is the subject the carousel was generated from
	Topic string `json:"topic,omitempty"`

	// Slides contains all carousel slides in order
	Slides []Slide `json:"slides"`

	// Logo is an optional image reference drawn on every slide
	Logo string `json:"logo,omitempty"`

	// Template names the visual template
	Template string `json:"template"`

	// UpdatedAt is when the value was produced
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCarousel creates a carousel with the given slides
func NewCarousel(topic string, slides ...Slide) Carousel {
	return Carousel{
		Topic:     topic,
		Slides:    cloneSlides(slides),
		Template:  DefaultTemplate,
		UpdatedAt: time.Now(),
	}
}

// Validate ensures ids are unique and every slide is valid
func (c Carousel) Validate() error {
	seen := make(map[string]struct{}, len(c.Slides))
	for i, slide := range c.Slides {
		if err := slide.Validate(); err != nil {
			return fmt.Errorf("slide %d validation failed: %w", i+1, err)
		}
		if _, dup := seen[slide.ID]; dup {
			return fmt.Errorf("slide %d: duplicate id %s", i+1, slide.ID)
		}
		seen[slide.ID] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy
func (c Carousel) Clone() Carousel {
	c.Slides = cloneSlides(c.Slides)
	return c
}

// SlideCount returns the number of slides
func (c Carousel) SlideCount() int {
	return len(c.Slides)
}

// IndexOf returns the position of a slide id
func (c Carousel) IndexOf(id string) (int, error) {
	for i := range c.Slides {
		if c.Slides[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: %w", id, ErrSlideNotFound)
}

// SlideByID returns a copy of the slide with the given id
func (c Carousel) SlideByID(id string) (Slide, error) {
	i, err := c.IndexOf(id)
	if err != nil {
		return Slide{}, err
	}
	return c.Slides[i].Clone(), nil
}

// UpdateContent replaces the rich text of one slide field
func (c Carousel) UpdateContent(slideID string, field ContentField, html string) (Carousel, error) {
	return c.updateSlide(slideID, func(s Slide) (Slide, error) {
		return s.WithContent(field, html)
	})
}

// AddImage appends an image candidate to a slide
func (c Carousel) AddImage(slideID, url string) (Carousel, error) {
	return c.updateSlide(slideID, func(s Slide) (Slide, error) {
		return s.WithImage(url), nil
	})
}

// DeleteImage removes an image candidate from a slide
func (c Carousel) DeleteImage(slideID string, index int) (Carousel, error) {
	return c.updateSlide(slideID, func(s Slide) (Slide, error) {
		return s.WithoutImage(index)
	})
}

// SelectImage selects the displayed candidate of a slide
func (c Carousel) SelectImage(slideID string, index int) (Carousel, error) {
	return c.updateSlide(slideID, func(s Slide) (Slide, error) {
		return s.WithSelectedImage(index)
	})
}

// SetImagePrompt edits the prompt of a manually added slide
func (c Carousel) SetImagePrompt(slideID, prompt string) (Carousel, error) {
	return c.updateSlide(slideID, func(s Slide) (Slide, error) {
		return s.WithImagePrompt(prompt)
	})
}

// Reorder moves the slide at from to position to
func (c Carousel) Reorder(from, to int) (Carousel, error) {
	n := len(c.Slides)
	if from < 0 || from >= n || to < 0 || to >= n {
		return c, NewValidationError("index", fmt.Sprintf("reorder %d -> %d outside %d slides", from, to, n))
	}

	out := c.Clone()
	moved := out.Slides[from]
	out.Slides = slices.Delete(out.Slides, from, from+1)
	out.Slides = slices.Insert(out.Slides, to, moved)
	out.UpdatedAt = time.Now()
	return out, nil
}

// AddSlide inserts a slide at position at; at == len appends
func (c Carousel) AddSlide(at int, slide Slide) (Carousel, error) {
	if at < 0 || at > len(c.Slides) {
		return c, NewValidationError("index", fmt.Sprintf("insert position %d outside 0..%d", at, len(c.Slides)))
	}
	if err := slide.Validate(); err != nil {
		return c, err
	}
	if _, err := c.IndexOf(slide.ID); err == nil {
		return c, fmt.Errorf("slide %s already exists", slide.ID)
	}

	out := c.Clone()
	out.Slides = slices.Insert(out.Slides, at, slide.Clone())
	out.UpdatedAt = time.Now()
	return out, nil
}

// RemoveSlide deletes a slide
func (c Carousel) RemoveSlide(slideID string) (Carousel, error) {
	i, err := c.IndexOf(slideID)
	if err != nil {
		return c, err
	}
	out := c.Clone()
	out.Slides = slices.Delete(out.Slides, i, i+1)
	out.UpdatedAt = time.Now()
	return out, nil
}

// WithTemplate switches the visual template
func (c Carousel) WithTemplate(name string) (Carousel, error) {
	if _, ok := BuiltinTemplate(name); !ok {
		return c, fmt.Errorf("%s: %w", name, ErrTemplateNotFound)
	}
	out := c.Clone()
	out.Template = name
	out.UpdatedAt = time.Now()
	return out, nil
}

// WithLogo sets or clears the logo reference
func (c Carousel) WithLogo(logo string) Carousel {
	out := c.Clone()
	out.Logo = logo
	out.UpdatedAt = time.Now()
	return out
}

func (c Carousel) updateSlide(slideID string, fn func(Slide) (Slide, error)) (Carousel, error) {
	i, err := c.IndexOf(slideID)
	if err != nil {
		return c, err
	}

	updated, err := fn(c.Slides[i])
	if err != nil {
		return c, err
	}
	if err := updated.Validate(); err != nil {
		return c, errors.Join(errors.New("mutation broke slide invariants"), err)
	}

	out := c.Clone()
	out.Slides[i] = updated
	out.UpdatedAt = time.Now()
	return out, nil
}

func cloneSlides(slides []Slide) []Slide {
	if slides == nil {
		return []Slide{}
	}
	out := make([]Slide, len(slides))
	for i := range slides {
		out[i] = slides[i].Clone()
	}
	return out
}
