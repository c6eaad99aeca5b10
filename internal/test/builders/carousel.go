package builders

import (
	"fmt"
	"time"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// CarouselBuilder helps build Carousel entities for testing
type CarouselBuilder struct {
	carousel entities.Carousel
}

// NewCarouselBuilder creates a new carousel builder with sensible defaults
func NewCarouselBuilder() *CarouselBuilder {
	return &CarouselBuilder{
		carousel: entities.Carousel{
			Topic:     "Test Carousel",
			Slides:    []entities.Slide{},
			Template:  entities.DefaultTemplate,
			UpdatedAt: time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC),
		},
	}
}

// WithTopic sets the carousel topic
func (b *CarouselBuilder) WithTopic(topic string) *CarouselBuilder {
	b.carousel.Topic = topic
	return b
}

// WithTemplate sets the template name without checking it exists
func (b *CarouselBuilder) WithTemplate(name string) *CarouselBuilder {
	b.carousel.Template = name
	return b
}

// WithLogo sets the logo reference
func (b *CarouselBuilder) WithLogo(logo string) *CarouselBuilder {
	b.carousel.Logo = logo
	return b
}

// WithSlide adds a single slide
func (b *CarouselBuilder) WithSlide(slide entities.Slide) *CarouselBuilder {
	b.carousel.Slides = append(b.carousel.Slides, slide)
	return b
}

// WithSlideCount adds the specified number of default slides
func (b *CarouselBuilder) WithSlideCount(count int) *CarouselBuilder {
	start := len(b.carousel.Slides)
	for i := 0; i < count; i++ {
		n := start + i + 1
		b.carousel.Slides = append(b.carousel.Slides, NewSlideBuilder().
			WithID(fmt.Sprintf("slide-%d", n)).
			WithTitle(fmt.Sprintf("Slide %d", n)).
			Build())
	}
	return b
}

// Build creates the final Carousel entity
func (b *CarouselBuilder) Build() entities.Carousel {
	return b.carousel.Clone()
}

// SlideBuilder helps build Slide entities for testing
type SlideBuilder struct {
	slide entities.Slide
}

// NewSlideBuilder creates a new slide builder with sensible defaults
func NewSlideBuilder() *SlideBuilder {
	return &SlideBuilder{
		slide: entities.Slide{
			ID:                 "slide-1",
			Title:              "Test Slide",
			Content:            []string{"Test content"},
			ImageURLs:          []string{},
			SelectedImageIndex: entities.NoImageSelected,
		},
	}
}

// WithID sets the slide ID
func (b *SlideBuilder) WithID(id string) *SlideBuilder {
	b.slide.ID = id
	return b
}

// WithTitle sets the slide title
func (b *SlideBuilder) WithTitle(title string) *SlideBuilder {
	b.slide.Title = title
	return b
}

// WithContent replaces the body lines
func (b *SlideBuilder) WithContent(lines ...string) *SlideBuilder {
	b.slide.Content = append([]string{}, lines...)
	return b
}

// WithImages sets the candidate images and selects the first
func (b *SlideBuilder) WithImages(urls ...string) *SlideBuilder {
	b.slide.ImageURLs = append([]string{}, urls...)
	b.slide.SelectedImageIndex = entities.NoImageSelected
	if len(urls) > 0 {
		b.slide.SelectedImageIndex = 0
	}
	return b
}

// Selecting sets the selected image index as given, valid or not
func (b *SlideBuilder) Selecting(index int) *SlideBuilder {
	b.slide.SelectedImageIndex = index
	return b
}

// Generated marks the slide as generated with a locked prompt
func (b *SlideBuilder) Generated(prompt string) *SlideBuilder {
	b.slide.Generated = true
	b.slide.ImagePrompt = prompt
	return b
}

// Build creates the final Slide entity
func (b *SlideBuilder) Build() entities.Slide {
	s := b.slide
	s.Content = append([]string{}, b.slide.Content...)
	s.ImageURLs = append([]string{}, b.slide.ImageURLs...)
	return s
}

// Common carousel shapes for testing

// MinimalCarousel creates a carousel with a single slide
func MinimalCarousel() entities.Carousel {
	return NewCarouselBuilder().
		WithTopic("Minimal").
		WithSlideCount(1).
		Build()
}

// FullCarousel creates the largest carousel a single generation may produce
func FullCarousel() entities.Carousel {
	return NewCarouselBuilder().
		WithTopic("Full").
		WithSlideCount(entities.MaxSlideCount).
		Build()
}
