package builders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

func TestCarouselBuilder(t *testing.T) {
	t.Run("builds carousel with defaults", func(t *testing.T) {
		carousel := NewCarouselBuilder().Build()

		assert.Equal(t, "Test Carousel", carousel.Topic)
		assert.Equal(t, entities.DefaultTemplate, carousel.Template)
		assert.Empty(t, carousel.Slides)
		require.NoError(t, carousel.Validate())
	})

	t.Run("builds carousel with custom values", func(t *testing.T) {
		carousel := NewCarouselBuilder().
			WithTopic("Sleep").
			WithTemplate("bold").
			WithLogo("https://example.com/logo.png").
			WithSlideCount(3).
			Build()

		assert.Equal(t, "Sleep", carousel.Topic)
		assert.Equal(t, "bold", carousel.Template)
		assert.Equal(t, "https://example.com/logo.png", carousel.Logo)
		require.Len(t, carousel.Slides, 3)
		assert.Equal(t, "slide-3", carousel.Slides[2].ID)
		assert.Equal(t, "Slide 3", carousel.Slides[2].Title)
		require.NoError(t, carousel.Validate())
	})

	t.Run("slide count continues numbering", func(t *testing.T) {
		carousel := NewCarouselBuilder().WithSlideCount(1).WithSlideCount(1).Build()

		require.NoError(t, carousel.Validate())
		assert.Equal(t, "slide-2", carousel.Slides[1].ID)
	})

	t.Run("build returns independent copies", func(t *testing.T) {
		b := NewCarouselBuilder().WithSlideCount(1)
		first := b.Build()
		first.Slides[0].Content[0] = "changed"

		assert.Equal(t, "Test content", b.Build().Slides[0].Content[0])
	})

	t.Run("helpers", func(t *testing.T) {
		assert.Len(t, MinimalCarousel().Slides, 1)
		assert.Len(t, FullCarousel().Slides, entities.MaxSlideCount)
	})
}

func TestSlideBuilder(t *testing.T) {
	t.Run("builds slide with defaults", func(t *testing.T) {
		slide := NewSlideBuilder().Build()

		assert.Equal(t, "slide-1", slide.ID)
		assert.Equal(t, "Test Slide", slide.Title)
		assert.Equal(t, []string{"Test content"}, slide.Content)
		assert.Equal(t, entities.NoImageSelected, slide.SelectedImageIndex)
		require.NoError(t, slide.Validate())
	})

	t.Run("images select the first candidate", func(t *testing.T) {
		slide := NewSlideBuilder().WithImages("https://a.test/1.jpg", "https://a.test/2.jpg").Build()

		assert.Equal(t, 0, slide.SelectedImageIndex)
		require.NoError(t, slide.Validate())
	})

	t.Run("selecting can build invalid slides", func(t *testing.T) {
		slide := NewSlideBuilder().WithImages("https://a.test/1.jpg").Selecting(4).Build()

		assert.Error(t, slide.Validate())
	})

	t.Run("generated slides carry a prompt", func(t *testing.T) {
		slide := NewSlideBuilder().WithContent("a", "b").Generated("a calm bedroom").Build()

		assert.True(t, slide.Generated)
		assert.Equal(t, "a calm bedroom", slide.ImagePrompt)
		assert.Equal(t, []string{"a", "b"}, slide.Content)
	})
}
