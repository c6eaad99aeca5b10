package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

func TestOutlineParser_Parse(t *testing.T) {
	parser := NewOutlineParser()
	ctx := context.Background()

	t.Run("frontmatter and slides", func(t *testing.T) {
		content := []byte(`---
topic: Morning routines
template: bold
logo: https://example.com/logo.png
---

# Wake up early

Start with **one** small *habit*.

## Drink water

- Keep a glass by the bed
- ~~Coffee~~ first
`)

		carousel, err := parser.Parse(ctx, content)
		require.NoError(t, err)

		assert.Equal(t, "Morning routines", carousel.Topic)
		assert.Equal(t, "bold", carousel.Template)
		assert.Equal(t, "https://example.com/logo.png", carousel.Logo)
		require.Len(t, carousel.Slides, 2)

		first := carousel.Slides[0]
		assert.Equal(t, "Wake up early", first.Title)
		assert.Equal(t, []string{"Start with <b>one</b> small <i>habit</i>."}, first.Content)
		assert.False(t, first.Generated)
		assert.NotEmpty(t, first.ID)

		second := carousel.Slides[1]
		assert.Equal(t, "Drink water", second.Title)
		assert.Equal(t, []string{"Keep a glass by the bed", "<s>Coffee</s> first"}, second.Content)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("without frontmatter", func(t *testing.T) {
		carousel, err := parser.Parse(ctx, []byte("# Only slide\n\nBody text"))
		require.NoError(t, err)

		assert.Equal(t, entities.DefaultTemplate, carousel.Template)
		assert.Equal(t, "Only slide", carousel.Topic)
		require.Len(t, carousel.Slides, 1)
		assert.Equal(t, []string{"Body text"}, carousel.Slides[0].Content)
	})

	t.Run("images become candidates", func(t *testing.T) {
		content := []byte(`# Travel

![sunset over the sea](https://example.com/a.jpg)
![](https://example.com/b.jpg)

Pack light`)

		carousel, err := parser.Parse(ctx, content)
		require.NoError(t, err)

		slide := carousel.Slides[0]
		assert.Equal(t, "sunset over the sea", slide.ImagePrompt)
		assert.Equal(t, []string{"https://example.com/a.jpg", "https://example.com/b.jpg"}, slide.ImageURLs)
		assert.Equal(t, 0, slide.SelectedImageIndex)
		assert.Equal(t, []string{"Pack light"}, slide.Content)

		edited, err := slide.WithImagePrompt("beach")
		require.NoError(t, err)
		assert.Equal(t, "beach", edited.ImagePrompt)
	})

	t.Run("content before first heading", func(t *testing.T) {
		carousel, err := parser.Parse(ctx, []byte("Intro line\n\n# Next"))
		require.NoError(t, err)

		require.Len(t, carousel.Slides, 2)
		assert.Equal(t, "", carousel.Slides[0].Title)
		assert.Equal(t, []string{"Intro line"}, carousel.Slides[0].Content)
		assert.Equal(t, "Next", carousel.Slides[1].Title)
	})

	t.Run("deeper headings are body lines", func(t *testing.T) {
		carousel, err := parser.Parse(ctx, []byte("# Top\n\n### Detail\n\nText"))
		require.NoError(t, err)

		require.Len(t, carousel.Slides, 1)
		assert.Equal(t, []string{"Detail", "Text"}, carousel.Slides[0].Content)
	})

	t.Run("html is escaped", func(t *testing.T) {
		carousel, err := parser.Parse(ctx, []byte("# A & B\n\nUse `<b>` tags"))
		require.NoError(t, err)

		assert.Equal(t, "A &amp; B", carousel.Slides[0].Title)
		assert.Equal(t, "A & B", carousel.Topic)
		assert.Equal(t, []string{"Use &lt;b&gt; tags"}, carousel.Slides[0].Content)
	})

	t.Run("windows line endings", func(t *testing.T) {
		carousel, err := parser.Parse(ctx, []byte("---\r\ntopic: Crlf\r\n---\r\n# One\r\n\r\n# Two\r\n"))
		require.NoError(t, err)

		assert.Equal(t, "Crlf", carousel.Topic)
		assert.Len(t, carousel.Slides, 2)
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := parser.Parse(ctx, []byte("---\ntemplate: neon\n---\n# One"))
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrTemplateNotFound)
	})

	t.Run("invalid frontmatter", func(t *testing.T) {
		_, err := parser.Parse(ctx, []byte("---\ntopic: [unclosed\n---\n# One"))
		require.Error(t, err)
		assert.True(t, entities.IsValidationError(err))
	})

	t.Run("empty outline", func(t *testing.T) {
		_, err := parser.Parse(ctx, []byte("   \n\n"))
		require.Error(t, err)
		assert.True(t, entities.IsValidationError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := parser.Parse(cancelled, []byte("# One"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTopic string
		wantBody  string
	}{
		{name: "no frontmatter", input: "# Title", wantBody: "# Title"},
		{name: "empty frontmatter", input: "---\n---\n# Title", wantBody: "# Title"},
		{name: "unterminated", input: "---\ntopic: x\n# Title", wantBody: "---\ntopic: x\n# Title"},
		{name: "topic", input: "---\ntopic: Focus\n---\nbody", wantTopic: "Focus", wantBody: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := extractFrontmatter([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTopic, fm.Topic)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}
