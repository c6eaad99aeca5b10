package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateSlides(ctx context.Context, topic string, count int, tone string) ([]ports.GeneratedSlide, error) {
	args := m.Called(ctx, topic, count, tone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.GeneratedSlide), args.Error(1)
}

type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockStockImageProvider struct {
	mock.Mock
}

func (m *MockStockImageProvider) StockImage(prompt string) string {
	return m.Called(prompt).String(0)
}

func generatedSlides(prompts ...string) []ports.GeneratedSlide {
	out := make([]ports.GeneratedSlide, len(prompts))
	for i, p := range prompts {
		out[i] = ports.GeneratedSlide{
			Title:       "Slide " + p,
			Content:     []string{"line about " + p},
			ImagePrompt: p,
		}
	}
	return out
}

func TestGenerationService_Generate(t *testing.T) {
	content := &MockContentGenerator{}
	images := &MockImageGenerator{}
	stock := &MockStockImageProvider{}
	svc := NewGenerationService(content, images, stock, 5, zaptest.NewLogger(t))

	content.On("GenerateSlides", mock.Anything, "coffee", 3, "playful").
		Return(generatedSlides("beans", "roast", "cup"), nil)
	images.On("GenerateImage", mock.Anything, "beans").Return("data:image/png;base64,AAA", nil)
	images.On("GenerateImage", mock.Anything, "roast").Return("", errors.New("quota exceeded"))
	images.On("GenerateImage", mock.Anything, "cup").Return("https://img.example/cup.png", nil)
	stock.On("StockImage", "roast").Return("https://picsum.photos/seed/roast/1080/1080")

	c, err := svc.Generate(context.Background(), ports.GenerateRequest{Topic: "  coffee ", SlideCount: 3, Tone: "playful"})
	require.NoError(t, err)

	assert.Equal(t, "coffee", c.Topic)
	require.Len(t, c.Slides, 3)
	assert.Equal(t, []string{"data:image/png;base64,AAA"}, c.Slides[0].ImageURLs)
	assert.Equal(t, []string{"https://picsum.photos/seed/roast/1080/1080"}, c.Slides[1].ImageURLs)
	assert.Equal(t, []string{"https://img.example/cup.png"}, c.Slides[2].ImageURLs)
	for i, s := range c.Slides {
		assert.True(t, s.Generated, "slide %d", i)
		assert.Equal(t, 0, s.SelectedImageIndex)
		assert.NotEmpty(t, s.ID)
	}
	require.NoError(t, c.Validate())

	content.AssertExpectations(t)
	images.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestGenerationService_Validation(t *testing.T) {
	content := &MockContentGenerator{}
	svc := NewGenerationService(content, nil, nil, 5, nil)

	tests := []struct {
		name string
		req  ports.GenerateRequest
	}{
		{name: "empty topic", req: ports.GenerateRequest{Topic: "   ", SlideCount: 3}},
		{name: "too many slides", req: ports.GenerateRequest{Topic: "x", SlideCount: 11}},
		{name: "negative count", req: ports.GenerateRequest{Topic: "x", SlideCount: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, entities.IsValidationError(err))
		})
	}
	content.AssertNotCalled(t, "GenerateSlides", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_DefaultCountAndTruncation(t *testing.T) {
	content := &MockContentGenerator{}
	svc := NewGenerationService(content, nil, nil, 2, nil)

	content.On("GenerateSlides", mock.Anything, "tea", 2, "").
		Return(generatedSlides("a", "b", "c"), nil)

	c, err := svc.Generate(context.Background(), ports.GenerateRequest{Topic: "tea"})
	require.NoError(t, err)
	require.Len(t, c.Slides, 2)
	assert.Empty(t, c.Slides[0].ImageURLs)
	assert.Equal(t, entities.NoImageSelected, c.Slides[0].SelectedImageIndex)
}

func TestGenerationService_NormalizesTopic(t *testing.T) {
	content := &MockContentGenerator{}
	svc := NewGenerationService(content, nil, nil, 1, nil)

	// "cafe" with a combining acute accent arrives composed
	content.On("GenerateSlides", mock.Anything, "caf\u00e9", 1, "").
		Return(generatedSlides("a"), nil)

	c, err := svc.Generate(context.Background(), ports.GenerateRequest{Topic: "cafe\u0301"})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", c.Topic)
	content.AssertExpectations(t)
}

func TestGenerationService_ContentFailures(t *testing.T) {
	t.Run("generator error aborts", func(t *testing.T) {
		content := &MockContentGenerator{}
		content.On("GenerateSlides", mock.Anything, "x", 3, "").Return(nil, errors.New("upstream 500"))
		svc := NewGenerationService(content, nil, nil, 3, nil)

		_, err := svc.Generate(context.Background(), ports.GenerateRequest{Topic: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream 500")
	})

	t.Run("no slides returned", func(t *testing.T) {
		content := &MockContentGenerator{}
		content.On("GenerateSlides", mock.Anything, "x", 3, "").Return([]ports.GeneratedSlide{}, nil)
		svc := NewGenerationService(content, nil, nil, 3, nil)

		_, err := svc.Generate(context.Background(), ports.GenerateRequest{Topic: "x"})
		assert.Error(t, err)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewGenerationService(nil, nil, nil, 3, nil)
		_, err := svc.Generate(context.Background(), ports.GenerateRequest{Topic: "x"})
		assert.ErrorIs(t, err, ErrGenerationUnavailable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		content := &MockContentGenerator{}
		content.On("GenerateSlides", mock.Anything, "x", 1, "").Return(generatedSlides("p"), nil)
		stock := &MockStockImageProvider{}
		stock.On("StockImage", "p").Return("stock")
		svc := NewGenerationService(content, nil, stock, 3, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Generate(ctx, ports.GenerateRequest{Topic: "x", SlideCount: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type MockCaptionGenerator struct {
	mock.Mock
}

func (m *MockCaptionGenerator) GenerateCaptions(ctx context.Context, description string) ([]string, error) {
	args := m.Called(ctx, description)
	captions, _ := args.Get(0).([]string)
	return captions, args.Error(1)
}

func promptedCarousel(t *testing.T) *CarouselService {
	t.Helper()
	a := entities.NewGeneratedSlide("Brew", []string{"Grind fresh"}, "coffee beans")
	a.ID = "s1"
	b := entities.NewGeneratedSlide("Pour", []string{"Slowly"}, "pour over").WithImage("https://img.example/first.png")
	b.ID = "s2"
	c := entities.NewSlide("Manual")
	c.ID = "s3"
	return NewCarouselService(entities.NewCarousel("coffee", a, b, c), 10, zaptest.NewLogger(t))
}

func TestGenerationService_GenerateImage(t *testing.T) {
	t.Run("appends a generated candidate", func(t *testing.T) {
		carousel := promptedCarousel(t)
		images := &MockImageGenerator{}
		images.On("GenerateImage", mock.Anything, "coffee beans").Return("data:image/png;base64,AAA", nil)
		svc := NewGenerationService(&MockContentGenerator{}, images, nil, 3, nil, WithCarousel(carousel))

		c, err := svc.GenerateImage(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, []string{"data:image/png;base64,AAA"}, c.Slides[0].ImageURLs)
		assert.Equal(t, 0, c.Slides[0].SelectedImageIndex)
		assert.True(t, carousel.History().CanUndo)
		assert.Equal(t, c, carousel.Snapshot())
		images.AssertExpectations(t)
	})

	t.Run("generator failure falls back to stock", func(t *testing.T) {
		carousel := promptedCarousel(t)
		images := &MockImageGenerator{}
		images.On("GenerateImage", mock.Anything, "coffee beans").Return("", errors.New("quota exceeded"))
		stock := &MockStockImageProvider{}
		stock.On("StockImage", "coffee beans").Return("https://picsum.photos/seed/coffee-beans/1080/1080")
		svc := NewGenerationService(&MockContentGenerator{}, images, stock, 3, nil, WithCarousel(carousel))

		c, err := svc.GenerateImage(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://picsum.photos/seed/coffee-beans/1080/1080"}, c.Slides[0].ImageURLs)
		stock.AssertExpectations(t)
	})

	t.Run("existing selection is kept", func(t *testing.T) {
		carousel := promptedCarousel(t)
		images := &MockImageGenerator{}
		images.On("GenerateImage", mock.Anything, "pour over").Return("https://img.example/second.png", nil)
		svc := NewGenerationService(&MockContentGenerator{}, images, nil, 3, nil, WithCarousel(carousel))

		c, err := svc.GenerateImage(context.Background(), "s2")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://img.example/first.png", "https://img.example/second.png"}, c.Slides[1].ImageURLs)
		assert.Equal(t, 0, c.Slides[1].SelectedImageIndex)
	})

	t.Run("errors", func(t *testing.T) {
		carousel := promptedCarousel(t)
		svc := NewGenerationService(nil, nil, nil, 3, nil, WithCarousel(carousel))

		_, err := svc.GenerateImage(context.Background(), "missing")
		assert.ErrorIs(t, err, entities.ErrSlideNotFound)

		_, err = svc.GenerateImage(context.Background(), "s3")
		assert.True(t, entities.IsValidationError(err))

		_, err = svc.GenerateImage(context.Background(), "s1")
		assert.ErrorIs(t, err, ErrGenerationUnavailable)

		_, err = NewGenerationService(nil, nil, nil, 3, nil).GenerateImage(context.Background(), "s1")
		assert.ErrorIs(t, err, ErrNoWorkingCarousel)

		assert.False(t, carousel.History().CanUndo)
	})
}

func TestGenerationService_GenerateCaptions(t *testing.T) {
	t.Run("returns trimmed captions", func(t *testing.T) {
		captions := &MockCaptionGenerator{}
		captions.On("GenerateCaptions", mock.Anything, "morning coffee").
			Return([]string{" First #coffee ", "", "Second"}, nil)
		svc := NewGenerationService(nil, nil, nil, 3, nil, WithCaptionGenerator(captions))

		got, err := svc.GenerateCaptions(context.Background(), ports.CaptionRequest{Description: "  morning coffee "})
		require.NoError(t, err)
		assert.Equal(t, []string{"First #coffee", "Second"}, got)
		captions.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewGenerationService(nil, nil, nil, 3, nil, WithCaptionGenerator(&MockCaptionGenerator{}))
		_, err := svc.GenerateCaptions(context.Background(), ports.CaptionRequest{Description: "  "})
		assert.True(t, entities.IsValidationError(err))
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewGenerationService(nil, nil, nil, 3, nil)
		_, err := svc.GenerateCaptions(context.Background(), ports.CaptionRequest{Description: "x"})
		assert.ErrorIs(t, err, ErrGenerationUnavailable)
	})

	t.Run("generator failures", func(t *testing.T) {
		captions := &MockCaptionGenerator{}
		captions.On("GenerateCaptions", mock.Anything, "x").Return(nil, errors.New("upstream 500")).Once()
		captions.On("GenerateCaptions", mock.Anything, "x").Return([]string{" "}, nil).Once()
		svc := NewGenerationService(nil, nil, nil, 3, nil, WithCaptionGenerator(captions))

		_, err := svc.GenerateCaptions(context.Background(), ports.CaptionRequest{Description: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream 500")

		_, err = svc.GenerateCaptions(context.Background(), ports.CaptionRequest{Description: "x"})
		assert.Error(t, err)
	})
}
