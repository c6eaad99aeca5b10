package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

var (
	// ErrGenerationUnavailable is returned when no content generator is configured
	ErrGenerationUnavailable = errors.New("content generation is not configured")

	// ErrNoWorkingCarousel is returned by slide operations on a service
	// created without WithCarousel
	ErrNoWorkingCarousel = errors.New("no working carousel")
)

// imageConcurrency bounds parallel image requests per carousel
const imageConcurrency = 3

// GenerationService turns a topic into a carousel. Content generation
// failure aborts; a failed image request falls back to a stock photo.
type GenerationService struct {
	content      ports.ContentGenerator
	images       ports.ImageGenerator
	stock        ports.StockImageProvider
	captions     ports.CaptionGenerator
	carousel     ports.CarouselService
	defaultCount int
	logger       *zap.Logger
}

// GenerationOption configures a GenerationService
type GenerationOption func(*GenerationService)

// WithCaptionGenerator enables caption generation
func WithCaptionGenerator(c ports.CaptionGenerator) GenerationOption {
	return func(s *GenerationService) { s.captions = c }
}

// WithCarousel binds the working carousel that generated images are added to
func WithCarousel(c ports.CarouselService) GenerationOption {
	return func(s *GenerationService) { s.carousel = c }
}

// NewGenerationService creates a generation service. content and images may
// be nil when no API key is configured.
func NewGenerationService(
	content ports.ContentGenerator,
	images ports.ImageGenerator,
	stock ports.StockImageProvider,
	defaultCount int,
	logger *zap.Logger,
	opts ...GenerationOption,
) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCount <= 0 {
		defaultCount = entities.GenerationConfig{}.GetSlideCount()
	}
	s := &GenerationService{
		content:      content,
		images:       images,
		stock:        stock,
		defaultCount: defaultCount,
		logger:       logger.Named("generation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds a new carousel for req
func (s *GenerationService) Generate(ctx context.Context, req ports.GenerateRequest) (entities.Carousel, error) {
	if req.SlideCount == 0 {
		req.SlideCount = s.defaultCount
	}
	req.Topic = norm.NFC.String(strings.TrimSpace(req.Topic))
	if err := req.Validate(); err != nil {
		return entities.Carousel{}, err
	}
	if s.content == nil {
		return entities.Carousel{}, ErrGenerationUnavailable
	}

	s.logger.Info("Generating carousel",
		zap.String("topic", req.Topic),
		zap.Int("slides", req.SlideCount))

	generated, err := s.content.GenerateSlides(ctx, req.Topic, req.SlideCount, req.Tone)
	if err != nil {
		return entities.Carousel{}, fmt.Errorf("generating slide content: %w", err)
	}
	if len(generated) == 0 {
		return entities.Carousel{}, errors.New("generating slide content: no slides returned")
	}
	if len(generated) > req.SlideCount {
		generated = generated[:req.SlideCount]
	}

	slides := make([]entities.Slide, len(generated))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageConcurrency)
	for i, gs := range generated {
		slides[i] = entities.NewGeneratedSlide(gs.Title, gs.Content, gs.ImagePrompt)
		g.Go(func() error {
			url := s.image(gctx, i, gs.ImagePrompt)
			if url != "" {
				slides[i] = slides[i].WithImage(url)
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return entities.Carousel{}, fmt.Errorf("generating slide images: %w", err)
	}

	return entities.NewCarousel(req.Topic, slides...), nil
}

// GenerateImage generates one more background candidate for a slide from
// its image prompt, falling back to a stock photo, and appends it through
// the carousel service so selection and history follow AddImage.
func (s *GenerationService) GenerateImage(ctx context.Context, slideID string) (entities.Carousel, error) {
	if s.carousel == nil {
		return entities.Carousel{}, ErrNoWorkingCarousel
	}

	snapshot := s.carousel.Snapshot()
	index, err := snapshot.IndexOf(slideID)
	if err != nil {
		return entities.Carousel{}, err
	}
	prompt := strings.TrimSpace(snapshot.Slides[index].ImagePrompt)
	if prompt == "" {
		return entities.Carousel{}, entities.NewValidationError("imagePrompt", "slide has no image prompt")
	}

	url := s.image(ctx, index, prompt)
	if err := ctx.Err(); err != nil {
		return entities.Carousel{}, err
	}
	if url == "" {
		return entities.Carousel{}, ErrGenerationUnavailable
	}
	return s.carousel.AddImage(slideID, url)
}

// GenerateCaptions returns caption options for a post description
func (s *GenerationService) GenerateCaptions(ctx context.Context, req ports.CaptionRequest) ([]string, error) {
	description := norm.NFC.String(strings.TrimSpace(req.Description))
	if description == "" {
		return nil, entities.NewValidationError("description", "description cannot be empty")
	}
	if s.captions == nil {
		return nil, ErrGenerationUnavailable
	}

	captions, err := s.captions.GenerateCaptions(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("generating captions: %w", err)
	}
	out := make([]string, 0, len(captions))
	for _, c := range captions {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("generating captions: no captions returned")
	}
	return out, nil
}

func (s *GenerationService) image(ctx context.Context, index int, prompt string) string {
	if s.images != nil && prompt != "" {
		url, err := s.images.GenerateImage(ctx, prompt)
		if err == nil {
			return url
		}
		s.logger.Warn("Image generation failed, using stock photo",
			zap.Int("slide", index+1),
			zap.Error(err))
	}
	if s.stock == nil {
		return ""
	}
	return s.stock.StockImage(prompt)
}

var _ ports.GenerationService = (*GenerationService)(nil)
