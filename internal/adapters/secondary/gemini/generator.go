// Package gemini generates carousel text and background images with the
// Gemini API and falls back to stock photos.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fredcamaral/carousel/internal/adapters/secondary/media"
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ErrMissingAPIKey is returned when no API key is configured
var ErrMissingAPIKey = errors.New("API key is missing; set generation.api_key or GEMINI_API_KEY")

const systemInstruction = "You are an expert social media strategist who communicates exclusively in valid JSON format. " +
	"Your sole purpose is to generate Instagram carousel scripts based on user topics. " +
	"You always return a single JSON object with a 'slides' array, and no other text or explanation."

// models is the subset of the Gemini client the generator calls
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Generator implements ports.ContentGenerator and ports.ImageGenerator
type Generator struct {
	models     models
	textModel  string
	imageModel string
	cfg        entities.GenerationConfig
	logger     *zap.Logger
}

// NewGenerator creates a Gemini-backed generator
func NewGenerator(ctx context.Context, cfg entities.GenerationConfig, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return newGenerator(client.Models, cfg, logger), nil
}

func newGenerator(m models, cfg entities.GenerationConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		models:     m,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		cfg:        cfg,
		logger:     logger.Named("gemini"),
	}
}

type slidesEnvelope struct {
	Slides []ports.GeneratedSlide `json:"slides"`
}

var slideSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"slides": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":       {Type: genai.TypeString},
					"content":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"imagePrompt": {Type: genai.TypeString},
				},
				Required: []string{"title", "content", "imagePrompt"},
			},
		},
	},
	Required: []string{"slides"},
}

// GenerateSlides asks the text model for a carousel script
func (g *Generator) GenerateSlides(ctx context.Context, topic string, count int, tone string) ([]ports.GeneratedSlide, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.GetTimeout())
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.textModel, genai.Text(slidesPrompt(topic, count, tone)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    slideSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generating carousel: %w", err)
	}

	slides, err := parseSlides(resp.Text())
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Generated carousel script",
		zap.String("topic", topic),
		zap.Int("slides", len(slides)))
	return slides, nil
}

func slidesPrompt(topic string, count int, tone string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a %d slide Instagram carousel script based on the topic: %q.\n", count, topic)
	sb.WriteString("The first slide should be a strong hook, the last a call to action.\n")
	if tone != "" {
		fmt.Fprintf(&sb, "Write in a %s tone.\n", tone)
	}
	sb.WriteString(`Each slide object must have these exact keys: "title", "content", "imagePrompt".
- "title": A short, catchy title (max 10 words).
- "content": An array of 2-4 strings, each a key point (max 25 words per string).
- "imagePrompt": A descriptive prompt for an AI to generate a minimalist, visually appealing background image.`)
	return sb.String()
}

// jsonObject returns the outermost JSON object of a model reply, tolerating
// text around it
func jsonObject(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("invalid structure received from API: empty response")
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, errors.New("invalid structure received from API: no JSON object")
	}
	return []byte(text[start : end+1]), nil
}

// parseSlides extracts the slides object from a model reply
func parseSlides(text string) ([]ports.GeneratedSlide, error) {
	raw, err := jsonObject(text)
	if err != nil {
		return nil, err
	}

	var envelope slidesEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid structure received from API: %w", err)
	}
	if envelope.Slides == nil {
		return nil, errors.New("invalid structure received from API: missing slides array")
	}
	return envelope.Slides, nil
}

const captionInstruction = "You are a world-class Instagram copywriter who communicates exclusively in valid JSON format. " +
	"Your sole purpose is to generate compelling captions for posts based on the description provided."

// captionCount is how many caption options one request asks for
const captionCount = 3

var captionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"captions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"captions"},
}

type captionsEnvelope struct {
	Captions []string `json:"captions"`
}

// GenerateCaptions asks the text model for caption options
func (g *Generator) GenerateCaptions(ctx context.Context, description string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.GetTimeout())
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.textModel, genai.Text(captionsPrompt(description)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(captionInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    captionSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generating captions: %w", err)
	}

	captions, err := parseCaptions(resp.Text())
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Generated captions", zap.Int("captions", len(captions)))
	return captions, nil
}

func captionsPrompt(description string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following Instagram post description, generate %d distinct and engaging caption options.\n", captionCount)
	fmt.Fprintf(&sb, "Post description: %q\n", description)
	sb.WriteString(`Each caption must:
1. Start with a strong, scroll-stopping hook.
2. Elaborate on the description to create a compelling narrative.
3. End with a clear call to action.
4. Include 3-5 relevant, niche hashtags.
5. Use emojis where they help readability.
Return a JSON object with a single key "captions", an array of complete caption strings.`)
	return sb.String()
}

// parseCaptions extracts the captions array from a model reply
func parseCaptions(text string) ([]string, error) {
	raw, err := jsonObject(text)
	if err != nil {
		return nil, err
	}

	var envelope captionsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid structure received from API: %w", err)
	}
	if len(envelope.Captions) == 0 {
		return nil, errors.New("invalid structure received from API: missing captions array")
	}
	return envelope.Captions, nil
}

// GenerateImage renders a background image for prompt and returns it as a
// data URL. Imagen models go through the image endpoint, Gemini image
// models through content generation with an image response.
func (g *Generator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.GetTimeout())
	defer cancel()

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(g.imageModel, "imagen") {
		data, err = g.imagen(ctx, prompt)
	} else {
		data, err = g.inlineImage(ctx, prompt)
	}
	if err != nil {
		return "", classify(err)
	}
	return media.EncodeDataURL(data)
}

func (g *Generator) imagen(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.models.GenerateImages(ctx, g.imageModel, imagePrompt(prompt), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "1:1",
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		return nil, err
	}
	for _, img := range resp.GeneratedImages {
		if img != nil && img.Image != nil && len(img.Image.ImageBytes) > 0 {
			return img.Image.ImageBytes, nil
		}
	}
	return nil, errors.New("no image was generated")
}

func (g *Generator) inlineImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.models.GenerateContent(ctx, g.imageModel, genai.Text(imagePrompt(prompt)), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, errors.New("no image was generated")
}

func imagePrompt(prompt string) string {
	return "Create a visually stunning, high-quality background image for an Instagram carousel slide. " +
		"The image must be minimalist, modern and suitable for text overlay. " +
		"Visually represent the core concept of: " + strconv.Quote(prompt) + ". " +
		"Do not include any text, letters or numbers in the image."
}

func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(msg, "429"):
		return fmt.Errorf("API rate limit exceeded, wait a moment before generating more images: %w", err)
	case strings.Contains(msg, "billing"):
		return fmt.Errorf("image generation may require a billing-enabled project: %w", err)
	default:
		return fmt.Errorf("generating image: %w", err)
	}
}

var (
	_ ports.ContentGenerator = (*Generator)(nil)
	_ ports.ImageGenerator   = (*Generator)(nil)
	_ ports.CaptionGenerator = (*Generator)(nil)
)
