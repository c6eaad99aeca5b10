package ports

import "context"

// GeneratedSlide is the structured text a content generator returns per slide
type GeneratedSlide struct {
	Title       string   `json:"title"`
	Content     []string `json:"content"`
	ImagePrompt string   `json:"imagePrompt"`
}

// ContentGenerator produces slide text for a topic
type ContentGenerator interface {
	GenerateSlides(ctx context.Context, topic string, count int, tone string) ([]GeneratedSlide, error)
}

// ImageGenerator produces a background image for a prompt and returns a
// displayable reference (remote or data URL)
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// CaptionGenerator writes caption options for a post description
type CaptionGenerator interface {
	GenerateCaptions(ctx context.Context, description string) ([]string, error)
}

// StockImageProvider returns a deterministic stock photo reference
type StockImageProvider interface {
	StockImage(prompt string) string
}
