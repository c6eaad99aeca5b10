package ports

import (
	"context"
	"strings"
	"time"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/richtext"
)

// HistoryState reports undo/redo availability
type HistoryState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Size    int  `json:"size"`
}

// CarouselService owns the working carousel and its history
type CarouselService interface {
	SurfaceSource

	Replace(c entities.Carousel) (entities.Carousel, error)
	UpdateContent(slideID string, field entities.ContentField, html string) (entities.Carousel, error)
	AddImage(slideID, url string) (entities.Carousel, error)
	DeleteImage(slideID string, index int) (entities.Carousel, error)
	SelectImage(slideID string, index int) (entities.Carousel, error)
	SetImagePrompt(slideID, prompt string) (entities.Carousel, error)
	Reorder(from, to int) (entities.Carousel, error)
	AddSlide(at int, slide entities.Slide) (entities.Carousel, error)
	RemoveSlide(slideID string) (entities.Carousel, error)
	SetTemplate(name string) (entities.Carousel, error)
	SetLogo(logo string) (entities.Carousel, error)
	Undo() (entities.Carousel, error)
	Redo() (entities.Carousel, error)
	History() HistoryState
}

// GenerateRequest asks for a new carousel about a topic
type GenerateRequest struct {
	Topic      string `json:"topic"`
	SlideCount int    `json:"slideCount"`
	Tone       string `json:"tone,omitempty"`
}

// Validate rejects requests before any generation work starts
func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return entities.NewValidationError("topic", "topic cannot be empty")
	}
	if r.SlideCount < 1 || r.SlideCount > entities.MaxSlideCount {
		return entities.NewValidationError("slideCount", "slide count must be between 1 and 10")
	}
	return nil
}

// CaptionRequest asks for caption options for a post
type CaptionRequest struct {
	Description string `json:"description"`
}

// GenerationService builds carousels from a topic
type GenerationService interface {
	Generate(ctx context.Context, req GenerateRequest) (entities.Carousel, error)

	// GenerateImage appends a new candidate, generated from the slide's
	// image prompt, to the working carousel
	GenerateImage(ctx context.Context, slideID string) (entities.Carousel, error)

	GenerateCaptions(ctx context.Context, req CaptionRequest) ([]string, error)
}

// ExportRequest starts an export job
type ExportRequest struct {
	Mode       entities.ExportMode `json:"mode"`
	FrameDelay time.Duration       `json:"frameDelay,omitempty"`

	// Surfaces defaults to every slide in order
	Surfaces []string `json:"surfaces,omitempty"`
}

// ExportService runs export jobs
type ExportService interface {
	// Start validates the request and runs the job in the background
	Start(ctx context.Context, req ExportRequest) (*entities.ExportJob, error)

	// Run exports synchronously
	Run(ctx context.Context, req ExportRequest, sink ProgressSink) (*entities.Artifact, error)

	Get(id string) (*entities.ExportJob, error)

	// Artifact returns the result of a succeeded job
	Artifact(id string) (*entities.Artifact, error)

	Discard(id string) error
}

// Placement says on which side of the selection the toolbar sits
type Placement string

const (
	PlaceAbove Placement = "above"
	PlaceBelow Placement = "below"
)

// ToolbarState is the floating toolbar's visibility and anchor
type ToolbarState struct {
	Open      bool      `json:"open"`
	Anchor    Point     `json:"anchor"`
	Placement Placement `json:"placement,omitempty"`
}

// EditRequest applies one formatting command to a slide field
type EditRequest struct {
	SlideID   string                `json:"slideId"`
	Field     entities.ContentField `json:"field"`
	Selection richtext.Selection    `json:"selection"`
	Command   richtext.Command      `json:"command"`
	Value     string                `json:"value,omitempty"`
}

// EditResult is the field content and editor state after a command
type EditResult struct {
	HTML     string                    `json:"html"`
	Active   map[richtext.Command]bool `json:"active"`
	Toolbar  ToolbarState              `json:"toolbar"`
	Carousel entities.Carousel         `json:"carousel"`
}

// EditorService runs inline editing sessions against the working carousel
type EditorService interface {
	Apply(ctx context.Context, req EditRequest) (*EditResult, error)
}
