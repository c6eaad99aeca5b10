package entities

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// NoImageSelected is the selection sentinel used while a slide has no image candidates
const NoImageSelected = -1

// FieldKind discriminates the editable text fields of a slide
type FieldKind string

const (
	FieldTitle   FieldKind = "title"
	FieldContent FieldKind = "content"
)

// ContentField identifies one editable region of a slide: the title or a
// specific body line.
type ContentField struct {
	Kind  FieldKind `json:"kind"`
	Index int       `json:"index,omitempty"`
}

// TitleField returns the field discriminator for the slide title
func TitleField() ContentField {
	return ContentField{Kind: FieldTitle}
}

// ContentLine returns the field discriminator for body line i
func ContentLine(i int) ContentField {
	return ContentField{Kind: FieldContent, Index: i}
}

func (f ContentField) String() string {
	if f.Kind == FieldContent {
		return fmt.Sprintf("content[%d]", f.Index)
	}
	return string(f.Kind)
}

// Slide is one card of the carousel and the unit of export.
//
// Slide values are treated as immutable: every mutation method has a value
// receiver and returns a modified copy, so earlier values stay valid as
// history entries.
type Slide struct {
	// ID is assigned at creation and never reassigned
	ID string `json:"id"`

	// Title is a rich-text fragment
	Title string `json:"title"`

	// Content holds the body lines, each a rich-text fragment
	Content []string `json:"content"`

	// ImagePrompt describes the background image to request
	ImagePrompt string `json:"imagePrompt"`

	// Generated marks slides created by the generation service; their prompt is locked
	Generated bool `json:"generated,omitempty"`

	// ImageURLs are the candidate background references (remote, data: or stock URLs)
	ImageURLs []string `json:"imageUrls"`

	// SelectedImageIndex points into ImageURLs or is NoImageSelected
	SelectedImageIndex int `json:"selectedImageIndex"`
}

// NewSlide creates a manually added slide with a fresh id
func NewSlide(title string, content ...string) Slide {
	return Slide{
		ID:                 uuid.NewString(),
		Title:              title,
		Content:            slices.Clone(content),
		ImageURLs:          []string{},
		SelectedImageIndex: NoImageSelected,
	}
}

// NewGeneratedSlide creates a slide from generated text; its image prompt is locked
func NewGeneratedSlide(title string, content []string, imagePrompt string) Slide {
	s := NewSlide(title, content...)
	s.ImagePrompt = imagePrompt
	s.Generated = true
	return s
}

// Validate ensures the slide satisfies its invariants
func (s Slide) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("slide id cannot be empty")
	}

	if len(s.ImageURLs) == 0 {
		if s.SelectedImageIndex != NoImageSelected {
			return fmt.Errorf("selected image %d set without candidates", s.SelectedImageIndex)
		}
		return nil
	}

	if s.SelectedImageIndex < 0 || s.SelectedImageIndex >= len(s.ImageURLs) {
		return fmt.Errorf("selected image %d outside %d candidates", s.SelectedImageIndex, len(s.ImageURLs))
	}

	return nil
}

// Clone returns a deep copy of the slide
func (s Slide) Clone() Slide {
	s.Content = slices.Clone(s.Content)
	s.ImageURLs = slices.Clone(s.ImageURLs)
	return s
}

// SelectedImage returns the currently displayed candidate
func (s Slide) SelectedImage() (string, bool) {
	if s.SelectedImageIndex < 0 || s.SelectedImageIndex >= len(s.ImageURLs) {
		return "", false
	}
	return s.ImageURLs[s.SelectedImageIndex], true
}

// WithImage appends a candidate. A slide without a selection selects the new one.
func (s Slide) WithImage(url string) Slide {
	out := s.Clone()
	out.ImageURLs = append(out.ImageURLs, url)
	if out.SelectedImageIndex == NoImageSelected {
		out.SelectedImageIndex = len(out.ImageURLs) - 1
	}
	return out
}

// WithoutImage deletes candidate k. Deleting the selected candidate resets
// the selection to the first remaining one; deleting an earlier candidate
// shifts the selection down so it keeps pointing at the same image.
func (s Slide) WithoutImage(k int) (Slide, error) {
	if k < 0 || k >= len(s.ImageURLs) {
		return s, fmt.Errorf("deleting image %d of %d: %w", k, len(s.ImageURLs), ErrImageIndexOutOfRange)
	}

	out := s.Clone()
	out.ImageURLs = slices.Delete(out.ImageURLs, k, k+1)

	switch {
	case len(out.ImageURLs) == 0:
		out.SelectedImageIndex = NoImageSelected
	case k == s.SelectedImageIndex:
		out.SelectedImageIndex = 0
	case k < s.SelectedImageIndex:
		out.SelectedImageIndex = s.SelectedImageIndex - 1
	}

	return out, nil
}

// WithSelectedImage selects candidate k
func (s Slide) WithSelectedImage(k int) (Slide, error) {
	if k < 0 || k >= len(s.ImageURLs) {
		return s, fmt.Errorf("selecting image %d of %d: %w", k, len(s.ImageURLs), ErrImageIndexOutOfRange)
	}
	out := s.Clone()
	out.SelectedImageIndex = k
	return out, nil
}

// WithContent replaces the rich text of one field
func (s Slide) WithContent(field ContentField, html string) (Slide, error) {
	out := s.Clone()
	switch field.Kind {
	case FieldTitle:
		out.Title = html
	case FieldContent:
		if field.Index < 0 || field.Index >= len(out.Content) {
			return s, fmt.Errorf("%s: %w", field, ErrContentIndexOutOfRange)
		}
		out.Content[field.Index] = html
	default:
		return s, NewValidationError("field", fmt.Sprintf("unknown field kind %q", field.Kind))
	}
	return out, nil
}

// FieldContent returns the rich text currently stored in a field
func (s Slide) FieldContent(field ContentField) (string, error) {
	switch field.Kind {
	case FieldTitle:
		return s.Title, nil
	case FieldContent:
		if field.Index < 0 || field.Index >= len(s.Content) {
			return "", fmt.Errorf("%s: %w", field, ErrContentIndexOutOfRange)
		}
		return s.Content[field.Index], nil
	default:
		return "", NewValidationError("field", fmt.Sprintf("unknown field kind %q", field.Kind))
	}
}

// WithImagePrompt edits the prompt of a manually added slide
func (s Slide) WithImagePrompt(prompt string) (Slide, error) {
	if s.Generated {
		return s, ErrImagePromptLocked
	}
	out := s.Clone()
	out.ImagePrompt = prompt
	return out, nil
}
