package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrSlideNotFound is returned when a slide id does not exist in the carousel
	ErrSlideNotFound = errors.New("slide not found")

	// ErrImageIndexOutOfRange is returned for image candidate indices outside the list
	ErrImageIndexOutOfRange = errors.New("image index out of range")

	// ErrContentIndexOutOfRange is returned when a body line index does not exist
	ErrContentIndexOutOfRange = errors.New("content index out of range")

	// ErrImagePromptLocked is returned when editing the prompt of a generated slide
	ErrImagePromptLocked = errors.New("image prompt is locked for generated slides")

	// ErrNothingToUndo is returned when history has no earlier snapshot
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned when history has no later snapshot
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrJobNotFound is returned for unknown or discarded export job ids
	ErrJobNotFound = errors.New("export job not found")

	// ErrJobNotFinished is returned when collecting the artifact of a running job
	ErrJobNotFinished = errors.New("export job has not finished")

	// ErrTemplateNotFound is returned for unknown template names
	ErrTemplateNotFound = errors.New("template not found")
)

// ValidationError reports bad user input. It is raised before any async work
// starts and never mutates state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
