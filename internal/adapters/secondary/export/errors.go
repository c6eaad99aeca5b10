package export

import (
	"errors"
	"fmt"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// ExportErrorType categorizes export failures
type ExportErrorType string

const (
	ErrorTypeValidation ExportErrorType = "validation"
	ErrorTypeCapture    ExportErrorType = "capture"
	ErrorTypeEncode     ExportErrorType = "encode"
	ErrorTypeCancelled  ExportErrorType = "cancelled"
)

var (
	ErrJobNotFound    = entities.ErrJobNotFound
	ErrJobNotFinished = entities.ErrJobNotFinished

	// ErrNothingToExport is returned when the carousel has no slides
	ErrNothingToExport = errors.New("nothing to export")
)

// ExportError describes why an export produced no artifact
type ExportError struct {
	Type    ExportErrorType `json:"type"`
	Message string          `json:"message"`

	// Slide is the 1-based slide whose capture failed, 0 when not slide specific
	Slide int `json:"slide,omitempty"`
	Total int `json:"total,omitempty"`

	Cause error `json:"-"`
}

func (e *ExportError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Slide > 0 {
		msg = fmt.Sprintf("%s error: slide %d of %d: %s", e.Type, e.Slide, e.Total, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// FailedSlide returns the 1-based slide index recorded in err, if any
func FailedSlide(err error) (int, bool) {
	var ee *ExportError
	if errors.As(err, &ee) && ee.Slide > 0 {
		return ee.Slide, true
	}
	return 0, false
}
