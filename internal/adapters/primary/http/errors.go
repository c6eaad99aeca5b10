package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/services"
)

var (
	errRouteNotFound        = errors.New("route not found")
	errGenerationDisabled   = errors.New("generation is not configured")
	errImportDisabled       = errors.New("outline import is not configured")
	errUnsupportedImageType = errors.New("unsupported image reference")
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Time    time.Time `json:"time"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case entities.IsValidationError(err),
		errors.Is(err, entities.ErrContentIndexOutOfRange),
		errors.Is(err, entities.ErrImageIndexOutOfRange),
		errors.Is(err, entities.ErrTemplateNotFound),
		errors.Is(err, errUnsupportedImageType):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrSlideNotFound),
		errors.Is(err, entities.ErrJobNotFound),
		errors.Is(err, errRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrImagePromptLocked),
		errors.Is(err, entities.ErrNothingToUndo),
		errors.Is(err, entities.ErrNothingToRedo),
		errors.Is(err, entities.ErrJobNotFinished):
		return http.StatusConflict
	case errors.Is(err, errGenerationDisabled),
		errors.Is(err, errImportDisabled),
		errors.Is(err, services.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the part of err that is safe to show the client.
// Server-side failures are reduced to a generic message.
func publicMessage(err error, status int) (message, field string) {
	var ve *entities.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, ve.Field
	}

	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		return "Internal server error", ""
	case errors.Is(err, entities.ErrSlideNotFound):
		return entities.ErrSlideNotFound.Error(), ""
	case errors.Is(err, entities.ErrJobNotFound):
		return entities.ErrJobNotFound.Error(), ""
	}

	for _, known := range []error{
		entities.ErrContentIndexOutOfRange,
		entities.ErrImageIndexOutOfRange,
		entities.ErrTemplateNotFound,
		entities.ErrImagePromptLocked,
		entities.ErrNothingToUndo,
		entities.ErrNothingToRedo,
		entities.ErrJobNotFinished,
		errGenerationDisabled,
		services.ErrGenerationUnavailable,
		errImportDisabled,
		errUnsupportedImageType,
		errRouteNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error(), ""
		}
	}
	return http.StatusText(status), ""
}

// handleError logs err and writes its sanitised JSON form
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message, field := publicMessage(err, status)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		s.logger.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	s.writeErrorBody(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Field:   field,
		Time:    time.Now(),
	})
}

// writeError writes a JSON error without a domain cause
func (s *Server) writeError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	s.writeErrorBody(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	})
}

func (s *Server) writeErrorBody(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
