package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/adapters/secondary/media"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/renderer"
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

const (
	// maxJSONBody covers inline data URL images
	maxJSONBody = 25 << 20

	maxUploadSize = 20 << 20
)

// CarouselResponse is the working carousel plus its undo/redo state
type CarouselResponse struct {
	Carousel entities.Carousel  `json:"carousel"`
	History  ports.HistoryState `json:"history"`
}

// CaptionsResponse lists caption options
type CaptionsResponse struct {
	Captions []string `json:"captions"`
}

type contentRequest struct {
	Field entities.FieldKind `json:"field"`
	Index int                `json:"index"`
	HTML  string             `json:"html"`
}

type addSlideRequest struct {
	At          *int     `json:"at,omitempty"`
	Title       string   `json:"title"`
	Content     []string `json:"content"`
	ImagePrompt string   `json:"imagePrompt,omitempty"`
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type imageRequest struct {
	URL string `json:"url"`
}

type selectImageRequest struct {
	Index int `json:"index"`
}

type exportRequest struct {
	Mode     entities.ExportMode `json:"mode"`
	DelayMs  int                 `json:"delayMs,omitempty"`
	Surfaces []string            `json:"surfaces,omitempty"`
}

// handlePreview serves the editor page
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Renderer.RenderPreview(r.Context(), s.deps.Carousel.Snapshot())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(page)
}

func (s *Server) handleGetCarousel(w http.ResponseWriter, r *http.Request) {
	s.writeCarousel(w, s.deps.Carousel.Snapshot())
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, entities.BuiltinTemplates())
}

func (s *Server) handleSetTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template string `json:"template"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.mutation(w, r)(s.deps.Carousel.SetTemplate(req.Template))
}

func (s *Server) handleSetLogo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Logo string `json:"logo"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Logo != "" {
		if err := checkImageRef(req.Logo); err != nil {
			s.handleError(w, r, err)
			return
		}
	}
	s.mutation(w, r)(s.deps.Carousel.SetLogo(req.Logo))
}

// handleGenerate replaces the working carousel with a generated one
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generation == nil {
		s.handleError(w, r, errGenerationDisabled)
		return
	}

	var req ports.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}

	carousel, err := s.deps.Generation.Generate(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.mutation(w, r)(s.deps.Carousel.Replace(carousel))
}

// handleCaptions returns caption options. An empty description falls back
// to the working carousel's topic.
func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generation == nil {
		s.handleError(w, r, errGenerationDisabled)
		return
	}

	var req ports.CaptionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		req.Description = s.deps.Carousel.Snapshot().Topic
	}

	captions, err := s.deps.Generation.GenerateCaptions(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CaptionsResponse{Captions: captions})
}

// handleImport replaces the working carousel with a markdown outline
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Importer == nil {
		s.handleError(w, r, errImportDisabled)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.handleError(w, r, entities.NewValidationError("body", "outline too large"))
		return
	}

	carousel, err := s.deps.Importer.Parse(r.Context(), body)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.mutation(w, r)(s.deps.Carousel.Replace(*carousel))
}

func (s *Server) handleAddSlide(w http.ResponseWriter, r *http.Request) {
	var req addSlideRequest
	if !s.decode(w, r, &req) {
		return
	}

	content := make([]string, len(req.Content))
	for i, line := range req.Content {
		content[i] = renderer.Sanitize(line)
	}
	slide := entities.NewSlide(renderer.Sanitize(req.Title), content...)
	slide.ImagePrompt = strings.TrimSpace(req.ImagePrompt)

	at := s.deps.Carousel.Snapshot().SlideCount()
	if req.At != nil {
		at = *req.At
	}
	s.mutation(w, r)(s.deps.Carousel.AddSlide(at, slide))
}

func (s *Server) handleRemoveSlide(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r)(s.deps.Carousel.RemoveSlide(mux.Vars(r)["id"]))
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mutation(w, r)(s.deps.Carousel.Reorder(req.From, req.To))
}

// handleUpdateContent stores the rich text of one field after sanitising it
func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !s.decode(w, r, &req) {
		return
	}

	field := entities.ContentField{Kind: req.Field, Index: req.Index}
	if req.Field == entities.FieldTitle {
		field.Index = 0
	}

	s.mutation(w, r)(s.deps.Carousel.UpdateContent(mux.Vars(r)["id"], field, renderer.Sanitize(req.HTML)))
}

func (s *Server) handleSetPrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.mutation(w, r)(s.deps.Carousel.SetImagePrompt(mux.Vars(r)["id"], strings.TrimSpace(req.Prompt)))
}

// handleAddImage accepts either a JSON reference or a multipart upload in
// the "image" field. Uploads are stored inline as data URLs.
func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	var ref string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		data, err := readUpload(w, r)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		ref, err = media.EncodeDataURL(data)
		if err != nil {
			s.handleError(w, r, entities.NewValidationError("image", err.Error()))
			return
		}
	} else {
		var req imageRequest
		if !s.decode(w, r, &req) {
			return
		}
		ref = strings.TrimSpace(req.URL)
		if err := checkImageRef(ref); err != nil {
			s.handleError(w, r, err)
			return
		}
	}

	s.mutation(w, r)(s.deps.Carousel.AddImage(mux.Vars(r)["id"], ref))
}

// handleGenerateImage adds a generated background candidate to a slide
func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generation == nil {
		s.handleError(w, r, errGenerationDisabled)
		return
	}
	s.mutation(w, r)(s.deps.Generation.GenerateImage(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) handleSelectImage(w http.ResponseWriter, r *http.Request) {
	var req selectImageRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mutation(w, r)(s.deps.Carousel.SelectImage(mux.Vars(r)["id"], req.Index))
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		s.handleError(w, r, entities.NewValidationError("index", "image index must be a number"))
		return
	}
	s.mutation(w, r)(s.deps.Carousel.DeleteImage(vars["id"], index))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r)(s.deps.Carousel.Undo())
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r)(s.deps.Carousel.Redo())
}

// handleEditorCommand runs one inline editing interaction
func (s *Server) handleEditorCommand(w http.ResponseWriter, r *http.Request) {
	var req ports.EditRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Editor.Apply(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleStartExport validates the request and starts a background job
func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !s.decode(w, r, &req) {
		return
	}

	job, err := s.deps.Exports.Start(r.Context(), ports.ExportRequest{
		Mode:       req.Mode,
		FrameDelay: time.Duration(req.DelayMs) * time.Millisecond,
		Surfaces:   req.Surfaces,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/export/"+job.ID)
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Exports.Get(mux.Vars(r)["id"])
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// handleDownloadExport streams the artifact and forgets the job
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := s.deps.Exports.Get(id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if job.Status == entities.JobFailed {
		s.writeError(w, r, http.StatusConflict, job.Failure)
		return
	}

	artifact, err := s.deps.Exports.Artifact(id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(artifact.Size()))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(artifact.Data); err != nil {
		s.logger.Warn("Artifact download interrupted", zap.String("job", id), zap.Error(err))
		return
	}

	if err := s.deps.Exports.Discard(id); err != nil && !errors.Is(err, entities.ErrJobNotFound) {
		s.logger.Warn("Discarding collected job failed", zap.String("job", id), zap.Error(err))
	}
}

func (s *Server) handleDiscardExport(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Exports.Discard(mux.Vars(r)["id"]); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutation adapts a carousel service result into a response writer
func (s *Server) mutation(w http.ResponseWriter, r *http.Request) func(entities.Carousel, error) {
	return func(c entities.Carousel, err error) {
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		s.writeCarousel(w, c)
	}
}

func (s *Server) writeCarousel(w http.ResponseWriter, c entities.Carousel) {
	s.writeJSON(w, http.StatusOK, CarouselResponse{
		Carousel: c,
		History:  s.deps.Carousel.History(),
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
		s.writeError(w, nil, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decode reads a JSON body into v, writing a 400 response on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		s.handleError(w, r, entities.NewValidationError("body", "invalid JSON request body"))
		return false
	}
	return true
}

// readUpload reads the "image" multipart field
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, entities.NewValidationError("image", "invalid or oversized upload")
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, entities.NewValidationError("image", "missing image file")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return data, nil
}

// checkImageRef admits remote and inline image references
func checkImageRef(ref string) error {
	switch {
	case ref == "":
		return entities.NewValidationError("url", "image reference cannot be empty")
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return nil
	case media.IsDataURL(ref):
		mime, _, err := media.DecodeDataURL(ref)
		if err != nil || !strings.HasPrefix(mime, "image/") {
			return fmt.Errorf("%w: malformed data URL", errUnsupportedImageType)
		}
		return nil
	default:
		return errUnsupportedImageType
	}
}

// handleHealth reports liveness and, with a monitor, the process counters
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Monitor == nil {
		s.writeJSON(w, http.StatusOK, ports.HealthStatus{Healthy: true})
		return
	}
	health := s.deps.Monitor.Health()
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}
