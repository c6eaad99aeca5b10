package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// EditorService replays one editing interaction against the working
// carousel: focus, select, apply a command, blur.
type EditorService struct {
	carousel *CarouselService
	surfaces ports.SurfaceFactory
	clock    ports.TimeProvider
	opts     EditorOptions
	logger   *zap.Logger
}

// NewEditorService creates an editor service
func NewEditorService(carousel *CarouselService, surfaces ports.SurfaceFactory, clock ports.TimeProvider, opts EditorOptions, logger *zap.Logger) *EditorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		carousel: carousel,
		surfaces: surfaces,
		clock:    clock,
		opts:     opts,
		logger:   logger,
	}
}

// Apply runs req and stores the resulting content through the blur callback
func (s *EditorService) Apply(_ context.Context, req ports.EditRequest) (*ports.EditResult, error) {
	snapshot := s.carousel.Snapshot()
	index, err := snapshot.IndexOf(req.SlideID)
	if err != nil {
		return nil, err
	}
	slide := snapshot.Slides[index]
	if _, err := slide.FieldContent(req.Field); err != nil {
		return nil, err
	}

	surface, err := s.surfaces.Open(slide, index, req.Field)
	if err != nil {
		return nil, fmt.Errorf("opening %s of slide %d: %w", req.Field, index+1, err)
	}

	var changeErr error
	editor := NewInlineEditor(surface, req.Field, func(field entities.ContentField, html string) {
		_, changeErr = s.carousel.UpdateContent(req.SlideID, field, html)
	}, s.clock, s.logger, s.opts)
	defer editor.Close()

	editor.OnFocus()
	if err := editor.OnSelectionChange(req.Selection); err != nil {
		return nil, err
	}
	if err := editor.ApplyCommand(req.Command, req.Value); err != nil {
		return nil, err
	}

	result := &ports.EditResult{
		HTML:    editor.Content(),
		Active:  editor.ActiveStyles(),
		Toolbar: editor.Toolbar(),
	}

	editor.OnBlur()
	if changeErr != nil {
		return nil, fmt.Errorf("storing edited content: %w", changeErr)
	}

	result.Carousel = s.carousel.Snapshot()
	return result, nil
}

var _ ports.EditorService = (*EditorService)(nil)
