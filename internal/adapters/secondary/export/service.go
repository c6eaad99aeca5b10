package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// Service runs export jobs. Jobs live in memory until collected, discarded
// or expired.
type Service struct {
	pipeline  *Pipeline
	source    ports.SurfaceSource
	publisher ports.ProgressPublisher
	clock     ports.TimeProvider
	metrics   ports.Metrics
	cfg       entities.ExportConfig
	logger    *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*entities.ExportJob

	// jobs run on this context, never on the request's
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sends job progress to connected clients
func WithPublisher(p ports.ProgressPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source
func WithClock(c ports.TimeProvider) Option {
	return func(s *Service) { s.clock = c }
}

// WithMetrics records capture and export timings
func WithMetrics(m ports.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
			s.pipeline.metrics = m
		}
	}
}

// NewService creates an export service capturing surfaces of source's carousel
func NewService(capturer ports.Capturer, source ports.SurfaceSource, cfg entities.ExportConfig, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("export")

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		pipeline: NewPipeline(capturer, logger),
		source:   source,
		clock:    ports.NewRealTimeProvider(),
		metrics:  ports.NopMetrics{},
		cfg:      cfg,
		logger:   logger,
		jobs:     make(map[string]*entities.ExportJob),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates req and runs the export in the background. Validation
// errors are returned before any job exists.
func (s *Service) Start(_ context.Context, req ports.ExportRequest) (*entities.ExportJob, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	job := &entities.ExportJob{
		ID:         uuid.NewString(),
		Mode:       req.Mode,
		Surfaces:   slices.Clone(req.Surfaces),
		FrameDelay: req.FrameDelay,
		Status:     entities.JobPending,
		CreatedAt:  s.clock.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.logger.Info("Export job started",
		zap.String("job", job.ID),
		zap.String("mode", string(job.Mode)),
		zap.Int("slides", len(job.Surfaces)))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job.ID, req)
	}()

	return s.copyJob(job), nil
}

// Run exports synchronously and returns the artifact only when every slide
// was captured and encoded
func (s *Service) Run(ctx context.Context, req ports.ExportRequest, sink ports.ProgressSink) (*entities.Artifact, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req, sink)
}

// Get returns a snapshot of a job
func (s *Service) Get(id string) (*entities.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return s.copyJob(job), nil
}

// Artifact returns the result of a succeeded job
func (s *Service) Artifact(id string) (*entities.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	switch job.Status {
	case entities.JobSucceeded:
		return job.Artifact, nil
	case entities.JobFailed:
		return nil, errors.New(job.Failure)
	default:
		return nil, ErrJobNotFinished
	}
}

// Discard forgets a job and its artifact
func (s *Service) Discard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	delete(s.jobs, id)
	return nil
}

// Wait blocks until every started job finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close cancels running jobs and waits for them
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) prepare(req ports.ExportRequest) (ports.ExportRequest, error) {
	if err := req.Mode.Validate(); err != nil {
		return req, err
	}

	if len(req.Surfaces) == 0 {
		req.Surfaces = ports.SurfaceIDs(s.source.Snapshot().SlideCount())
	}
	if len(req.Surfaces) == 0 {
		return req, entities.NewValidationError("surfaces", ErrNothingToExport.Error())
	}
	for _, id := range req.Surfaces {
		if _, err := ports.ParseSurfaceID(id); err != nil {
			return req, entities.NewValidationError("surfaces", err.Error())
		}
	}

	if req.FrameDelay == 0 {
		req.FrameDelay = s.cfg.GetFrameDelay()
	}
	req.FrameDelay = entities.NormalizeFrameDelay(req.FrameDelay)
	return req, nil
}

func (s *Service) execute(ctx context.Context, req ports.ExportRequest, sink ports.ProgressSink) (artifact *entities.Artifact, err error) {
	start := s.clock.Now()
	defer func() { s.metrics.RecordExport(req.Mode, s.clock.Since(start), err) }()

	opts, err := s.captureOptions(req.Mode)
	if err != nil {
		return nil, err
	}

	frames, err := s.pipeline.CaptureAll(ctx, req.Surfaces, opts, sink)
	if err != nil {
		return nil, err
	}

	data, err := s.assemble(req, frames)
	if err != nil {
		return nil, err
	}

	return &entities.Artifact{
		Filename: req.Mode.Filename(),
		MimeType: req.Mode.MimeType(),
		Data:     data,
	}, nil
}

func (s *Service) captureOptions(mode entities.ExportMode) (ports.CaptureOptions, error) {
	switch mode {
	case entities.ExportGIF:
		bg, err := entities.ParseHexColor(s.cfg.GetGIFBackground())
		if err != nil {
			return ports.CaptureOptions{}, &ExportError{Type: ErrorTypeValidation, Message: "gif background", Cause: err}
		}
		return ports.CaptureOptions{Scale: s.cfg.GetGIFScale(), Background: &bg}, nil
	default:
		return ports.CaptureOptions{Scale: s.cfg.GetArchiveScale()}, nil
	}
}

func (s *Service) assemble(req ports.ExportRequest, frames []image.Image) ([]byte, error) {
	switch req.Mode {
	case entities.ExportGIF:
		bg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
		if parsed, err := entities.ParseHexColor(s.cfg.GetGIFBackground()); err == nil {
			bg = parsed
		}
		return EncodeAnimation(frames, req.FrameDelay, bg)
	case entities.ExportPDF:
		return EncodeDocument(frames, s.cfg.GetJPEGQuality(), s.source.Snapshot().Topic, s.clock.Now())
	default:
		return EncodeArchive(frames, s.cfg.GetJPEGQuality(), s.clock.Now())
	}
}

func (s *Service) runJob(id string, req ports.ExportRequest) {
	s.update(id, func(j *entities.ExportJob) { j.Status = entities.JobRunning })

	sink := ports.ProgressFunc(func(done, total int) {
		progress := float64(done) / float64(total)
		s.update(id, func(j *entities.ExportJob) { j.Progress = progress })
		s.publish(ports.EventTypeExportProgress, ports.ExportProgressData{
			JobID:    id,
			Progress: progress,
			Done:     done,
			Total:    total,
		})
	})

	artifact, err := s.execute(s.baseCtx, req, sink)
	finished := s.clock.Now()

	if err != nil {
		s.logger.Error("Export job failed", zap.String("job", id), zap.Error(err))
		s.update(id, func(j *entities.ExportJob) {
			j.Status = entities.JobFailed
			j.Failure = err.Error()
			j.FinishedAt = finished
		})
		s.publish(ports.EventTypeExportFailed, ports.ExportProgressData{
			JobID: id,
			Total: len(req.Surfaces),
			Error: err.Error(),
		})
	} else {
		s.logger.Info("Export job finished",
			zap.String("job", id),
			zap.Int("bytes", artifact.Size()))
		s.update(id, func(j *entities.ExportJob) {
			j.Status = entities.JobSucceeded
			j.Progress = 1
			j.Artifact = artifact
			j.FinishedAt = finished
		})
		s.publish(ports.EventTypeExportDone, ports.ExportProgressData{
			JobID:    id,
			Progress: 1,
			Done:     len(req.Surfaces),
			Total:    len(req.Surfaces),
		})
	}

	s.clock.AfterFunc(s.cfg.GetJobRetention(), func() {
		if err := s.Discard(id); err == nil {
			s.logger.Debug("Expired export job discarded", zap.String("job", id))
		}
	})
}

func (s *Service) update(id string, fn func(*entities.ExportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *Service) publish(eventType string, data ports.ExportProgressData) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ports.UpdateEvent{
		Type:      eventType,
		Timestamp: s.clock.Now(),
		Data:      data,
	})
}

func (s *Service) copyJob(job *entities.ExportJob) *entities.ExportJob {
	out := *job
	out.Surfaces = slices.Clone(job.Surfaces)
	return &out
}

var _ ports.ExportService = (*Service)(nil)
