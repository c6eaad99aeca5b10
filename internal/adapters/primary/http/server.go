// Package http serves the carousel editor: the preview page, the JSON API
// and the websocket event stream.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// Dependencies are the services the server exposes
type Dependencies struct {
	Carousel ports.CarouselService
	Editor   ports.EditorService
	// Exports is nil for preview-only servers
	Exports  ports.ExportService
	Renderer ports.PreviewRenderer

	// Generation is nil when no generative backend is configured
	Generation ports.GenerationService

	// Importer is optional
	Importer ports.OutlineParser

	// Monitor is optional; without it /api/health only reports liveness
	Monitor ports.Monitor
}

// Server implements ports.HTTPServer
type Server struct {
	deps    Dependencies
	config  entities.ServerConfig
	hub     *Hub
	limiter *rateLimiter
	logger  *zap.Logger

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	running  bool
}

// NewServer creates a server. The hub is shared with the services that publish events.
func NewServer(deps Dependencies, hub *Hub, config entities.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Server{
		deps:    deps,
		config:  config,
		hub:     hub,
		limiter: newRateLimiter(apiRequestsPerMinute, time.Minute),
		logger:  logger.Named("http"),
	}
}

// Start binds the listener and serves in the background
func (s *Server) Start(ctx context.Context, port int, host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	addr := net.JoinHostPort(host, fmt.Sprint(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go s.hub.Run(runCtx)
	go s.limiter.cleanupRoutine(runCtx)

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.GetReadTimeout(),
		WriteTimeout: s.config.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}
	s.listener = listener
	s.cancel = cancel
	s.running = true

	go func() {
		s.logger.Info("HTTP server starting", zap.String("addr", listener.Addr().String()))
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address while running
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server and closes every websocket client
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("server not running")
	}

	s.hub.CloseAll()
	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.GetShutdownTimeout())
	defer cancel()

	s.running = false
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// NotifyClients sends an event to every connected websocket client
func (s *Server) NotifyClients(event ports.UpdateEvent) error {
	if !s.IsRunning() {
		return errors.New("server not running")
	}
	s.hub.Publish(event)
	return nil
}

// IsRunning returns whether the server is currently serving
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) metrics() ports.Metrics {
	if s.deps.Monitor == nil {
		return ports.NopMetrics{}
	}
	return s.deps.Monitor
}

// Handler builds the routed handler with its middleware chain
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handlePreview).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.limiter.middleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/carousel", s.handleGetCarousel).Methods(http.MethodGet)
	api.HandleFunc("/carousel/template", s.handleSetTemplate).Methods(http.MethodPut)
	api.HandleFunc("/carousel/logo", s.handleSetLogo).Methods(http.MethodPut)
	api.HandleFunc("/templates", s.handleTemplates).Methods(http.MethodGet)
	api.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/captions", s.handleCaptions).Methods(http.MethodPost)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)

	api.HandleFunc("/slides", s.handleAddSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/reorder", s.handleReorder).Methods(http.MethodPost)
	api.HandleFunc("/slides/{id}", s.handleRemoveSlide).Methods(http.MethodDelete)
	api.HandleFunc("/slides/{id}/content", s.handleUpdateContent).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}/prompt", s.handleSetPrompt).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}/images", s.handleAddImage).Methods(http.MethodPost)
	api.HandleFunc("/slides/{id}/images/generate", s.handleGenerateImage).Methods(http.MethodPost)
	api.HandleFunc("/slides/{id}/images/selected", s.handleSelectImage).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}/images/{index:[0-9]+}", s.handleDeleteImage).Methods(http.MethodDelete)

	api.HandleFunc("/history/undo", s.handleUndo).Methods(http.MethodPost)
	api.HandleFunc("/history/redo", s.handleRedo).Methods(http.MethodPost)

	api.HandleFunc("/editor/command", s.handleEditorCommand).Methods(http.MethodPost)

	if s.deps.Exports != nil {
		api.HandleFunc("/export", s.handleStartExport).Methods(http.MethodPost)
		api.HandleFunc("/export/{id}", s.handleGetExport).Methods(http.MethodGet)
		api.HandleFunc("/export/{id}/download", s.handleDownloadExport).Methods(http.MethodGet)
		api.HandleFunc("/export/{id}", s.handleDiscardExport).Methods(http.MethodDelete)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleError(w, r, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, errRouteNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	// Outermost first: recovery -> logging -> security headers -> CORS -> router
	var handler http.Handler = c.Handler(router)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler, s.logger, s.metrics())
	handler = recoveryMiddleware(handler, s.logger)

	return handler
}

var _ ports.HTTPServer = (*Server)(nil)
