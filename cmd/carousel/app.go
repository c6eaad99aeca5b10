package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httpadapter "github.com/fredcamaral/carousel/internal/adapters/primary/http"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/capture"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/config"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/draftstore"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/gemini"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/logging"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/media"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/renderer"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/surface"
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/services"
)

const (
	imageCacheSize = 64
	imageCacheTTL  = 10 * time.Minute
)

var errGenerationUnconfigured = errors.New("generation is not configured: set GEMINI_API_KEY or generation.api_key")

// app is the resolved configuration and logger shared by every command
type app struct {
	cfg    *entities.Config
	log    *logging.Logger
	logger *zap.Logger
	clock  ports.TimeProvider
}

// collectFlags returns the flags set on the command line keyed by name
func collectFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})
	fs.Visit(func(f *pflag.Flag) {
		var (
			value interface{}
			err   error
		)
		switch f.Value.Type() {
		case "int":
			value, err = fs.GetInt(f.Name)
		case "bool":
			value, err = fs.GetBool(f.Name)
		case "duration":
			value, err = fs.GetDuration(f.Name)
		default:
			value = f.Value.String()
		}
		if err == nil {
			flags[f.Name] = value
		}
	})
	return flags
}

func newApp(cmd *cobra.Command, flags map[string]interface{}) (*app, error) {
	loader := config.NewTOMLLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader = config.NewTOMLLoaderAt(path)
	}
	configService := services.NewConfigService(loader, config.NewConfigMerger())

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := configService.LoadConfig(cmd.Context(), wd, flags)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	configService.SetLogger(log.Logger)

	return &app{
		cfg:    cfg,
		log:    log,
		logger: log.Logger,
		clock:  ports.NewRealTimeProvider(),
	}, nil
}

func (a *app) close() {
	_ = a.log.Close()
}

func (a *app) openDraftStore(ctx context.Context) (*draftstore.SQLiteStore, error) {
	store, err := draftstore.Open(ctx, a.cfg.Draft.GetDatabasePath(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("opening draft store: %w", err)
	}
	return store, nil
}

// saveDraft replaces the stored draft with c
func (a *app) saveDraft(ctx context.Context, c entities.Carousel) error {
	store, err := a.openDraftStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(ctx, entities.DraftOf(c, a.clock.Now())); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// newGenerationService returns nil when no API key is configured
func (a *app) newGenerationService(ctx context.Context, opts ...services.GenerationOption) (*services.GenerationService, error) {
	if !a.cfg.Generation.Enabled() {
		return nil, nil
	}

	generator, err := gemini.NewGenerator(ctx, a.cfg.Generation, a.logger)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	return services.NewGenerationService(
		generator,
		generator,
		gemini.NewStockProvider(a.cfg.Generation.StockBaseURL),
		a.cfg.Generation.GetSlideCount(),
		a.logger,
		append([]services.GenerationOption{services.WithCaptionGenerator(generator)}, opts...)...,
	), nil
}

// newCapturer picks the capture backend from config. The returned func
// releases it.
func (a *app) newCapturer(source ports.SurfaceSource, pageURL string) (ports.Capturer, func()) {
	if a.cfg.Capture.GetMode() == entities.CaptureBrowser {
		b := capture.NewBrowserCapturer(pageURL, a.cfg.Capture, a.logger)
		return b, func() {
			if err := b.Close(); err != nil {
				a.logger.Warn("Closing headless browser failed", zap.Error(err))
			}
		}
	}

	images := media.NewLoader(nil, nil, media.NewImageCache(imageCacheSize, imageCacheTTL), a.logger)
	return capture.NewRasterizer(source, images, a.cfg.Capture, a.logger), func() {}
}

// stack is the in-memory editing state behind the server
type stack struct {
	hub      *httpadapter.Hub
	carousel *services.CarouselService
	editor   *services.EditorService
	renderer *renderer.TemplateRenderer
}

func (a *app) newStack(initial entities.Carousel, opts ...services.CarouselOption) (*stack, error) {
	hub := httpadapter.NewHub(a.logger)

	opts = append([]services.CarouselOption{
		services.WithPublisher(hub),
		services.WithClock(a.clock),
	}, opts...)
	carousel := services.NewCarouselService(initial, a.cfg.Draft.GetHistorySize(), a.logger, opts...)

	surfaces := surface.NewFactory(carousel, a.cfg.Capture, surface.Viewport{
		Origin: ports.Point{X: renderer.PreviewLeft, Y: renderer.PreviewTop},
		Gap:    renderer.PreviewGap,
	}, a.logger)
	editor := services.NewEditorService(carousel, surfaces, a.clock, services.EditorOptionsFromConfig(a.cfg.Editor), a.logger)

	preview, err := renderer.NewTemplateRenderer(a.cfg.Capture)
	if err != nil {
		return nil, fmt.Errorf("loading preview template: %w", err)
	}

	return &stack{hub: hub, carousel: carousel, editor: editor, renderer: preview}, nil
}

// browserURL turns a listener address into something a browser can open
func browserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
