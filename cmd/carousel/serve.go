package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpadapter "github.com/fredcamaral/carousel/internal/adapters/primary/http"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/browser"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/export"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/parser"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/watcher"
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
	"github.com/fredcamaral/carousel/internal/domain/services"
)

const (
	watchInterval = 500 * time.Millisecond
	watchDebounce = 300 * time.Millisecond
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the carousel editor",
	Long: `Start a local HTTP server with the carousel editor.
The last draft is restored on start and every change is autosaved.

Example:
  carousel serve
  carousel serve --port 8080 --no-browser
  carousel serve --capture browser
  carousel serve --watch outline.md`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// defaults come from config; flags only override what is set
	serveCmd.Flags().IntP("port", "p", 0, "Port to serve on (overrides config)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().Bool("no-browser", false, "Don't open the browser automatically (overrides config)")
	serveCmd.Flags().String("capture", "", "Export capture backend: rasterizer or browser (overrides config)")
	serveCmd.Flags().String("draft-db", "", "Draft database path (overrides config)")
	serveCmd.Flags().StringP("watch", "w", "", "Markdown outline to import now and again on every change")
}

// validateServeConfig validates configuration after it's loaded
func validateServeConfig(cfg *entities.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", cfg.Server.Port)
	}
	if strings.ContainsAny(cfg.Server.Host, " !") {
		return fmt.Errorf("invalid host: %q", cfg.Server.Host)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, collectFlags(cmd.Flags()))
	if err != nil {
		return err
	}
	defer a.close()

	if err := validateServeConfig(a.cfg); err != nil {
		return err
	}

	store, err := a.openDraftStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("Closing draft store failed", zap.Error(err))
		}
	}()

	autosaver := services.NewDraftAutosaver(store, a.clock, a.cfg.Draft.GetDebounce(), a.logger)
	initial, restored, err := autosaver.Restore(ctx)
	if err != nil {
		return err
	}
	if restored {
		a.logger.Info("Restored draft", zap.Int("slides", initial.SlideCount()))
	} else {
		initial = entities.NewCarousel("")
	}

	st, err := a.newStack(initial, services.WithDraftNotifier(autosaver))
	if err != nil {
		return err
	}

	pageURL := browserURL(net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))) + "/"
	capturer, closeCapturer := a.newCapturer(st.carousel, pageURL)
	defer closeCapturer()

	monitor := monitoring.NewMonitor(a.clock, a.logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	exports := export.NewService(capturer, st.carousel, a.cfg.Export, a.logger,
		export.WithPublisher(st.hub),
		export.WithClock(a.clock),
		export.WithMetrics(monitor))

	outlines := parser.NewOutlineParser()
	if path, _ := cmd.Flags().GetString("watch"); path != "" {
		outlineSync := services.NewOutlineSync(
			watcher.NewPollingWatcher(watchInterval, watchDebounce, a.logger),
			ports.NewRealFileSystem(),
			outlines,
			st.carousel,
			a.logger)
		if err := outlineSync.Start(ctx, path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer func() { _ = outlineSync.Stop() }()
	}

	deps := httpadapter.Dependencies{
		Carousel: st.carousel,
		Editor:   st.editor,
		Exports:  exports,
		Renderer: st.renderer,
		Importer: outlines,
		Monitor:  monitor,
	}
	generation, err := a.newGenerationService(ctx, services.WithCarousel(st.carousel))
	if err != nil {
		return err
	}
	if generation != nil {
		deps.Generation = generation
	} else {
		a.logger.Info("Generation disabled, no API key configured")
	}

	server := httpadapter.NewServer(deps, st.hub, a.cfg.Server, a.logger)
	if err := server.Start(ctx, a.cfg.Server.Port, a.cfg.Server.Host); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	url := browserURL(server.Addr())
	fmt.Fprintf(cmd.OutOrStdout(), "Carousel editor running at %s\n", url)

	if a.cfg.Browser.AutoOpen {
		if err := browser.NewLauncher(a.logger).Open(ctx, url); err != nil {
			a.logger.Warn("Could not open browser", zap.Error(err))
		}
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.GetShutdownTimeout()+5*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		a.logger.Warn("Server shutdown failed", zap.Error(err))
	}
	exports.Close()
	if err := autosaver.Flush(shutdownCtx); err != nil {
		a.logger.Error("Saving draft on shutdown failed", zap.Error(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")
	return nil
}
