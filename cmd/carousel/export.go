package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpadapter "github.com/fredcamaral/carousel/internal/adapters/primary/http"
	"github.com/fredcamaral/carousel/internal/adapters/secondary/export"
	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

var errNoDraft = errors.New("no draft saved yet: run generate or import first")

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current draft",
	Long: `Export every slide of the current draft as a zip of JPEGs, an animated
GIF or a PDF. Slides are drawn by the built-in rasterizer unless --browser
asks for a headless browser capture of the editor page.

Example:
  carousel export --mode zip
  carousel export --mode gif --delay 3s --out story.gif
  carousel export --mode pdf --browser`,
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error { return validateExportFlags(cmd) },
	RunE:    runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("mode", "m", string(entities.ExportZip), "Export format: zip, gif or pdf")
	exportCmd.Flags().Duration("delay", 0, "GIF frame delay (overrides config)")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: carousel.<ext>)")
	exportCmd.Flags().Bool("browser", false, "Capture slides with a headless browser")
	exportCmd.Flags().String("draft-db", "", "Draft database path (overrides config)")
}

func exportMode(cmd *cobra.Command) entities.ExportMode {
	mode, _ := cmd.Flags().GetString("mode")
	return entities.ExportMode(strings.ToLower(strings.TrimSpace(mode)))
}

// validateExportFlags rejects bad flags before any config or draft is loaded
func validateExportFlags(cmd *cobra.Command) error {
	if err := exportMode(cmd).Validate(); err != nil {
		return err
	}
	if delay, _ := cmd.Flags().GetDuration("delay"); delay < 0 {
		return fmt.Errorf("invalid delay: %s", delay)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	mode := exportMode(cmd)

	flags := collectFlags(cmd.Flags())
	if useBrowser, _ := cmd.Flags().GetBool("browser"); useBrowser {
		flags["capture"] = string(entities.CaptureBrowser)
	}

	a, err := newApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	carousel, err := a.loadDraft(ctx)
	if err != nil {
		return err
	}

	st, err := a.newStack(carousel)
	if err != nil {
		return err
	}

	pageURL := ""
	if a.cfg.Capture.GetMode() == entities.CaptureBrowser {
		preview := httpadapter.NewServer(httpadapter.Dependencies{
			Carousel: st.carousel,
			Editor:   st.editor,
			Renderer: st.renderer,
		}, st.hub, a.cfg.Server, a.logger)
		if err := preview.Start(ctx, 0, "127.0.0.1"); err != nil {
			return fmt.Errorf("starting preview server: %w", err)
		}
		defer func() {
			if err := preview.Stop(context.WithoutCancel(ctx)); err != nil {
				a.logger.Debug("Preview server shutdown failed", zap.Error(err))
			}
		}()
		pageURL = browserURL(preview.Addr()) + "/"
	}

	capturer, closeCapturer := a.newCapturer(st.carousel, pageURL)
	defer closeCapturer()

	exports := export.NewService(capturer, st.carousel, a.cfg.Export, a.logger, export.WithClock(a.clock))
	defer exports.Close()

	out := cmd.OutOrStdout()
	artifact, err := exports.Run(ctx, ports.ExportRequest{
		Mode:       mode,
		FrameDelay: a.cfg.Export.GetFrameDelay(),
	}, progressPrinter(out))
	if err != nil {
		return fmt.Errorf("exporting %s: %w", mode, err)
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = artifact.Filename
	}
	if err := ports.NewRealFileSystem().WriteFileAtomic(path, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(out, "Wrote %s (%d bytes)\n", path, artifact.Size())
	return nil
}

func (a *app) loadDraft(ctx context.Context) (entities.Carousel, error) {
	store, err := a.openDraftStore(ctx)
	if err != nil {
		return entities.Carousel{}, err
	}
	defer func() { _ = store.Close() }()

	draft, err := store.Load(ctx)
	if err != nil {
		return entities.Carousel{}, fmt.Errorf("loading draft: %w", err)
	}
	if draft == nil {
		return entities.Carousel{}, errNoDraft
	}

	carousel := draft.Carousel()
	if carousel.SlideCount() == 0 {
		return entities.Carousel{}, errors.New("the current draft has no slides")
	}
	return carousel, nil
}

// progressPrinter reports capture progress on a single terminal line
func progressPrinter(w io.Writer) ports.ProgressSink {
	return ports.ProgressFunc(func(done, total int) {
		fmt.Fprintf(w, "\rCapturing slide %d/%d (%d%%)", done, total, done*100/max(total, 1))
		if done == total {
			fmt.Fprintln(w)
		}
	})
}
