package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a carousel and save it as the draft",
	Long: `Generate slide copy and images for a topic and replace the current
draft with the result. Requires a Gemini API key.

Example:
  carousel generate "morning routines for remote workers"
  carousel generate sourdough basics --slides 7 --tone playful`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntP("slides", "n", 0, "Number of slides (overrides config)")
	generateCmd.Flags().String("tone", "", "Tone of voice for the copy")
	generateCmd.Flags().String("draft-db", "", "Draft database path (overrides config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, collectFlags(cmd.Flags()))
	if err != nil {
		return err
	}
	defer a.close()

	generation, err := a.newGenerationService(ctx)
	if err != nil {
		return err
	}
	if generation == nil {
		return errGenerationUnconfigured
	}

	tone, _ := cmd.Flags().GetString("tone")
	carousel, err := generation.Generate(ctx, ports.GenerateRequest{
		Topic:      strings.Join(args, " "),
		SlideCount: a.cfg.Generation.GetSlideCount(),
		Tone:       tone,
	})
	if err != nil {
		return err
	}

	if err := a.saveDraft(ctx, carousel); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d slides for %q, saved as the current draft\n",
		carousel.SlideCount(), carousel.Topic)
	return nil
}
