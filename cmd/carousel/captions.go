package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// captionsCmd represents the captions command
var captionsCmd = &cobra.Command{
	Use:   "captions <post description>",
	Short: "Write caption options for a post",
	Long: `Ask the text model for caption options for an Instagram post and print
them. Requires a Gemini API key.

Example:
  carousel captions "five sourdough mistakes beginners make"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCaptions,
}

func init() {
	rootCmd.AddCommand(captionsCmd)
}

func runCaptions(cmd *cobra.Command, args []string) error {
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

	captions, err := generation.GenerateCaptions(ctx, ports.CaptionRequest{Description: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, caption := range captions {
		if i > 0 {
			fmt.Fprintln(out, "---")
		}
		fmt.Fprintln(out, caption)
	}
	return nil
}
