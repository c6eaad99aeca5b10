package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/carousel/internal/adapters/secondary/parser"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <outline.md>",
	Short: "Import a markdown outline as the draft",
	Long: `Turn a markdown outline into a carousel and replace the current draft.
Every level one or two heading starts a slide. Optional YAML frontmatter
sets the topic, template and logo.

Example:
  carousel import outline.md`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("draft-db", "", "Draft database path (overrides config)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, collectFlags(cmd.Flags()))
	if err != nil {
		return err
	}
	defer a.close()

	content, err := ports.NewRealFileSystem().ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading outline: %w", err)
	}

	carousel, err := parser.NewOutlineParser().Parse(ctx, content)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	if err := a.saveDraft(ctx, *carousel); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d slides from %s, saved as the current draft\n",
		carousel.SlideCount(), args[0])
	return nil
}
