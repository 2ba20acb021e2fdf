package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/gradscout/internal/observability"
	"github.com/jonathan/gradscout/internal/pipeline"
)

var blocksCommand = &cobra.Command{
	Use:   "blocks <url>",
	Short: "Inspect the structural blocks discovered on one page",
	Long: `Fetches a single page and prints the person blocks the structural
extractor finds on it, grouped by their discovery signature. Useful when
tuning selectors for a new target.`,
	Args: cobra.ExactArgs(1),
	RunE: blocksCmd,
}

var (
	blocksUseBrowser bool
	blocksPreferRole bool
	blocksMax        int
)

func init() {
	blocksCommand.Flags().BoolVar(&blocksUseBrowser, "use-browser", false, "Render the page in a headless browser first")
	blocksCommand.Flags().BoolVar(&blocksPreferRole, "prefer-role", false, "Seed discovery from academic-title keywords")
	blocksCommand.Flags().IntVar(&blocksMax, "max", 0, "Upper bound on blocks to report (0 = default)")

	rootCmd.AddCommand(blocksCommand)
}

func blocksCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	pageURL := args[0]

	found, err := pipeline.Blockify(ctx, pageURL, blocksUseBrowser, blocksPreferRole, blocksMax)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Printf("No blocks found on %s\n", pageURL)
		return nil
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintBlocks(pageURL, found)
	for _, b := range found {
		fmt.Printf("\n[%d] %s\n%s\n", b.ID, b.GroupID, b.Text)
		for _, l := range b.Links {
			fmt.Printf("  -> %s (%s)\n", l.Href, l.Text)
		}
	}
	return nil
}
