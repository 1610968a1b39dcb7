package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var recallTopN int

// recallCmd represents the recall command
var recallCmd = &cobra.Command{
	Use:   "recall <domain> [claims...]",
	Short: "Find frozen canons that already cover a domain",
	Long: `Recall ranks the canon documents in the canon directory against a domain
and a set of claims. A FROZEN match signals canonical debt: the dispute may
re-derive a conclusion that is already on the record.

Example:
  mediator recall "regulatory jurisdiction over agent data flows" \
    "jurisdiction attaches at movement" "custody creates obligation"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.index.Recall(context.Background(), args[0], args[1:], recallTopN)
		if err != nil {
			return fmt.Errorf("recall: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Domain:    %s\n", report.Domain)
		fmt.Fprintf(os.Stderr, "Debt risk: %v\n", report.CanonicalDebtRisk)
		for _, m := range report.Matches {
			fmt.Fprintf(os.Stderr, "  [%s] %s (score: %.2f)\n", m.Status, m.Canon, m.Score)
		}
		fmt.Fprintf(os.Stderr, "\n")

		return printJSON(report)
	},
}

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the citation-recall index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the recall index from the canon directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.index.Rebuild(context.Background())
		if err != nil {
			return fmt.Errorf("rebuild index: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✓ Indexed %d canons from %s\n", len(entries), a.index.Dir())
		if verbose {
			for _, e := range entries {
				fmt.Fprintf(os.Stderr, "  [%s] %s (%s)\n", e.Status, e.Name, e.File)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexRebuildCmd)

	recallCmd.Flags().IntVar(&recallTopN, "top", 3, "maximum number of matches")
}
