package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/pipeline"
)

var (
	inputPath       string
	outputPath      string
	mediateTimeout  time.Duration
	noCanonDocument bool
)

// mediateCmd represents the mediate command
var mediateCmd = &cobra.Command{
	Use:   "mediate",
	Short: "Mediate positions from an input file into a canonical artifact",
	Long: `Mediate runs the seven-step canonization on an input file:
- Intake and overlap of the submitted positions
- Candidate extraction (shared claims and majority promotion)
- Stress test and gap map
- Semantic validation and freeze decision
- Hashed artifact and citation, with prior art from earlier canons

Input format:
  {"type": "A", "domain": "...", "positions": [{"agent": "...", "claims": [...]}, ...],
   "scope_boundary": "...", "fiduciary_moment": "...", "evidence_standard": "..."}

Example:
  mediator mediate --input positions.json
  mediator mediate -i positions.json -o canon.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var input model.MediationInput
		if err := readJSON(inputPath, &input); err != nil {
			return err
		}
		return runMediation(input)
	},
}

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Mediate a built-in two-agent example",
	Long:  `Demo mediates a fixed dispute between two agents about jurisdiction and custody.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMediation(DemoInput())
	},
}

func init() {
	rootCmd.AddCommand(mediateCmd)
	rootCmd.AddCommand(demoCmd)

	mediateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input JSON file with positions")
	_ = mediateCmd.MarkFlagRequired("input")

	for _, cmd := range []*cobra.Command{mediateCmd, demoCmd} {
		cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the result JSON to this file instead of stdout")
		cmd.Flags().DurationVar(&mediateTimeout, "timeout", time.Minute, "mediation timeout")
		cmd.Flags().BoolVar(&noCanonDocument, "no-canon-doc", false, "do not write a canon document for frozen artifacts")
	}
}

// DemoInput is the built-in demonstration dispute
func DemoInput() model.MediationInput {
	return model.MediationInput{
		Type:   "A",
		Domain: "agent-knowledge-dispute",
		Positions: []model.Position{
			{Agent: "agent-alpha", Claims: []string{"flows trigger jurisdiction", "movement creates obligation", "intent is irrelevant"}},
			{Agent: "agent-beta", Claims: []string{"flows trigger jurisdiction", "movement creates obligation", "custody requires physical control"}},
		},
		Metadata: map[string]any{"session": "demo", "version": "1.0"},
	}
}

func runMediation(input model.MediationInput) error {
	if noCanonDocument {
		viper.Set("canon.write_documents", false)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), mediateTimeout)
	defer cancel()

	result, err := a.mediator.Mediate(ctx, input)
	if err != nil {
		return fmt.Errorf("mediate: %w", err)
	}

	printTrace(result)

	if outputPath != "" {
		if err := pipeline.NewRenderer(a.cfg.Canon.Dir).RenderJSON(result, outputPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Result written to %s\n", outputPath)
		return nil
	}
	return printJSON(result)
}

// printTrace reports the mediation steps on stderr
func printTrace(result *model.MediationResult) {
	for i, step := range result.Trace {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", i+1, len(result.Trace), step.Step, step.Summary)
	}
	if result.PriorArt != nil && result.PriorArt.CanonicalDebtRisk {
		fmt.Fprintf(os.Stderr, "⚠️  %s\n", result.PriorArt.DebtRiskMessage)
	}
	if result.CanonPath != "" {
		fmt.Fprintf(os.Stderr, "✓ Canon document: %s\n", result.CanonPath)
	}
	fmt.Fprintf(os.Stderr, "\nCitation: %s\n\n", result.Citation.CiteAs)
}
