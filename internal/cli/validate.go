package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mediator/internal/model"
	"github.com/ppiankov/mediator/internal/pipeline"
	"github.com/ppiankov/mediator/internal/validate"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the semantic validator without mediating",
}

var validateNameCmd = &cobra.Command{
	Use:   "name <name>",
	Short: "Apply the three naming tests to a candidate canon name",
	Long: `Checks that a name describes a function, states an invariant rather than
a goal, and carries no value judgement.

Example:
  mediator validate name "Flow-Triggered Jurisdiction"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rules, err := model.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}

		result := validate.NewNameValidator(rules).Validate(args[0])
		if !result.Passed {
			fmt.Fprintf(os.Stderr, "✗ %s failed naming tests\n", args[0])
		}
		return printJSON(result)
	},
}

var validateArtifactCmd = &cobra.Command{
	Use:   "artifact <file>",
	Short: "Validate an artifact candidate JSON file",
	Long: `Validates a candidate of the form
  {"name": "...", "domain": "...", "invariants": [...],
   "scope_boundary": "...", "fiduciary_moment": "...", "evidence_standard": "..."}
with the configured validator (local or remote).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var candidate model.ArtifactCandidate
		if err := readJSON(args[0], &candidate); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		validator, err := validate.New(a.cfg.Validator, a.rules)
		if err != nil {
			return err
		}

		verdict, err := validator.Validate(context.Background(), candidate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Validator unavailable: %v\n", err)
			verdict = validate.Unavailable(err)
		}
		return printJSON(verdict)
	},
}

var validateHashCmd = &cobra.Command{
	Use:   "hash <file>",
	Short: "Verify the hash of a canon artifact or mediation result file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var wrapped struct {
			Canon *model.CanonArtifact `json:"canon"`
		}
		if err := readJSON(args[0], &wrapped); err != nil {
			return err
		}
		artifact := wrapped.Canon
		if artifact == nil {
			artifact = &model.CanonArtifact{}
			if err := readJSON(args[0], artifact); err != nil {
				return err
			}
		}

		if !pipeline.VerifyArtifact(*artifact) {
			return fmt.Errorf("%w: hash mismatch for %s", model.ErrInvalidInput, args[0])
		}
		fmt.Printf("✓ %s\n", pipeline.Cite(*artifact).CiteAs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validateNameCmd)
	validateCmd.AddCommand(validateArtifactCmd)
	validateCmd.AddCommand(validateHashCmd)
}
