package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mediator/internal/challenge"
	"github.com/ppiankov/mediator/internal/model"
)

var (
	challengeFile string
	challengeReq  challenge.SubmitRequest
)

// challengeCmd represents the challenge command
var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Challenge a frozen canon on its merits",
	Long: `A challenge attacks the factual basis of a frozen canon. Grounds that argue
intent or authorship ("I meant", "as the seller") are blocked before mediation.
Admitted challenges are mediated against a fixed defense of the original canon.

Example:
  mediator challenge submit --canon-hash 9f2c41d0... --domain "custody obligation" \
    --grounds "Customs records released after the freeze move the custody point" \
    --evidence "Customs release records dated after the freeze"`,
}

var challengeSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a challenge",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := challengeReq
		if challengeFile != "" {
			if err := readJSON(challengeFile, &req); err != nil {
				return err
			}
		}

		return withStores(func(ctx context.Context, a *app) error {
			c, err := a.challenges().Submit(ctx, req)
			if c.ID != "" {
				fmt.Fprintf(os.Stderr, "Challenge %s: %s\n", c.ID, c.Outcome)
				fmt.Fprintf(os.Stderr, "  %s\n", c.ValidityReason)
				fmt.Fprintf(os.Stderr, "  %s\n\n", challenge.Note(c.Outcome))
			}
			if err != nil {
				return err
			}
			return printJSON(challengeView(c))
		})
	},
}

var challengeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(func(ctx context.Context, a *app) error {
			c, err := a.challenges().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(challengeView(c))
		})
	},
}

var challengeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List challenges with outcome totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(func(ctx context.Context, a *app) error {
			svc := a.challenges()
			summary, err := svc.Summary(ctx)
			if err != nil {
				return err
			}
			all, err := svc.List(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Total: %d  Upheld: %d  Failed: %d  Blocked: %d  Errored: %d\n\n",
				summary.Total, summary.Upheld, summary.Failed, summary.Blocked, summary.Errored)
			return printJSON(map[string]any{
				"schema":     challenge.Schema,
				"summary":    summary,
				"challenges": all,
			})
		})
	},
}

// challengeView adds the schema and outcome note to a record
func challengeView(c model.Challenge) map[string]any {
	return map[string]any{
		"schema":    challenge.Schema,
		"note":      challenge.Note(c.Outcome),
		"challenge": c,
	}
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.AddCommand(challengeSubmitCmd)
	challengeCmd.AddCommand(challengeShowCmd)
	challengeCmd.AddCommand(challengeListCmd)

	f := challengeSubmitCmd.Flags()
	f.StringVarP(&challengeFile, "file", "f", "", "challenge JSON file (overrides flags)")
	f.StringVar(&challengeReq.ChallengerID, "challenger", "", "challenger agent id")
	f.StringVar(&challengeReq.CanonHash, "canon-hash", "", "hash of the challenged canon")
	f.StringVar(&challengeReq.CanonDomain, "domain", "", "domain of the challenged canon")
	f.StringVar(&challengeReq.Grounds, "grounds", "", "merit-based grounds for the challenge")
	f.StringVar(&challengeReq.NewEvidence, "evidence", "", "new evidence unavailable at the original mediation")
	f.StringVar(&challengeReq.ScopeArgument, "scope", "", "argument that the canon was applied outside its scope")
	f.StringArrayVar(&challengeReq.ChallengerClaims, "claim", nil, "challenger claim (repeatable)")
}
