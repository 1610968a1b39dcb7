package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mediator/internal/dispute"
	"github.com/ppiankov/mediator/internal/model"
)

var (
	disputeAgent     string
	disputeDomain    string
	disputeClaims    []string
	disputeScope     string
	disputeFiduciary string
	disputeEvidence  string
)

// disputeCmd represents the dispute command
var disputeCmd = &cobra.Command{
	Use:   "dispute",
	Short: "Open and answer two-party disputes",
	Long: `A dispute is opened by one agent and mediated when a second, distinct agent
responds. Open disputes expire after dispute.ttl.

Example:
  mediator dispute open --agent agent-alpha --domain "custody obligation" \
    --claim "custody attaches at transfer" --claim "carrier bears loss"
  mediator dispute respond 1a2b3c4d --agent agent-beta --claim "custody attaches at transfer"`,
}

var disputeOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a dispute with the first position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(func(ctx context.Context, a *app) error {
			d, err := a.disputes().Initiate(ctx, dispute.InitiateRequest{
				Agent:  disputeAgent,
				Domain: disputeDomain,
				Claims: disputeClaims,
				Declarations: model.Declarations{
					ScopeBoundary:    disputeScope,
					FiduciaryMoment:  disputeFiduciary,
					EvidenceStandard: disputeEvidence,
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Dispute %s opened, waiting for a second agent\n", d.ID)
			return printJSON(d)
		})
	},
}

var disputeRespondCmd = &cobra.Command{
	Use:   "respond <id>",
	Short: "Answer an open dispute and mediate it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(func(ctx context.Context, a *app) error {
			d, err := a.disputes().Respond(ctx, args[0], disputeAgent, disputeClaims)
			if err != nil {
				if d.ID != "" {
					fmt.Fprintf(os.Stderr, "✗ Dispute %s is %s\n", d.ID, d.Status)
				}
				return err
			}
			if d.Result != nil {
				printTrace(d.Result)
			}
			return printJSON(d)
		})
	},
}

var disputeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a dispute",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(func(ctx context.Context, a *app) error {
			d, err := a.disputes().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(d)
		})
	},
}

var disputeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open disputes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(func(ctx context.Context, a *app) error {
			open, err := a.disputes().ListOpen(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d open disputes\n", len(open))
			return printJSON(open)
		})
	},
}

// withStores runs fn with an app whose stores are open
func withStores(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.openStores(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func init() {
	rootCmd.AddCommand(disputeCmd)
	disputeCmd.AddCommand(disputeOpenCmd)
	disputeCmd.AddCommand(disputeRespondCmd)
	disputeCmd.AddCommand(disputeShowCmd)
	disputeCmd.AddCommand(disputeListCmd)

	for _, cmd := range []*cobra.Command{disputeOpenCmd, disputeRespondCmd} {
		cmd.Flags().StringVar(&disputeAgent, "agent", "", "submitting agent id")
		cmd.Flags().StringArrayVar(&disputeClaims, "claim", nil, "claim (repeatable)")
		_ = cmd.MarkFlagRequired("agent")
	}

	disputeOpenCmd.Flags().StringVar(&disputeDomain, "domain", "", "disputed domain")
	disputeOpenCmd.Flags().StringVar(&disputeScope, "scope", "", "scope boundary declaration")
	disputeOpenCmd.Flags().StringVar(&disputeFiduciary, "fiduciary", "", "fiduciary moment declaration")
	disputeOpenCmd.Flags().StringVar(&disputeEvidence, "evidence", "", "evidence standard declaration")
	_ = disputeOpenCmd.MarkFlagRequired("domain")
}
