package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-vote/internal/cli/render"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		live bool
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "run <proposal-file>",
		Short: "Capture and simulate the vote described by a proposal file",
		Long: `Run a proposal file against a mainnet fork.

The proposal's actions are executed as the DAO's agent and recorded. Actions
inside a relay block execute on a fork of the destination chain and are sent
through that chain's broadcaster. The recorded actions are encoded into an
execution script and the full vote lifecycle is simulated: create, vote,
wait out the voting period and execute.

With --live the description is pinned to IPFS and the vote is created on
mainnet with the configured private key.

Examples:
  # Simulate a proposal
  treb-vote run proposals/kill-gauge.yaml

  # Simulate, then submit after confirmation
  treb-vote run proposals/kill-gauge.yaml --live

  # Submit without prompting
  treb-vote run proposals/kill-gauge.yaml --live --yes --non-interactive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.RunProposal.Execute(cmd.Context(), usecase.RunProposalParams{
				Path:        args[0],
				Live:        live,
				SkipConfirm: yes,
			})
			renderer := render.NewVoteRenderer(cmd.OutOrStdout(), app.Config.JSON)
			if err != nil {
				// show what was captured before the failure
				if result != nil && !app.Config.JSON {
					_ = renderer.Render(result)
				}
				return err
			}
			if err := renderer.Render(result); err != nil {
				return fmt.Errorf("failed to render vote: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Pin the description and create the vote on mainnet")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation before live submission")
	cmd.Flags().String("live-rpc", "", "Mainnet RPC endpoint for live submission (env: TREB_LIVE_RPC)")

	return cmd
}
