package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-vote/internal/cli/render"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// NewChainsCmd creates the chains command
func NewChainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chains [filter]",
		Short: "List destination chains votes can relay to",
		Long: `List the destination chain registry: built-in chains plus any declared in
treb-vote.toml, with their broadcaster, relayer and RPC endpoint.

A chain is ready when both its relayer and RPC endpoint are known. Endpoints
can be supplied in the [rpc_endpoints] section of treb-vote.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListChains.Run(cmd.Context(), usecase.ListChainsParams{
				Filter: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			return render.NewChainsRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	return cmd
}
