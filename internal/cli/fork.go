package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/shadow-fork/shadow-cli/internal/cli/render"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// NewForkCmd creates the fork command
func NewForkCmd() *cobra.Command {
	var allTxs, followHead bool

	cmd := &cobra.Command{
		Use:   "fork",
		Short: "Run a fork node that follows upstream with shadow contracts in place",
		Long: `Start a local anvil fork of the upstream chain (ETH_RPC_URL) with every
recorded shadow contract injected, then follow new upstream blocks over the
streaming endpoint (WS_RPC_URL) until interrupted.

By default the fork stays at the head it started from and keeps every local
change; new upstream heads are only reported. Shadows recorded with
"shadow deploy" while the fork runs are injected on the next head.

With --follow-head the fork is reset to every new upstream head, discarding
local state, and all recorded shadows are injected again. With
--all-txs=true every upstream transaction from the origin block onward is
re-sent to the fork in order, so shadow contracts observe the real traffic.
Replaying is slow against a remote node; use a co-located one.`,
		Example: `  # Fork at the chain head
  shadow fork

  # Track the chain head, resetting local state every block
  shadow fork --follow-head

  # Replay every transaction since block 19000000
  shadow fork --all-txs=true --origin-block 19000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			renderer := render.NewForkRenderer(cmd.OutOrStdout())
			session, err := app.StartFork.Execute(cmd.Context(), usecase.StartForkParams{
				ReplayAllTransactions: allTxs,
				FollowHead:            followHead,
				OnBlock:               renderer.RenderBlock,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := session.Close(context.Background()); err != nil {
					app.Log.Warn("Failed to shut down fork node", "error", err)
				}
			}()

			stopSpinner(cmd)
			renderer.RenderInfo(session.Info())

			err = session.Run(cmd.Context())
			if errors.Is(cmd.Context().Err(), context.Canceled) {
				cmd.PrintErrln("Stopping fork node")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&allTxs, "all-txs", false, "Replay every upstream transaction onto the fork")
	cmd.Flags().BoolVar(&followHead, "follow-head", false, "Reset the fork to every new upstream head, discarding local state")
	cmd.MarkFlagsMutuallyExclusive("all-txs", "follow-head")
	cmd.Flags().Uint64("origin-block", 0, "Block to fork from when replaying (defaults to the upstream head)")
	cmd.Flags().Int("port", 8545, "Local port of the fork node")

	return cmd
}
