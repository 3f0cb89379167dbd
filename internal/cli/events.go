package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/shadow-fork/shadow-cli/internal/cli/render"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// NewEventsCmd creates the events command
func NewEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <tx-hash>",
		Short: "Decode a transaction's logs with shadow contract ABIs",
		Long: `Fetch the receipt of <tx-hash> and decode every log emitted by a shadow
contract against the ABI of its compiled artifact, including events that
only exist in the shadow version.`,
		Example: `  shadow events 0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			raw, err := hexutil.Decode(args[0])
			if err != nil || len(raw) != common.HashLength {
				return fmt.Errorf("invalid transaction hash: %s", args[0])
			}

			result, err := app.DecodeEvents.Execute(cmd.Context(), usecase.DecodeEventsParams{
				TxHash: common.BytesToHash(raw),
			})
			if err != nil {
				return err
			}

			stopSpinner(cmd)
			return render.NewEventsRenderer(cmd.OutOrStdout(), jsonOutput).Render(result)
		},
	}

	cmd.Flags().String("rpc-url", "", "Node to read the receipt from (defaults to ETH_RPC_URL)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
