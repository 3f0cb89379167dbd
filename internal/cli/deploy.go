package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/shadow-fork/shadow-cli/internal/cli/render"
	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var forkURL string

	cmd := &cobra.Command{
		Use:   "deploy <contract> <address>",
		Short: "Replace the code at an address with a shadow contract",
		Long: `Replace the runtime code at <address> on the local fork node with the
locally compiled <contract> and record it as a shadow contract.

Start the fork first with "shadow fork"; deploy then injects into it at
http://127.0.0.1:<fork.port> (override with --fork-url). The upstream node
(ETH_RPC_URL, optional) supplies the chain ID and runs the constructor.
Recorded shadows are re-injected whenever a fork is started.

<contract> is "File.sol" or "File.sol:Name". When the address holds a verified
contract, its constructor arguments are used to build the runtime code. If no
artifact matches <contract>, close matches are offered for selection.`,
		Example: `  # In one terminal, run the fork
  shadow fork

  # In another, shadow the Uniswap V2 router on it
  shadow deploy UniswapV2Router02.sol 0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D

  # Pick a contract from a file with several, on a fork at another port
  shadow deploy Pair.sol:UniswapV2Pair 0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc --fork-url http://127.0.0.1:9545`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if !common.IsHexAddress(args[1]) {
				return fmt.Errorf("%w: %s", domain.ErrInvalidAddress, args[1])
			}

			params := usecase.DeployShadowParams{
				Contract: args[0],
				Address:  common.HexToAddress(args[1]),
				ForkURL:  forkURL,
			}
			result, err := app.DeployShadow.Execute(cmd.Context(), params)
			if err != nil && !app.Config.NonInteractive {
				stopSpinner(cmd)
				choice, perr := pickSuggestion(err)
				if perr != nil {
					return perr
				}
				if choice != "" {
					params.Contract = choice
					result, err = app.DeployShadow.Execute(cmd.Context(), params)
				}
			}
			if err != nil {
				return err
			}

			stopSpinner(cmd)
			return render.NewDeployRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&forkURL, "fork-url", "", "Fork node receiving the code (defaults to the local fork node)")
	cmd.Flags().String("rpc-url", "", "Upstream node for the chain ID and constructor (defaults to ETH_RPC_URL)")

	return cmd
}
