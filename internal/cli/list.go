package cli

import (
	"github.com/spf13/cobra"

	"github.com/shadow-fork/shadow-cli/internal/cli/render"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded shadow contracts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListShadows.Execute(cmd.Context())
			if err != nil {
				return err
			}

			stopSpinner(cmd)
			return render.NewShadowsRenderer(cmd.OutOrStdout(), jsonOutput).Render(result)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
