package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/shadow-fork/shadow-cli/internal/adapters/progress"
	"github.com/shadow-fork/shadow-cli/internal/app"
	"github.com/shadow-fork/shadow-cli/internal/config"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// sinkKey is the context key for the progress sink
	sinkKey contextKey = "progress"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shadow",
		Short: "Shadow contracts for local mainnet forks",
		Long: `shadow replaces the code of deployed contracts with locally compiled
versions (shadow contracts) and runs a fork node that follows the upstream
chain with every shadow contract in place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}
			v := config.SetupViper(projectRoot, cmd)

			var sink usecase.ProgressSink
			if v.GetBool("non_interactive") || !isatty.IsTerminal(os.Stderr.Fd()) {
				v.Set("non_interactive", true)
				color.NoColor = true
				sink = progress.NewNopSink()
			} else {
				sink = progress.NewSpinnerProgressReporter(os.Stderr)
			}

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			ctx = context.WithValue(ctx, sinkKey, sink)

			// fork runs until interrupted
			if appInstance.Config.Timeout > 0 && cmd.Name() != "fork" {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			stopSpinner(cmd)
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable spinners and colors; log progress instead")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "Inspection Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	forkCmd := NewForkCmd()
	forkCmd.GroupID = "main"
	rootCmd.AddCommand(forkCmd)

	listCmd := NewListCmd()
	listCmd.GroupID = "inspect"
	rootCmd.AddCommand(listCmd)

	eventsCmd := NewEventsCmd()
	eventsCmd.GroupID = "inspect"
	rootCmd.AddCommand(eventsCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// stopSpinner clears an active spinner before the command prints its result
func stopSpinner(cmd *cobra.Command) {
	if cmd.Context() == nil {
		return
	}
	if s, ok := cmd.Context().Value(sinkKey).(*progress.SpinnerProgressReporter); ok {
		s.Stop()
	}
}
