//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/shadow-fork/shadow-cli/internal/adapters"
	"github.com/shadow-fork/shadow-cli/internal/config"
	"github.com/shadow-fork/shadow-cli/internal/logging"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployShadow,
		usecase.NewStartFork,
		usecase.NewListShadows,
		usecase.NewDecodeEvents,

		// App
		NewApp,
	)
	return nil, nil
}
