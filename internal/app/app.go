package app

import (
	"log/slog"

	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	DeployShadow *usecase.DeployShadow
	StartFork    *usecase.StartFork
	ListShadows  *usecase.ListShadows
	DecodeEvents *usecase.DecodeEvents
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	deployShadow *usecase.DeployShadow,
	startFork *usecase.StartFork,
	listShadows *usecase.ListShadows,
	decodeEvents *usecase.DecodeEvents,
) (*App, error) {
	return &App{
		Config:       cfg,
		Log:          log,
		DeployShadow: deployShadow,
		StartFork:    startFork,
		ListShadows:  listShadows,
		DecodeEvents: decodeEvents,
	}, nil
}
