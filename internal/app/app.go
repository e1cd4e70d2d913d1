package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	RunProposal  *usecase.RunProposal
	CreateVote   *usecase.CreateVote
	ListChains   *usecase.ListChains
	ResolveChain *usecase.ResolveChain

	// Shared dependencies
	Progress usecase.ProgressSink
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	runProposal *usecase.RunProposal,
	createVote *usecase.CreateVote,
	listChains *usecase.ListChains,
	resolveChain *usecase.ResolveChain,
	progress usecase.ProgressSink,
) (*App, error) {
	return &App{
		Config:       cfg,
		Log:          log,
		RunProposal:  runProposal,
		CreateVote:   createVote,
		ListChains:   listChains,
		ResolveChain: resolveChain,
		Progress:     progress,
	}, nil
}
