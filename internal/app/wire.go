//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-vote/internal/adapters"
	"github.com/trebuchet-org/treb-vote/internal/config"
	"github.com/trebuchet-org/treb-vote/internal/logging"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		config.ProvideRegistry,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewSimulateVote,
		usecase.NewPinDescription,
		usecase.NewPostVote,
		usecase.NewCreateVote,
		usecase.NewListChains,
		usecase.NewResolveChain,
		usecase.NewRunProposal,

		// App
		NewApp,
	)
	return nil, nil
}
