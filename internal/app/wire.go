//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/proxyops/internal/adapters"
	"github.com/trebuchet-org/proxyops/internal/config"
	"github.com/trebuchet-org/proxyops/internal/logging"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewComposeCall,
		usecase.NewLocateContract,
		usecase.NewSubmitTransaction,
		usecase.NewResolveSession,
		usecase.NewDeployProxy,
		usecase.NewInspectProxy,
		usecase.NewActionRegistry,
		usecase.NewProxyCall,

		// Renderers
		ProvideOutput,
		ProvideRenderer,

		// App
		NewApp,
	)
	return nil, nil
}
