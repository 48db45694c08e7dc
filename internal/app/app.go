package app

import (
	"io"
	"log/slog"
	"os"

	abiadapter "github.com/trebuchet-org/proxyops/internal/adapters/abi"
	"github.com/trebuchet-org/proxyops/internal/adapters/interactive"
	"github.com/trebuchet-org/proxyops/internal/cli/render"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Selector *interactive.SelectorAdapter
	Protocol usecase.ProtocolRegistry

	// Use cases
	ResolveSession    *usecase.ResolveSession
	LocateContract    *usecase.LocateContract
	ComposeCall       *usecase.ComposeCall
	SubmitTransaction *usecase.SubmitTransaction
	DeployProxy       *usecase.DeployProxy
	InspectProxy      *usecase.InspectProxy
	ProxyCall         *usecase.ProxyCall

	// Renderers
	Renderer *render.ProxyRenderer
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	selector *interactive.SelectorAdapter,
	protocol usecase.ProtocolRegistry,
	resolveSession *usecase.ResolveSession,
	locateContract *usecase.LocateContract,
	composeCall *usecase.ComposeCall,
	submitTransaction *usecase.SubmitTransaction,
	deployProxy *usecase.DeployProxy,
	inspectProxy *usecase.InspectProxy,
	proxyCall *usecase.ProxyCall,
	renderer *render.ProxyRenderer,
) (*App, error) {
	return &App{
		Config:            cfg,
		Log:               log,
		Selector:          selector,
		Protocol:          protocol,
		ResolveSession:    resolveSession,
		LocateContract:    locateContract,
		ComposeCall:       composeCall,
		SubmitTransaction: submitTransaction,
		DeployProxy:       deployProxy,
		InspectProxy:      inspectProxy,
		ProxyCall:         proxyCall,
		Renderer:          renderer,
	}, nil
}

// ProvideOutput is where command results are printed
func ProvideOutput() io.Writer {
	return os.Stdout
}

// ProvideRenderer creates the result renderer
func ProvideRenderer(out io.Writer, decoder *abiadapter.TransactionDecoder) *render.ProxyRenderer {
	return render.NewProxyRenderer(out, decoder)
}
