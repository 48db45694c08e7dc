package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/proxyops/internal/adapters/abi"
	"github.com/trebuchet-org/proxyops/internal/adapters/blockchain"
	"github.com/trebuchet-org/proxyops/internal/adapters/interactive"
	"github.com/trebuchet-org/proxyops/internal/adapters/progress"
	"github.com/trebuchet-org/proxyops/internal/adapters/protocol"
	"github.com/trebuchet-org/proxyops/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/proxyops/internal/adapters/signer"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// ABISet provides the embedded interfaces and the call decoder
var ABISet = wire.NewSet(
	abi.NewABIResolver,
	wire.Bind(new(usecase.ABIResolver), new(*abi.ABIResolver)),

	abi.NewTransactionDecoder,
)

// BlockchainSet provides RPC connectivity and signing
var BlockchainSet = wire.NewSet(
	blockchain.NewDialer,
	wire.Bind(new(usecase.ChainDialer), new(*blockchain.Dialer)),

	signer.NewLoader,
	wire.Bind(new(usecase.SignerLoader), new(*signer.Loader)),
)

// RepositorySet provides file-based contract templates and protocol manifests
var RepositorySet = wire.NewSet(
	contracts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*contracts.Repository)),

	protocol.NewRegistry,
	wire.Bind(new(usecase.ProtocolRegistry), new(*protocol.Registry)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.SelectorAdapter)),
)

// ProgressSet provides the progress sink
var ProgressSet = wire.NewSet(
	progress.NewProgressSink,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ABISet,
	BlockchainSet,
	RepositorySet,
	InteractiveSet,
	ProgressSet,
)
