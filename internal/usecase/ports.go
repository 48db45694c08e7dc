package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

// ChainBackend is the subset of an RPC client the scripts consume.
// *ethclient.Client satisfies it.
type ChainBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// ChainDialer opens a backend for a resolved network
type ChainDialer interface {
	Dial(ctx context.Context, network *config.Network) (ChainBackend, error)
}

// Signer holds the session credential
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// SignerLoader builds a Signer from the configured credential
type SignerLoader interface {
	Load(privateKey string) (Signer, error)
}

// ArtifactRepository provides compiled contract templates
type ArtifactRepository interface {
	GetTemplate(ctx context.Context, name string) (*domain.ContractTemplate, error)
}

// ProtocolRegistry provides the deployed protocol for a network
type ProtocolRegistry interface {
	LoadProtocol(ctx context.Context, network string) (*domain.ProtocolSnapshot, error)
	LoadPool(snapshot *domain.ProtocolSnapshot, name string) (domain.Pool, error)
}

// WellKnownAddresses are the helper contracts the pipeline routes through
type WellKnownAddresses struct {
	CreateX    common.Address
	Multicall3 common.Address
}

// ABIResolver resolves contract interfaces by name
type ABIResolver interface {
	Get(ctx context.Context, name string) (*abi.ABI, error)
	Addresses() WellKnownAddresses
}

// Confirmer asks the operator before a transaction is signed and sent
type Confirmer interface {
	Confirm(ctx context.Context, summary string) (bool, error)
}

// AutoConfirm approves every submission
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, string) (bool, error) { return true, nil }

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
