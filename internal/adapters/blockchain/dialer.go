package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// Dialer opens JSON-RPC connections with ethclient
type Dialer struct{}

// NewDialer creates a new RPC dialer
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial connects to the network's RPC endpoint
func (d *Dialer) Dial(ctx context.Context, network *config.Network) (usecase.ChainBackend, error) {
	if network == nil || network.RPCURL == "" {
		return nil, domain.NewConfigurationError("RPC_URL", "no RPC endpoint configured")
	}

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, nil
}

// Ensure the adapter implements the interface
var _ usecase.ChainDialer = (*Dialer)(nil)
