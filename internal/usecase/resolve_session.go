package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

// DialerFunc adapts a function to ChainDialer
type DialerFunc func(ctx context.Context, network *config.Network) (ChainBackend, error)

func (f DialerFunc) Dial(ctx context.Context, network *config.Network) (ChainBackend, error) {
	return f(ctx, network)
}

// Requirement is a script input checked together with the session
// configuration, before anything is dialed
type Requirement func(cfg *config.RuntimeConfig) error

// RequireProxyAddress requires PROXY_ADDRESS to be a hex address
func RequireProxyAddress(cfg *config.RuntimeConfig) error {
	_, err := ParseAddress("PROXY_ADDRESS", cfg.ProxyAddress)
	return err
}

// ResolveSession turns the runtime configuration into a connected session
type ResolveSession struct {
	config  *config.RuntimeConfig
	dialer  ChainDialer
	signers SignerLoader
	log     *slog.Logger
}

// NewResolveSession creates a new ResolveSession use case
func NewResolveSession(cfg *config.RuntimeConfig, dialer ChainDialer, signers SignerLoader, log *slog.Logger) *ResolveSession {
	return &ResolveSession{
		config:  cfg,
		dialer:  dialer,
		signers: signers,
		log:     log.With("component", "ResolveSession"),
	}
}

// Run validates every input, then dials and checks the chain id. Nothing
// touches the network until all configuration is known to be well formed.
func (uc *ResolveSession) Run(ctx context.Context, requirements ...Requirement) (*Session, error) {
	cfg := uc.config

	if cfg.NetworkName == "" {
		return nil, domain.NewConfigurationError("NETWORK", "is required")
	}
	network := cfg.Network
	if network == nil || network.RPCURL == "" {
		hint := "set RPC_URL or add it to foundry.toml [rpc_endpoints]"
		if network != nil && network.RPCEnvVar != "" {
			hint = fmt.Sprintf("set RPC_URL or %s", network.RPCEnvVar)
		}
		return nil, domain.NewConfigurationError("RPC_URL", fmt.Sprintf("no RPC endpoint for network %q (%s)", cfg.NetworkName, hint))
	}
	if cfg.MaxFee == nil || cfg.MaxFee.Sign() <= 0 {
		return nil, domain.NewConfigurationError("MAX_FEE", "must be a positive integer")
	}

	signer, err := uc.signers.Load(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	for _, check := range requirements {
		if err := check(cfg); err != nil {
			return nil, err
		}
	}

	uc.log.Debug("connecting", "network", network.Name, "rpc", network.RPCURL)
	backend, err := uc.dialer.Dial(ctx, network)
	if err != nil {
		return nil, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to get chain ID from %s: %w", network.Name, err)
	}

	expected := cfg.ChainID
	if expected == 0 {
		expected = network.ChainID
	}
	if expected != 0 && (!chainID.IsUint64() || chainID.Uint64() != expected) {
		backend.Close()
		return nil, domain.NewConfigurationError("CHAIN_ID",
			fmt.Sprintf("network %s expects chain %d but the RPC endpoint reports %s", network.Name, expected, chainID))
	}

	resolved := *network
	resolved.ChainID = chainID.Uint64()

	uc.log.Debug("session ready", "network", resolved.Name, "chainId", resolved.ChainID, "account", signer.Address().Hex())
	return &Session{
		Network: &resolved,
		ChainID: chainID,
		Backend: backend,
		Signer:  signer,
		Options: domain.SubmitOptions{
			MaxFee:        cfg.MaxFee,
			Confirmations: cfg.Confirmations,
			PollInterval:  cfg.PollInterval,
			Timeout:       cfg.Timeout,
		},
	}, nil
}
