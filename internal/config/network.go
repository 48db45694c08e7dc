package config

import (
	"os"
	"strings"

	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

// knownNetworks are well-known chains. RPC URLs are only filled in for local nodes.
var knownNetworks = []config.Network{
	{ChainID: 1, Name: "mainnet", ExplorerURL: "https://etherscan.io"},
	{ChainID: 11155111, Name: "sepolia", ExplorerURL: "https://sepolia.etherscan.io"},
	{ChainID: 10, Name: "optimism", ExplorerURL: "https://optimistic.etherscan.io"},
	{ChainID: 42161, Name: "arbitrum", ExplorerURL: "https://arbiscan.io"},
	{ChainID: 137, Name: "polygon", ExplorerURL: "https://polygonscan.com"},
	{ChainID: 8453, Name: "base", ExplorerURL: "https://basescan.org"},
	{ChainID: 84532, Name: "base-sepolia", ExplorerURL: "https://sepolia.basescan.org"},
	{ChainID: 42220, Name: "celo", ExplorerURL: "https://celoscan.io"},
	{ChainID: 31337, Name: "test", RPCURL: "http://127.0.0.1:8545"},
	{ChainID: 31337, Name: "anvil", RPCURL: "http://127.0.0.1:8545"},
	{ChainID: 31337, Name: "localhost", RPCURL: "http://127.0.0.1:8545"},
}

// NetworkResolver resolves a network name to its configuration without
// touching the network. Connectivity is checked later by the session handshake.
type NetworkResolver struct {
	foundryConfig *FoundryConfig
	known         map[string]config.Network
	getenv        func(string) string
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(foundryConfig *FoundryConfig) *NetworkResolver {
	if foundryConfig == nil {
		foundryConfig = &FoundryConfig{}
	}
	r := &NetworkResolver{
		foundryConfig: foundryConfig,
		known:         make(map[string]config.Network, len(knownNetworks)),
		getenv:        os.Getenv,
	}
	for _, network := range knownNetworks {
		r.known[network.Name] = network
	}
	return r
}

// Resolve builds the network configuration for name. The RPC URL is picked from,
// in order: the explicit override, <NAME>_RPC_URL, foundry.toml [rpc_endpoints],
// and the built-in defaults. The RPC URL may be empty when nothing matches.
func (r *NetworkResolver) Resolve(name, rpcOverride string, chainID uint64) *config.Network {
	lookup := strings.ToLower(name)
	network := config.Network{Name: name}
	if known, ok := r.known[lookup]; ok {
		network = known
		network.Name = name
	}

	switch {
	case rpcOverride != "":
		network.RPCURL = rpcOverride
	case r.getenv(GenerateEnvVarName(name)) != "":
		network.RPCURL = r.getenv(GenerateEnvVarName(name))
	case !unresolvedEndpoint(r.foundryConfig.RpcEndpoints[name]):
		network.RPCURL = r.foundryConfig.RpcEndpoints[name]
	case network.RPCURL == "":
		network.RPCEnvVar = GenerateEnvVarName(name)
		if envVar, ok := DetectEnvVar(r.foundryConfig.RawEndpoints[name]); ok {
			network.RPCEnvVar = envVar
		}
	}

	if url, ok := r.foundryConfig.ExplorerURLs[name]; ok && url != "" {
		network.ExplorerURL = url
	}

	if chainID != 0 {
		network.ChainID = chainID
	}

	return &network
}
