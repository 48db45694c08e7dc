package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkResolver_Resolve(t *testing.T) {
	foundry := &FoundryConfig{
		RpcEndpoints: map[string]string{
			"celo-sepolia": "https://forno.celo-sepolia.celo-testnet.org",
			"sepolia":      "",
		},
		RawEndpoints: map[string]string{
			"celo-sepolia": "https://forno.celo-sepolia.celo-testnet.org",
			"sepolia":      "${ALCHEMY_SEPOLIA}",
		},
		ExplorerURLs: map[string]string{
			"celo-sepolia": "https://celo-sepolia.blockscout.com",
		},
	}

	tests := []struct {
		name        string
		network     string
		override    string
		chainID     uint64
		env         map[string]string
		wantRPC     string
		wantChainID uint64
		wantEnvVar  string
		wantExpl    string
	}{
		{
			name:        "built-in local network",
			network:     "test",
			wantRPC:     "http://127.0.0.1:8545",
			wantChainID: 31337,
		},
		{
			name:        "explicit override wins",
			network:     "test",
			override:    "http://10.0.0.1:8545",
			env:         map[string]string{"TEST_RPC_URL": "http://ignored"},
			wantRPC:     "http://10.0.0.1:8545",
			wantChainID: 31337,
		},
		{
			name:        "network env var before foundry.toml",
			network:     "celo-sepolia",
			env:         map[string]string{"CELO_SEPOLIA_RPC_URL": "http://from-env"},
			wantRPC:     "http://from-env",
			wantExpl:    "https://celo-sepolia.blockscout.com",
			wantChainID: 0,
		},
		{
			name:     "foundry.toml endpoint",
			network:  "celo-sepolia",
			wantRPC:  "https://forno.celo-sepolia.celo-testnet.org",
			wantExpl: "https://celo-sepolia.blockscout.com",
		},
		{
			name:        "unset foundry variable is reported",
			network:     "sepolia",
			wantChainID: 11155111,
			wantEnvVar:  "ALCHEMY_SEPOLIA",
			wantExpl:    "https://sepolia.etherscan.io",
		},
		{
			name:       "unknown network suggests conventional variable",
			network:    "my-chain",
			wantEnvVar: "MY_CHAIN_RPC_URL",
		},
		{
			name:        "configured chain id overrides the known one",
			network:     "anvil",
			chainID:     1337,
			wantRPC:     "http://127.0.0.1:8545",
			wantChainID: 1337,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNetworkResolver(foundry)
			r.getenv = func(key string) string { return tt.env[key] }

			network := r.Resolve(tt.network, tt.override, tt.chainID)
			assert.Equal(t, tt.network, network.Name)
			assert.Equal(t, tt.wantRPC, network.RPCURL)
			assert.Equal(t, tt.wantChainID, network.ChainID)
			assert.Equal(t, tt.wantEnvVar, network.RPCEnvVar)
			assert.Equal(t, tt.wantExpl, network.ExplorerURL)
		})
	}
}

func TestNetworkResolver_NilFoundryConfig(t *testing.T) {
	r := NewNetworkResolver(nil)
	r.getenv = func(string) string { return "" }

	network := r.Resolve("localhost", "", 0)
	assert.Equal(t, "http://127.0.0.1:8545", network.RPCURL)
	assert.Equal(t, uint64(31337), network.ChainID)
}
