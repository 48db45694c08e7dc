package config

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig represents the complete runtime configuration.
// It is built once per invocation and passed explicitly to every component.
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	ArtifactsDir string // Foundry output directory holding contract templates
	ProtocolDir  string // directory holding deployment.<network>.{yaml,json} manifests

	// Network settings
	NetworkName string
	RPCURL      string // explicit RPC_URL override, empty if unset
	ChainID     uint64 // expected chain id, 0 to accept whatever the node reports
	Network     *Network

	// Signing
	PrivateKey string

	// Script inputs
	ProxyAddress string
	ProxyManager string
	DeploySalt   string
	PoolName     string
	ProxyAction  string
	PoolOwner    string
	Collateral   int // asset index in the protocol snapshot
	Debt         int // asset index in the protocol snapshot
	MaxLTV       *big.Int

	// Submission settings
	MaxFee        *big.Int
	Confirmations uint64
	PollInterval  time.Duration
	Timeout       time.Duration

	// Execution settings
	Debug          bool
	NonInteractive bool
	Confirm        bool
	LogLevel       string
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`

	// RPCEnvVar names the variable foundry.toml expects for this endpoint when it was not set
	RPCEnvVar string `json:"-"`
}

// TxURL returns an explorer link for a transaction, empty when no explorer is known
func (n *Network) TxURL(hash common.Hash) string {
	if n == nil || n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/tx/" + hash.Hex()
}
