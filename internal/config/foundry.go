package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FoundryTOML represents the parts of foundry.toml this tool reads
type FoundryTOML struct {
	RpcEndpoints map[string]string            `toml:"rpc_endpoints"`
	Etherscan    map[string]map[string]string `toml:"etherscan"`
}

// FoundryConfig is foundry.toml with environment references expanded
type FoundryConfig struct {
	RpcEndpoints map[string]string
	RawEndpoints map[string]string
	ExplorerURLs map[string]string
}

// loadDotEnv loads .env files from the project root. Values already present
// in the process environment win.
func loadDotEnv(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadFoundryConfig loads foundry.toml if the project has one. A missing file
// yields an empty config.
func loadFoundryConfig(projectRoot string) (*FoundryConfig, error) {
	cfg := &FoundryConfig{
		RpcEndpoints: make(map[string]string),
		RawEndpoints: make(map[string]string),
		ExplorerURLs: make(map[string]string),
	}

	foundryPath := filepath.Join(projectRoot, "foundry.toml")
	if _, err := os.Stat(foundryPath); os.IsNotExist(err) {
		return cfg, nil
	}

	var raw FoundryTOML
	if _, err := toml.DecodeFile(foundryPath, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}

	for name, url := range raw.RpcEndpoints {
		cfg.RawEndpoints[name] = url
		cfg.RpcEndpoints[name] = os.ExpandEnv(url)
	}
	for network, ethConfig := range raw.Etherscan {
		if url, ok := ethConfig["url"]; ok {
			cfg.ExplorerURLs[network] = os.ExpandEnv(url)
		}
	}

	return cfg, nil
}
