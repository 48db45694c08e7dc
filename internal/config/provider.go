package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

// DefaultMaxFee is the fee ceiling in wei used when MAX_FEE is unset
const DefaultMaxFee = "15643342930036"

// DefaultPoolName is the pool targeted by proxy calls unless POOL_NAME is set
const DefaultPoolName = "genesis-pool"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		projectRoot = FindProjectRoot()
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		ArtifactsDir:   resolvePath(projectRoot, v.GetString("artifacts_dir")),
		ProtocolDir:    resolvePath(projectRoot, v.GetString("protocol_dir")),
		NetworkName:    strings.TrimSpace(v.GetString("network")),
		RPCURL:         v.GetString("rpc_url"),
		PrivateKey:     v.GetString("private_key"),
		ProxyAddress:   strings.TrimSpace(v.GetString("proxy_address")),
		ProxyManager:   strings.TrimSpace(v.GetString("proxy_manager")),
		DeploySalt:     v.GetString("deploy_salt"),
		PoolName:       v.GetString("pool_name"),
		ProxyAction:    v.GetString("proxy_action"),
		PoolOwner:      strings.TrimSpace(v.GetString("pool_owner")),
		Collateral:     v.GetInt("collateral_asset_index"),
		Debt:           v.GetInt("debt_asset_index"),
		Confirmations:  v.GetUint64("confirmations"),
		PollInterval:   v.GetDuration("poll_interval"),
		Timeout:        v.GetDuration("confirmation_timeout"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Confirm:        v.GetBool("confirm"),
		LogLevel:       v.GetString("log_level"),
	}

	chainID, err := parseUint("chain_id", v.GetString("chain_id"))
	if err != nil {
		return nil, err
	}
	cfg.ChainID = chainID

	if cfg.MaxFee, err = parseWei("max_fee", v.GetString("max_fee")); err != nil {
		return nil, err
	}
	if cfg.MaxLTV, err = parseAmount("max_ltv", v.GetString("max_ltv")); err != nil {
		return nil, err
	}

	foundryConfig, err := loadFoundryConfig(projectRoot)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: "foundry.toml", Reason: "unreadable", Err: err}
	}

	if cfg.NetworkName != "" {
		cfg.Network = NewNetworkResolver(foundryConfig).Resolve(cfg.NetworkName, cfg.RPCURL, cfg.ChainID)
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory looking for foundry.toml
// and falls back to the current directory.
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, "foundry.toml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance. cmd may be nil for the
// flagless script binaries.
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	loadDotEnv(projectRoot)

	v := viper.New()

	// Scripts read plain variables such as NETWORK and PROXY_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("project_root", projectRoot)
	v.SetDefault("network", "sepolia")
	v.SetDefault("artifacts_dir", "out")
	v.SetDefault("protocol_dir", "deployments")
	v.SetDefault("pool_name", DefaultPoolName)
	v.SetDefault("collateral_asset_index", 0)
	v.SetDefault("debt_asset_index", 1)
	v.SetDefault("max_ltv", domain.Scale.String())
	v.SetDefault("max_fee", DefaultMaxFee)
	v.SetDefault("confirmations", 1)
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("confirmation_timeout", "10m")
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("confirm", false)

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Name == "help" {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func parseUint(key, raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, ok := new(big.Int).SetString(raw, 0)
	if !ok || value.Sign() < 0 || !value.IsUint64() {
		return 0, domain.NewConfigurationError(strings.ToUpper(key), fmt.Sprintf("%q is not an unsigned integer", raw))
	}
	return value.Uint64(), nil
}

func parseWei(key, raw string) (*big.Int, error) {
	value, err := parseAmount(key, raw)
	if err != nil {
		return nil, err
	}
	if value.Sign() == 0 {
		return nil, domain.NewConfigurationError(strings.ToUpper(key), "must be positive")
	}
	return value, nil
}

func parseAmount(key, raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	value, ok := new(big.Int).SetString(raw, 0)
	if !ok || value.Sign() < 0 {
		return nil, domain.NewConfigurationError(strings.ToUpper(key), fmt.Sprintf("%q is not a non-negative integer", raw))
	}
	return value, nil
}
