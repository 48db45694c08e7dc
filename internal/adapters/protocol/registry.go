package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
	"gopkg.in/yaml.v3"
)

// manifestExtensions are tried in order. JSON manifests parse as YAML.
var manifestExtensions = []string{".yaml", ".yml", ".json"}

// Manifest is the on-disk description of a deployed protocol
type Manifest struct {
	Singleton string            `yaml:"singleton"`
	Extension string            `yaml:"extension"`
	Assets    []ManifestAsset   `yaml:"assets"`
	Pools     map[string]string `yaml:"pools"`
}

// ManifestAsset is one asset entry
type ManifestAsset struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// Registry loads protocol manifests from deployment.<network>.{yaml,yml,json}
type Registry struct {
	dir string
	log *slog.Logger
}

// NewRegistry creates a registry over the configured protocol directory
func NewRegistry(cfg *config.RuntimeConfig, log *slog.Logger) *Registry {
	return &Registry{dir: cfg.ProtocolDir, log: log.With("component", "ProtocolRegistry")}
}

// LoadProtocol reads and validates the manifest for network
func (r *Registry) LoadProtocol(ctx context.Context, network string) (*domain.ProtocolSnapshot, error) {
	path, err := r.manifestPath(network)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, &domain.ConfigurationError{Key: path, Reason: "malformed protocol manifest", Err: err}
	}

	snapshot, err := manifest.snapshot(network)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: path, Reason: "invalid protocol manifest", Err: err}
	}

	r.log.Debug("loaded protocol", "network", network, "path", path, "assets", len(snapshot.Assets), "pools", len(snapshot.PoolNames()))
	return snapshot, nil
}

// LoadPool looks up a pool by name, suggesting close names when it is unknown
func (r *Registry) LoadPool(snapshot *domain.ProtocolSnapshot, name string) (domain.Pool, error) {
	if pool, ok := snapshot.Pool(name); ok {
		return pool, nil
	}
	names := snapshot.PoolNames()
	suggestions := lo.Map(fuzzy.Find(name, names), func(m fuzzy.Match, _ int) string { return m.Str })
	if len(suggestions) == 0 {
		suggestions = names
	}
	return domain.Pool{}, &domain.NotFoundError{Kind: "pool", Name: name, Network: snapshot.Network, Suggestions: suggestions}
}

func (r *Registry) manifestPath(network string) (string, error) {
	for _, ext := range manifestExtensions {
		path := filepath.Join(r.dir, "deployment."+network+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &domain.NotFoundError{Kind: "protocol manifest", Name: filepath.Join(r.dir, "deployment."+network+".yaml"), Network: network}
}

func (m *Manifest) snapshot(network string) (*domain.ProtocolSnapshot, error) {
	singleton, err := parseAddress("singleton", m.Singleton)
	if err != nil {
		return nil, err
	}
	extension, err := parseAddress("extension", m.Extension)
	if err != nil {
		return nil, err
	}

	assets := make([]domain.Asset, 0, len(m.Assets))
	for i, asset := range m.Assets {
		address, err := parseAddress(fmt.Sprintf("assets[%d].address", i), asset.Address)
		if err != nil {
			return nil, err
		}
		assets = append(assets, domain.Asset{Symbol: asset.Symbol, Address: address, Decimals: asset.Decimals})
	}

	pools := make([]domain.Pool, 0, len(m.Pools))
	for name, raw := range m.Pools {
		id, err := ParsePoolID(raw)
		if err != nil {
			return nil, fmt.Errorf("pools.%s: %w", name, err)
		}
		pools = append(pools, domain.Pool{Name: name, ID: id})
	}

	return domain.NewProtocolSnapshot(network, singleton, extension, assets, pools), nil
}

// ParsePoolID accepts a 0x-prefixed hex or a decimal identifier of at most 32 bytes
func ParsePoolID(raw string) ([32]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return [32]byte{}, errors.New("empty pool id")
	}
	digits, base := raw, 10
	if hex, found := strings.CutPrefix(strings.ToLower(raw), "0x"); found {
		digits, base = hex, 16
	}
	value, ok := new(big.Int).SetString(digits, base)
	if !ok || value.Sign() < 0 {
		return [32]byte{}, fmt.Errorf("%q is not a hex or decimal pool id", raw)
	}
	if value.BitLen() > 256 {
		return [32]byte{}, fmt.Errorf("pool id %q exceeds 32 bytes", raw)
	}
	return common.BigToHash(value), nil
}

func parseAddress(field, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q is not a hex address", field, raw)
	}
	return common.HexToAddress(raw), nil
}

// Ensure the registry implements the interface
var _ usecase.ProtocolRegistry = (*Registry)(nil)
