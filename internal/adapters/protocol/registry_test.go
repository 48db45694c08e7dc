package protocol

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

const yamlManifest = `singleton: "0x000000000000000000000000000000000000c0de"
extension: "0x0000000000000000000000000000000000e7e000"
assets:
  - symbol: WETH
    address: "0x00000000000000000000000000000000000000a1"
    decimals: 18
  - symbol: USDC
    address: "0x00000000000000000000000000000000000000a2"
    decimals: 6
pools:
  genesis-pool: "0x01"
  alpha-pool: "2"
`

const jsonManifest = `{
  "singleton": "0x000000000000000000000000000000000000c0de",
  "extension": "0x0000000000000000000000000000000000e7e000",
  "assets": [{"symbol": "WETH", "address": "0x00000000000000000000000000000000000000a1", "decimals": 18}],
  "pools": {"genesis-pool": "0x01"}
}`

func newTestRegistry(t *testing.T, files map[string]string) *Registry {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return NewRegistry(&config.RuntimeConfig{ProtocolDir: dir}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_LoadProtocol(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		registry := newTestRegistry(t, map[string]string{"deployment.sepolia.yaml": yamlManifest})

		snapshot, err := registry.LoadProtocol(context.Background(), "sepolia")
		require.NoError(t, err)
		assert.Equal(t, "sepolia", snapshot.Network)
		assert.Equal(t, common.HexToAddress("0xc0de"), snapshot.Singleton)
		assert.Equal(t, common.HexToAddress("0xe7e000"), snapshot.Extension)
		require.Len(t, snapshot.Assets, 2)
		assert.Equal(t, "USDC", snapshot.Assets[1].Symbol)
		assert.Equal(t, uint8(6), snapshot.Assets[1].Decimals)
		assert.Equal(t, []string{"alpha-pool", "genesis-pool"}, snapshot.PoolNames())

		pool, err := registry.LoadPool(snapshot, "alpha-pool")
		require.NoError(t, err)
		assert.Equal(t, [32]byte{31: 2}, pool.ID)
	})

	t.Run("json", func(t *testing.T) {
		registry := newTestRegistry(t, map[string]string{"deployment.mainnet.json": jsonManifest})

		snapshot, err := registry.LoadProtocol(context.Background(), "mainnet")
		require.NoError(t, err)
		pool, err := registry.LoadPool(snapshot, "genesis-pool")
		require.NoError(t, err)
		assert.Equal(t, [32]byte{31: 1}, pool.ID)
	})

	t.Run("yaml wins over json", func(t *testing.T) {
		registry := newTestRegistry(t, map[string]string{
			"deployment.sepolia.yaml": yamlManifest,
			"deployment.sepolia.json": jsonManifest,
		})
		snapshot, err := registry.LoadProtocol(context.Background(), "sepolia")
		require.NoError(t, err)
		assert.Len(t, snapshot.Assets, 2)
	})

	t.Run("missing manifest", func(t *testing.T) {
		registry := newTestRegistry(t, nil)
		_, err := registry.LoadProtocol(context.Background(), "sepolia")
		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "sepolia", notFound.Network)
		assert.Contains(t, notFound.Name, "deployment.sepolia.yaml")
	})

	t.Run("malformed manifest", func(t *testing.T) {
		registry := newTestRegistry(t, map[string]string{"deployment.sepolia.yaml": "pools: [unterminated"})
		_, err := registry.LoadProtocol(context.Background(), "sepolia")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("invalid address", func(t *testing.T) {
		registry := newTestRegistry(t, map[string]string{"deployment.sepolia.yaml": "singleton: nope\nextension: nope\n"})
		_, err := registry.LoadProtocol(context.Background(), "sepolia")
		require.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Contains(t, err.Error(), "singleton")
	})

	t.Run("invalid pool id", func(t *testing.T) {
		manifest := yamlManifest + "  broken: \"0xzz\"\n"
		registry := newTestRegistry(t, map[string]string{"deployment.sepolia.yaml": manifest})
		_, err := registry.LoadProtocol(context.Background(), "sepolia")
		require.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Contains(t, err.Error(), "pools.broken")
	})
}

func TestRegistry_LoadPoolSuggestions(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"deployment.sepolia.yaml": yamlManifest})
	snapshot, err := registry.LoadProtocol(context.Background(), "sepolia")
	require.NoError(t, err)

	_, err = registry.LoadPool(snapshot, "genesis")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "pool", notFound.Kind)
	assert.Equal(t, []string{"genesis-pool"}, notFound.Suggestions)

	// Nothing close lists every pool
	_, err = registry.LoadPool(snapshot, "zzz")
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"alpha-pool", "genesis-pool"}, notFound.Suggestions)
}

func TestParsePoolID(t *testing.T) {
	tests := []struct {
		raw     string
		want    [32]byte
		wantErr bool
	}{
		{raw: "0x01", want: [32]byte{31: 1}},
		{raw: "0X0a", want: [32]byte{31: 10}},
		{raw: "10", want: [32]byte{31: 10}},
		{raw: "010", want: [32]byte{31: 10}},
		{raw: " 255 ", want: [32]byte{31: 255}},
		{raw: "0x0100", want: [32]byte{30: 1}},
		{raw: "", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "pool", wantErr: true},
		{raw: "0x10000000000000000000000000000000000000000000000000000000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePoolID(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
