package contracts

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

const proxyABI = `[{"type":"constructor","inputs":[{"name":"manager","type":"address"}]},{"type":"function","name":"manager","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`

func writeArtifact(t *testing.T, root, rel, bytecode string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	content := `{"abi":` + proxyABI + `,"bytecode":{"object":"` + bytecode + `"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestRepository(root string) *Repository {
	return NewRepository(&config.RuntimeConfig{ArtifactsDir: root}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRepository_GetTemplate(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "Proxy.sol/Proxy.json", "0x60806040")
	writeArtifact(t, root, "proxies/Managed.sol/ManagedProxy.json", "60806041")
	writeArtifact(t, root, "Abstract.sol/Abstract.json", "0x")
	writeArtifact(t, root, "Linked.sol/Linked.json", "0x6080__$1234567890abcdef$__")
	writeArtifact(t, root, "build-info/Hidden.json", "0x6080")
	repo := newTestRepository(root)

	t.Run("conventional path", func(t *testing.T) {
		template, err := repo.GetTemplate(context.Background(), "Proxy")
		require.NoError(t, err)
		assert.Equal(t, "Proxy", template.Name)
		assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40}, template.Bytecode)
		assert.Equal(t, filepath.Join(root, "Proxy.sol", "Proxy.json"), template.Path)
		assert.Len(t, template.ABI.Constructor.Inputs, 1)

		cached, err := repo.GetTemplate(context.Background(), "Proxy")
		require.NoError(t, err)
		assert.Same(t, template, cached)
	})

	t.Run("contract in a differently named file", func(t *testing.T) {
		template, err := repo.GetTemplate(context.Background(), "ManagedProxy")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x41}, template.Bytecode)
	})

	t.Run("missing with suggestions", func(t *testing.T) {
		_, err := repo.GetTemplate(context.Background(), "Prox")
		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "artifact", notFound.Kind)
		assert.Contains(t, notFound.Suggestions, "Proxy")
		assert.NotContains(t, notFound.Suggestions, "Hidden")
	})

	t.Run("build info is skipped", func(t *testing.T) {
		_, err := repo.GetTemplate(context.Background(), "Hidden")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no creation bytecode", func(t *testing.T) {
		_, err := repo.GetTemplate(context.Background(), "Abstract")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no creation bytecode")
	})

	t.Run("unlinked libraries", func(t *testing.T) {
		_, err := repo.GetTemplate(context.Background(), "Linked")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unlinked")
	})
}

func TestRepository_MalformedArtifact(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Proxy.sol"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Proxy.sol", "Proxy.json"), []byte("{"), 0644))

	_, err := newTestRepository(root).GetTemplate(context.Background(), "Proxy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse artifact")
}
