package usecase_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abiadapter "github.com/trebuchet-org/proxyops/internal/adapters/abi"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

var managerA = common.HexToAddress("0x000000000000000000000000000000000000aaaa")

func TestLocateContract_DeployCreate2(t *testing.T) {
	h := newHarness(t)

	proxy, calls, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{"manager": managerA}, usecase.DeployOptions{})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, abiadapter.CreateXAddress, *calls[0].To())
	assert.Equal(t, "deployCreate2", calls[0].Method())
	assert.True(t, proxy.IsBound())

	// Nothing exists until the deployment is confirmed
	_, err = h.locator.LoadByAddress(h.ctx, h.session, proxy.Address, abiadapter.ProxyInterface)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "contract", notFound.Kind)
	assert.Equal(t, "test", notFound.Network)

	_, err = h.submitter.Submit(h.ctx, h.session, calls, nil)
	require.NoError(t, err)

	loaded, err := h.locator.LoadByAddress(h.ctx, h.session, proxy.Address, abiadapter.ProxyInterface)
	require.NoError(t, err)
	assert.Equal(t, proxy.Address, loaded.Address)

	manager, err := h.composer.QueryAddress(h.ctx, loaded, "manager", nil)
	require.NoError(t, err)
	assert.Equal(t, managerA, manager)

	t.Run("same configuration is already deployed", func(t *testing.T) {
		again, calls, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{"manager": managerA}, usecase.DeployOptions{})
		require.NoError(t, err)
		assert.Empty(t, calls)
		assert.Equal(t, proxy.Address, again.Address)
	})

	t.Run("other arguments give another address", func(t *testing.T) {
		other, calls, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{"manager": wethAddress}, usecase.DeployOptions{})
		require.NoError(t, err)
		assert.Len(t, calls, 1)
		assert.NotEqual(t, proxy.Address, other.Address)
	})

	t.Run("salt gives another address", func(t *testing.T) {
		salted, calls, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{"manager": managerA}, usecase.DeployOptions{Salt: "v2"})
		require.NoError(t, err)
		assert.Len(t, calls, 1)
		assert.NotEqual(t, proxy.Address, salted.Address)
	})
}

func TestLocateContract_DeployCreate(t *testing.T) {
	h := newHarness(t)

	proxy, calls, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{"manager": managerA}, usecase.DeployOptions{Mode: usecase.DeployCreate})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].IsCreation())
	assert.Equal(t, crypto.CreateAddress(h.session.Address(), 0), proxy.Address)

	receipt, err := h.submitter.Submit(h.ctx, h.session, calls, nil)
	require.NoError(t, err)
	assert.Nil(t, receipt.To)

	_, err = h.locator.LoadByAddress(h.ctx, h.session, proxy.Address, abiadapter.ProxyInterface)
	require.NoError(t, err)
}

func TestLocateContract_DeployErrors(t *testing.T) {
	h := newHarness(t)

	t.Run("missing artifact", func(t *testing.T) {
		_, _, err := h.locator.Deploy(h.ctx, h.session, "Prox", usecase.Record{}, usecase.DeployOptions{})
		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "artifact", notFound.Kind)
		assert.Contains(t, notFound.Suggestions, "Proxy")
	})

	t.Run("bad constructor arguments", func(t *testing.T) {
		_, calls, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{"manager": "not-an-address"}, usecase.DeployOptions{})
		assert.ErrorIs(t, err, domain.ErrEncoding)
		assert.Empty(t, calls)
	})

	t.Run("missing constructor argument", func(t *testing.T) {
		_, _, err := h.locator.Deploy(h.ctx, h.session, "Proxy", usecase.Record{}, usecase.DeployOptions{})
		var encErr *domain.EncodingError
		require.ErrorAs(t, err, &encErr)
		assert.Equal(t, "manager", encErr.Argument)
	})
}

func TestDeploySalt(t *testing.T) {
	args := []byte{0x01, 0x02}
	assert.Equal(t, usecase.DeploySalt("Proxy", "", args), usecase.DeploySalt("Proxy", "", args))
	assert.NotEqual(t, usecase.DeploySalt("Proxy", "", args), usecase.DeploySalt("Proxy", "", []byte{0x03}))
	assert.NotEqual(t, usecase.DeploySalt("Proxy", "a", args), usecase.DeploySalt("Vault", "a", args))
	// An explicit salt ignores the arguments
	assert.Equal(t, usecase.DeploySalt("Proxy", "a", args), usecase.DeploySalt("Proxy", "a", nil))
}
