package usecase_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

func TestDeployProxy_Create2(t *testing.T) {
	h := newHarness(t)

	result, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{Manager: managerA.Hex()})
	require.NoError(t, err)

	assert.False(t, result.AlreadyDeployed)
	assert.Equal(t, managerA, result.Manager)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, "deployCreate2", result.Calls[0].Method())
	require.NotNil(t, result.Receipt)
	assert.Equal(t, domain.TxConfirmed, result.Receipt.State)
	assert.True(t, result.Proxy.IsBound())

	code, err := h.chain.CodeAt(h.ctx, result.Proxy.Address, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	t.Run("rerun is idempotent", func(t *testing.T) {
		again, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{Manager: managerA.Hex()})
		require.NoError(t, err)
		assert.True(t, again.AlreadyDeployed)
		assert.Nil(t, again.Receipt)
		assert.Equal(t, result.Proxy.Address, again.Proxy.Address)
		assert.Equal(t, managerA, again.Manager)
		assert.Len(t, h.chain.Sent(), 1)
	})
}

func TestDeployProxy_DefaultsToSessionAccount(t *testing.T) {
	h := newHarness(t)

	result, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{})
	require.NoError(t, err)
	assert.Equal(t, h.session.Address(), result.Manager)
}

func TestDeployProxy_Direct(t *testing.T) {
	h := newHarness(t)

	first, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{Manager: managerA.Hex(), Mode: usecase.DeployCreate})
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(h.session.Address(), 0), first.Proxy.Address)
	assert.Equal(t, managerA, first.Manager)
	require.Len(t, first.Calls, 1)
	assert.True(t, first.Calls[0].IsCreation())

	// Plain creation has no idempotency: every run deploys a new instance
	second, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{Manager: managerA.Hex(), Mode: usecase.DeployCreate})
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(h.session.Address(), 1), second.Proxy.Address)
	assert.False(t, second.AlreadyDeployed)
}

func TestDeployProxy_InvalidManager(t *testing.T) {
	h := newHarness(t)

	_, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{Manager: "0x1234"})
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PROXY_MANAGER", cfgErr.Key)
	assert.Empty(t, h.chain.Sent())
}

func TestInspectProxy(t *testing.T) {
	h := newHarness(t)
	proxy := h.deployProxy(managerA)
	inspect := usecase.NewInspectProxy(h.locator, h.composer)

	result, err := inspect.Run(h.ctx, h.session, proxy.Address.Hex())
	require.NoError(t, err)
	assert.Equal(t, proxy.Address, result.Proxy.Address)
	assert.Equal(t, managerA, result.Manager)

	t.Run("missing address", func(t *testing.T) {
		_, err := inspect.Run(h.ctx, h.session, "")
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "PROXY_ADDRESS", cfgErr.Key)
	})

	t.Run("no code at address", func(t *testing.T) {
		_, err := inspect.Run(h.ctx, h.session, common.HexToAddress("0x0000000000000000000000000000000000001234").Hex())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
