package abi

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

var (
	testProxy     = common.HexToAddress("0x0000000000000000000000000000000000000bee")
	testExtension = common.HexToAddress("0x0000000000000000000000000000000000e7e000")
	testOwner     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func newTestDecoder() (*TransactionDecoder, *ABIResolver) {
	resolver := NewABIResolver()
	return NewTransactionDecoder(resolver, slog.New(slog.NewTextHandler(io.Discard, nil))), resolver
}

func boundHandle(resolver *ABIResolver, address common.Address, iface string) *usecase.ContractHandle {
	return usecase.NewContractHandle(address, iface, resolver.MustGet(iface)).Bind(&usecase.Session{})
}

func TestABIResolver(t *testing.T) {
	resolver := NewABIResolver()

	proxy, err := resolver.Get(context.Background(), ProxyInterface)
	require.NoError(t, err)
	assert.Contains(t, proxy.Methods, "proxyCall")
	assert.Contains(t, proxy.Methods, "setManager")

	again, err := resolver.Get(context.Background(), ProxyInterface)
	require.NoError(t, err)
	assert.Same(t, proxy, again)

	assert.Equal(t, []string{CreateXInterface, ExtensionInterface, Multicall3Interface, ProxyInterface}, resolver.Names())

	_, err = resolver.Get(context.Background(), "Vault")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "interface", notFound.Kind)
	assert.Contains(t, notFound.Suggestions, ProxyInterface)

	addresses := resolver.Addresses()
	assert.Equal(t, CreateXAddress, addresses.CreateX)
	assert.Equal(t, Multicall3Address, addresses.Multicall3)
}

func TestTransactionDecoder_ProxyCall(t *testing.T) {
	decoder, resolver := newTestDecoder()
	decoder.Register(testProxy, "Proxy", ProxyInterface)
	decoder.Register(testExtension, "Extension", ExtensionInterface)

	composer := usecase.NewComposeCall()
	inner, err := composer.Compose(boundHandle(resolver, testExtension, ExtensionInterface), "setPoolOwner", usecase.Record{
		"pool_id": [32]byte{31: 1},
		"owner":   testOwner,
	})
	require.NoError(t, err)
	outer, err := composer.ProxyCalls(boundHandle(resolver, testProxy, ProxyInterface), inner)
	require.NoError(t, err)

	decoded := decoder.Decode(outer)
	assert.Equal(t, "Proxy", decoded.Label)
	assert.Equal(t, "proxyCall", decoded.Method)
	require.Len(t, decoded.Calls, 1)

	child := decoded.Calls[0]
	assert.Equal(t, "Extension", child.Label)
	assert.Equal(t, "setPoolOwner", child.Method)
	assert.Equal(t, inner.Selector().Hex(), child.Selector)
	require.Len(t, child.Inputs, 2)
	assert.Equal(t, "pool_id", child.Inputs[0].Name)
	assert.Equal(t, "owner", child.Inputs[1].Name)
	assert.Equal(t, testOwner, child.Inputs[1].Value)
}

func TestTransactionDecoder_Aggregate3(t *testing.T) {
	decoder, resolver := newTestDecoder()
	decoder.Register(testExtension, "Extension", ExtensionInterface)

	multicall := resolver.MustGet(Multicall3Interface)
	method := multicall.Methods["aggregate3"]
	extension := resolver.MustGet(ExtensionInterface)

	first, err := extension.Pack("setPoolOwner", [32]byte{31: 1}, testOwner)
	require.NoError(t, err)
	second, err := extension.Pack("setPoolOwner", [32]byte{31: 2}, testOwner)
	require.NoError(t, err)

	packed, err := method.Inputs.Pack([]usecase.Multicall3Entry{
		{Target: testExtension, CallData: first},
		{Target: testExtension, CallData: second},
	})
	require.NoError(t, err)
	call := domain.NewCallDescriptor(Multicall3Address, domain.Selector(method.ID), packed, "aggregate3")

	decoded := decoder.Decode(call)
	assert.Equal(t, "Multicall3", decoded.Label)
	assert.Equal(t, "aggregate3", decoded.Method)
	require.Len(t, decoded.Calls, 2)
	for _, child := range decoded.Calls {
		assert.Equal(t, "Extension", child.Label)
		assert.Equal(t, "setPoolOwner", child.Method)
	}
}

func TestTransactionDecoder_Fallbacks(t *testing.T) {
	decoder, resolver := newTestDecoder()
	unknown := common.HexToAddress("0x0000000000000000000000000000000000001234")

	t.Run("unregistered address resolves through embedded interfaces", func(t *testing.T) {
		data, err := resolver.MustGet(ProxyInterface).Pack("setManager", testOwner)
		require.NoError(t, err)
		decoded := decoder.Decode(domain.NewCallDescriptor(unknown, domain.Selector(data[:4]), data[4:], "setManager"))
		assert.Equal(t, unknown.Hex(), decoded.Label)
		assert.Equal(t, "setManager", decoded.Method)
	})

	t.Run("unknown selector", func(t *testing.T) {
		decoded := decoder.Decode(domain.NewCallDescriptor(unknown, domain.Selector{0xde, 0xad, 0xbe, 0xef}, nil, "mystery"))
		assert.Equal(t, "unknown", decoded.Method)
		assert.Equal(t, "0xdeadbeef", decoded.Selector)
		assert.Empty(t, decoded.Inputs)
	})

	t.Run("creation", func(t *testing.T) {
		decoded := decoder.Decode(domain.NewCreationDescriptor([]byte{0x60, 0x80, 0x60}, "Proxy"))
		assert.True(t, decoded.IsCreation)
		assert.Nil(t, decoded.To)
		assert.Equal(t, "create Proxy", decoded.Method)
		assert.Equal(t, 3, decoded.DataSize)
	})
}
