package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// InspectProxyResult contains the loaded proxy and its manager
type InspectProxyResult struct {
	Proxy   *ContractHandle
	Manager common.Address
}

// InspectProxy loads an existing proxy and reads its manager
type InspectProxy struct {
	locator  *LocateContract
	composer *ComposeCall
}

// NewInspectProxy creates a new InspectProxy use case
func NewInspectProxy(locator *LocateContract, composer *ComposeCall) *InspectProxy {
	return &InspectProxy{locator: locator, composer: composer}
}

// Run loads the proxy at address
func (uc *InspectProxy) Run(ctx context.Context, session *Session, address string) (*InspectProxyResult, error) {
	proxyAddress, err := ParseAddress("PROXY_ADDRESS", address)
	if err != nil {
		return nil, err
	}

	proxy, err := uc.locator.LoadByAddress(ctx, session, proxyAddress, ProxyTemplate)
	if err != nil {
		return nil, err
	}

	manager, err := uc.composer.QueryAddress(ctx, proxy, "manager", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy manager: %w", err)
	}
	return &InspectProxyResult{Proxy: proxy, Manager: manager}, nil
}
