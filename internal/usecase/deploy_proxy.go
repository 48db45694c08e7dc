package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/proxyops/internal/domain"
)

// ProxyTemplate is the artifact name of the proxy contract
const ProxyTemplate = "Proxy"

// DeployProxyParams contains parameters for deploying a proxy
type DeployProxyParams struct {
	// Manager is the proxy manager address; empty uses the session account
	Manager string
	Salt    string
	Mode    DeployMode
}

// DeployProxyResult contains the result of deploying a proxy
type DeployProxyResult struct {
	Proxy           *ContractHandle
	Manager         common.Address
	Calls           []domain.CallDescriptor
	Receipt         *domain.TransactionReceipt
	AlreadyDeployed bool
}

// DeployProxy deploys the proxy contract and reads its manager back
type DeployProxy struct {
	locator   *LocateContract
	composer  *ComposeCall
	submitter *SubmitTransaction
	log       *slog.Logger
}

// NewDeployProxy creates a new DeployProxy use case
func NewDeployProxy(locator *LocateContract, composer *ComposeCall, submitter *SubmitTransaction, log *slog.Logger) *DeployProxy {
	return &DeployProxy{
		locator:   locator,
		composer:  composer,
		submitter: submitter,
		log:       log.With("component", "DeployProxy"),
	}
}

// Run executes the deployment
func (uc *DeployProxy) Run(ctx context.Context, session *Session, params DeployProxyParams) (*DeployProxyResult, error) {
	manager := session.Address()
	if strings.TrimSpace(params.Manager) != "" {
		parsed, err := ParseAddress("PROXY_MANAGER", params.Manager)
		if err != nil {
			return nil, err
		}
		manager = parsed
	}

	proxy, calls, err := uc.locator.Deploy(ctx, session, ProxyTemplate, Record{"manager": manager}, DeployOptions{
		Mode: params.Mode,
		Salt: params.Salt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare proxy deployment: %w", err)
	}

	result := &DeployProxyResult{Proxy: proxy, Calls: calls, AlreadyDeployed: len(calls) == 0}

	if !result.AlreadyDeployed {
		uc.log.Debug("deploying proxy", "address", proxy.Address.Hex(), "manager", manager.Hex(), "mode", params.Mode)
		receipt, err := uc.submitter.Submit(ctx, session, calls, nil)
		result.Receipt = receipt
		if err != nil {
			return result, err
		}
	}

	// The handle is only usable once code exists at the predicted address
	loaded, err := uc.locator.LoadByAddress(ctx, session, proxy.Address, ProxyTemplate)
	if err != nil {
		return result, fmt.Errorf("proxy not found after deployment: %w", err)
	}
	result.Proxy = loaded

	result.Manager, err = uc.composer.QueryAddress(ctx, loaded, "manager", nil)
	if err != nil {
		return result, fmt.Errorf("failed to read proxy manager: %w", err)
	}
	if result.Manager != manager && !result.AlreadyDeployed {
		uc.log.Warn("proxy manager differs from requested", "requested", manager.Hex(), "actual", result.Manager.Hex())
	}
	return result, nil
}
