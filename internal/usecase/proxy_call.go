package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/proxyops/internal/domain"
)

// ExtensionInterface is the interface name of the protocol extension
const ExtensionInterface = "Extension"

// Action names
const (
	ActionSetPoolOwner         = "set-pool-owner"
	ActionSetShutdownLTVConfig = "set-shutdown-ltv-config"
)

// ActionParams are the script inputs an action may consume
type ActionParams struct {
	PoolOwner  string
	Collateral int
	Debt       int
	MaxLTV     *big.Int
}

// ActionContext is everything an action needs to build its calls
type ActionContext struct {
	Session   *Session
	Protocol  *domain.ProtocolSnapshot
	Pool      domain.Pool
	Extension *ContractHandle
	Composer  *ComposeCall
	Params    ActionParams
}

// ProxyAction builds the inner calls the proxy forwards
type ProxyAction interface {
	Name() string
	Description() string
	Build(ctx context.Context, actx *ActionContext) ([]domain.CallDescriptor, error)
}

// ActionRegistry holds the named proxy actions
type ActionRegistry struct {
	actions map[string]ProxyAction
}

// NewActionRegistry creates a registry with the built-in actions
func NewActionRegistry() *ActionRegistry {
	r := &ActionRegistry{actions: make(map[string]ProxyAction)}
	r.Register(setPoolOwnerAction{})
	r.Register(setShutdownLTVAction{})
	return r
}

// Register adds or replaces an action
func (r *ActionRegistry) Register(action ProxyAction) {
	r.actions[action.Name()] = action
}

// Names returns the registered action names in sorted order
func (r *ActionRegistry) Names() []string {
	names := lo.Keys(r.actions)
	sort.Strings(names)
	return names
}

// Get looks up an action, suggesting close names when it is unknown
func (r *ActionRegistry) Get(name string) (ProxyAction, error) {
	if action, ok := r.actions[name]; ok {
		return action, nil
	}
	names := r.Names()
	suggestions := lo.Map(fuzzy.Find(name, names), func(m fuzzy.Match, _ int) string { return m.Str })
	if len(suggestions) == 0 {
		suggestions = names
	}
	return nil, &domain.NotFoundError{Kind: "action", Name: name, Suggestions: suggestions}
}

// ProxyCallParams contains parameters for a proxied action
type ProxyCallParams struct {
	ProxyAddress string
	PoolName     string
	Action       string
	Args         ActionParams
}

// ProxyCallResult contains the result of a proxied action
type ProxyCallResult struct {
	Proxy    *ContractHandle
	Manager  common.Address
	Protocol *domain.ProtocolSnapshot
	Pool     domain.Pool
	Action   string
	Inner    []domain.CallDescriptor
	Outer    domain.CallDescriptor
	Receipt  *domain.TransactionReceipt
}

// ProxyCall forwards a protocol administration action through the proxy
type ProxyCall struct {
	inspect   *InspectProxy
	locator   *LocateContract
	composer  *ComposeCall
	submitter *SubmitTransaction
	protocol  ProtocolRegistry
	actions   *ActionRegistry
	log       *slog.Logger
}

// NewProxyCall creates a new ProxyCall use case
func NewProxyCall(
	inspect *InspectProxy,
	locator *LocateContract,
	composer *ComposeCall,
	submitter *SubmitTransaction,
	protocol ProtocolRegistry,
	actions *ActionRegistry,
	log *slog.Logger,
) *ProxyCall {
	return &ProxyCall{
		inspect:   inspect,
		locator:   locator,
		composer:  composer,
		submitter: submitter,
		protocol:  protocol,
		actions:   actions,
		log:       log.With("component", "ProxyCall"),
	}
}

// Actions returns the action registry
func (uc *ProxyCall) Actions() *ActionRegistry {
	return uc.actions
}

// Run composes the action, wraps it in proxyCall and submits it
func (uc *ProxyCall) Run(ctx context.Context, session *Session, params ProxyCallParams) (*ProxyCallResult, error) {
	action, err := uc.actions.Get(params.Action)
	if err != nil {
		return nil, err
	}

	inspected, err := uc.inspect.Run(ctx, session, params.ProxyAddress)
	if err != nil {
		return nil, err
	}
	result := &ProxyCallResult{Proxy: inspected.Proxy, Manager: inspected.Manager, Action: action.Name()}

	protocol, err := uc.protocol.LoadProtocol(ctx, session.Network.Name)
	if err != nil {
		return result, err
	}
	result.Protocol = protocol
	result.Pool, err = uc.protocol.LoadPool(protocol, params.PoolName)
	if err != nil {
		return result, err
	}

	extension, err := uc.locator.LoadByAddress(ctx, session, protocol.Extension, ExtensionInterface)
	if err != nil {
		return result, err
	}

	result.Inner, err = action.Build(ctx, &ActionContext{
		Session:   session,
		Protocol:  protocol,
		Pool:      result.Pool,
		Extension: extension,
		Composer:  uc.composer,
		Params:    params.Args,
	})
	if err != nil {
		return result, err
	}

	result.Outer, err = uc.composer.ProxyCalls(inspected.Proxy, result.Inner...)
	if err != nil {
		return result, err
	}

	if inspected.Manager != session.Address() {
		uc.log.Warn("session account is not the proxy manager", "account", session.Address().Hex(), "manager", inspected.Manager.Hex())
	}

	uc.log.Debug("submitting proxy call", "action", action.Name(), "pool", result.Pool.Name, "calls", len(result.Inner))
	result.Receipt, err = uc.submitter.Submit(ctx, session, []domain.CallDescriptor{result.Outer}, nil)
	return result, err
}

// setPoolOwnerAction hands pool ownership to PoolOwner, or the session account
type setPoolOwnerAction struct{}

func (setPoolOwnerAction) Name() string { return ActionSetPoolOwner }
func (setPoolOwnerAction) Description() string {
	return "setPoolOwner(pool_id, owner) on the protocol extension"
}

func (setPoolOwnerAction) Build(ctx context.Context, actx *ActionContext) ([]domain.CallDescriptor, error) {
	owner := actx.Session.Address()
	if strings.TrimSpace(actx.Params.PoolOwner) != "" {
		parsed, err := ParseAddress("POOL_OWNER", actx.Params.PoolOwner)
		if err != nil {
			return nil, err
		}
		owner = parsed
	}

	call, err := actx.Composer.Compose(actx.Extension, "setPoolOwner", Record{
		"pool_id": actx.Pool.ID,
		"owner":   owner,
	})
	if err != nil {
		return nil, err
	}
	return []domain.CallDescriptor{call}, nil
}

// LTVConfig mirrors the extension's LTVConfig{max_ltv} tuple
type LTVConfig struct {
	MaxLtv uint64
}

// setShutdownLTVAction sets the shutdown max LTV of a collateral/debt pair
type setShutdownLTVAction struct{}

func (setShutdownLTVAction) Name() string { return ActionSetShutdownLTVConfig }
func (setShutdownLTVAction) Description() string {
	return "setShutdownLTVConfig(pool_id, collateral, debt, {max_ltv}) on the protocol extension"
}

func (setShutdownLTVAction) Build(ctx context.Context, actx *ActionContext) ([]domain.CallDescriptor, error) {
	collateral, ok := actx.Protocol.Asset(actx.Params.Collateral)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "asset", Name: fmt.Sprintf("#%d", actx.Params.Collateral), Network: actx.Protocol.Network}
	}
	debt, ok := actx.Protocol.Asset(actx.Params.Debt)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "asset", Name: fmt.Sprintf("#%d", actx.Params.Debt), Network: actx.Protocol.Network}
	}

	maxLTV := actx.Params.MaxLTV
	if maxLTV == nil {
		maxLTV = domain.Scale
	}
	if maxLTV.Sign() < 0 || !maxLTV.IsUint64() {
		return nil, &domain.EncodingError{Method: "setShutdownLTVConfig", Argument: "max_ltv", Err: fmt.Errorf("%s does not fit in uint64", maxLTV)}
	}

	call, err := actx.Composer.Compose(actx.Extension, "setShutdownLTVConfig", Record{
		"pool_id":          actx.Pool.ID,
		"collateral_asset": collateral.Address,
		"debt_asset":       debt.Address,
		"ltv_config":       LTVConfig{MaxLtv: maxLTV.Uint64()},
	})
	if err != nil {
		return nil, err
	}
	return []domain.CallDescriptor{call}, nil
}
