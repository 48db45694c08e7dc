package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/proxyops/internal/domain"
)

// ProxyCallEntry mirrors the proxy's Call{to, selector, data} tuple
type ProxyCallEntry struct {
	To       common.Address
	Selector [4]byte
	Data     []byte
}

// Record is a named argument record keyed by ABI input name.
// Unnamed inputs are addressed as arg0, arg1, ...
type Record map[string]any

// ComposeCall turns (handle, function, record) into call descriptors. It never
// touches the network except for Query.
type ComposeCall struct{}

// NewComposeCall creates a new ComposeCall use case
func NewComposeCall() *ComposeCall {
	return &ComposeCall{}
}

// SelectorFromSignature computes the 4-byte selector of a canonical signature
// such as "transfer(address,uint256)"
func SelectorFromSignature(signature string) domain.Selector {
	var selector domain.Selector
	copy(selector[:], crypto.Keccak256([]byte(strings.ReplaceAll(signature, " ", "")))[:4])
	return selector
}

// Compose resolves function in the handle's interface and encodes record in ABI order
func (uc *ComposeCall) Compose(handle *ContractHandle, function string, record Record) (domain.CallDescriptor, error) {
	method, err := lookupMethod(handle, function)
	if err != nil {
		return domain.CallDescriptor{}, err
	}
	if !method.IsConstant() && !handle.IsBound() {
		return domain.CallDescriptor{}, &domain.EncodingError{Method: method.Sig, Err: domain.ErrHandleNotBound}
	}

	calldata, err := PackRecord(method.Sig, method.Inputs, record)
	if err != nil {
		return domain.CallDescriptor{}, err
	}

	var selector domain.Selector
	copy(selector[:], method.ID)
	return domain.NewCallDescriptor(handle.Address, selector, calldata, method.RawName), nil
}

// Decode recovers the function name and argument record from a descriptor
func (uc *ComposeCall) Decode(contractABI *abi.ABI, call domain.CallDescriptor) (string, Record, error) {
	if call.IsCreation() {
		return "", nil, &domain.EncodingError{Method: call.Method(), Err: errors.New("creation descriptors carry no function call")}
	}
	selector := call.Selector()
	method, err := contractABI.MethodById(selector[:])
	if err != nil {
		return "", nil, &domain.EncodingError{Method: selector.Hex(), Err: err}
	}

	values, err := method.Inputs.Unpack(call.Calldata())
	if err != nil {
		return "", nil, &domain.EncodingError{Method: method.Sig, Err: err}
	}

	record := make(Record, len(values))
	for i, input := range method.Inputs {
		record[argumentName(input, i)] = values[i]
	}
	return method.RawName, record, nil
}

// Query performs a read-only call through the handle's session and returns the unpacked outputs
func (uc *ComposeCall) Query(ctx context.Context, handle *ContractHandle, function string, record Record) ([]any, error) {
	method, err := lookupMethod(handle, function)
	if err != nil {
		return nil, err
	}
	if !handle.IsBound() {
		return nil, &domain.EncodingError{Method: method.Sig, Err: domain.ErrHandleNotBound}
	}

	call, err := uc.Compose(handle, function, record)
	if err != nil {
		return nil, err
	}

	session := handle.Session()
	to := handle.Address
	out, err := session.Backend.CallContract(ctx, ethereum.CallMsg{
		From: session.Address(),
		To:   &to,
		Data: call.Data(),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method.Sig, handle, err)
	}

	values, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, &domain.EncodingError{Method: method.Sig, Err: fmt.Errorf("unpacking result: %w", err)}
	}
	return values, nil
}

// QueryAddress is Query for functions returning a single address
func (uc *ComposeCall) QueryAddress(ctx context.Context, handle *ContractHandle, function string, record Record) (common.Address, error) {
	values, err := uc.Query(ctx, handle, function, record)
	if err != nil {
		return common.Address{}, err
	}
	if len(values) != 1 {
		return common.Address{}, &domain.EncodingError{Method: function, Err: fmt.Errorf("expected 1 return value, got %d", len(values))}
	}
	address, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, &domain.EncodingError{Method: function, Err: fmt.Errorf("expected address, got %T", values[0])}
	}
	return address, nil
}

// ProxyCalls wraps descriptors into a single proxyCall on the proxy handle
func (uc *ComposeCall) ProxyCalls(proxy *ContractHandle, calls ...domain.CallDescriptor) (domain.CallDescriptor, error) {
	if len(calls) == 0 {
		return domain.CallDescriptor{}, &domain.EncodingError{Method: "proxyCall", Err: errors.New("no calls to forward")}
	}

	entries := make([]ProxyCallEntry, 0, len(calls))
	for _, call := range calls {
		if call.IsCreation() {
			return domain.CallDescriptor{}, &domain.EncodingError{
				Method: "proxyCall",
				Err:    fmt.Errorf("cannot forward contract creation %q through the proxy", call.Method()),
			}
		}
		entries = append(entries, ProxyCallEntry{
			To:       *call.To(),
			Selector: call.Selector(),
			Data:     call.Calldata(),
		})
	}

	return uc.Compose(proxy, "proxyCall", Record{"calls": entries})
}

// PackRecord encodes a named record against an argument list. Missing, unknown
// and mistyped arguments are EncodingErrors.
func PackRecord(method string, args abi.Arguments, record Record) ([]byte, error) {
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = argumentName(arg, i)
	}

	unknown := lo.Filter(lo.Keys(record), func(key string, _ int) bool {
		return !lo.Contains(names, key)
	})
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &domain.EncodingError{Method: method, Argument: unknown[0], Err: fmt.Errorf("unknown argument (expected one of %s)", strings.Join(names, ", "))}
	}

	values := make([]any, len(args))
	for i, name := range names {
		value, ok := record[name]
		if !ok {
			return nil, &domain.EncodingError{Method: method, Argument: name, Err: errors.New("missing argument")}
		}
		values[i] = value
	}

	packed, err := args.Pack(values...)
	if err != nil {
		return nil, &domain.EncodingError{Method: method, Err: err}
	}
	return packed, nil
}

func lookupMethod(handle *ContractHandle, function string) (*abi.Method, error) {
	if handle == nil || handle.ABI == nil {
		return nil, &domain.EncodingError{Method: function, Err: errors.New("no contract interface")}
	}
	method, ok := handle.ABI.Methods[function]
	if !ok {
		return nil, &domain.EncodingError{Method: function, Err: fmt.Errorf("function not found in %s interface", handle.Interface)}
	}
	return &method, nil
}

func argumentName(arg abi.Argument, i int) string {
	if arg.Name != "" {
		return arg.Name
	}
	return fmt.Sprintf("arg%d", i)
}
