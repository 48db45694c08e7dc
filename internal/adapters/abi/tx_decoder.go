package abi

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/proxyops/internal/domain"
)

// TransactionDecoder turns composed call descriptors back into a readable tree
type TransactionDecoder struct {
	resolver *ABIResolver
	log      *slog.Logger
	label    map[common.Address]string
	iface    map[common.Address]string
}

// NewTransactionDecoder creates a new transaction decoder
func NewTransactionDecoder(resolver *ABIResolver, log *slog.Logger) *TransactionDecoder {
	decoder := &TransactionDecoder{
		resolver: resolver,
		log:      log.With("component", "TxDecoder"),
		label:    make(map[common.Address]string),
		iface:    make(map[common.Address]string),
	}

	// Register well-known contracts
	decoder.Register(CreateXAddress, "CreateX", CreateXInterface)
	decoder.Register(Multicall3Address, "Multicall3", Multicall3Interface)

	return decoder
}

// Register labels an address and records which interface it speaks
func (td *TransactionDecoder) Register(address common.Address, label, iface string) {
	td.label[address] = label
	if iface != "" {
		td.iface[address] = iface
	}
}

// DecodedCall represents a human-readable call
type DecodedCall struct {
	To         *common.Address
	Label      string
	Method     string
	Selector   string
	Inputs     []DecodedInput
	Calls      []*DecodedCall
	IsCreation bool
	DataSize   int
}

// DecodedInput represents a decoded function input
type DecodedInput struct {
	Name  string
	Type  string
	Value any
}

// GetLabel returns the registered label for an address or its hex form
func (td *TransactionDecoder) GetLabel(to common.Address) string {
	if label, exists := td.label[to]; exists {
		return label
	}
	return to.Hex()
}

// Decode decodes a descriptor, descending into proxyCall and aggregate3 batches
func (td *TransactionDecoder) Decode(call domain.CallDescriptor) *DecodedCall {
	if call.IsCreation() {
		return &DecodedCall{
			Label:      "(new contract)",
			Method:     call.Method(),
			IsCreation: true,
			DataSize:   len(call.Calldata()),
		}
	}
	return td.decode(*call.To(), call.Data())
}

func (td *TransactionDecoder) decode(to common.Address, data []byte) *DecodedCall {
	target := to
	decoded := &DecodedCall{
		To:       &target,
		Label:    td.GetLabel(to),
		Method:   "unknown",
		DataSize: len(data),
	}
	if len(data) < 4 {
		return decoded
	}
	decoded.Selector = hexutil.Encode(data[:4])

	method := td.findMethod(to, data[:4])
	if method == nil {
		td.log.Debug("method not found", "address", to.Hex(), "selector", decoded.Selector)
		return decoded
	}
	decoded.Method = method.RawName

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		td.log.Debug("unable to unpack inputs", "method", method.Sig, "err", err)
		return decoded
	}
	for i, input := range method.Inputs {
		if i >= len(values) {
			break
		}
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		decoded.Inputs = append(decoded.Inputs, DecodedInput{
			Name:  name,
			Type:  input.Type.String(),
			Value: values[i],
		})
	}

	switch method.RawName {
	case "proxyCall", "aggregate3":
		if len(values) == 1 {
			decoded.Calls = td.decodeNested(values[0])
		}
	}
	return decoded
}

// decodeNested walks the anonymous structs produced by Unpack for
// Proxy.Call{to, selector, data} and Multicall3.Call3{target, allowFailure, callData}
func (td *TransactionDecoder) decodeNested(value any) []*DecodedCall {
	list := reflect.ValueOf(value)
	if list.Kind() != reflect.Slice {
		return nil
	}
	var calls []*DecodedCall
	for i := 0; i < list.Len(); i++ {
		item := list.Index(i)
		if item.Kind() != reflect.Struct {
			continue
		}
		if target := item.FieldByName("Target"); target.IsValid() {
			to, _ := target.Interface().(common.Address)
			data, _ := item.FieldByName("CallData").Interface().([]byte)
			calls = append(calls, td.decode(to, data))
			continue
		}
		to, _ := item.FieldByName("To").Interface().(common.Address)
		selector, _ := item.FieldByName("Selector").Interface().([4]byte)
		data, _ := item.FieldByName("Data").Interface().([]byte)
		calls = append(calls, td.decode(to, append(selector[:], data...)))
	}
	return calls
}

func (td *TransactionDecoder) findMethod(to common.Address, selector []byte) *abi.Method {
	ctx := context.Background()
	if name, ok := td.iface[to]; ok {
		if parsed, err := td.resolver.Get(ctx, name); err == nil {
			if method, err := parsed.MethodById(selector); err == nil {
				return method
			}
		}
	}
	for _, name := range td.resolver.Names() {
		parsed, err := td.resolver.Get(ctx, name)
		if err != nil {
			continue
		}
		if method, err := parsed.MethodById(selector); err == nil {
			return method
		}
	}
	return nil
}
