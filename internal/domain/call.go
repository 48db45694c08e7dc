package domain

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Selector is the 4-byte function identifier used for on-chain dispatch
type Selector [4]byte

// Hex returns the 0x-prefixed selector
func (s Selector) Hex() string {
	return hexutil.Encode(s[:])
}

func (s Selector) String() string {
	return s.Hex()
}

// CallDescriptor is one composed call: target, selector and ABI-encoded arguments.
// A nil target means contract creation, in which case Calldata holds the init code.
type CallDescriptor struct {
	to       *common.Address
	selector Selector
	calldata []byte
	method   string
}

// NewCallDescriptor builds an immutable call descriptor. The calldata is copied.
func NewCallDescriptor(to common.Address, selector Selector, calldata []byte, method string) CallDescriptor {
	target := to
	return CallDescriptor{
		to:       &target,
		selector: selector,
		calldata: bytes.Clone(calldata),
		method:   method,
	}
}

// NewCreationDescriptor builds a contract creation descriptor from init code
func NewCreationDescriptor(initCode []byte, template string) CallDescriptor {
	return CallDescriptor{
		calldata: bytes.Clone(initCode),
		method:   "create " + template,
	}
}

// To returns the target address, nil for contract creation
func (c CallDescriptor) To() *common.Address {
	if c.to == nil {
		return nil
	}
	to := *c.to
	return &to
}

// IsCreation reports whether the descriptor deploys a contract
func (c CallDescriptor) IsCreation() bool {
	return c.to == nil
}

func (c CallDescriptor) Selector() Selector { return c.selector }
func (c CallDescriptor) Method() string     { return c.method }

// Calldata returns a copy of the encoded arguments (without selector)
func (c CallDescriptor) Calldata() []byte {
	return bytes.Clone(c.calldata)
}

// Data returns the full transaction input: selector followed by calldata,
// or the init code for creation descriptors.
func (c CallDescriptor) Data() []byte {
	if c.IsCreation() {
		return bytes.Clone(c.calldata)
	}
	data := make([]byte, 0, len(c.selector)+len(c.calldata))
	data = append(data, c.selector[:]...)
	return append(data, c.calldata...)
}

func (c CallDescriptor) String() string {
	if c.IsCreation() {
		return fmt.Sprintf("%s (%d bytes init code)", c.method, len(c.calldata))
	}
	return fmt.Sprintf("%s.%s [%s] (%d bytes)", c.to.Hex(), c.method, c.selector, len(c.calldata))
}
