package usecase

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
)

// Session is an authorized actor on one network. It is created once per
// invocation and closed at exit.
type Session struct {
	Network *config.Network
	ChainID *big.Int
	Backend ChainBackend
	Signer  Signer
	Options domain.SubmitOptions
}

// Address returns the signing account
func (s *Session) Address() common.Address {
	return s.Signer.Address()
}

// Close releases the backend connection
func (s *Session) Close() {
	if s != nil && s.Backend != nil {
		s.Backend.Close()
	}
}

// ContractHandle is a contract address plus the interface used to talk to it.
// State-mutating calls may only be composed once the handle is bound to a session.
type ContractHandle struct {
	Address   common.Address
	Interface string
	ABI       *abi.ABI
	session   *Session
}

// NewContractHandle creates an unbound handle
func NewContractHandle(address common.Address, iface string, contractABI *abi.ABI) *ContractHandle {
	return &ContractHandle{Address: address, Interface: iface, ABI: contractABI}
}

// Bind attaches the handle to a session and returns it
func (h *ContractHandle) Bind(session *Session) *ContractHandle {
	h.session = session
	return h
}

// Session returns the bound session or nil
func (h *ContractHandle) Session() *Session {
	return h.session
}

// IsBound reports whether a session is attached
func (h *ContractHandle) IsBound() bool {
	return h.session != nil
}

func (h *ContractHandle) String() string {
	return h.Interface + "@" + h.Address.Hex()
}

// ParseAddress validates a configured address value
func ParseAddress(key, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, domain.NewConfigurationError(key, "is required")
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, domain.NewConfigurationError(key, "\""+value+"\" is not a hex address")
	}
	return common.HexToAddress(value), nil
}
