package domain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ContractTemplate is a compiled contract ready to be deployed
type ContractTemplate struct {
	Name     string
	Path     string
	ABI      abi.ABI
	Bytecode []byte
}
