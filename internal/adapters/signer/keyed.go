package signer

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// KeyedSigner signs with a raw secp256k1 private key
type KeyedSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyedSigner parses a hex private key, with or without 0x prefix.
// The key itself never appears in errors.
func NewKeyedSigner(hexKey string) (*KeyedSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, domain.NewConfigurationError("PRIVATE_KEY", "is required")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, domain.NewConfigurationError("PRIVATE_KEY", "is not a valid secp256k1 private key")
	}
	return &KeyedSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the account controlled by the key
func (s *KeyedSigner) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID
func (s *KeyedSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// Loader builds keyed signers for the session resolver
type Loader struct{}

// NewLoader creates a signer loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the configured private key
func (Loader) Load(privateKey string) (usecase.Signer, error) {
	signer, err := NewKeyedSigner(privateKey)
	if err != nil {
		return nil, err
	}
	return signer, nil
}

var (
	_ usecase.Signer       = (*KeyedSigner)(nil)
	_ usecase.SignerLoader = (*Loader)(nil)
)
