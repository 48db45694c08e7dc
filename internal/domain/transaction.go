package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TxState tracks a transaction through Composed -> Submitted -> Pending -> {Confirmed | Rejected}
type TxState string

const (
	TxComposed  TxState = "composed"
	TxSubmitted TxState = "submitted"
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxRejected  TxState = "rejected"
)

// IsTerminal reports whether no further transition is possible
func (s TxState) IsTerminal() bool {
	return s == TxConfirmed || s == TxRejected
}

// Phase names the wait a transaction in this state is going through
func (s TxState) Phase() string {
	switch s {
	case TxComposed:
		return "composition"
	case TxSubmitted:
		return "acceptance"
	case TxPending:
		return "finality"
	default:
		return string(s)
	}
}

// CanTransition reports whether next is a legal successor of s
func (s TxState) CanTransition(next TxState) bool {
	switch s {
	case TxComposed:
		return next == TxSubmitted || next == TxRejected
	case TxSubmitted:
		return next == TxPending || next == TxRejected
	case TxPending:
		return next == TxConfirmed || next == TxRejected
	default:
		return false
	}
}

// SubmitOptions are the per-transaction submission settings
type SubmitOptions struct {
	// MaxFee is the ceiling for gas * maxFeePerGas, in wei
	MaxFee *big.Int
	// Confirmations is the number of blocks (including the inclusion block) required for finality
	Confirmations uint64
	// PollInterval between acceptance/finality checks
	PollInterval time.Duration
	// Timeout bounds both waits together; zero means wait until the context ends
	Timeout time.Duration
}

// TransactionReceipt is the outcome reported by the network
type TransactionReceipt struct {
	Hash         common.Hash
	State        TxState
	From         common.Address
	To           *common.Address
	BlockNumber  uint64
	GasUsed      uint64
	EffectiveFee *big.Int
	CallCount    int
	Reason       string
}

// Succeeded reports whether the transaction reached Confirmed
func (r *TransactionReceipt) Succeeded() bool {
	return r != nil && r.State == TxConfirmed
}
