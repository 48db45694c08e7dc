package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for the five failure kinds. Every typed error below
// matches exactly one of them through errors.Is.
var (
	// ErrConfiguration is returned when environment input is missing or invalid
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound is returned when a referenced contract, artifact or pool doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrEncoding is returned when arguments don't match the target interface
	ErrEncoding = errors.New("encoding error")

	// ErrFeeExceeded is returned when the quoted fee is above the configured ceiling
	ErrFeeExceeded = errors.New("fee exceeds ceiling")

	// ErrTransactionFailed is returned when the network rejects a transaction
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrHandleNotBound is returned when a state-mutating call targets a handle without a session
	ErrHandleNotBound = errors.New("contract handle is not bound to a session")
)

// ConfigurationError reports a missing or malformed configuration value.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
func (e *ConfigurationError) Unwrap() error        { return e.Err }

// NewConfigurationError is a shorthand used by the config and session layers
func NewConfigurationError(key, reason string) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason}
}

// NotFoundError reports that something referenced by the script does not exist.
type NotFoundError struct {
	Kind        string // "contract", "artifact", "pool", "manifest", "action"
	Name        string
	Network     string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s not found", e.Kind, e.Name)
	if e.Network != "" {
		fmt.Fprintf(&b, " on network %s", e.Network)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// EncodingError reports an argument/interface mismatch. It always indicates
// a bug in the calling script rather than a network condition.
type EncodingError struct {
	Method   string
	Argument string
	Err      error
}

func (e *EncodingError) Error() string {
	switch {
	case e.Argument != "":
		return fmt.Sprintf("encoding %s argument %q: %v", e.Method, e.Argument, e.Err)
	case e.Method != "":
		return fmt.Sprintf("encoding %s: %v", e.Method, e.Err)
	default:
		return fmt.Sprintf("encoding: %v", e.Err)
	}
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }
func (e *EncodingError) Unwrap() error        { return e.Err }

// FeeExceededError is returned before submission when gas * maxFeePerGas is above the ceiling.
type FeeExceededError struct {
	Required *big.Int
	Ceiling  *big.Int
	Gas      uint64
}

func (e *FeeExceededError) Error() string {
	return fmt.Sprintf("required fee %s wei (gas %d) exceeds max fee %s wei; raise MAX_FEE and rerun",
		e.Required, e.Gas, e.Ceiling)
}

func (e *FeeExceededError) Is(target error) bool { return target == ErrFeeExceeded }

// TransactionFailedError carries the network's reason verbatim.
type TransactionFailedError struct {
	Hash   common.Hash
	Stage  TxState
	Reason string
	Err    error
}

func (e *TransactionFailedError) Error() string {
	hash := "<unsent>"
	if e.Hash != (common.Hash{}) {
		hash = e.Hash.Hex()
	}
	return fmt.Sprintf("transaction %s rejected during %s: %s", hash, e.Stage.Phase(), e.Reason)
}

func (e *TransactionFailedError) Is(target error) bool { return target == ErrTransactionFailed }
func (e *TransactionFailedError) Unwrap() error        { return e.Err }
