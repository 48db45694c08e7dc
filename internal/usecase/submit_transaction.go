package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/proxyops/internal/domain"
)

// ErrSubmissionDeclined is returned when the operator declines the confirmation prompt
var ErrSubmissionDeclined = errors.New("submission declined by operator")

const defaultPollInterval = 2 * time.Second

// Multicall3Entry mirrors Multicall3.Call3{target, allowFailure, callData}
type Multicall3Entry struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// SubmitTransaction sends composed calls as one transaction and waits for
// acceptance and finality
type SubmitTransaction struct {
	abis      ABIResolver
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewSubmitTransaction creates a new SubmitTransaction use case
func NewSubmitTransaction(abis ABIResolver, confirmer Confirmer, progress ProgressSink, log *slog.Logger) *SubmitTransaction {
	if confirmer == nil {
		confirmer = AutoConfirm{}
	}
	if progress == nil {
		progress = NopProgress{}
	}
	return &SubmitTransaction{
		abis:      abis,
		confirmer: confirmer,
		progress:  progress,
		log:       log.With("component", "SubmitTransaction"),
	}
}

// preparedTx is the unsigned transaction and its fee quote
type preparedTx struct {
	msg      ethereum.CallMsg
	nonce    uint64
	gas      uint64
	tipCap   *big.Int
	feeCap   *big.Int
	required *big.Int
}

// Submit sends calls as a single transaction. One call goes straight to its
// target, several calls go through Multicall3 aggregate3 with allowFailure=false
// so they execute all-or-nothing.
func (uc *SubmitTransaction) Submit(ctx context.Context, session *Session, calls []domain.CallDescriptor, opts *domain.SubmitOptions) (*domain.TransactionReceipt, error) {
	if opts == nil {
		opts = &session.Options
	}

	to, data, err := uc.payload(ctx, calls)
	if err != nil {
		return nil, err
	}

	prepared, err := uc.prepare(ctx, session, to, data)
	if err != nil {
		return nil, err
	}

	uc.log.Debug("fee quote", "gas", prepared.gas, "maxFeePerGas", prepared.feeCap, "required", prepared.required, "ceiling", opts.MaxFee)
	if opts.MaxFee != nil && prepared.required.Cmp(opts.MaxFee) > 0 {
		return nil, &domain.FeeExceededError{Required: prepared.required, Ceiling: new(big.Int).Set(opts.MaxFee), Gas: prepared.gas}
	}

	ok, err := uc.confirmer.Confirm(ctx, summarize(calls, prepared))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubmissionDeclined
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   session.ChainID,
		Nonce:     prepared.nonce,
		GasTipCap: prepared.tipCap,
		GasFeeCap: prepared.feeCap,
		Gas:       prepared.gas,
		To:        to,
		Data:      data,
	})
	signed, err := session.Signer.SignTx(tx, session.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	receipt := &domain.TransactionReceipt{
		Hash:      signed.Hash(),
		State:     domain.TxComposed,
		From:      session.Address(),
		To:        to,
		CallCount: len(calls),
	}

	if err := session.Backend.SendTransaction(ctx, signed); err != nil {
		receipt.State = domain.TxRejected
		receipt.Reason = revertReason(err)
		return receipt, &domain.TransactionFailedError{Hash: signed.Hash(), Stage: domain.TxSubmitted, Reason: receipt.Reason, Err: err}
	}
	uc.transition(ctx, receipt, domain.TxSubmitted, "Transaction sent "+receipt.Hash.Hex())

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	if err := uc.waitAccepted(waitCtx, session, receipt, interval); err != nil {
		return receipt, err
	}
	uc.transition(ctx, receipt, domain.TxPending, "Waiting for finality")

	if err := uc.waitFinal(waitCtx, session, receipt, prepared.msg, opts.Confirmations, interval); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// payload builds the transaction target and input for one or many calls
func (uc *SubmitTransaction) payload(ctx context.Context, calls []domain.CallDescriptor) (*common.Address, []byte, error) {
	switch len(calls) {
	case 0:
		return nil, nil, &domain.EncodingError{Err: errors.New("no calls to submit")}
	case 1:
		return calls[0].To(), calls[0].Data(), nil
	}

	entries := make([]Multicall3Entry, 0, len(calls))
	for _, call := range calls {
		if call.IsCreation() {
			return nil, nil, &domain.EncodingError{
				Method: "aggregate3",
				Err:    fmt.Errorf("contract creation %q cannot be batched with other calls", call.Method()),
			}
		}
		entries = append(entries, Multicall3Entry{Target: *call.To(), CallData: call.Data()})
	}

	multicall, err := uc.abis.Get(ctx, "Multicall3")
	if err != nil {
		return nil, nil, err
	}
	method := multicall.Methods["aggregate3"]
	packed, err := PackRecord(method.Sig, method.Inputs, Record{"calls": entries})
	if err != nil {
		return nil, nil, err
	}
	target := uc.abis.Addresses().Multicall3
	data := make([]byte, 0, len(method.ID)+len(packed))
	data = append(data, method.ID...)
	return &target, append(data, packed...), nil
}

// prepare fetches nonce and fees and estimates gas. Estimation failures are
// the network rejecting the call before anything is sent.
func (uc *SubmitTransaction) prepare(ctx context.Context, session *Session, to *common.Address, data []byte) (*preparedTx, error) {
	from := session.Address()
	nonce, err := session.Backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce for %s: %w", from.Hex(), err)
	}
	tipCap, err := session.Backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := session.Backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	baseFee := new(big.Int)
	if head.BaseFee != nil {
		baseFee.Set(head.BaseFee)
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tipCap)

	msg := ethereum.CallMsg{
		From:      from,
		To:        to,
		GasFeeCap: feeCap,
		GasTipCap: tipCap,
		Data:      data,
	}
	gas, err := session.Backend.EstimateGas(ctx, msg)
	if err != nil {
		reason := revertReason(err)
		return nil, &domain.TransactionFailedError{Stage: domain.TxComposed, Reason: reason, Err: err}
	}

	return &preparedTx{
		msg:      msg,
		nonce:    nonce,
		gas:      gas,
		tipCap:   tipCap,
		feeCap:   feeCap,
		required: new(big.Int).Mul(new(big.Int).SetUint64(gas), feeCap),
	}, nil
}

// waitAccepted polls until the node knows the transaction
func (uc *SubmitTransaction) waitAccepted(ctx context.Context, session *Session, receipt *domain.TransactionReceipt, interval time.Duration) error {
	return poll(ctx, interval, func() (bool, error) {
		_, _, err := session.Backend.TransactionByHash(ctx, receipt.Hash)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, ethereum.NotFound):
			return false, nil
		default:
			return false, fmt.Errorf("failed to look up transaction %s: %w", receipt.Hash.Hex(), err)
		}
	}, receipt)
}

// waitFinal polls for the receipt until it is confirmations blocks deep
func (uc *SubmitTransaction) waitFinal(ctx context.Context, session *Session, receipt *domain.TransactionReceipt, msg ethereum.CallMsg, confirmations uint64, interval time.Duration) error {
	if confirmations == 0 {
		confirmations = 1
	}

	var mined *types.Receipt
	err := poll(ctx, interval, func() (bool, error) {
		if mined == nil {
			r, err := session.Backend.TransactionReceipt(ctx, receipt.Hash)
			switch {
			case errors.Is(err, ethereum.NotFound):
				return false, nil
			case err != nil:
				return false, fmt.Errorf("failed to get receipt for %s: %w", receipt.Hash.Hex(), err)
			}
			mined = r
		}
		head, err := session.Backend.BlockNumber(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to get block number: %w", err)
		}
		inclusion := mined.BlockNumber.Uint64()
		return head >= inclusion && head-inclusion+1 >= confirmations, nil
	}, receipt)
	if err != nil {
		return err
	}

	receipt.BlockNumber = mined.BlockNumber.Uint64()
	receipt.GasUsed = mined.GasUsed
	if mined.EffectiveGasPrice != nil {
		receipt.EffectiveFee = new(big.Int).Mul(mined.EffectiveGasPrice, new(big.Int).SetUint64(mined.GasUsed))
	}

	if mined.Status == types.ReceiptStatusSuccessful {
		uc.transition(ctx, receipt, domain.TxConfirmed, fmt.Sprintf("Confirmed in block %d", receipt.BlockNumber))
		return nil
	}

	receipt.Reason = uc.replay(ctx, session, msg, mined.BlockNumber)
	uc.transition(ctx, receipt, domain.TxRejected, "Transaction reverted: "+receipt.Reason)
	return &domain.TransactionFailedError{Hash: receipt.Hash, Stage: domain.TxPending, Reason: receipt.Reason}
}

// replay re-executes the reverted call at its block to recover the revert reason
func (uc *SubmitTransaction) replay(ctx context.Context, session *Session, msg ethereum.CallMsg, block *big.Int) string {
	at := block
	if block != nil && block.Sign() > 0 {
		at = new(big.Int).Sub(block, big.NewInt(1))
	}
	msg.Gas = 0
	if _, err := session.Backend.CallContract(ctx, msg, at); err != nil {
		return revertReason(err)
	}
	return "execution reverted"
}

func (uc *SubmitTransaction) transition(ctx context.Context, receipt *domain.TransactionReceipt, next domain.TxState, message string) {
	if !receipt.State.CanTransition(next) {
		uc.log.Warn("unexpected state transition", "from", receipt.State, "to", next)
	}
	receipt.State = next
	uc.log.Debug("transaction state", "hash", receipt.Hash.Hex(), "state", next)
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    string(next),
		Message:  message,
		Spinner:  !next.IsTerminal(),
		Metadata: receipt.Hash,
	})
}

// poll runs check immediately and then every interval until it reports done
func poll(ctx context.Context, interval time.Duration, check func() (bool, error), receipt *domain.TransactionReceipt) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check()
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for %s of %s (the network may still include it): %w",
				receipt.State.Phase(), receipt.Hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// revertReason extracts a readable reason from a node error, decoding
// Error(string) revert data when the node attaches it
func revertReason(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}

func summarize(calls []domain.CallDescriptor, prepared *preparedTx) string {
	lines := make([]string, 0, len(calls)+1)
	for _, call := range calls {
		lines = append(lines, "  "+call.String())
	}
	lines = append(lines, fmt.Sprintf("gas %d, max fee %s wei", prepared.gas, prepared.required))
	return strings.Join(lines, "\n")
}
