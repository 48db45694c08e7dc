// Package simulated is an in-memory chain that speaks the ChainBackend
// interface. Contracts are Go programs matched by their bytecode instead of
// EVM bytecode, which is enough to exercise the submission pipeline end to end.
package simulated

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	abiadapter "github.com/trebuchet-org/proxyops/internal/adapters/abi"
)

const (
	// DefaultChainID matches the local networks (test, anvil, localhost)
	DefaultChainID = 31337

	txGas       = 21000
	createGas   = 32000
	executeGas  = 30000
	zeroByteGas = 4
	byteGas     = 16
)

// ErrClosed is returned by every call after Close
var ErrClosed = errors.New("simulated backend closed")

type txRecord struct {
	tx      *types.Transaction
	from    common.Address
	receipt *types.Receipt
}

// Backend is the simulated chain
type Backend struct {
	mu sync.Mutex

	chainID  *big.Int
	signer   types.Signer
	baseFee  *big.Int
	tipCap   *big.Int
	autoMine bool

	world     *world
	templates []template
	head      uint64
	pending   []*txRecord
	txs       map[common.Hash]*txRecord
	sent      []*types.Transaction
	closed    bool
	estimates int
}

// Option configures a Backend
type Option func(*Backend)

// WithChainID sets the chain id reported by the backend
func WithChainID(id uint64) Option {
	return func(b *Backend) { b.chainID = new(big.Int).SetUint64(id) }
}

// WithBaseFee sets the base fee of every block
func WithBaseFee(fee *big.Int) Option {
	return func(b *Backend) { b.baseFee = new(big.Int).Set(fee) }
}

// WithTipCap sets the suggested priority fee
func WithTipCap(tip *big.Int) Option {
	return func(b *Backend) { b.tipCap = new(big.Int).Set(tip) }
}

// WithAutoMine controls whether every sent transaction is mined immediately.
// When disabled, transactions stay pending until Commit.
func WithAutoMine(enabled bool) Option {
	return func(b *Backend) { b.autoMine = enabled }
}

// WithTemplate registers a contract template by its creation bytecode
func WithTemplate(bytecode []byte, constructor Constructor) Option {
	return func(b *Backend) { b.RegisterTemplate(bytecode, constructor) }
}

// New creates a simulated chain with CreateX and Multicall3 preinstalled
func New(opts ...Option) *Backend {
	b := &Backend{
		chainID:  big.NewInt(DefaultChainID),
		baseFee:  big.NewInt(1_000_000),
		tipCap:   big.NewInt(1_000_000),
		autoMine: true,
		world:    newWorld(),
		txs:      make(map[common.Hash]*txRecord),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.signer = types.LatestSignerForChainID(b.chainID)

	resolver := abiadapter.NewABIResolver()
	b.Install(abiadapter.CreateXAddress, []byte("CreateX"), createXProgram(resolver.MustGet(abiadapter.CreateXInterface)))
	b.Install(abiadapter.Multicall3Address, []byte("Multicall3"), multicall3Program(resolver.MustGet(abiadapter.Multicall3Interface)))
	return b
}

// RegisterTemplate makes init code starting with bytecode deployable
func (b *Backend) RegisterTemplate(bytecode []byte, constructor Constructor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(bytecode) == 0 {
		panic("simulated: empty template bytecode")
	}
	b.templates = append(b.templates, template{bytecode: bytes.Clone(bytecode), constructor: constructor})
}

// Install places a program at address as if it had been deployed
func (b *Backend) Install(address common.Address, code []byte, program Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.world.code[address] = bytes.Clone(code)
	b.world.programs[address] = program
}

// SetStorage writes a storage slot directly
func (b *Backend) SetStorage(address common.Address, key, value common.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	slots, ok := b.world.storage[address]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		b.world.storage[address] = slots
	}
	slots[key] = value
}

// Storage reads a storage slot directly
func (b *Backend) Storage(address common.Address, key common.Hash) common.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.world.storage[address][key]
}

// Commit mines every pending transaction into a new block, or an empty block
// when nothing is pending
func (b *Backend) Commit() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mineLocked()
	return b.head
}

// Sent returns every transaction accepted by SendTransaction
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// Closed reports whether Close was called
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.head, nil
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	height := b.head
	if number != nil {
		if !number.IsUint64() || number.Uint64() > b.head {
			return nil, ethereum.NotFound
		}
		height = number.Uint64()
	}
	return &types.Header{
		Number:  new(big.Int).SetUint64(height),
		BaseFee: new(big.Int).Set(b.baseFee),
		Time:    uint64(time.Now().Unix()),
	}, nil
}

func (b *Backend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return bytes.Clone(b.world.code[account]), nil
}

// CallContract executes msg against the latest state without keeping changes
func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	scratch := b.world.clone()
	return b.execute(scratch, msg.From, msg.To, msg.Data, scratch.nonces[msg.From])
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.pendingNonceLocked(account), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return new(big.Int).Set(b.tipCap), nil
}

// EstimateGas runs msg on a scratch copy and charges intrinsic plus a flat execution cost
func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	b.estimates++
	scratch := b.world.clone()
	if _, err := b.execute(scratch, msg.From, msg.To, msg.Data, b.pendingNonceLocked(msg.From)); err != nil {
		return 0, err
	}
	return intrinsicGas(msg.To, msg.Data), nil
}

// Estimates returns how many gas estimations were requested
func (b *Backend) Estimates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.estimates
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	from, err := types.Sender(b.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.ChainId().Cmp(b.chainID) != 0 {
		return fmt.Errorf("invalid chain id: have %s, want %s", tx.ChainId(), b.chainID)
	}
	if want := b.pendingNonceLocked(from); tx.Nonce() != want {
		return fmt.Errorf("invalid nonce: have %d, want %d", tx.Nonce(), want)
	}
	if tx.GasFeeCap().Cmp(b.baseFee) < 0 {
		return fmt.Errorf("max fee per gas less than block base fee: maxFeePerGas: %s baseFee: %s", tx.GasFeeCap(), b.baseFee)
	}
	if tx.Gas() < intrinsicGas(tx.To(), tx.Data()) {
		return errors.New("intrinsic gas too low")
	}
	if _, exists := b.txs[tx.Hash()]; exists {
		return errors.New("already known")
	}

	record := &txRecord{tx: tx, from: from}
	b.txs[tx.Hash()] = record
	b.pending = append(b.pending, record)
	b.sent = append(b.sent, tx)

	if b.autoMine {
		b.mineLocked()
	}
	return nil
}

func (b *Backend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false, ErrClosed
	}
	record, ok := b.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return record.tx, record.receipt == nil, nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	record, ok := b.txs[hash]
	if !ok || record.receipt == nil {
		return nil, ethereum.NotFound
	}
	return record.receipt, nil
}

func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *Backend) pendingNonceLocked(account common.Address) uint64 {
	nonce := b.world.nonces[account]
	for _, record := range b.pending {
		if record.from == account {
			nonce++
		}
	}
	return nonce
}

// mineLocked includes all pending transactions in the next block. Each
// transaction runs on its own copy of the world, kept only on success.
func (b *Backend) mineLocked() {
	b.head++
	number := new(big.Int).SetUint64(b.head)

	for i, record := range b.pending {
		tx := record.tx
		scratch := b.world.clone()
		_, err := b.execute(scratch, record.from, tx.To(), tx.Data(), tx.Nonce())

		status := types.ReceiptStatusSuccessful
		if err != nil {
			status = types.ReceiptStatusFailed
		} else {
			b.world = scratch
		}
		b.world.nonces[record.from] = tx.Nonce() + 1

		receipt := &types.Receipt{
			Type:              tx.Type(),
			Status:            status,
			TxHash:            tx.Hash(),
			GasUsed:           intrinsicGas(tx.To(), tx.Data()),
			EffectiveGasPrice: effectiveGasPrice(tx, b.baseFee),
			BlockNumber:       number,
			TransactionIndex:  uint(i),
		}
		if tx.To() == nil && status == types.ReceiptStatusSuccessful {
			receipt.ContractAddress = crypto.CreateAddress(record.from, tx.Nonce())
		}
		receipt.CumulativeGasUsed = receipt.GasUsed
		record.receipt = receipt
	}
	b.pending = nil
}

// execute runs a message from an externally owned account
func (b *Backend) execute(w *world, from common.Address, to *common.Address, data []byte, nonce uint64) ([]byte, error) {
	if to == nil {
		address := crypto.CreateAddress(from, nonce)
		if err := b.create(w, from, from, address, data, 1); err != nil {
			return nil, err
		}
		return address.Bytes(), nil
	}
	return b.call(w, from, from, *to, data, 1)
}

func intrinsicGas(to *common.Address, data []byte) uint64 {
	gas := uint64(txGas + executeGas)
	if to == nil {
		gas += createGas
	}
	for _, c := range data {
		if c == 0 {
			gas += zeroByteGas
		} else {
			gas += byteGas
		}
	}
	return gas
}

func effectiveGasPrice(tx *types.Transaction, baseFee *big.Int) *big.Int {
	price := new(big.Int).Add(baseFee, tx.GasTipCap())
	if price.Cmp(tx.GasFeeCap()) > 0 {
		price.Set(tx.GasFeeCap())
	}
	return price
}
