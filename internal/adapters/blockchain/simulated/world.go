package simulated

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const maxCallDepth = 16

// Program is the behaviour of a deployed contract. Programs keep no state of
// their own: everything lives in storage reached through Env, so a reverted
// transaction can be discarded by dropping the world copy.
type Program func(env *Env, input []byte) ([]byte, error)

// Constructor runs init code arguments and returns the runtime program
type Constructor func(env *Env, args []byte) (Program, error)

// RevertError is returned by reverted calls. It carries revert data the same
// way a JSON-RPC node does.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string          { return "execution reverted: " + e.Reason }
func (e *RevertError) ErrorCode() int         { return 3 }
func (e *RevertError) ErrorData() interface{} { return hexutil.Encode(e.Data) }

var errorStringSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// Revert builds an Error(string) revert
func Revert(format string, args ...any) *RevertError {
	reason := fmt.Sprintf(format, args...)
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(reason)
	data := append(bytes.Clone(errorStringSelector), packed...)
	return &RevertError{Reason: reason, Data: data}
}

// RevertCustom builds a revert carrying a custom error
func RevertCustom(contractABI *abi.ABI, name string, args ...any) *RevertError {
	customErr, ok := contractABI.Errors[name]
	if !ok {
		return Revert("%s", name)
	}
	packed, err := customErr.Inputs.Pack(args...)
	if err != nil {
		return Revert("%s", name)
	}
	data := append(bytes.Clone(customErr.ID[:4]), packed...)
	return &RevertError{Reason: fmt.Sprintf("%s%v", name, args), Data: data}
}

type template struct {
	bytecode    []byte
	constructor Constructor
}

// world is the account state
type world struct {
	code     map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	programs map[common.Address]Program
	nonces   map[common.Address]uint64
}

func newWorld() *world {
	return &world{
		code:     make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		programs: make(map[common.Address]Program),
		nonces:   make(map[common.Address]uint64),
	}
}

func (w *world) clone() *world {
	c := &world{
		code:     maps.Clone(w.code),
		storage:  make(map[common.Address]map[common.Hash]common.Hash, len(w.storage)),
		programs: maps.Clone(w.programs),
		nonces:   maps.Clone(w.nonces),
	}
	for address, slots := range w.storage {
		c.storage[address] = maps.Clone(slots)
	}
	return c
}

// Env is what a running program can see and touch
type Env struct {
	Self   common.Address
	Caller common.Address
	Origin common.Address

	backend *Backend
	world   *world
	depth   int
}

// Load reads a storage slot of the running contract
func (e *Env) Load(key common.Hash) common.Hash {
	return e.world.storage[e.Self][key]
}

// Store writes a storage slot of the running contract
func (e *Env) Store(key, value common.Hash) {
	slots, ok := e.world.storage[e.Self]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		e.world.storage[e.Self] = slots
	}
	slots[key] = value
}

// Call invokes another contract with the running contract as caller
func (e *Env) Call(to common.Address, input []byte) ([]byte, error) {
	return e.backend.call(e.world, e.Self, e.Origin, to, input, e.depth+1)
}

// Create2 deploys init code from the running contract at the CREATE2 address
func (e *Env) Create2(salt [32]byte, initCode []byte) (common.Address, error) {
	address := crypto.CreateAddress2(e.Self, salt, crypto.Keccak256(initCode))
	return address, e.backend.create(e.world, e.Self, e.Origin, address, initCode, e.depth+1)
}

func (b *Backend) call(w *world, caller, origin, to common.Address, input []byte, depth int) ([]byte, error) {
	if depth > maxCallDepth {
		return nil, Revert("call depth exceeded")
	}
	program, ok := w.programs[to]
	if !ok {
		if len(w.code[to]) > 0 {
			return nil, Revert("no program for code at %s", to.Hex())
		}
		// Plain account: nothing to execute
		return nil, nil
	}
	env := &Env{Self: to, Caller: caller, Origin: origin, backend: b, world: w, depth: depth}
	out, err := program(env, input)
	if err != nil {
		return nil, asRevert(err)
	}
	return out, nil
}

func (b *Backend) create(w *world, deployer, origin, address common.Address, initCode []byte, depth int) error {
	if depth > maxCallDepth {
		return Revert("call depth exceeded")
	}
	if len(w.code[address]) > 0 {
		return Revert("contract already deployed at %s", address.Hex())
	}

	var match *template
	for i := range b.templates {
		t := &b.templates[i]
		if bytes.HasPrefix(initCode, t.bytecode) && (match == nil || len(t.bytecode) > len(match.bytecode)) {
			match = t
		}
	}
	if match == nil {
		return Revert("unknown init code")
	}

	env := &Env{Self: address, Caller: deployer, Origin: origin, backend: b, world: w, depth: depth}
	program, err := match.constructor(env, initCode[len(match.bytecode):])
	if err != nil {
		return asRevert(err)
	}
	w.code[address] = bytes.Clone(match.bytecode)
	w.programs[address] = program
	return nil
}

func asRevert(err error) error {
	if _, ok := err.(*RevertError); ok {
		return err
	}
	return Revert("%s", err.Error())
}
