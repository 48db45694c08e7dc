package simulated

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	abiadapter "github.com/trebuchet-org/proxyops/internal/adapters/abi"
)

var (
	managerSlot = common.Hash{}
	ltvScale    = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// ProxyConstructor runs the Proxy constructor(address manager)
func ProxyConstructor() Constructor {
	proxyABI := abiadapter.NewABIResolver().MustGet(abiadapter.ProxyInterface)

	return func(env *Env, args []byte) (Program, error) {
		values, err := proxyABI.Constructor.Inputs.Unpack(args)
		if err != nil {
			return nil, Revert("Proxy: malformed constructor arguments")
		}
		manager := values[0].(common.Address)
		env.Store(managerSlot, common.BytesToHash(manager.Bytes()))
		return proxyProgram(proxyABI), nil
	}
}

func proxyProgram(proxyABI *abi.ABI) Program {
	type call struct {
		To       common.Address
		Selector [4]byte
		Data     []byte
	}

	return func(env *Env, input []byte) ([]byte, error) {
		method, values, err := dispatch(proxyABI, input)
		if err != nil {
			return nil, err
		}
		manager := common.BytesToAddress(env.Load(managerSlot).Bytes())

		if !method.IsConstant() && env.Caller != manager {
			return nil, RevertCustom(proxyABI, "Unauthorized", env.Caller)
		}

		switch method.RawName {
		case "manager":
			return method.Outputs.Pack(manager)
		case "setManager":
			env.Store(managerSlot, common.BytesToHash(values[0].(common.Address).Bytes()))
			return nil, nil
		case "proxyCall":
			calls := *abi.ConvertType(values[0], new([]call)).(*[]call)
			results := make([][]byte, 0, len(calls))
			for _, c := range calls {
				data := append(bytes.Clone(c.Selector[:]), c.Data...)
				out, err := env.Call(c.To, data)
				if err != nil {
					return nil, err
				}
				results = append(results, out)
			}
			return method.Outputs.Pack(results)
		}
		return nil, Revert("Proxy: unsupported %s", method.Sig)
	}
}

// PoolOwnerSlot is where the extension keeps the owner of a pool
func PoolOwnerSlot(poolID [32]byte) common.Hash {
	return crypto.Keccak256Hash([]byte("owner"), poolID[:])
}

// ShutdownLTVSlot is where the extension keeps the shutdown max LTV of a pair
func ShutdownLTVSlot(poolID [32]byte, collateral, debt common.Address) common.Hash {
	return crypto.Keccak256Hash([]byte("shutdown_ltv"), poolID[:], collateral.Bytes(), debt.Bytes())
}

// InstallExtension places the protocol extension at address with the given pool owners
func InstallExtension(b *Backend, address common.Address, owners map[[32]byte]common.Address) {
	b.Install(address, []byte("Extension"), extensionProgram(abiadapter.NewABIResolver().MustGet(abiadapter.ExtensionInterface)))
	for pool, owner := range owners {
		b.SetStorage(address, PoolOwnerSlot(pool), common.BytesToHash(owner.Bytes()))
	}
}

func extensionProgram(extensionABI *abi.ABI) Program {
	type ltvConfig struct {
		MaxLtv uint64
	}

	return func(env *Env, input []byte) ([]byte, error) {
		method, values, err := dispatch(extensionABI, input)
		if err != nil {
			return nil, err
		}
		poolID := values[0].([32]byte)
		owner := common.BytesToAddress(env.Load(PoolOwnerSlot(poolID)).Bytes())

		if !method.IsConstant() && env.Caller != owner {
			return nil, Revert("caller-not-owner")
		}

		switch method.RawName {
		case "poolOwner":
			return method.Outputs.Pack(owner)
		case "setPoolOwner":
			env.Store(PoolOwnerSlot(poolID), common.BytesToHash(values[1].(common.Address).Bytes()))
			return nil, nil
		case "setShutdownLTVConfig":
			collateral := values[1].(common.Address)
			debt := values[2].(common.Address)
			config := *abi.ConvertType(values[3], new(ltvConfig)).(*ltvConfig)
			if new(big.Int).SetUint64(config.MaxLtv).Cmp(ltvScale) > 0 {
				return nil, Revert("invalid-ltv-config")
			}
			env.Store(ShutdownLTVSlot(poolID, collateral, debt), common.BigToHash(new(big.Int).SetUint64(config.MaxLtv)))
			return nil, nil
		}
		return nil, Revert("Extension: unsupported %s", method.Sig)
	}
}
