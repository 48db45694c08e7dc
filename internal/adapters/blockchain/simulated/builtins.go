package simulated

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CreateXSalt applies the CreateX guard for salts that are neither
// sender-permissioned nor cross-chain protected
func CreateXSalt(salt [32]byte) [32]byte {
	return crypto.Keccak256Hash(salt[:])
}

func createXProgram(createX *abi.ABI) Program {
	return func(env *Env, input []byte) ([]byte, error) {
		method, values, err := dispatch(createX, input)
		if err != nil {
			return nil, err
		}

		switch method.RawName {
		case "deployCreate2":
			salt := values[0].([32]byte)
			initCode := values[1].([]byte)
			address, err := env.Create2(CreateXSalt(salt), initCode)
			if err != nil {
				return nil, err
			}
			return method.Outputs.Pack(address)
		case "computeCreate2Address":
			salt := values[0].([32]byte)
			hash := values[1].([32]byte)
			return method.Outputs.Pack(crypto.CreateAddress2(env.Self, salt, hash[:]))
		}
		return nil, Revert("CreateX: unsupported %s", method.Sig)
	}
}

func multicall3Program(multicall *abi.ABI) Program {
	type call3 struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	}
	type result struct {
		Success    bool
		ReturnData []byte
	}

	return func(env *Env, input []byte) ([]byte, error) {
		method, values, err := dispatch(multicall, input)
		if err != nil {
			return nil, err
		}
		if method.RawName != "aggregate3" {
			return nil, Revert("Multicall3: unsupported %s", method.Sig)
		}

		calls := *abi.ConvertType(values[0], new([]call3)).(*[]call3)
		results := make([]result, 0, len(calls))
		for _, c := range calls {
			out, err := env.Call(c.Target, c.CallData)
			if err != nil && !c.AllowFailure {
				return nil, Revert("Multicall3: call failed")
			}
			results = append(results, result{Success: err == nil, ReturnData: out})
		}
		return method.Outputs.Pack(results)
	}
}

// dispatch resolves the selector and unpacks the inputs
func dispatch(contractABI *abi.ABI, input []byte) (*abi.Method, []any, error) {
	if len(input) < 4 {
		return nil, nil, Revert("missing selector")
	}
	method, err := contractABI.MethodById(input[:4])
	if err != nil {
		return nil, nil, Revert("unknown selector %x", input[:4])
	}
	values, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, nil, Revert("malformed calldata for %s", method.Sig)
	}
	return method, values, nil
}
