package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/proxyops/internal/domain"
)

// DeployMode selects how a template is deployed
type DeployMode int

const (
	// DeployCreate2 deploys through the CreateX factory at a salt-derived address
	DeployCreate2 DeployMode = iota
	// DeployCreate sends a plain contract creation transaction
	DeployCreate
)

func (m DeployMode) String() string {
	if m == DeployCreate {
		return "create"
	}
	return "create2"
}

// DeployOptions control Deploy
type DeployOptions struct {
	Mode DeployMode
	// Salt is hashed into the CREATE2 salt; empty derives it from template and arguments
	Salt string
}

// LocateContract produces handles for existing or to-be-deployed contracts
type LocateContract struct {
	artifacts ArtifactRepository
	abis      ABIResolver
	composer  *ComposeCall
	log       *slog.Logger
}

// NewLocateContract creates a new LocateContract use case
func NewLocateContract(artifacts ArtifactRepository, abis ABIResolver, composer *ComposeCall, log *slog.Logger) *LocateContract {
	return &LocateContract{
		artifacts: artifacts,
		abis:      abis,
		composer:  composer,
		log:       log.With("component", "LocateContract"),
	}
}

// LoadByAddress returns a handle bound to session for the contract at address.
// It fails with NotFoundError when the address holds no code.
func (uc *LocateContract) LoadByAddress(ctx context.Context, session *Session, address common.Address, iface string) (*ContractHandle, error) {
	contractABI, err := uc.abis.Get(ctx, iface)
	if err != nil {
		return nil, err
	}

	code, err := session.Backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
	}
	if len(code) == 0 {
		return nil, &domain.NotFoundError{Kind: "contract", Name: address.Hex(), Network: session.Network.Name}
	}

	uc.log.Debug("loaded contract", "interface", iface, "address", address.Hex(), "codeSize", len(code))
	return NewContractHandle(address, iface, contractABI).Bind(session), nil
}

// Deploy prepares the deployment of template with constructor arguments and
// returns the handle at the predicted address plus the calls that deploy it.
// The handle holds no code until those calls are submitted and confirmed.
// When code already exists at a CREATE2 address no calls are returned.
func (uc *LocateContract) Deploy(ctx context.Context, session *Session, templateName string, args Record, opts DeployOptions) (*ContractHandle, []domain.CallDescriptor, error) {
	template, err := uc.artifacts.GetTemplate(ctx, templateName)
	if err != nil {
		return nil, nil, err
	}

	ctorArgs, err := PackRecord(templateName+".constructor", template.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, nil, err
	}
	initCode := make([]byte, 0, len(template.Bytecode)+len(ctorArgs))
	initCode = append(initCode, template.Bytecode...)
	initCode = append(initCode, ctorArgs...)

	contractABI := template.ABI
	var (
		address common.Address
		calls   []domain.CallDescriptor
	)

	switch opts.Mode {
	case DeployCreate:
		nonce, err := session.Backend.PendingNonceAt(ctx, session.Address())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get nonce: %w", err)
		}
		address = crypto.CreateAddress(session.Address(), nonce)
		calls = []domain.CallDescriptor{domain.NewCreationDescriptor(initCode, templateName)}

	default:
		createX, err := uc.abis.Get(ctx, "CreateX")
		if err != nil {
			return nil, nil, err
		}
		factory := NewContractHandle(uc.abis.Addresses().CreateX, "CreateX", createX).Bind(session)

		salt := DeploySalt(templateName, opts.Salt, ctorArgs)
		address = crypto.CreateAddress2(factory.Address, crypto.Keccak256Hash(salt[:]), crypto.Keccak256(initCode))

		code, err := session.Backend.CodeAt(ctx, address, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
		}
		if len(code) > 0 {
			uc.log.Info("contract already deployed", "template", templateName, "address", address.Hex())
			return NewContractHandle(address, templateName, &contractABI).Bind(session), nil, nil
		}

		deploy, err := uc.composer.Compose(factory, "deployCreate2", Record{"salt": salt, "initCode": initCode})
		if err != nil {
			return nil, nil, err
		}
		calls = []domain.CallDescriptor{deploy}
	}

	uc.log.Debug("prepared deployment", "template", templateName, "mode", opts.Mode, "address", address.Hex(), "initCodeSize", len(initCode))
	return NewContractHandle(address, templateName, &contractABI).Bind(session), calls, nil
}

// DeploySalt derives the 32-byte CREATE2 salt. An explicit salt is namespaced
// by template; otherwise the constructor arguments make it unique per configuration.
func DeploySalt(template, salt string, ctorArgs []byte) [32]byte {
	if salt != "" {
		return crypto.Keccak256Hash([]byte(template + ":" + salt))
	}
	return crypto.Keccak256Hash([]byte(template+":"), ctorArgs)
}
