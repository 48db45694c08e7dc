package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
	abiadapter "github.com/trebuchet-org/proxyops/internal/adapters/abi"
	"github.com/trebuchet-org/proxyops/internal/adapters/blockchain/simulated"
	"github.com/trebuchet-org/proxyops/internal/adapters/protocol"
	"github.com/trebuchet-org/proxyops/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/proxyops/internal/adapters/signer"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// Well-known local development keys
const (
	deployerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	operatorKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var (
	proxyBytecode = []byte{0x60, 0x80, 0x60, 0x40, 0x52, 0x34, 0x80, 0x15}

	singletonAddress = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	extensionAddress = common.HexToAddress("0x0000000000000000000000000000000000e7e000")
	wethAddress      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	usdcAddress      = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	genesisPool      = [32]byte{31: 0x01}
	alphaPool        = [32]byte{31: 0x02}
)

const manifest = `singleton: "%s"
extension: "%s"
assets:
  - symbol: WETH
    address: "%s"
    decimals: 18
  - symbol: USDC
    address: "%s"
    decimals: 6
pools:
  genesis-pool: "0x01"
  alpha-pool: "2"
`

type harness struct {
	t         *testing.T
	ctx       context.Context
	chain     *simulated.Backend
	cfg       *config.RuntimeConfig
	log       *slog.Logger
	abis      *abiadapter.ABIResolver
	composer  *usecase.ComposeCall
	locator   *usecase.LocateContract
	submitter *usecase.SubmitTransaction
	progress  *recordingProgress
	session   *usecase.Session
}

func newHarness(t *testing.T, opts ...simulated.Option) *harness {
	t.Helper()

	root := t.TempDir()
	cfg := &config.RuntimeConfig{
		ProjectRoot:  root,
		ArtifactsDir: filepath.Join(root, "out"),
		ProtocolDir:  filepath.Join(root, "deployments"),
		NetworkName:  "test",
	}
	writeProxyArtifact(t, cfg.ArtifactsDir)
	writeManifest(t, cfg.ProtocolDir, "test")

	chainOpts := append([]simulated.Option{simulated.WithTemplate(proxyBytecode, simulated.ProxyConstructor())}, opts...)
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		chain:    simulated.New(chainOpts...),
		cfg:      cfg,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		abis:     abiadapter.NewABIResolver(),
		composer: usecase.NewComposeCall(),
		progress: &recordingProgress{},
	}
	h.locator = usecase.NewLocateContract(contracts.NewRepository(cfg, h.log), h.abis, h.composer, h.log)
	h.submitter = usecase.NewSubmitTransaction(h.abis, nil, h.progress, h.log)
	h.session = h.newSession(deployerKey)
	return h
}

func (h *harness) newSession(key string) *usecase.Session {
	h.t.Helper()
	s, err := signer.NewKeyedSigner(key)
	require.NoError(h.t, err)

	return &usecase.Session{
		Network: &config.Network{Name: "test", ChainID: simulated.DefaultChainID, RPCURL: "simulated://"},
		ChainID: big.NewInt(simulated.DefaultChainID),
		Backend: h.chain,
		Signer:  s,
		Options: domain.SubmitOptions{
			MaxFee:        big.NewInt(1e18),
			Confirmations: 1,
			PollInterval:  time.Millisecond,
			Timeout:       5 * time.Second,
		},
	}
}

func (h *harness) handle(address common.Address, iface string) *usecase.ContractHandle {
	return usecase.NewContractHandle(address, iface, h.abis.MustGet(iface)).Bind(h.session)
}

func (h *harness) installExtension(owners map[[32]byte]common.Address) *usecase.ContractHandle {
	simulated.InstallExtension(h.chain, extensionAddress, owners)
	return h.handle(extensionAddress, abiadapter.ExtensionInterface)
}

func (h *harness) deployProxy(manager common.Address) *usecase.ContractHandle {
	h.t.Helper()
	result, err := h.deployer().Run(h.ctx, h.session, usecase.DeployProxyParams{Manager: manager.Hex()})
	require.NoError(h.t, err)
	return result.Proxy
}

func (h *harness) deployer() *usecase.DeployProxy {
	return usecase.NewDeployProxy(h.locator, h.composer, h.submitter, h.log)
}

func (h *harness) proxyCall() *usecase.ProxyCall {
	return usecase.NewProxyCall(
		usecase.NewInspectProxy(h.locator, h.composer),
		h.locator,
		h.composer,
		h.submitter,
		protocol.NewRegistry(h.cfg, h.log),
		usecase.NewActionRegistry(),
		h.log,
	)
}

func (h *harness) owner(pool [32]byte) common.Address {
	return common.BytesToAddress(h.chain.Storage(extensionAddress, simulated.PoolOwnerSlot(pool)).Bytes())
}

// submitAsync runs Submit in the background and waits until the transaction reached the node
func (h *harness) submitAsync(calls []domain.CallDescriptor) <-chan submitResult {
	h.t.Helper()
	before := len(h.chain.Sent())
	done := make(chan submitResult, 1)
	go func() {
		receipt, err := h.submitter.Submit(h.ctx, h.session, calls, nil)
		done <- submitResult{receipt: receipt, err: err}
	}()
	require.Eventually(h.t, func() bool { return len(h.chain.Sent()) > before }, 2*time.Second, time.Millisecond)
	return done
}

type submitResult struct {
	receipt *domain.TransactionReceipt
	err     error
}

func writeProxyArtifact(t *testing.T, dir string) {
	t.Helper()
	proxyABI, err := os.ReadFile(filepath.Join("..", "adapters", "abi", "interfaces", "Proxy.json"))
	require.NoError(t, err)

	artifact, err := json.Marshal(map[string]any{
		"abi":      json.RawMessage(proxyABI),
		"bytecode": map[string]string{"object": hexutil.Encode(proxyBytecode)},
	})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Proxy.sol"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Proxy.sol", "Proxy.json"), artifact, 0644))
}

func writeManifest(t *testing.T, dir, network string) {
	t.Helper()
	content := fmt.Sprintf(manifest, singletonAddress.Hex(), extensionAddress.Hex(), wethAddress.Hex(), usdcAddress.Hex())
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment."+network+".yaml"), []byte(content), 0644))
}

// recordingProgress keeps every stage it was told about
type recordingProgress struct {
	mu     sync.Mutex
	stages []string
}

func (p *recordingProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, event.Stage)
}

func (p *recordingProgress) Info(string)  {}
func (p *recordingProgress) Error(string) {}

func (p *recordingProgress) Stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stages...)
}
