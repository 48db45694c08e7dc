package abi

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

//go:embed interfaces/*.json
var interfaceFS embed.FS

// Interface names shipped with the binary
const (
	ProxyInterface      = "Proxy"
	ExtensionInterface  = "Extension"
	Multicall3Interface = "Multicall3"
	CreateXInterface    = "CreateX"
)

// Well-known contract addresses
var (
	// CreateX factory address (deployed on multiple chains)
	CreateXAddress = common.HexToAddress("0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed")

	// Multicall3 address (deployed on multiple chains)
	Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
)

// ABIResolver resolves interface names to parsed ABIs from the embedded set
type ABIResolver struct {
	mu    sync.Mutex
	cache map[string]*abi.ABI
}

// NewABIResolver creates a resolver over the embedded interfaces
func NewABIResolver() *ABIResolver {
	return &ABIResolver{cache: make(map[string]*abi.ABI)}
}

// Get returns the parsed ABI for the named interface
func (r *ABIResolver) Get(ctx context.Context, name string) (*abi.ABI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parsed, ok := r.cache[name]; ok {
		return parsed, nil
	}

	data, err := interfaceFS.ReadFile(path.Join("interfaces", name+".json"))
	if err != nil {
		return nil, &domain.NotFoundError{Kind: "interface", Name: name, Suggestions: r.names()}
	}

	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s interface: %w", name, err)
	}
	r.cache[name] = &parsed
	return &parsed, nil
}

// MustGet is like Get but panics on error. Only for interfaces embedded in the binary.
func (r *ABIResolver) MustGet(name string) *abi.ABI {
	parsed, err := r.Get(context.Background(), name)
	if err != nil {
		panic(err)
	}
	return parsed
}

// Names returns the embedded interface names
func (r *ABIResolver) Names() []string {
	return r.names()
}

func (r *ABIResolver) names() []string {
	entries, err := interfaceFS.ReadDir("interfaces")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Addresses returns the well-known helper contracts for the submission pipeline
func (r *ABIResolver) Addresses() usecase.WellKnownAddresses {
	return usecase.WellKnownAddresses{
		CreateX:    CreateXAddress,
		Multicall3: Multicall3Address,
	}
}

var _ usecase.ABIResolver = (*ABIResolver)(nil)
