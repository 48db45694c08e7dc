package domain

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Scale is the fixed-point unit used by the protocol for ratios such as LTV (1e18)
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Asset is one protocol asset
type Asset struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

// Pool is a named unit of protocol configuration referenced by its identifier
type Pool struct {
	Name string
	ID   [32]byte
}

// ProtocolSnapshot is a read-only view of a deployed protocol on one network
type ProtocolSnapshot struct {
	Network   string
	Singleton common.Address
	Extension common.Address
	Assets    []Asset
	pools     map[string]Pool
}

// NewProtocolSnapshot copies the given pools into a new snapshot
func NewProtocolSnapshot(network string, singleton, extension common.Address, assets []Asset, pools []Pool) *ProtocolSnapshot {
	p := &ProtocolSnapshot{
		Network:   network,
		Singleton: singleton,
		Extension: extension,
		Assets:    append([]Asset(nil), assets...),
		pools:     make(map[string]Pool, len(pools)),
	}
	for _, pool := range pools {
		p.pools[pool.Name] = pool
	}
	return p
}

// Pool looks up a pool by name
func (p *ProtocolSnapshot) Pool(name string) (Pool, bool) {
	pool, ok := p.pools[name]
	return pool, ok
}

// PoolNames returns all pool names in sorted order
func (p *ProtocolSnapshot) PoolNames() []string {
	names := make([]string, 0, len(p.pools))
	for name := range p.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Asset returns the asset at index i
func (p *ProtocolSnapshot) Asset(i int) (Asset, bool) {
	if i < 0 || i >= len(p.Assets) {
		return Asset{}, false
	}
	return p.Assets[i], true
}
