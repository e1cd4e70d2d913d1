package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RPCNotSet marks a chain without a known public endpoint.
const RPCNotSet = "RPC_NOT_SET"

// BroadcasterKind is the protocol family a relay contract belongs to.
type BroadcasterKind string

const (
	KindStorageProofs       BroadcasterKind = "storage_proofs"
	KindOptimism            BroadcasterKind = "optimism"
	KindOptimismGeneric     BroadcasterKind = "optimism_generic"
	KindArbitrum            BroadcasterKind = "arbitrum"
	KindArbitrumGeneric     BroadcasterKind = "arbitrum_generic"
	KindPolygonZkEVM        BroadcasterKind = "polygon_zkevm"
	KindPolygonZkEVMGeneric BroadcasterKind = "polygon_zkevm_generic"
	KindTaikoGeneric        BroadcasterKind = "taiko_generic"
)

// BroadcasterKinds lists every supported kind.
var BroadcasterKinds = []BroadcasterKind{
	KindStorageProofs,
	KindOptimism,
	KindOptimismGeneric,
	KindArbitrum,
	KindArbitrumGeneric,
	KindPolygonZkEVM,
	KindPolygonZkEVMGeneric,
	KindTaikoGeneric,
}

func (k BroadcasterKind) Valid() bool {
	for _, known := range BroadcasterKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Broadcaster is a deployed relay contract on the origin chain.
type Broadcaster struct {
	Name    string          `json:"name"`
	Kind    BroadcasterKind `json:"kind"`
	Address common.Address  `json:"address"`
}

// Chain is a destination chain reachable through a broadcaster.
type Chain struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	RPC         string         `json:"rpc"`
	Broadcaster Broadcaster    `json:"broadcaster"`
	Relayer     common.Address `json:"relayer"`
}

func (c Chain) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.ID)
}

// HasRPC reports whether an endpoint is configured.
func (c Chain) HasRPC() bool {
	return c.RPC != "" && c.RPC != RPCNotSet
}

// HasRelayer reports whether the relayer address is known.
func (c Chain) HasRelayer() bool {
	return c.Relayer != (common.Address{})
}

// BroadcastParams overrides broadcaster defaults. Unset fields let the
// broadcaster decide.
type BroadcastParams struct {
	// GasLimits holds one limit for every chunk or exactly one limit per chunk.
	GasLimits       []uint64 `json:"gasLimits,omitempty" yaml:"gas_limits,omitempty"`
	MaxFeePerGas    *big.Int `json:"maxFeePerGas,omitempty" yaml:"-"`
	DestinationData []byte   `json:"destinationData,omitempty" yaml:"-"`
	ForceUpdate     *bool    `json:"forceUpdate,omitempty" yaml:"force_update,omitempty"`
}

// GasLimitFor returns the override for chunk i of n, if any.
func (p *BroadcastParams) GasLimitFor(i, n int) (uint64, bool, error) {
	if p == nil || len(p.GasLimits) == 0 {
		return 0, false, nil
	}
	switch len(p.GasLimits) {
	case 1:
		return p.GasLimits[0], true, nil
	case n:
		return p.GasLimits[i], true, nil
	}
	return 0, false, &ConfigError{
		Field:  "gas_limits",
		Reason: fmt.Sprintf("got %d values for %d chunks", len(p.GasLimits), n),
	}
}

// HasDestinationData reports whether routing data was supplied.
func (p *BroadcastParams) HasDestinationData() bool {
	return p != nil && len(p.DestinationData) > 0
}
