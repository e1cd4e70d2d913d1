package broadcast

import (
	"math/big"

	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
)

type callArgs struct {
	chainID     *big.Int
	chunk       []bindings.RelayMessage
	gasLimit    uint64
	maxFee      *big.Int
	destination []byte
	forceUpdate *bool
}

func (c callArgs) gas() *big.Int {
	return new(big.Int).SetUint64(c.gasLimit)
}

// withDestination appends routing data when it was supplied.
func (c callArgs) withDestination(args []any) []any {
	if len(c.destination) > 0 {
		return append(args, c.destination)
	}
	return args
}

type variant struct {
	// usesGas marks variants that pay for destination execution up front.
	usesGas bool
	// routingIndex is the destination_data field that must be set, or -1.
	routingIndex int
	args         func(callArgs) []any
}

var variants = map[domain.BroadcasterKind]variant{
	domain.KindStorageProofs: {
		routingIndex: -1,
		args: func(c callArgs) []any {
			return []any{c.chainID, c.chunk}
		},
	},
	domain.KindOptimism: {
		usesGas:      true,
		routingIndex: -1,
		args: func(c callArgs) []any {
			if c.gasLimit == 0 {
				return []any{c.chunk}
			}
			return []any{c.chunk, c.gas()}
		},
	},
	domain.KindOptimismGeneric: {
		usesGas:      true,
		routingIndex: 2,
		args: func(c callArgs) []any {
			return c.withDestination([]any{c.chainID, c.chunk, c.gas()})
		},
	},
	domain.KindArbitrum: {
		usesGas:      true,
		routingIndex: -1,
		args: func(c callArgs) []any {
			return []any{c.chunk, c.gas(), c.maxFee}
		},
	},
	domain.KindArbitrumGeneric: {
		usesGas:      true,
		routingIndex: 2,
		args: func(c callArgs) []any {
			return c.withDestination([]any{c.chainID, c.chunk, c.gas(), c.maxFee})
		},
	},
	domain.KindPolygonZkEVM: {
		routingIndex: -1,
		args: func(c callArgs) []any {
			if c.forceUpdate == nil {
				return []any{c.chunk}
			}
			return []any{c.chunk, *c.forceUpdate}
		},
	},
	domain.KindPolygonZkEVMGeneric: {
		routingIndex: 1,
		args: func(c callArgs) []any {
			force := true
			if c.forceUpdate != nil {
				force = *c.forceUpdate
			}
			return c.withDestination([]any{c.chainID, c.chunk, force})
		},
	},
	domain.KindTaikoGeneric: {
		routingIndex: 1,
		args: func(c callArgs) []any {
			return c.withDestination([]any{c.chainID, c.chunk})
		},
	},
}
