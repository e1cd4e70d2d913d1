package bindings

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

const messagesInput = `{"name":"_messages","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"data","type":"bytes"}]}`

// Relay contract ABIs per broadcaster kind. Overloads with optional trailing
// arguments are declared separately; go-ethereum names the second one
// broadcast0, so callers select them with MethodByArity.
var (
	StorageProofsBroadcasterMetaData = bind.MetaData{
		ID: "StorageProofsBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `],"outputs":[]}
]`,
	}

	OptimismBroadcasterMetaData = bind.MetaData{
		ID: "OptimismBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[` + messagesInput + `],"outputs":[]},
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[` + messagesInput + `,{"name":"_gas_limit","type":"uint256"}],"outputs":[]}
]`,
	}

	OptimismGenericBroadcasterMetaData = bind.MetaData{
		ID: "OptimismGenericBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_gas_limit","type":"uint256"}],"outputs":[]},
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_gas_limit","type":"uint256"},{"name":"_destination_data","type":"bytes"}],"outputs":[]},
{"type":"function","name":"destination_data","stateMutability":"view","inputs":[{"name":"_chain_id","type":"uint256"}],"outputs":[{"name":"messenger","type":"address"},{"name":"gas_oracle","type":"address"},{"name":"relayer","type":"address"}]}
]`,
	}

	ArbitrumBroadcasterMetaData = bind.MetaData{
		ID: "ArbitrumBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[` + messagesInput + `,{"name":"_gas_limit","type":"uint256"},{"name":"_max_fee_per_gas","type":"uint256"}],"outputs":[]}
]`,
	}

	ArbitrumGenericBroadcasterMetaData = bind.MetaData{
		ID: "ArbitrumGenericBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_gas_limit","type":"uint256"},{"name":"_max_fee_per_gas","type":"uint256"}],"outputs":[]},
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_gas_limit","type":"uint256"},{"name":"_max_fee_per_gas","type":"uint256"},{"name":"_destination_data","type":"bytes"}],"outputs":[]},
{"type":"function","name":"destination_data","stateMutability":"view","inputs":[{"name":"_chain_id","type":"uint256"}],"outputs":[{"name":"inbox","type":"address"},{"name":"refund","type":"address"},{"name":"relayer","type":"address"}]}
]`,
	}

	PolygonZkEVMBroadcasterMetaData = bind.MetaData{
		ID: "PolygonZkEVMBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[` + messagesInput + `],"outputs":[]},
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[` + messagesInput + `,{"name":"_force_update","type":"bool"}],"outputs":[]}
]`,
	}

	PolygonZkEVMGenericBroadcasterMetaData = bind.MetaData{
		ID: "PolygonZkEVMGenericBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_force_update","type":"bool"}],"outputs":[]},
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_force_update","type":"bool"},{"name":"_destination_data","type":"bytes"}],"outputs":[]},
{"type":"function","name":"destination_data","stateMutability":"view","inputs":[{"name":"_chain_id","type":"uint256"}],"outputs":[{"name":"network_id","type":"uint32"},{"name":"relayer","type":"address"}]}
]`,
	}

	TaikoGenericBroadcasterMetaData = bind.MetaData{
		ID: "TaikoGenericBroadcaster",
		ABI: `[
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `],"outputs":[]},
{"type":"function","name":"broadcast","stateMutability":"nonpayable","inputs":[{"name":"_chain_id","type":"uint256"},` + messagesInput + `,{"name":"_destination_data","type":"bytes"}],"outputs":[]},
{"type":"function","name":"destination_data","stateMutability":"view","inputs":[{"name":"_chain_id","type":"uint256"}],"outputs":[{"name":"gas_limit","type":"uint256"},{"name":"relayer","type":"address"}]}
]`,
	}
)

var broadcasterABIs = map[domain.BroadcasterKind]*abi.ABI{
	domain.KindStorageProofs:       mustParse(&StorageProofsBroadcasterMetaData),
	domain.KindOptimism:            mustParse(&OptimismBroadcasterMetaData),
	domain.KindOptimismGeneric:     mustParse(&OptimismGenericBroadcasterMetaData),
	domain.KindArbitrum:            mustParse(&ArbitrumBroadcasterMetaData),
	domain.KindArbitrumGeneric:     mustParse(&ArbitrumGenericBroadcasterMetaData),
	domain.KindPolygonZkEVM:        mustParse(&PolygonZkEVMBroadcasterMetaData),
	domain.KindPolygonZkEVMGeneric: mustParse(&PolygonZkEVMGenericBroadcasterMetaData),
	domain.KindTaikoGeneric:        mustParse(&TaikoGenericBroadcasterMetaData),
}

// BroadcasterABI returns the relay contract ABI for kind.
func BroadcasterABI(kind domain.BroadcasterKind) (*abi.ABI, error) {
	parsed, ok := broadcasterABIs[kind]
	if !ok {
		return nil, fmt.Errorf("no ABI for broadcaster kind %q", kind)
	}
	return parsed, nil
}
