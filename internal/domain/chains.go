package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Relay contracts deployed on Ethereum mainnet.
var (
	StorageProofs = Broadcaster{Name: "storage_proofs", Kind: KindStorageProofs,
		Address: common.HexToAddress("0x7BA33456EC00812C6B6BB6C1C3dfF579c34CC2cc")}
	OptimismMainnet = Broadcaster{Name: "optimism_mainnet", Kind: KindOptimism,
		Address: common.HexToAddress("0x8e1e5001c7b8920196c7e3edf2bcf47b2b6153ff")}
	BaseBroadcaster = Broadcaster{Name: "base", Kind: KindOptimism,
		Address: common.HexToAddress("0xcb843280c5037acfa67b8d4adc71484ced7c48c9")}
	MantleBroadcaster = Broadcaster{Name: "mantle", Kind: KindOptimism,
		Address: common.HexToAddress("0xB50B9a0D8A4ED8115Fe174F300465Ea4686d86Df")}
	OptimismGeneric = Broadcaster{Name: "optimism_generic", Kind: KindOptimismGeneric,
		Address: common.HexToAddress("0xE0fE4416214e95F0C67Dc044AAf1E63d6972e0b9")}
	ArbitrumBroadcaster = Broadcaster{Name: "arbitrum", Kind: KindArbitrum,
		Address: common.HexToAddress("0xb7b0FF38E0A01D798B5cd395BbA6Ddb56A323830")}
	ArbitrumGeneric = Broadcaster{Name: "arbitrum_generic", Kind: KindArbitrumGeneric,
		Address: common.HexToAddress("0x94630a56519c00Be339BBd8BD26f342Bf4bd7eE0")}
	PolygonZkEVMXLayer = Broadcaster{Name: "polygon_zkevm_x_layer", Kind: KindPolygonZkEVM,
		Address: common.HexToAddress("0x9D9e70CA10fE911Dee9869F21e5ebB24A9519Ade")}
	PolygonZkEVMGeneric = Broadcaster{Name: "polygon_zkevm_generic", Kind: KindPolygonZkEVMGeneric,
		Address: common.HexToAddress("0xB5e7fE8eA8ECbd33504485756fCabB5f5D29C051")}
	TaikoGeneric = Broadcaster{Name: "taiko_generic", Kind: KindTaikoGeneric,
		Address: common.HexToAddress("0x05a3a7b57cb60419ff0b087e9eae8469c28ac8cd")}
)

// Broadcasters lists every known relay deployment.
var Broadcasters = []Broadcaster{
	StorageProofs,
	OptimismMainnet,
	BaseBroadcaster,
	MantleBroadcaster,
	OptimismGeneric,
	ArbitrumBroadcaster,
	ArbitrumGeneric,
	PolygonZkEVMXLayer,
	PolygonZkEVMGeneric,
	TaikoGeneric,
}

// BroadcasterByName finds a relay deployment by name.
func BroadcasterByName(name string) (Broadcaster, bool) {
	for _, b := range Broadcasters {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return Broadcaster{}, false
}

func storageProofs(id uint64, name, relayer string) Chain {
	return Chain{ID: id, Name: name, RPC: RPCNotSet, Broadcaster: StorageProofs, Relayer: common.HexToAddress(relayer)}
}

// KnownChains is the built-in destination table.
var KnownChains = []Chain{
	storageProofs(100, "gnosis", "0xe0A1D8C3d243789EC6853b0d00903E70fded32d0"),
	storageProofs(1001, "corn", "0x5bcA7dDF1bcccB2eE8e46c56bfc9d3CDC77262bC"),
	storageProofs(200, "ink", "0x13DFF1809D1E9ddf9Ac901F47817B7F45220A846"),
	storageProofs(2008, "tac", "0x5bcA7dDF1bcccB2eE8e46c56bfc9d3CDC77262bC"),
	storageProofs(250, "fantom", "0xc0b338DA0fDD43Dc48539837594cf6363795FEeA"),
	storageProofs(137, "polygon", "0x74d6aABD6197E83d963F0B48be9C034F93E8E66d"),
	{ID: 146, Name: "sonic", RPC: "https://rpc.soniclabs.com", Broadcaster: StorageProofs,
		Relayer: common.HexToAddress("0xE5De15A9C9bBedb4F5EC13B131E61245f2983A69")},
	storageProofs(50, "xdc", "0x97aDC08FA1D849D2C48C5dcC1DaB568B169b0267"),
	storageProofs(56, "bsc", "0x3B519ae13D7CeB72CC922815f5dAaD741aD5087B"),
	storageProofs(1284, "moonbeam", "0x3c0a405E914337139992625D5100Ea141a9C4d11"),
	storageProofs(998, "hyperliquid", "0x5bcA7dDF1bcccB2eE8e46c56bfc9d3CDC77262bC"),
	storageProofs(2222, "kava", "0x6a2691068C7CbdA03292Ba0f9c77A25F658bAeF5"),
	storageProofs(42220, "celo", "0x3c0a405E914337139992625D5100Ea141a9C4d11"),
	storageProofs(42793, "etherlink", "0xC772063cE3e622B458B706Dd2e36309418A1aE42"),
	storageProofs(43114, "avalanche", "0xC6452F058fF4bb248D852C7b5f0E8753B8DbAbda"),
	storageProofs(1313161554, "aurora", "0x3c0a405E914337139992625D5100Ea141a9C4d11"),
	storageProofs(161221135, "plume", "0x5bcA7dDF1bcccB2eE8e46c56bfc9d3CDC77262bC"),

	{ID: 10, Name: "optimism", RPC: "https://mainnet.optimism.io", Broadcaster: OptimismMainnet,
		Relayer: common.HexToAddress("0x8e1e5001C7B8920196c7E3EdF2BCf47B2B6153ff")},
	{ID: 252, Name: "fraxtal", RPC: "https://rpc.frax.com", Broadcaster: OptimismGeneric,
		Relayer: common.HexToAddress("0x7BE6BD57A319A7180f71552E58c9d32Da32b6f96")},
	{ID: 5000, Name: "mantle", RPC: RPCNotSet, Broadcaster: MantleBroadcaster,
		Relayer: common.HexToAddress("0xB50B9a0D8A4ED8115Fe174F300465Ea4686d86Df")},
	{ID: 8453, Name: "base", RPC: RPCNotSet, Broadcaster: BaseBroadcaster,
		Relayer: common.HexToAddress("0xCb843280C5037ACfA67b8D4aDC71484ceD7C48C9")},

	{ID: 42161, Name: "arbitrum", RPC: "https://arb1.arbitrum.io/rpc", Broadcaster: ArbitrumBroadcaster,
		Relayer: common.HexToAddress("0xb7b0FF38E0A01D798B5cd395BbA6Ddb56A323830")},

	{ID: 196, Name: "x_layer", RPC: "https://rpc.xlayer.tech", Broadcaster: PolygonZkEVMXLayer,
		Relayer: common.HexToAddress("0x9D9e70CA10fE911Dee9869F21e5ebB24A9519Ade")},

	{ID: 167000, Name: "taiko", RPC: "https://rpc.taiko.xyz", Broadcaster: TaikoGeneric,
		Relayer: common.HexToAddress("0xE5De15A9C9bBedb4F5EC13B131E61245f2983A69")},
}

// Registry maps chain ids and names to destination chains. A registry is
// built once and never mutated afterwards.
type Registry struct {
	byID   map[uint64]Chain
	byName map[string]Chain
}

// NewRegistry indexes chains. Later entries replace earlier ones with the
// same id, which is how configured chains override built-in ones.
func NewRegistry(chains ...Chain) (*Registry, error) {
	r := &Registry{
		byID:   make(map[uint64]Chain, len(chains)),
		byName: make(map[string]Chain, len(chains)),
	}
	for _, c := range chains {
		if !c.Broadcaster.Kind.Valid() {
			return nil, &ConfigError{Field: "chains." + c.Name, Reason: fmt.Sprintf("unknown broadcaster kind %q", c.Broadcaster.Kind)}
		}
		if old, ok := r.byID[c.ID]; ok {
			delete(r.byName, strings.ToLower(old.Name))
		}
		r.byID[c.ID] = c
		r.byName[strings.ToLower(c.Name)] = c
	}
	return r, nil
}

// DefaultRegistry returns a registry of KnownChains.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(KnownChains...)
	if err != nil {
		panic(err)
	}
	return r
}

// ByID returns the chain with the given id.
func (r *Registry) ByID(id uint64) (Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return Chain{}, fmt.Errorf("%w: chain id %d", ErrUnknownChain, id)
	}
	return c, nil
}

// ByName returns the chain with the given name, case-insensitively.
func (r *Registry) ByName(name string) (Chain, bool) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Names returns all chain names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, c := range r.byName {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// All returns every chain ordered by id.
func (r *Registry) All() []Chain {
	chains := make([]Chain, 0, len(r.byID))
	for _, c := range r.byID {
		chains = append(chains, c)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].ID < chains[j].ID })
	return chains
}
