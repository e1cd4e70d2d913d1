package config

// VoteFileConfig represents treb-vote.toml
type VoteFileConfig struct {
	RPCEndpoints map[string]string      `toml:"rpc_endpoints"`
	Vote         VoteSection            `toml:"vote"`
	PinCache     PinCacheSection        `toml:"pin_cache"`
	Chains       map[string]ChainConfig `toml:"chains"`
}

// VoteSection holds defaults for vote runs
type VoteSection struct {
	ForkRPC   string `toml:"fork_rpc,omitempty"`
	LiveRPC   string `toml:"live_rpc,omitempty"`
	Caster    string `toml:"caster,omitempty"`
	ChunkSize int    `toml:"chunk_size,omitempty"`
	CacheDir  string `toml:"cache_dir,omitempty"`
	AnvilPath string `toml:"anvil_path,omitempty"`
	PinataURL string `toml:"pinata_url,omitempty"`
}

// PinCacheSection selects the pin cache backend
type PinCacheSection struct {
	RedisURL string `toml:"redis_url,omitempty"`
}

// ChainConfig adds a destination chain or overrides a built-in one.
// Broadcaster names a known relay deployment; Kind and Address describe a
// custom one.
type ChainConfig struct {
	ID          uint64 `toml:"id"`
	RPC         string `toml:"rpc,omitempty"`
	Relayer     string `toml:"relayer,omitempty"`
	Broadcaster string `toml:"broadcaster,omitempty"`
	Kind        string `toml:"kind,omitempty"`
	Address     string `toml:"address,omitempty"`
}
