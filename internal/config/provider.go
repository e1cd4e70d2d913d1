package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

// DefaultChunkSize is how many relayed messages go into one broadcast
const DefaultChunkSize = 8

// envAliases lists the unprefixed names operators already export
var envAliases = map[string][]string{
	"fork_rpc":    {"TREB_FORK_RPC", "ETH_RPC_URL", "RPC_URL"},
	"live_rpc":    {"TREB_LIVE_RPC", "LIVE_RPC_URL"},
	"private_key": {"TREB_PRIVATE_KEY", "PRIVATE_KEY"},
	"pinata_jwt":  {"TREB_PINATA_JWT", "PINATA_JWT", "PINATA_TOKEN"},
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		projectRoot = FindProjectRoot()
	}

	voteFile, err := loadVoteFile(projectRoot)
	if err != nil {
		return nil, err
	}
	applyVoteFile(v, voteFile)

	cfg := &config.RuntimeConfig{
		ProjectRoot:      projectRoot,
		CacheDir:         v.GetString("cache_dir"),
		Debug:            v.GetBool("debug"),
		NonInteractive:   v.GetBool("non_interactive"),
		JSON:             v.GetBool("json"),
		Timeout:          v.GetDuration("timeout"),
		ForkRPC:          v.GetString("fork_rpc"),
		AnvilPath:        v.GetString("anvil_path"),
		RPCEndpoints:     voteFile.RPCEndpoints,
		ChunkSize:        v.GetInt("chunk_size"),
		LiveRPC:          v.GetString("live_rpc"),
		PrivateKey:       v.GetString("private_key"),
		PinataJWT:        v.GetString("pinata_jwt"),
		PinataURL:        v.GetString("pinata_url"),
		PinCacheRedisURL: v.GetString("pin_cache_redis_url"),
	}
	if cfg.RPCEndpoints == nil {
		cfg.RPCEndpoints = make(map[string]string)
	}
	if !filepath.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = filepath.Join(projectRoot, cfg.CacheDir)
	}
	if cfg.ChunkSize <= 0 {
		return nil, &domain.ConfigError{Field: "chunk_size", Reason: fmt.Sprintf("must be positive, got %d", cfg.ChunkSize)}
	}

	if caster := v.GetString("caster"); caster != "" {
		if !common.IsHexAddress(caster) {
			return nil, &domain.ConfigError{Field: "caster", Reason: fmt.Sprintf("invalid address %q", caster)}
		}
		cfg.Caster = common.HexToAddress(caster)
	} else {
		cfg.Caster = domain.ConvexVoterProxy
	}

	chains, err := chainsFromVoteFile(voteFile.Chains)
	if err != nil {
		return nil, err
	}
	cfg.Chains = chains

	return cfg, nil
}

// applyVoteFile installs treb-vote.toml values as defaults so that flags
// and environment variables still take precedence
func applyVoteFile(v *viper.Viper, f *config.VoteFileConfig) {
	setIf := func(key, value string) {
		if value != "" {
			v.SetDefault(key, value)
		}
	}
	setIf("fork_rpc", f.Vote.ForkRPC)
	setIf("live_rpc", f.Vote.LiveRPC)
	setIf("caster", f.Vote.Caster)
	setIf("cache_dir", f.Vote.CacheDir)
	setIf("anvil_path", f.Vote.AnvilPath)
	setIf("pinata_url", f.Vote.PinataURL)
	setIf("pin_cache_redis_url", f.PinCache.RedisURL)
	if f.Vote.ChunkSize != 0 {
		v.SetDefault("chunk_size", f.Vote.ChunkSize)
	}
	if f.Vote.ForkRPC == "" {
		if url, ok := f.RPCEndpoints["mainnet"]; ok {
			setIf("fork_rpc", url)
		}
	}
}

// chainsFromVoteFile converts [chains.<name>] tables into destination chains
func chainsFromVoteFile(tables map[string]config.ChainConfig) ([]domain.Chain, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	chains := make([]domain.Chain, 0, len(tables))
	for _, name := range names {
		table := tables[name]
		field := "chains." + name
		if table.ID == 0 {
			return nil, &domain.ConfigError{Field: field + ".id", Reason: "chain id is required"}
		}

		chain := domain.Chain{ID: table.ID, Name: name, RPC: table.RPC}
		if chain.RPC == "" {
			chain.RPC = domain.RPCNotSet
		}

		switch {
		case table.Broadcaster != "":
			b, ok := domain.BroadcasterByName(table.Broadcaster)
			if !ok {
				return nil, &domain.ConfigError{Field: field + ".broadcaster", Reason: fmt.Sprintf("unknown broadcaster %q", table.Broadcaster)}
			}
			chain.Broadcaster = b
		case table.Kind != "":
			if !common.IsHexAddress(table.Address) {
				return nil, &domain.ConfigError{Field: field + ".address", Reason: fmt.Sprintf("invalid broadcaster address %q", table.Address)}
			}
			chain.Broadcaster = domain.Broadcaster{
				Name:    name,
				Kind:    domain.BroadcasterKind(table.Kind),
				Address: common.HexToAddress(table.Address),
			}
		default:
			chain.Broadcaster = domain.StorageProofs
		}

		if table.Relayer != "" {
			if !common.IsHexAddress(table.Relayer) {
				return nil, &domain.ConfigError{Field: field + ".relayer", Reason: fmt.Sprintf("invalid relayer address %q", table.Relayer)}
			}
			chain.Relayer = common.HexToAddress(table.Relayer)
		}
		chains = append(chains, chain)
	}
	return chains, nil
}

// FindProjectRoot walks up from the current directory to find
// treb-vote.toml, falling back to the current directory
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, VoteFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	loadEnvFiles(projectRoot)

	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, names := range envAliases {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	// Set defaults
	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("cache_dir", ".treb-vote")
	v.SetDefault("project_root", projectRoot)

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}
