package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

// VoteFileName is the optional project configuration file
const VoteFileName = "treb-vote.toml"

// loadEnvFiles loads .env files so ${VAR} references and TREB_ variables
// resolve. Variables already set in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadVoteFile loads and parses treb-vote.toml if it exists.
// Returns an empty config when the file does not exist.
func loadVoteFile(projectRoot string) (*config.VoteFileConfig, error) {
	cfg := &config.VoteFileConfig{}
	path := filepath.Join(projectRoot, VoteFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", VoteFileName, err)
	}

	for name, url := range cfg.RPCEndpoints {
		cfg.RPCEndpoints[name] = os.ExpandEnv(url)
	}
	cfg.Vote.ForkRPC = os.ExpandEnv(cfg.Vote.ForkRPC)
	cfg.Vote.LiveRPC = os.ExpandEnv(cfg.Vote.LiveRPC)
	cfg.PinCache.RedisURL = os.ExpandEnv(cfg.PinCache.RedisURL)
	for name, chain := range cfg.Chains {
		chain.RPC = os.ExpandEnv(chain.RPC)
		cfg.Chains[name] = chain
	}
	return cfg, nil
}
