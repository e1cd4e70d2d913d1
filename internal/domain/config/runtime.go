package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	CacheDir    string

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// Fork settings
	ForkRPC   string // mainnet endpoint the origin fork is started from
	AnvilPath string

	// RPCEndpoints maps chain names to endpoints, after ${VAR} expansion.
	RPCEndpoints map[string]string

	// Vote settings
	Caster    common.Address // account that creates and passes simulated votes
	ChunkSize int

	// Live submission
	LiveRPC    string
	PrivateKey string
	PinataJWT  string
	PinataURL  string

	// PinCacheRedisURL selects the shared pin cache when set.
	PinCacheRedisURL string

	// Chains from the vote file, applied over the built-in table.
	Chains []domain.Chain
}
