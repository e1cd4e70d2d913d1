package config

import (
	"strings"

	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

// ProvideRegistry builds the destination chain registry from the built-in
// table, [rpc_endpoints] overrides and configured chains
func ProvideRegistry(cfg *config.RuntimeConfig) (*domain.Registry, error) {
	chains := make([]domain.Chain, 0, len(domain.KnownChains)+len(cfg.Chains))
	for _, c := range domain.KnownChains {
		chains = append(chains, withEndpoint(c, cfg.RPCEndpoints))
	}
	for _, c := range cfg.Chains {
		chains = append(chains, withEndpoint(c, cfg.RPCEndpoints))
	}
	return domain.NewRegistry(chains...)
}

// withEndpoint prefers an endpoint set in [rpc_endpoints] under the chain's name
func withEndpoint(c domain.Chain, endpoints map[string]string) domain.Chain {
	for name, url := range endpoints {
		if strings.EqualFold(name, c.Name) && url != "" {
			c.RPC = url
			return c
		}
	}
	return c
}
