package usecase

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// ListChainsParams contains parameters for listing chains
type ListChainsParams struct {
	// Filter keeps chains whose name fuzzily matches.
	Filter string
}

// ListChainsResult contains the result of listing chains
type ListChainsResult struct {
	Chains []ChainStatus
}

// ChainStatus describes one destination chain and whether it can be relayed to
type ChainStatus struct {
	domain.Chain
	Ready bool
}

// ListChains is a use case for listing destination chains
type ListChains struct {
	registry *domain.Registry
}

// NewListChains creates a new ListChains use case
func NewListChains(registry *domain.Registry) *ListChains {
	return &ListChains{registry: registry}
}

// Run executes the use case
func (uc *ListChains) Run(ctx context.Context, params ListChainsParams) (*ListChainsResult, error) {
	chains := uc.registry.All()
	if params.Filter != "" {
		names := lo.Map(chains, func(c domain.Chain, _ int) string { return c.Name })
		matches := fuzzy.Find(strings.ToLower(params.Filter), names)
		keep := make(map[string]bool, len(matches))
		for _, m := range matches {
			keep[m.Str] = true
		}
		chains = lo.Filter(chains, func(c domain.Chain, _ int) bool { return keep[c.Name] })
	}

	return &ListChainsResult{
		Chains: lo.Map(chains, func(c domain.Chain, _ int) ChainStatus {
			return ChainStatus{Chain: c, Ready: c.HasRelayer() && c.HasRPC()}
		}),
	}, nil
}

// ResolveChain looks chains up by name and suggests close matches
type ResolveChain struct {
	registry *domain.Registry
}

// NewResolveChain creates a new ResolveChain use case
func NewResolveChain(registry *domain.Registry) *ResolveChain {
	return &ResolveChain{registry: registry}
}

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 3

// Execute returns the chain called name
func (uc *ResolveChain) Execute(name string) (domain.Chain, error) {
	if chain, ok := uc.registry.ByName(name); ok {
		return chain, nil
	}
	matches := fuzzy.Find(strings.ToLower(strings.TrimSpace(name)), uc.registry.Names())
	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return domain.Chain{}, domain.UnknownChainErr{Name: name, Suggestions: suggestions}
}
