package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// ProposalPlan is a loaded proposal file
type ProposalPlan struct {
	DAO         domain.DAOTarget
	Description string
	Steps       []PlanStep
}

// PlanStep is either a call or a relay block
type PlanStep struct {
	Call  *PlannedCall
	Relay *PlannedRelay
}

// PlannedCall is one contract call with ABI-typed arguments
type PlannedCall struct {
	Contract *capture.Contract
	Method   string
	Args     []any
	// Untracked calls execute without becoming actions.
	Untracked bool
}

// PlannedRelay groups calls executed on another chain
type PlannedRelay struct {
	Chain  string
	RPC    string
	Params *domain.BroadcastParams
	Steps  []PlanStep
}

// RunProposal turns a proposal file into a vote
type RunProposal struct {
	loader ProposalLoader
	chains *ResolveChain
	create *CreateVote
	log    *slog.Logger
}

// NewRunProposal creates a new RunProposal use case
func NewRunProposal(loader ProposalLoader, chains *ResolveChain, create *CreateVote, log *slog.Logger) *RunProposal {
	return &RunProposal{loader: loader, chains: chains, create: create, log: log}
}

// RunProposalParams contains parameters for running a proposal
type RunProposalParams struct {
	Path        string
	Live        bool
	SkipConfirm bool
}

// Execute loads the proposal and creates the vote
func (uc *RunProposal) Execute(ctx context.Context, params RunProposalParams) (*domain.VoteResult, error) {
	plan, err := uc.loader.Load(ctx, params.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}
	// resolve every chain before forking anything
	if err := uc.checkChains(plan.Steps); err != nil {
		return nil, err
	}

	return uc.create.Execute(ctx, CreateVoteParams{
		DAO:         plan.DAO,
		Description: plan.Description,
		Live:        params.Live,
		SkipConfirm: params.SkipConfirm,
		Body: func(ctx context.Context, scope *capture.Scope) error {
			return uc.runSteps(ctx, scope, plan.Steps)
		},
	})
}

func (uc *RunProposal) checkChains(steps []PlanStep) error {
	for _, step := range steps {
		if step.Relay == nil {
			continue
		}
		if _, err := uc.chains.Execute(step.Relay.Chain); err != nil {
			return err
		}
		if err := uc.checkChains(step.Relay.Steps); err != nil {
			return err
		}
	}
	return nil
}

func (uc *RunProposal) runSteps(ctx context.Context, scope *capture.Scope, steps []PlanStep) error {
	for i, step := range steps {
		switch {
		case step.Call != nil:
			if err := uc.runCall(ctx, scope, step.Call); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case step.Relay != nil:
			chain, err := uc.chains.Execute(step.Relay.Chain)
			if err != nil {
				return err
			}
			opts := capture.RelayOptions{RPC: step.Relay.RPC, Params: step.Relay.Params}
			err = scope.Relay(ctx, chain, opts, func(ctx context.Context, remote *capture.Scope) error {
				return uc.runSteps(ctx, remote, step.Relay.Steps)
			})
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}
	return nil
}

func (uc *RunProposal) runCall(ctx context.Context, scope *capture.Scope, call *PlannedCall) error {
	if call.Untracked {
		return scope.Untracked(ctx, func(ctx context.Context, s *capture.Scope) error {
			_, err := s.Transact(ctx, call.Contract, call.Method, call.Args...)
			return err
		})
	}
	_, err := scope.Transact(ctx, call.Contract, call.Method, call.Args...)
	return err
}
