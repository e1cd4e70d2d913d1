package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
)

// SimulateVote creates, passes and executes a proposal on a fork
type SimulateVote struct {
	log *slog.Logger
}

// NewSimulateVote creates a new SimulateVote use case
func NewSimulateVote(log *slog.Logger) *SimulateVote {
	return &SimulateVote{log: log.With("component", "simulate")}
}

// SimulateVoteParams contains parameters for a simulation
type SimulateVoteParams struct {
	Env    capture.Environment
	DAO    domain.DAOTarget
	Script domain.ExecutionScript
	// Caster creates and votes for the proposal. It needs enough voting
	// power to pass it alone.
	Caster common.Address
}

// Execute runs the proposal lifecycle and returns the simulated vote id
func (uc *SimulateVote) Execute(ctx context.Context, params SimulateVoteParams) (*big.Int, error) {
	v := votingCaller{env: params.Env, from: params.Caster, voting: params.DAO.Voting}
	log := uc.log.With("dao", params.DAO.Name)

	if err := params.Env.Impersonate(ctx, params.Caster); err != nil {
		return nil, fmt.Errorf("failed to impersonate caster: %w", err)
	}

	voteID, err := uc.create(ctx, v, params.Script)
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepCreate, Err: err}
	}
	id := voteID.String()
	log.Info("simulated vote created", "vote", id)

	ok, err := v.boolean(ctx, "canVote", voteID, params.Caster)
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepCanVote, VoteID: id, Err: err}
	}
	if !ok {
		return nil, &domain.SimulationStepError{Step: domain.StepCanVote, VoteID: id,
			Err: fmt.Errorf("%w: %s", domain.ErrVotingIneligible, params.Caster.Hex())}
	}

	if _, err := v.transact(ctx, "vote", voteID, true, false); err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepVote, VoteID: id, Err: err}
	}

	out, err := v.call(ctx, "voteTime")
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepAdvanceTime, VoteID: id, Err: err}
	}
	voteTime, ok := out[0].(uint64)
	if !ok {
		return nil, &domain.SimulationStepError{Step: domain.StepAdvanceTime, VoteID: id,
			Err: fmt.Errorf("unexpected voteTime result %T", out[0])}
	}
	if err := params.Env.IncreaseTime(ctx, voteTime); err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepAdvanceTime, VoteID: id, Err: err}
	}
	log.Debug("advanced past vote window", "seconds", voteTime)

	ok, err = v.boolean(ctx, "canExecute", voteID)
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepCanExecute, VoteID: id, Err: err}
	}
	if !ok {
		return nil, &domain.SimulationStepError{Step: domain.StepCanExecute, VoteID: id, Err: domain.ErrNotExecutable}
	}

	if _, err := v.transact(ctx, "executeVote", voteID); err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepExecute, VoteID: id, Err: err}
	}
	log.Info("simulated vote executed", "vote", id)
	return voteID, nil
}

func (uc *SimulateVote) create(ctx context.Context, v votingCaller, script domain.ExecutionScript) (*big.Int, error) {
	args := []any{[]byte(script), "", false, false}

	out, err := v.call(ctx, "newVote", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCreationNotPermitted, err)
	}
	preflight, _ := out[0].(*big.Int)

	receipt, err := v.transact(ctx, "newVote", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCreationNotPermitted, err)
	}
	if ev, err := bindings.FindStartVote(receipt, v.voting); err == nil {
		return ev.VoteId, nil
	}
	if preflight == nil {
		return nil, errors.New("newVote returned no vote id")
	}
	return preflight, nil
}
