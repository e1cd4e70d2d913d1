package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

// PostVote submits a simulated proposal to the live network
type PostVote struct {
	cfg       *config.RuntimeConfig
	pin       *PinDescription
	signer    LiveSigner
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewPostVote creates a new PostVote use case
func NewPostVote(
	cfg *config.RuntimeConfig,
	pin *PinDescription,
	signer LiveSigner,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *PostVote {
	return &PostVote{
		cfg:       cfg,
		pin:       pin,
		signer:    signer,
		confirmer: confirmer,
		progress:  progress,
		log:       log.With("component", "live"),
	}
}

// PostVoteParams contains parameters for live submission
type PostVoteParams struct {
	DAO         domain.DAOTarget
	Description string
	Script      domain.ExecutionScript
	// SkipConfirm submits without asking.
	SkipConfirm bool
}

// PostVoteResult contains the result of a live submission
type PostVoteResult struct {
	VoteID  *big.Int
	Locator string
	Creator common.Address
	TxHash  common.Hash
}

// Execute pins the description and creates the proposal on chain
func (uc *PostVote) Execute(ctx context.Context, params PostVoteParams) (*PostVoteResult, error) {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StagePinning, Message: "Pinning vote description", Spinner: true})
	locator, err := uc.pin.Execute(ctx, params.Description)
	if err != nil {
		return nil, err
	}

	if !params.SkipConfirm && !uc.cfg.NonInteractive {
		ok, err := uc.confirmer.Confirm(ctx, fmt.Sprintf("Submit %s vote with metadata %s?", params.DAO.Name, locator))
		if err != nil {
			return nil, fmt.Errorf("failed to confirm submission: %w", err)
		}
		if !ok {
			return nil, domain.ErrSubmissionAborted
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageSubmitting, Message: "Connecting signer", Spinner: true})
	session, err := uc.signer.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSignerUnavailable, err)
	}
	defer session.Close()

	eoa := session.Address()
	v := votingCaller{env: liveCaller{session: session}, from: eoa, voting: params.DAO.Voting}
	uc.log.Info("connected live signer", "account", eoa.Hex())

	ok, err := v.boolean(ctx, "canCreateNewVote", eoa)
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepLiveCanCreate, Err: err}
	}
	if !ok {
		return nil, &domain.SimulationStepError{Step: domain.StepLiveCanCreate, Err: fmt.Errorf(
			"%w: %s lacks voting power or created a vote too recently", domain.ErrCreationNotPermitted, eoa.Hex())}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageSubmitting, Message: "Creating vote", Spinner: true})
	receipt, err := v.transact(ctx, "newVote", []byte(params.Script), locator, false, false)
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepLiveCreate, Err: err}
	}
	ev, err := bindings.FindStartVote(receipt, params.DAO.Voting)
	if err != nil {
		return nil, &domain.SimulationStepError{Step: domain.StepLiveCreate, Err: err}
	}

	uc.log.Info("live vote created", "vote", ev.VoteId.String(), "tx", receipt.TxHash.Hex())
	return &PostVoteResult{
		VoteID:  ev.VoteId,
		Locator: locator,
		Creator: eoa,
		TxHash:  receipt.TxHash,
	}, nil
}
