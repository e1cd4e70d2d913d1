package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/evmscript"
)

// VoteBody issues the calls a vote should perform.
type VoteBody func(ctx context.Context, scope *capture.Scope) error

// CreateVote captures a vote body on a mainnet fork, simulates the
// resulting proposal and optionally submits it
type CreateVote struct {
	cfg      *config.RuntimeConfig
	forker   ForkManager
	relayer  capture.Relayer
	decoder  ActionDecoder
	simulate *SimulateVote
	post     *PostVote
	progress ProgressSink
	log      *slog.Logger
}

// NewCreateVote creates a new CreateVote use case
func NewCreateVote(
	cfg *config.RuntimeConfig,
	forker ForkManager,
	relayer capture.Relayer,
	decoder ActionDecoder,
	simulate *SimulateVote,
	post *PostVote,
	progress ProgressSink,
	log *slog.Logger,
) *CreateVote {
	return &CreateVote{
		cfg:      cfg,
		forker:   forker,
		relayer:  relayer,
		decoder:  decoder,
		simulate: simulate,
		post:     post,
		progress: progress,
		log:      log,
	}
}

// CreateVoteParams contains parameters for creating a vote
type CreateVoteParams struct {
	DAO         domain.DAOTarget
	Description string
	Live        bool
	SkipConfirm bool
	Body        VoteBody
}

// Execute runs the body inside a governance scope and finalizes the vote.
// A failing body leaves nothing to simulate or submit.
func (uc *CreateVote) Execute(ctx context.Context, params CreateVoteParams) (*domain.VoteResult, error) {
	if uc.cfg.ForkRPC == "" {
		return nil, &domain.ConfigError{Field: "fork_rpc", Reason: "a mainnet RPC endpoint is required to fork from"}
	}
	result := &domain.VoteResult{
		RunID:       uuid.NewString(),
		DAO:         params.DAO,
		Description: params.Description,
	}
	log := uc.log.With("run", result.RunID, "dao", params.DAO.Name)

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageForking, Message: "Forking mainnet", Spinner: true})
	env, err := uc.forker.Fork(ctx, "mainnet", uc.cfg.ForkRPC)
	if err != nil {
		return nil, fmt.Errorf("failed to fork mainnet: %w", err)
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			log.Warn("failed to close mainnet fork", "error", cerr)
		}
	}()

	session := capture.NewSession(env, uc.forker, uc.relayer, log)
	actions, err := uc.capture(ctx, session, params)
	if err != nil {
		return nil, err
	}
	result.Actions = actions
	if len(actions) == 0 {
		log.Warn("vote body recorded no actions")
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageEncoding, Message: "Encoding execution script"})
	result.Preview = uc.decoder.Decode(ctx, params.DAO, actions, session.LookupInterface)
	script, err := evmscript.Encode(params.DAO.Agent, actions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execution script: %w", err)
	}
	result.Script = script
	log.Info("execution script prepared", "actions", len(actions), "bytes", len(script))

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageSimulating, Message: "Simulating vote", Spinner: true})
	voteID, err := uc.simulate.Execute(ctx, SimulateVoteParams{
		Env:    env,
		DAO:    params.DAO,
		Script: script,
		Caster: uc.cfg.Caster,
	})
	if err != nil {
		return result, err
	}
	result.SimulatedVoteID = voteID

	if params.Live {
		live, err := uc.post.Execute(ctx, PostVoteParams{
			DAO:         params.DAO,
			Description: params.Description,
			Script:      script,
			SkipConfirm: params.SkipConfirm,
		})
		if err != nil {
			return result, fmt.Errorf("live submission failed: %w", err)
		}
		result.Live = true
		result.LiveVoteID = live.VoteID
		result.Locator = live.Locator
		result.LiveTxHash = live.TxHash
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted, Message: "Done"})
	return result, nil
}

// capture runs the body and returns what it recorded. The fork is rolled
// back before returning, so simulation starts from the pre-vote state.
func (uc *CreateVote) capture(ctx context.Context, session *capture.Session, params CreateVoteParams) (actions []domain.Action, err error) {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCapturing, Message: "Running vote body", Spinner: true})
	scope, err := session.Govern(ctx, params.DAO)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := scope.Close(ctx); cerr != nil {
			actions = nil
			err = errors.Join(err, fmt.Errorf("failed to close vote scope: %w", cerr))
		}
	}()

	if err := params.Body(ctx, scope); err != nil {
		return nil, fmt.Errorf("vote body failed: %w", err)
	}
	return scope.Actions(), nil
}
