package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-vote/internal/broadcast"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/capture/capturetest"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/evmscript"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

const gaugeABI = `[
{"type":"function","name":"set_killed","stateMutability":"nonpayable","inputs":[{"name":"_is_killed","type":"bool"}],"outputs":[]},
{"type":"function","name":"is_killed","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]}
]`

var (
	gaugeAddr   = common.HexToAddress("0x00000000000000000000000000000000000ca001")
	remoteAgent = common.HexToAddress("0x00000000000000000000000000000000a9e17001")
)

func gauge(t *testing.T) *capture.Contract {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(gaugeABI))
	require.NoError(t, err)
	return capture.NewContract("gauge", gaugeAddr, &parsed)
}

type voteFixture struct {
	cfg      *config.RuntimeConfig
	forker   *capturetest.Forker
	progress *recordingProgress
	uc       *usecase.CreateVote
}

func newVoteFixture(post *usecase.PostVote) *voteFixture {
	log := testLogger()
	forker := &capturetest.Forker{
		Setup: func(env *capturetest.Env, rpc string) {
			if rpc == "http://mainnet" {
				scriptVoting(env, domain.Ownership, 42)
				scriptVoting(env, domain.Parameter, 42)
				return
			}
			for _, c := range domain.KnownChains {
				if c.HasRelayer() {
					env.Returns(c.Relayer, bindings.RelayerABI, "OWNERSHIP_AGENT", remoteAgent)
				}
			}
		},
	}
	cfg := &config.RuntimeConfig{ForkRPC: "http://mainnet", Caster: domain.ConvexVoterProxy, NonInteractive: true}
	progress := &recordingProgress{}
	uc := usecase.NewCreateVote(
		cfg,
		forker,
		broadcast.NewDispatcher(forker, broadcast.DefaultChunkSize, log),
		stubDecoder{},
		usecase.NewSimulateVote(log),
		post,
		progress,
		log,
	)
	return &voteFixture{cfg: cfg, forker: forker, progress: progress, uc: uc}
}

func TestCreateVote(t *testing.T) {
	ctx := context.Background()

	t.Run("captures, encodes and simulates", func(t *testing.T) {
		f := newVoteFixture(nil)
		g := gauge(t)

		res, err := f.uc.Execute(ctx, usecase.CreateVoteParams{
			DAO:         domain.Ownership,
			Description: description,
			Body: func(ctx context.Context, scope *capture.Scope) error {
				if _, err := scope.Transact(ctx, g, "set_killed", true); err != nil {
					return err
				}
				return scope.Untracked(ctx, func(ctx context.Context, s *capture.Scope) error {
					_, err := s.Transact(ctx, g, "set_killed", false)
					return err
				})
			},
		})
		require.NoError(t, err)

		require.Len(t, res.Actions, 1)
		assert.Equal(t, gaugeAddr, res.Actions[0].Target)
		require.Len(t, res.Preview, 1)
		assert.NotEmpty(t, res.RunID)
		assert.Equal(t, big.NewInt(42), res.SimulatedVoteID)
		assert.False(t, res.Live)

		expected, err := evmscript.Encode(domain.Ownership.Agent, res.Actions)
		require.NoError(t, err)
		assert.Equal(t, expected, res.Script)

		origin := f.forker.Forks[0]
		require.NotEmpty(t, origin.Reverted)
		assert.Equal(t, origin.Snapshots[0], origin.Reverted[0], "body state is rolled back before simulation")
		assert.Len(t, origin.TransactionsTo(domain.Ownership.Voting, bindings.VotingABI, "executeVote"), 1)
		assert.True(t, origin.Closed)

		assert.Equal(t, []usecase.VoteStage{
			usecase.StageForking, usecase.StageCapturing, usecase.StageEncoding,
			usecase.StageSimulating, usecase.StageCompleted,
		}, f.progress.stages())
	})

	t.Run("failing body creates nothing", func(t *testing.T) {
		f := newVoteFixture(nil)
		boom := errors.New("assertion failed")

		res, err := f.uc.Execute(ctx, usecase.CreateVoteParams{
			DAO: domain.Parameter,
			Body: func(context.Context, *capture.Scope) error {
				return boom
			},
		})
		require.ErrorIs(t, err, boom)
		assert.Nil(t, res)

		origin := f.forker.Forks[0]
		assert.Empty(t, origin.TransactionsTo(domain.Parameter.Voting, bindings.VotingABI, "newVote"))
		assert.True(t, origin.Closed)
	})

	t.Run("panicking body still rolls back the fork", func(t *testing.T) {
		f := newVoteFixture(nil)
		g := gauge(t)

		assert.Panics(t, func() {
			_, _ = f.uc.Execute(ctx, usecase.CreateVoteParams{
				DAO: domain.Ownership,
				Body: func(ctx context.Context, scope *capture.Scope) error {
					if _, err := scope.Transact(ctx, g, "set_killed", true); err != nil {
						return err
					}
					panic("body exploded")
				},
			})
		})

		origin := f.forker.Forks[0]
		require.NotEmpty(t, origin.Snapshots)
		assert.Equal(t, origin.Snapshots, origin.Reverted)
		assert.True(t, origin.Closed)
	})

	t.Run("relay broadcasts become actions", func(t *testing.T) {
		f := newVoteFixture(nil)
		g := gauge(t)
		fraxtal, ok := domain.DefaultRegistry().ByName("fraxtal")
		require.True(t, ok)

		res, err := f.uc.Execute(ctx, usecase.CreateVoteParams{
			DAO: domain.Ownership,
			Body: func(ctx context.Context, scope *capture.Scope) error {
				opts := capture.RelayOptions{Params: &domain.BroadcastParams{
					GasLimits:       []uint64{1_000_000},
					DestinationData: []byte{0x01},
				}}
				return scope.Relay(ctx, fraxtal, opts, func(ctx context.Context, remote *capture.Scope) error {
					_, err := remote.Transact(ctx, g, "set_killed", true)
					return err
				})
			},
		})
		require.NoError(t, err)
		require.Len(t, res.Actions, 1)
		assert.Equal(t, fraxtal.Broadcaster.Address, res.Actions[0].Target)
		assert.Equal(t, 2, f.forker.Count(), "mainnet plus the relay fork")
	})

	t.Run("missing fork endpoint", func(t *testing.T) {
		f := newVoteFixture(nil)
		f.cfg.ForkRPC = ""

		_, err := f.uc.Execute(ctx, usecase.CreateVoteParams{DAO: domain.Ownership, Body: func(context.Context, *capture.Scope) error { return nil }})
		var cfgErr *domain.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Zero(t, f.forker.Count())
	})

	t.Run("live submission runs after simulation", func(t *testing.T) {
		pf := newPostFixture()
		pf.signer.On("Connect", ctx).Return(nil, errors.New("no key"))
		f := newVoteFixture(pf.uc)
		pf.cfg.NonInteractive = true

		res, err := f.uc.Execute(ctx, usecase.CreateVoteParams{
			DAO:         domain.Ownership,
			Description: description,
			Live:        true,
			Body:        func(context.Context, *capture.Scope) error { return nil },
		})
		require.ErrorIs(t, err, domain.ErrSignerUnavailable)
		require.NotNil(t, res)
		assert.Equal(t, big.NewInt(42), res.SimulatedVoteID)
		assert.False(t, res.Live)
	})
}
