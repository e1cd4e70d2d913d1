package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/treb-vote/internal/capture/capturetest"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockPinner is a mock implementation of Pinner
type MockPinner struct {
	mock.Mock
}

func (m *MockPinner) Pin(ctx context.Context, description string) (string, error) {
	args := m.Called(ctx, description)
	return args.String(0), args.Error(1)
}

// MockPinCache is a mock implementation of PinCache
type MockPinCache struct {
	mock.Mock
}

func (m *MockPinCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockPinCache) Put(ctx context.Context, key, hash string) error {
	args := m.Called(ctx, key, hash)
	return args.Error(0)
}

// MockLiveSigner is a mock implementation of LiveSigner
type MockLiveSigner struct {
	mock.Mock
}

func (m *MockLiveSigner) Connect(ctx context.Context) (usecase.LiveSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(usecase.LiveSession), args.Error(1)
}

// MockLiveSession is a mock implementation of LiveSession
type MockLiveSession struct {
	mock.Mock
}

func (m *MockLiveSession) Address() common.Address {
	return m.Called().Get(0).(common.Address)
}

func (m *MockLiveSession) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	args := m.Called(ctx, to, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockLiveSession) Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	args := m.Called(ctx, to, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *MockLiveSession) Close() {
	m.Called()
}

// MockConfirmer is a mock implementation of Confirmer
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

// stubDecoder renders every action as unresolved.
type stubDecoder struct{}

func (stubDecoder) Decode(_ context.Context, dao domain.DAOTarget, actions []domain.Action, _ usecase.InterfaceLookup) []domain.ActionPreview {
	out := make([]domain.ActionPreview, len(actions))
	for i, a := range actions {
		out[i] = domain.ActionPreview{Index: i, Agent: dao.Agent, Target: a.Target, Method: "unknown", Calldata: a.Calldata}
	}
	return out
}

// recordingProgress keeps every event it receives.
type recordingProgress struct {
	usecase.NopProgress
	events []usecase.ProgressEvent
}

func (p *recordingProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	p.events = append(p.events, event)
}

func (p *recordingProgress) stages() []usecase.VoteStage {
	out := make([]usecase.VoteStage, len(p.events))
	for i, e := range p.events {
		out[i] = e.Stage
	}
	return out
}

const voteTime = uint64(7 * 24 * 3600)

// scriptVoting makes env's voting app accept a proposal from anyone.
func scriptVoting(env *capturetest.Env, dao domain.DAOTarget, voteID int64) {
	env.Returns(dao.Voting, bindings.VotingABI, "newVote", big.NewInt(voteID))
	env.Returns(dao.Voting, bindings.VotingABI, "canVote", true)
	env.Returns(dao.Voting, bindings.VotingABI, "voteTime", voteTime)
	env.Returns(dao.Voting, bindings.VotingABI, "canExecute", true)
}

func startVoteLog(voting common.Address, voteID int64, creator common.Address, metadata string) *types.Log {
	event := bindings.VotingABI.Events[bindings.StartVoteEventName]
	data, err := event.Inputs.NonIndexed().Pack(metadata)
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: voting,
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(big.NewInt(voteID)),
			common.BytesToHash(creator.Bytes()),
		},
		Data: data,
	}
}

func packBool(method string, v bool) []byte {
	out, err := bindings.VotingABI.Methods[method].Outputs.Pack(v)
	if err != nil {
		panic(err)
	}
	return out
}
