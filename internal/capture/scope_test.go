package capture_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/capture/capturetest"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

const gaugeABI = `[
{"type":"function","name":"set_killed","stateMutability":"nonpayable","inputs":[{"name":"_is_killed","type":"bool"}],"outputs":[]},
{"type":"function","name":"is_killed","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]}
]`

var gaugeAddr = common.HexToAddress("0x000000000000000000000000000000000000ca01")

func newGauge(t *testing.T) *capture.Contract {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(gaugeABI))
	require.NoError(t, err)
	return capture.NewContract("gauge", gaugeAddr, &parsed)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRelayer struct {
	agent    common.Address
	requests []capture.BroadcastRequest
	// issue runs on the origin scope during Broadcast
	issue func(ctx context.Context, origin *capture.Scope) error
}

func (r *fakeRelayer) AgentAddress(context.Context, *capture.Scope, domain.Chain, domain.DAOTarget) (common.Address, error) {
	return r.agent, nil
}

func (r *fakeRelayer) Broadcast(ctx context.Context, origin *capture.Scope, req capture.BroadcastRequest) error {
	r.requests = append(r.requests, req)
	if r.issue != nil {
		return r.issue(ctx, origin)
	}
	return nil
}

func TestGovern_RecordsOnlyMutatingCalls(t *testing.T) {
	ctx := context.Background()
	env := capturetest.NewEnv("mainnet")
	gauge := newGauge(t)
	env.Returns(gaugeAddr, gauge.ABI, "is_killed", true)

	session := capture.NewSession(env, nil, nil, quietLogger())
	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)

	dao, ok := session.ActiveDAO()
	require.True(t, ok)
	assert.Equal(t, domain.Ownership.Name, dao.Name)
	assert.Equal(t, []common.Address{domain.Ownership.Agent}, env.Impersonated)

	_, err = scope.Transact(ctx, gauge, "set_killed", true)
	require.NoError(t, err)

	out, err := scope.Transact(ctx, gauge, "is_killed")
	require.NoError(t, err)
	assert.Equal(t, []any{true}, out)

	_, err = scope.Call(ctx, gauge, "is_killed")
	require.NoError(t, err)

	actions := scope.Actions()
	require.Len(t, actions, 1)
	expected, err := gauge.ABI.Pack("set_killed", true)
	require.NoError(t, err)
	assert.Equal(t, gaugeAddr, actions[0].Target)
	assert.Equal(t, expected, []byte(actions[0].Calldata))

	require.Len(t, env.Transactions, 1)
	assert.Equal(t, domain.Ownership.Agent, env.Transactions[0].From)

	require.NoError(t, scope.Close(ctx))
	assert.Equal(t, env.Snapshots, env.Reverted)
	assert.Equal(t, 0, session.Depth())
	_, ok = session.ActiveDAO()
	assert.False(t, ok)

	parsed, ok := session.LookupInterface(gaugeAddr)
	require.True(t, ok)
	assert.Same(t, gauge.ABI, parsed)
}

func TestGovern_SecondScopeFails(t *testing.T) {
	ctx := context.Background()
	env := capturetest.NewEnv("mainnet")
	gauge := newGauge(t)
	session := capture.NewSession(env, nil, nil, quietLogger())

	first, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	active := session.Interceptor()

	_, err = session.Govern(ctx, domain.Parameter)
	require.ErrorIs(t, err, domain.ErrDAOAlreadyActive)
	assert.True(t, active == session.Interceptor(), "failed open must not install a sink")

	_, err = first.Transact(ctx, gauge, "set_killed", false)
	require.NoError(t, err)
	assert.Len(t, first.Actions(), 1)

	require.NoError(t, first.Close(ctx))

	second, err := session.Govern(ctx, domain.Parameter)
	require.NoError(t, err)
	assert.Empty(t, second.Actions())
	require.NoError(t, second.Close(ctx))
}

func TestScope_ClosedRejectsCalls(t *testing.T) {
	ctx := context.Background()
	session := capture.NewSession(capturetest.NewEnv("mainnet"), nil, nil, quietLogger())
	gauge := newGauge(t)

	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	require.NoError(t, scope.Close(ctx))
	require.NoError(t, scope.Close(ctx))

	_, err = scope.Transact(ctx, gauge, "set_killed", true)
	assert.ErrorIs(t, err, domain.ErrScopeClosed)
	assert.Empty(t, scope.Actions())
}

func TestScope_RevertedCallIsRecordedAndReturned(t *testing.T) {
	ctx := context.Background()
	env := capturetest.NewEnv("mainnet")
	gauge := newGauge(t)
	env.Reverts(gaugeAddr, gauge.ABI, "set_killed", "only admin")

	session := capture.NewSession(env, nil, nil, quietLogger())
	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	defer scope.Close(ctx)

	_, err = scope.Transact(ctx, gauge, "set_killed", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only admin")
	assert.Empty(t, env.Transactions)
	assert.Len(t, scope.Actions(), 1, "the attempt is recorded before it executes")
}

func TestUntracked_SuppressesRecordingAndRestoresSink(t *testing.T) {
	ctx := context.Background()
	env := capturetest.NewEnv("mainnet")
	gauge := newGauge(t)
	session := capture.NewSession(env, nil, nil, quietLogger())

	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	defer scope.Close(ctx)
	before := session.Interceptor()

	err = scope.Untracked(ctx, func(ctx context.Context, s *capture.Scope) error {
		assert.Equal(t, capture.DiscardSink{}, session.Interceptor())
		assert.Equal(t, domain.Ownership.Agent, s.Sender())
		_, err := s.Transact(ctx, gauge, "set_killed", true)
		return err
	})
	require.NoError(t, err)

	assert.True(t, before == session.Interceptor())
	assert.Empty(t, scope.Actions())
	assert.Len(t, env.Transactions, 1, "untracked calls still execute")
}

func TestUntracked_RestoresSinkOnErrorAndPanic(t *testing.T) {
	ctx := context.Background()
	session := capture.NewSession(capturetest.NewEnv("mainnet"), nil, nil, quietLogger())

	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	defer scope.Close(ctx)
	before := session.Interceptor()
	depth := session.Depth()

	boom := errors.New("assertion failed")
	err = scope.Untracked(ctx, func(context.Context, *capture.Scope) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, before == session.Interceptor())

	assert.Panics(t, func() {
		_ = scope.Untracked(ctx, func(context.Context, *capture.Scope) error { panic("body exploded") })
	})
	assert.True(t, before == session.Interceptor())
	assert.Equal(t, depth, session.Depth())
}

func TestRelay_RequiresActiveDAO(t *testing.T) {
	ctx := context.Background()
	forker := &capturetest.Forker{}
	env := capturetest.NewEnv("mainnet")
	session := capture.NewSession(env, forker, &fakeRelayer{}, quietLogger())

	chain, err := domain.DefaultRegistry().ByID(252)
	require.NoError(t, err)

	detached := session.Detached(env, common.Address{})
	err = detached.Relay(ctx, chain, capture.RelayOptions{}, func(context.Context, *capture.Scope) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNoDAOActive)
	assert.Zero(t, forker.Count())
}

func TestRelay_FailsFastOnIncompleteChain(t *testing.T) {
	ctx := context.Background()
	forker := &capturetest.Forker{}
	session := capture.NewSession(capturetest.NewEnv("mainnet"), forker, &fakeRelayer{}, quietLogger())

	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	defer scope.Close(ctx)

	noop := func(context.Context, *capture.Scope) error { return nil }

	zeroRelayer := domain.Chain{ID: 1, Name: "nowhere", RPC: "http://rpc", Broadcaster: domain.StorageProofs}
	err = scope.Relay(ctx, zeroRelayer, capture.RelayOptions{}, noop)
	assert.ErrorIs(t, err, domain.ErrRelayerNotSet)

	gnosis, err := domain.DefaultRegistry().ByID(100)
	require.NoError(t, err)
	err = scope.Relay(ctx, gnosis, capture.RelayOptions{}, noop)
	assert.ErrorIs(t, err, domain.ErrRPCNotSet)

	assert.Zero(t, forker.Count(), "no fork may be opened for an incomplete chain")
}

func TestRelay_CapturesMessagesAndBroadcastsThroughVote(t *testing.T) {
	ctx := context.Background()
	origin := capturetest.NewEnv("mainnet")
	forker := &capturetest.Forker{}
	gauge := newGauge(t)
	remoteAgent := common.HexToAddress("0x00000000000000000000000000000000000a9e17")
	broadcaster := newGauge(t)
	broadcaster.Address = common.HexToAddress("0x00000000000000000000000000000000000b0a57")

	relayer := &fakeRelayer{
		agent: remoteAgent,
		issue: func(ctx context.Context, s *capture.Scope) error {
			_, err := s.Transact(ctx, broadcaster, "set_killed", true)
			return err
		},
	}
	session := capture.NewSession(origin, forker, relayer, quietLogger())

	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	defer scope.Close(ctx)
	voteSink := session.Interceptor()

	chain, ok := domain.DefaultRegistry().ByName("fraxtal")
	require.True(t, ok)
	params := &domain.BroadcastParams{GasLimits: []uint64{1}}

	err = scope.Relay(ctx, chain, capture.RelayOptions{RPC: "http://fork", Params: params}, func(ctx context.Context, s *capture.Scope) error {
		assert.Equal(t, remoteAgent, s.Sender())
		assert.False(t, voteSink == session.Interceptor())
		if _, err := s.Transact(ctx, gauge, "set_killed", true); err != nil {
			return err
		}
		_, err := s.Transact(ctx, gauge, "set_killed", false)
		return err
	})
	require.NoError(t, err)

	assert.True(t, voteSink == session.Interceptor())
	require.Equal(t, 1, forker.Count())
	assert.Equal(t, []string{"http://fork"}, forker.RPCs)

	remote := forker.Forks[0]
	assert.Equal(t, remote.Snapshots, remote.Reverted)
	assert.True(t, remote.Closed)
	assert.Contains(t, remote.Impersonated, remoteAgent)

	require.Len(t, relayer.requests, 1)
	req := relayer.requests[0]
	assert.Equal(t, chain, req.Chain)
	assert.Same(t, params, req.Params)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, gaugeAddr, req.Messages[0].Target)

	actions := scope.Actions()
	require.Len(t, actions, 1, "only the broadcast becomes a vote action")
	assert.Equal(t, broadcaster.Address, actions[0].Target)

	_, ok = session.LookupInterface(gaugeAddr)
	assert.False(t, ok, "remote contracts stay out of the mainnet interface map")
	parsed, ok := session.LookupInterface(broadcaster.Address)
	require.True(t, ok)
	assert.Same(t, broadcaster.ABI, parsed)
}

func TestRelay_RemoteInterfaceDoesNotShadowMainnet(t *testing.T) {
	ctx := context.Background()
	forker := &capturetest.Forker{}
	relayer := &fakeRelayer{agent: common.HexToAddress("0x01")}
	session := capture.NewSession(capturetest.NewEnv("mainnet"), forker, relayer, quietLogger())

	scope, err := session.Govern(ctx, domain.Ownership)
	require.NoError(t, err)
	defer scope.Close(ctx)

	mainnetGauge := newGauge(t)
	_, err = scope.Transact(ctx, mainnetGauge, "set_killed", true)
	require.NoError(t, err)

	chain, ok := domain.DefaultRegistry().ByName("fraxtal")
	require.True(t, ok)
	remoteGauge := newGauge(t)
	err = scope.Relay(ctx, chain, capture.RelayOptions{RPC: "http://fork"}, func(ctx context.Context, s *capture.Scope) error {
		_, err := s.Transact(ctx, remoteGauge, "set_killed", false)
		if err != nil {
			return err
		}
		return s.Untracked(ctx, func(ctx context.Context, u *capture.Scope) error {
			_, err := u.Call(ctx, remoteGauge, "is_killed")
			return err
		})
	})
	require.NoError(t, err)

	parsed, ok := session.LookupInterface(gaugeAddr)
	require.True(t, ok)
	assert.Same(t, mainnetGauge.ABI, parsed)
}

func TestRelay_BodyErrorSkipsBroadcast(t *testing.T) {
	ctx := context.Background()
	forker := &capturetest.Forker{}
	relayer := &fakeRelayer{agent: common.HexToAddress("0x01")}
	session := capture.NewSession(capturetest.NewEnv("mainnet"), forker, relayer, quietLogger())

	scope, err := session.Govern(ctx, domain.Parameter)
	require.NoError(t, err)
	defer scope.Close(ctx)
	voteSink := session.Interceptor()

	chain, ok := domain.DefaultRegistry().ByName("taiko")
	require.True(t, ok)

	boom := errors.New("bad call")
	err = scope.Relay(ctx, chain, capture.RelayOptions{}, func(context.Context, *capture.Scope) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, relayer.requests)
	assert.True(t, voteSink == session.Interceptor())
	assert.True(t, forker.Forks[0].Closed)
}
