package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

type scopeKind int

const (
	scopeDetached scopeKind = iota
	scopeGovernance
	scopeRelay
	scopeUntracked
)

func (k scopeKind) String() string {
	switch k {
	case scopeGovernance:
		return "vote"
	case scopeRelay:
		return "relay"
	case scopeUntracked:
		return "untracked"
	}
	return "detached"
}

// Scope is the handle body code issues calls through. Mutating calls are
// handed to the scope's sink and executed as the scope's sender.
type Scope struct {
	session  *Session
	kind     scopeKind
	env      Environment
	sender   common.Address
	dao      *domain.DAOTarget
	sink     Sink
	recorder *Recorder

	// remote scopes run against a relay fork, whose contracts must not
	// shadow mainnet interfaces used for previews
	remote bool

	cleanups []func(context.Context) error
	restore  func()
	release  func()
	closed   bool
}

// RelayOptions configures a relay scope.
type RelayOptions struct {
	// RPC overrides the chain's configured endpoint.
	RPC    string
	Params *domain.BroadcastParams
}

// Sender is the address calls are executed from.
func (s *Scope) Sender() common.Address {
	return s.sender
}

// Env is the chain this scope executes against.
func (s *Scope) Env() Environment {
	return s.env
}

// DAO returns the DAO this scope acts for.
func (s *Scope) DAO() (domain.DAOTarget, bool) {
	if s.dao == nil {
		return domain.DAOTarget{}, false
	}
	return *s.dao, true
}

// Actions returns what the scope recorded so far.
func (s *Scope) Actions() []domain.Action {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Actions()
}

// Call runs a method without committing state and without recording it.
func (s *Scope) Call(ctx context.Context, c *Contract, method string, args ...any) ([]any, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: call to %s.%s", domain.ErrScopeClosed, c, method)
	}
	m, err := c.method(method)
	if err != nil {
		return nil, err
	}
	input, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", c, method, err)
	}
	s.registerInterface(c)

	out, err := s.env.Call(ctx, s.sender, c.Address, input)
	if err != nil {
		return nil, fmt.Errorf("%s.%s reverted: %w", c, m.RawName, err)
	}
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s.%s result: %w", c, m.RawName, err)
	}
	return values, nil
}

// Transact executes a method. Read-only methods are delegated to Call and
// never recorded; state-changing ones are recorded before they execute.
func (s *Scope) Transact(ctx context.Context, c *Contract, method string, args ...any) ([]any, error) {
	m, err := c.method(method)
	if err != nil {
		return nil, err
	}
	if m.IsConstant() {
		return s.Call(ctx, c, method, args...)
	}
	if s.closed {
		return nil, fmt.Errorf("%w: call to %s.%s", domain.ErrScopeClosed, c, method)
	}

	input, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s.%s: %w", c, method, err)
	}
	s.registerInterface(c)
	s.sink.Prepare(c.Address, input)

	out, err := s.env.Call(ctx, s.sender, c.Address, input)
	if err != nil {
		return nil, fmt.Errorf("%s.%s reverted: %w", c, m.RawName, err)
	}
	if _, err := s.env.Transact(ctx, s.sender, c.Address, input); err != nil {
		return nil, fmt.Errorf("failed to execute %s.%s: %w", c, m.RawName, err)
	}

	if len(m.Outputs) == 0 || len(out) == 0 {
		return nil, nil
	}
	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s.%s result: %w", c, m.RawName, err)
	}
	return values, nil
}

// Untracked runs body with recording suppressed. Calls still execute, so
// body can assert on the state the vote produces.
func (s *Scope) Untracked(ctx context.Context, body func(context.Context, *Scope) error) (err error) {
	if s.closed {
		return domain.ErrScopeClosed
	}
	child := s.session.newScope(scopeUntracked, s.env, s.sender, s.dao, nil)
	child.remote = s.remote
	defer func() {
		err = errors.Join(err, child.Close(ctx))
	}()
	return body(ctx, child)
}

// Relay captures body as messages for chain's agent and, once the fork is
// rolled back, broadcasts them through this vote.
func (s *Scope) Relay(ctx context.Context, chain domain.Chain, opts RelayOptions, body func(context.Context, *Scope) error) error {
	if s.closed {
		return domain.ErrScopeClosed
	}
	if s.dao == nil {
		return fmt.Errorf("%w: relay to %s must run inside a vote", domain.ErrNoDAOActive, chain)
	}
	if s.kind != scopeGovernance {
		return fmt.Errorf("relay to %s must be opened from the vote scope, not a %s scope", chain, s.kind)
	}
	if !chain.HasRelayer() {
		return fmt.Errorf("%w %s", domain.ErrRelayerNotSet, chain)
	}
	rpc := opts.RPC
	if rpc == "" {
		rpc = chain.RPC
	}
	if rpc == "" || rpc == domain.RPCNotSet {
		return fmt.Errorf("%w %s", domain.ErrRPCNotSet, chain)
	}
	if s.session.forker == nil || s.session.relayer == nil {
		return errors.New("session has no relay support configured")
	}

	messages, err := s.captureRelay(ctx, chain, rpc, body)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		s.session.log.Warn("relay captured no messages, nothing to broadcast", "chain", chain.Name)
		return nil
	}

	s.session.log.Debug("broadcasting relay messages", "chain", chain.Name, "messages", len(messages))
	return s.session.relayer.Broadcast(ctx, s, BroadcastRequest{
		Chain:    chain,
		DAO:      *s.dao,
		RPC:      rpc,
		Messages: messages,
		Params:   opts.Params,
	})
}

func (s *Scope) captureRelay(ctx context.Context, chain domain.Chain, rpc string, body func(context.Context, *Scope) error) (_ []domain.Message, err error) {
	remote, err := s.session.forker.Fork(ctx, chain.Name, rpc)
	if err != nil {
		return nil, fmt.Errorf("failed to fork %s: %w", chain, err)
	}
	defer func() {
		if cerr := remote.Close(); cerr != nil {
			s.session.log.Warn("failed to close relay fork", "chain", chain.Name, "error", cerr)
		}
	}()

	lookup := s.session.Detached(remote, common.Address{})
	lookup.remote = true
	agent, err := s.session.relayer.AgentAddress(ctx, lookup, chain, *s.dao)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s agent on %s: %w", s.dao.Name, chain, err)
	}
	if err := remote.Impersonate(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to impersonate agent on %s: %w", chain, err)
	}
	snapshot, err := remote.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", chain, err)
	}

	child := s.session.newScope(scopeRelay, remote, agent, s.dao, NewRecorder())
	child.remote = true
	child.onClose(func(ctx context.Context) error {
		return remote.Revert(ctx, snapshot)
	})
	defer func() {
		err = errors.Join(err, child.Close(ctx))
	}()

	if err := body(ctx, child); err != nil {
		return nil, fmt.Errorf("relay to %s failed: %w", chain, err)
	}
	return child.Actions(), nil
}

// Close rolls back the scope's snapshot and restores the sink that was
// installed before it opened. Closing twice is a no-op.
func (s *Scope) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.restore != nil {
		s.restore()
	}
	if s.release != nil {
		s.release()
	}
	return errors.Join(errs...)
}

func (s *Scope) registerInterface(c *Contract) {
	if !s.remote {
		s.session.RegisterInterface(c.Address, c.ABI)
	}
}

func (s *Scope) onClose(fn func(context.Context) error) {
	s.cleanups = append(s.cleanups, fn)
}
