package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// Relayer resolves destination agents and turns relayed messages into
// broadcast calls on the origin chain.
type Relayer interface {
	AgentAddress(ctx context.Context, remote *Scope, chain domain.Chain, dao domain.DAOTarget) (common.Address, error)
	Broadcast(ctx context.Context, origin *Scope, req BroadcastRequest) error
}

// BroadcastRequest carries the result of a relay capture.
type BroadcastRequest struct {
	Chain    domain.Chain
	DAO      domain.DAOTarget
	RPC      string
	Messages []domain.Message
	Params   *domain.BroadcastParams
}

// Session owns the capture state of one origin fork: the active DAO, the
// stack of installed sinks and the interfaces of every contract touched.
type Session struct {
	env     Environment
	forker  Forker
	relayer Relayer
	log     *slog.Logger

	// held while a governance scope is open
	guard sync.Mutex

	mu         sync.Mutex
	dao        *domain.DAOTarget
	sinks      []Sink
	interfaces map[common.Address]*abi.ABI
}

// NewSession creates a session over env. forker and relayer are only needed
// for relay scopes.
func NewSession(env Environment, forker Forker, relayer Relayer, log *slog.Logger) *Session {
	return &Session{
		env:        env,
		forker:     forker,
		relayer:    relayer,
		log:        log.With("component", "capture"),
		interfaces: make(map[common.Address]*abi.ABI),
	}
}

// Env returns the origin environment.
func (s *Session) Env() Environment {
	return s.env
}

// Forker returns the fork factory used for relay scopes.
func (s *Session) Forker() Forker {
	return s.forker
}

// ActiveDAO returns the DAO of the open governance scope.
func (s *Session) ActiveDAO() (domain.DAOTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dao == nil {
		return domain.DAOTarget{}, false
	}
	return *s.dao, true
}

// Interceptor returns the innermost installed sink.
func (s *Session) Interceptor() Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sinks) == 0 {
		return DiscardSink{}
	}
	return s.sinks[len(s.sinks)-1]
}

// Depth returns the number of installed sinks.
func (s *Session) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinks)
}

// RegisterInterface makes an ABI available to previews of calls to address.
func (s *Session) RegisterInterface(address common.Address, parsed *abi.ABI) {
	if parsed == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interfaces[address] = parsed
}

// LookupInterface returns the ABI last used to call address.
func (s *Session) LookupInterface(address common.Address) (*abi.ABI, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parsed, ok := s.interfaces[address]
	return parsed, ok
}

// Govern opens a governance scope for dao. The returned scope executes calls
// as the DAO agent, records mutating ones and must be closed.
func (s *Session) Govern(ctx context.Context, dao domain.DAOTarget) (scope *Scope, err error) {
	if !s.guard.TryLock() {
		active, _ := s.ActiveDAO()
		return nil, fmt.Errorf("%w: %s vote is still open", domain.ErrDAOAlreadyActive, active.Name)
	}
	defer func() {
		if err != nil {
			s.guard.Unlock()
		}
	}()

	if err := s.env.Impersonate(ctx, dao.Agent); err != nil {
		return nil, fmt.Errorf("failed to impersonate %s agent: %w", dao.Name, err)
	}
	snapshot, err := s.env.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot before vote: %w", err)
	}

	s.mu.Lock()
	active := dao
	s.dao = &active
	s.mu.Unlock()

	scope = s.newScope(scopeGovernance, s.env, dao.Agent, &active, NewRecorder())
	scope.release = func() {
		s.mu.Lock()
		s.dao = nil
		s.mu.Unlock()
		s.guard.Unlock()
	}
	scope.onClose(func(ctx context.Context) error {
		if err := s.env.Revert(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to revert vote snapshot: %w", err)
		}
		return nil
	})

	s.log.Debug("opened vote scope", "dao", dao.Name, "snapshot", snapshot)
	return scope, nil
}

// Detached returns a scope that executes as sender without recording and
// without touching the sink stack.
func (s *Session) Detached(env Environment, sender common.Address) *Scope {
	return &Scope{
		session: s,
		kind:    scopeDetached,
		env:     env,
		sender:  sender,
		sink:    DiscardSink{},
	}
}

func (s *Session) newScope(kind scopeKind, env Environment, sender common.Address, dao *domain.DAOTarget, rec *Recorder) *Scope {
	scope := &Scope{
		session: s,
		kind:    kind,
		env:     env,
		sender:  sender,
		dao:     dao,
	}
	if rec != nil {
		scope.recorder = rec
		scope.sink = rec
	} else {
		scope.sink = DiscardSink{}
	}
	scope.restore = s.push(scope.sink)
	return scope
}

// push installs sink and returns a func restoring the exact prior stack.
func (s *Session) push(sink Sink) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	depth := len(s.sinks)
	s.sinks = append(s.sinks, sink)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.sinks) > depth {
			s.sinks = s.sinks[:depth]
		}
	}
}
