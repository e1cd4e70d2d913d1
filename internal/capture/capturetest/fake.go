// Package capturetest provides an in-memory chain for capture tests.
package capturetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-vote/internal/capture"
)

// Handler answers a call to a registered method.
type Handler func(from common.Address, input []byte) ([]byte, error)

// Call is one observed invocation.
type Call struct {
	From common.Address
	To   common.Address
	Data []byte
}

// Selector returns the 4-byte method id of the call.
func (c Call) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], c.Data)
	return sel
}

type handlerKey struct {
	to       common.Address
	selector [4]byte
}

// Env is a scripted capture.Environment. Unregistered calls succeed with
// empty return data.
type Env struct {
	Name string
	// GasUsed is reported on every receipt unless GasFor overrides it.
	GasUsed uint64
	GasFor  func(call Call) uint64

	mu           sync.Mutex
	handlers     map[handlerKey]Handler
	logs         map[handlerKey][]*types.Log
	Transactions []Call
	StaticCalls  []Call
	Impersonated []common.Address
	Snapshots    []string
	Reverted     []string
	TimeTravel   []uint64
	Closed       bool
}

func NewEnv(name string) *Env {
	return &Env{
		Name:     name,
		GasUsed:  21_000,
		handlers: make(map[handlerKey]Handler),
		logs:     make(map[handlerKey][]*types.Log),
	}
}

func key(to common.Address, parsed *abi.ABI, method string) handlerKey {
	m, ok := parsed.Methods[method]
	if !ok {
		panic(fmt.Sprintf("capturetest: method %s not in ABI", method))
	}
	var sel [4]byte
	copy(sel[:], m.ID)
	return handlerKey{to: to, selector: sel}
}

// Handle registers h for method on to.
func (e *Env) Handle(to common.Address, parsed *abi.ABI, method string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[key(to, parsed, method)] = h
}

// Returns makes method on to return values.
func (e *Env) Returns(to common.Address, parsed *abi.ABI, method string, values ...any) {
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	if err != nil {
		panic(fmt.Sprintf("capturetest: pack %s outputs: %v", method, err))
	}
	e.Handle(to, parsed, method, func(common.Address, []byte) ([]byte, error) {
		return out, nil
	})
}

// Reverts makes method on to fail with reason.
func (e *Env) Reverts(to common.Address, parsed *abi.ABI, method, reason string) {
	e.Handle(to, parsed, method, func(common.Address, []byte) ([]byte, error) {
		return nil, errors.New("execution reverted: " + reason)
	})
}

// EmitsOnTransact attaches logs to receipts of method on to.
func (e *Env) EmitsOnTransact(to common.Address, parsed *abi.ABI, method string, logs ...*types.Log) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logs[key(to, parsed, method)] = logs
}

func (e *Env) dispatch(from, to common.Address, data []byte) ([]byte, error) {
	var k handlerKey
	k.to = to
	copy(k.selector[:], data)
	e.mu.Lock()
	h, ok := e.handlers[k]
	e.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return h(from, data)
}

func (e *Env) Call(_ context.Context, from, to common.Address, data []byte) ([]byte, error) {
	e.mu.Lock()
	e.StaticCalls = append(e.StaticCalls, Call{From: from, To: to, Data: append([]byte(nil), data...)})
	e.mu.Unlock()
	return e.dispatch(from, to, data)
}

func (e *Env) Transact(_ context.Context, from, to common.Address, data []byte) (*types.Receipt, error) {
	if _, err := e.dispatch(from, to, data); err != nil {
		return nil, err
	}
	call := Call{From: from, To: to, Data: append([]byte(nil), data...)}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.Transactions = append(e.Transactions, call)

	gas := e.GasUsed
	if e.GasFor != nil {
		gas = e.GasFor(call)
	}
	var k handlerKey
	k.to = to
	copy(k.selector[:], data)
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: gas, Logs: e.logs[k]}, nil
}

func (e *Env) Impersonate(_ context.Context, account common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Impersonated = append(e.Impersonated, account)
	return nil
}

func (e *Env) Snapshot(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := fmt.Sprintf("0x%x", len(e.Snapshots)+1)
	e.Snapshots = append(e.Snapshots, id)
	return id, nil
}

func (e *Env) Revert(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Reverted = append(e.Reverted, id)
	return nil
}

func (e *Env) IncreaseTime(_ context.Context, seconds uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TimeTravel = append(e.TimeTravel, seconds)
	return nil
}

func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Closed = true
	return nil
}

// TransactionsTo returns the transactions sent to a method of to.
func (e *Env) TransactionsTo(to common.Address, parsed *abi.ABI, method string) []Call {
	k := key(to, parsed, method)
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Call
	for _, c := range e.Transactions {
		if c.To == to && c.Selector() == k.selector {
			out = append(out, c)
		}
	}
	return out
}

// Forker hands out Envs built by Setup.
type Forker struct {
	// Setup scripts each new fork; rpc is the forked endpoint.
	Setup func(env *Env, rpc string)
	Err   error

	mu    sync.Mutex
	Forks []*Env
	RPCs  []string
}

func (f *Forker) Fork(_ context.Context, name, rpc string) (capture.Environment, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	env := NewEnv(name)
	if f.Setup != nil {
		f.Setup(env, rpc)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Forks = append(f.Forks, env)
	f.RPCs = append(f.RPCs, rpc)
	return env, nil
}

// Count returns how many forks were opened.
func (f *Forker) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Forks)
}
