package capture

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// Sink receives the calldata of every mutating call before it executes.
type Sink interface {
	Prepare(target common.Address, calldata []byte)
}

// DiscardSink only lets calls through.
type DiscardSink struct{}

func (DiscardSink) Prepare(common.Address, []byte) {}

// Recorder appends every prepared call, in call order.
type Recorder struct {
	mu      sync.Mutex
	actions []domain.Action
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Prepare(target common.Address, calldata []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, domain.NewAction(target, calldata))
}

// Actions returns a copy of the recorded list.
func (r *Recorder) Actions() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}
