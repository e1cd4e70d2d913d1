package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// ForkManager starts forked chains and hands out environments for them
type ForkManager interface {
	capture.Forker
}

// Pinner publishes a vote description and returns its content hash
type Pinner interface {
	Pin(ctx context.Context, description string) (string, error)
}

// PinCache remembers content hashes by description digest
type PinCache interface {
	Get(ctx context.Context, key string) (hash string, ok bool, err error)
	Put(ctx context.Context, key, hash string) error
}

// LiveSigner connects to the live network with the submitting account
type LiveSigner interface {
	Connect(ctx context.Context) (LiveSession, error)
}

// LiveSession is an open connection able to sign transactions
type LiveSession interface {
	Address() common.Address
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error)
	Close()
}

// Confirmer asks the operator before irreversible steps
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// InterfaceLookup returns the ABI last used to call an address
type InterfaceLookup func(address common.Address) (*abi.ABI, bool)

// ActionDecoder renders captured actions for review
type ActionDecoder interface {
	Decode(ctx context.Context, dao domain.DAOTarget, actions []domain.Action, lookup InterfaceLookup) []domain.ActionPreview
}

// ProposalLoader reads a proposal file into a plan
type ProposalLoader interface {
	Load(ctx context.Context, path string) (*ProposalPlan, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   VoteStage
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// VoteStage represents a stage in the vote pipeline
type VoteStage string

const (
	StageForking    VoteStage = "Forking"
	StageCapturing  VoteStage = "Capturing"
	StageEncoding   VoteStage = "Encoding"
	StageSimulating VoteStage = "Simulating"
	StagePinning    VoteStage = "Pinning"
	StageSubmitting VoteStage = "Submitting"
	StageCompleted  VoteStage = "Completed"
)
