package domain

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Action is one governance-authorized call captured inside a vote.
type Action struct {
	Target   common.Address `json:"target"`
	Calldata hexutil.Bytes  `json:"calldata"`
}

// NewAction copies calldata so later mutation by the caller cannot change a
// recorded action.
func NewAction(target common.Address, calldata []byte) Action {
	return Action{Target: target, Calldata: bytes.Clone(calldata)}
}

// Selector returns the 4-byte method id, or nil for calldata shorter than 4 bytes.
func (a Action) Selector() []byte {
	if len(a.Calldata) < 4 {
		return nil
	}
	return a.Calldata[:4]
}

// Message is an action destined for an executor on another chain.
type Message = Action

// ExecutionScript is the encoded action list handed to the voting contract.
type ExecutionScript []byte

func (s ExecutionScript) Hex() string {
	return hexutil.Encode(s)
}

// DecodedArg is a single decoded calldata argument.
type DecodedArg struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// ActionPreview is the readable rendering of an Action.
type ActionPreview struct {
	Index       int            `json:"index"`
	Agent       common.Address `json:"agent"`
	Target      common.Address `json:"target"`
	TargetLabel string         `json:"targetLabel,omitempty"`
	Method      string         `json:"method"`
	Signature   string         `json:"signature,omitempty"`
	Args        []DecodedArg   `json:"args,omitempty"`
	Resolved    bool           `json:"resolved"`
	Calldata    hexutil.Bytes  `json:"calldata"`
}

// VoteResult summarizes one finalized governance capture.
type VoteResult struct {
	RunID           string          `json:"runId"`
	DAO             DAOTarget       `json:"dao"`
	Description     string          `json:"description"`
	Actions         []Action        `json:"actions"`
	Preview         []ActionPreview `json:"preview"`
	Script          ExecutionScript `json:"script"`
	SimulatedVoteID *big.Int        `json:"simulatedVoteId"`
	Live            bool            `json:"live"`
	LiveVoteID      *big.Int        `json:"liveVoteId,omitempty"`
	Locator         string          `json:"locator,omitempty"`
	LiveTxHash      common.Hash     `json:"liveTxHash,omitempty"`
}

// VoteID returns the live proposal id when one was created and the simulated
// id otherwise.
func (r *VoteResult) VoteID() *big.Int {
	if r.LiveVoteID != nil {
		return r.LiveVoteID
	}
	return r.SimulatedVoteID
}
