package bindings

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AragonAgentMetaData describes the Aragon agent entry point every vote action
// is wrapped through.
var AragonAgentMetaData = bind.MetaData{
	ABI: `[{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"_target","type":"address"},{"name":"_ethValue","type":"uint256"},{"name":"_data","type":"bytes"}],"outputs":[]}]`,
	ID:  "AragonAgent",
}

// VotingMetaData describes the Aragon voting app.
var VotingMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"newVote","stateMutability":"nonpayable","inputs":[{"name":"_executionScript","type":"bytes"},{"name":"_metadata","type":"string"},{"name":"_castVote","type":"bool"},{"name":"_executesIfDecided","type":"bool"}],"outputs":[{"name":"voteId","type":"uint256"}]},
{"type":"function","name":"canCreateNewVote","stateMutability":"view","inputs":[{"name":"_sender","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"canVote","stateMutability":"view","inputs":[{"name":"_voteId","type":"uint256"},{"name":"_voter","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"_voteData","type":"uint256"},{"name":"_supports","type":"bool"},{"name":"_executesIfDecided","type":"bool"}],"outputs":[]},
{"type":"function","name":"voteTime","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
{"type":"function","name":"canExecute","stateMutability":"view","inputs":[{"name":"_voteId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"executeVote","stateMutability":"nonpayable","inputs":[{"name":"_voteId","type":"uint256"}],"outputs":[]},
{"type":"event","name":"StartVote","anonymous":false,"inputs":[{"name":"voteId","type":"uint256","indexed":true},{"name":"creator","type":"address","indexed":true},{"name":"metadata","type":"string","indexed":false}]}
]`,
	ID: "Voting",
}

// RelayerMetaData describes the destination-chain relayer that knows which
// agent executes for each DAO.
var RelayerMetaData = bind.MetaData{
	ABI: `[
{"type":"function","name":"OWNERSHIP_AGENT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"PARAMETER_AGENT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"EMERGENCY_AGENT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`,
	ID: "Relayer",
}

// RelayAgentMetaData describes the destination-chain agent executing relayed
// message batches.
var RelayAgentMetaData = bind.MetaData{
	ABI: `[{"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"_messages","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"data","type":"bytes"}]}],"outputs":[]}]`,
	ID:  "RelayAgent",
}

var (
	AragonAgentABI = mustParse(&AragonAgentMetaData)
	VotingABI      = mustParse(&VotingMetaData)
	RelayerABI     = mustParse(&RelayerMetaData)
	RelayAgentABI  = mustParse(&RelayAgentMetaData)
)

// StartVoteEventName is emitted by newVote.
const StartVoteEventName = "StartVote"

// VotingStartVote represents a StartVote event raised by the voting app.
type VotingStartVote struct {
	VoteId   *big.Int
	Creator  common.Address
	Metadata string
	Raw      *types.Log
}

// UnpackStartVoteEvent decodes a StartVote log.
func UnpackStartVoteEvent(log *types.Log) (*VotingStartVote, error) {
	event := VotingABI.Events[StartVoteEventName]
	if len(log.Topics) < 3 || log.Topics[0] != event.ID {
		return nil, errors.New("event signature mismatch")
	}
	out := &VotingStartVote{
		VoteId:  new(big.Int).SetBytes(log.Topics[1].Bytes()),
		Creator: common.BytesToAddress(log.Topics[2].Bytes()),
		Raw:     log,
	}
	if len(log.Data) > 0 {
		if err := VotingABI.UnpackIntoInterface(out, StartVoteEventName, log.Data); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FindStartVote returns the first StartVote event emitted by voting in receipt.
func FindStartVote(receipt *types.Receipt, voting common.Address) (*VotingStartVote, error) {
	for _, log := range receipt.Logs {
		if log.Address != voting {
			continue
		}
		if ev, err := UnpackStartVoteEvent(log); err == nil {
			return ev, nil
		}
	}
	return nil, errors.New("StartVote event not found in receipt")
}

func mustParse(meta *bind.MetaData) *abi.ABI {
	parsed, err := meta.ParseABI()
	if err != nil {
		panic(errors.New("invalid " + meta.ID + " ABI: " + err.Error()))
	}
	return parsed
}
