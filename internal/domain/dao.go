package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DAOTarget identifies one governance body: the agent that executes approved
// calls, the voting contract that holds proposals and the voting token.
type DAOTarget struct {
	Name          string         `json:"name" yaml:"name"`
	Agent         common.Address `json:"agent" yaml:"agent"`
	Voting        common.Address `json:"voting" yaml:"voting"`
	Token         common.Address `json:"token" yaml:"token"`
	QuorumPercent uint8          `json:"quorum" yaml:"quorum"`

	// RelayerAgentGetter is the relayer view that returns this DAO's agent on a
	// remote chain.
	RelayerAgentGetter string `json:"-" yaml:"-"`
}

func (d DAOTarget) String() string {
	return d.Name
}

var (
	Ownership = DAOTarget{
		Name:               "ownership",
		Agent:              common.HexToAddress("0x40907540d8a6C65c637785e8f8B742ae6b0b9968"),
		Voting:             common.HexToAddress("0xE478de485ad2fe566d49342Cbd03E49ed7DB3356"),
		Token:              common.HexToAddress("0x5f3b5DfEb7B28CDbD7FAba78963EE202a494e2A2"),
		QuorumPercent:      30,
		RelayerAgentGetter: "OWNERSHIP_AGENT",
	}

	Parameter = DAOTarget{
		Name:               "parameter",
		Agent:              common.HexToAddress("0x4eeb3ba4f221ca16ed4a0cc7254e2e32df948c5f"),
		Voting:             common.HexToAddress("0xbcff8b0b9419b9a88c44546519b1e909cf330399"),
		Token:              common.HexToAddress("0x5f3b5DfEb7B28CDbD7FAba78963EE202a494e2A2"),
		QuorumPercent:      15,
		RelayerAgentGetter: "PARAMETER_AGENT",
	}
)

// ConvexVoterProxy holds enough voting weight to create, pass and execute a
// proposal on its own. Simulations cast from it by default.
var ConvexVoterProxy = common.HexToAddress("0x989AEB4D175E16225E39E87D0D97A3360524AD80")

// LookupDAO resolves a DAO by name.
func LookupDAO(name string) (DAOTarget, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Ownership.Name:
		return Ownership, nil
	case Parameter.Name:
		return Parameter, nil
	}
	return DAOTarget{}, fmt.Errorf("%w: %q (expected %q or %q)", ErrUnknownDAO, name, Ownership.Name, Parameter.Name)
}

// AddressLabels maps well known governance addresses to a readable alias.
func AddressLabels() map[common.Address]string {
	labels := map[common.Address]string{
		ConvexVoterProxy: "convex",
	}
	for _, dao := range []DAOTarget{Ownership, Parameter} {
		labels[dao.Agent] = "agent_" + dao.Name
		labels[dao.Voting] = "voting_" + dao.Name
	}
	// both DAOs share the voting token
	labels[Ownership.Token] = "token"
	return labels
}
