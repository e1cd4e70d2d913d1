// Package evmscript builds Aragon EVM call scripts (script id 1) for the voting app.
package evmscript

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
)

// Header is the CallsScript executor id prefix.
var Header = []byte{0x00, 0x00, 0x00, 0x01}

// WrapAction returns the agent calldata executing action with zero value.
func WrapAction(action domain.Action) ([]byte, error) {
	return bindings.AragonAgentABI.Pack("execute", action.Target, big.NewInt(0), []byte(action.Calldata))
}

// Encode serializes actions into a call script executed by agent. Every entry
// is agent (20 bytes) ++ uint32 big-endian length ++ agent.execute calldata.
func Encode(agent common.Address, actions []domain.Action) (domain.ExecutionScript, error) {
	script := make([]byte, 0, len(Header)+len(actions)*(common.AddressLength+4+196))
	script = append(script, Header...)

	for i, action := range actions {
		wrapped, err := WrapAction(action)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap action %d: %w", i, err)
		}
		if uint64(len(wrapped)) > math.MaxUint32 {
			return nil, fmt.Errorf("action %d calldata too large: %d bytes", i, len(wrapped))
		}

		script = append(script, agent.Bytes()...)
		script = binary.BigEndian.AppendUint32(script, uint32(len(wrapped)))
		script = append(script, wrapped...)
	}

	return script, nil
}
