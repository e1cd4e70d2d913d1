package bindings

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

// RelayMessage is the (target, data) tuple relay agents execute.
type RelayMessage struct {
	Target common.Address
	Data   []byte
}

// ToRelayMessages converts messages into the tuple form the relay ABIs pack.
func ToRelayMessages(messages []domain.Message) []RelayMessage {
	return lo.Map(messages, func(m domain.Message, _ int) RelayMessage {
		return RelayMessage{Target: m.Target, Data: m.Calldata}
	})
}

// MethodByArity selects an overload of rawName by its number of inputs and
// returns the key to pack it under.
func MethodByArity(parsed *abi.ABI, rawName string, arity int) (string, error) {
	for key, method := range parsed.Methods {
		if method.RawName == rawName && len(method.Inputs) == arity {
			return key, nil
		}
	}
	return "", fmt.Errorf("no %s overload taking %d arguments", rawName, arity)
}
