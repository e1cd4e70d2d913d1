// Package preview turns captured actions into readable method calls.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

const unknownMethod = "unknown"

// ActionDecoder decodes actions with the ABIs seen during capture, falling
// back to the built-in relay contract ABIs.
type ActionDecoder struct {
	log      *slog.Logger
	label    map[common.Address]string
	fallback map[common.Address]*abi.ABI
}

// NewActionDecoder creates a decoder that labels governance and relay contracts
func NewActionDecoder(log *slog.Logger) *ActionDecoder {
	d := &ActionDecoder{
		log:      log.With("component", "preview"),
		label:    domain.AddressLabels(),
		fallback: make(map[common.Address]*abi.ABI),
	}
	for _, b := range domain.Broadcasters {
		d.label[b.Address] = b.Name
		if parsed, err := bindings.BroadcasterABI(b.Kind); err == nil {
			d.fallback[b.Address] = parsed
		}
	}
	return d
}

// Decode renders every action. Actions that cannot be decoded are kept with
// method "unknown".
func (d *ActionDecoder) Decode(_ context.Context, dao domain.DAOTarget, actions []domain.Action, lookup usecase.InterfaceLookup) []domain.ActionPreview {
	previews := make([]domain.ActionPreview, 0, len(actions))
	for i, action := range actions {
		p := domain.ActionPreview{
			Index:       i,
			Agent:       dao.Agent,
			Target:      action.Target,
			TargetLabel: d.label[action.Target],
			Method:      unknownMethod,
			Calldata:    action.Calldata,
		}
		if err := d.decodeInto(&p, action, lookup); err != nil {
			d.log.Warn("could not decode action", "index", i, "target", action.Target.Hex(), "error", err)
		}
		previews = append(previews, p)
	}
	return previews
}

func (d *ActionDecoder) decodeInto(p *domain.ActionPreview, action domain.Action, lookup usecase.InterfaceLookup) error {
	selector := action.Selector()
	if selector == nil {
		return fmt.Errorf("calldata too short for a selector (%d bytes)", len(action.Calldata))
	}

	parsed := d.abiFor(action.Target, lookup)
	if parsed == nil {
		return fmt.Errorf("no interface known for selector %s", hexutil.Encode(selector))
	}
	method, err := parsed.MethodById(selector)
	if err != nil {
		return err
	}
	p.Method = method.RawName
	p.Signature = method.Sig
	p.Resolved = true

	values, err := method.Inputs.Unpack(action.Calldata[4:])
	if err != nil {
		return fmt.Errorf("failed to unpack %s arguments: %w", method.Sig, err)
	}
	for i, input := range method.Inputs {
		if i >= len(values) {
			break
		}
		p.Args = append(p.Args, domain.DecodedArg{Name: input.Name, Type: input.Type.String(), Value: values[i]})
	}
	return nil
}

func (d *ActionDecoder) abiFor(target common.Address, lookup usecase.InterfaceLookup) *abi.ABI {
	if lookup != nil {
		if parsed, ok := lookup(target); ok && parsed != nil {
			return parsed
		}
	}
	return d.fallback[target]
}

// FormatValue formats a decoded value for human display
func FormatValue(value any) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case *big.Int:
		return v.String()
	case []byte:
		if len(v) == 0 {
			return "0x"
		}
		if len(v) <= 32 {
			return hexutil.Encode(v)
		}
		return fmt.Sprintf("%s...(%d bytes)", hexutil.Encode(v[:16]), len(v))
	case string:
		if len(v) > 50 {
			return fmt.Sprintf("%.50s...(%d chars)", v, len(v))
		}
		return fmt.Sprintf(`"%s"`, v)
	case bool:
		return fmt.Sprintf("%t", v)
	case [32]byte:
		return hexutil.Encode(v[:])
	default:
		if jsonBytes, err := json.Marshal(v); err == nil {
			jsonStr := string(jsonBytes)
			if len(jsonStr) > 100 {
				return fmt.Sprintf("%.100s...(%d chars)", jsonStr, len(jsonStr))
			}
			return jsonStr
		}
		return fmt.Sprintf("%v", v)
	}
}

// Ensure ActionDecoder implements usecase.ActionDecoder
var _ usecase.ActionDecoder = (*ActionDecoder)(nil)
