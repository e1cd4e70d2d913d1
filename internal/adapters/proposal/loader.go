// Package proposal loads declarative vote files.
//
// A proposal file names the DAO, a description and a list of actions. Each
// action is either a contract call or a relay block that groups calls for
// another chain:
//
//	dao: ownership
//	description: Kill the frxETH gauge
//	actions:
//	  - target: "0x..."
//	    signature: set_killed(bool)
//	    args: [true]
//	  - relay:
//	      chain: fraxtal
//	      broadcast:
//	        gas_limits: [800000]
//	      actions:
//	        - target: "0x..."
//	          abi: abis/Gauge.json
//	          method: set_killed
//	          args: [true]
package proposal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
	"gopkg.in/yaml.v3"
)

type fileSpec struct {
	DAO         string       `yaml:"dao"`
	Description string       `yaml:"description"`
	Actions     []actionSpec `yaml:"actions"`
}

type actionSpec struct {
	Name      string     `yaml:"name,omitempty"`
	Target    string     `yaml:"target,omitempty"`
	Signature string     `yaml:"signature,omitempty"`
	ABI       string     `yaml:"abi,omitempty"`
	Method    string     `yaml:"method,omitempty"`
	Args      []any      `yaml:"args,omitempty"`
	Untracked bool       `yaml:"untracked,omitempty"`
	Relay     *relaySpec `yaml:"relay,omitempty"`
}

type relaySpec struct {
	Chain     string         `yaml:"chain"`
	RPC       string         `yaml:"rpc,omitempty"`
	Broadcast *broadcastSpec `yaml:"broadcast,omitempty"`
	Actions   []actionSpec   `yaml:"actions"`
}

type broadcastSpec struct {
	GasLimits       []uint64 `yaml:"gas_limits,omitempty"`
	MaxFeePerGas    any      `yaml:"max_fee_per_gas,omitempty"`
	DestinationData string   `yaml:"destination_data,omitempty"`
	ForceUpdate     *bool    `yaml:"force_update,omitempty"`
}

// FileLoader reads YAML proposal files
type FileLoader struct {
	log *slog.Logger
}

// NewFileLoader creates a new proposal file loader
func NewFileLoader(log *slog.Logger) *FileLoader {
	return &FileLoader{log: log.With("component", "proposal")}
}

// Load parses path into a plan. ABI paths resolve relative to the file.
func (l *FileLoader) Load(_ context.Context, path string) (*usecase.ProposalPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proposal file: %w", err)
	}

	var doc fileSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse proposal file: %w", err)
	}
	return l.build(doc, filepath.Dir(path))
}

func (l *FileLoader) build(doc fileSpec, baseDir string) (*usecase.ProposalPlan, error) {
	dao, err := domain.LookupDAO(doc.DAO)
	if err != nil {
		return nil, err
	}
	if len(doc.Actions) == 0 {
		l.log.Warn("proposal has no actions", "dao", dao.Name)
	}

	b := &builder{baseDir: baseDir, abis: newABICache()}
	steps, err := b.steps(doc.Actions, "actions")
	if err != nil {
		return nil, err
	}
	return &usecase.ProposalPlan{DAO: dao, Description: doc.Description, Steps: steps}, nil
}

type builder struct {
	baseDir string
	abis    *abiCache
}

func (b *builder) steps(actions []actionSpec, path string) ([]usecase.PlanStep, error) {
	steps := make([]usecase.PlanStep, 0, len(actions))
	for i, a := range actions {
		at := fmt.Sprintf("%s[%d]", path, i)
		if a.Relay != nil {
			relay, err := b.relay(a.Relay, at+".relay")
			if err != nil {
				return nil, err
			}
			steps = append(steps, usecase.PlanStep{Relay: relay})
			continue
		}
		call, err := b.call(a, at)
		if err != nil {
			return nil, err
		}
		steps = append(steps, usecase.PlanStep{Call: call})
	}
	return steps, nil
}

func (b *builder) call(a actionSpec, at string) (*usecase.PlannedCall, error) {
	if !common.IsHexAddress(a.Target) {
		return nil, fmt.Errorf("%s: invalid target %q", at, a.Target)
	}
	target := common.HexToAddress(a.Target)

	switch {
	case a.Signature != "" && a.ABI != "":
		return nil, fmt.Errorf("%s: use either signature or abi, not both", at)
	case a.Signature != "":
		parsed, method, err := parseSignature(a.Signature)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		return b.planned(a, at, capture.NewContract(a.Name, target, parsed), method)
	case a.ABI != "":
		if a.Method == "" {
			return nil, fmt.Errorf("%s: abi requires method", at)
		}
		parsed, err := b.abis.load(b.baseDir, a.ABI)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		return b.planned(a, at, capture.NewContract(a.Name, target, parsed), a.Method)
	}
	return nil, fmt.Errorf("%s: call needs a signature or an abi", at)
}

func (b *builder) planned(a actionSpec, at string, contract *capture.Contract, method string) (*usecase.PlannedCall, error) {
	m, ok := contract.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%s: method %s not found in abi", at, method)
	}
	if len(a.Args) != len(m.Inputs) {
		return nil, fmt.Errorf("%s: %s takes %d arguments, got %d", at, m.Sig, len(m.Inputs), len(a.Args))
	}
	args := make([]any, len(a.Args))
	for i, input := range m.Inputs {
		v, err := convertArg(input.Type, a.Args[i])
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d (%s): %w", at, i, input.Type.String(), err)
		}
		args[i] = v
	}
	return &usecase.PlannedCall{Contract: contract, Method: method, Args: args, Untracked: a.Untracked}, nil
}

func (b *builder) relay(r *relaySpec, at string) (*usecase.PlannedRelay, error) {
	if r.Chain == "" {
		return nil, fmt.Errorf("%s: chain is required", at)
	}
	params, err := broadcastParams(r.Broadcast)
	if err != nil {
		return nil, fmt.Errorf("%s.broadcast: %w", at, err)
	}
	steps, err := b.steps(r.Actions, at+".actions")
	if err != nil {
		return nil, err
	}
	return &usecase.PlannedRelay{Chain: r.Chain, RPC: r.RPC, Params: params, Steps: steps}, nil
}

func broadcastParams(bs *broadcastSpec) (*domain.BroadcastParams, error) {
	if bs == nil {
		return nil, nil
	}
	params := &domain.BroadcastParams{GasLimits: bs.GasLimits, ForceUpdate: bs.ForceUpdate}
	if bs.MaxFeePerGas != nil {
		fee, err := toBigInt(bs.MaxFeePerGas)
		if err != nil {
			return nil, fmt.Errorf("max_fee_per_gas: %w", err)
		}
		if fee.Sign() < 0 {
			return nil, fmt.Errorf("max_fee_per_gas must not be negative")
		}
		params.MaxFeePerGas = fee
	}
	if bs.DestinationData != "" {
		data, err := hexutil.Decode(bs.DestinationData)
		if err != nil {
			return nil, fmt.Errorf("destination_data: %w", err)
		}
		params.DestinationData = data
	}
	return params, nil
}

var _ usecase.ProposalLoader = (*FileLoader)(nil)
