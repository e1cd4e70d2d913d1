// Package broadcast turns messages captured on a destination chain into
// calls to the origin-chain broadcaster that relays them.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
)

const (
	// DefaultChunkSize is the number of messages relayed per broadcast call.
	DefaultChunkSize = 8
	broadcastMethod  = "broadcast"
)

// DefaultMaxFeePerGas is the Arbitrum retryable max fee used when no override
// is given.
var DefaultMaxFeePerGas = big.NewInt(1_000_000_000)

// Dispatcher implements capture.Relayer for every known broadcaster kind.
type Dispatcher struct {
	estimator *GasEstimator
	chunkSize int
	log       *slog.Logger
}

var _ capture.Relayer = (*Dispatcher)(nil)

func NewDispatcher(forker capture.Forker, chunkSize int, log *slog.Logger) *Dispatcher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	log = log.With("component", "broadcast")
	return &Dispatcher{
		estimator: NewGasEstimator(forker, log),
		chunkSize: chunkSize,
		log:       log,
	}
}

// AgentAddress resolves the DAO's agent through the chain's relayer.
func (d *Dispatcher) AgentAddress(ctx context.Context, remote *capture.Scope, chain domain.Chain, dao domain.DAOTarget) (common.Address, error) {
	if !chain.HasRelayer() {
		return common.Address{}, fmt.Errorf("%w %s", domain.ErrRelayerNotSet, chain)
	}
	relayer := capture.NewContract("relayer", chain.Relayer, bindings.RelayerABI)
	values, err := remote.Call(ctx, relayer, dao.RelayerAgentGetter)
	if err != nil {
		return common.Address{}, err
	}
	agent, ok := values[0].(common.Address)
	if !ok || agent == (common.Address{}) {
		return common.Address{}, fmt.Errorf("relayer on %s returned no %s", chain, dao.RelayerAgentGetter)
	}
	return agent, nil
}

// Broadcast issues one broadcaster call per chunk of req.Messages through
// origin, so the calls become actions of the vote origin records.
func (d *Dispatcher) Broadcast(ctx context.Context, origin *capture.Scope, req capture.BroadcastRequest) error {
	chain := req.Chain
	v, ok := variants[chain.Broadcaster.Kind]
	if !ok {
		return &domain.ConfigError{Field: "chains." + chain.Name, Reason: fmt.Sprintf("unknown broadcaster kind %q", chain.Broadcaster.Kind)}
	}
	parsed, err := bindings.BroadcasterABI(chain.Broadcaster.Kind)
	if err != nil {
		return err
	}
	contract := capture.NewContract(chain.Broadcaster.Name, chain.Broadcaster.Address, parsed)
	params := req.Params
	chainID := new(big.Int).SetUint64(chain.ID)

	if v.routingIndex >= 0 && !params.HasDestinationData() {
		if err := d.checkRouting(ctx, origin, contract, chain, chainID, v.routingIndex); err != nil {
			return err
		}
	}

	chunks := lo.Chunk(req.Messages, d.chunkSize)
	gasLimits, err := d.gasLimits(ctx, v, req, chunks)
	if err != nil {
		return err
	}
	maxFee := DefaultMaxFeePerGas
	if params != nil && params.MaxFeePerGas != nil && params.MaxFeePerGas.Sign() > 0 {
		maxFee = params.MaxFeePerGas
	}

	d.log.Info("broadcasting relay messages",
		"chain", chain.Name, "broadcaster", chain.Broadcaster.Name,
		"messages", len(req.Messages), "chunks", len(chunks))

	for i, chunk := range chunks {
		call := callArgs{
			chainID: chainID,
			chunk:   bindings.ToRelayMessages(chunk),
			maxFee:  maxFee,
		}
		if gasLimits != nil {
			call.gasLimit = gasLimits[i]
		}
		if params != nil {
			call.destination = params.DestinationData
			call.forceUpdate = params.ForceUpdate
		}

		args := v.args(call)
		method, err := bindings.MethodByArity(parsed, broadcastMethod, len(args))
		if err != nil {
			return fmt.Errorf("%s: %w", contract, err)
		}
		if _, err := origin.Transact(ctx, contract, method, args...); err != nil {
			return fmt.Errorf("failed to broadcast chunk %d to %s: %w", i, chain, err)
		}
	}
	return nil
}

func (d *Dispatcher) checkRouting(ctx context.Context, origin *capture.Scope, contract *capture.Contract, chain domain.Chain, chainID *big.Int, index int) error {
	values, err := origin.Call(ctx, contract, "destination_data", chainID)
	if err != nil {
		return fmt.Errorf("failed to read destination data for %s: %w", chain, err)
	}
	if index >= len(values) {
		return fmt.Errorf("destination data for %s has %d fields, want index %d", chain, len(values), index)
	}
	addr, ok := values[index].(common.Address)
	if !ok || addr == (common.Address{}) {
		return fmt.Errorf("%w for %s on %s", domain.ErrMissingDestinationData, chain, contract)
	}
	return nil
}

// gasLimits returns one limit per chunk, or nil for variants without a gas
// argument.
func (d *Dispatcher) gasLimits(ctx context.Context, v variant, req capture.BroadcastRequest, chunks [][]domain.Message) ([]uint64, error) {
	if !v.usesGas {
		return nil, nil
	}
	if req.Params != nil && len(req.Params.GasLimits) > 0 {
		limits := make([]uint64, len(chunks))
		for i := range chunks {
			limit, _, err := req.Params.GasLimitFor(i, len(chunks))
			if err != nil {
				return nil, err
			}
			limits[i] = limit
		}
		return limits, nil
	}
	return d.estimator.Estimate(ctx, req.Chain, req.DAO, req.RPC, chunks)
}
