package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
)

// RelayGasExtra is added to the measured execution gas of every chunk.
const RelayGasExtra = 100_000

// GasEstimator measures what relaying a chunk costs on the destination chain
// by executing it against a throwaway fork.
type GasEstimator struct {
	forker capture.Forker
	log    *slog.Logger
}

func NewGasEstimator(forker capture.Forker, log *slog.Logger) *GasEstimator {
	return &GasEstimator{forker: forker, log: log}
}

// Estimate returns one gas limit per chunk. Nothing it executes is recorded
// and every chunk runs on the same pre-relay state.
func (g *GasEstimator) Estimate(ctx context.Context, chain domain.Chain, dao domain.DAOTarget, rpc string, chunks [][]domain.Message) ([]uint64, error) {
	env, err := g.forker.Fork(ctx, chain.Name+"-gas", rpc)
	if err != nil {
		return nil, fmt.Errorf("failed to fork %s for gas estimation: %w", chain, err)
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			g.log.Warn("failed to close gas estimation fork", "chain", chain.Name, "error", cerr)
		}
	}()

	agent, err := agentOn(ctx, env, chain, dao)
	if err != nil {
		return nil, err
	}
	if err := env.Impersonate(ctx, chain.Relayer); err != nil {
		return nil, fmt.Errorf("failed to impersonate relayer on %s: %w", chain, err)
	}

	limits := make([]uint64, 0, len(chunks))
	for i, chunk := range chunks {
		gas, err := g.measure(ctx, env, chain.Relayer, agent, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate chunk %d on %s: %w", i, chain, err)
		}
		g.log.Debug("estimated relay gas", "chain", chain.Name, "chunk", i, "messages", len(chunk), "gas", gas)
		limits = append(limits, gas)
	}
	return limits, nil
}

func (g *GasEstimator) measure(ctx context.Context, env capture.Environment, relayer, agent common.Address, chunk []domain.Message) (uint64, error) {
	input, err := bindings.RelayAgentABI.Pack("execute", bindings.ToRelayMessages(chunk))
	if err != nil {
		return 0, fmt.Errorf("failed to pack agent execute: %w", err)
	}
	snapshot, err := env.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	receipt, txErr := env.Transact(ctx, relayer, agent, input)
	if err := env.Revert(ctx, snapshot); err != nil {
		return 0, fmt.Errorf("failed to revert after estimation: %w", err)
	}
	if txErr != nil {
		return 0, txErr
	}
	return receipt.GasUsed + RelayGasExtra, nil
}

// agentOn reads the DAO's agent from the chain's relayer.
func agentOn(ctx context.Context, env capture.Environment, chain domain.Chain, dao domain.DAOTarget) (common.Address, error) {
	input, err := bindings.RelayerABI.Pack(dao.RelayerAgentGetter)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack %s: %w", dao.RelayerAgentGetter, err)
	}
	out, err := env.Call(ctx, common.Address{}, chain.Relayer, input)
	if err != nil {
		return common.Address{}, fmt.Errorf("relayer %s.%s failed on %s: %w", chain.Relayer.Hex(), dao.RelayerAgentGetter, chain, err)
	}
	return unpackAddress(dao.RelayerAgentGetter, out)
}

func unpackAddress(method string, out []byte) (common.Address, error) {
	values, err := bindings.RelayerABI.Unpack(method, out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok || addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("relayer returned no %s", method)
	}
	return addr, nil
}
