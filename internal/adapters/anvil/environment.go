package anvil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// impersonatedBalance funds impersonated accounts with 1000 ether
var impersonatedBalance = new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))

type callArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Environment drives a running anvil fork over JSON-RPC
type Environment struct {
	name   string
	rpc    *rpc.Client
	client *ethclient.Client
	stop   func() error
	log    *slog.Logger
}

func newEnvironment(name string, client *rpc.Client, stop func() error, log *slog.Logger) *Environment {
	return &Environment{
		name:   name,
		rpc:    client,
		client: ethclient.NewClient(client),
		stop:   stop,
		log:    log,
	}
}

// Call executes data against to without committing state
func (e *Environment) Call(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	if err := e.rpc.CallContext(ctx, &out, "eth_call", callArgs{From: from, To: to, Data: data}, "latest"); err != nil {
		return nil, revertError(err)
	}
	return out, nil
}

// Transact sends data from an impersonated account and waits for the receipt
func (e *Environment) Transact(ctx context.Context, from, to common.Address, data []byte) (*types.Receipt, error) {
	var hash common.Hash
	if err := e.rpc.CallContext(ctx, &hash, "eth_sendTransaction", callArgs{From: from, To: to, Data: data}); err != nil {
		return nil, revertError(err)
	}

	var receipt *types.Receipt
	err := retry.Do(
		func() error {
			r, err := e.client.TransactionReceipt(ctx, hash)
			if err != nil {
				return err
			}
			receipt = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(20),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ethereum.NotFound) }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", hash.Hex())
	}
	return receipt, nil
}

// Impersonate unlocks account and funds it for gas
func (e *Environment) Impersonate(ctx context.Context, account common.Address) error {
	if err := e.rpc.CallContext(ctx, nil, "anvil_impersonateAccount", account); err != nil {
		return fmt.Errorf("failed to impersonate %s: %w", account.Hex(), err)
	}
	if err := e.rpc.CallContext(ctx, nil, "anvil_setBalance", account, (*hexutil.Big)(impersonatedBalance)); err != nil {
		return fmt.Errorf("failed to fund %s: %w", account.Hex(), err)
	}
	return nil
}

// Snapshot takes a snapshot of the current state
func (e *Environment) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := e.rpc.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("failed to take snapshot: %w", err)
	}
	return id, nil
}

// Revert reverts to a previous snapshot
func (e *Environment) Revert(ctx context.Context, snapshotID string) error {
	var ok bool
	if err := e.rpc.CallContext(ctx, &ok, "evm_revert", snapshotID); err != nil {
		return fmt.Errorf("failed to revert to snapshot %s: %w", snapshotID, err)
	}
	if !ok {
		return fmt.Errorf("failed to revert to snapshot %s: evm_revert returned false", snapshotID)
	}
	e.log.Debug("reverted fork", "snapshot", snapshotID)
	return nil
}

// IncreaseTime advances block time and mines a block so it takes effect
func (e *Environment) IncreaseTime(ctx context.Context, seconds uint64) error {
	if err := e.rpc.CallContext(ctx, nil, "evm_increaseTime", seconds); err != nil {
		return fmt.Errorf("failed to increase time: %w", err)
	}
	if err := e.rpc.CallContext(ctx, nil, "evm_mine"); err != nil {
		return fmt.Errorf("failed to mine block: %w", err)
	}
	return nil
}

// Close disconnects and stops the underlying anvil process
func (e *Environment) Close() error {
	e.rpc.Close()
	if e.stop == nil {
		return nil
	}
	if err := e.stop(); err != nil {
		return fmt.Errorf("failed to stop fork %s: %w", e.name, err)
	}
	return nil
}

// revertError keeps the revert payload anvil attaches to call errors
func revertError(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data := dataErr.ErrorData(); data != nil {
			return fmt.Errorf("%w (data: %v)", err, data)
		}
	}
	return err
}
