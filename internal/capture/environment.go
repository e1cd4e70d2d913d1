// Package capture records governance-authorized contract calls while
// executing them against a forked chain.
package capture

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Environment is a forked chain that supports impersonation, snapshots and
// time travel.
type Environment interface {
	// Call executes data against to without committing state.
	Call(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
	// Transact sends data to to from an impersonated from and waits for the receipt.
	Transact(ctx context.Context, from, to common.Address, data []byte) (*types.Receipt, error)
	Impersonate(ctx context.Context, account common.Address) error
	Snapshot(ctx context.Context) (string, error)
	Revert(ctx context.Context, snapshotID string) error
	IncreaseTime(ctx context.Context, seconds uint64) error
	Close() error
}

// Forker opens disposable forks of remote chains.
type Forker interface {
	Fork(ctx context.Context, name, rpcURL string) (Environment, error)
}
