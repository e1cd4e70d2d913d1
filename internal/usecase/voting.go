package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-vote/internal/domain/bindings"
)

// chainCaller is the subset of an environment the voting helpers need.
type chainCaller interface {
	Call(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
	Transact(ctx context.Context, from, to common.Address, data []byte) (*types.Receipt, error)
}

// votingCaller issues voting app calls as one account.
type votingCaller struct {
	env    chainCaller
	from   common.Address
	voting common.Address
}

func (v votingCaller) call(ctx context.Context, method string, args ...any) ([]any, error) {
	input, err := bindings.VotingABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := v.env.Call(ctx, v.from, v.voting, input)
	if err != nil {
		return nil, fmt.Errorf("%s reverted: %w", method, err)
	}
	values, err := bindings.VotingABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	return values, nil
}

func (v votingCaller) boolean(ctx context.Context, method string, args ...any) (bool, error) {
	out, err := v.call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s result %T", method, out[0])
	}
	return b, nil
}

func (v votingCaller) transact(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	input, err := bindings.VotingABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	receipt, err := v.env.Transact(ctx, v.from, v.voting, input)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s reverted in tx %s", method, receipt.TxHash.Hex())
	}
	return receipt, nil
}

// liveCaller adapts a LiveSession, which always sends from its own account.
type liveCaller struct {
	session LiveSession
}

func (l liveCaller) Call(ctx context.Context, _, to common.Address, data []byte) ([]byte, error) {
	return l.session.Call(ctx, to, data)
}

func (l liveCaller) Transact(ctx context.Context, _, to common.Address, data []byte) (*types.Receipt, error) {
	return l.session.Transact(ctx, to, data)
}
