// Package signer submits transactions to the live network with a local key.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// gasHeadroom is added to estimates, in percent
const gasHeadroom = 20

// KeySigner signs with a private key from the configuration
type KeySigner struct {
	rpcURL     string
	privateKey string
	log        *slog.Logger
}

// NewKeySigner creates a signer for the configured live network
func NewKeySigner(cfg *config.RuntimeConfig, log *slog.Logger) *KeySigner {
	return &KeySigner{
		rpcURL:     cfg.LiveRPC,
		privateKey: cfg.PrivateKey,
		log:        log.With("component", "signer"),
	}
}

// Connect dials the live network and unlocks the key
func (s *KeySigner) Connect(ctx context.Context) (usecase.LiveSession, error) {
	if s.rpcURL == "" {
		return nil, &domain.ConfigError{Field: "live_rpc", Reason: "an RPC endpoint is required for live submission"}
	}
	if s.privateKey == "" {
		return nil, &domain.ConfigError{Field: "private_key", Reason: "a private key is required for live submission"}
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(s.privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, s.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", s.rpcURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	session := &Session{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		log:     s.log,
	}
	s.log.Info("connected to live network", "chain", chainID, "account", session.from.Hex())
	return session, nil
}

// Session is an open live connection
type Session struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	log     *slog.Logger
}

func (s *Session) Address() common.Address {
	return s.from
}

// Call runs a read-only call from the session account
func (s *Session) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return s.client.CallContract(ctx, ethereum.CallMsg{From: s.from, To: &to, Data: data}, nil)
}

// Transact signs a dynamic fee transaction and waits until it is mined
func (s *Session) Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	gas, err := s.client.EstimateGas(ctx, ethereum.CallMsg{From: s.from, To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap(head.BaseFee, tip),
		Gas:       gas + gas*gasHeadroom/100,
		To:        &to,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	s.log.Info("transaction sent", "hash", signed.Hash().Hex(), "nonce", nonce)

	receipt, err := bind.WaitMined(ctx, s.client, signed)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}
	return receipt, nil
}

func (s *Session) Close() {
	s.client.Close()
}

// feeCap allows the base fee to double before the transaction stalls
func feeCap(baseFee, tip *big.Int) *big.Int {
	if baseFee == nil {
		return new(big.Int).Set(tip)
	}
	return new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
}

var (
	_ usecase.LiveSigner  = (*KeySigner)(nil)
	_ usecase.LiveSession = (*Session)(nil)
)
