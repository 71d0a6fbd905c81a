package contract

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the node surface a Sender needs. *chain.EVMClient satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, address common.Address) (uint64, error)
	SuggestFees(ctx context.Context) (tip, feeCap *big.Int, err error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// TxSigner signs transactions for one account. *wallet.Signer satisfies it.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

var approveSelector = []byte{0x09, 0x5e, 0xa7, 0xb3}

// Sender builds, signs and broadcasts dynamic-fee transactions.
type Sender struct {
	backend Backend
	signer  TxSigner
	chainID *big.Int
}

// NewSender creates a Sender, resolving the chain ID once.
func NewSender(ctx context.Context, backend Backend, signer TxSigner) (*Sender, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving chain id: %w", err)
	}
	return &Sender{backend: backend, signer: signer, chainID: chainID}, nil
}

// Transact sends data to the contract at to and returns the tx hash. The
// nonce is read fresh for every call.
func (s *Sender) Transact(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from := s.signer.Address()

	gas, err := s.backend.EstimateGas(ctx, from, to, data)
	if err != nil {
		gas = fallbackGas(data)
	}

	tip, feeCap, err := s.backend.SuggestFees(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting fees: %w", err)
	}

	nonce, err := s.backend.PendingNonce(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signed, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return common.Hash{}, err
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signed.Hash(), nil
}

func fallbackGas(data []byte) uint64 {
	if bytes.HasPrefix(data, approveSelector) {
		return config.GasLimitApprove
	}
	return config.GasLimitContractCall
}
