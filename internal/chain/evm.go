package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrReverted is returned by WaitMined when the mined receipt has status 0.
var ErrReverted = errors.New("transaction reverted")

const defaultPollInterval = 2 * time.Second

// EVMClient is a JSON-RPC client for EVM chains.
type EVMClient struct {
	url          string
	eth          *ethclient.Client
	pollInterval time.Duration
}

// Dial connects to the JSON-RPC endpoint at url. HTTP endpoints are dialled
// lazily, so an unreachable node surfaces on the first call.
func Dial(ctx context.Context, url string) (*EVMClient, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &EVMClient{url: url, eth: eth, pollInterval: defaultPollInterval}, nil
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// SetPollInterval changes how often WaitMined polls for a receipt.
func (c *EVMClient) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Close releases the underlying connection.
func (c *EVMClient) Close() { c.eth.Close() }

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return id, nil
}

// CallContract executes a read-only call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", to.Hex(), err)
	}
	return out, nil
}

// PendingNonce returns the next nonce for address, counting queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	n, err := c.eth.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	return n, nil
}

// SuggestFees returns a priority fee and fee cap for a dynamic-fee transaction.
// The tip falls back to the legacy gas price on nodes without
// eth_maxPriorityFeePerGas; the cap is 2×gasPrice + tip.
func (c *EVMClient) SuggestFees(ctx context.Context) (tip, feeCap *big.Int, err error) {
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	tip, err = c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		tip = new(big.Int).Set(gasPrice)
	}
	feeCap = new(big.Int).Mul(gasPrice, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return tip, feeCap, nil
}

// EstimateGas estimates gas for a call from → to with data.
func (c *EVMClient) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	gas, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return 0, fmt.Errorf("eth_estimateGas: %w", err)
	}
	return gas, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *EVMClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("eth_sendRawTransaction: %w", err)
	}
	return nil
}

// WaitMined polls until the transaction has one confirmation. There is no
// timeout beyond ctx. A reverted receipt is returned together with ErrReverted.
func (c *EVMClient) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.eth.BlockNumber(ctx)
	latency = time.Since(start)
	return latency, blockNum, err
}
