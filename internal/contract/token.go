package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is a handle to an ERC-20 contract.
type Token struct {
	*Bound
}

// NewToken binds an ERC-20 token at address.
func NewToken(address common.Address, caller Caller) *Token {
	return &Token{Bound: mustBind(ERC20ID, address, caller)}
}

// WithTransactor returns a signing copy of the token handle.
func (t *Token) WithTransactor(tr Transactor) *Token {
	return &Token{Bound: t.Bound.WithTransactor(tr)}
}

// BalanceOf returns the raw (base unit) balance of account.
func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := t.Call(ctx, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return single[*big.Int]("balanceOf", out)
}

// Decimals returns the token's decimal places.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return single[uint8]("decimals", out)
}

// Symbol returns the token ticker.
func (t *Token) Symbol(ctx context.Context) (string, error) {
	out, err := t.Call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return single[string]("symbol", out)
}

// Allowance returns how much spender may move on behalf of owner.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := t.Call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return single[*big.Int]("allowance", out)
}

// Approve submits approve(spender, amount).
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error) {
	return t.Transact(ctx, "approve", spender, amount)
}
