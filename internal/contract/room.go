package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Room is a handle to the gacha room contract.
type Room struct {
	*Bound
}

// NewRoom binds a room contract at address.
func NewRoom(address common.Address, caller Caller) *Room {
	return &Room{Bound: mustBind(RoomID, address, caller)}
}

// WithTransactor returns a signing copy of the room handle.
func (r *Room) WithTransactor(tr Transactor) *Room {
	return &Room{Bound: r.Bound.WithTransactor(tr)}
}

// Owner returns the room owner.
func (r *Room) Owner(ctx context.Context) (common.Address, error) {
	out, err := r.Call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return single[common.Address]("owner", out)
}

// AvailableCount returns how many NFTs remain in the room.
func (r *Room) AvailableCount(ctx context.Context) (uint64, error) {
	out, err := r.Call(ctx, "getAvailableCount")
	if err != nil {
		return 0, err
	}
	n, err := single[*big.Int]("getAvailableCount", out)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("getAvailableCount: %w: %s", ErrOverflow, n)
	}
	return n.Uint64(), nil
}

// Swap submits one swap(): the room pulls the unit price and sends an NFT.
func (r *Room) Swap(ctx context.Context) (common.Hash, error) {
	return r.Transact(ctx, "swap")
}

// WithdrawClean submits withdrawClean(). Only the owner can succeed.
func (r *Room) WithdrawClean(ctx context.Context) (common.Hash, error) {
	return r.Transact(ctx, "withdrawClean")
}
