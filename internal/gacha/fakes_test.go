package gacha_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	roomAddr = common.HexToAddress("0xA71f087Df075E6d85453e425AD15Ab0d5366050f")
	userAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	errBoom  = errors.New("boom")
)

// fakeChain plays token, room, confirmer and wallet at once and records every
// submission and confirmation in order.
type fakeChain struct {
	mu sync.Mutex

	decimals    uint8
	balances    map[common.Address]*big.Int
	owner       common.Address
	available   uint64
	balanceErr  error
	decimalsErr error
	ownerErr    error
	supplyErr   error

	approveErr   error
	swapErrAt    int // fail submission of purchase #n
	revertSwapAt int // fail confirmation of purchase #n
	withdrawErr  error
	revertAll    bool

	requestErr error

	events    []string
	nextHash  int64
	swaps     int
	approved  *big.Int
	hashStage map[common.Hash]string

	// gate, when set, blocks WaitMined until closed.
	gate    chan struct{}
	waiting chan struct{}
}

func newFakeChain() *fakeChain {
	whole := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return &fakeChain{
		decimals:  18,
		balances:  map[common.Address]*big.Int{userAddr: new(big.Int).Mul(big.NewInt(100_000), whole)},
		owner:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		available: 10,
		hashStage: map[common.Hash]string{},
	}
}

func (f *fakeChain) record(format string, args ...any) {
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *fakeChain) newHash(stage string) common.Hash {
	f.nextHash++
	h := common.BigToHash(big.NewInt(f.nextHash))
	f.hashStage[h] = stage
	return h
}

func (f *fakeChain) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// --- readers ---

func (f *fakeChain) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if b, ok := f.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) Decimals(context.Context) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decimals, f.decimalsErr
}

func (f *fakeChain) Owner(context.Context) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner, f.ownerErr
}

func (f *fakeChain) AvailableCount(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.supplyErr != nil {
		return 0, f.supplyErr
	}
	return f.available, nil
}

// --- writers ---

func (f *fakeChain) Approve(_ context.Context, spender common.Address, amount *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return common.Hash{}, f.approveErr
	}
	f.approved = new(big.Int).Set(amount)
	h := f.newHash("approve")
	f.record("approve %s %s", spender.Hex(), amount)
	return h, nil
}

func (f *fakeChain) Swap(context.Context) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.swaps + 1
	if f.swapErrAt == n {
		return common.Hash{}, errBoom
	}
	f.swaps = n
	h := f.newHash(fmt.Sprintf("swap%d", n))
	f.record("swap #%d", n)
	return h, nil
}

func (f *fakeChain) WithdrawClean(context.Context) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.withdrawErr != nil {
		return common.Hash{}, f.withdrawErr
	}
	f.record("withdraw")
	return f.newHash("withdraw"), nil
}

// WaitMined applies the effect of a purchase when it confirms.
func (f *fakeChain) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.gate != nil {
		if f.waiting != nil {
			close(f.waiting)
			f.waiting = nil
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stage := f.hashStage[hash]
	f.record("wait %s", stage)

	if f.revertAll || stage == fmt.Sprintf("swap%d", f.revertSwapAt) {
		return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: hash}, errors.New("transaction reverted")
	}
	if len(stage) > 4 && stage[:4] == "swap" {
		price := new(big.Int).Mul(big.NewInt(gacha.DefaultUnitPrice), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(f.decimals)), nil))
		f.balances[userAddr] = new(big.Int).Sub(f.balances[userAddr], price)
		if f.available > 0 {
			f.available--
		}
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}, nil
}

// --- provider ---

type fakeProvider struct {
	chain *fakeChain
}

func (p fakeProvider) RequestAccount(context.Context) (common.Address, error) {
	if p.chain.requestErr != nil {
		return common.Address{}, p.chain.requestErr
	}
	return userAddr, nil
}

func (p fakeProvider) Signing(context.Context, common.Address) (gacha.Contracts, error) {
	return gacha.Contracts{Token: p.chain, Room: p.chain}, nil
}

// noticeLog collects notices.
type noticeLog struct {
	mu      sync.Mutex
	notices []gacha.Notice
}

func (n *noticeLog) Notify(no gacha.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, no)
}

func (n *noticeLog) Texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, no := range n.notices {
		out = append(out, no.Text)
	}
	return out
}
