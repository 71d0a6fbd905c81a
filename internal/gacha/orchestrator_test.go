package gacha_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	chain   *fakeChain
	notes   *noticeLog
	hook    *logtest.Hook
	orch    *gacha.Orchestrator
	account common.Address
}

func newHarness(t *testing.T, withWallet bool) *harness {
	t.Helper()
	fc := newFakeChain()
	notes := &noticeLog{}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := gacha.Config{
		Token:       fc,
		Room:        fc,
		RoomAddress: roomAddr,
		Confirmer:   fc,
		Logger:      logger,
		Notifier:    notes,
	}
	if withWallet {
		cfg.Provider = fakeProvider{chain: fc}
	}
	return &harness{chain: fc, notes: notes, hook: hook, orch: gacha.New(cfg), account: userAddr}
}

func connected(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, true)
	require.NoError(t, h.orch.Connect(context.Background()))
	h.notes.notices = nil
	return h
}

// ---------------------------------------------------------------------------
// Connect
// ---------------------------------------------------------------------------

func TestConnectWithoutWallet(t *testing.T) {
	h := newHarness(t, false)
	before := h.orch.State()

	err := h.orch.Connect(context.Background())

	assert.ErrorIs(t, err, gacha.ErrNoWallet)
	assert.False(t, h.orch.Connected())
	assert.Equal(t, before, h.orch.State(), "display state is untouched")
	require.Len(t, h.notes.Texts(), 1)
	assert.Contains(t, h.notes.Texts()[0], "wallet add")
}

func TestConnectRejectedIsReturnedUnchanged(t *testing.T) {
	h := newHarness(t, true)
	rejected := gacha.ErrUserRejected
	h.chain.requestErr = rejected

	err := h.orch.Connect(context.Background())

	assert.Equal(t, rejected, err)
	assert.False(t, h.orch.Connected())
	assert.Equal(t, "0", h.orch.State().TokenBalance)
}

func TestConnectRefreshesBalanceAndOwner(t *testing.T) {
	h := newHarness(t, true)
	h.chain.owner = userAddr

	require.NoError(t, h.orch.Connect(context.Background()))

	assert.True(t, h.orch.Connected())
	assert.Equal(t, userAddr, h.orch.Account())
	st := h.orch.State()
	assert.Equal(t, "100,000", st.TokenBalance)
	assert.True(t, st.IsCallerOwner)
	assert.Empty(t, h.chain.Events(), "connecting submits nothing")
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestReadTokenBalanceRoundsHalfAwayFromZero(t *testing.T) {
	h := newHarness(t, false)
	h.chain.decimals = 1
	h.chain.balances[userAddr] = big.NewInt(12345675) // 1,234,567.5

	require.NoError(t, h.orch.ReadTokenBalance(context.Background(), userAddr))
	assert.Equal(t, "1,234,568", h.orch.State().TokenBalance)
}

func TestReadTokenBalanceFailureKeepsPrevious(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.orch.ReadTokenBalance(context.Background(), userAddr))
	require.Equal(t, "100,000", h.orch.State().TokenBalance)

	h.chain.balanceErr = errBoom
	err := h.orch.ReadTokenBalance(context.Background(), userAddr)

	var rerr *gacha.ReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "balanceOf", rerr.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "100,000", h.orch.State().TokenBalance)
}

func TestReadTokenBalanceDecimalsFailureKeepsPrevious(t *testing.T) {
	h := newHarness(t, false)
	h.chain.decimalsErr = errBoom

	err := h.orch.ReadTokenBalance(context.Background(), userAddr)
	assert.Error(t, err)
	assert.Equal(t, "0", h.orch.State().TokenBalance)
}

func TestReadContractTokenBalance(t *testing.T) {
	h := newHarness(t, false)
	raw, _ := new(big.Int).SetString("30000500000000000000000", 10)
	h.chain.balances[roomAddr] = raw

	require.NoError(t, h.orch.ReadContractTokenBalance(context.Background()))
	assert.Equal(t, "30000.5", h.orch.State().ContractTokenBalance)

	h.chain.balanceErr = errBoom
	assert.Error(t, h.orch.ReadContractTokenBalance(context.Background()))
	assert.Equal(t, "30000.5", h.orch.State().ContractTokenBalance, "previous value kept")
}

func TestReadOwnerIsCaseInsensitive(t *testing.T) {
	h := newHarness(t, false)
	// Same address, different casing.
	lower := common.HexToAddress(strings.ToLower(userAddr.Hex()))
	h.chain.owner = lower

	require.NoError(t, h.orch.ReadOwner(context.Background(), userAddr))
	assert.True(t, h.orch.State().IsCallerOwner)

	h.chain.owner = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	require.NoError(t, h.orch.ReadOwner(context.Background(), userAddr))
	assert.False(t, h.orch.State().IsCallerOwner)
}

func TestReadOwnerFailureHidesOwnerPanel(t *testing.T) {
	h := newHarness(t, false)
	h.chain.owner = userAddr
	require.NoError(t, h.orch.ReadOwner(context.Background(), userAddr))
	require.True(t, h.orch.State().IsCallerOwner)

	h.chain.ownerErr = errBoom
	err := h.orch.ReadOwner(context.Background(), userAddr)

	assert.Error(t, err)
	assert.False(t, h.orch.State().IsCallerOwner)
}

func TestReadAvailableSupplyFailureResetsToZero(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.orch.ReadAvailableSupply(context.Background()))
	require.Equal(t, uint64(10), h.orch.State().AvailableSupply)

	h.chain.supplyErr = errBoom
	assert.Error(t, h.orch.ReadAvailableSupply(context.Background()))
	assert.Equal(t, uint64(0), h.orch.State().AvailableSupply)
}

func TestReadFailuresAreLogged(t *testing.T) {
	h := newHarness(t, false)
	h.chain.supplyErr = errBoom

	h.orch.ReadAvailableSupply(context.Background()) //nolint:errcheck

	entry := h.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "availableCount", entry.Data["op"])
}

func TestRefreshDisconnectedReadsRoomOnly(t *testing.T) {
	h := newHarness(t, false)
	h.chain.balances[roomAddr] = big.NewInt(5_000_000_000_000_000_000)

	h.orch.Refresh(context.Background())

	st := h.orch.State()
	assert.Equal(t, uint64(10), st.AvailableSupply)
	assert.Equal(t, "5", st.ContractTokenBalance)
	assert.Equal(t, "0", st.TokenBalance, "no account to read")
}

func TestRefreshConnected(t *testing.T) {
	h := connected(t)
	h.chain.balances[userAddr] = big.NewInt(0)

	h.orch.Refresh(context.Background())

	st := h.orch.State()
	assert.Equal(t, "0", st.TokenBalance)
	assert.Equal(t, uint64(10), st.AvailableSupply)
}

// ---------------------------------------------------------------------------
// Swap
// ---------------------------------------------------------------------------

func TestSwapNonPositiveCountIsNoop(t *testing.T) {
	h := connected(t)

	for _, count := range []int{0, -1, -100} {
		res, err := h.orch.Swap(context.Background(), count)
		assert.ErrorIs(t, err, gacha.ErrNotReady)
		assert.Nil(t, res)
	}
	assert.Empty(t, h.chain.Events())
	assert.False(t, h.orch.State().Pending)
}

func TestSwapWithoutSession(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.orch.Swap(context.Background(), 1)

	assert.ErrorIs(t, err, gacha.ErrNotReady)
	assert.Empty(t, h.chain.Events())
	assert.Equal(t, []string{"Connect wallet first"}, h.notes.Texts())
}

func TestSwapSubmitsApprovalThenPurchasesInOrder(t *testing.T) {
	h := connected(t)

	res, err := h.orch.Swap(context.Background(), 3)
	require.NoError(t, err)

	want := []string{
		"approve " + roomAddr.Hex() + " 30000000000000000000000",
		"wait approve",
		"swap #1", "wait swap1",
		"swap #2", "wait swap2",
		"swap #3", "wait swap3",
	}
	assert.Equal(t, want, h.chain.Events())
	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 3, res.Requested)
	assert.Len(t, res.Purchases, 3)
	assert.NotEqual(t, common.Hash{}, res.Approval)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"Swap complete! You got 3 NFT(s)."}, h.notes.Texts())
	assert.False(t, h.orch.State().Pending)
}

func TestSwapTotalCostIsExact(t *testing.T) {
	cases := []struct {
		decimals uint8
		count    int
		want     string
	}{
		{18, 1, "10000000000000000000000"},
		{18, 7, "70000000000000000000000"},
		{6, 3, "30000000000"},
		{0, 2, "20000"},
		{30, 1, "10000000000000000000000000000000000"},
	}
	for _, tc := range cases {
		h := connected(t)
		h.chain.decimals = tc.decimals
		h.chain.available = uint64(tc.count)

		res, err := h.orch.Swap(context.Background(), tc.count)
		require.NoError(t, err)
		assert.Equal(t, tc.want, res.TotalCost.String())
		assert.Equal(t, tc.want, h.chain.approved.String())
	}
}

func TestSwapRefreshesAfterEachPurchase(t *testing.T) {
	h := connected(t)

	_, err := h.orch.Swap(context.Background(), 2)
	require.NoError(t, err)

	st := h.orch.State()
	assert.Equal(t, "80,000", st.TokenBalance)
	assert.Equal(t, uint64(8), st.AvailableSupply)
}

func TestSwapApprovalRejected(t *testing.T) {
	h := connected(t)
	h.chain.approveErr = gacha.ErrUserRejected

	res, err := h.orch.Swap(context.Background(), 3)

	var txErr *gacha.TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, gacha.StageApprove, txErr.Stage)
	assert.ErrorIs(t, err, gacha.ErrUserRejected)
	assert.Equal(t, 0, res.Completed)
	assert.Empty(t, h.chain.Events(), "no purchase is submitted")
	assert.Equal(t, []string{"Swap failed"}, h.notes.Texts())
	assert.False(t, h.orch.State().Pending)
}

func TestSwapApprovalRevertedStopsBeforePurchases(t *testing.T) {
	h := connected(t)
	h.chain.revertAll = true

	_, err := h.orch.Swap(context.Background(), 2)

	var txErr *gacha.TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, gacha.StageApprove, txErr.Stage)
	assert.NotEqual(t, common.Hash{}, txErr.Hash)
	for _, e := range h.chain.Events() {
		assert.NotContains(t, e, "swap")
	}
}

func TestSwapDecimalsFailureSubmitsNothing(t *testing.T) {
	h := connected(t)
	h.chain.decimalsErr = errBoom

	_, err := h.orch.Swap(context.Background(), 1)

	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, h.chain.Events())
	assert.Equal(t, []string{"Swap failed"}, h.notes.Texts())
}

func TestSwapFailureAtKKeepsEarlierPurchases(t *testing.T) {
	for k := 1; k <= 4; k++ {
		h := connected(t)
		h.chain.swapErrAt = k

		res, err := h.orch.Swap(context.Background(), 4)

		var txErr *gacha.TxError
		require.ErrorAs(t, err, &txErr, "k=%d", k)
		assert.Equal(t, gacha.StageSwap, txErr.Stage)
		assert.Equal(t, k, txErr.Index)
		assert.Equal(t, common.Hash{}, txErr.Hash, "never broadcast")
		assert.Equal(t, k-1, res.Completed)
		assert.Len(t, res.Purchases, k-1)
		assert.Equal(t, k-1, h.chain.swaps, "no purchase after the failure")
		assert.Len(t, h.notes.Texts(), 1, "single failure notice")
	}
}

func TestSwapRevertedPurchaseStopsLoop(t *testing.T) {
	h := connected(t)
	h.chain.revertSwapAt = 2

	res, err := h.orch.Swap(context.Background(), 5)

	var txErr *gacha.TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 2, txErr.Index)
	assert.NotEqual(t, common.Hash{}, txErr.Hash)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 2, h.chain.swaps, "purchase 3 is never sent")
	assert.Equal(t, []string{"Swap stopped after 1 of 5 NFT(s)"}, h.notes.Texts())
}

func TestSwapFailureIsLoggedWithRunID(t *testing.T) {
	h := connected(t)
	h.chain.swapErrAt = 1

	res, _ := h.orch.Swap(context.Background(), 1)

	entry := h.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, res.RunID, entry.Data["run"])
	assert.Equal(t, 0, entry.Data["completed"])
}

func TestSwapRefusesReentryWhilePending(t *testing.T) {
	h := connected(t)
	h.chain.gate = make(chan struct{})
	h.chain.waiting = make(chan struct{})
	waiting := h.chain.waiting

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.Swap(context.Background(), 1)
		done <- err
	}()

	select {
	case <-waiting:
	case <-time.After(2 * time.Second):
		t.Fatal("swap never reached confirmation")
	}
	assert.True(t, h.orch.State().Pending)

	_, err := h.orch.Swap(context.Background(), 1)
	assert.ErrorIs(t, err, gacha.ErrNotReady)
	_, err = h.orch.Withdraw(context.Background())
	assert.ErrorIs(t, err, gacha.ErrNotReady)

	close(h.chain.gate)
	require.NoError(t, <-done)
	assert.False(t, h.orch.State().Pending)
}

func TestSwapCancelledContext(t *testing.T) {
	h := connected(t)
	h.chain.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.Swap(ctx, 1)

	var txErr *gacha.TxError
	require.ErrorAs(t, err, &txErr)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Withdraw
// ---------------------------------------------------------------------------

func TestWithdrawSuccess(t *testing.T) {
	h := connected(t)
	h.chain.balances[roomAddr] = big.NewInt(0)

	res, err := h.orch.Withdraw(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, common.Hash{}, res.Hash)
	assert.Equal(t, []string{"withdraw", "wait withdraw"}, h.chain.Events())
	assert.Equal(t, []string{"Withdraw successful!"}, h.notes.Texts())
	assert.Equal(t, "0", h.orch.State().ContractTokenBalance)
}

func TestWithdrawFailure(t *testing.T) {
	h := connected(t)
	h.chain.revertAll = true

	_, err := h.orch.Withdraw(context.Background())

	var txErr *gacha.TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, gacha.StageWithdraw, txErr.Stage)
	assert.Equal(t, []string{"Withdraw failed"}, h.notes.Texts())
	assert.False(t, h.orch.State().Pending)
}

func TestWithdrawSubmitFailure(t *testing.T) {
	h := connected(t)
	h.chain.withdrawErr = errBoom

	_, err := h.orch.Withdraw(context.Background())

	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, h.chain.Events())
	assert.Equal(t, []string{"Withdraw failed"}, h.notes.Texts())
}

func TestWithdrawWithoutSession(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.orch.Withdraw(context.Background())

	assert.ErrorIs(t, err, gacha.ErrNotReady)
	assert.Equal(t, []string{"Connect wallet first"}, h.notes.Texts())
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestTxErrorMessage(t *testing.T) {
	hash := common.BigToHash(big.NewInt(1))
	err := &gacha.TxError{Stage: gacha.StageSwap, Index: 2, Hash: hash, Err: errBoom}
	assert.Equal(t, "swap #2 ("+hash.Hex()+"): boom", err.Error())

	err = &gacha.TxError{Stage: gacha.StageApprove, Err: errBoom}
	assert.Equal(t, "approve: boom", err.Error())
	assert.True(t, errors.Is(err, errBoom))
}

func TestDefaults(t *testing.T) {
	o := gacha.New(gacha.Config{})
	assert.Equal(t, gacha.DefaultUnitPrice, o.UnitPrice())
	assert.Equal(t, "CLEAN", o.Symbol())
	assert.Equal(t, "30,000 CLEAN", o.CostLabel(3))
	assert.Equal(t, common.Address{}, o.Account())
}
