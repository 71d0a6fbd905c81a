// Package gacha drives the Gacha Room: it connects a wallet, reads balances,
// ownership and supply into a DisplayState, and runs the approve-then-swap
// purchase loop.
package gacha

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultUnitPrice is the room price of one NFT in whole tokens.
const DefaultUnitPrice = int64(10_000)

// TokenReader reads the payment token.
type TokenReader interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
}

// RoomReader reads the room contract.
type RoomReader interface {
	Owner(ctx context.Context) (common.Address, error)
	AvailableCount(ctx context.Context) (uint64, error)
}

// TokenWriter submits token approvals.
type TokenWriter interface {
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error)
}

// RoomWriter submits room purchases and withdrawals.
type RoomWriter interface {
	Swap(ctx context.Context) (common.Hash, error)
	WithdrawClean(ctx context.Context) (common.Hash, error)
}

// Contracts are handles bound to a signing account.
type Contracts struct {
	Token TokenWriter
	Room  RoomWriter
}

// Provider grants access to a signing account.
type Provider interface {
	// RequestAccount asks the wallet for its account. Refusal is ErrUserRejected.
	RequestAccount(ctx context.Context) (common.Address, error)
	// Signing binds write handles for account.
	Signing(ctx context.Context, account common.Address) (Contracts, error)
}

// Confirmer blocks until a transaction has one confirmation.
type Confirmer interface {
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Config wires an Orchestrator.
type Config struct {
	Token       TokenReader
	Room        RoomReader
	RoomAddress common.Address
	Provider    Provider // nil when no wallet is configured
	Confirmer   Confirmer
	Logger      logrus.FieldLogger
	Notifier    Notifier
	UnitPrice   int64  // whole tokens per NFT; DefaultUnitPrice when zero
	Symbol      string // token ticker for notices
}

// Orchestrator owns the session and display state of one room page.
type Orchestrator struct {
	token     TokenReader
	room      RoomReader
	roomAddr  common.Address
	provider  Provider
	confirmer Confirmer
	log       logrus.FieldLogger
	notify    Notifier
	unitPrice int64
	symbol    string

	mu      sync.Mutex
	state   DisplayState
	session *Session
}

// New creates an Orchestrator in the disconnected state.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		token:     cfg.Token,
		room:      cfg.Room,
		roomAddr:  cfg.RoomAddress,
		provider:  cfg.Provider,
		confirmer: cfg.Confirmer,
		log:       cfg.Logger,
		notify:    cfg.Notifier,
		unitPrice: cfg.UnitPrice,
		symbol:    cfg.Symbol,
		state:     initialState(),
	}
	if o.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.log = l
	}
	if o.notify == nil {
		o.notify = discardNotifier{}
	}
	if o.unitPrice <= 0 {
		o.unitPrice = DefaultUnitPrice
	}
	if o.symbol == "" {
		o.symbol = "CLEAN"
	}
	return o
}

// State returns a copy of the display state.
func (o *Orchestrator) State() DisplayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Connected reports whether a wallet session exists.
func (o *Orchestrator) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session != nil
}

// Account returns the connected account, or the zero address.
func (o *Orchestrator) Account() common.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return common.Address{}
	}
	return o.session.Account
}

// UnitPrice returns the price of one NFT in whole tokens.
func (o *Orchestrator) UnitPrice() int64 { return o.unitPrice }

// Symbol returns the payment token ticker.
func (o *Orchestrator) Symbol() string { return o.symbol }

// CostLabel renders the price of count purchases.
func (o *Orchestrator) CostLabel(count int) string {
	return CostLabel(o.unitPrice, count, o.symbol)
}

// Connect unlocks the configured wallet and binds signing handles. Failures
// from the provider are returned unchanged and leave the state untouched.
func (o *Orchestrator) Connect(ctx context.Context) error {
	if o.provider == nil {
		o.notifyNoWallet()
		return ErrNoWallet
	}

	account, err := o.provider.RequestAccount(ctx)
	if err != nil {
		o.log.WithField("op", "connect").WithError(err).Warn("account request failed")
		if errors.Is(err, ErrNoWallet) {
			o.notifyNoWallet()
		}
		return err
	}
	signing, err := o.provider.Signing(ctx, account)
	if err != nil {
		o.log.WithField("op", "connect").WithError(err).Warn("binding signer failed")
		return err
	}

	o.mu.Lock()
	o.session = &Session{Account: account, Signing: signing}
	o.mu.Unlock()
	o.log.WithField("account", account.Hex()).Debug("wallet connected")

	o.ReadTokenBalance(ctx, account) //nolint:errcheck
	o.ReadOwner(ctx, account)        //nolint:errcheck
	return nil
}

func (o *Orchestrator) notifyNoWallet() {
	o.notify.Notify(Notice{Level: LevelError, Text: "No wallet configured. Add one with `gacharoom wallet add`."})
}

// ReadTokenBalance refreshes TokenBalance for account. On failure the
// previous value is kept and the *ReadError is returned for logging only.
func (o *Orchestrator) ReadTokenBalance(ctx context.Context, account common.Address) error {
	raw, decimals, err := o.balance(ctx, account)
	if err != nil {
		return o.readFailed("balanceOf", err)
	}
	o.mu.Lock()
	o.state.TokenBalance = FormatWhole(raw, decimals)
	o.mu.Unlock()
	return nil
}

// ReadContractTokenBalance refreshes ContractTokenBalance, the tokens held by
// the room. On failure the previous value is kept.
func (o *Orchestrator) ReadContractTokenBalance(ctx context.Context) error {
	raw, decimals, err := o.balance(ctx, o.roomAddr)
	if err != nil {
		return o.readFailed("contractBalance", err)
	}
	o.mu.Lock()
	o.state.ContractTokenBalance = FormatExact(raw, decimals)
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) balance(ctx context.Context, account common.Address) (*big.Int, uint8, error) {
	raw, err := o.token.BalanceOf(ctx, account)
	if err != nil {
		return nil, 0, err
	}
	decimals, err := o.token.Decimals(ctx)
	if err != nil {
		return nil, 0, err
	}
	return raw, decimals, nil
}

// ReadOwner sets IsCallerOwner by comparing account to the room owner
// case-insensitively. On failure IsCallerOwner is reset to false.
func (o *Orchestrator) ReadOwner(ctx context.Context, account common.Address) error {
	owner, err := o.room.Owner(ctx)
	if err != nil {
		o.mu.Lock()
		o.state.IsCallerOwner = false
		o.mu.Unlock()
		return o.readFailed("owner", err)
	}
	o.mu.Lock()
	o.state.IsCallerOwner = strings.EqualFold(owner.Hex(), account.Hex())
	o.mu.Unlock()
	return nil
}

// ReadAvailableSupply refreshes AvailableSupply. On failure it is reset to 0.
func (o *Orchestrator) ReadAvailableSupply(ctx context.Context) error {
	n, err := o.room.AvailableCount(ctx)
	if err != nil {
		n = 0
	}
	o.mu.Lock()
	o.state.AvailableSupply = n
	o.mu.Unlock()
	if err != nil {
		return o.readFailed("availableCount", err)
	}
	return nil
}

// Refresh runs every read the current session allows, in order. Read errors
// are absorbed.
func (o *Orchestrator) Refresh(ctx context.Context) {
	o.ReadAvailableSupply(ctx)      //nolint:errcheck
	o.ReadContractTokenBalance(ctx) //nolint:errcheck
	if account, ok := o.connectedAccount(); ok {
		o.ReadTokenBalance(ctx, account) //nolint:errcheck
		o.ReadOwner(ctx, account)        //nolint:errcheck
	}
}

func (o *Orchestrator) readFailed(op string, err error) error {
	rerr := &ReadError{Op: op, Err: err}
	o.log.WithField("op", op).WithError(err).Warn("chain read failed")
	return rerr
}

func (o *Orchestrator) connectedAccount() (common.Address, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return common.Address{}, false
	}
	return o.session.Account, true
}

// begin checks the session and sets Pending. It returns the session to use.
func (o *Orchestrator) begin() (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil, fmt.Errorf("%w: wallet not connected", ErrNotReady)
	}
	if o.state.Pending {
		return nil, fmt.Errorf("%w: another operation is pending", ErrNotReady)
	}
	o.state.Pending = true
	return o.session, nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.state.Pending = false
	o.mu.Unlock()
}

// Swap buys count NFTs: one approval for the total cost, then count
// sequential swap() calls, each confirmed before the next is sent. The first
// failure stops the run; confirmed purchases stay and are counted in the
// result.
func (o *Orchestrator) Swap(ctx context.Context, count int) (*SwapResult, error) {
	if !o.Connected() {
		o.notify.Notify(Notice{Level: LevelError, Text: "Connect wallet first"})
		return nil, fmt.Errorf("%w: wallet not connected", ErrNotReady)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrNotReady)
	}
	sess, err := o.begin()
	if err != nil {
		return nil, err
	}
	defer o.end()

	res := &SwapResult{RunID: uuid.NewString(), Requested: count}
	log := o.log.WithFields(logrus.Fields{"op": "swap", "run": res.RunID, "count": count})

	err = o.runSwap(ctx, sess, res, log)
	if err != nil {
		log.WithError(err).WithField("completed", res.Completed).Error("swap aborted")
		text := "Swap failed"
		if res.Completed > 0 {
			text = fmt.Sprintf("Swap stopped after %d of %d NFT(s)", res.Completed, count)
		}
		o.notify.Notify(Notice{Level: LevelError, Text: text})
		return res, err
	}

	o.notify.Notify(Notice{Level: LevelSuccess, Text: fmt.Sprintf("Swap complete! You got %d NFT(s).", count)})
	o.ReadTokenBalance(ctx, sess.Account) //nolint:errcheck
	return res, nil
}

func (o *Orchestrator) runSwap(ctx context.Context, sess *Session, res *SwapResult, log logrus.FieldLogger) error {
	decimals, err := o.token.Decimals(ctx)
	if err != nil {
		return &TxError{Stage: StageApprove, Err: fmt.Errorf("reading decimals: %w", err)}
	}
	units := new(big.Int).Mul(big.NewInt(o.unitPrice), big.NewInt(int64(res.Requested)))
	res.TotalCost = scaleUnits(units, decimals)

	hash, err := sess.Signing.Token.Approve(ctx, o.roomAddr, res.TotalCost)
	if err != nil {
		return &TxError{Stage: StageApprove, Err: err}
	}
	log.WithFields(logrus.Fields{"stage": StageApprove, "tx": hash.Hex()}).Debug("submitted")
	if err := o.confirm(ctx, hash); err != nil {
		return &TxError{Stage: StageApprove, Hash: hash, Err: err}
	}
	res.Approval = hash

	for i := 1; i <= res.Requested; i++ {
		hash, err := sess.Signing.Room.Swap(ctx)
		if err != nil {
			return &TxError{Stage: StageSwap, Index: i, Err: err}
		}
		log.WithFields(logrus.Fields{"stage": StageSwap, "index": i, "tx": hash.Hex()}).Debug("submitted")
		if err := o.confirm(ctx, hash); err != nil {
			return &TxError{Stage: StageSwap, Index: i, Hash: hash, Err: err}
		}
		res.Purchases = append(res.Purchases, hash)
		res.Completed = i

		o.ReadTokenBalance(ctx, sess.Account) //nolint:errcheck
		o.ReadAvailableSupply(ctx)            //nolint:errcheck
	}
	return nil
}

// Withdraw sends the room's token balance to the owner with one
// withdrawClean() call.
func (o *Orchestrator) Withdraw(ctx context.Context) (*WithdrawResult, error) {
	sess, err := o.begin()
	if err != nil {
		if errors.Is(err, ErrNotReady) && !o.Connected() {
			o.notify.Notify(Notice{Level: LevelError, Text: "Connect wallet first"})
		}
		return nil, err
	}
	defer o.end()

	log := o.log.WithField("op", "withdraw")

	hash, err := sess.Signing.Room.WithdrawClean(ctx)
	if err == nil {
		log.WithField("tx", hash.Hex()).Debug("submitted")
		err = o.confirm(ctx, hash)
	}
	if err != nil {
		txErr := &TxError{Stage: StageWithdraw, Hash: hash, Err: err}
		log.WithError(txErr).Error("withdraw failed")
		o.notify.Notify(Notice{Level: LevelError, Text: "Withdraw failed"})
		return nil, txErr
	}

	o.notify.Notify(Notice{Level: LevelSuccess, Text: "Withdraw successful!"})
	o.ReadContractTokenBalance(ctx) //nolint:errcheck
	return &WithdrawResult{Hash: hash}, nil
}

func (o *Orchestrator) confirm(ctx context.Context, hash common.Hash) error {
	_, err := o.confirmer.WaitMined(ctx, hash)
	return err
}
