package gacha

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DisplayState is what the page shows. Each field reflects the most recent
// successful read, or its documented fallback.
type DisplayState struct {
	TokenBalance         string // grouped whole tokens, e.g. "1,234,568"
	ContractTokenBalance string // full precision, e.g. "30000.5"
	AvailableSupply      uint64
	IsCallerOwner        bool
	Pending              bool
}

func initialState() DisplayState {
	return DisplayState{TokenBalance: "0", ContractTokenBalance: "0"}
}

// Session is a connected wallet with signing handles.
type Session struct {
	Account common.Address
	Signing Contracts
}

// SwapResult describes one Swap run. Completed counts purchases confirmed
// before the run ended, whether or not it failed.
type SwapResult struct {
	RunID     string
	Requested int
	Completed int
	TotalCost *big.Int
	Approval  common.Hash
	Purchases []common.Hash
}

// WithdrawResult describes one Withdraw run.
type WithdrawResult struct {
	Hash common.Hash
}

// Level grades a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice is a user-facing message, the terminal stand-in for an alert.
type Notice struct {
	Level Level
	Text  string
}

// Notifier receives notices.
type Notifier interface {
	Notify(Notice)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
