package gacha

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors.
var (
	// ErrNoWallet means no wallet is configured to connect with.
	ErrNoWallet = errors.New("no wallet configured")
	// ErrUserRejected means the wallet refused to unlock or sign.
	ErrUserRejected = errors.New("request rejected by wallet")
	// ErrNotReady means the operation needs a session, a positive quantity or
	// an idle orchestrator.
	ErrNotReady = errors.New("not ready")
)

// ReadError is a failed chain read. Reads never abort an operation.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Op, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// Stage names the write step a TxError happened in.
type Stage string

const (
	StageApprove  Stage = "approve"
	StageSwap     Stage = "swap"
	StageWithdraw Stage = "withdraw"
)

// TxError is a failed submission or confirmation. Index is the 1-based
// purchase number for StageSwap and zero otherwise. Hash is zero when the
// transaction was never broadcast.
type TxError struct {
	Stage Stage
	Index int
	Hash  common.Hash
	Err   error
}

func (e *TxError) Error() string {
	msg := string(e.Stage)
	if e.Stage == StageSwap {
		msg = fmt.Sprintf("%s #%d", msg, e.Index)
	}
	if e.Hash != (common.Hash{}) {
		msg += " (" + e.Hash.Hex() + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *TxError) Unwrap() error { return e.Err }
