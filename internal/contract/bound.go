package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrReadOnly       = errors.New("contract handle is read-only")
	ErrUnknownBuiltin = errors.New("unknown builtin contract")
	ErrOverflow       = errors.New("value does not fit the result type")
)

// Caller executes read-only calls. *chain.EVMClient satisfies it.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Transactor submits a state-changing call and returns its hash without
// waiting for confirmation. *Sender satisfies it.
type Transactor interface {
	Transact(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// Bound is a contract address paired with its ABI and a backend.
type Bound struct {
	address    common.Address
	abi        abi.ABI
	caller     Caller
	transactor Transactor
}

// Bind creates a read-only handle for a built-in contract kind.
func Bind(id string, address common.Address, caller Caller) (*Bound, error) {
	parsed, err := BuiltinABI(id)
	if err != nil {
		return nil, err
	}
	return &Bound{address: address, abi: parsed, caller: caller}, nil
}

func mustBind(id string, address common.Address, caller Caller) *Bound {
	b, err := Bind(id, address, caller)
	if err != nil {
		panic(err)
	}
	return b
}

// Address returns the contract address.
func (b *Bound) Address() common.Address { return b.address }

// WithTransactor returns a signing copy of the handle.
func (b *Bound) WithTransactor(t Transactor) *Bound {
	cp := *b
	cp.transactor = t
	return &cp
}

// Call packs method with args, executes it and returns the decoded outputs.
func (b *Bound) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	raw, err := b.caller.CallContract(ctx, b.address, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	out, err := b.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return out, nil
}

// Transact packs method with args and submits it through the transactor.
func (b *Bound) Transact(ctx context.Context, method string, args ...any) (common.Hash, error) {
	if b.transactor == nil {
		return common.Hash{}, fmt.Errorf("%s: %w", method, ErrReadOnly)
	}
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding %s: %w", method, err)
	}
	hash, err := b.transactor.Transact(ctx, b.address, data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", method, err)
	}
	return hash, nil
}

// single asserts that a call returned exactly one value of type T.
func single[T any](method string, out []any) (T, error) {
	var zero T
	if len(out) != 1 {
		return zero, fmt.Errorf("%s: expected 1 result, got %d", method, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}
