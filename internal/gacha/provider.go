package gacha

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/gacharoom/internal/contract"
	"github.com/Mohsinsiddi/gacharoom/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// ChainBackend is the node surface signing handles need.
// *chain.EVMClient satisfies it.
type ChainBackend interface {
	contract.Backend
	contract.Caller
}

// KeyringProvider is a Provider over locally stored wallets whose keys live
// in the OS keychain.
type KeyringProvider struct {
	Wallets *wallet.Manager
	Name    string          // wallet to use; the default wallet when empty
	Session *wallet.Session // optional unlocked-key cache
	Backend ChainBackend
	Token   common.Address
	Room    common.Address

	mu      sync.Mutex
	signers map[common.Address]*wallet.Signer
}

// RequestAccount unlocks the configured wallet.
func (p *KeyringProvider) RequestAccount(_ context.Context) (common.Address, error) {
	w, err := p.Wallets.Resolve(p.Name)
	if errors.Is(err, wallet.ErrNoDefault) || errors.Is(err, wallet.ErrWalletNotFound) {
		return common.Address{}, fmt.Errorf("%w: %v", ErrNoWallet, err)
	}
	if err != nil {
		return common.Address{}, err
	}
	if !w.CanSign() {
		return common.Address{}, fmt.Errorf("%w: wallet %q cannot sign", ErrNotReady, w.Name)
	}

	signer, err := wallet.Unlock(w, p.Wallets.Keystore(), p.Session)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrUserRejected, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signers == nil {
		p.signers = make(map[common.Address]*wallet.Signer)
	}
	p.signers[signer.Address()] = signer
	return signer.Address(), nil
}

// Signing binds token and room handles to a Sender for account, which must
// have been unlocked by RequestAccount.
func (p *KeyringProvider) Signing(ctx context.Context, account common.Address) (Contracts, error) {
	p.mu.Lock()
	signer, ok := p.signers[account]
	p.mu.Unlock()
	if !ok {
		return Contracts{}, fmt.Errorf("%w: %s is not unlocked", ErrNotReady, account.Hex())
	}

	sender, err := contract.NewSender(ctx, p.Backend, signer)
	if err != nil {
		return Contracts{}, err
	}
	return Contracts{
		Token: contract.NewToken(p.Token, p.Backend).WithTransactor(sender),
		Room:  contract.NewRoom(p.Room, p.Backend).WithTransactor(sender),
	}, nil
}
