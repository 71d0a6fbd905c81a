package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrWatchOnly is returned when a watch-only wallet is asked to sign.
var ErrWatchOnly = errors.New("wallet is watch-only and cannot sign")

// Signer signs EVM transactions for an unlocked signing wallet.
type Signer struct {
	address common.Address
	key     *ecdsa.PrivateKey
}

// Unlock loads the wallet's key, preferring the session cache when one is
// given, and returns a Signer. A key read from the keystore is cached in the
// session. A cached key that no longer matches the wallet is evicted and the
// keystore is tried instead.
func Unlock(w *Wallet, ks KeystoreBackend, sess *Session) (*Signer, error) {
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: %q", ErrWatchOnly, w.Name)
	}

	if sess != nil {
		if hexKey, ok := sess.Get(w.KeyRef); ok {
			if s, err := signerFor(w, hexKey); err == nil {
				return s, nil
			}
			if err := sess.Remove(w.KeyRef); err != nil {
				return nil, fmt.Errorf("evicting session key: %w", err)
			}
		}
	}

	hexKey, err := ks.Retrieve(w.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	s, err := signerFor(w, hexKey)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		if err := sess.Put(w.KeyRef, hexKey); err != nil {
			return nil, fmt.Errorf("caching session key: %w", err)
		}
	}
	return s, nil
}

// signerFor parses hexKey and checks it belongs to w.
func signerFor(w *Wallet, hexKey string) (*Signer, error) {
	privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	addr := crypto.PubkeyToAddress(privKey.PublicKey)
	if addr != w.Account() {
		return nil, fmt.Errorf("%w: key does not match %s", ErrInvalidKey, w.Address)
	}
	return &Signer{address: addr, key: privKey}, nil
}

// Address returns the signing account.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID with the London signer.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}
