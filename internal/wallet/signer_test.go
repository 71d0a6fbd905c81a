package wallet_test

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/gacharoom/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signingWallet(t *testing.T) (*wallet.Wallet, *wallet.InMemoryKeystore) {
	t.Helper()
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithKeystore(ks))
	require.NoError(t, mgr.AddWithKey("signer", testKey))
	w, err := mgr.Get("signer")
	require.NoError(t, err)
	return w, ks
}

func TestUnlockAndSign(t *testing.T) {
	w, ks := signingWallet(t)

	s, err := wallet.Unlock(w, ks, nil)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())

	chainID := big.NewInt(31337)
	to := common.HexToAddress("0xA71f087Df075E6d85453e425AD15Ab0d5366050f")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     7,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(0),
	})

	signed, err := s.SignTx(tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.NewLondonSigner(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), sender)
	assert.Equal(t, uint64(7), signed.Nonce())
}

func TestUnlockWatchOnlyFails(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWatchOnly("viewer", testAddress))
	w, _ := mgr.Get("viewer")

	_, err := wallet.Unlock(w, mgr.Keystore(), nil)
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
}

func TestUnlockMissingKey(t *testing.T) {
	w, _ := signingWallet(t)

	_, err := wallet.Unlock(w, wallet.NewInMemoryKeystore(), nil)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
}

func TestUnlockCachesInSession(t *testing.T) {
	w, ks := signingWallet(t)
	sess := wallet.NewSession(filepath.Join(t.TempDir(), "session.json"))

	_, err := wallet.Unlock(w, ks, sess)
	require.NoError(t, err)
	assert.True(t, sess.Unlocked("signer"))

	// Keychain gone: the cached key still unlocks.
	require.NoError(t, ks.Delete(w.KeyRef))
	s, err := wallet.Unlock(w, ks, sess)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())
}

func TestUnlockRejectsMismatchedKey(t *testing.T) {
	w, _ := signingWallet(t)
	other := wallet.NewInMemoryKeystore()
	_, err := other.Store("signer", "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d")
	require.NoError(t, err)

	_, err = wallet.Unlock(w, other, nil)
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestUnlockEvictsStaleSessionKey(t *testing.T) {
	w, ks := signingWallet(t)
	sess := wallet.NewSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, sess.Put(w.KeyRef, "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"))

	s, err := wallet.Unlock(w, ks, sess)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())

	// The keychain key replaced the stale one.
	cached, ok := sess.Get(w.KeyRef)
	require.True(t, ok)
	want, err := ks.Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, want, cached)
}

func TestUnlockEvictsUnparsableSessionKey(t *testing.T) {
	w, ks := signingWallet(t)
	sess := wallet.NewSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, sess.Put(w.KeyRef, "not-a-key"))

	_, err := wallet.Unlock(w, ks, sess)
	require.NoError(t, err)
}

func TestUnlockStaleSessionAndMissingKeychainKey(t *testing.T) {
	w, _ := signingWallet(t)
	sess := wallet.NewSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, sess.Put(w.KeyRef, "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"))

	_, err := wallet.Unlock(w, wallet.NewInMemoryKeystore(), sess)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
	assert.False(t, sess.Unlocked(w.Name))
}
