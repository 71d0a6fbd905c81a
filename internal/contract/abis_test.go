package contract_test

import (
	"encoding/hex"
	"testing"

	"github.com/Mohsinsiddi/gacharoom/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsRegistered(t *testing.T) {
	all := contract.AllBuiltins()
	require.Len(t, all, 2)
	assert.Equal(t, contract.ERC20ID, all[0].ID)
	assert.Equal(t, contract.RoomID, all[1].ID)

	b, ok := contract.GetBuiltin(contract.RoomID)
	require.True(t, ok)
	assert.Equal(t, "Gacha Room", b.Name)
}

func TestUnknownBuiltin(t *testing.T) {
	_, ok := contract.GetBuiltin("nope")
	assert.False(t, ok)

	_, err := contract.BuiltinABI("nope")
	assert.ErrorIs(t, err, contract.ErrUnknownBuiltin)
}

func TestRegisterBuiltinPanicsOnBadJSON(t *testing.T) {
	assert.Panics(t, func() {
		contract.RegisterBuiltin(contract.BuiltinKind{ID: "broken", JSON: "{"})
	})
	_, ok := contract.GetBuiltin("broken")
	assert.False(t, ok)
}

func TestERC20Selectors(t *testing.T) {
	parsed, err := contract.BuiltinABI(contract.ERC20ID)
	require.NoError(t, err)

	cases := map[string]string{
		"symbol":    "95d89b41",
		"decimals":  "313ce567",
		"balanceOf": "70a08231",
		"allowance": "dd62ed3e",
		"approve":   "095ea7b3",
	}
	for name, want := range cases {
		m, ok := parsed.Methods[name]
		require.True(t, ok, name)
		assert.Equal(t, want, hex.EncodeToString(m.ID), name)
	}
}

func TestRoomSelectors(t *testing.T) {
	parsed, err := contract.BuiltinABI(contract.RoomID)
	require.NoError(t, err)

	cases := map[string]string{
		"owner":             "8da5cb5b",
		"getAvailableCount": "bb31e77f",
		"swap":              "8119c065",
		"withdrawClean":     "9dc62c7f",
	}
	for name, want := range cases {
		m, ok := parsed.Methods[name]
		require.True(t, ok, name)
		assert.Equal(t, want, hex.EncodeToString(m.ID), name)
	}
}
