package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roomMain  = "0x1111111111111111111111111111111111111111"
	tokenMain = "0x2222222222222222222222222222222222222222"
	roomTest  = "0x3333333333333333333333333333333333333333"
	tokenTest = "0x4444444444444444444444444444444444444444"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func testSyncConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func manifestServer(t *testing.T, m Manifest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func roomManifest() Manifest {
	return Manifest{Contracts: map[string]map[string]ManifestEntry{
		RoomContract: {
			"polygon":         {Address: roomMain},
			"polygon-testnet": {Address: roomTest},
		},
		TokenContract: {
			"polygon":         {Address: tokenMain, Symbol: "CLEAN"},
			"polygon-testnet": {Address: tokenTest, Symbol: "tCLEAN"},
		},
	}}
}

// ---------------------------------------------------------------------------
// Manifest
// ---------------------------------------------------------------------------

func TestManifestParseValid(t *testing.T) {
	data := `{
		"contracts": {
			"room":  {"polygon": {"address": "0x1111111111111111111111111111111111111111"}},
			"token": {"polygon": {"address": "0x2222222222222222222222222222222222222222", "symbol": "CLEAN"}}
		}
	}`

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(data), &m))

	room, token, err := m.Lookup("polygon")
	require.NoError(t, err)
	assert.Equal(t, roomMain, room.Address)
	assert.Equal(t, tokenMain, token.Address)
	assert.Equal(t, "CLEAN", token.Symbol)
}

func TestManifestLookupMissingNetwork(t *testing.T) {
	m := roomManifest()
	_, _, err := m.Lookup("base")
	assert.ErrorIs(t, err, ErrNotDeployed)
}

func TestManifestLookupNeedsBothContracts(t *testing.T) {
	m := roomManifest()
	delete(m.Contracts[TokenContract], "polygon")
	_, _, err := m.Lookup("polygon")
	assert.ErrorIs(t, err, ErrNotDeployed)
}

func TestNetworkKey(t *testing.T) {
	assert.Equal(t, "polygon", NetworkKey("polygon", "mainnet"))
	assert.Equal(t, "polygon-testnet", NetworkKey("polygon", "testnet"))
}

// ---------------------------------------------------------------------------
// Syncer
// ---------------------------------------------------------------------------

func TestSetSourcePersists(t *testing.T) {
	cfg := testSyncConfig(t)
	require.NoError(t, New(cfg, nil).SetSource("https://example.com/deployments.json"))

	reloaded, err := config.Load(cfg.Dir())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/deployments.json", reloaded.SyncSource)
}

func TestRunWithoutSource(t *testing.T) {
	_, err := New(testSyncConfig(t), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestRunAppliesMainnetDeployment(t *testing.T) {
	srv := manifestServer(t, roomManifest())
	cfg := testSyncConfig(t)
	cfg.SyncSource = srv.URL

	dep, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "polygon", dep.Network)

	reloaded, err := config.Load(cfg.Dir())
	require.NoError(t, err)
	assert.Equal(t, roomMain, reloaded.Room)
	assert.Equal(t, tokenMain, reloaded.Token)
	assert.Equal(t, "CLEAN", reloaded.TokenSymbol)
	assert.NotEmpty(t, reloaded.LastSynced)
}

func TestRunAppliesTestnetDeployment(t *testing.T) {
	srv := manifestServer(t, roomManifest())
	cfg := testSyncConfig(t)
	cfg.SyncSource = srv.URL
	cfg.NetworkMode = "testnet"

	dep, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "polygon-testnet", dep.Network)
	assert.Equal(t, roomTest, cfg.Room)
	assert.Equal(t, "tCLEAN", cfg.TokenSymbol)
}

func TestRunRejectsBadAddress(t *testing.T) {
	m := roomManifest()
	m.Contracts[RoomContract]["polygon"] = ManifestEntry{Address: "not-an-address"}
	srv := manifestServer(t, m)
	cfg := testSyncConfig(t)
	cfg.SyncSource = srv.URL

	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, config.DefaultRoomAddress, cfg.Room, "config untouched")
}

func TestRunHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	cfg := testSyncConfig(t)
	cfg.SyncSource = srv.URL

	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRunBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json")) //nolint:errcheck
	}))
	defer srv.Close()
	cfg := testSyncConfig(t)
	cfg.SyncSource = srv.URL

	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing manifest")
}
