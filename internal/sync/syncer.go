// Package sync pulls room deployments from a remote manifest into the
// config, so a new deployment does not need a release.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/sirupsen/logrus"
)

// Contract names in the manifest.
const (
	RoomContract  = "room"
	TokenContract = "token"
)

var (
	// ErrNoSource is returned by Run when no manifest URL is configured.
	ErrNoSource = errors.New("no sync source configured")
	// ErrNotDeployed is returned when the manifest has no entry for the network.
	ErrNotDeployed = errors.New("room not deployed on network")
)

// Manifest is the structure of a deployments.json manifest:
// contract name → network key → entry.
type Manifest struct {
	Contracts map[string]map[string]ManifestEntry `json:"contracts"`
}

// ManifestEntry is a single contract deployment entry.
type ManifestEntry struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol,omitempty"` // token only
}

// Deployment is what Run applied to the config.
type Deployment struct {
	Network string
	Room    string
	Token   string
	Symbol  string
}

// NetworkKey names a network in the manifest: "polygon" for mainnet,
// "polygon-testnet" for its testnet.
func NetworkKey(network, mode string) string {
	if mode == "testnet" {
		return network + "-testnet"
	}
	return network
}

// Lookup returns the room and token entries for a network key.
func (m *Manifest) Lookup(key string) (room, token ManifestEntry, err error) {
	room, okRoom := m.Contracts[RoomContract][key]
	token, okToken := m.Contracts[TokenContract][key]
	if !okRoom || !okToken {
		return ManifestEntry{}, ManifestEntry{}, fmt.Errorf("%w: %s", ErrNotDeployed, key)
	}
	return room, token, nil
}

// Syncer fetches the manifest and updates the config.
type Syncer struct {
	cfg    *config.Config
	client *http.Client
	log    logrus.FieldLogger
}

// New creates a new Syncer. log may be nil.
func New(cfg *config.Config, log logrus.FieldLogger) *Syncer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Syncer{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

// SetSource sets the remote manifest URL.
func (s *Syncer) SetSource(url string) error {
	s.cfg.SyncSource = url
	return s.cfg.Save()
}

// Run fetches the manifest from the configured source and points the config
// at the deployment for its current network and mode.
func (s *Syncer) Run(ctx context.Context) (*Deployment, error) {
	if s.cfg.SyncSource == "" {
		return nil, fmt.Errorf("%w — run: gacharoom sync set-source <url>", ErrNoSource)
	}

	manifest, err := s.fetchManifest(ctx, s.cfg.SyncSource)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}

	key := NetworkKey(s.cfg.Network, s.cfg.NetworkMode)
	room, token, err := manifest.Lookup(key)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.Set("room_address", room.Address); err != nil {
		return nil, fmt.Errorf("manifest room: %w", err)
	}
	if err := s.cfg.Set("token_address", token.Address); err != nil {
		return nil, fmt.Errorf("manifest token: %w", err)
	}
	if token.Symbol != "" {
		if err := s.cfg.Set("token_symbol", token.Symbol); err != nil {
			return nil, err
		}
	}

	// Update last synced timestamp.
	s.cfg.LastSynced = time.Now().UTC().Format(time.RFC3339)
	if err := s.cfg.Save(); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"network": key, "room": s.cfg.Room, "token": s.cfg.Token}).Debug("deployment synced")

	return &Deployment{Network: key, Room: s.cfg.Room, Token: s.cfg.Token, Symbol: s.cfg.TokenSymbol}, nil
}

func (s *Syncer) fetchManifest(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
