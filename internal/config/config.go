package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GACHAROOM_NETWORK.
const EnvPrefix = "GACHAROOM"

const (
	defaultNetwork   = "polygon"
	defaultMode      = "mainnet"
	defaultAlgorithm = "fastest"

	configFile  = "config.json"
	walletsFile = "wallets.json"
)

// ErrUnknownKey is returned by Set for keys that cannot be configured.
var ErrUnknownKey = errors.New("unknown config key")

// Load reads config from dir (or creates defaults). dir defaults to ~/.gacharoom.
// Values from config.json are overridden by GACHAROOM_* environment variables.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".gacharoom")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	path := filepath.Join(dir, configFile)
	fileCfg, err := read(path, false)
	if err != nil {
		return nil, err
	}
	cfg, err := read(path, true)
	if err != nil {
		return nil, err
	}
	cfg.configDir = dir

	// Environment values apply to this run only. Remember what the file
	// holds for them so Save writes the file value back.
	fileDoc, err := fileCfg.document()
	if err != nil {
		return nil, err
	}
	doc, err := cfg.document()
	if err != nil {
		return nil, err
	}
	for key, val := range doc {
		if !sameValue(val, fileDoc[key]) {
			cfg.pin(key, fileDoc[key], val)
		}
	}
	return cfg, nil
}

// read decodes config.json over the defaults, with GACHAROOM_* environment
// overrides when env is set. A missing file yields the defaults.
func read(path string, env bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.AutomaticEnv()
	}
	setDefaults(v)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Save writes the config to disk. Keys still holding an environment or
// Override value are written with their file value instead.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	doc, err := c.document()
	if err != nil {
		return err
	}
	for key, p := range c.pinned {
		if sameValue(doc[key], p.override) {
			doc[key] = p.file
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Override sets key for this run only, like an environment variable: Save
// keeps the file value unless the key is later changed with Set.
func (c *Config) Override(key, value string) error {
	before, err := c.document()
	if err != nil {
		return err
	}
	file := before[key]
	if p, ok := c.pinned[key]; ok {
		file = p.file
	}
	if err := c.set(key, value); err != nil {
		return err
	}
	after, err := c.document()
	if err != nil {
		return err
	}
	c.pin(key, file, after[key])
	return nil
}

// Set updates a single key by its config.json name, validating the value.
// A key set this way is saved even if it was overridden for the run.
func (c *Config) Set(key, value string) error {
	if err := c.set(key, value); err != nil {
		return err
	}
	delete(c.pinned, key)
	return nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "default_wallet":
		c.DefaultWallet = value
	case "network":
		c.Network = strings.ToLower(value)
	case "network_mode":
		if value != "mainnet" && value != "testnet" {
			return fmt.Errorf("network_mode must be mainnet or testnet, got %q", value)
		}
		c.NetworkMode = value
	case "rpc_algorithm":
		if !slices.Contains([]string{"fastest", "round-robin", "failover"}, value) {
			return fmt.Errorf("rpc_algorithm must be fastest, round-robin or failover, got %q", value)
		}
		c.RPCAlgorithm = value
	case "room_address", "token_address":
		if !common.IsHexAddress(value) {
			return fmt.Errorf("%s: %q is not a valid address", key, value)
		}
		addr := common.HexToAddress(value).Hex()
		if key == "room_address" {
			c.Room = addr
		} else {
			c.Token = addr
		}
	case "token_symbol":
		c.TokenSymbol = value
	case "unit_price":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("unit_price must be a positive integer, got %q", value)
		}
		c.UnitPrice = n
	case "sync_source":
		c.SyncSource = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath returns the path of wallets.json.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// --- helpers ---

// pinnedValue is a run-only value and the file value Save restores for it.
type pinnedValue struct {
	file     any
	override any
}

func (c *Config) pin(key string, file, override any) {
	if c.pinned == nil {
		c.pinned = make(map[string]pinnedValue)
	}
	c.pinned[key] = pinnedValue{file: file, override: override}
}

// document returns the config as its config.json key/value map.
func (c *Config) document() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_wallet", "")
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("network_mode", defaultMode)
	v.SetDefault("rpc_algorithm", defaultAlgorithm)
	v.SetDefault("custom_rpcs", map[string][]string{})
	v.SetDefault("room_address", DefaultRoomAddress)
	v.SetDefault("token_address", DefaultTokenAddress)
	v.SetDefault("token_symbol", DefaultTokenSymbol)
	v.SetDefault("unit_price", DefaultUnitPrice)
	v.SetDefault("sync_source", "")
	v.SetDefault("last_synced", "")
}
