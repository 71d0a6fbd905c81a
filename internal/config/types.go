package config

import "github.com/ethereum/go-ethereum/common"

// Config holds all gacharoom configuration.
type Config struct {
	DefaultWallet string              `json:"default_wallet" mapstructure:"default_wallet"`
	Network       string              `json:"network"        mapstructure:"network"`
	NetworkMode   string              `json:"network_mode"   mapstructure:"network_mode"`  // "mainnet" | "testnet"
	RPCAlgorithm  string              `json:"rpc_algorithm"  mapstructure:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	CustomRPCs    map[string][]string `json:"custom_rpcs"    mapstructure:"custom_rpcs"`

	Room        string `json:"room_address"  mapstructure:"room_address"`
	Token       string `json:"token_address" mapstructure:"token_address"`
	TokenSymbol string `json:"token_symbol"  mapstructure:"token_symbol"`
	UnitPrice   int64  `json:"unit_price"    mapstructure:"unit_price"` // whole tokens per NFT

	SyncSource string `json:"sync_source" mapstructure:"sync_source"` // deployments manifest URL
	LastSynced string `json:"last_synced" mapstructure:"last_synced"`

	// internal: config dir path used for Save()
	configDir string
	// internal: run-only values Save must not persist
	pinned map[string]pinnedValue
}

// RoomAddress returns the NFT-room contract address.
func (c *Config) RoomAddress() common.Address { return common.HexToAddress(c.Room) }

// TokenAddress returns the fungible-token contract address.
func (c *Config) TokenAddress() common.Address { return common.HexToAddress(c.Token) }
