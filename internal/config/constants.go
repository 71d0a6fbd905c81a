package config

import "time"

// Contract deployment the room page was built for (Polygon mainnet).
const (
	DefaultRoomAddress  = "0xA71f087Df075E6d85453e425AD15Ab0d5366050f"
	DefaultTokenAddress = "0xeF2c6201f085E972fbaD4FA08beF4BaB660DAc33"
	DefaultTokenSymbol  = "CLEAN"
	DefaultUnitPrice    = int64(10_000)
)

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitApprove      = uint64(60_000)
	GasLimitContractCall = uint64(200_000)
)

// Timeouts and intervals.
const (
	RPCSelectTimeout    = 10 * time.Second
	ReceiptPollInterval = 2 * time.Second
)
