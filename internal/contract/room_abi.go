package contract

// RoomID is the registry key of the gacha room contract.
//
// Function selectors:
//
//	owner()             → 0x8da5cb5b
//	getAvailableCount() → 0xbb31e77f
//	swap()              → 0x8119c065
//	withdrawClean()     → 0x9dc62c7f
const RoomID = "gacharoom"

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          RoomID,
		Name:        "Gacha Room",
		Description: "NFT room that sells one random NFT per swap() for a fixed token price.",
		JSON:        roomABI,
	})
}

const roomABI = `[
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"getAvailableCount","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"swap","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"withdrawClean","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`
