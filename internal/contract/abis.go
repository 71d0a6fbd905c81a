package contract

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BuiltinKind describes a contract type whose ABI is embedded in the binary.
// Built-ins register themselves from init() in their own <name>_abi.go file.
type BuiltinKind struct {
	ID          string // machine key, e.g. "erc20", "gacharoom"
	Name        string // human label
	Description string
	JSON        string // ABI as emitted by solc
}

var (
	builtinMu       sync.Mutex
	builtinRegistry = map[string]BuiltinKind{}
	parsedABIs      = map[string]abi.ABI{}
)

// RegisterBuiltin adds a built-in ABI to the global registry. It panics on an
// unparsable ABI so a broken embed fails at startup.
func RegisterBuiltin(b BuiltinKind) {
	parsed, err := abi.JSON(strings.NewReader(b.JSON))
	if err != nil {
		panic(fmt.Sprintf("contract: builtin %q: %v", b.ID, err))
	}
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtinRegistry[b.ID] = b
	parsedABIs[b.ID] = parsed
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	b, ok := builtinRegistry[id]
	return b, ok
}

// BuiltinABI returns the parsed ABI for a built-in ID.
func BuiltinABI(id string) (abi.ABI, error) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	parsed, ok := parsedABIs[id]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%w: %q", ErrUnknownBuiltin, id)
	}
	return parsed, nil
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
