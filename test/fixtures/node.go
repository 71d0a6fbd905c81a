// Package fixtures provides a fake room chain for integration and e2e tests.
package fixtures

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// DevKey is a well-known development key. Its address is DevAddress.
const (
	DevKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DevAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// Function selectors the node understands.
const (
	selBalanceOf    = "70a08231"
	selDecimals     = "313ce567"
	selSymbol       = "95d89b41"
	selAllowance    = "dd62ed3e"
	selApprove      = "095ea7b3"
	selOwner        = "8da5cb5b"
	selAvailable    = "bb31e77f"
	selSwap         = "8119c065"
	selWithdrawAll  = "9dc62c7f"
	receiptStatusOK = "0x1"
	receiptReverted = "0x0"
)

// Tx is a transaction the node accepted.
type Tx struct {
	Method string // approve | swap | withdrawClean | unknown
	From   common.Address
	Hash   common.Hash
	Status string // receipt status
}

// Node is an in-memory token + room pair served over JSON-RPC. The token
// and room live at the configured default addresses.
type Node struct {
	ChainID   int64
	Decimals  uint8
	UnitPrice int64 // whole tokens per swap
	Token     common.Address
	Room      common.Address

	mu           sync.Mutex
	owner        common.Address
	supply       uint64
	balances     map[common.Address]*big.Int
	allowance    map[common.Address]*big.Int
	nonces       map[common.Address]uint64
	receipts     map[common.Hash]string
	sent         []Tx
	swaps        int
	revertSwapAt int
	failReads    bool
}

// NewNode returns a Polygon-like node with supply NFTs and no balances.
func NewNode(supply uint64) *Node {
	return &Node{
		ChainID:   137,
		Decimals:  18,
		UnitPrice: config.DefaultUnitPrice,
		Token:     common.HexToAddress(config.DefaultTokenAddress),
		Room:      common.HexToAddress(config.DefaultRoomAddress),
		supply:    supply,
		balances:  make(map[common.Address]*big.Int),
		allowance: make(map[common.Address]*big.Int),
		nonces:    make(map[common.Address]uint64),
		receipts:  make(map[common.Hash]string),
	}
}

// Tokens converts whole tokens to base units.
func (n *Node) Tokens(whole int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Decimals)), nil)
	return new(big.Int).Mul(big.NewInt(whole), scale)
}

// Fund sets the token balance of account in whole tokens.
func (n *Node) Fund(account common.Address, whole int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[account] = n.Tokens(whole)
}

// SetOwner sets the room owner.
func (n *Node) SetOwner(owner common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owner = owner
}

// RevertSwapAt makes the i-th swap (1-based) revert.
func (n *Node) RevertSwapAt(i int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.revertSwapAt = i
}

// FailReads makes every eth_call return an RPC error.
func (n *Node) FailReads(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failReads = fail
}

// Balance returns the token balance of account in base units.
func (n *Node) Balance(account common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.balanceOf(account)
}

// Supply returns the NFTs left in the room.
func (n *Node) Supply() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.supply
}

// Sent returns the accepted transactions in order.
func (n *Node) Sent() []Tx {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Tx(nil), n.sent...)
}

// Methods returns the method names of accepted transactions in order.
func (n *Node) Methods() []string {
	var out []string
	for _, tx := range n.Sent() {
		out = append(out, tx.Method)
	}
	return out
}

// Serve starts the JSON-RPC server; it is closed when the test ends.
func (n *Node) Serve(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(n.handle))
	t.Cleanup(srv.Close)
	return srv
}

type rpcReq struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func (n *Node) handle(w http.ResponseWriter, r *http.Request) {
	var req rpcReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	result, err := n.dispatch(req)
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if err != nil {
		resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (n *Node) dispatch(req rpcReq) (any, error) {
	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeBig(big.NewInt(n.ChainID)), nil
	case "eth_blockNumber":
		return "0x100", nil
	case "eth_gasPrice":
		return "0x3b9aca00", nil
	case "eth_maxPriorityFeePerGas":
		return "0x59682f00", nil
	case "eth_estimateGas":
		return "0xc350", nil
	case "eth_getTransactionCount":
		var addr common.Address
		if err := param(req, 0, &addr); err != nil {
			return nil, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.EncodeUint64(n.nonces[addr]), nil
	case "eth_call":
		var call struct {
			To    common.Address `json:"to"`
			Input hexutil.Bytes  `json:"input"`
			Data  hexutil.Bytes  `json:"data"`
		}
		if err := param(req, 0, &call); err != nil {
			return nil, err
		}
		input := call.Input
		if len(input) == 0 {
			input = call.Data
		}
		return n.call(call.To, input)
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := param(req, 0, &raw); err != nil {
			return nil, err
		}
		return n.send(raw)
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := param(req, 0, &hash); err != nil {
			return nil, err
		}
		n.mu.Lock()
		status, ok := n.receipts[hash]
		n.mu.Unlock()
		if !ok {
			return nil, nil
		}
		return receiptJSON(hash, status), nil
	}
	return nil, fmt.Errorf("method %s not supported", req.Method)
}

func param(req rpcReq, i int, v any) error {
	if len(req.Params) <= i {
		return fmt.Errorf("%s: missing param %d", req.Method, i)
	}
	return json.Unmarshal(req.Params[i], v)
}

func (n *Node) call(to common.Address, input []byte) (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failReads {
		return nil, fmt.Errorf("execution timeout")
	}
	if len(input) < 4 {
		return nil, fmt.Errorf("execution reverted")
	}
	sel := hex.EncodeToString(input[:4])
	switch {
	case to == n.Token && sel == selBalanceOf && len(input) >= 36:
		return word(n.balanceOf(common.BytesToAddress(input[4:36]))), nil
	case to == n.Token && sel == selDecimals:
		return word(big.NewInt(int64(n.Decimals))), nil
	case to == n.Token && sel == selSymbol:
		return symbolWord("CLEAN"), nil
	case to == n.Token && sel == selAllowance && len(input) >= 68:
		if common.BytesToAddress(input[36:68]) != n.Room {
			return word(new(big.Int)), nil
		}
		return word(n.allowanceOf(common.BytesToAddress(input[4:36]))), nil
	case to == n.Room && sel == selOwner:
		return word(new(big.Int).SetBytes(n.owner.Bytes())), nil
	case to == n.Room && sel == selAvailable:
		return word(new(big.Int).SetUint64(n.supply)), nil
	}
	return nil, fmt.Errorf("execution reverted")
}

func (n *Node) send(raw []byte) (any, error) {
	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decoding tx: %w", err)
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), &tx)
	if err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if tx.Nonce() != n.nonces[from] {
		return nil, fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), n.nonces[from])
	}
	n.nonces[from]++

	method, status := n.apply(from, tx.To(), tx.Data())
	n.receipts[tx.Hash()] = status
	n.sent = append(n.sent, Tx{Method: method, From: from, Hash: tx.Hash(), Status: status})
	return tx.Hash().Hex(), nil
}

// apply runs the contract logic for one transaction. Caller holds mu.
func (n *Node) apply(from common.Address, to *common.Address, data []byte) (string, string) {
	if to == nil || len(data) < 4 {
		return "unknown", receiptReverted
	}
	switch sel := hex.EncodeToString(data[:4]); {
	case *to == n.Token && sel == selApprove && len(data) >= 68:
		n.allowance[from] = new(big.Int).SetBytes(data[36:68])
		return "approve", receiptStatusOK

	case *to == n.Room && sel == selSwap:
		n.swaps++
		price := n.Tokens(n.UnitPrice)
		bal := n.balanceOf(from)
		allowed := n.allowance[from]
		if n.swaps == n.revertSwapAt || n.supply == 0 ||
			allowed == nil || allowed.Cmp(price) < 0 || bal.Cmp(price) < 0 {
			return "swap", receiptReverted
		}
		n.balances[from] = new(big.Int).Sub(bal, price)
		n.balances[n.Room] = new(big.Int).Add(n.balanceOf(n.Room), price)
		n.allowance[from] = new(big.Int).Sub(allowed, price)
		n.supply--
		return "swap", receiptStatusOK

	case *to == n.Room && sel == selWithdrawAll:
		if from != n.owner {
			return "withdrawClean", receiptReverted
		}
		n.balances[n.owner] = new(big.Int).Add(n.balanceOf(n.owner), n.balanceOf(n.Room))
		n.balances[n.Room] = new(big.Int)
		return "withdrawClean", receiptStatusOK
	}
	return "unknown", receiptReverted
}

func (n *Node) balanceOf(account common.Address) *big.Int {
	if b, ok := n.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (n *Node) allowanceOf(owner common.Address) *big.Int {
	if a, ok := n.allowance[owner]; ok && a != nil {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func word(v *big.Int) string {
	return hexutil.Encode(common.LeftPadBytes(v.Bytes(), 32))
}

// symbolWord ABI-encodes a short string return value.
func symbolWord(s string) string {
	out := common.LeftPadBytes(big.NewInt(32).Bytes(), 32)
	out = append(out, common.LeftPadBytes(big.NewInt(int64(len(s))).Bytes(), 32)...)
	out = append(out, common.RightPadBytes([]byte(s), 32)...)
	return hexutil.Encode(out)
}

// receiptJSON returns a receipt with every field go-ethereum requires.
func receiptJSON(hash common.Hash, status string) map[string]any {
	return map[string]any{
		"type":              "0x2",
		"status":            status,
		"cumulativeGasUsed": "0xb411",
		"logsBloom":         "0x" + strings.Repeat("00", 256),
		"logs":              []any{},
		"transactionHash":   hash.Hex(),
		"contractAddress":   nil,
		"gasUsed":           "0xb411",
		"effectiveGasPrice": "0x3b9aca00",
		"blockHash":         "0x" + strings.Repeat("22", 32),
		"blockNumber":       "0x100",
		"transactionIndex":  "0x0",
	}
}
