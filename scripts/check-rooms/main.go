// check-rooms: reads the room's remaining supply, owner and collected CLEAN
// on every registered chain (mainnet + testnet) in parallel and prints a
// summary table, with the collected amount in the token's own ticker.
// Chains where the room is not deployed show the read error.
//
// Run from the module root:
//
//	go run ./scripts/check-rooms
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/gacharoom/internal/chain"
	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/Mohsinsiddi/gacharoom/internal/contract"
	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	"github.com/Mohsinsiddi/gacharoom/internal/rpc"
	"github.com/ethereum/go-ethereum/common"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	chain     string
	mode      string
	rpc       string
	available string
	owner     string
	collected string
	err       string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	roomAddr := common.HexToAddress(config.DefaultRoomAddress)
	tokenAddr := common.HexToAddress(config.DefaultTokenAddress)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, c := range chain.NewRegistry().All() {
		for _, mode := range []string{"mainnet", "testnet"} {
			urls := c.RPCs(mode)
			if len(urls) == 0 {
				continue
			}
			wg.Add(1)
			go func(c chain.Chain, mode string, urls []string) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
				defer cancel()

				r := checkRoom(ctx, urls, roomAddr, tokenAddr)
				r.chain, r.mode = c.Name, mode

				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}(c, mode, urls)
		}
	}

	wg.Wait()
	printTable(results)
}

func checkRoom(ctx context.Context, urls []string, roomAddr, tokenAddr common.Address) result {
	r := result{available: "—", owner: "—", collected: "—"}

	url, err := rpc.Select(ctx, urls, string(rpc.AlgorithmFastest))
	if err != nil {
		r.err = "unreachable"
		return r
	}
	r.rpc = url

	client, err := chain.Dial(ctx, url)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	defer client.Close()

	room := contract.NewRoom(roomAddr, client)
	token := contract.NewToken(tokenAddr, client)

	n, err := room.AvailableCount(ctx)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	r.available = strconv.FormatUint(n, 10)

	if owner, err := room.Owner(ctx); err == nil {
		r.owner = shortAddr(owner.Hex())
	}
	bal, err := token.BalanceOf(ctx, roomAddr)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	decimals, err := token.Decimals(ctx)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	r.collected = gacha.FormatWhole(bal, decimals)
	if symbol, err := token.Symbol(ctx); err == nil {
		r.collected += " " + symbol
	}
	return r
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.chain != b.chain {
			return a.chain < b.chain
		}
		return a.mode < b.mode // mainnet < testnet alphabetically
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "CHAIN\tMODE\tAVAILABLE\tOWNER\tCOLLECTED\tRPC\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 9)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 12)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 12))

	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.chain, r.mode, r.available, r.owner, r.collected, r.rpc, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
