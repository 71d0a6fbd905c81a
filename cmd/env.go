package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Mohsinsiddi/gacharoom/internal/chain"
	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/Mohsinsiddi/gacharoom/internal/contract"
	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	"github.com/Mohsinsiddi/gacharoom/internal/rpc"
	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/Mohsinsiddi/gacharoom/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// roomEnv is everything a room command needs: the selected chain, a client
// for it, the wallet manager and an orchestrator wired to all three.
type roomEnv struct {
	chain   *chain.Chain
	client  *chain.EVMClient
	wallets *wallet.Manager
	orch    *gacha.Orchestrator
}

func (e *roomEnv) Close() { e.client.Close() }

// newRoomEnv selects an RPC, dials it and builds the orchestrator. Notices
// go to n.
func newRoomEnv(ctx context.Context, n gacha.Notifier) (*roomEnv, error) {
	c, url, err := resolveRPC(ctx)
	if err != nil {
		return nil, err
	}
	client, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	client.SetPollInterval(config.ReceiptPollInterval)
	log.WithField("rpc", url).Debug("using endpoint")

	mgr, err := openWallets()
	if err != nil {
		client.Close()
		return nil, err
	}

	gcfg := gacha.Config{
		Token:       contract.NewToken(cfg.TokenAddress(), client),
		Room:        contract.NewRoom(cfg.RoomAddress(), client),
		RoomAddress: cfg.RoomAddress(),
		Confirmer:   client,
		Logger:      log,
		Notifier:    n,
		UnitPrice:   cfg.UnitPrice,
		Symbol:      cfg.TokenSymbol,
	}
	if wallets, _ := mgr.List(); len(wallets) > 0 {
		gcfg.Provider = &gacha.KeyringProvider{
			Wallets: mgr,
			Name:    walletName(),
			Session: wallet.NewSession(wallet.SessionPath(cfg.Dir())),
			Backend: client,
			Token:   cfg.TokenAddress(),
			Room:    cfg.RoomAddress(),
		}
	}

	return &roomEnv{chain: c, client: client, wallets: mgr, orch: gacha.New(gcfg)}, nil
}

// resolveRPC returns the configured chain and the RPC URL to use for it.
// --rpc wins; otherwise custom RPCs are tried before the built-in ones.
func resolveRPC(ctx context.Context) (*chain.Chain, string, error) {
	c, err := chain.NewRegistry().GetByName(cfg.Network)
	if err != nil {
		return nil, "", fmt.Errorf("network %q: %w", cfg.Network, err)
	}
	if rpcFlag != "" {
		return c, rpcFlag, nil
	}

	urls := append(append([]string{}, cfg.GetRPCs(c.Name)...), c.RPCs(cfg.NetworkMode)...)
	if len(urls) == 0 {
		return nil, "", fmt.Errorf("no RPCs configured for %s (%s) — add one with `gacharoom config rpc add <url>`", c.Name, cfg.NetworkMode)
	}

	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := rpc.Select(ctx, urls, cfg.RPCAlgorithm)
	if err != nil {
		return nil, "", fmt.Errorf("selecting RPC for %s: %w", c.Label(cfg.NetworkMode), err)
	}
	return c, url, nil
}

// openWallets opens wallets.json with the OS keychain behind it.
func openWallets() (*wallet.Manager, error) {
	ks, err := wallet.OpenKeystore(cfg.Dir())
	if err != nil {
		return nil, err
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(ks),
	), nil
}

// walletName is the wallet selected by --wallet, else the configured default.
// Empty means the wallet manager's own default.
func walletName() string {
	if walletFlag != "" {
		return walletFlag
	}
	return cfg.DefaultWallet
}

// parseAccount accepts a 0x address or the name of a stored wallet.
func parseAccount(mgr *wallet.Manager, s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	w, err := mgr.Resolve(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w — pass an address with --account or add a wallet with `gacharoom wallet add`", err)
	}
	return w.Account(), nil
}

// noticeBuffer holds notices while a spinner owns the terminal line.
type noticeBuffer struct {
	mu      sync.Mutex
	notices []gacha.Notice
}

func (b *noticeBuffer) Notify(n gacha.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
}

// Flush prints and forgets the buffered notices.
func (b *noticeBuffer) Flush(out io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.notices {
		fmt.Fprintln(out, ui.Notice(n))
	}
	b.notices = nil
}

// connect unlocks the wallet behind a spinner and prints any notices.
func connect(ctx context.Context, out io.Writer, env *roomEnv, notices *noticeBuffer) error {
	spin := ui.NewSpinner(out, "Unlocking wallet...")
	spin.Start()
	err := env.orch.Connect(ctx)
	spin.Stop()
	notices.Flush(out)
	if err != nil {
		return fmt.Errorf("connecting wallet: %w", err)
	}
	return nil
}

// txLine renders a labelled transaction hash with its explorer link.
func txLine(c *chain.Chain, mode, label string, hash common.Hash) string {
	line := fmt.Sprintf("%-10s %s", label, ui.Addr(hash.Hex()))
	if url := c.TxURL(mode, hash.Hex()); url != "" {
		line += "\n           " + ui.Meta(url)
	}
	return line
}
