package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/Mohsinsiddi/gacharoom/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/gacharoom/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	log         *logrus.Logger
	verbose     bool
	testnet     bool
	networkFlag string
	rpcFlag     string
	walletFlag  string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "gacharoom",
	Short: "Swap CLEAN for NFTs from the gacha room",
	Long: `gacharoom — swap CLEAN tokens for NFTs from the gacha room contract.

  Connect a keychain-backed wallet, check your CLEAN balance and the room's
  remaining supply, and buy one or more NFTs. The room owner can withdraw
  the CLEAN the room has collected.

Run "gacharoom room" for the interactive page, or use the one-shot commands.
--testnet switches to the network's testnet for a single invocation.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if networkFlag != "" {
			if err := cfg.Override("network", networkFlag); err != nil {
				return err
			}
		}
		if testnet {
			if err := cfg.Override("network_mode", "testnet"); err != nil {
				return err
			}
		}
		log = logging.New(verbose, cmd.ErrOrStderr())
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels the command context, which
// stops an in-flight swap after the current step.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// GACHAROOM_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("GACHAROOM_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.gacharoom)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&testnet, "testnet", false, "use the network's testnet")
	pf.StringVar(&networkFlag, "network", "", "network the room is deployed on (default from config)")
	pf.StringVar(&rpcFlag, "rpc", "", "RPC URL to use instead of selecting one")
	pf.StringVar(&walletFlag, "wallet", "", "wallet to use (default wallet when empty)")

	rootCmd.AddCommand(
		connectCmd,
		balanceCmd,
		statusCmd,
		swapCmd,
		withdrawCmd,
		roomCmd,
		walletCmd,
		configCmd,
		syncCmd,
	)
}
