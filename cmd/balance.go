package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/spf13/cobra"
)

var balanceAccount string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the CLEAN balance of a wallet",
	Long: `Show the CLEAN balance of the default wallet, --wallet, or any address
passed with --account. Reading a balance never unlocks a key.

Examples:
  gacharoom balance
  gacharoom balance --account 0xABC...
  gacharoom balance --wallet hot --testnet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		env, err := newRoomEnv(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		target := balanceAccount
		if target == "" {
			target = walletName()
		}
		account, err := parseAccount(env.wallets, target)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(out, fmt.Sprintf("Fetching balance on %s...", ui.ChainName(env.chain.Label(cfg.NetworkMode))))
		spin.Start()
		err = env.orch.ReadTokenBalance(ctx, account)
		spin.Stop()
		if err != nil {
			log.WithError(err).Debug("balance read failed")
			fmt.Fprintln(out, ui.Warn("Could not read the balance; showing the last known value."))
		}

		fmt.Fprintln(out, ui.KeyValueBlock("Balance", [][2]string{
			{"Address", ui.Addr(account.Hex())},
			{"Network", env.chain.Label(cfg.NetworkMode)},
			{"Balance", ui.Val(env.orch.State().TokenBalance + " " + env.orch.Symbol())},
		}))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceAccount, "account", "", "address or wallet name to check")
}
