package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Unlock the wallet and show its balance",
	Long: `Unlock the default wallet (or --wallet) from the OS keychain and show
its CLEAN balance. The unlocked key is cached for this login session so
later commands do not prompt again; forget it with "gacharoom wallet lock".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		notices := &noticeBuffer{}
		env, err := newRoomEnv(ctx, notices)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := connect(ctx, out, env, notices); err != nil {
			return err
		}

		st := env.orch.State()
		role := "player"
		if st.IsCallerOwner {
			role = "room owner"
		}
		fmt.Fprintln(out, ui.Success("Wallet connected"))
		fmt.Fprintln(out, ui.KeyValueBlock("Connected", [][2]string{
			{"Account", ui.Addr(env.orch.Account().Hex())},
			{"Network", env.chain.Label(cfg.NetworkMode)},
			{"Balance", ui.Val(st.TokenBalance + " " + env.orch.Symbol())},
			{"Role", role},
		}))
		return nil
	},
}
