package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/spf13/cobra"
)

var withdrawYes bool

// errNotOwner is returned when a non-owner tries to withdraw.
var errNotOwner = errors.New("only the room owner can withdraw")

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the room's CLEAN to the owner (owner only)",
	Args:  cobra.NoArgs,
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
		env.orch.Refresh(ctx)
		st := env.orch.State()
		if !st.IsCallerOwner {
			return fmt.Errorf("%w: %s", errNotOwner, env.orch.Account().Hex())
		}

		amount := st.ContractTokenBalance + " " + env.orch.Symbol()
		if !withdrawYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Withdraw %s from the room?", amount)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}

		spin := ui.NewSpinner(out, "Withdrawing "+amount+"...")
		spin.Start()
		res, err := env.orch.Withdraw(ctx)
		spin.Stop()
		notices.Flush(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, txLine(env.chain, cfg.NetworkMode, "withdraw", res.Hash))
		fmt.Fprintln(out, ui.Meta("Room balance: "+env.orch.State().ContractTokenBalance+" "+env.orch.Symbol()))
		return nil
	},
}

func init() {
	withdrawCmd.Flags().BoolVarP(&withdrawYes, "yes", "y", false, "skip the confirmation prompt")
}
