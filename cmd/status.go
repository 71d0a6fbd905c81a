package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/gacharoom/internal/contract"
	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/Mohsinsiddi/gacharoom/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the room and your wallet at a glance",
	Long: `Show the room's remaining NFT supply and price, plus the balance of the
selected wallet. When that wallet owns the room, the owner panel with the
room's collected CLEAN is shown as well. No key is unlocked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		env, err := newRoomEnv(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		spin := ui.NewSpinner(out, "Reading room...")
		spin.Start()
		env.orch.Refresh(ctx)
		account, haveAccount, allowance := common.Address{}, false, ""
		w, err := env.wallets.Resolve(walletName())
		switch {
		case err == nil:
			account, haveAccount = w.Account(), true
			env.orch.ReadTokenBalance(ctx, account) //nolint:errcheck
			env.orch.ReadOwner(ctx, account)        //nolint:errcheck
			allowance = readAllowance(ctx, env, account)
		case !errors.Is(err, wallet.ErrNoDefault):
			spin.Stop()
			return err
		}
		spin.Stop()

		fmt.Fprintln(out, ui.Banner())
		fmt.Fprintln(out, statusCard(env.orch.State(), env.chain.Label(cfg.NetworkMode), account, haveAccount, allowance, env.orch))
		if !haveAccount {
			fmt.Fprintln(out, ui.Hint("Add a wallet with: gacharoom wallet add <name> --key <private-key>"))
		}
		return nil
	},
}

// readAllowance returns how much CLEAN the room may still pull from account,
// left over from an earlier approval. Empty when the token cannot be read.
func readAllowance(ctx context.Context, env *roomEnv, account common.Address) string {
	token := contract.NewToken(cfg.TokenAddress(), env.client)
	decimals, err := token.Decimals(ctx)
	if err != nil {
		log.WithError(err).Debug("reading decimals for allowance")
		return ""
	}
	raw, err := token.Allowance(ctx, account, cfg.RoomAddress())
	if err != nil {
		log.WithError(err).Debug("reading allowance")
		return ""
	}
	return gacha.FormatWhole(raw, decimals)
}

// statusCard renders the display state. The owner panel only appears for
// the room owner. An empty allowance is left out.
func statusCard(st gacha.DisplayState, network string, account common.Address, haveAccount bool, allowance string, orch *gacha.Orchestrator) string {
	pairs := [][2]string{
		{"Network", network},
		{"Room", ui.Addr(cfg.RoomAddress().Hex())},
		{"Available", ui.Val(strconv.FormatUint(st.AvailableSupply, 10)) + " NFT(s)"},
		{"Price", orch.CostLabel(1) + " per NFT"},
	}
	if haveAccount {
		pairs = append(pairs,
			[2]string{"Account", ui.Addr(account.Hex())},
			[2]string{"Balance", ui.Val(st.TokenBalance + " " + orch.Symbol())},
		)
		if allowance != "" {
			pairs = append(pairs, [2]string{"Approved", ui.Val(allowance+" "+orch.Symbol()) + " for the room"})
		}
	}
	card := ui.KeyValueBlock("Gacha Room", pairs)
	if st.IsCallerOwner {
		card += "\n" + ui.KeyValueBlock("Owner", [][2]string{
			{"Room balance", ui.Val(st.ContractTokenBalance + " " + orch.Symbol())},
			{"Withdraw", "gacharoom withdraw"},
		})
	}
	return card
}
