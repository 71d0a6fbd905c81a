package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gacharoom/internal/chain"
	"github.com/Mohsinsiddi/gacharoom/internal/gacha"
	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	swapCount int
	swapYes   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap CLEAN for NFTs",
	Long: `Buy --count NFTs from the room. One approval for the total cost is sent
first, then one swap per NFT, each confirmed before the next. If a step fails
the run stops; NFTs already bought are kept.

Examples:
  gacharoom swap
  gacharoom swap --count 3 --yes`,
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
		env.orch.Refresh(ctx)
		st := env.orch.State()
		if err := checkCount(swapCount, st.AvailableSupply); err != nil {
			return err
		}

		fmt.Fprintln(out, ui.KeyValueBlock("Swap", [][2]string{
			{"Account", ui.Addr(env.orch.Account().Hex())},
			{"Balance", ui.Val(st.TokenBalance + " " + env.orch.Symbol())},
			{"NFTs", fmt.Sprintf("%d of %d available", swapCount, st.AvailableSupply)},
			{"Cost", ui.Val(env.orch.CostLabel(swapCount))},
		}))
		if !swapYes && !ui.Confirm(cmd.InOrStdin(), out, fmt.Sprintf("Swap %s for %d NFT(s)?", env.orch.CostLabel(swapCount), swapCount)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}

		spin := ui.NewSpinner(out, fmt.Sprintf("Approving %s and buying %d NFT(s)...", env.orch.CostLabel(swapCount), swapCount))
		spin.Start()
		res, err := env.orch.Swap(ctx, swapCount)
		spin.Stop()
		notices.Flush(out)
		for _, line := range swapTxLines(env.chain, cfg.NetworkMode, res) {
			fmt.Fprintln(out, line)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Balance: %s %s", env.orch.State().TokenBalance, env.orch.Symbol())))
		return nil
	},
}

// checkCount rejects purchase counts the room cannot fill.
func checkCount(count int, available uint64) error {
	if count <= 0 {
		return fmt.Errorf("--count must be at least 1, got %d", count)
	}
	if available == 0 {
		return fmt.Errorf("the room is sold out")
	}
	if uint64(count) > available {
		return fmt.Errorf("only %d NFT(s) available, asked for %d", available, count)
	}
	return nil
}

// swapTxLines lists every confirmed transaction of a run.
func swapTxLines(c *chain.Chain, mode string, res *gacha.SwapResult) []string {
	if res == nil {
		return nil
	}
	var lines []string
	if res.Approval != (common.Hash{}) {
		lines = append(lines, txLine(c, mode, "approve", res.Approval))
	}
	for i, h := range res.Purchases {
		lines = append(lines, txLine(c, mode, fmt.Sprintf("swap #%d", i+1), h))
	}
	return lines
}

func init() {
	swapCmd.Flags().IntVarP(&swapCount, "count", "n", 1, "number of NFTs to buy")
	swapCmd.Flags().BoolVarP(&swapYes, "yes", "y", false, "skip the confirmation prompt")
}
