package cmd

import (
	"fmt"

	csync "github.com/Mohsinsiddi/gacharoom/internal/sync"
	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync room and token addresses from a deployments manifest",
	Long: `Point the config at the room deployment listed in a remote manifest:

  {
    "contracts": {
      "room":  {"polygon": {"address": "0x..."}, "polygon-testnet": {"address": "0x..."}},
      "token": {"polygon": {"address": "0x...", "symbol": "CLEAN"}}
    }
  }`,
}

var syncSetSourceCmd = &cobra.Command{
	Use:   "set-source <url>",
	Short: "Set the remote deployments manifest URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		if err := csync.New(cfg, log).SetSource(url); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Sync source set to: %s", url)))
		return nil
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the manifest and apply the deployment for the current network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		spin := ui.NewSpinner(out, "Syncing deployment...")
		spin.Start()
		dep, err := csync.New(cfg, log).Run(cmd.Context())
		spin.Stop()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success("Deployment synced"))
		fmt.Fprintln(out, ui.KeyValueBlock(dep.Network, [][2]string{
			{"Room", ui.Addr(dep.Room)},
			{"Token", ui.Addr(dep.Token)},
			{"Symbol", dep.Symbol},
		}))
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncSetSourceCmd, syncRunCmd)
}
