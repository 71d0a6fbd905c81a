package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/gacharoom/internal/config"
	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show current configuration",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration value and save config.json.

Keys:
  default_wallet   wallet used when --wallet is not given
  network          chain the room is deployed on (e.g. polygon)
  network_mode     mainnet | testnet
  rpc_algorithm    fastest | round-robin | failover
  room_address     NFT room contract
  token_address    CLEAN token contract
  token_symbol     ticker shown in prices and balances
  unit_price       whole tokens charged per NFT`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			if errors.Is(err, config.ErrUnknownKey) {
				return fmt.Errorf("%w — run `gacharoom config set --help` for the list", err)
			}
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s set to %q", key, value)))
		return nil
	},
}

var configRPCCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage custom RPCs for the configured network",
}

var configRPCAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a custom RPC (tried before the built-in ones)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.AddRPC(cfg.Network, args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC %s added for %s", args[0], cfg.Network)))
		return nil
	},
}

var configRPCRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a custom RPC",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(cfg.Network, args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC %s removed for %s", args[0], cfg.Network)))
		return nil
	},
}

func init() {
	configRPCCmd.AddCommand(configRPCAddCmd, configRPCRemoveCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configRPCCmd)
}
