package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	"github.com/Mohsinsiddi/gacharoom/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag      string
	walletGenerateFlag bool
	walletRemoveYes    bool
	walletUnlockAll    bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a wallet. Only signing wallets can connect to the room; their private
keys are stored in the OS keychain, never in wallets.json.

  gacharoom wallet add hot --key 0x...      # signing wallet
  gacharoom wallet add fresh --generate     # new signing wallet
  gacharoom wallet add cold 0xABC...        # watch-only (balance/status)`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		mgr, err := openWallets()
		if err != nil {
			return err
		}

		switch {
		case walletGenerateFlag:
			w, err := mgr.Generate(name)
			if err != nil {
				return err
			}
			hexKey, err := mgr.Keystore().Retrieve(w.KeyRef)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Signing wallet %q generated: %s", name, ui.Addr(w.Address))))
			fmt.Fprintln(out, ui.Warn("Private key, shown once. Store it in a password manager:"))
			fmt.Fprintln(out, "  "+ui.Val("0x"+hexKey))

		case walletKeyFlag != "":
			if err := mgr.AddWithKey(name, walletKeyFlag); err != nil {
				return err
			}
			w, err := mgr.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))

		default:
			if len(args) < 2 {
				return fmt.Errorf("address required for watch-only wallet\n  Usage: gacharoom wallet add <name> <address>\n  Or for signing: gacharoom wallet add <name> --key <private-key>")
			}
			if err := mgr.AddWatchOnly(name, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(args[1]))))
		}
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("Set as default with: gacharoom wallet use %s", name)))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := openWallets()
		if err != nil {
			return err
		}
		wallets, err := mgr.List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Info("No wallets configured yet."))
			fmt.Fprintln(out, ui.Hint("Add one with: gacharoom wallet add myWallet --key <private-key>"))
			return nil
		}

		sess := wallet.NewSession(wallet.SessionPath(cfg.Dir()))
		def := mgr.Default()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
			{Title: "Session", Width: 9},
		})
		for _, w := range wallets {
			mark := ""
			if def != nil && def.Name == w.Name {
				mark = ui.StyleSuccess.Render("✓")
			}
			unlocked := ""
			if w.CanSign() && sess.Unlocked(w.Name) {
				unlocked = ui.Meta("unlocked")
			}
			t.AddRow(ui.Row{
				ui.Val(w.Name),
				ui.Addr(w.Address),
				ui.Meta(walletTypeLabel(w.Type)),
				mark,
				unlocked,
			})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default wallet",
	Long:  `Set the default wallet. Without a name, pick one from a list.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := openWallets()
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			wallets, err := mgr.List()
			if err != nil {
				return err
			}
			def := mgr.Default()
			items := make([]ui.PickerItem, len(wallets))
			for i, w := range wallets {
				items[i] = ui.PickerItem{
					Label:    w.Name,
					SubLabel: ui.TruncateAddr(w.Address) + "  " + ui.Meta(walletTypeLabel(w.Type)),
					Value:    w.Name,
					Current:  def != nil && def.Name == w.Name,
				}
			}
			name, err = ui.PickItem("Default Wallet  ·  select one", items)
			if err != nil {
				return err
			}
			if name == "" {
				fmt.Fprintln(out, ui.Meta("Cancelled."))
				return nil
			}
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		if err := cfg.Set("default_wallet", name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		fmt.Fprintln(out, ui.Hint("This wallet will be used for all commands when --wallet is not specified."))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		if !walletRemoveYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Remove wallet %q and delete its key?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := openWallets()
		if err != nil {
			return err
		}
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if w.KeyRef != "" {
			wallet.NewSession(wallet.SessionPath(cfg.Dir())).Remove(w.KeyRef) //nolint:errcheck
		}
		if cfg.DefaultWallet == name {
			if err := cfg.Set("default_wallet", ""); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUnlockCmd = &cobra.Command{
	Use:   "unlock [name]",
	Short: "Cache wallet key(s) for the session (skips future keychain prompts)",
	Long: `Read private keys from the OS keychain once and cache them in a
restricted session file so later commands run without a prompt.

  gacharoom wallet unlock          # default wallet
  gacharoom wallet unlock hot      # a specific wallet
  gacharoom wallet unlock --all    # every signing wallet`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := openWallets()
		if err != nil {
			return err
		}

		var targets []*wallet.Wallet
		if walletUnlockAll {
			all, err := mgr.List()
			if err != nil {
				return err
			}
			for _, w := range all {
				if w.CanSign() {
					targets = append(targets, w)
				}
			}
		} else {
			name := walletName()
			if len(args) == 1 {
				name = args[0]
			}
			w, err := mgr.Resolve(name)
			if err != nil {
				return err
			}
			targets = []*wallet.Wallet{w}
		}
		if len(targets) == 0 {
			fmt.Fprintln(out, ui.Info("No signing wallets found."))
			fmt.Fprintln(out, ui.Hint("Add one with: gacharoom wallet add <name> --key <private-key>"))
			return nil
		}

		fmt.Fprintln(out, ui.Info("Your OS keychain may prompt once per wallet being unlocked."))
		sess := wallet.NewSession(wallet.SessionPath(cfg.Dir()))
		var unlocked int
		for _, w := range targets {
			if _, err := wallet.Unlock(w, mgr.Keystore(), sess); err != nil {
				fmt.Fprintln(out, ui.Err(fmt.Sprintf("  %-20s %v", w.Name, err)))
				continue
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("  %-20s unlocked", w.Name)))
			unlocked++
		}
		if unlocked == 0 {
			return fmt.Errorf("no wallet unlocked")
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%d wallet(s) cached. No prompts until 'gacharoom wallet lock'.", unlocked)))
		return nil
	},
}

var walletLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Clear the session cache (re-enables keychain prompts)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		sess := wallet.NewSession(wallet.SessionPath(cfg.Dir()))
		if !sess.Active() {
			fmt.Fprintln(out, ui.Meta("No active session — nothing to clear."))
			return nil
		}
		if err := sess.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Fprintln(out, ui.Success("Session cleared. Keychain will be used on next access."))
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for a signing wallet (stored in OS keychain)")
	walletAddCmd.Flags().BoolVar(&walletGenerateFlag, "generate", false, "generate a new signing wallet")
	walletAddCmd.MarkFlagsMutuallyExclusive("key", "generate")
	walletRemoveCmd.Flags().BoolVarP(&walletRemoveYes, "yes", "y", false, "skip the confirmation prompt")
	walletUnlockCmd.Flags().BoolVar(&walletUnlockAll, "all", false, "unlock all signing wallets")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletUseCmd, walletRemoveCmd, walletUnlockCmd, walletLockCmd)
}

// walletTypeLabel converts a wallet type to a user-facing label.
func walletTypeLabel(t string) string {
	switch t {
	case wallet.TypeSigning:
		return "read-write"
	default:
		return t
	}
}
