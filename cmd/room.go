package cmd

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Mohsinsiddi/gacharoom/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// roomRedraw is how often the page re-reads the orchestrator's state.
const roomRedraw = 500 * time.Millisecond

// roomLogFile receives --verbose logs while the page owns the terminal.
const roomLogFile = "room.log"

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Open the interactive room page",
	Long: `Open the full-screen room page: connect, pick a quantity, swap, and
withdraw if you own the room.

Keys: c connect · +/- quantity · enter swap · w withdraw · r refresh · q quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		notices := ui.NewNoticeQueue()
		env, err := newRoomEnv(ctx, notices)
		if err != nil {
			return err
		}
		defer env.Close()

		// Logs would tear the alt screen.
		if verbose {
			f, err := os.OpenFile(filepath.Join(cfg.Dir(), roomLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return err
			}
			defer f.Close()
			log.SetOutput(f)
		} else {
			log.SetOutput(io.Discard)
		}

		model := ui.NewRoomModel(ctx, env.orch, notices, roomRedraw)
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}
