package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Opens an interactive terminal chat. Every message is answered on its own
from the indexed documents; earlier turns are not sent to the model.

Controls:
  enter    - Send question
  ctrl+s   - Show or hide sources
  ctrl+l   - Clear transcript
  pgup/dn  - Scroll
  esc      - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Recover so a panic inside bubbletea still leaves a stack trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := loadApplication(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	tuiApp, err := tui.NewApp(tui.NewPorts(app.chat, app.cfg.Index.Name))
	if err != nil {
		return err
	}
	return tuiApp.WithContext(cmd.Context()).Run()
}
