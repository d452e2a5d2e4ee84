package cmd

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskdeck/internal/tui"
	"taskdeck/internal/utils"
	"taskdeck/internal/watcher"
)

// newTUICmd creates the 'tui' subcommand
func newTUICmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg)
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			model := tui.New(app.ctrl, app.cfg.GetTheme())
			p := tea.NewProgram(model, tea.WithAltScreen())

			// Reload the view when another process writes the store.
			storePath := app.cfg.GetStorePath()
			if cfg.StorePath != "" {
				storePath = cfg.StorePath
			}
			if w, werr := watcher.New(watcher.Config{
				StorePath: storePath,
				OnChange:  func() { p.Send(tui.ReloadMsg{}) },
			}); werr == nil {
				if serr := w.Start(); serr != nil {
					utils.Debugf("store watcher disabled: %v", serr)
				} else {
					defer w.Stop()
				}
			}

			_, err = p.Run()
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
