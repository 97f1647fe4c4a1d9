package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todoboard/internal/client"
	"todoboard/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	// the terminal belongs to bubbletea; keep logs out of it
	log := zap.NewNop()
	if path := cmd.Flag("log-file").Value.String(); path != "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
		if l, err := cfg.Build(); err == nil {
			log = l
		}
	}
	defer log.Sync()

	c := client.New(serverURL, log)
	p := tea.NewProgram(tui.New(c, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
