package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seranote/seranote/internal/shared"
	"github.com/seranote/seranote/internal/ui"
	"github.com/urfave/cli/v3"
)

// Compose launches the interactive song picker, clip editor and compose form.
func (r *Runner) Compose(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiClient()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/seranote-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewComposeModel(ctx, api)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running compose: %w", err)
	}

	return nil
}
