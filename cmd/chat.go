package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seranote/seranote/internal/shared"
	"github.com/seranote/seranote/internal/ui"
	"github.com/urfave/cli/v3"
)

// Chat opens the live chat thread for a note in the terminal.
func (r *Runner) Chat(ctx context.Context, cmd *cli.Command) error {
	noteID := cmd.StringArg("id")
	if noteID == "" {
		return fmt.Errorf("%w: note id is required", shared.ErrValidation)
	}

	identity, err := r.whoami()
	if err != nil {
		return err
	}
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

	model := ui.NewChatModel(ctx, api, noteID, identity.Email)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat: %w", err)
	}

	return nil
}
