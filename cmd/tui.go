package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive mood picker.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.generator == nil {
		return fmt.Errorf("%w: generator not initialized (is spotify client_id configured?)", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/moodlist-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.generator)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
