package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snipx/internal/shared"
	"github.com/desertthunder/snipx/internal/tasks"
	"github.com/desertthunder/snipx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for snippets.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.UI.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	alerts := ui.NewAlertBuffer()
	progress := make(chan tasks.ProgressUpdate, 32)
	vm, err := r.viewModel(alerts, progress)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, vm, r.highlighter, alerts, progress, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
