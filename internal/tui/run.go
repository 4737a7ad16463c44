package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"betledger/internal/controller"
)

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl *controller.Controller) error {
	p := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
