package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run запускает форму и блокируется до выхода.
func Run(ctx context.Context, cfg Config) error {
	if cfg.ConfigErr == nil && cfg.Planner == nil {
		return fmt.Errorf("tui: planner is required when configuration is valid")
	}

	// без AltScreen: текст маршрута можно выделять мышкой
	p := tea.NewProgram(New(ctx, cfg), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
