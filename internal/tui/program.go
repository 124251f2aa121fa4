package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/doom/nest/pkg/logging"
)

// NewProgram creates the dashboard program and the reporter feeding it.
//
// total is the number of scenarios about to run. logCh is the channel
// returned by logging.InitForTUI; pass nil to run without an activity log.
// cancel is invoked when the user quits while scenarios are still running,
// and must stop the runner so the dashboard can exit after teardown.
func NewProgram(total int, logCh <-chan logging.LogEntry, cancel context.CancelFunc) (*tea.Program, *Reporter) {
	m := newModel(total, logCh, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())
	return p, NewReporter(p)
}
