package tui

import (
	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
	"github.com/doom/nest/pkg/logging"
)

// Messages delivered to the Bubbletea update loop. Runner progress arrives
// through the Reporter, log lines through the logging channel.

type scenarioStartedMsg struct {
	scenario *scenario.Scenario
}

type stepFinishedMsg struct {
	result runner.StepResult
}

type scenarioFinishedMsg struct {
	result runner.ScenarioResult
}

type suiteFinishedMsg struct {
	result runner.SuiteResult
}

type logEntryMsg struct {
	entry logging.LogEntry
}

// logChannelClosedMsg signals that the logging channel was closed and no
// further log lines will arrive.
type logChannelClosedMsg struct{}

// clearStatusMsg clears a transient status bar message.
type clearStatusMsg struct{ seq int }
