package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
)

// Reporter bridges the runner to the dashboard. Every callback becomes a
// Bubbletea message, so it is safe to use from the runner's worker
// goroutines.
type Reporter struct {
	program *tea.Program
}

// NewReporter wraps a program so runner progress is delivered to it.
func NewReporter(p *tea.Program) *Reporter {
	return &Reporter{program: p}
}

func (r *Reporter) ReportStart(total int, opts runner.Options) {}

func (r *Reporter) ReportScenarioStart(s *scenario.Scenario) {
	r.program.Send(scenarioStartedMsg{scenario: s})
}

func (r *Reporter) ReportStepResult(result runner.StepResult) {
	r.program.Send(stepFinishedMsg{result: result})
}

func (r *Reporter) ReportScenarioResult(result runner.ScenarioResult) {
	r.program.Send(scenarioFinishedMsg{result: result})
}

func (r *Reporter) ReportSuiteResult(suite runner.SuiteResult) {
	r.program.Send(suiteFinishedMsg{result: suite})
}
