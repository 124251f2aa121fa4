// Package runner executes scenarios against freshly started fixtures:
// one repository server, one client configuration and one target root
// per scenario, acquired in order and released in reverse on every exit
// path.
package runner

import (
	"time"

	"github.com/doom/nest/internal/harness"
	"github.com/doom/nest/internal/scenario"
)

// Result classifies the outcome of a scenario or step.
type Result string

const (
	// ResultPassed indicates every step met its expectation.
	ResultPassed Result = "PASSED"
	// ResultFailed indicates the binary under test deviated from an
	// expectation.
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the scenario was not executed.
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates the harness itself could not run the
	// scenario to completion.
	ResultError Result = "ERROR"
)

// Options configures a suite run.
type Options struct {
	// Parallel is the number of scenarios executed concurrently.
	// Values below 2 mean sequential execution.
	Parallel int `json:"parallel"`

	// FailFast stops scheduling new scenarios after the first failure.
	FailFast bool `json:"fail_fast"`

	// NestBin, FinestBin and ServerBin override binary resolution.
	// Empty values fall back to the environment and PATH.
	NestBin   string `json:"nest_bin,omitempty"`
	FinestBin string `json:"finest_bin,omitempty"`
	ServerBin string `json:"server_bin,omitempty"`

	// BasePort is where server port probing starts.
	BasePort int `json:"base_port"`

	// ReadyTimeout bounds the wait for server readiness.
	ReadyTimeout time.Duration `json:"ready_timeout"`

	// StopGrace is the SIGTERM to SIGKILL delay on server teardown.
	StopGrace time.Duration `json:"stop_grace"`

	// InvokeTimeout bounds each CLI invocation unless the step sets
	// its own.
	InvokeTimeout time.Duration `json:"invoke_timeout"`

	// Sudo prefixes invocations with "sudo -E".
	Sudo bool `json:"sudo"`

	// KeepWorkspaces leaves scenario and server workspaces behind.
	KeepWorkspaces bool `json:"keep_workspaces"`
}

// StepResult is the outcome of a single CLI invocation.
type StepResult struct {
	Step       scenario.Step   `json:"step"`
	Result     Result          `json:"result"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Duration   time.Duration   `json:"duration"`
	Invocation *harness.Result `json:"invocation,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// ScenarioResult is the outcome of a single scenario.
type ScenarioResult struct {
	Scenario    *scenario.Scenario `json:"scenario"`
	Result      Result             `json:"result"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Duration    time.Duration      `json:"duration"`
	StepResults []StepResult       `json:"step_results"`
	Error       string             `json:"error,omitempty"`

	// ServerLogs carries the fixture server's output when the
	// scenario did not pass.
	ServerLogs *harness.Logs `json:"server_logs,omitempty"`
}

// SuiteResult aggregates a whole run.
type SuiteResult struct {
	RunID            string           `json:"run_id"`
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time"`
	Duration         time.Duration    `json:"duration"`
	TotalScenarios   int              `json:"total_scenarios"`
	PassedScenarios  int              `json:"passed_scenarios"`
	FailedScenarios  int              `json:"failed_scenarios"`
	SkippedScenarios int              `json:"skipped_scenarios"`
	ErrorScenarios   int              `json:"error_scenarios"`
	ScenarioResults  []ScenarioResult `json:"scenario_results"`
	Options          Options          `json:"options"`
}

// Success reports whether the run had no failures and no errors.
func (r *SuiteResult) Success() bool {
	return r.FailedScenarios == 0 && r.ErrorScenarios == 0
}

// Reporter receives progress events as the suite executes. With
// parallel execution, ReportScenarioStart and ReportStepResult are
// delivered from worker goroutines; the remaining methods are always
// called from the runner's goroutine.
type Reporter interface {
	// ReportStart is called once before the first scenario.
	ReportStart(total int, opts Options)
	// ReportScenarioStart is called when a scenario begins.
	ReportScenarioStart(s *scenario.Scenario)
	// ReportStepResult is called after each step.
	ReportStepResult(result StepResult)
	// ReportScenarioResult is called after each scenario.
	ReportScenarioResult(result ScenarioResult)
	// ReportSuiteResult is called once with the aggregated outcome.
	ReportSuiteResult(result SuiteResult)
}

// nopReporter swallows all events.
type nopReporter struct{}

func (nopReporter) ReportStart(int, Options) {}

func (nopReporter) ReportScenarioStart(*scenario.Scenario) {}

func (nopReporter) ReportStepResult(StepResult) {}

func (nopReporter) ReportScenarioResult(ScenarioResult) {}

func (nopReporter) ReportSuiteResult(SuiteResult) {}
