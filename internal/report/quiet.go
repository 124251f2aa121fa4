package report

import (
	"fmt"
	"io"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
)

// QuietReporter only surfaces failures and the final tally, for CI logs
// where per-scenario chatter is noise.
type QuietReporter struct {
	out io.Writer
}

func NewQuietReporter(out io.Writer) *QuietReporter {
	return &QuietReporter{out: out}
}

func (r *QuietReporter) ReportStart(total int, opts runner.Options) {}

func (r *QuietReporter) ReportScenarioStart(s *scenario.Scenario) {}

func (r *QuietReporter) ReportStepResult(stepResult runner.StepResult) {}

func (r *QuietReporter) ReportScenarioResult(result runner.ScenarioResult) {
	if result.Result == runner.ResultFailed || result.Result == runner.ResultError {
		fmt.Fprintf(r.out, "%s %s: %s\n",
			resultSymbol(result.Result), result.Scenario.Name, result.Error)
	}
}

func (r *QuietReporter) ReportSuiteResult(suite runner.SuiteResult) {
	if suite.Success() {
		fmt.Fprintf(r.out, "✅ All %d scenarios passed (%v)\n",
			suite.TotalScenarios, suite.Duration)
	} else {
		fmt.Fprintf(r.out, "❌ %d/%d scenarios failed (%v)\n",
			suite.FailedScenarios+suite.ErrorScenarios, suite.TotalScenarios, suite.Duration)
	}
}
