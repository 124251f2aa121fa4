package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
)

// JSONReporter stays silent until the suite finishes, then emits the
// whole result as one indented JSON document. Suitable for piping into
// jq or other tooling.
type JSONReporter struct {
	out io.Writer
}

func NewJSONReporter(out io.Writer) *JSONReporter {
	return &JSONReporter{out: out}
}

func (r *JSONReporter) ReportStart(total int, opts runner.Options) {}

func (r *JSONReporter) ReportScenarioStart(s *scenario.Scenario) {}

func (r *JSONReporter) ReportStepResult(stepResult runner.StepResult) {}

func (r *JSONReporter) ReportScenarioResult(result runner.ScenarioResult) {}

func (r *JSONReporter) ReportSuiteResult(suite runner.SuiteResult) {
	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, `{"error": %q}`+"\n", err.Error())
		return
	}
	fmt.Fprintf(r.out, "%s\n", data)
}
