package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
)

func sampleScenario(name string) *scenario.Scenario {
	s := &scenario.Scenario{
		Name:        name,
		Description: "pulls the repository index",
		Tags:        []string{"pull", "smoke"},
		Steps: []scenario.Step{
			{Name: "nest pull", Command: scenario.CommandPull},
		},
	}
	s.Normalize()
	return s
}

func sampleSuite(result runner.Result) runner.SuiteResult {
	s := sampleScenario("pull-with-valid-config")
	scenarioResult := runner.ScenarioResult{
		Scenario:  s,
		Result:    result,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(2 * time.Second),
		Duration:  2 * time.Second,
		StepResults: []runner.StepResult{
			{
				Step:     s.Steps[0],
				Result:   result,
				Duration: time.Second,
			},
		},
	}
	if result != runner.ResultPassed {
		scenarioResult.Error = "step nest pull: want exit 0, got exit 1"
		scenarioResult.StepResults[0].Error = scenarioResult.Error
	}

	suite := runner.SuiteResult{
		RunID:           "f3b9c2a0-0000-0000-0000-000000000000",
		Duration:        2 * time.Second,
		TotalScenarios:  1,
		ScenarioResults: []runner.ScenarioResult{scenarioResult},
		Options:         runner.Options{Parallel: 1},
	}
	if result == runner.ResultPassed {
		suite.PassedScenarios = 1
	} else {
		suite.FailedScenarios = 1
	}
	return suite
}

func driveReporter(r runner.Reporter, suite runner.SuiteResult) {
	r.ReportStart(suite.TotalScenarios, suite.Options)
	for _, scenarioResult := range suite.ScenarioResults {
		r.ReportScenarioStart(scenarioResult.Scenario)
		for _, stepResult := range scenarioResult.StepResults {
			r.ReportStepResult(stepResult)
		}
		r.ReportScenarioResult(scenarioResult)
	}
	r.ReportSuiteResult(suite)
}

func TestConsoleReporterCompact(t *testing.T) {
	var buf bytes.Buffer
	driveReporter(NewConsoleReporter(&buf, false, ""), sampleSuite(runner.ResultPassed))

	out := buf.String()
	assert.Contains(t, out, "1 scenarios")
	assert.Contains(t, out, "🎯 pull-with-valid-config...")
	assert.Contains(t, out, "✅ Passed: 1")
	assert.Contains(t, out, "Success Rate: 100.0%")
	assert.Contains(t, out, "All scenarios passed")
	assert.NotContains(t, out, "📋 Steps:", "compact mode must not print per-scenario detail")
}

func TestConsoleReporterVerbose(t *testing.T) {
	var buf bytes.Buffer
	driveReporter(NewConsoleReporter(&buf, true, ""), sampleSuite(runner.ResultFailed))

	out := buf.String()
	assert.Contains(t, out, "Starting scenario: pull-with-valid-config")
	assert.Contains(t, out, "📝 pulls the repository index")
	assert.Contains(t, out, "Tags: pull, smoke")
	assert.Contains(t, out, "❌ Step: nest pull")
	assert.Contains(t, out, "want exit 0, got exit 1")
	assert.Contains(t, out, "❌ Failed: 1")
	assert.Contains(t, out, "Some scenarios failed")
}

func TestConsoleReporterSavesReport(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	driveReporter(NewConsoleReporter(&buf, false, dir), sampleSuite(runner.ResultPassed))

	assert.Contains(t, buf.String(), "📄 Report saved to:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^nest-test-report-\d{8}-\d{6}\.json$`, entries[0].Name())
}

func TestQuietReporterStaysQuietOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	driveReporter(NewQuietReporter(&buf), sampleSuite(runner.ResultPassed))

	assert.Equal(t, "✅ All 1 scenarios passed (2s)\n", buf.String())
}

func TestQuietReporterSurfacesFailures(t *testing.T) {
	var buf bytes.Buffer
	driveReporter(NewQuietReporter(&buf), sampleSuite(runner.ResultFailed))

	out := buf.String()
	assert.Contains(t, out, "❌ pull-with-valid-config: step nest pull")
	assert.Contains(t, out, "❌ 1/1 scenarios failed")
}

func TestJSONReporterEmitsSuite(t *testing.T) {
	var buf bytes.Buffer
	driveReporter(NewJSONReporter(&buf), sampleSuite(runner.ResultPassed))

	var decoded runner.SuiteResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.TotalScenarios)
	assert.Equal(t, 1, decoded.PassedScenarios)
	assert.Len(t, decoded.ScenarioResults, 1)
}

func TestSaveReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveReport(filepath.Join(dir, "reports"), sampleSuite(runner.ResultPassed))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded runner.SuiteResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "f3b9c2a0-0000-0000-0000-000000000000", decoded.RunID)
}

func TestResultSymbols(t *testing.T) {
	assert.Equal(t, "✅", resultSymbol(runner.ResultPassed))
	assert.Equal(t, "❌", resultSymbol(runner.ResultFailed))
	assert.Equal(t, "⏭️", resultSymbol(runner.ResultSkipped))
	assert.Equal(t, "💥", resultSymbol(runner.ResultError))
	assert.Equal(t, "❓", resultSymbol(runner.Result("bogus")))
}
