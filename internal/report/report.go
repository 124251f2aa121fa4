// Package report renders runner progress and results for humans and
// machines: a console reporter with compact and verbose modes, a quiet
// reporter for CI logs, a JSON reporter, and persisted JSON report
// files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
)

// resultSymbol returns the marker used for a result class.
func resultSymbol(result runner.Result) string {
	switch result {
	case runner.ResultPassed:
		return "✅"
	case runner.ResultFailed:
		return "❌"
	case runner.ResultSkipped:
		return "⏭️"
	case runner.ResultError:
		return "💥"
	default:
		return "❓"
	}
}

// ConsoleReporter prints progress as scenarios execute.
type ConsoleReporter struct {
	out        io.Writer
	verbose    bool
	reportPath string
}

// NewConsoleReporter creates a console reporter. With reportPath set,
// the final suite result is additionally saved as a JSON file in that
// directory.
func NewConsoleReporter(out io.Writer, verbose bool, reportPath string) *ConsoleReporter {
	return &ConsoleReporter{
		out:        out,
		verbose:    verbose,
		reportPath: reportPath,
	}
}

func (r *ConsoleReporter) ReportStart(total int, opts runner.Options) {
	fmt.Fprintf(r.out, "🧪 Starting nest end-to-end suite (%d scenarios)\n", total)

	if r.verbose {
		fmt.Fprintf(r.out, "⚙️  Options:\n")
		fmt.Fprintf(r.out, "   • Parallel workers: %d\n", opts.Parallel)
		fmt.Fprintf(r.out, "   • Fail fast: %t\n", opts.FailFast)
		fmt.Fprintf(r.out, "   • Base port: %d\n", opts.BasePort)
		fmt.Fprintf(r.out, "   • Ready timeout: %v\n", opts.ReadyTimeout)
		fmt.Fprintf(r.out, "   • Invoke timeout: %v\n", opts.InvokeTimeout)
		fmt.Fprintf(r.out, "   • Sudo: %t\n", opts.Sudo)
		fmt.Fprintf(r.out, "\n")
	}
}

func (r *ConsoleReporter) ReportScenarioStart(s *scenario.Scenario) {
	if !r.verbose {
		fmt.Fprintf(r.out, "🎯 %s... ", s.Name)
		return
	}

	fmt.Fprintf(r.out, "🎯 Starting scenario: %s\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(r.out, "   📝 %s\n", s.Description)
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(r.out, "   🏷️  Tags: %s\n", strings.Join(s.Tags, ", "))
	}
	fmt.Fprintf(r.out, "   📋 Steps: %d\n", len(s.Steps))
}

func (r *ConsoleReporter) ReportStepResult(stepResult runner.StepResult) {
	if !r.verbose {
		return
	}

	fmt.Fprintf(r.out, "   %s Step: %s (%v)\n",
		resultSymbol(stepResult.Result), stepResult.Step.Name, stepResult.Duration)
	if stepResult.Invocation != nil && stepResult.Result == runner.ResultPassed {
		fmt.Fprintf(r.out, "      ↳ %s\n", stepResult.Invocation.Status())
	}
	if stepResult.Error != "" {
		fmt.Fprintf(r.out, "     ❌ Error: %s\n", stepResult.Error)
	}
}

func (r *ConsoleReporter) ReportScenarioResult(result runner.ScenarioResult) {
	symbol := resultSymbol(result.Result)

	if !r.verbose {
		fmt.Fprintf(r.out, "%s (%v)\n", symbol, result.Duration)
		return
	}

	fmt.Fprintf(r.out, "%s Scenario completed: %s (%v)\n",
		symbol, result.Scenario.Name, result.Duration)

	if result.Error != "" {
		fmt.Fprintf(r.out, "   ❌ Error: %s\n", result.Error)
	}

	passed, failed, errors := 0, 0, 0
	for _, stepResult := range result.StepResults {
		switch stepResult.Result {
		case runner.ResultPassed:
			passed++
		case runner.ResultFailed:
			failed++
		case runner.ResultError:
			errors++
		}
	}
	fmt.Fprintf(r.out, "   📊 Steps: %d passed", passed)
	if failed > 0 {
		fmt.Fprintf(r.out, ", %d failed", failed)
	}
	if errors > 0 {
		fmt.Fprintf(r.out, ", %d errors", errors)
	}
	fmt.Fprintf(r.out, "\n")

	if result.ServerLogs != nil && len(result.ServerLogs.Combined) > 0 {
		fmt.Fprintf(r.out, "   🧾 Server output:\n")
		lines := result.ServerLogs.Combined
		if len(lines) > 10 {
			lines = lines[len(lines)-10:]
		}
		for _, line := range lines {
			fmt.Fprintf(r.out, "      %s\n", line)
		}
	}
	fmt.Fprintf(r.out, "\n")
}

func (r *ConsoleReporter) ReportSuiteResult(suite runner.SuiteResult) {
	fmt.Fprintf(r.out, "\n🏁 Suite Complete\n")
	fmt.Fprintf(r.out, "⏱️  Duration: %v\n", suite.Duration)
	fmt.Fprintf(r.out, "📊 Results:\n")
	fmt.Fprintf(r.out, "   ✅ Passed: %d\n", suite.PassedScenarios)
	if suite.FailedScenarios > 0 {
		fmt.Fprintf(r.out, "   ❌ Failed: %d\n", suite.FailedScenarios)
	}
	if suite.ErrorScenarios > 0 {
		fmt.Fprintf(r.out, "   💥 Errors: %d\n", suite.ErrorScenarios)
	}
	if suite.SkippedScenarios > 0 {
		fmt.Fprintf(r.out, "   ⏭️  Skipped: %d\n", suite.SkippedScenarios)
	}
	fmt.Fprintf(r.out, "   📈 Total: %d\n", suite.TotalScenarios)

	successRate := 0.0
	if suite.TotalScenarios > 0 {
		successRate = float64(suite.PassedScenarios) / float64(suite.TotalScenarios) * 100
	}
	fmt.Fprintf(r.out, "   📏 Success Rate: %.1f%%\n", successRate)

	if suite.Success() {
		fmt.Fprintf(r.out, "\n🎉 All scenarios passed!\n")
	} else {
		fmt.Fprintf(r.out, "\n💔 Some scenarios failed\n")
	}

	if r.reportPath != "" {
		path, err := SaveReport(r.reportPath, suite)
		if err != nil {
			fmt.Fprintf(r.out, "⚠️  Failed to save report: %v\n", err)
		} else {
			fmt.Fprintf(r.out, "📄 Report saved to: %s\n", path)
		}
	}
}

// SaveReport writes the suite result as indented JSON into dir under a
// timestamped name and returns the file path.
func SaveReport(dir string, suite runner.SuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	filename := fmt.Sprintf("nest-test-report-%s.json", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
