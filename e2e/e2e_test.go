//go:build e2e

// Package e2e exercises the scenario corpus against real nest, finest
// and nest-server binaries. Build with -tags e2e. Binaries are resolved
// from NEST_BIN, FINEST_BIN and NEST_SERVER_BIN, then PATH; every test
// skips when one of them is missing.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doom/nest/internal/harness"
	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
)

const scenarioDir = "../scenarios"

// resolveBinaries locates the three binaries under test, skipping the
// calling test when one is not installed.
func resolveBinaries(t *testing.T) (nest, finest, server string) {
	t.Helper()

	var err error
	if nest, err = harness.FindBinary("nest", "", harness.EnvNestBin); err != nil {
		t.Skipf("Skipping: %v", err)
	}
	if finest, err = harness.FindBinary("finest", "", harness.EnvFinestBin); err != nil {
		t.Skipf("Skipping: %v", err)
	}
	if server, err = harness.FindBinary("nest-server", "", harness.EnvNestServerBin); err != nil {
		t.Skipf("Skipping: %v", err)
	}
	return nest, finest, server
}

func suiteOptions(t *testing.T) runner.Options {
	t.Helper()

	nest, finest, server := resolveBinaries(t)
	return runner.Options{
		Parallel:      1,
		NestBin:       nest,
		FinestBin:     finest,
		ServerBin:     server,
		ReadyTimeout:  30 * time.Second,
		StopGrace:     5 * time.Second,
		InvokeTimeout: 2 * time.Minute,
	}
}

// runScenarioFile loads a single scenario from the corpus and runs it,
// failing the test with the step diagnostics when it does not pass.
func runScenarioFile(t *testing.T, name string) {
	t.Helper()

	opts := suiteOptions(t)

	s, err := scenario.Load(filepath.Join(scenarioDir, name+".yaml"))
	require.NoError(t, err, "loading scenario %s", name)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	suite, err := runner.New(opts, nil).Run(ctx, []*scenario.Scenario{s})
	require.NoError(t, err)
	require.Len(t, suite.ScenarioResults, 1)

	result := suite.ScenarioResults[0]
	if result.Result != runner.ResultPassed {
		for _, step := range result.StepResults {
			if step.Error != "" {
				t.Logf("step %q: %s", step.Step.Name, step.Error)
			}
			if step.Invocation != nil {
				t.Logf("step %q: %s", step.Step.Name, step.Invocation.Status())
			}
		}
		if result.ServerLogs != nil {
			for _, line := range result.ServerLogs.Combined {
				t.Logf("server: %s", line)
			}
		}
		t.Fatalf("scenario %s finished %s: %s", name, result.Result, result.Error)
	}
}

// skipIfRoot skips tests that rely on an unreadable file being
// unreadable, which it is not for root.
func skipIfRoot(t *testing.T) {
	t.Helper()

	if os.Geteuid() == 0 {
		t.Skip("Skipping: running as root, write-only config files remain readable")
	}
}

// TestScenariosRunIsolated runs two server-backed scenarios at once and
// expects both to pass: distinct ports, workspaces and targets mean
// parallel runs must not interfere.
func TestScenariosRunIsolated(t *testing.T) {
	opts := suiteOptions(t)
	opts.Parallel = 2

	names := []string{"install-standalone-package", "install-with-dependencies"}
	scenarios := make([]*scenario.Scenario, 0, len(names))
	for _, name := range names {
		s, err := scenario.Load(filepath.Join(scenarioDir, name+".yaml"))
		require.NoError(t, err)
		scenarios = append(scenarios, s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	suite, err := runner.New(opts, nil).Run(ctx, scenarios)
	require.NoError(t, err)
	require.Equal(t, 2, suite.PassedScenarios, "parallel scenarios interfered: %+v", suite)
}
