package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doom/nest/internal/depgraph"
	"github.com/doom/nest/internal/harness"
	"github.com/doom/nest/internal/scenario"
	"github.com/doom/nest/pkg/logging"
)

// Runner executes scenarios, one isolated fixture set per scenario.
type Runner struct {
	opts     Options
	reporter Reporter
}

// New creates a runner. A nil reporter is replaced with a no-op one.
func New(opts Options, reporter Reporter) *Runner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Runner{opts: opts, reporter: reporter}
}

// Run executes the given scenarios according to the runner's options and
// returns the aggregated suite result.
func (r *Runner) Run(ctx context.Context, scenarios []*scenario.Scenario) (*SuiteResult, error) {
	suite := &SuiteResult{
		RunID:           uuid.NewString(),
		StartTime:       time.Now(),
		TotalScenarios:  len(scenarios),
		ScenarioResults: make([]ScenarioResult, 0, len(scenarios)),
		Options:         r.opts,
	}

	r.reporter.ReportStart(len(scenarios), r.opts)

	if len(scenarios) == 0 {
		suite.EndTime = time.Now()
		suite.Duration = suite.EndTime.Sub(suite.StartTime)
		r.reporter.ReportSuiteResult(*suite)
		return suite, nil
	}

	if r.opts.Parallel <= 1 {
		r.runSequential(ctx, scenarios, suite)
	} else {
		for _, result := range r.runParallel(ctx, scenarios) {
			r.updateCounters(suite, result)
			suite.ScenarioResults = append(suite.ScenarioResults, result)
			r.reporter.ReportScenarioResult(result)
		}
	}

	suite.EndTime = time.Now()
	suite.Duration = suite.EndTime.Sub(suite.StartTime)

	r.reporter.ReportSuiteResult(*suite)
	return suite, nil
}

func (r *Runner) runSequential(ctx context.Context, scenarios []*scenario.Scenario, suite *SuiteResult) {
	for i, s := range scenarios {
		result := r.runScenario(ctx, s)
		r.updateCounters(suite, result)
		suite.ScenarioResults = append(suite.ScenarioResults, result)
		r.reporter.ReportScenarioResult(result)

		if r.opts.FailFast && (result.Result == ResultFailed || result.Result == ResultError) {
			for _, skipped := range scenarios[i+1:] {
				skippedResult := skipResult(skipped)
				r.updateCounters(suite, skippedResult)
				suite.ScenarioResults = append(suite.ScenarioResults, skippedResult)
				r.reporter.ReportScenarioResult(skippedResult)
			}
			return
		}
	}
}

// runParallel executes scenarios with a worker pool. Each worker runs
// scenarios against its own fixtures, so workers never share a server,
// config or target root.
func (r *Runner) runParallel(ctx context.Context, scenarios []*scenario.Scenario) []ScenarioResult {
	scenarioChan := make(chan *scenario.Scenario, len(scenarios))
	resultChan := make(chan ScenarioResult, len(scenarios))

	for _, s := range scenarios {
		scenarioChan <- s
	}
	close(scenarioChan)

	numWorkers := r.opts.Parallel
	if numWorkers > len(scenarios) {
		numWorkers = len(scenarios)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for s := range scenarioChan {
				logging.Debug("runner", "Worker %d executing scenario %s", workerID, s.Name)
				result := r.runScenario(ctx, s)
				resultChan <- result

				if r.opts.FailFast && (result.Result == ResultFailed || result.Result == ResultError) {
					// Drain so no worker picks up further work.
					for skipped := range scenarioChan {
						resultChan <- skipResult(skipped)
					}
					return
				}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []ScenarioResult
	for result := range resultChan {
		results = append(results, result)
	}
	return results
}

func (r *Runner) updateCounters(suite *SuiteResult, result ScenarioResult) {
	switch result.Result {
	case ResultPassed:
		suite.PassedScenarios++
	case ResultFailed:
		suite.FailedScenarios++
	case ResultSkipped:
		suite.SkippedScenarios++
	case ResultError:
		suite.ErrorScenarios++
	}
}

func skipResult(s *scenario.Scenario) ScenarioResult {
	now := time.Now()
	return ScenarioResult{
		Scenario:  s,
		Result:    ResultSkipped,
		StartTime: now,
		EndTime:   now,
	}
}

// runScenario brings up the scenario's fixtures, runs its steps and
// tears everything down again. Teardown runs in reverse acquisition
// order through defers, so it happens on every exit path, and teardown
// failures are folded into the result without masking an earlier one.
func (r *Runner) runScenario(ctx context.Context, s *scenario.Scenario) (result ScenarioResult) {
	result = ScenarioResult{
		Scenario:    s,
		Result:      ResultPassed,
		StartTime:   time.Now(),
		StepResults: make([]StepResult, 0, len(s.Steps)),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	r.reporter.ReportScenarioStart(s)

	scenarioCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		scenarioCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	workDir, err := os.MkdirTemp("", fmt.Sprintf("nest-scenario-%s-*", sanitizeName(s.Name)))
	if err != nil {
		return failResult(&result, ResultError, fmt.Errorf("creating scenario workspace: %w", err))
	}
	defer func() {
		if r.opts.KeepWorkspaces {
			logging.Info("runner", "Keeping scenario workspace %s", workDir)
			return
		}
		if err := os.RemoveAll(workDir); err != nil {
			recordTeardown(&result, fmt.Errorf("removing scenario workspace: %w", err))
		}
	}()

	var srv *harness.Server
	if s.NeedsServer() {
		packages, err := s.BuildPackages()
		if err != nil {
			return failResult(&result, ResultError, err)
		}
		srv, err = harness.StartServer(scenarioCtx, harness.ServerOptions{
			Binary:        r.opts.ServerBin,
			BasePort:      r.opts.BasePort,
			ReadyTimeout:  r.opts.ReadyTimeout,
			StopGrace:     r.opts.StopGrace,
			Packages:      packages,
			KeepWorkspace: r.opts.KeepWorkspaces,
		})
		if err != nil {
			return failResult(&result, ResultError, err)
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				recordTeardown(&result, err)
			}
		}()

		if err := srv.WaitReady(scenarioCtx); err != nil {
			return failResult(&result, ResultError, err)
		}
	}

	cfg, configPath, err := r.generateConfig(workDir, s, srv)
	if err != nil {
		return failResult(&result, ResultError, err)
	}
	if cfg != nil {
		defer func() {
			if err := cfg.Remove(); err != nil {
				recordTeardown(&result, err)
			}
		}()
	}

	var chrootDir string
	if s.NeedsChroot() {
		chrootDir = filepath.Join(workDir, "chroot")
		if err := os.MkdirAll(chrootDir, 0o755); err != nil {
			return failResult(&result, ResultError, fmt.Errorf("creating target root: %w", err))
		}
	}

	for _, step := range s.Steps {
		stepResult := r.runStep(scenarioCtx, s, step, configPath, chrootDir)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if stepResult.Result != ResultPassed {
			result.Result = stepResult.Result
			result.Error = stepResult.Error
			if srv != nil {
				logs := srv.Logs()
				result.ServerLogs = &logs
			}
			break
		}
	}

	return result
}

// generateConfig materializes the scenario's configuration preset and
// returns the artifact (nil for the missing preset) plus the path to
// pass as --config.
func (r *Runner) generateConfig(dir string, s *scenario.Scenario, srv *harness.Server) (*harness.Config, string, error) {
	contents := harness.ClientConfig{}
	if srv != nil {
		contents = harness.ConfigForServer(srv)
	}

	switch s.Config.Preset {
	case scenario.PresetValid:
		cfg, err := harness.WriteConfig(dir, contents)
		if err != nil {
			return nil, "", err
		}
		return cfg, cfg.Path(), nil
	case scenario.PresetMissing:
		return nil, harness.MissingConfigPath(dir), nil
	case scenario.PresetUnreadable:
		cfg, err := harness.WriteUnreadableConfig(dir, contents)
		if err != nil {
			return nil, "", err
		}
		return cfg, cfg.Path(), nil
	case scenario.PresetInvalid:
		cfg, err := harness.WriteInvalidConfig(dir)
		if err != nil {
			return nil, "", err
		}
		return cfg, cfg.Path(), nil
	default:
		return nil, "", &harness.SetupError{Err: fmt.Errorf("unknown config preset %q", s.Config.Preset)}
	}
}

func (r *Runner) runStep(ctx context.Context, s *scenario.Scenario, step scenario.Step, configPath, chrootDir string) (result StepResult) {
	result = StepResult{
		Step:      step,
		Result:    ResultPassed,
		StartTime: time.Now(),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	bin, err := r.resolveBinary(step.Bin)
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return result
	}

	answer := step.Answer
	if answer == "" {
		answer = harness.AnswerYes
	}
	timeout := step.Timeout
	if timeout == 0 {
		timeout = r.opts.InvokeTimeout
	}

	cliOpts := []harness.Option{
		harness.WithConfig(configPath),
		harness.WithAnswer(answer),
		harness.WithSudo(r.opts.Sudo),
		harness.WithTimeout(timeout),
	}
	if chrootDir != "" {
		cliOpts = append(cliOpts, harness.WithChroot(chrootDir))
	}
	cli := harness.NewCLI(bin, cliOpts...)

	var invocation *harness.Result
	switch step.Command {
	case scenario.CommandPull:
		invocation, err = cli.Pull(ctx)
	case scenario.CommandInstall:
		invocation, err = cli.Install(ctx, step.Packages...)
	case scenario.CommandUninstall:
		invocation, err = cli.Uninstall(ctx, step.Packages...)
	case scenario.CommandHelp:
		invocation, err = cli.Help(ctx)
	default:
		err = fmt.Errorf("unknown command %q", step.Command)
	}
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return result
	}
	result.Invocation = invocation

	if diag := invocation.Diagnose(step.Expect.Exit); diag != "" {
		result.Result = ResultFailed
		result.Error = diag
		return result
	}

	if step.Expect.HasGraphAssertions() {
		mismatch, err := checkGraph(s, step.Expect, chrootDir)
		if err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			return result
		}
		if mismatch != "" {
			result.Result = ResultFailed
			result.Error = mismatch
			return result
		}
	}

	return result
}

func (r *Runner) resolveBinary(bin string) (string, error) {
	switch bin {
	case scenario.BinFinest:
		return harness.FindBinary("finest", r.opts.FinestBin, harness.EnvFinestBin)
	default:
		return harness.FindBinary("nest", r.opts.NestBin, harness.EnvNestBin)
	}
}

// checkGraph verifies a step's dependency graph expectations against the
// target root. A mismatch is a failure of the binary under test; not
// being able to read the graph at all is a harness error.
func checkGraph(s *scenario.Scenario, expect scenario.Expectation, chrootDir string) (string, error) {
	graph, err := depgraph.LoadFromRoot(chrootDir)
	if err != nil {
		return "", err
	}

	for _, ref := range expect.Installed {
		full, err := s.ResolveName(ref)
		if err != nil {
			return "", err
		}
		if !graph.Contains(full) {
			return fmt.Sprintf("expected %s installed, graph has %v", full, graph.InstalledPackages()), nil
		}
	}
	for _, ref := range expect.NotInstalled {
		full, err := s.ResolveName(ref)
		if err != nil {
			return "", err
		}
		if graph.Contains(full) {
			return fmt.Sprintf("expected %s not installed, but the graph contains it", full), nil
		}
	}
	for _, ref := range expect.Versions {
		full, err := s.ResolveName(ref)
		if err != nil {
			return "", err
		}
		if !graph.ContainsVersion(full) {
			return fmt.Sprintf("expected %s installed, graph has %v", full, graph.InstalledVersions()), nil
		}
	}
	return "", nil
}

func failResult(result *ScenarioResult, kind Result, err error) ScenarioResult {
	result.Result = kind
	result.Error = err.Error()
	return *result
}

func recordTeardown(result *ScenarioResult, err error) {
	logging.Error("runner", err, "Teardown failure in scenario %s", result.Scenario.Name)
	if result.Result == ResultPassed {
		result.Result = ResultError
	}
	if result.Error != "" {
		result.Error += "; " + err.Error()
	} else {
		result.Error = err.Error()
	}
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
