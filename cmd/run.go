package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doom/nest/internal/config"
	"github.com/doom/nest/internal/mcptools"
	"github.com/doom/nest/internal/report"
	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
	"github.com/doom/nest/internal/tui"
	"github.com/doom/nest/pkg/logging"
)

var (
	runScenarios      []string
	runTags           []string
	runScenarioPath   string
	runParallel       int
	runFailFast       bool
	runQuiet          bool
	runJSON           bool
	runVerbose        bool
	runDebug          bool
	runTUI            bool
	runMCPServer      bool
	runReportPath     string
	runNestBin        string
	runFinestBin      string
	runServerBin      string
	runBasePort       int
	runTimeout        time.Duration
	runInvokeTimeout  time.Duration
	runSudo           bool
	runKeepWorkspaces bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run end-to-end scenarios against the nest binaries",
	Long: `Run end-to-end scenarios against the nest binaries.

Each scenario starts from a clean fixture: a scratch workspace, an
ephemeral repository server when the scenario needs one, and a client
configuration generated against that server's actual address. Steps
invoke nest or finest as subprocesses and assert on exit codes and
installed state. Teardown runs in reverse setup order on every path,
including failures, timeouts and interrupts.

Scenarios are YAML files, loaded from the scenarios directory by
default. Use --scenario and --tag to run a subset, --parallel to run
several at once (isolation is per scenario, so parallel runs do not
interfere), and --tui for a live dashboard instead of line output.

With --mcp-server the command serves the scenario tooling over the
Model Context Protocol on stdio instead of executing anything, which
lets AI assistants list, validate and run scenarios on demand.`,
	Example: `  # Run every scenario, four at a time
  nest-test run --parallel 4

  # Only the pull scenarios, with the live dashboard
  nest-test run --tag pull --tui

  # One scenario, verbose, against locally built binaries
  nest-test run --scenario install-with-dependencies --verbose \
    --nest-bin ./target/release/nest --server-bin ./target/release/nest-server

  # Machine-readable output for CI
  nest-test run --json --report-path ./reports`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if runParallel < 1 || runParallel > 10 {
			return fmt.Errorf("parallel workers must be between 1 and 10, got %d", runParallel)
		}
		return nil
	},
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSliceVarP(&runScenarios, "scenario", "s", nil, "Run only the named scenarios (repeatable)")
	runCmd.Flags().StringSliceVarP(&runTags, "tag", "t", nil, "Run only scenarios carrying one of these tags (repeatable)")
	runCmd.Flags().StringVar(&runScenarioPath, "scenario-path", "", "Scenario file or directory (default \"scenarios\")")
	runCmd.Flags().IntVarP(&runParallel, "parallel", "p", 1, "Number of scenarios executed concurrently (1-10)")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop scheduling new scenarios after the first failure")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Only print failures and the final summary")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Emit the suite result as JSON on stdout")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Show per-step output")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show a live dashboard while the suite runs")
	runCmd.Flags().BoolVar(&runMCPServer, "mcp-server", false, "Serve scenario tools over MCP on stdio instead of running")
	runCmd.Flags().StringVar(&runReportPath, "report-path", "", "Directory to write a JSON report into")
	runCmd.Flags().StringVar(&runNestBin, "nest-bin", "", "Path to the nest binary (default $NEST_BIN, then PATH)")
	runCmd.Flags().StringVar(&runFinestBin, "finest-bin", "", "Path to the finest binary (default $FINEST_BIN, then PATH)")
	runCmd.Flags().StringVar(&runServerBin, "server-bin", "", "Path to the nest-server binary (default $NEST_SERVER_BIN, then PATH)")
	runCmd.Flags().IntVar(&runBasePort, "base-port", 0, "First port probed for repository servers")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "Overall suite timeout")
	runCmd.Flags().DurationVar(&runInvokeTimeout, "invoke-timeout", 0, "Per-invocation timeout override")
	runCmd.Flags().BoolVar(&runSudo, "sudo", false, "Invoke the binaries under sudo -E")
	runCmd.Flags().BoolVar(&runKeepWorkspaces, "keep-workspaces", false, "Keep scenario workspaces on disk for inspection")

	runCmd.MarkFlagsMutuallyExclusive("tui", "json")
	runCmd.MarkFlagsMutuallyExclusive("tui", "quiet")
	runCmd.MarkFlagsMutuallyExclusive("json", "quiet")
	runCmd.MarkFlagsMutuallyExclusive("mcp-server", "tui")
	runCmd.MarkFlagsMutuallyExclusive("mcp-server", "scenario")
	runCmd.MarkFlagsMutuallyExclusive("mcp-server", "tag")

	_ = runCmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	opts := optionsFromConfig(cfg)
	applyRunFlagOverrides(cmd, &opts)

	scenarioPath := resolveScenarioPath(runScenarioPath, cfg)
	reportPath := runReportPath
	if reportPath == "" {
		reportPath = cfg.Scenarios.ReportPath
	}

	if runMCPServer {
		logging.InitForCLI(cliLogLevel(), os.Stderr)
		return mcptools.NewServer(rootCmd.Version, scenarioPath, opts).Serve()
	}

	scenarios, err := scenario.LoadPath(scenarioPath)
	if err != nil {
		return err
	}
	scenarios = scenario.Filter(scenarios, runScenarios, runTags)
	if len(scenarios) == 0 {
		fmt.Printf("⚠️  No scenarios matched in %s\n", scenarioPath)
		return nil
	}
	if problems := scenario.ValidateSet(scenarios); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  - %v\n", p)
		}
		return fmt.Errorf("%d scenario validation problems", len(problems))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		if !runTUI {
			fmt.Println("\n🛑 Received interrupt, stopping after teardown...")
		}
		cancel()
	}()

	if runTUI {
		return runWithDashboard(ctx, cancel, scenarios, opts, reportPath)
	}

	logging.InitForCLI(cliLogLevel(), os.Stderr)

	var reporter runner.Reporter
	switch {
	case runJSON:
		reporter = report.NewJSONReporter(os.Stdout)
	case runQuiet:
		reporter = report.NewQuietReporter(os.Stdout)
	default:
		reporter = report.NewConsoleReporter(os.Stdout, runVerbose, reportPath)
	}

	suite, err := runner.New(opts, reporter).Run(ctx, scenarios)
	if err != nil {
		return fmt.Errorf("running scenarios: %w", err)
	}
	if !suite.Success() {
		os.Exit(1)
	}
	return nil
}

// runWithDashboard executes the suite behind the bubbletea dashboard.
// The runner works in a goroutine and reports into the program; the
// dashboard owns the terminal until the user quits.
func runWithDashboard(ctx context.Context, cancel context.CancelFunc, scenarios []*scenario.Scenario, opts runner.Options, reportPath string) error {
	level := logging.LevelInfo
	if runDebug {
		level = logging.LevelDebug
	}
	logCh := logging.InitForTUI(level)

	p, reporter := tui.NewProgram(len(scenarios), logCh, cancel)

	var suite *runner.SuiteResult
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		suite, runErr = runner.New(opts, reporter).Run(ctx, scenarios)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		logging.CloseTUIChannel()
		return fmt.Errorf("running dashboard: %w", err)
	}
	cancel()
	<-done
	logging.CloseTUIChannel()

	if runErr != nil {
		return fmt.Errorf("running scenarios: %w", runErr)
	}
	if suite == nil {
		return nil
	}
	fmt.Printf("🏁 %d scenarios: %d passed, %d failed, %d errors, %d skipped (%v)\n",
		suite.TotalScenarios, suite.PassedScenarios, suite.FailedScenarios,
		suite.ErrorScenarios, suite.SkippedScenarios, suite.Duration.Round(time.Millisecond))
	if reportPath != "" {
		if path, err := report.SaveReport(reportPath, *suite); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to save report: %v\n", err)
		} else {
			fmt.Printf("📄 Report saved to %s\n", path)
		}
	}
	if !suite.Success() {
		os.Exit(1)
	}
	return nil
}

// optionsFromConfig maps the layered file and environment configuration
// onto runner options.
func optionsFromConfig(cfg config.Config) runner.Options {
	return runner.Options{
		Parallel:       1,
		NestBin:        cfg.Binaries.Nest,
		FinestBin:      cfg.Binaries.Finest,
		ServerBin:      cfg.Binaries.NestServer,
		BasePort:       cfg.Server.BasePort,
		ReadyTimeout:   cfg.Server.ReadyTimeout,
		StopGrace:      cfg.Server.StopGrace,
		InvokeTimeout:  cfg.Invoke.Timeout,
		Sudo:           cfg.Invoke.Sudo,
		KeepWorkspaces: cfg.Server.KeepWorkspaces,
	}
}

// applyRunFlagOverrides layers explicitly set flags on top of the
// configuration. Only flags the user changed win over the config file.
func applyRunFlagOverrides(cmd *cobra.Command, opts *runner.Options) {
	opts.Parallel = runParallel
	if cmd.Flags().Changed("fail-fast") {
		opts.FailFast = runFailFast
	}
	if cmd.Flags().Changed("nest-bin") {
		opts.NestBin = runNestBin
	}
	if cmd.Flags().Changed("finest-bin") {
		opts.FinestBin = runFinestBin
	}
	if cmd.Flags().Changed("server-bin") {
		opts.ServerBin = runServerBin
	}
	if cmd.Flags().Changed("base-port") {
		opts.BasePort = runBasePort
	}
	if cmd.Flags().Changed("invoke-timeout") {
		opts.InvokeTimeout = runInvokeTimeout
	}
	if cmd.Flags().Changed("sudo") {
		opts.Sudo = runSudo
	}
	if cmd.Flags().Changed("keep-workspaces") {
		opts.KeepWorkspaces = runKeepWorkspaces
	}
}

// resolveScenarioPath picks the scenario location: flag, then config
// file, then the default directory.
func resolveScenarioPath(flagValue string, cfg config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Scenarios.Path != "" {
		return cfg.Scenarios.Path
	}
	return scenario.DefaultDir
}

func cliLogLevel() logging.LogLevel {
	switch {
	case runDebug:
		return logging.LevelDebug
	case runVerbose:
		return logging.LevelInfo
	default:
		return logging.LevelWarn
	}
}

// completeScenarioFlag offers scenario names for shell completion.
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	scenarios, err := scenario.LoadPath(resolveScenarioPath(runScenarioPath, cfg))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
