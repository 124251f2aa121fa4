// Package mcptools exposes the test suite over the Model Context Protocol,
// so agents can list, validate and run scenarios through tool calls instead
// of shelling out to the CLI.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/internal/scenario"
	"github.com/doom/nest/pkg/logging"
)

// maxParallel mirrors the CLI's upper bound on concurrent scenarios.
const maxParallel = 10

// Server hosts the nest-test MCP server.
type Server struct {
	scenarioPath string
	opts         runner.Options
	mcpServer    *server.MCPServer
}

// NewServer creates a configured MCP server. scenarioPath and opts are the
// defaults used when a tool call does not override them.
func NewServer(version, scenarioPath string, opts runner.Options) *Server {
	s := &Server{
		scenarioPath: scenarioPath,
		opts:         opts,
	}

	mcpServer := server.NewMCPServer(
		"nest-test",
		version,
		server.WithToolCapabilities(true),
	)
	mcpServer.AddTool(listScenariosTool(), s.handleListScenarios)
	mcpServer.AddTool(validateScenariosTool(), s.handleValidateScenarios)
	mcpServer.AddTool(runScenariosTool(), s.handleRunScenarios)

	s.mcpServer = mcpServer
	return s
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects.
func (s *Server) Serve() error {
	logging.Info("mcp", "Serving nest-test tools on stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	return nil
}

func listScenariosTool() mcp.Tool {
	return mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the available end-to-end scenarios with their tags and steps"),
		mcp.WithString("scenario_path",
			mcp.Description("Directory or file to load scenarios from (defaults to the configured path)"),
		),
	)
}

func validateScenariosTool() mcp.Tool {
	return mcp.NewTool("validate_scenarios",
		mcp.WithDescription("Validate scenario definitions without running them"),
		mcp.WithString("scenario_path",
			mcp.Description("Directory or file to load scenarios from (defaults to the configured path)"),
		),
	)
}

func runScenariosTool() mcp.Tool {
	return mcp.NewTool("run_scenarios",
		mcp.WithDescription("Run end-to-end scenarios against the nest binaries and return the suite result. "+
			"Each scenario gets its own repository server, generated client config and chroot."),
		mcp.WithString("scenario",
			mcp.Description("Run only the scenario with this exact name"),
		),
		mcp.WithString("tag",
			mcp.Description("Run only scenarios carrying this tag"),
		),
		mcp.WithString("scenario_path",
			mcp.Description("Directory or file to load scenarios from (defaults to the configured path)"),
		),
		mcp.WithNumber("parallel",
			mcp.Description("Number of scenarios to run concurrently (1-10)"),
		),
		mcp.WithBoolean("fail_fast",
			mcp.Description("Stop after the first failed scenario"),
		),
	)
}

// scenarioSummary is the list_scenarios line format.
type scenarioSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Steps       int      `json:"steps"`
	SourceFile  string   `json:"source_file,omitempty"`
}

func (s *Server) handleListScenarios(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarios, err := s.load(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summaries := make([]scenarioSummary, 0, len(scenarios))
	for _, sc := range scenarios {
		summaries = append(summaries, scenarioSummary{
			Name:        sc.Name,
			Description: sc.Description,
			Tags:        sc.Tags,
			Steps:       len(sc.Steps),
			SourceFile:  sc.SourceFile,
		})
	}

	result := map[string]interface{}{
		"scenarios": summaries,
		"total":     len(summaries),
	}
	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleValidateScenarios(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarios, err := s.load(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	problems := scenario.ValidateSet(scenarios)
	if len(problems) > 0 {
		return mcp.NewToolResultError(formatProblems(problems)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("All %d scenarios are valid", len(scenarios))), nil
}

func (s *Server) handleRunScenarios(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarios, err := s.load(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var names, tags []string
	if name := req.GetString("scenario", ""); name != "" {
		names = append(names, name)
	}
	if tag := req.GetString("tag", ""); tag != "" {
		tags = append(tags, tag)
	}
	scenarios = scenario.Filter(scenarios, names, tags)
	if len(scenarios) == 0 {
		return mcp.NewToolResultError("no scenarios matched the given selectors"), nil
	}

	if problems := scenario.ValidateSet(scenarios); len(problems) > 0 {
		return mcp.NewToolResultError(formatProblems(problems)), nil
	}

	opts := s.opts
	opts.Parallel = req.GetInt("parallel", opts.Parallel)
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if opts.Parallel > maxParallel {
		opts.Parallel = maxParallel
	}
	opts.FailFast = req.GetBool("fail_fast", opts.FailFast)

	logging.Info("mcp", "Running %d scenarios (parallel=%d)", len(scenarios), opts.Parallel)
	suite, err := runner.New(opts, nil).Run(ctx, scenarios)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("running scenarios: %v", err)), nil
	}

	resultJSON, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshaling result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// load resolves the scenario path from the request, falling back to the
// server's configured default.
func (s *Server) load(req mcp.CallToolRequest) ([]*scenario.Scenario, error) {
	path := req.GetString("scenario_path", s.scenarioPath)
	if path == "" {
		path = scenario.DefaultDir
	}
	return scenario.LoadPath(path)
}

func formatProblems(problems []error) string {
	lines := make([]string, 0, len(problems)+1)
	lines = append(lines, fmt.Sprintf("%d validation problems:", len(problems)))
	for _, problem := range problems {
		lines = append(lines, "  - "+problem.Error())
	}
	return strings.Join(lines, "\n")
}
