// Package mcpserver exposes the harness as MCP tools over stdio, so an agent
// can list the available steps, run feature files and read the last report.
package mcpserver

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/internal/suite"
	"github.com/axs221/qutebrowser/pkg/logging"
)

const subsystem = "mcp"

// Runner runs the suite for cfg, writing godog output to out.
type Runner func(ctx context.Context, cfg config.HarnessConfig, out io.Writer) (suite.SuiteResult, error)

// DefaultRunner builds and runs a real suite.
func DefaultRunner(ctx context.Context, cfg config.HarnessConfig, out io.Writer) (suite.SuiteResult, error) {
	s, err := suite.NewBuilder(cfg).
		WithOutput(out).
		WithReporter(suite.NewQuietReporter(out)).
		Build()
	if err != nil {
		return suite.SuiteResult{}, err
	}
	s.Options().DefaultContext = ctx
	_, res := s.Run()
	return res, nil
}

// Server serves the harness tools.
type Server struct {
	cfg    config.HarnessConfig
	run    Runner
	server *server.MCPServer

	// runMu serializes suite runs; there is one browser and one mock port.
	runMu sync.Mutex
}

// New creates a Server. A nil run uses DefaultRunner.
func New(cfg config.HarnessConfig, version string, run Runner) *Server {
	if run == nil {
		run = DefaultRunner
	}
	s := &Server{
		cfg: cfg,
		run: run,
		server: server.NewMCPServer(
			"qutebdd",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool("list_steps",
			mcp.WithDescription("List the step definitions available to feature files"),
		),
		s.handleListSteps,
	)
	s.server.AddTool(
		mcp.NewTool("run_features",
			mcp.WithDescription("Run feature files against the browser and return the report with godog output"),
			mcp.WithString("paths",
				mcp.Description("Comma separated feature files or directories; defaults to the configured paths"),
			),
			mcp.WithString("tags",
				mcp.Description("Tag expression selecting scenarios, e.g. \"@smoke && ~@flaky\""),
			),
		),
		s.handleRunFeatures,
	)
	s.server.AddTool(
		mcp.NewTool("last_report",
			mcp.WithDescription("Return the most recent JSON report from the report directory"),
		),
		s.handleLastReport,
	)
}

// Serve speaks MCP on in/out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.server)
	stdio.SetErrorLogger(log.New(logWriter{}, "", 0))

	logging.Info(subsystem, "Serving MCP on stdio")
	return stdio.Listen(ctx, in, out)
}

// logWriter forwards the stdio server's error log to the harness logger.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	logging.Warn(subsystem, "%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
