package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/axs221/qutebrowser/internal/steps"
	"github.com/axs221/qutebrowser/internal/suite"
)

// runOutput is the result of the run_features tool.
type runOutput struct {
	Report suite.SuiteResult `json:"report"`
	Output string            `json:"output"`
}

func (s *Server) handleListSteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(steps.Definitions(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format steps: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (s *Server) handleRunFeatures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	cfg := s.cfg
	if paths, ok := args["paths"].(string); ok && strings.TrimSpace(paths) != "" {
		cfg.Features.Paths = splitPaths(paths)
	}
	if tags, ok := args["tags"].(string); ok {
		cfg.Features.Tags = tags
	}
	// Output goes into the result, not a terminal.
	cfg.Features.NoColors = true

	s.runMu.Lock()
	defer s.runMu.Unlock()

	var out bytes.Buffer
	res, err := s.run(ctx, cfg, &out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run features: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(runOutput{Report: res, Output: out.String()}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (s *Server) handleLastReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := s.cfg.Report.Path
	if dir == "" {
		return mcp.NewToolResultError("No report directory configured (report.path)"), nil
	}

	path, err := suite.LatestReport(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
