// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes coverage-analysis tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kabir/a2a-tck/internal/extract"
	"github.com/kabir/a2a-tck/internal/models"
	"github.com/kabir/a2a-tck/internal/runservice"
)

// Server wraps the MCP server with analyzer tools.
type Server struct {
	mcp *server.MCPServer
	svc *runservice.Service
}

// New creates a new MCP server with all analyzer tools registered.
func New(svc *runservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"A2A TCK Coverage",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("coverage_report",
		mcp.WithDescription("Return the latest coverage report: per-level and per-category "+
			"coverage, test documentation percentage, change impact lists, and overall status."),
	), s.coverageReport)

	s.mcp.AddTool(mcp.NewTool("list_uncovered",
		mcp.WithDescription("List requirements of the latest spec version that no test references. "+
			"Optionally restricted to one normative level."),
		mcp.WithString("level", mcp.Description("Optional normative level filter (e.g. MUST, SHOULD, MAY)")),
	), s.listUncovered)

	s.mcp.AddTool(mcp.NewTool("spec_changes",
		mcp.WithDescription("List requirement-level changes between the baseline and latest spec versions."),
		mcp.WithString("type", mcp.Description("Optional change type filter: added, removed, modified, unchanged")),
	), s.specChanges)

	s.mcp.AddTool(mcp.NewTool("tests_for_requirement",
		mcp.WithDescription("Return the tests that reference the given requirement identifier."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Requirement identifier (e.g. 4.2-3)")),
	), s.testsForRequirement)

	s.mcp.AddTool(mcp.NewTool("run_analysis",
		mcp.WithDescription("Re-run the full analysis pipeline against the current on-disk "+
			"spec documents and manifest, and return the resulting summary."),
	), s.runAnalysis)

	// Resource: manifest format contract.
	s.mcp.AddResource(
		mcp.NewResource("a2a-tck://manifest-format", "Test-Suite Manifest Contract",
			mcp.WithResourceDescription("Canonical YAML manifest format linking tests to requirements."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) coverageReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Last()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(struct {
		Baseline models.VersionInfo    `json:"baseline"`
		Latest   models.VersionInfo    `json:"latest"`
		Summary  models.ChangeSummary  `json:"change_summary"`
		Report   models.CoverageReport `json:"report"`
		Warnings []models.Warning      `json:"warnings,omitempty"`
	}{res.Baseline, res.Latest, res.Summary, res.Report, res.Warnings}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listUncovered(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Last()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	level := ""
	if l, lerr := req.RequireString("level"); lerr == nil {
		level = l
	}

	var uncovered []models.Requirement
	for _, r := range res.Requirements {
		if r.Covered() {
			continue
		}
		if level != "" && string(r.Level) != level {
			continue
		}
		uncovered = append(uncovered, r.Requirement)
	}
	if len(uncovered) == 0 {
		return mcp.NewToolResultText("all requirements are covered"), nil
	}
	out, _ := json.MarshalIndent(uncovered, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) specChanges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Last()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typeFilter := ""
	if tf, terr := req.RequireString("type"); terr == nil {
		typeFilter = tf
	}

	var changes []models.ChangeRecord
	for _, c := range res.Changes {
		if typeFilter != "" && string(c.Type) != typeFilter {
			continue
		}
		changes = append(changes, c)
	}
	out, _ := json.MarshalIndent(changes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) testsForRequirement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, lerr := s.svc.Last()
	if lerr != nil {
		return mcp.NewToolResultError(lerr.Error()), nil
	}
	for _, r := range res.Requirements {
		if r.ID != id {
			continue
		}
		if len(r.Tests) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("no tests reference %s", id)), nil
		}
		return mcp.NewToolResultText(strings.Join(r.Tests, "\n")), nil
	}
	return mcp.NewToolResultError(fmt.Sprintf("unknown requirement: %s", id)), nil
}

func (s *Server) runAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Run(ctx)
	if err != nil {
		var perr *extract.ParseError
		if errors.As(err, &perr) {
			return mcp.NewToolResultError(perr.Error()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"analysis completed: status %s, coverage %.1f%%, %d requirements, %d changes",
		res.Report.Status, res.Report.Overall.Percent,
		len(res.Requirements), res.Summary.Total()-res.Summary.Unchanged)), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "a2a-tck://manifest-format",
			MIMEType: "text/markdown",
			Text:     ManifestFormatContract,
		},
	}, nil
}
