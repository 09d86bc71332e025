// Package mcp exposes the research service as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"go-research-pipeline/internal/model"
)

// Service is the subset of the research backend the tools call.
type Service interface {
	Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error)
	Capabilities() []model.Capability
	Lookup(ctx context.Context, topic string) (*model.CacheEntry, error)
}

// Server wraps the MCP SDK server with the research tools registered.
type Server struct {
	MCPServer *sdkmcp.Server
	svc       Service
	log       *slog.Logger
}

func NewServer(svc Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "research-pipeline", Version: version}, nil),
		svc:       svc,
		log:       logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting research MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name: "research",
		Description: "Run the market-research agent pipeline for a product idea. Returns the report, " +
			"the competitor comparison table when one was found, notes and warnings. Cached topics return immediately unless force_refresh is set.",
	}, s.handleResearch)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "lookup_history",
		Description: "Return the cached report for a topic (exact match) without running anything.",
	}, s.handleLookupHistory)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_capabilities",
		Description: "List the agent roles that can be enabled, with their dependencies.",
	}, s.handleListCapabilities)
}

// --- Tool input/output types ---

type researchInput struct {
	Topic        string   `json:"topic" jsonschema:"product idea to research"`
	Capabilities []string `json:"capabilities,omitempty" jsonschema:"optional capability ids; omit for the defaults, pass [] for the mandatory roles only"`
	ForceRefresh bool     `json:"force_refresh,omitempty" jsonschema:"ignore any cached result and run again"`
}

type sectionOutput struct {
	StageID string `json:"stage_id"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

type reportOutput struct {
	Topic      string           `json:"topic"`
	RunID      string           `json:"run_id"`
	FromCache  bool             `json:"from_cache"`
	Markdown   string           `json:"markdown"`
	Sections   []sectionOutput  `json:"sections"`
	HasRecords bool             `json:"has_records"`
	Records    []map[string]any `json:"records"`
	Notes      []string         `json:"notes"`
	Warnings   []string         `json:"warnings"`
}

type lookupHistoryInput struct {
	Topic string `json:"topic" jsonschema:"topic exactly as it was researched"`
}

type lookupHistoryOutput struct {
	Found  bool          `json:"found"`
	Report *reportOutput `json:"report,omitempty"`
}

type listCapabilitiesInput struct{}

type capabilityOutput struct {
	ID               string   `json:"id"`
	Label            string   `json:"label"`
	Goal             string   `json:"goal"`
	DependsOn        []string `json:"depends_on"`
	Mandatory        bool     `json:"mandatory"`
	EnabledByDefault bool     `json:"enabled_by_default"`
}

type listCapabilitiesOutput struct {
	Capabilities []capabilityOutput `json:"capabilities"`
}

// --- Tool handlers ---

func (s *Server) handleResearch(ctx context.Context, _ *sdkmcp.CallToolRequest, input researchInput) (*sdkmcp.CallToolResult, reportOutput, error) {
	res, err := s.svc.Run(ctx, model.RunRequest{
		Topic:        input.Topic,
		Capabilities: input.Capabilities,
		ForceRefresh: input.ForceRefresh,
	})
	if err != nil {
		s.log.Warn("research tool failed", "topic", input.Topic, "error", err)
		return nil, reportOutput{}, fmt.Errorf("research %q: %w", input.Topic, err)
	}
	out := newReportOutput(res.Topic, res.RunID, res.Report, res.Records, res.HasRecords)
	out.FromCache = res.FromCache
	out.Notes = append(out.Notes, res.Notes...)
	out.Warnings = append(out.Warnings, res.Warnings...)
	return nil, out, nil
}

func (s *Server) handleLookupHistory(ctx context.Context, _ *sdkmcp.CallToolRequest, input lookupHistoryInput) (*sdkmcp.CallToolResult, lookupHistoryOutput, error) {
	entry, err := s.svc.Lookup(ctx, input.Topic)
	if err != nil {
		return nil, lookupHistoryOutput{}, err
	}
	if entry == nil {
		return nil, lookupHistoryOutput{Found: false}, nil
	}
	out := newReportOutput(entry.Topic, entry.RunID, entry.Report, entry.Records, entry.HasRecords)
	out.FromCache = true
	return nil, lookupHistoryOutput{Found: true, Report: &out}, nil
}

func (s *Server) handleListCapabilities(_ context.Context, _ *sdkmcp.CallToolRequest, _ listCapabilitiesInput) (*sdkmcp.CallToolResult, listCapabilitiesOutput, error) {
	caps := s.svc.Capabilities()
	out := listCapabilitiesOutput{Capabilities: make([]capabilityOutput, 0, len(caps))}
	for _, c := range caps {
		deps := append([]string{}, c.DependsOn...)
		out.Capabilities = append(out.Capabilities, capabilityOutput{
			ID:               c.ID,
			Label:            c.Label,
			Goal:             c.Goal,
			DependsOn:        deps,
			Mandatory:        c.Mandatory,
			EnabledByDefault: c.EnabledByDefault,
		})
	}
	return nil, out, nil
}

// slices are never nil so the structured output always matches its schema
func newReportOutput(topic, runID string, report model.Report, records []model.ExtractedRecord, has bool) reportOutput {
	out := reportOutput{
		Topic:      topic,
		RunID:      runID,
		Markdown:   report.Markdown(),
		Sections:   make([]sectionOutput, 0, len(report.Sections)),
		HasRecords: has,
		Records:    make([]map[string]any, 0, len(records)),
		Notes:      []string{},
		Warnings:   []string{},
	}
	for _, sec := range report.Sections {
		out.Sections = append(out.Sections, sectionOutput{StageID: sec.StageID, Label: sec.Label, Content: sec.Content})
	}
	for _, r := range records {
		out.Records = append(out.Records, map[string]any(r))
	}
	return out
}
