package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/logging"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/pipeline"
)

type fakeService struct {
	requests []model.RunRequest
	cached   map[string]*model.CacheEntry
}

func (f *fakeService) Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error) {
	f.requests = append(f.requests, req)
	if req.Topic == "" {
		return nil, &pipeline.ConfigurationError{Kind: pipeline.ErrConfiguration, Msg: "topic is required"}
	}
	if req.Topic == "Broken app" {
		return nil, errors.New("model quota exceeded")
	}
	return &model.RunResult{
		RunID: "run-1",
		Topic: req.Topic,
		Report: model.Report{Sections: []model.Section{
			{StageID: "research", Label: "Competitive Research Analyst", Content: "Todoist"},
			{StageID: "analysis", Label: "Business Analyst", Content: "table below"},
		}},
		Records:    []model.ExtractedRecord{{"name": "Todoist", "url": "https://todoist.com"}},
		HasRecords: true,
		Notes:      []string{`"analysis" was auto-included because "strategist" depends on it`},
	}, nil
}

func (f *fakeService) Capabilities() []model.Capability { return pipeline.BuiltinCapabilities() }

func (f *fakeService) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	return f.cached[topic], nil
}

func connectInMemory(t *testing.T, ctx context.Context, srv *Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	_, err := srv.MCPServer.Connect(ctx, t1, nil)
	require.NoError(t, err)
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s returned an error: %v", name, res.Content)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			require.NoError(t, json.Unmarshal([]byte(tc.Text), out))
			return
		}
	}
	t.Fatalf("no text content in %s result", name)
}

func callToolExpectError(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err.Error()
	}
	require.True(t, res.IsError, "expected %s to fail", name)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestResearchTool(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{}
	session := connectInMemory(t, ctx, NewServer(svc, "test", logging.Discard()))

	var out reportOutput
	callTool(t, ctx, session, "research", map[string]any{"topic": "Task app", "capabilities": []string{"strategist"}}, &out)

	assert.Equal(t, "run-1", out.RunID)
	assert.True(t, out.HasRecords)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Todoist", out.Records[0]["name"])
	assert.Len(t, out.Sections, 2)
	assert.Contains(t, out.Markdown, "## 👤 Business Analyst")
	assert.Len(t, out.Notes, 1)
	assert.Empty(t, out.Warnings)

	require.Len(t, svc.requests, 1)
	assert.Equal(t, []string{"strategist"}, svc.requests[0].Capabilities)
	assert.False(t, svc.requests[0].ForceRefresh)

	msg := callToolExpectError(t, ctx, session, "research", map[string]any{"topic": "Broken app"})
	assert.Contains(t, msg, "model quota exceeded")
}

func TestLookupHistoryTool(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{cached: map[string]*model.CacheEntry{
		"Prose app": {
			Topic:  "Prose app",
			RunID:  "run-0",
			Report: model.Report{Sections: []model.Section{{StageID: "research", Label: "Researcher", Content: "prose"}}},
		},
	}}
	session := connectInMemory(t, ctx, NewServer(svc, "test", logging.Discard()))

	var out lookupHistoryOutput
	callTool(t, ctx, session, "lookup_history", map[string]any{"topic": "Prose app"}, &out)
	require.True(t, out.Found)
	assert.True(t, out.Report.FromCache)
	assert.False(t, out.Report.HasRecords)
	assert.Empty(t, out.Report.Records)

	out = lookupHistoryOutput{}
	callTool(t, ctx, session, "lookup_history", map[string]any{"topic": "prose app"}, &out)
	assert.False(t, out.Found)
	assert.Nil(t, out.Report)
	assert.Empty(t, svc.requests)
}

func TestListCapabilitiesTool(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, NewServer(&fakeService{}, "test", logging.Discard()))

	var out listCapabilitiesOutput
	callTool(t, ctx, session, "list_capabilities", map[string]any{}, &out)
	require.Len(t, out.Capabilities, 7)
	assert.Equal(t, "research", out.Capabilities[0].ID)
	assert.True(t, out.Capabilities[0].Mandatory)
	assert.Equal(t, []string{"product_manager"}, out.Capabilities[6].DependsOn)
}
