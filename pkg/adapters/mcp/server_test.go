package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *[]string) {
	t.Helper()
	var performed []string
	run := domain.Invoke{Run: func(ctx context.Context, n domain.ActionNode) error {
		performed = append(performed, n.ID)
		return nil
	}}

	eng := palette.New()
	require.NoError(t, eng.Register(
		domain.ActionNode{ID: "home", Name: "Home", Perform: run},
		domain.ActionNode{ID: "settings", Name: "Settings"},
		domain.ActionNode{ID: "advanced", Name: "Settings Advanced", ParentID: "settings", Perform: run},
	))
	factory := func(id string) ports.Navigator { return eng.NewSession(id) }
	return NewServer(eng, session.NewManager(memory.NewStore()), factory, "test"), &performed
}

func TestSearchActions(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleSearch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"query": "settings"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "settings", resp.Results[0].ID)
	assert.True(t, resp.Results[0].Group)
	assert.Equal(t, "Settings", resp.Results[1].Path)

	resp, err = s.handleSearch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"query": "settings", "limit": float64(1)})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestListActions(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleList(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "home", resp.Results[0].ID)

	resp, err = s.handleList(ctx, mcp.CallToolRequest{}, map[string]interface{}{"parent_id": "settings"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "advanced", resp.Results[0].ID)

	_, err = s.handleList(ctx, mcp.CallToolRequest{}, map[string]interface{}{"parent_id": "ghost"})
	assert.ErrorIs(t, err, domain.ErrActionNotFound)
}

func TestRunAction(t *testing.T) {
	s, performed := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": "advanced"})
	require.NoError(t, err)
	assert.Equal(t, "performed", resp.Outcome)
	assert.Equal(t, []string{"advanced"}, *performed)

	resp, err = s.handleRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": "settings", "session_id": "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, "opened", resp.Outcome)
	assert.Equal(t, "settings", resp.State.CurrentRootID)

	stored, err := s.sessions.Load(ctx, "agent-1")
	require.NoError(t, err)
	assert.True(t, stored.Open)

	_, err = s.handleRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": "ghost"})
	assert.ErrorIs(t, err, domain.ErrActionNotFound)
}

func TestActionsResource(t *testing.T) {
	s, _ := newTestServer(t)

	contents, err := s.readActions(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ActionsURI, text.URI)

	var nodes []domain.ActionNode
	require.NoError(t, json.Unmarshal([]byte(text.Text), &nodes))
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"advanced"}, nodes[1].ChildrenIDs)
}
