package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/mcpserver"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/session"
)

func newTestServer(t *testing.T) (*mcpserver.Server, *progress.Ledger) {
	t.Helper()
	cat, err := cases.Default()
	require.NoError(t, err)
	ledger, err := progress.NewLedger(context.Background(), nil)
	require.NoError(t, err)
	eng := session.NewEngine(cat, session.NewStore(), nil, session.DefaultConfig(), session.WithLedger(ledger))
	return mcpserver.NewServer(eng, "test"), ledger
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	_, err := srv.MCPServer.Connect(ctx, t1, nil)
	require.NoError(t, err)
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, ctx context.Context, cs *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool(%s)", name)
	require.False(t, res.IsError, "CallTool(%s) returned error: %s", name, textOf(res))
	out := make(map[string]any)
	require.NoError(t, json.Unmarshal([]byte(textOf(res)), &out))
	return out
}

func callToolExpectError(t *testing.T, ctx context.Context, cs *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err.Error()
	}
	require.True(t, res.IsError, "expected %s to fail", name)
	return textOf(res)
}

func textOf(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListTools(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	cs := connectInMemory(t, ctx, srv)

	res, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_cases", "start_session", "chat", "hint",
		"reveal_objective", "summary", "get_progress", "reset_progress",
	}, names)
}

func TestListCasesFilter(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	cs := connectInMemory(t, ctx, srv)

	all := callTool(t, ctx, cs, "list_cases", map[string]any{})
	assert.Len(t, all["cases"], 25)

	cardio := callTool(t, ctx, cs, "list_cases", map[string]any{"specialty": "cardiology"})
	list := cardio["cases"].([]any)
	assert.Len(t, list, 5)
	for _, c := range list {
		assert.Equal(t, "cardiology", c.(map[string]any)["specialty"])
	}
}

func TestConsultOverMCP(t *testing.T) {
	ctx := context.Background()
	srv, ledger := newTestServer(t)
	cs := connectInMemory(t, ctx, srv)

	start := callTool(t, ctx, cs, "start_session", map[string]any{"case_id": "neuro_5_stroke"})
	id, _ := start["session_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Meena Reddy", start["patient_name"])
	assert.EqualValues(t, 2, start["max_stage"])

	c1 := callTool(t, ctx, cs, "chat", map[string]any{"session_id": id, "message": "My impression is acute ischemic stroke"})
	assert.Equal(t, session.PathNudge, c1["path"])
	assert.Equal(t, true, c1["diagnosis_correct"])

	hint := callTool(t, ctx, cs, "hint", map[string]any{"session_id": id})
	assert.EqualValues(t, 1, hint["hint_index"])

	c2 := callTool(t, ctx, cs, "chat", map[string]any{"session_id": id, "message": "Start thrombolysis and aspirin"})
	assert.Equal(t, true, c2["done"])
	assert.Equal(t, session.PathFastClose, c2["path"])

	msg := callToolExpectError(t, ctx, cs, "chat", map[string]any{"session_id": id, "message": "hello"})
	assert.Contains(t, msg, "already_terminal")

	sum := callTool(t, ctx, cs, "summary", map[string]any{"session_id": id})
	assert.EqualValues(t, 2, sum["stars"])
	assert.Equal(t, true, sum["new_best"])
	assert.Equal(t, 2, ledger.Best(progress.Key{Specialty: "neurology", Level: 5}))

	prog := callTool(t, ctx, cs, "get_progress", map[string]any{})
	assert.EqualValues(t, 2, prog["total_stars"])
	assert.Equal(t, "Intern", prog["rank"])

	reset := callTool(t, ctx, cs, "reset_progress", map[string]any{})
	assert.EqualValues(t, 0, reset["total_stars"])
	assert.Zero(t, ledger.Total())
}

func TestStartSessionByFilter(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	cs := connectInMemory(t, ctx, srv)

	start := callTool(t, ctx, cs, "start_session", map[string]any{"specialty": "cardiology", "level": 3})
	assert.Equal(t, "cardio_3_heart_failure", start["case_id"])

	msg := callToolExpectError(t, ctx, cs, "start_session", map[string]any{"difficulty": "brutal"})
	assert.Contains(t, msg, "unknown difficulty")

	msg = callToolExpectError(t, ctx, cs, "start_session", map[string]any{"specialty": "dermatology"})
	assert.NotEmpty(t, msg)
}

func TestRevealObjectiveTool(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	cs := connectInMemory(t, ctx, srv)

	start := callTool(t, ctx, cs, "start_session", map[string]any{"case_id": "gi_1_dyspepsia"})
	id := start["session_id"].(string)

	msg := callToolExpectError(t, ctx, cs, "reveal_objective", map[string]any{"session_id": id, "objective_id": "bogus id"})
	assert.Contains(t, msg, "invalid_input")

	first := callTool(t, ctx, cs, "reveal_objective", map[string]any{"session_id": id})
	assert.Contains(t, first["message"], "revealed ")
	assert.EqualValues(t, 1, first["reveals_used"])

	for i := 0; i < 10; i++ {
		out := callTool(t, ctx, cs, "reveal_objective", map[string]any{"session_id": id})
		if out["message"] == "no hidden objectives left" {
			return
		}
	}
	t.Fatal("hidden objectives never ran out")
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	cs := connectInMemory(t, ctx, srv)

	for _, name := range []string{"hint", "summary", "reveal_objective"} {
		msg := callToolExpectError(t, ctx, cs, name, map[string]any{"session_id": "missing"})
		assert.Contains(t, msg, "not_found", name)
	}
}
