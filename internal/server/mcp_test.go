package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mcpSession drives a PlanServer's MCP server over in-memory pipes.
type mcpSession struct {
	t      *testing.T
	in     io.Writer
	out    *bufio.Scanner
	nextID int
}

func newMCPSession(t *testing.T, srv *PlanServer) *mcpSession {
	t.Helper()
	inReader, inWriter := io.Pipe()
	outReader, outWriter := io.Pipe()

	mcpSrv, err := srv.newMCPServer(transport.NewMockServerTransport(inReader, outWriter))
	require.NoError(t, err)

	go func() {
		if err := mcpSrv.Run(); err != nil {
			t.Errorf("mcp server run: %v", err)
		}
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mcpSrv.Shutdown(ctx)
		outWriter.Close()
	})

	out := bufio.NewScanner(outReader)
	out.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sess := &mcpSession{t: t, in: inWriter, out: out}

	var init protocol.InitializeResult
	require.Nil(t, sess.request(protocol.Initialize, protocol.InitializeRequest{ProtocolVersion: protocol.Version}, &init))
	assert.Equal(t, "nutrition-plan", init.ServerInfo.Name)
	sess.write(protocol.NewJSONRPCNotification(protocol.NotificationInitialized, nil))

	return sess
}

func (m *mcpSession) write(msg interface{}) {
	m.t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(m.t, err)
	_, err = m.in.Write(append(data, '\n'))
	require.NoError(m.t, err)
}

// request sends one JSON-RPC request and decodes its result into out. The
// JSON-RPC error, if any, is returned.
func (m *mcpSession) request(method protocol.Method, params, out interface{}) map[string]interface{} {
	m.t.Helper()
	m.nextID++
	m.write(protocol.NewJSONRPCRequest(m.nextID, method, params))

	require.True(m.t, m.out.Scan(), "no response to %s", method)
	var resp struct {
		ID     int                    `json:"id"`
		Result json.RawMessage        `json:"result"`
		Error  map[string]interface{} `json:"error"`
	}
	require.NoError(m.t, json.Unmarshal(m.out.Bytes(), &resp))
	require.Equal(m.t, m.nextID, resp.ID)
	if resp.Error == nil && out != nil {
		require.NoError(m.t, json.Unmarshal(resp.Result, out))
	}
	return resp.Error
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func (m *mcpSession) callTool(name string, args map[string]interface{}) toolResult {
	m.t.Helper()
	var result toolResult
	rpcErr := m.request(protocol.ToolsCall, protocol.CallToolRequest{Name: name, Arguments: args}, &result)
	require.Nil(m.t, rpcErr)
	require.Len(m.t, result.Content, 1)
	assert.Equal(m.t, "text", result.Content[0].Type)
	return result
}

func TestMCPListTools(t *testing.T) {
	sess := newMCPSession(t, newTestServer(t, false))

	var list struct {
		Tools []protocol.Tool `json:"tools"`
	}
	require.Nil(t, sess.request(protocol.ToolsList, protocol.ListToolsRequest{}, &list))

	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_meal_targets", "get_plan", "import_inputs", "list_runs", "solve_plans"}, names)
}

func TestMCPSolvePlans(t *testing.T) {
	sess := newMCPSession(t, newTestServer(t, false))

	result := sess.callTool("solve_plans", map[string]interface{}{"inputs": inputsArg(t, testInputs())})
	require.False(t, result.IsError, result.Content[0].Text)

	var resp PlanResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &resp))
	assert.Equal(t, 7, resp.Summary.Lines)
	assert.Equal(t, 3, resp.Summary.Meals)
	assert.Equal(t, 1, resp.Summary.UnsolvedMeals)
	require.NotNil(t, resp.Lines[0].QuantityFinal)
	assert.Equal(t, 3.0, *resp.Lines[0].QuantityFinal)
	assert.Nil(t, resp.Lines[6].QuantityFinal)
}

func TestMCPToolErrorsAreResults(t *testing.T) {
	sess := newMCPSession(t, newTestServer(t, false))

	result := sess.callTool("get_plan", map[string]interface{}{"run_id": "r1"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "no database configured")

	result = sess.callTool("get_meal_targets", map[string]interface{}{"client": "c1"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "client and day are required")

	rpcErr := sess.request(protocol.ToolsCall, protocol.CallToolRequest{Name: "log_meal"}, nil)
	require.NotNil(t, rpcErr)
	assert.Contains(t, rpcErr["message"], "log_meal")
}

func TestMCPStoredWorkflow(t *testing.T) {
	sess := newMCPSession(t, newTestServer(t, true))

	result := sess.callTool("import_inputs", map[string]interface{}{"inputs": inputsArg(t, testInputs())})
	require.False(t, result.IsError, result.Content[0].Text)

	result = sess.callTool("solve_plans", map[string]interface{}{"save": true})
	require.False(t, result.IsError, result.Content[0].Text)
	var solved PlanResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &solved))
	require.NotEmpty(t, solved.RunID)

	result = sess.callTool("get_plan", map[string]interface{}{"run_id": solved.RunID})
	require.False(t, result.IsError, result.Content[0].Text)
	var stored PlanResponse
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &stored))
	assert.Equal(t, solved.Lines, stored.Lines)
}

func TestNewPlanServerTransports(t *testing.T) {
	srv := newTestServer(t, false)
	assert.Equal(t, TransportHTTP, srv.config.Transport)
	assert.NotNil(t, srv.mcpServer)
	assert.NotNil(t, srv.httpServer)

	_, err := NewPlanServer(&Config{Transport: "websocket", Port: 8012})
	assert.Error(t, err)
}
