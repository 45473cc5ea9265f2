// internal/server/mcp.go
package server

import (
	"context"
	"fmt"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	mcpserver "github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/ThinkInAIXYZ/go-mcp/transport"
)

var inputsSchema = map[string]interface{}{
	"type":        "object",
	"description": "Clients, meal slots and ingredients",
	"properties": map[string]interface{}{
		"clients":     map[string]string{"type": "array"},
		"meal_slots":  map[string]string{"type": "array"},
		"ingredients": map[string]string{"type": "array"},
	},
}

func toolDefinitions() []*protocol.Tool {
	return []*protocol.Tool{
		{
			Name:        "solve_plans",
			Description: "Balance every client's meals against their macro targets",
			InputSchema: protocol.InputSchema{
				Type: protocol.Object,
				Properties: map[string]interface{}{
					"inputs": inputsSchema,
					"save": map[string]string{
						"type":        "boolean",
						"description": "Whether to store the run and its lines",
					},
				},
			},
		},
		{
			Name:        "import_inputs",
			Description: "Replace the stored clients, meal slots and ingredients",
			InputSchema: protocol.InputSchema{
				Type:       protocol.Object,
				Properties: map[string]interface{}{"inputs": inputsSchema},
				Required:   []string{"inputs"},
			},
		},
		{
			Name:        "get_plan",
			Description: "Get the lines of a stored plan run",
			InputSchema: protocol.InputSchema{
				Type: protocol.Object,
				Properties: map[string]interface{}{
					"run_id": map[string]string{
						"type":        "string",
						"description": "Identifier of a stored run",
					},
				},
				Required: []string{"run_id"},
			},
		},
		{
			Name:        "list_runs",
			Description: "List the most recent stored plan runs",
			InputSchema: protocol.InputSchema{
				Type: protocol.Object,
				Properties: map[string]interface{}{
					"limit": map[string]string{
						"type":        "integer",
						"description": "Maximum number of runs to return",
					},
				},
			},
		},
		{
			Name:        "get_meal_targets",
			Description: "Get the per-meal macro target of a client's day",
			InputSchema: protocol.InputSchema{
				Type: protocol.Object,
				Properties: map[string]interface{}{
					"client": map[string]string{"type": "string", "description": "Client identifier"},
					"day":    map[string]string{"type": "string", "description": "Day label"},
					"inputs": inputsSchema,
				},
				Required: []string{"client", "day"},
			},
		},
	}
}

// newMCPServer builds an MCP server on t with every tool registered.
func (s *PlanServer) newMCPServer(t transport.ServerTransport) (*mcpserver.Server, error) {
	srv, err := mcpserver.NewServer(t, mcpserver.WithServerInfo(s.info))
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	for _, tool := range toolDefinitions() {
		handler, ok := s.tools[tool.Name]
		if !ok {
			return nil, fmt.Errorf("no handler for tool %s", tool.Name)
		}
		srv.RegisterTool(tool, mcpHandler(handler))
	}

	return srv, nil
}

// mcpHandler reports tool failures as error results so MCP clients see the
// message instead of a protocol error.
func mcpHandler(h toolHandler) mcpserver.ToolHandlerFunc {
	return func(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
		result, err := h(context.Background(), req)
		if err != nil {
			return &protocol.CallToolResult{
				Content: []protocol.Content{
					protocol.TextContent{
						Type: "text",
						Text: err.Error(),
					},
				},
				IsError: true,
			}, nil
		}
		return result, nil
	}
}
