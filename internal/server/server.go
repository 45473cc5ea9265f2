// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	mcpserver "github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/ThinkInAIXYZ/go-mcp/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mcp-nutrition-plan/internal/planner"
	"mcp-nutrition-plan/internal/storage"
)

const Version = "1.0.0"

// Transports a PlanServer can run on. HTTP serves the plain tool route and
// MCP over SSE; stdio speaks MCP on standard input and output only.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

type Config struct {
	Transport string
	Host      string
	Port      int
	DBPath    string
	Workers   int
}

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

var (
	errInvalidParams   = errors.New("invalid parameters")
	errStorageDisabled = errors.New("no database configured")
)

type PlanServer struct {
	engine     *gin.Engine
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	planner    *planner.Planner
	mcpServer  *mcpserver.Server
	tools      map[string]toolHandler
	info       protocol.Implementation
	config     *Config
}

// NewPlanServer opens the database when a path is configured and wires the
// tool routes. Without a database only the stateless tools work.
func NewPlanServer(cfg *Config) (*PlanServer, error) {
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Transport != TransportHTTP && cfg.Transport != TransportStdio {
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	planServer := &PlanServer{
		planner: planner.New(planner.WithWorkers(cfg.Workers)),
		info: protocol.Implementation{
			Name:    "nutrition-plan",
			Version: Version,
		},
		config: cfg,
	}

	if cfg.DBPath != "" {
		stor, err := storage.NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		planServer.storage = stor
	}

	planServer.registerTools()

	engine := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/", planServer.handleInfo)
	engine.POST("/", planServer.handleToolCall)
	planServer.engine = engine

	if cfg.Transport == TransportStdio {
		mcpSrv, err := planServer.newMCPServer(transport.NewStdioServerTransport())
		if err != nil {
			planServer.closeStorage()
			return nil, err
		}
		planServer.mcpServer = mcpSrv
		return planServer, nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	sseTransport, sseHandler, err := transport.NewSSEServerTransportAndHandler(fmt.Sprintf("http://%s/message", addr))
	if err != nil {
		planServer.closeStorage()
		return nil, fmt.Errorf("failed to create SSE transport: %w", err)
	}
	mcpSrv, err := planServer.newMCPServer(sseTransport)
	if err != nil {
		planServer.closeStorage()
		return nil, err
	}
	planServer.mcpServer = mcpSrv
	engine.GET("/sse", gin.WrapH(sseHandler.HandleSSE()))
	engine.POST("/message", gin.WrapH(sseHandler.HandleMessage()))

	planServer.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return planServer, nil
}

// Handler exposes the routes, mainly for tests.
func (s *PlanServer) Handler() http.Handler {
	return s.engine
}

func (s *PlanServer) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server":   s.info,
		"tools":    s.toolNames(),
		"database": s.storage != nil,
	})
}

func (s *PlanServer) handleToolCall(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Unknown tool: %s", request.Name)})
		return
	}

	result, err := handler(c.Request.Context(), &request)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrRunNotFound), errors.Is(err, planner.ErrClientNotFound):
		return http.StatusNotFound
	case errors.Is(err, errStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *PlanServer) Start(ctx context.Context) error {
	if s.config.Transport == TransportStdio {
		log.Printf("Starting nutrition plan server on stdio")
		return s.mcpServer.Run()
	}

	go func() {
		if err := s.mcpServer.Run(); err != nil {
			log.Printf("MCP transport stopped: %v", err)
		}
	}()

	log.Printf("Starting nutrition plan server on %s (MCP SSE at /sse)", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *PlanServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	// The stdio transport cannot interrupt a pending read of stdin.
	if s.mcpServer != nil && s.config.Transport != TransportStdio {
		err = s.mcpServer.Shutdown(ctx)
	}
	if s.httpServer != nil {
		err = errors.Join(err, s.httpServer.Shutdown(ctx))
	}
	s.closeStorage()
	return err
}

func (s *PlanServer) closeStorage() {
	if s.storage != nil {
		s.storage.Close()
	}
}

func (s *PlanServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
