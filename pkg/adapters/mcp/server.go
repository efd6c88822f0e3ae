// Package mcp exposes the engine over the Model Context Protocol, so AI
// agents can start pipeline runs, follow the log by offset, and trigger
// maintenance actions through tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/schema"
)

// TaskResponse acknowledges an accepted run or action request.
type TaskResponse struct {
	ID     string           `json:"id" jsonschema_description:"Identifier of the accepted task"`
	Status domain.RunStatus `json:"status" jsonschema_description:"Engine status right after acceptance"`
}

// StatusResponse reports the engine status line and provides a unified
// structure across adapters.
type StatusResponse struct {
	Status  domain.RunStatus `json:"status" jsonschema_description:"Current run status"`
	Message string           `json:"message" jsonschema_description:"Human-readable status message"`
	Busy    bool             `json:"busy" jsonschema_description:"True while a run or action is active"`
}

// PollResponse carries the log delta for a polled offset.
type PollResponse struct {
	Content   string           `json:"content" jsonschema_description:"Log text appended since the polled offset"`
	NewOffset int              `json:"new_offset" jsonschema_description:"Offset to pass on the next poll"`
	Status    domain.RunStatus `json:"status" jsonschema_description:"Current run status"`
}

// Engine defines the interface required by the MCP server to interact with
// the run controller.
type Engine interface {
	RequestRun(params map[string]any) (string, error)
	RequestAction(name string) (string, error)
	RequestTerminate()
	Poll(offset int) domain.PollResponse
	Status() (domain.RunStatus, string)
	Busy() bool
	History(ctx context.Context) ([]domain.HistoryRecord, error)
}

// Server wraps the Capsid engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("capsid-mcp", strings.TrimSpace(capsid.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: start_run
	runTool := mcp.NewTool("start_run",
		mcp.WithDescription("Start a pipeline run in the background. Fails if a run or action is already active."),
		mcp.WithString("params", mcp.Description("JSON object of run parameters, e.g. {\"short_r1\": \"reads_R1.fastq.gz\"} (optional)")),
		mcp.WithOutputSchema[TaskResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleStartRun))

	// TOOL: poll_logs
	pollTool := mcp.NewTool("poll_logs",
		mcp.WithDescription("Fetch log text appended since the given offset. Omit the offset (or pass 0) for the whole log."),
		mcp.WithString("offset", mcp.Description("Offset returned by the previous poll (optional, defaults to 0)")),
		mcp.WithOutputSchema[PollResponse](),
	)
	s.mcpServer.AddTool(pollTool, mcp.NewStructuredToolHandler(s.handlePollLogs))

	// TOOL: run_action
	actionTool := mcp.NewTool("run_action",
		mcp.WithDescription("Run a maintenance action, e.g. install_pharokka_db. Fails if a run or action is already active."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Action name")),
		mcp.WithOutputSchema[TaskResponse](),
	)
	s.mcpServer.AddTool(actionTool, mcp.NewStructuredToolHandler(s.handleRunAction))

	// TOOL: terminate_run
	terminateTool := mcp.NewTool("terminate_run",
		mcp.WithDescription("Request termination of the active run. Safe to call when nothing is running."),
		mcp.WithOutputSchema[StatusResponse](),
	)
	s.mcpServer.AddTool(terminateTool, mcp.NewStructuredToolHandler(s.handleTerminate))

	// TOOL: get_status
	statusTool := mcp.NewTool("get_status",
		mcp.WithDescription("Get the current engine status, message and busy flag."),
		mcp.WithOutputSchema[StatusResponse](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	// TOOL: get_history
	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List persisted run and action records, newest first."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		records, err := s.engine.History(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(records)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleStartRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TaskResponse, error) {
	params := map[string]any{}
	if paramsStr, ok := args["params"].(string); ok && paramsStr != "" {
		if err := json.Unmarshal([]byte(paramsStr), &params); err != nil {
			return TaskResponse{}, fmt.Errorf("invalid params JSON: %w", err)
		}
	}

	id, err := s.engine.RequestRun(params)
	if err != nil {
		return TaskResponse{}, fmt.Errorf("run rejected: %w", err)
	}
	return TaskResponse{ID: id, Status: domain.StatusRunning}, nil
}

func (s *Server) handlePollLogs(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PollResponse, error) {
	offset := 0
	if offsetStr, ok := args["offset"].(string); ok && offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil || n < 0 {
			return PollResponse{}, fmt.Errorf("invalid offset: %q", offsetStr)
		}
		offset = n
	}

	resp := s.engine.Poll(offset)
	return PollResponse{Content: resp.Content, NewOffset: resp.NewOffset, Status: resp.Status}, nil
}

func (s *Server) handleRunAction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TaskResponse, error) {
	name, _ := args["name"].(string)

	id, err := s.engine.RequestAction(name)
	if err != nil {
		return TaskResponse{}, fmt.Errorf("action rejected: %w", err)
	}
	return TaskResponse{ID: id, Status: domain.StatusRunning}, nil
}

func (s *Server) handleTerminate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	s.engine.RequestTerminate()

	status, message := s.engine.Status()
	return StatusResponse{Status: status, Message: message, Busy: s.engine.Busy()}, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	status, message := s.engine.Status()
	return StatusResponse{Status: status, Message: message, Busy: s.engine.Busy()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: capsid://schema
	s.mcpServer.AddResource(mcp.NewResource("capsid://schema", "Pipeline Parameter Schema",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload := struct {
			Parameters []schema.Parameter `json:"parameters"`
			Actions    []string           `json:"actions"`
		}{Parameters: pipeline.Definitions(), Actions: pipeline.Actions()}

		jsonBytes, _ := json.Marshal(payload)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "capsid://schema",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
