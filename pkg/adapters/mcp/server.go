package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/liveparams"
	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SnapshotURI is the resource holding the current parameter table.
const SnapshotURI = "liveparams://snapshot"

// ActionResponse aligns with the HTTP API and is returned by every action tool.
type ActionResponse struct {
	Messages []domain.Message `json:"messages" jsonschema_description:"Panel messages produced by the action, in order"`
}

// SafetyResponse reports whether writes are currently allowed.
type SafetyResponse struct {
	Busy    bool   `json:"busy" jsonschema_description:"True while the host refuses parameter writes"`
	Cause   string `json:"cause,omitempty" jsonschema_description:"transient-commit or sticky-tool"`
	Command string `json:"command" jsonschema_description:"Active host command"`
}

// Panel defines what the MCP server needs from liveparams.Panel.
type Panel interface {
	HandleMap(ctx context.Context, raw map[string]any) ([]domain.Message, error)
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	Safety(ctx context.Context) domain.SafetyState
}

// Server exposes a panel as an MCP server: one tool per panel action plus a snapshot resource.
type Server struct {
	panel     Panel
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(panel Panel, opts ...Option) *Server {
	s := &Server{
		panel:     panel,
		mcpServer: server.NewMCPServer("liveparams-mcp", strings.TrimSpace(liveparams.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	nameArg := mcp.WithString("name", mcp.Required(), mcp.Description("Parameter name"))

	s.addAction(domain.ActionRefreshData,
		mcp.WithDescription("Read the full parameter table of the active design. Allowed while the host is busy."),
	)
	s.addAction(domain.ActionUpdateParam,
		mcp.WithDescription("Replace the expression of a parameter. The unit never changes; the expression must be valid for it."),
		nameArg,
		mcp.WithString("value", mcp.Required(), mcp.Description("New expression, e.g. '12 mm' or 'Width / 2'")),
	)
	s.addAction(domain.ActionUpdateAttributes,
		mcp.WithDescription("Rename a parameter and set its comment. Dependent expressions follow the rename."),
		mcp.WithString("old_name", mcp.Required(), mcp.Description("Current name")),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New name; same as old_name to only change the comment")),
		mcp.WithString("comment", mcp.Description("Comment to store")),
	)
	s.addAction(domain.ActionToggleFavorite,
		mcp.WithDescription("Flip the favorite flag of a parameter."),
		nameArg,
	)
	s.addAction(domain.ActionCreateParam,
		mcp.WithDescription("Create a user parameter."),
		nameArg,
		mcp.WithString("unit", mcp.Required(), mcp.Description("Unit, e.g. mm, deg, or empty for unitless")),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression; bare numbers take the unit")),
		mcp.WithString("comment", mcp.Description("Comment to store")),
	)
	s.addAction(domain.ActionDeleteParam,
		mcp.WithDescription("Delete a user parameter. Refused while other parameters or features use it."),
		nameArg,
	)

	s.mcpServer.AddTool(mcp.NewTool("get_safety",
		mcp.WithDescription("Report whether the host currently accepts parameter writes."),
		mcp.WithOutputSchema[SafetyResponse](),
	), mcp.NewStructuredToolHandler(s.handleSafety))
}

func (s *Server) addAction(action domain.Action, opts ...mcp.ToolOption) {
	opts = append(opts, mcp.WithOutputSchema[ActionResponse]())
	s.mcpServer.AddTool(mcp.NewTool(string(action), opts...),
		mcp.NewStructuredToolHandler(func(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ActionResponse, error) {
			return s.handleAction(ctx, action, args)
		}),
	)
}

func (s *Server) handleAction(ctx context.Context, action domain.Action, args map[string]any) (ActionResponse, error) {
	raw := make(map[string]any, len(args)+1)
	for k, v := range args {
		raw[k] = v
	}
	raw["action"] = string(action)

	msgs, err := s.panel.HandleMap(ctx, raw)
	if err != nil {
		s.logger.Warn("MCP: Action rejected", "action", action, "err", err)
		return ActionResponse{}, fmt.Errorf("%s rejected: %w", action, err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return ActionResponse{Messages: msgs}, nil
}

func (s *Server) handleSafety(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SafetyResponse, error) {
	state := s.panel.Safety(ctx)
	return SafetyResponse{Busy: state.Busy, Cause: string(state.Cause), Command: state.Command}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SnapshotURI, "Parameter Table",
		mcp.WithResourceDescription("User parameters of the active design"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap, err := s.panel.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read parameters: %s", domain.UserMessage(err))
		}
		jsonBytes, err := json.Marshal(snap)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SnapshotURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
