// Package mcp exposes the UI and the reload entry point as Model Context
// Protocol tools over stdio or token-guarded SSE, so an editor or agent
// supervising the process can trigger reloads.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/reload"
	"github.com/aretw0/remoteui/pkg/ui"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Route labels render events caused by MCP tools.
const Route = "mcp"

// ResourceURI addresses the current component tree.
const ResourceURI = "remoteui://ui"

// Engine renders and mutates the UI. *http.Server from the http adapter
// implements it.
type Engine interface {
	Render(ctx context.Context, route string) (*ui.Node, error)
	Apply(ctx context.Context, route string, act domain.Action) (*ui.Node, error)
}

// Server wraps an Engine and a Reloader as an MCP server.
type Server struct {
	engine    Engine
	reloader  ports.Reloader
	mcpServer *server.MCPServer
	logger    *slog.Logger
	token     string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithToken sets the bearer token the SSE transport requires on every
// request. Stdio ignores it.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, reloader ports.Reloader, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		reloader:  reloader,
		mcpServer: server.NewMCPServer("remoteui-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout until the input closes or the process
// is signalled.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Listen serves JSON-RPC over in and out until ctx is done or in closes.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(&logWriter{logger: s.logger}, "", 0))
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// logWriter forwards stdlib log output to slog.
type logWriter struct {
	logger *slog.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.logger.Warn(strings.TrimSpace(string(p)), "component", "mcp-stdio")
	return len(p), nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("render_ui",
		mcp.WithDescription("Render the current state and return the component tree as JSON."),
	), s.handleRender)

	s.mcpServer.AddTool(mcp.NewTool("dispatch_action",
		mcp.WithDescription("Apply an action (increment, decrement, set_message, ...) and return the resulting component tree."),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithString("value", mcp.Description("Argument for actions that take one, such as set_message")),
	), s.handleDispatch)

	s.mcpServer.AddTool(mcp.NewTool("reload",
		mcp.WithDescription("Reload the rendering code. State and listeners are untouched. Returns OK or the failure message."),
	), s.handleReload)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ResourceURI, "Current component tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		node, err := s.engine.Render(ctx, Route)
		if err != nil {
			s.logger.Warn("MCP: serving degraded tree", "err", err)
		}
		data, err := json.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tree: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func (s *Server) handleRender(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := s.engine.Render(ctx, Route)
	return treeResult(node, err)
}

func (s *Server) handleDispatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := mcp.ParseString(req, "action", "")
	if name == "" {
		return mcp.NewToolResultError("action is required"), nil
	}
	act := domain.Action{Name: name, Args: map[string]any{}}
	if _, ok := req.GetArguments()["value"]; ok {
		act.Args["value"] = mcp.ParseString(req, "value", "")
	}

	node, err := s.engine.Apply(ctx, Route, act)
	return treeResult(node, err)
}

func (s *Server) handleReload(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.reloader.Reload(reload.WithTrigger(ctx, "mcp"))
	if result != reload.ResultOK {
		return mcp.NewToolResultError(result), nil
	}
	return mcp.NewToolResultText(result), nil
}

// treeResult encodes node. Degraded trees are returned as tool errors that
// still carry the tree.
func treeResult(node *ui.Node, renderErr error) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	if renderErr != nil {
		res := mcp.NewToolResultText(string(data))
		res.IsError = true
		return res, nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
