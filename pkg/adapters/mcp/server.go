// Package mcp exposes the action palette to agents as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ActionsURI is the resource holding the whole action tree.
const ActionsURI = "palette://actions"

// DefaultSessionID is used by run_action when the caller names no session.
const DefaultSessionID = "mcp"

// Engine is the part of the palette engine the MCP server reads.
type Engine interface {
	Search(query string, scope domain.Scope) ([]domain.Result, error)
	Actions() []domain.ActionNode
	Get(id string) (domain.ActionNode, bool)
}

// SearchResponse is the structured result of search_actions and list_actions.
type SearchResponse struct {
	Results []ActionView `json:"results" jsonschema_description:"Matching actions, best first"`
}

// ActionView is an action as shown to agents.
type ActionView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"path,omitempty" jsonschema_description:"Ancestor names joined by ' > '"`
	Section  string   `json:"section,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Shortcut []string `json:"shortcut,omitempty"`
	Group    bool     `json:"group" jsonschema_description:"True when the action only groups children"`
	Score    int      `json:"score,omitempty"`
}

// RunResponse is the structured result of run_action.
type RunResponse struct {
	Outcome  string                 `json:"outcome" jsonschema_description:"performed, opened or none"`
	ActionID string                 `json:"action_id"`
	Error    string                 `json:"error,omitempty" jsonschema_description:"Set when the action ran and failed"`
	State    domain.NavigationState `json:"state"`
}

// Server wraps the palette Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	sessions  *session.Manager
	factory   session.NavigatorFactory
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance. Actions run through navigators built
// by factory, so perform hooks and errors behave as in any other host.
func NewServer(engine Engine, sessions *session.Manager, factory session.NavigatorFactory, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		factory:   factory,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("palette-mcp", strings.TrimSpace(version)),
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

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
	searchTool := mcp.NewTool("search_actions",
		mcp.WithDescription("Fuzzy-search the command palette. Returns the best matching actions first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to match against action names, keywords and sections")),
		mcp.WithString("scope", mcp.Description("Restrict the search to the children of this action id (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (optional, default 20)")),
		mcp.WithOutputSchema[SearchResponse](),
	)
	s.mcpServer.AddTool(searchTool, mcp.NewStructuredToolHandler(s.handleSearch))

	listTool := mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions at the root of the palette, or the children of a group."),
		mcp.WithString("parent_id", mcp.Description("Group whose children to list (optional, root when empty)")),
		mcp.WithOutputSchema[SearchResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleList))

	runTool := mcp.NewTool("run_action",
		mcp.WithDescription("Run an action by id. Running a group opens the palette scoped to it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Action id, as returned by search_actions")),
		mcp.WithString("session_id", mcp.Description("Palette session to run in (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))
}

const defaultLimit = 20

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SearchResponse, error) {
	query, _ := args["query"].(string)
	scope, _ := args["scope"].(string)
	limit := defaultLimit
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	results, err := s.engine.Search(query, domain.Within(scope))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search failed: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}

	resp := SearchResponse{Results: make([]ActionView, len(results))}
	for i, r := range results {
		resp.Results[i] = viewOf(r)
	}
	return resp, nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SearchResponse, error) {
	parent, _ := args["parent_id"].(string)
	results, err := s.engine.Search("", domain.Within(parent))
	if err != nil {
		return SearchResponse{}, fmt.Errorf("list failed: %w", err)
	}
	resp := SearchResponse{Results: make([]ActionView, len(results))}
	for i, r := range results {
		v := viewOf(r)
		v.Score = 0
		resp.Results[i] = v
	}
	return resp, nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	id, _ := args["id"].(string)
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if _, ok := s.engine.Get(id); !ok {
		return RunResponse{}, &domain.ActionError{Op: "run", ID: id, Err: domain.ErrActionNotFound}
	}

	var resp RunResponse
	err := s.sessions.Navigate(ctx, sessionID, s.factory, func(nav ports.Navigator) error {
		out, err := nav.Perform(ctx, id)
		if err != nil {
			return err
		}
		resp = RunResponse{Outcome: out.Kind.String(), ActionID: id, State: nav.State()}
		if out.Err != nil {
			resp.Error = out.Err.Error()
		}
		return nil
	})
	if err != nil {
		return RunResponse{}, fmt.Errorf("run failed: %w", err)
	}
	s.logger.Info("MCP action run", "action_id", id, "session_id", sessionID, "outcome", resp.Outcome)
	return resp, nil
}

func viewOf(r domain.Result) ActionView {
	path := make([]string, len(r.Path))
	for i, c := range r.Path {
		path[i] = c.Name
	}
	return ActionView{
		ID:       r.Node.ID,
		Name:     r.Node.Name,
		Path:     strings.Join(path, " > "),
		Section:  r.Section,
		Subtitle: r.Node.Subtitle,
		Shortcut: r.Node.Shortcut,
		Group:    r.Node.HasChildren(),
		Score:    r.Score,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ActionsURI, "Action Tree",
		mcp.WithResourceDescription("Every registered action in display order, with parent and children ids"),
		mcp.WithMIMEType("application/json"),
	), s.readActions)
}

func (s *Server) readActions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.engine.Actions())
	if err != nil {
		return nil, fmt.Errorf("failed to encode actions: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ActionsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
