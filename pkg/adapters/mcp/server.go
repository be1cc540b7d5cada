// Package mcp exposes funnel sessions as Model Context Protocol tools, so an agent can
// fill in a funnel on behalf of a respondent.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/presentation/graph"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/session"
)

// DefinitionsURI is the resource listing every funnel with its pages and rules.
const DefinitionsURI = "funnel://definitions"

// StartArgs are the arguments of start_session.
type StartArgs struct {
	FunnelID  string `json:"funnel_id"`
	SessionID string `json:"session_id,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`
	Version   string `json:"version,omitempty"`
}

// SessionArgs identify a stored session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// SubmitArgs are the arguments of submit_page.
type SubmitArgs struct {
	SessionID string         `json:"session_id"`
	PageID    string         `json:"page_id"`
	Answers   map[string]any `json:"answers"`
}

// GraphArgs are the arguments of get_graph.
type GraphArgs struct {
	FunnelID  string `json:"funnel_id"`
	SessionID string `json:"session_id,omitempty"`
}

// Server wraps the engine and a session manager as an MCP server.
type Server struct {
	engine      *funnel.Engine
	sessions    *session.Manager
	interceptor runner.Interceptor
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// NewServer creates a Server. Answers are checked against the declared validations.
func NewServer(engine *funnel.Engine, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:      engine,
		sessions:    sessions,
		interceptor: runner.ValidationInterceptor(answers.New()),
		logger:      logger,
		mcpServer:   server.NewMCPServer("funnel-mcp", strings.TrimSpace(funnel.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using server-sent events until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_funnels",
		mcp.WithDescription("List the ids of the available funnels."),
	), s.handleListFunnels)

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a session of a funnel, or return the session if it already exists."),
		mcp.WithString("funnel_id", mcp.Required(), mcp.Description("Funnel to start")),
		mcp.WithString("session_id", mcp.Description("Session id (generated when omitted)")),
		mcp.WithString("visitor_id", mcp.Description("Respondent id attached to analytics")),
		mcp.WithString("version", mcp.Description("Definition version: published (default) or draft")),
		mcp.WithOutputSchema[runner.Step](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Return the state of a session and the page to answer next."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[runner.Step](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("submit_page",
		mcp.WithDescription("Submit the answers of the current page. Answers map block ids to values."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page being submitted, must be the current one")),
		mcp.WithObject("answers", mcp.Required(), mcp.Description("Answers keyed by block id")),
		mcp.WithOutputSchema[runner.Step](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Return to the previously submitted page, keeping its answers."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[runner.Step](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render a funnel as a Mermaid flowchart, optionally highlighting a session's progress."),
		mcp.WithString("funnel_id", mcp.Required(), mcp.Description("Funnel to render")),
		mcp.WithString("session_id", mcp.Description("Session whose progress is highlighted")),
	), s.handleGraph)
}

func (s *Server) handleListFunnels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.engine.Loader().ListDefinitions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	raw, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (runner.Step, error) {
	if args.FunnelID == "" {
		return runner.Step{}, errors.New("funnel_id is required")
	}
	if args.SessionID == "" {
		args.SessionID = uuid.NewString()
	}

	state, created, err := s.sessions.LoadOrCreate(ctx, args.SessionID, func(ctx context.Context) (*domain.State, error) {
		t, err := s.engine.Start(ctx, args.FunnelID, funnel.StartOptions{
			SessionID: args.SessionID,
			VisitorID: args.VisitorID,
			Version:   domain.Version(args.Version),
		})
		if err != nil {
			return nil, err
		}
		return t.State(), nil
	})
	if err != nil {
		return runner.Step{}, err
	}
	if state.FunnelID != args.FunnelID {
		return runner.Step{}, fmt.Errorf("session %s belongs to funnel %s", state.SessionID, state.FunnelID)
	}
	if created {
		s.logger.Info("session started", "session_id", state.SessionID, "funnel_id", args.FunnelID, "via", "mcp")
	}
	return s.current(ctx, state)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (runner.Step, error) {
	state, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return runner.Step{}, err
	}
	return s.current(ctx, state)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args SubmitArgs) (runner.Step, error) {
	if _, err := runner.SanitizeAnswers(args.Answers); err != nil {
		s.logger.Warn("mcp submit rejected", "session_id", args.SessionID, "err", err)
		return runner.Step{}, err
	}
	return s.transition(ctx, args.SessionID, func(ctx context.Context, t *funnel.Tracker) (*runner.Step, error) {
		return runner.CheckAndSubmit(ctx, t, s.interceptor, args.PageID, args.Answers)
	})
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (runner.Step, error) {
	return s.transition(ctx, args.SessionID, func(ctx context.Context, t *funnel.Tracker) (*runner.Step, error) {
		step, _, err := runner.BackAndRender(ctx, t)
		return step, err
	})
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args GraphArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	out, err := s.graph(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) graph(ctx context.Context, args GraphArgs) (string, error) {
	if args.SessionID == "" {
		def, err := s.engine.Definition(ctx, args.FunnelID, "")
		if err != nil {
			return "", err
		}
		return graph.Mermaid(def, nil), nil
	}
	state, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return "", err
	}
	if state.FunnelID != args.FunnelID {
		return "", fmt.Errorf("session %s belongs to funnel %s", state.SessionID, state.FunnelID)
	}
	def, err := s.engine.Definition(ctx, state.FunnelID, state.Version)
	if err != nil {
		return "", err
	}
	return graph.Mermaid(def, graph.NewOverlay(def, state, runtime.NewEngine().Hidden(def, state))), nil
}

// transition runs fn on the session under its lock and saves the resulting state.
func (s *Server) transition(ctx context.Context, sessionID string, fn func(context.Context, *funnel.Tracker) (*runner.Step, error)) (runner.Step, error) {
	var step *runner.Step
	_, err := s.sessions.Update(ctx, sessionID, func(state *domain.State) (*domain.State, error) {
		t, err := s.engine.Resume(ctx, state)
		if err != nil {
			return nil, err
		}
		if step, err = fn(ctx, t); err != nil {
			return nil, err
		}
		return step.State, nil
	})
	if err != nil {
		var aggr *answers.AggregateError
		if errors.As(err, &aggr) {
			raw, _ := json.Marshal(aggr.ByBlock())
			return runner.Step{}, fmt.Errorf("answers rejected: %s", raw)
		}
		return runner.Step{}, err
	}
	return *step, nil
}

func (s *Server) current(ctx context.Context, state *domain.State) (runner.Step, error) {
	step := runner.Step{State: state, Next: state.CurrentPageID}
	if state.IsComplete() {
		step.Next = domain.Complete
		return step, nil
	}
	t, err := s.engine.Resume(ctx, state)
	if err != nil {
		return runner.Step{}, err
	}
	if step.View, err = t.View(); err != nil {
		return runner.Step{}, err
	}
	return step, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DefinitionsURI, "Funnel definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw, err := s.definitions(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DefinitionsURI,
				MIMEType: "application/json",
				Text:     string(raw),
			},
		}, nil
	})
}

// definitions returns the published definition of every funnel as a JSON array.
func (s *Server) definitions(ctx context.Context) ([]byte, error) {
	ids, err := s.engine.Loader().ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list funnels: %w", err)
	}
	defs := make([]*domain.Definition, 0, len(ids))
	for _, id := range ids {
		def, err := s.engine.Definition(ctx, id, "")
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return json.Marshal(defs)
}
