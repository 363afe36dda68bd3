// ABOUTME: Server orchestrator wiring auth, catalog, dispatch, and setup together.
// ABOUTME: Exposes the MCP endpoint, the connect portal, and health checks over HTTP.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389/connect-gateway/internal/auth"
	"github.com/2389/connect-gateway/internal/catalog"
	"github.com/2389/connect-gateway/internal/classify"
	"github.com/2389/connect-gateway/internal/config"
	"github.com/2389/connect-gateway/internal/dispatch"
	"github.com/2389/connect-gateway/internal/registry"
	"github.com/2389/connect-gateway/internal/setup"
)

// Version is stamped into the MCP server info. Overridden at build time.
var Version = "dev"

// Server orchestrates the connect-gateway components. It owns the tool
// catalog, the dispatcher, and the HTTP server carrying the MCP endpoint.
type Server struct {
	config     *config.Config
	credential *auth.Service
	catalog    *catalog.Catalog
	dispatcher *dispatch.Dispatcher
	linker     *setup.Linker
	httpServer *http.Server
	logger     *slog.Logger
}

// New assembles a Server from configuration. The tool catalog is built once
// at startup using a deployment credential signed for the configured catalog
// user.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	key, err := auth.ResolveSigningKey(cfg.Signing)
	if err != nil {
		return nil, fmt.Errorf("resolving signing key: %w", err)
	}
	credentials := auth.NewService(key)

	registryClient := registry.New(cfg.Upstream, cfg.Project.ID, logger.With("component", "registry"))

	catalogCredential, err := credentials.Sign(auth.Claims{UserID: cfg.Catalog.UserID})
	if err != nil {
		return nil, fmt.Errorf("signing catalog credential: %w", err)
	}
	source := registry.NewCatalogSource(registryClient, catalogCredential)

	cat, err := catalog.NewBuilder(source, cfg.Catalog, logger.With("component", "catalog")).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building tool catalog: %w", err)
	}
	logger.Info("tool catalog ready", "tools", cat.Len())

	dispatcher := dispatch.New(cat, registryClient, cfg.Upstream, cfg.Project.ID, logger.With("component", "dispatch"))

	tokens := setup.NewTokenStore()
	linker := setup.NewLinker(credentials, tokens, cfg.Server.BaseURL, cfg.Project.ID)
	setupHandler := setup.NewHandler(credentials, tokens, cfg.Upstream.ConnectWidgetURL, logger.With("component", "setup"))

	s := &Server{
		config:     cfg,
		credential: credentials,
		catalog:    cat,
		dispatcher: dispatcher,
		linker:     linker,
		logger:     logger.With("component", "server"),
	}

	authn := auth.NewAuthenticator(credentials, cfg.Auth.DevMode)
	if cfg.Auth.DevMode {
		logger.Warn("dev mode enabled - unauthenticated requests may mint credentials via ?user=")
	}

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.newMCPServer()
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", authn.Middleware(mcpHandler))
	mux.Handle("/setup", setupHandler)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// newMCPServer builds an MCP server instance with every catalog tool
// registered. A fresh instance per HTTP session keeps session state isolated.
func (s *Server) newMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "connect-gateway",
		Version: Version,
	}, &mcp.ServerOptions{HasTools: true})

	for _, tool := range s.catalog.Tools() {
		server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, s.toolHandler(tool))
	}

	return server
}

// toolHandler adapts a catalog tool into an MCP tool handler.
func (s *Server) toolHandler(tool *catalog.Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identity := auth.IdentityFromContext(ctx)
		if identity == nil {
			return errorResult("authentication required"), nil
		}

		var args map[string]any
		if raw := req.Params.Arguments; len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
		}

		result, err := s.dispatcher.Invoke(ctx, tool.Name, args, *identity)
		if err != nil {
			return s.toolError(tool, args, identity, err), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

// toolError converts a dispatch failure into an MCP error result. A user who
// has not connected the integration gets a setup link instead of a raw error.
func (s *Server) toolError(tool *catalog.Tool, args map[string]any, identity *auth.Identity, err error) *mcp.CallToolResult {
	if errors.Is(err, classify.ErrUserNotConnected) {
		integrationName, integrationID := tool.IntegrationName, tool.IntegrationID
		if tool.Kind == catalog.KindProxy {
			if name, ok := args["integration"].(string); ok {
				integrationName, integrationID = name, ""
			}
		}

		link, linkErr := s.linker.SetupLink(identity.UserID, integrationName, integrationID)
		if linkErr != nil {
			s.logger.Error("building setup link", "integration", integrationName, "error", linkErr)
			return errorResult(fmt.Sprintf("account for %s is not connected", integrationName))
		}
		return errorResult(fmt.Sprintf(
			"The %s account is not connected. Show the user this link so they can connect, then retry the tool call: %s",
			integrationName, link))
	}

	s.logger.Warn("tool invocation failed", "tool", tool.Name, "error", err)
	return errorResult(err.Error())
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the run context is already
// canceled by the time shutdown starts.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// Catalog exposes the built tool catalog, mainly for startup reporting.
func (s *Server) Catalog() *catalog.Catalog {
	return s.catalog
}

// handleHealth returns 200 OK while the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
