// Package mcp hosts the MCP server that exposes the tabletop bridge tools
// over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tabletoptools/vtt-bridge/internal/mcp/domain"
	"github.com/tabletoptools/vtt-bridge/internal/platform/timeouts"
	"github.com/tabletoptools/vtt-bridge/internal/vtt"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "VTT Bridge MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Bridge    vtt.Config
	Transport TransportKind
	HTTPAddr  string
}

// Server hosts the MCP server around one bridge client.
type Server struct {
	mcpServer *mcp.Server
	client    *vtt.Client
}

// New creates a configured MCP server that talks to the remote tabletop
// server described by the bridge configuration.
func New(bridgeCfg vtt.Config) (*Server, error) {
	client, err := vtt.NewClient(bridgeCfg)
	if err != nil {
		return nil, fmt.Errorf("configure bridge client: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{})
	registerConnectionTools(mcpServer, client)
	registerQueryTools(mcpServer, client)

	return &Server{mcpServer: mcpServer, client: client}, nil
}

// Close disconnects the bridge client.
func (s *Server) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.client.Disconnect()
}

// Run creates and serves an MCP server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runStdio(ctx, cfg)
	case TransportHTTP:
		return runHTTP(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runStdio serves one MCP session over standard input/output.
func runStdio(ctx context.Context, cfg Config) error {
	server, err := New(cfg.Bridge)
	if err != nil {
		return err
	}
	defer server.Close()

	err = server.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// runHTTP serves MCP sessions over streamable HTTP until the context ends.
func runHTTP(ctx context.Context, cfg Config) error {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = "localhost:8081"
	}

	server, err := New(cfg.Bridge)
	if err != nil {
		return err
	}
	defer server.Close()

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server.mcpServer
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving MCP over HTTP on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// registerConnectionTools wires the connection lifecycle tools.
func registerConnectionTools(mcpServer *mcp.Server, bridge domain.Bridge) {
	mcp.AddTool(mcpServer, domain.ConnectTool(), domain.ConnectHandler(bridge))
	mcp.AddTool(mcpServer, domain.RefreshTool(), domain.RefreshHandler(bridge))
	mcp.AddTool(mcpServer, domain.DisconnectTool(), domain.DisconnectHandler(bridge))
}

// registerQueryTools wires the snapshot query tools.
func registerQueryTools(mcpServer *mcp.Server, bridge domain.Bridge) {
	mcp.AddTool(mcpServer, domain.SearchTool(), domain.SearchHandler(bridge))
	mcp.AddTool(mcpServer, domain.GetTool(), domain.GetHandler(bridge))
	mcp.AddTool(mcpServer, domain.ActiveSceneTool(), domain.ActiveSceneHandler(bridge))
	mcp.AddTool(mcpServer, domain.ActiveCombatTool(), domain.ActiveCombatHandler(bridge))
	mcp.AddTool(mcpServer, domain.SummaryTool(), domain.SummaryHandler(bridge))
}
