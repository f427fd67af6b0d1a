package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectTimeout bounds a full connect attempt, including the join flow and
// the initial world payload.
const connectTimeout = 60 * time.Second

// refreshTimeout bounds a snapshot refresh.
const refreshTimeout = 30 * time.Second

// ConnectInput represents the MCP tool input for connecting. Credentials
// come from server configuration, not from the tool call.
type ConnectInput struct{}

// ConnectResult represents the MCP tool output after connecting.
type ConnectResult struct {
	State  string         `json:"state" jsonschema:"connection state after the call"`
	UserID string         `json:"user_id,omitempty" jsonschema:"authenticated user identifier"`
	World  string         `json:"world,omitempty" jsonschema:"world title"`
	System string         `json:"system,omitempty" jsonschema:"game system identifier"`
	Counts map[string]int `json:"counts,omitempty" jsonschema:"element count per collection"`
}

// ConnectTool defines the MCP tool schema for connecting.
func ConnectTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_connect",
		Description: "Connects to the configured tabletop server, authenticates, and loads the world snapshot.",
	}
}

// ConnectHandler executes a connect request.
func ConnectHandler(bridge Bridge) mcp.ToolHandlerFor[ConnectInput, ConnectResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ConnectInput) (*mcp.CallToolResult, ConnectResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		if err := bridge.Connect(runCtx); err != nil {
			return nil, ConnectResult{}, fmt.Errorf("connect failed: %w", err)
		}

		result := ConnectResult{
			State:  string(bridge.State()),
			UserID: bridge.Session().UserID,
			Counts: bridge.Summary(),
		}
		if world := bridge.World(); world != nil {
			result.World = world.Title
			result.System = world.System
		}
		return nil, result, nil
	}
}

// RefreshInput represents the MCP tool input for refreshing the snapshot.
type RefreshInput struct{}

// RefreshResult represents the MCP tool output after a refresh.
type RefreshResult struct {
	State  string         `json:"state" jsonschema:"connection state after the call"`
	Counts map[string]int `json:"counts" jsonschema:"element count per collection in the fresh snapshot"`
}

// RefreshTool defines the MCP tool schema for refreshing the snapshot.
func RefreshTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_refresh",
		Description: "Re-fetches the world snapshot on the open connection. Fails when disconnected.",
	}
}

// RefreshHandler executes a snapshot refresh.
func RefreshHandler(bridge Bridge) mcp.ToolHandlerFor[RefreshInput, RefreshResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ RefreshInput) (*mcp.CallToolResult, RefreshResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()

		if err := bridge.Refresh(runCtx); err != nil {
			return nil, RefreshResult{}, fmt.Errorf("refresh failed: %w", err)
		}
		return nil, RefreshResult{
			State:  string(bridge.State()),
			Counts: bridge.Summary(),
		}, nil
	}
}

// DisconnectInput represents the MCP tool input for disconnecting.
type DisconnectInput struct{}

// DisconnectResult represents the MCP tool output after disconnecting.
type DisconnectResult struct {
	State string `json:"state" jsonschema:"connection state after the call"`
}

// DisconnectTool defines the MCP tool schema for disconnecting.
func DisconnectTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_disconnect",
		Description: "Closes the connection and discards the cached snapshot. Safe to call when already disconnected.",
	}
}

// DisconnectHandler executes a disconnect request.
func DisconnectHandler(bridge Bridge) mcp.ToolHandlerFor[DisconnectInput, DisconnectResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ DisconnectInput) (*mcp.CallToolResult, DisconnectResult, error) {
		bridge.Disconnect()
		return nil, DisconnectResult{State: string(bridge.State())}, nil
	}
}
