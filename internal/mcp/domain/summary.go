package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SummaryInput represents the MCP tool input for the world summary.
type SummaryInput struct{}

// SummaryResult represents the MCP tool output for the world summary.
type SummaryResult struct {
	State         string         `json:"state" jsonschema:"connection state"`
	World         string         `json:"world,omitempty" jsonschema:"world title"`
	System        string         `json:"system,omitempty" jsonschema:"game system identifier"`
	SystemVersion string         `json:"system_version,omitempty" jsonschema:"game system version"`
	CoreVersion   string         `json:"core_version,omitempty" jsonschema:"server core version"`
	Counts        map[string]int `json:"counts" jsonschema:"element count per collection; all zero when disconnected"`
}

// SummaryTool defines the MCP tool schema for the world summary.
func SummaryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_summary",
		Description: "Returns world metadata and per-collection element counts from the cached snapshot.",
	}
}

// SummaryHandler returns the world summary. It never fails: without a
// snapshot it reports the disconnected state and all-zero counts.
func SummaryHandler(bridge Bridge) mcp.ToolHandlerFor[SummaryInput, SummaryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SummaryInput) (*mcp.CallToolResult, SummaryResult, error) {
		result := SummaryResult{
			State:  string(bridge.State()),
			Counts: bridge.Summary(),
		}
		if world := bridge.World(); world != nil {
			result.World = world.Title
			result.System = world.System
			result.SystemVersion = world.SystemVersion
			result.CoreVersion = world.CoreVersion
		}
		return nil, result, nil
	}
}
