package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tabletoptools/vtt-bridge/internal/vtt"
)

// ActiveSceneInput represents the MCP tool input for the active scene.
type ActiveSceneInput struct{}

// ActiveSceneResult represents the MCP tool output for the active scene.
type ActiveSceneResult struct {
	ID     string   `json:"id" jsonschema:"scene identifier"`
	Name   string   `json:"name" jsonschema:"scene name"`
	Width  *float64 `json:"width,omitempty" jsonschema:"scene width in pixels"`
	Height *float64 `json:"height,omitempty" jsonschema:"scene height in pixels"`
}

// ActiveSceneTool defines the MCP tool schema for the active scene.
func ActiveSceneTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_active_scene",
		Description: "Returns the scene currently flagged active in the cached snapshot.",
	}
}

// ActiveSceneHandler returns the active scene.
func ActiveSceneHandler(bridge Bridge) mcp.ToolHandlerFor[ActiveSceneInput, ActiveSceneResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ActiveSceneInput) (*mcp.CallToolResult, ActiveSceneResult, error) {
		doc, err := bridge.ActiveScene()
		if err != nil {
			return nil, ActiveSceneResult{}, fmt.Errorf("active scene lookup failed: %w", err)
		}
		scene := vtt.NormalizeScene(doc)
		return nil, ActiveSceneResult{
			ID:     scene.ID,
			Name:   scene.Name,
			Width:  scene.Width,
			Height: scene.Height,
		}, nil
	}
}

// ActiveCombatInput represents the MCP tool input for the active combat.
type ActiveCombatInput struct{}

// CombatantEntry is one participant in the initiative order.
type CombatantEntry struct {
	ID         string   `json:"id" jsonschema:"combatant identifier"`
	Name       string   `json:"name" jsonschema:"combatant name"`
	ActorID    string   `json:"actor_id,omitempty" jsonschema:"backing actor document id"`
	Initiative *float64 `json:"initiative,omitempty" jsonschema:"rolled initiative; absent when not yet rolled"`
	Defeated   bool     `json:"defeated,omitempty" jsonschema:"whether the combatant is marked defeated"`
	Hidden     bool     `json:"hidden,omitempty" jsonschema:"whether the combatant is hidden from players"`
}

// ActiveCombatResult represents the MCP tool output for the active combat.
// Active is false when no encounter is running; that is a normal state, not
// an error.
type ActiveCombatResult struct {
	Active     bool             `json:"active" jsonschema:"whether an encounter is running"`
	ID         string           `json:"id,omitempty" jsonschema:"combat identifier"`
	Round      int              `json:"round,omitempty" jsonschema:"current round number"`
	Turn       int              `json:"turn,omitempty" jsonschema:"index of the current turn in the order"`
	SceneID    string           `json:"scene_id,omitempty" jsonschema:"scene the encounter runs in"`
	Combatants []CombatantEntry `json:"combatants,omitempty" jsonschema:"participants in initiative order, highest first"`
}

// ActiveCombatTool defines the MCP tool schema for the active combat.
func ActiveCombatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_active_combat",
		Description: "Returns the running combat encounter with its initiative order, or active=false when none is running.",
	}
}

// ActiveCombatHandler returns the active combat encounter.
func ActiveCombatHandler(bridge Bridge) mcp.ToolHandlerFor[ActiveCombatInput, ActiveCombatResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ActiveCombatInput) (*mcp.CallToolResult, ActiveCombatResult, error) {
		combat, ok := bridge.ActiveCombat()
		if !ok {
			return nil, ActiveCombatResult{Active: false}, nil
		}

		ordered := combat.OrderedCombatants()
		entries := make([]CombatantEntry, 0, len(ordered))
		for _, c := range ordered {
			entries = append(entries, CombatantEntry{
				ID:         c.ID,
				Name:       c.Name,
				ActorID:    c.ActorID,
				Initiative: c.Initiative,
				Defeated:   c.Defeated,
				Hidden:     c.Hidden,
			})
		}
		return nil, ActiveCombatResult{
			Active:     true,
			ID:         combat.ID,
			Round:      combat.Round,
			Turn:       combat.Turn,
			SceneID:    combat.SceneID,
			Combatants: entries,
		}, nil
	}
}
