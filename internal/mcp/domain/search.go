package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tabletoptools/vtt-bridge/internal/vtt"
)

func equalsCollection(name, collection string) bool {
	return strings.EqualFold(name, collection)
}

// SearchInput represents the MCP tool input for a document search.
type SearchInput struct {
	Query      string `json:"query,omitempty" jsonschema:"case-insensitive substring to match against names; empty lists everything"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (actors, items, scenes, journals, users, messages, macros, playlists, tables, folders); empty searches actors, items, scenes, and journals"`
	Type       string `json:"type,omitempty" jsonschema:"exact document subtype filter, e.g. character or npc"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum documents to return, default 10, capped at 50"`
}

// CollectionMatches is one collection's slice of a search result.
type CollectionMatches struct {
	Collection string            `json:"collection" jsonschema:"collection name"`
	Total      int               `json:"total" jsonschema:"full match count, before the limit"`
	Documents  []DocumentSummary `json:"documents" jsonschema:"matched documents, up to the limit"`
}

// SearchResult represents the MCP tool output for a search.
type SearchResult struct {
	Total   int                 `json:"total" jsonschema:"full match count across all searched collections"`
	Matches []CollectionMatches `json:"matches" jsonschema:"per-collection matches, in collection order"`
}

// SearchTool defines the MCP tool schema for searching documents.
func SearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_search",
		Description: "Searches cached world documents by name substring, optionally filtered by collection and subtype.",
	}
}

// SearchHandler executes a search against the cached snapshot.
func SearchHandler(bridge Bridge) mcp.ToolHandlerFor[SearchInput, SearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchResult, error) {
		opts := vtt.SearchOptions{Query: input.Query, Type: input.Type, Limit: input.Limit}

		if input.Collection != "" {
			matches, err := bridge.Search(input.Collection, opts)
			if err != nil {
				return nil, SearchResult{}, fmt.Errorf("search failed: %w", err)
			}
			return nil, SearchResult{
				Total: matches.Total,
				Matches: []CollectionMatches{{
					Collection: input.Collection,
					Total:      matches.Total,
					Documents:  summarize(matches.Documents),
				}},
			}, nil
		}

		result := SearchResult{Matches: []CollectionMatches{}}
		byCollection := bridge.SearchWorld(opts)
		for _, name := range vtt.DocumentCollections {
			matches, ok := byCollection[name]
			if !ok {
				continue
			}
			result.Total += matches.Total
			result.Matches = append(result.Matches, CollectionMatches{
				Collection: name,
				Total:      matches.Total,
				Documents:  summarize(matches.Documents),
			})
		}
		return nil, result, nil
	}
}

// GetInput represents the MCP tool input for fetching one document.
type GetInput struct {
	Collection string `json:"collection" jsonschema:"collection holding the document"`
	ID         string `json:"id" jsonschema:"document identifier"`
}

// GetResult represents the MCP tool output for a document fetch.
type GetResult struct {
	ID    string         `json:"id" jsonschema:"document identifier"`
	Name  string         `json:"name" jsonschema:"display name"`
	Type  string         `json:"type,omitempty" jsonschema:"document subtype"`
	Actor *ActorDetails  `json:"actor,omitempty" jsonschema:"normalized actor fields, for actor documents"`
	Item  *ItemDetails   `json:"item,omitempty" jsonschema:"normalized item fields, for item documents"`
	Scene *SceneDetails  `json:"scene,omitempty" jsonschema:"normalized scene fields, for scene documents"`
	Data  map[string]any `json:"data,omitempty" jsonschema:"remaining system-specific fields"`
}

// ActorDetails carries the system-agnostic actor fields.
type ActorDetails struct {
	HP        *float64           `json:"hp,omitempty" jsonschema:"current hit points"`
	MaxHP     *float64           `json:"max_hp,omitempty" jsonschema:"maximum hit points"`
	AC        *float64           `json:"ac,omitempty" jsonschema:"armor class"`
	Abilities map[string]float64 `json:"abilities,omitempty" jsonschema:"ability scores by abbreviation"`
	Biography string             `json:"biography,omitempty" jsonschema:"biography text"`
}

// ItemDetails carries the system-agnostic item fields.
type ItemDetails struct {
	Rarity      string   `json:"rarity,omitempty" jsonschema:"item rarity"`
	Description string   `json:"description,omitempty" jsonschema:"description text"`
	Quantity    *float64 `json:"quantity,omitempty" jsonschema:"stack size"`
}

// SceneDetails carries the system-agnostic scene fields.
type SceneDetails struct {
	Active bool     `json:"active" jsonschema:"whether the scene is the active one"`
	Width  *float64 `json:"width,omitempty" jsonschema:"scene width in pixels"`
	Height *float64 `json:"height,omitempty" jsonschema:"scene height in pixels"`
}

// GetTool defines the MCP tool schema for fetching one document.
func GetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "vtt_get",
		Description: "Fetches one cached document by collection and id, with normalized fields for actors, items, and scenes.",
	}
}

// GetHandler executes a document fetch against the cached snapshot.
func GetHandler(bridge Bridge) mcp.ToolHandlerFor[GetInput, GetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetResult, error) {
		if input.Collection == "" || input.ID == "" {
			return nil, GetResult{}, fmt.Errorf("collection and id are required")
		}
		doc, err := bridge.Get(input.Collection, input.ID)
		if err != nil {
			return nil, GetResult{}, fmt.Errorf("get failed: %w", err)
		}
		return nil, newGetResult(input.Collection, doc), nil
	}
}

func newGetResult(collection string, doc vtt.Document) GetResult {
	result := GetResult{
		ID:   doc.ID,
		Name: doc.Name,
		Type: doc.Type,
		Data: doc.Data,
	}
	switch {
	case equalsCollection(collection, vtt.CollectionActors):
		actor := vtt.NormalizeActor(doc)
		result.Actor = &ActorDetails{
			HP:        actor.HP,
			MaxHP:     actor.MaxHP,
			AC:        actor.AC,
			Abilities: actor.Abilities,
			Biography: actor.Biography,
		}
	case equalsCollection(collection, vtt.CollectionItems):
		item := vtt.NormalizeItem(doc)
		result.Item = &ItemDetails{
			Rarity:      item.Rarity,
			Description: item.Description,
			Quantity:    item.Quantity,
		}
	case equalsCollection(collection, vtt.CollectionScenes):
		scene := vtt.NormalizeScene(doc)
		result.Scene = &SceneDetails{
			Active: scene.Active,
			Width:  scene.Width,
			Height: scene.Height,
		}
	}
	return result
}
