// Package domain defines the MCP tool schemas and handlers that expose a
// remote tabletop server's world to assistant tool calls.
package domain

import (
	"context"

	"github.com/tabletoptools/vtt-bridge/internal/vtt"
)

// Bridge is the connection and query surface the tool handlers need. It is
// satisfied by *vtt.Client.
type Bridge interface {
	Connect(ctx context.Context) error
	Refresh(ctx context.Context) error
	Disconnect()
	State() vtt.State
	Session() vtt.Session
	World() *vtt.World
	Search(collection string, opts vtt.SearchOptions) (vtt.SearchResult, error)
	SearchWorld(opts vtt.SearchOptions) map[string]vtt.SearchResult
	Get(collection, id string) (vtt.Document, error)
	ActiveScene() (vtt.Document, error)
	ActiveCombat() (vtt.Combat, bool)
	Summary() map[string]int
}

// DocumentSummary is the compact document representation returned by search
// listings.
type DocumentSummary struct {
	ID   string `json:"id" jsonschema:"document identifier"`
	Name string `json:"name" jsonschema:"display name"`
	Type string `json:"type,omitempty" jsonschema:"document subtype, when the collection has one"`
}

func summarize(docs []vtt.Document) []DocumentSummary {
	out := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentSummary{ID: d.ID, Name: d.Name, Type: d.Type})
	}
	return out
}
