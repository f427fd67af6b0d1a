package vtt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
)

const (
	// DefaultSearchLimit applies when a search does not specify a limit.
	DefaultSearchLimit = 10
	// MaxSearchLimit caps the returned slice of any search to bound
	// response size. The total match count is reported uncapped.
	MaxSearchLimit = 50
)

// SearchOptions filters a collection search. An empty Query matches every
// document; Type is an exact, case-insensitive discriminator filter applied
// after the name match.
type SearchOptions struct {
	Query string
	Type  string
	Limit int
}

// SearchResult carries the truncated documents plus the true total so
// callers can tell there were more matches.
type SearchResult struct {
	Total     int
	Documents []Document
}

// foldContains reports whether s contains substr under Unicode case
// folding. An empty substr matches everything.
func foldContains(s, substr string) bool {
	if substr == "" {
		return true
	}
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}

// effectiveLimit caps the caller's requested limit.
func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// matchName is the default matcher: substring containment on the display
// name.
func matchName(d Document, query string) bool {
	return foldContains(d.Name, query)
}

// matchJournal additionally matches nested page names and page text.
func matchJournal(d Document, query string) bool {
	if foldContains(d.Name, query) {
		return true
	}
	pages, ok := d.Data.Slice("pages")
	if !ok {
		return false
	}
	for _, raw := range pages {
		page, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		pd := Data(page)
		if name, ok := pd.String("name"); ok && foldContains(name, query) {
			return true
		}
		if content, ok := pd.String("text", "content"); ok && foldContains(content, query) {
			return true
		}
	}
	return false
}

// searchDocuments applies the matcher, the type filter, and the limit,
// preserving collection order for deterministic listing.
func searchDocuments(docs []Document, opts SearchOptions, match func(Document, string) bool) SearchResult {
	limit := effectiveLimit(opts.Limit)
	result := SearchResult{}
	for _, d := range docs {
		if !match(d, opts.Query) {
			continue
		}
		if opts.Type != "" && !strings.EqualFold(d.Type, opts.Type) {
			continue
		}
		result.Total++
		if len(result.Documents) < limit {
			result.Documents = append(result.Documents, d)
		}
	}
	return result
}

// Search runs a substring search over one collection of the current
// snapshot. With no snapshot it returns an empty result, never an error;
// an unknown collection name is a typed NotFound failure.
func (c *Client) Search(collection string, opts SearchOptions) (SearchResult, error) {
	world := c.World()
	docs, ok := world.Collection(collection)
	if !ok {
		return SearchResult{}, perrors.New(perrors.CodeNotFound,
			fmt.Sprintf("unknown collection %q", collection))
	}
	match := matchName
	if strings.EqualFold(collection, CollectionJournals) {
		match = matchJournal
	}
	return searchDocuments(docs, opts, match), nil
}

// worldSearchCollections are the collections covered by a cross-collection
// search.
var worldSearchCollections = []string{
	CollectionActors,
	CollectionItems,
	CollectionScenes,
	CollectionJournals,
}

// SearchWorld runs the search across actors, items, scenes, and journals.
// The map holds one entry per collection with at least one match.
func (c *Client) SearchWorld(opts SearchOptions) map[string]SearchResult {
	results := make(map[string]SearchResult)
	for _, collection := range worldSearchCollections {
		result, err := c.Search(collection, opts)
		if err != nil {
			continue
		}
		if result.Total > 0 {
			results[collection] = result
		}
	}
	return results
}

// Get looks up one document by its unique identifier.
func (c *Client) Get(collection, id string) (Document, error) {
	world := c.World()
	docs, ok := world.Collection(collection)
	if !ok {
		return Document{}, perrors.New(perrors.CodeNotFound,
			fmt.Sprintf("unknown collection %q", collection))
	}
	for _, d := range docs {
		if d.ID == id {
			return d, nil
		}
	}
	return Document{}, perrors.WithMetadata(perrors.CodeNotFound,
		fmt.Sprintf("no document %s in %s", id, collection),
		map[string]string{"collection": collection, "id": id})
}

// ActiveScene returns the first scene flagged active in collection order.
// Having no active scene is a typed failure because a live world normally
// has one.
func (c *Client) ActiveScene() (Document, error) {
	world := c.World()
	if world != nil {
		for _, scene := range world.Scenes {
			if sceneActive(scene) {
				return scene, nil
			}
		}
	}
	return Document{}, perrors.New(perrors.CodeNoActiveScene, "no scene is flagged active")
}

// ActiveCombat returns the first combat flagged active in collection order.
// Absence of combat is a normal state, so the second result is false rather
// than an error.
func (c *Client) ActiveCombat() (Combat, bool) {
	world := c.World()
	if world == nil {
		return Combat{}, false
	}
	for _, combat := range world.Combats {
		if combat.Active {
			return combat, true
		}
	}
	return Combat{}, false
}

// Summary returns the element count of every collection in the snapshot.
// Nil-safe: all-zero counts when disconnected.
func (c *Client) Summary() map[string]int {
	return c.World().Counts()
}
