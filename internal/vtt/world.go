package vtt

import (
	"sort"
	"strings"
)

// Combatant is one entry in an encounter's initiative order. ActorID is a
// non-owning lookup key into the actors collection.
type Combatant struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Initiative *float64 `json:"initiative"`
	Defeated   bool     `json:"defeated"`
	Hidden     bool     `json:"hidden"`
	ActorID    string   `json:"actorId,omitempty"`
}

// Combat is one encounter. At most one encounter is active at a time; the
// server is trusted on that, and readers take the first active in
// collection order.
type Combat struct {
	ID         string      `json:"_id"`
	Active     bool        `json:"active"`
	Round      int         `json:"round"`
	Turn       int         `json:"turn"`
	SceneID    string      `json:"scene,omitempty"`
	Combatants []Combatant `json:"combatants"`
}

// OrderedCombatants returns the combatants by initiative descending.
// Entries without an initiative sort after every numeric value; the sort is
// stable so collection order breaks ties.
func (c Combat) OrderedCombatants() []Combatant {
	out := make([]Combatant, len(c.Combatants))
	copy(out, c.Combatants)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Initiative, out[j].Initiative
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return out
}

// Collection names accepted by the query layer.
const (
	CollectionActors    = "actors"
	CollectionItems     = "items"
	CollectionScenes    = "scenes"
	CollectionJournals  = "journals"
	CollectionUsers     = "users"
	CollectionMessages  = "messages"
	CollectionMacros    = "macros"
	CollectionPlaylists = "playlists"
	CollectionTables    = "tables"
	CollectionFolders   = "folders"
	CollectionCombats   = "combats"
)

// DocumentCollections lists the document collections in deterministic
// listing order. Combats are modeled separately because combatant entries
// are structured rather than open bags.
var DocumentCollections = []string{
	CollectionActors,
	CollectionItems,
	CollectionScenes,
	CollectionJournals,
	CollectionUsers,
	CollectionMessages,
	CollectionMacros,
	CollectionPlaylists,
	CollectionTables,
	CollectionFolders,
}

// World is the full snapshot of a game world's collections as returned by
// the server. A World is immutable once stored on a Client; refresh swaps
// in a new value rather than mutating this one.
type World struct {
	Title         string     `json:"title"`
	System        string     `json:"system"`
	SystemVersion string     `json:"systemVersion"`
	CoreVersion   string     `json:"coreVersion"`
	Actors        []Document `json:"actors"`
	Items         []Document `json:"items"`
	Scenes        []Document `json:"scenes"`
	Journals      []Document `json:"journal"`
	Users         []Document `json:"users"`
	Messages      []Document `json:"messages"`
	Macros        []Document `json:"macros"`
	Playlists     []Document `json:"playlists"`
	Tables        []Document `json:"tables"`
	Folders       []Document `json:"folders"`
	Combats       []Combat   `json:"combats"`
}

// Collection returns the named document collection. It is nil-safe and
// reports false for unknown names (including "combats", which is not a
// document collection).
func (w *World) Collection(name string) ([]Document, bool) {
	if w == nil {
		switch strings.ToLower(name) {
		case CollectionActors, CollectionItems, CollectionScenes, CollectionJournals,
			CollectionUsers, CollectionMessages, CollectionMacros,
			CollectionPlaylists, CollectionTables, CollectionFolders:
			return nil, true
		default:
			return nil, false
		}
	}
	switch strings.ToLower(name) {
	case CollectionActors:
		return w.Actors, true
	case CollectionItems:
		return w.Items, true
	case CollectionScenes:
		return w.Scenes, true
	case CollectionJournals:
		return w.Journals, true
	case CollectionUsers:
		return w.Users, true
	case CollectionMessages:
		return w.Messages, true
	case CollectionMacros:
		return w.Macros, true
	case CollectionPlaylists:
		return w.Playlists, true
	case CollectionTables:
		return w.Tables, true
	case CollectionFolders:
		return w.Folders, true
	default:
		return nil, false
	}
}

// Counts returns the element count of every collection, keyed by collection
// name. It is nil-safe: an absent snapshot yields all-zero counts so read
// callers never fail on connection state.
func (w *World) Counts() map[string]int {
	counts := make(map[string]int, len(DocumentCollections)+1)
	for _, name := range DocumentCollections {
		docs, _ := w.Collection(name)
		counts[name] = len(docs)
	}
	if w != nil {
		counts[CollectionCombats] = len(w.Combats)
	} else {
		counts[CollectionCombats] = 0
	}
	return counts
}
