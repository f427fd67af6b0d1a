package vtt

import (
	"testing"

	perrors "github.com/tabletoptools/vtt-bridge/internal/platform/errors"
)

// clientWithWorld builds a connected-looking client around a fixed snapshot
// so query behavior can be tested without a server.
func clientWithWorld(world *World) *Client {
	return &Client{state: StateConnected, world: world}
}

func namedDocs(prefix string, names ...string) []Document {
	docs := make([]Document, 0, len(names))
	for i, name := range names {
		docs = append(docs, Document{ID: prefix + string(rune('a'+i)), Name: name})
	}
	return docs
}

func TestSearchSubstringCaseInsensitive(t *testing.T) {
	client := clientWithWorld(&World{
		Actors: []Document{
			{ID: "a1", Name: "Gandalf the Grey", Type: "character"},
			{ID: "a2", Name: "GANDALF THE WHITE", Type: "character"},
			{ID: "a3", Name: "Balrog", Type: "npc"},
		},
	})

	result, err := client.Search("actors", SearchOptions{Query: "gandalf"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 2 || len(result.Documents) != 2 {
		t.Fatalf("expected two matches, got %+v", result)
	}
	// Collection order is preserved.
	if result.Documents[0].ID != "a1" || result.Documents[1].ID != "a2" {
		t.Fatalf("unexpected order %v", result.Documents)
	}
}

func TestSearchEmptyQueryListsEverything(t *testing.T) {
	client := clientWithWorld(&World{
		Items: namedDocs("i", "Glamdring", "Sting", "Narsil"),
	})

	result, err := client.Search("items", SearchOptions{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected empty query to match all, got %+v", result)
	}
}

func TestSearchTypeFilter(t *testing.T) {
	client := clientWithWorld(&World{
		Actors: []Document{
			{ID: "a1", Name: "Gandalf", Type: "character"},
			{ID: "a2", Name: "Gandalf's Horse", Type: "npc"},
		},
	})

	result, err := client.Search("actors", SearchOptions{Query: "gandalf", Type: "NPC"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 || result.Documents[0].ID != "a2" {
		t.Fatalf("expected the npc only, got %+v", result)
	}
}

func TestSearchLimitDefaultsAndCaps(t *testing.T) {
	names := make([]string, 0, 80)
	for i := 0; i < 80; i++ {
		names = append(names, "Goblin")
	}
	docs := make([]Document, len(names))
	for i := range names {
		docs[i] = Document{ID: "g" + string(rune('0'+i%10)) + string(rune('a'+i/10)), Name: names[i]}
	}
	client := clientWithWorld(&World{Actors: docs})

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultSearchLimit},
		{"negative falls back to default", -5, DefaultSearchLimit},
		{"explicit", 25, 25},
		{"capped", 200, MaxSearchLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := client.Search("actors", SearchOptions{Limit: tc.limit})
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(result.Documents) != tc.want {
				t.Fatalf("expected %d documents, got %d", tc.want, len(result.Documents))
			}
			// Total always reports the full match count.
			if result.Total != 80 {
				t.Fatalf("expected total 80, got %d", result.Total)
			}
		})
	}
}

func TestSearchUnknownCollection(t *testing.T) {
	client := clientWithWorld(&World{})

	_, err := client.Search("spells", SearchOptions{})
	if perrors.CodeOf(err) != perrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown collection, got %v", err)
	}
}

func TestSearchWithoutSnapshotIsEmpty(t *testing.T) {
	client := &Client{state: StateDisconnected}

	result, err := client.Search("actors", SearchOptions{Query: "anything"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 0 || len(result.Documents) != 0 {
		t.Fatalf("expected empty result without a snapshot, got %+v", result)
	}
}

func TestSearchJournalMatchesPageContent(t *testing.T) {
	client := clientWithWorld(&World{
		Journals: []Document{
			{
				ID:   "j1",
				Name: "Quest Log",
				Data: Data{
					"pages": []any{
						map[string]any{
							"name": "Chapter One",
							"text": map[string]any{"content": "Seek the Mines of Moria."},
						},
					},
				},
			},
			{ID: "j2", Name: "Shopping List"},
		},
	})

	result, err := client.Search("journals", SearchOptions{Query: "moria"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 || result.Documents[0].ID != "j1" {
		t.Fatalf("expected the journal with matching page text, got %+v", result)
	}

	result, err = client.Search("journals", SearchOptions{Query: "chapter one"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected page name to match, got %+v", result)
	}
}

func TestSearchWorldSkipsEmptyCollections(t *testing.T) {
	client := clientWithWorld(&World{
		Actors: []Document{{ID: "a1", Name: "Moria Goblin"}},
		Scenes: []Document{{ID: "s1", Name: "Moria"}},
		Items:  []Document{{ID: "i1", Name: "Glamdring"}},
	})

	results := client.SearchWorld(SearchOptions{Query: "moria"})
	if len(results) != 2 {
		t.Fatalf("expected matches in actors and scenes only, got %v", results)
	}
	if results["actors"].Total != 1 || results["scenes"].Total != 1 {
		t.Fatalf("unexpected totals %v", results)
	}
	if _, ok := results["items"]; ok {
		t.Fatal("expected collections without matches to be absent")
	}
}

func TestGetByID(t *testing.T) {
	client := clientWithWorld(&World{
		Actors: []Document{{ID: "a1", Name: "Gandalf"}},
	})

	doc, err := client.Get("actors", "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Name != "Gandalf" {
		t.Fatalf("unexpected document %+v", doc)
	}

	_, err = client.Get("actors", "missing")
	if perrors.CodeOf(err) != perrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing id, got %v", err)
	}
	_, err = client.Get("spells", "a1")
	if perrors.CodeOf(err) != perrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown collection, got %v", err)
	}
}

func TestActiveSceneFirstActiveWins(t *testing.T) {
	client := clientWithWorld(&World{
		Scenes: []Document{
			{ID: "s1", Name: "Shire", Data: Data{"active": false}},
			{ID: "s2", Name: "Moria", Data: Data{"active": true}},
			{ID: "s3", Name: "Lothlorien", Data: Data{"active": true}},
		},
	})

	scene, err := client.ActiveScene()
	if err != nil {
		t.Fatalf("active scene: %v", err)
	}
	if scene.ID != "s2" {
		t.Fatalf("expected first active scene, got %+v", scene)
	}
}

func TestActiveSceneNoneIsTypedError(t *testing.T) {
	client := clientWithWorld(&World{
		Scenes: []Document{{ID: "s1", Name: "Shire", Data: Data{"active": false}}},
	})

	_, err := client.ActiveScene()
	if perrors.CodeOf(err) != perrors.CodeNoActiveScene {
		t.Fatalf("expected NO_ACTIVE_SCENE, got %v", err)
	}

	// Same outcome with no snapshot at all.
	_, err = (&Client{}).ActiveScene()
	if perrors.CodeOf(err) != perrors.CodeNoActiveScene {
		t.Fatalf("expected NO_ACTIVE_SCENE without snapshot, got %v", err)
	}
}

func TestActiveCombat(t *testing.T) {
	client := clientWithWorld(&World{
		Combats: []Combat{
			{ID: "c1", Active: false},
			{ID: "c2", Active: true, Round: 3},
		},
	})

	combat, ok := client.ActiveCombat()
	if !ok || combat.ID != "c2" {
		t.Fatalf("expected the active combat, got %+v ok=%v", combat, ok)
	}
}

func TestActiveCombatAbsenceIsNotAnError(t *testing.T) {
	client := clientWithWorld(&World{
		Combats: []Combat{{ID: "c1", Active: false}},
	})
	if _, ok := client.ActiveCombat(); ok {
		t.Fatal("expected no active combat")
	}
	if _, ok := (&Client{}).ActiveCombat(); ok {
		t.Fatal("expected no active combat without snapshot")
	}
}

func TestSummaryCounts(t *testing.T) {
	client := clientWithWorld(&World{
		Actors: namedDocs("a", "Gandalf", "Balrog"),
		Items:  namedDocs("i", "Glamdring"),
	})

	counts := client.Summary()
	if counts["actors"] != 2 || counts["items"] != 1 || counts["scenes"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestFoldContainsUnicode(t *testing.T) {
	if !foldContains("Fëanor the Smith", "FËANOR") {
		t.Fatal("expected folded match on accented letters")
	}
	if !foldContains("Straße", "STRASSE") {
		t.Fatal("expected full case folding, not simple lowercasing")
	}
	if foldContains("Gandalf", "Saruman") {
		t.Fatal("expected non-substring to miss")
	}
}
