package vtt

import (
	"encoding/json"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestOrderedCombatantsSortsInitiativeDescending(t *testing.T) {
	combat := Combat{
		Combatants: []Combatant{
			{ID: "a", Name: "Slow", Initiative: floatPtr(3)},
			{ID: "b", Name: "Waiting", Initiative: nil},
			{ID: "c", Name: "Fast", Initiative: floatPtr(21)},
			{ID: "d", Name: "AlsoWaiting", Initiative: nil},
			{ID: "e", Name: "Mid", Initiative: floatPtr(12.5)},
		},
	}

	ordered := combat.OrderedCombatants()
	got := make([]string, 0, len(ordered))
	for _, c := range ordered {
		got = append(got, c.ID)
	}
	want := []string{"c", "e", "a", "b", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	// The original slice is untouched.
	if combat.Combatants[0].ID != "a" {
		t.Fatal("expected sorting to copy, not mutate")
	}
}

func TestWorldCollectionLookup(t *testing.T) {
	world := &World{
		Actors: []Document{{ID: "a1", Name: "Gandalf"}},
		Items:  []Document{{ID: "i1", Name: "Glamdring"}},
	}

	docs, ok := world.Collection("actors")
	if !ok || len(docs) != 1 {
		t.Fatalf("expected one actor, got %v ok=%v", docs, ok)
	}
	// Lookup is case-insensitive on the collection name.
	if _, ok := world.Collection("Actors"); !ok {
		t.Fatal("expected case-insensitive collection lookup")
	}
	if _, ok := world.Collection("spells"); ok {
		t.Fatal("expected unknown collection to report false")
	}
	// Combats are not a document collection.
	if _, ok := world.Collection("combats"); ok {
		t.Fatal("expected combats to be rejected as a document collection")
	}
}

func TestWorldCollectionNilSafe(t *testing.T) {
	var world *World
	docs, ok := world.Collection("actors")
	if !ok {
		t.Fatal("expected known collection on nil world to report true")
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty docs, got %v", docs)
	}
}

func TestWorldCountsCoversEveryCollection(t *testing.T) {
	world := &World{
		Actors:  []Document{{ID: "a1"}, {ID: "a2"}},
		Scenes:  []Document{{ID: "s1"}},
		Combats: []Combat{{ID: "c1"}},
	}

	counts := world.Counts()
	if counts["actors"] != 2 || counts["scenes"] != 1 || counts["combats"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if counts["items"] != 0 {
		t.Fatalf("expected zero items, got %d", counts["items"])
	}
	// Every collection name appears, even when empty.
	for _, name := range DocumentCollections {
		if _, ok := counts[name]; !ok {
			t.Fatalf("expected %s in counts", name)
		}
	}
	if _, ok := counts[CollectionCombats]; !ok {
		t.Fatal("expected combats in counts")
	}
}

func TestWorldCountsNilSafe(t *testing.T) {
	var world *World
	counts := world.Counts()
	for name, n := range counts {
		if n != 0 {
			t.Fatalf("expected zero count for %s, got %d", name, n)
		}
	}
	if len(counts) != len(DocumentCollections)+1 {
		t.Fatalf("expected all collections present, got %v", counts)
	}
}

func TestWorldUnmarshalPayload(t *testing.T) {
	raw := `{
		"title": "Middle Earth",
		"system": "dnd5e",
		"systemVersion": "3.1.2",
		"coreVersion": "12.331",
		"actors": [{"_id": "a1", "name": "Gandalf", "type": "character"}],
		"journal": [{"_id": "j1", "name": "Quest Log"}],
		"combats": [{
			"_id": "c1",
			"active": true,
			"round": 2,
			"combatants": [{"_id": "cb1", "name": "Gandalf", "initiative": 20, "actorId": "a1"}]
		}]
	}`

	var world World
	if err := json.Unmarshal([]byte(raw), &world); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if world.Title != "Middle Earth" || world.System != "dnd5e" {
		t.Fatalf("unexpected metadata %q %q", world.Title, world.System)
	}
	if len(world.Actors) != 1 || world.Actors[0].ID != "a1" {
		t.Fatalf("unexpected actors %v", world.Actors)
	}
	if len(world.Journals) != 1 {
		t.Fatalf("expected journal key to populate journals, got %v", world.Journals)
	}
	combat := world.Combats[0]
	if !combat.Active || combat.Round != 2 {
		t.Fatalf("unexpected combat %+v", combat)
	}
	if combat.Combatants[0].Initiative == nil || *combat.Combatants[0].Initiative != 20 {
		t.Fatalf("unexpected combatant %+v", combat.Combatants[0])
	}
	if combat.Combatants[0].ActorID != "a1" {
		t.Fatalf("expected actor back-reference, got %q", combat.Combatants[0].ActorID)
	}
}

func TestDocumentIDsUniqueWithinCollection(t *testing.T) {
	world := &World{
		Actors: []Document{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}},
	}
	seen := map[string]bool{}
	for _, d := range world.Actors {
		if d.ID == "" {
			t.Fatal("expected non-empty document id")
		}
		if seen[d.ID] {
			t.Fatalf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
	}
}
