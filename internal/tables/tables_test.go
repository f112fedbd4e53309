package tables

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/types"
)

func TestEmbeddedTables_Registered(t *testing.T) {
	genres := Genres()
	if len(genres) != 2 || genres[0] != GenreFantasy || genres[1] != GenreSciFi {
		t.Fatalf("Genres() = %v, want [fantasy scifi]", genres)
	}

	for _, g := range genres {
		set, ok := Get(g)
		if !ok {
			t.Fatalf("Get(%q) not found", g)
		}
		if len(set.NPC.FirstNames) == 0 || len(set.Location.NamePrefixes) == 0 {
			t.Errorf("%s: tables should not be empty", g)
		}
		for _, lt := range set.Location.Types {
			if !types.Contains(types.LocationTypes, lt) {
				t.Errorf("%s: location type %q is not a valid type", g, lt)
			}
		}
	}
}

func TestGet_UnknownGenreReturnsGeneric(t *testing.T) {
	set, ok := Get("steampunk")
	if ok {
		t.Error("expected ok=false for unregistered genre")
	}
	if set == nil || set.Genre != GenreFantasy {
		t.Errorf("expected fantasy fallback, got %+v", set)
	}
}

func TestForGameSystem(t *testing.T) {
	tests := []struct {
		system string
		want   Genre
	}{
		{"Daggerheart", GenreFantasy},
		{"D&D 5e", GenreFantasy},
		{"Pathfinder 2e", GenreFantasy},
		{"Traveller", GenreSciFi},
		{"Stars Without Number", GenreSciFi},
		{"sci-fi homebrew", GenreSciFi},
		{"", GenreFantasy},
		{"something custom", GenreFantasy},
	}
	for _, tt := range tests {
		t.Run(tt.system, func(t *testing.T) {
			if got := ForGameSystem(tt.system).Genre; got != tt.want {
				t.Errorf("ForGameSystem(%q) = %q, want %q", tt.system, got, tt.want)
			}
		})
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(&TableSet{Genre: GenreFantasy})
}

func TestParseTableSet_MissingGenre(t *testing.T) {
	if _, err := ParseTableSet([]byte("npc:\n  first_names: [A]\n")); err == nil {
		t.Error("expected error for missing genre")
	}
}

func TestGenerator_NPCFromTables(t *testing.T) {
	set, _ := Get(GenreFantasy)
	g := NewGenerator(42)

	for i := 0; i < 20; i++ {
		npc, err := g.NPC(set)
		if err != nil {
			t.Fatalf("NPC() error: %v", err)
		}
		first, last, ok := strings.Cut(npc.Name, " ")
		if !ok || !types.Contains(set.NPC.FirstNames, first) || !types.Contains(set.NPC.LastNames, last) {
			t.Errorf("name %q not drawn from tables", npc.Name)
		}
		if !types.Contains(set.NPC.Occupations, npc.Occupation) {
			t.Errorf("occupation %q not drawn from tables", npc.Occupation)
		}
		if !types.Contains(types.Relationships, string(npc.Relationship)) {
			t.Errorf("relationship %q invalid", npc.Relationship)
		}
	}
}

func TestGenerator_Reproducible(t *testing.T) {
	set, _ := Get(GenreSciFi)
	a, _ := NewGenerator(7).Location(set)
	b, _ := NewGenerator(7).Location(set)
	if a != b {
		t.Errorf("same seed produced different locations:\n%+v\n%+v", a, b)
	}
}

func TestGenerator_LocationNameSeparator(t *testing.T) {
	set, _ := Get(GenreSciFi)
	loc, err := NewGenerator(3).Location(set)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(loc.Name, " ") {
		t.Errorf("sci-fi location name should be two words, got %q", loc.Name)
	}

	set, _ = Get(GenreFantasy)
	loc, err = NewGenerator(3).Location(set)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(loc.Name, " ") {
		t.Errorf("fantasy location name should be compound, got %q", loc.Name)
	}
}

func TestGenerator_EmptyTable(t *testing.T) {
	g := NewGenerator(1)
	set := &TableSet{Genre: "empty"}

	if _, err := g.NPC(set); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("NPC: expected ErrEmptyTable, got %v", err)
	}
	if _, err := g.Location(set); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("Location: expected ErrEmptyTable, got %v", err)
	}
	if _, err := g.Lore(set, types.CampaignFrame{}, 0); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("Lore: expected ErrEmptyTable, got %v", err)
	}
	if _, err := g.Encounter(set, types.CampaignFrame{}, 0); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("Encounter: expected ErrEmptyTable, got %v", err)
	}
}

func TestGenerator_LoreUsesFrame(t *testing.T) {
	set, _ := Get(GenreFantasy)
	frame := types.CampaignFrame{
		Themes:       []string{"Loyalty", "Debt"},
		Distinctions: []types.Distinction{{Name: "The Glass Sea"}},
	}

	lore, err := NewGenerator(5).Lore(set, frame, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lore.Content, "The Glass Sea") {
		t.Errorf("content should mention the distinction: %q", lore.Content)
	}
	if !strings.Contains(lore.Content, "debt") {
		t.Errorf("content should mention the second theme: %q", lore.Content)
	}
	if lore.Category != set.Lore.Categories[1] {
		t.Errorf("Category = %q, want %q", lore.Category, set.Lore.Categories[1])
	}
	if len(lore.Tags) != 2 || lore.Tags[1] != "Debt" {
		t.Errorf("Tags = %v", lore.Tags)
	}
}

func TestGenerator_EncounterDifficultyAndIncident(t *testing.T) {
	set, _ := Get(GenreFantasy)
	frame := types.CampaignFrame{IncitingIncident: "The king was poisoned at the feast"}
	g := NewGenerator(9)

	first, err := g.Encounter(set, frame, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Encounter(set, frame, 1)
	if err != nil {
		t.Fatal(err)
	}

	if first.Difficulty != types.DifficultyEasy || second.Difficulty != types.DifficultyMedium {
		t.Errorf("difficulties = %q, %q", first.Difficulty, second.Difficulty)
	}
	if first.PartyLevel != 1 {
		t.Errorf("PartyLevel = %d, want 1", first.PartyLevel)
	}
	if !strings.Contains(first.Description, frame.IncitingIncident) {
		t.Errorf("first encounter should reference the incident: %q", first.Description)
	}
	if strings.Contains(second.Description, frame.IncitingIncident) {
		t.Errorf("second encounter should not reference the incident: %q", second.Description)
	}
}
