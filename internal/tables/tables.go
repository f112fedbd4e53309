// Package tables holds the curated per-genre word lists behind offline content
// generation and the generators that sample from them.
package tables

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrEmptyTable is returned when a generator samples from a table with no entries.
var ErrEmptyTable = errors.New("empty table")

// Genre names a table set.
type Genre string

const (
	GenreFantasy Genre = "fantasy"
	GenreSciFi   Genre = "scifi"
)

// NPCTables holds the lists sampled for an NPC.
type NPCTables struct {
	FirstNames   []string `yaml:"first_names"`
	LastNames    []string `yaml:"last_names"`
	Occupations  []string `yaml:"occupations"`
	Locations    []string `yaml:"locations"`
	Descriptions []string `yaml:"descriptions"`
	Notes        []string `yaml:"notes"`
	FirstMet     []string `yaml:"first_met"`
}

// LocationTables holds the lists sampled for a location.
type LocationTables struct {
	NamePrefixes []string `yaml:"name_prefixes"`
	NameSuffixes []string `yaml:"name_suffixes"`
	// NameSeparator joins prefix and suffix; empty for compound names.
	NameSeparator string   `yaml:"name_separator"`
	Types         []string `yaml:"types"`
	Regions       []string `yaml:"regions"`
	Descriptions  []string `yaml:"descriptions"`
	Features      []string `yaml:"features"`
	Secrets       []string `yaml:"secrets"`
	Inhabitants   []string `yaml:"inhabitants"`
}

// LoreTables seeds the lore fallback.
type LoreTables struct {
	Categories []string `yaml:"categories"`
	Titles     []string `yaml:"titles"`
	Openings   []string `yaml:"openings"`
	Events     []string `yaml:"events"`
}

// EncounterTables seeds the encounter fallback.
type EncounterTables struct {
	Names        []string `yaml:"names"`
	Enemies      []string `yaml:"enemies"`
	Environments []string `yaml:"environments"`
	Tactics      []string `yaml:"tactics"`
	Rewards      []string `yaml:"rewards"`
}

// TableSet is the full set of tables for one genre.
type TableSet struct {
	Genre       Genre           `yaml:"genre"`
	GameSystems []string        `yaml:"game_systems"`
	NPC         NPCTables       `yaml:"npc"`
	Location    LocationTables  `yaml:"location"`
	Lore        LoreTables      `yaml:"lore"`
	Encounter   EncounterTables `yaml:"encounter"`
}

// Matches reports whether gameSystem names a system that uses this genre.
// Matching is case-insensitive on substrings, so "D&D 5e" matches "d&d".
func (s *TableSet) Matches(gameSystem string) bool {
	gs := strings.ToLower(strings.TrimSpace(gameSystem))
	if gs == "" {
		return false
	}
	for _, name := range s.GameSystems {
		if strings.Contains(gs, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// ParseTableSet decodes a YAML table set.
func ParseTableSet(data []byte) (*TableSet, error) {
	var set TableSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse table set: %w", err)
	}
	if set.Genre == "" {
		return nil, errors.New("parse table set: missing genre")
	}
	return &set, nil
}

// loadEmbedded decodes every table set shipped with the binary.
func loadEmbedded() ([]*TableSet, error) {
	entries, err := fs.ReadDir(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("read embedded tables: %w", err)
	}
	sets := make([]*TableSet, 0, len(entries))
	for _, e := range entries {
		data, err := dataFS.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		set, err := ParseTableSet(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}
