package tables

import (
	"sort"
	"sync"
)

// registry holds the table set for each genre.
var (
	registryMu sync.RWMutex
	sets       = make(map[Genre]*TableSet)
	generic    *TableSet // fallback when no genre matches
)

func init() {
	embedded, err := loadEmbedded()
	if err != nil {
		panic(err)
	}
	for _, s := range embedded {
		Register(s)
	}
	SetGeneric(sets[GenreFantasy])
}

// Register adds a table set to the registry.
// Panics if a set for the same genre is already registered.
func Register(s *TableSet) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := sets[s.Genre]; exists {
		panic("table set already registered: " + string(s.Genre))
	}
	sets[s.Genre] = s
}

// Get returns the table set for genre.
// If none is registered, returns the generic set.
// The boolean indicates whether a genre-specific set was found.
func Get(genre Genre) (*TableSet, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if s, ok := sets[genre]; ok {
		return s, true
	}
	return generic, false
}

// ForGameSystem returns the table set whose game-system list matches
// gameSystem, or the generic set when none does.
func ForGameSystem(gameSystem string) *TableSet {
	registryMu.RLock()
	defer registryMu.RUnlock()

	genres := make([]string, 0, len(sets))
	for g := range sets {
		genres = append(genres, string(g))
	}
	sort.Strings(genres)
	for _, g := range genres {
		if s := sets[Genre(g)]; s.Matches(gameSystem) {
			return s
		}
	}
	return generic
}

// SetGeneric sets the fallback set used when no genre matches.
func SetGeneric(s *TableSet) {
	registryMu.Lock()
	defer registryMu.Unlock()
	generic = s
}

// Genres returns all registered genres, sorted.
func Genres() []Genre {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Genre, 0, len(sets))
	for g := range sets {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset clears the registry. Only for testing.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	sets = make(map[Genre]*TableSet)
	generic = nil
}
