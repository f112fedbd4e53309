package tables

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hyperengineering/tablekeep/internal/types"
)

// Generator samples records uniformly from a TableSet. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded with seed, so output is reproducible.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomGenerator returns a Generator seeded from the clock.
func NewRandomGenerator() *Generator {
	return NewGenerator(uint64(time.Now().UnixNano()))
}

// pick returns a uniformly chosen entry of list.
func (g *Generator) pick(table string, list []string) (string, error) {
	if len(list) == 0 {
		return "", fmt.Errorf("%s: %w", table, ErrEmptyTable)
	}
	g.mu.Lock()
	i := g.rng.IntN(len(list))
	g.mu.Unlock()
	return list[i], nil
}

// picker collects the first sampling error so callers can draw several
// fields and check once.
type picker struct {
	g   *Generator
	err error
}

func (p *picker) from(table string, list []string) string {
	if p.err != nil {
		return ""
	}
	v, err := p.g.pick(table, list)
	if err != nil {
		p.err = err
	}
	return v
}

// NPC draws a random NPC from set.
func (g *Generator) NPC(set *TableSet) (types.NPC, error) {
	p := &picker{g: g}
	npc := types.NPC{
		Name:         p.from("npc.first_names", set.NPC.FirstNames) + " " + p.from("npc.last_names", set.NPC.LastNames),
		Occupation:   p.from("npc.occupations", set.NPC.Occupations),
		Location:     p.from("npc.locations", set.NPC.Locations),
		Relationship: types.Relationship(p.from("relationships", types.Relationships)),
		Description:  p.from("npc.descriptions", set.NPC.Descriptions),
		Notes:        p.from("npc.notes", set.NPC.Notes),
		FirstMet:     p.from("npc.first_met", set.NPC.FirstMet),
	}
	if p.err != nil {
		return types.NPC{}, fmt.Errorf("generate npc: %w", p.err)
	}
	return npc, nil
}

// Location draws a random location from set.
func (g *Generator) Location(set *TableSet) (types.Location, error) {
	p := &picker{g: g}
	loc := types.Location{
		Name: p.from("location.name_prefixes", set.Location.NamePrefixes) +
			set.Location.NameSeparator +
			p.from("location.name_suffixes", set.Location.NameSuffixes),
		Type:            locationType(p.from("location.types", set.Location.Types)),
		Region:          p.from("location.regions", set.Location.Regions),
		Description:     p.from("location.descriptions", set.Location.Descriptions),
		NotableFeatures: p.from("location.features", set.Location.Features),
		Secrets:         p.from("location.secrets", set.Location.Secrets),
		Inhabitants:     p.from("location.inhabitants", set.Location.Inhabitants),
	}
	if p.err != nil {
		return types.Location{}, fmt.Errorf("generate location: %w", p.err)
	}
	return loc, nil
}

func locationType(s string) types.LocationType {
	if types.Contains(types.LocationTypes, s) {
		return types.LocationType(s)
	}
	return types.LocationOther
}
