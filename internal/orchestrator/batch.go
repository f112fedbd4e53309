package orchestrator

import (
	"github.com/hyperengineering/tablekeep/internal/types"
)

// Result is the outcome of producing and saving one item.
type Result struct {
	Kind   types.EntityKind `json:"kind"`
	Index  int              `json:"index"`
	Name   string           `json:"name,omitempty"`
	Source string           `json:"source,omitempty"`
	// EntityID is set when the item was saved.
	EntityID string `json:"entity_id,omitempty"`
	// GenerationError records why the AI path was abandoned, or why the item
	// could not be produced at all when Source is empty.
	GenerationError string `json:"generation_error,omitempty"`
	SaveError       string `json:"save_error,omitempty"`
}

// Generated reports whether an item was produced.
func (r Result) Generated() bool {
	return r.Source != ""
}

// Saved reports whether the item was persisted.
func (r Result) Saved() bool {
	return r.EntityID != ""
}

// CategorySummary aggregates the results for one kind.
type CategorySummary struct {
	Kind      types.EntityKind `json:"kind"`
	Generated int              `json:"generated"`
	Saved     int              `json:"saved"`
	Fallbacks int              `json:"fallbacks"`
	Failures  []string         `json:"failures,omitempty"`
}

// Batch is everything produced for a campaign in one run. It is returned for
// display and never persisted as a unit.
type Batch struct {
	CampaignID      string                `json:"campaign_id"`
	NPCs            []types.NPC           `json:"npcs"`
	Locations       []types.Location      `json:"locations"`
	Lore            []types.Lore          `json:"lore"`
	Encounters      []types.Encounter     `json:"encounters"`
	Timeline        []types.TimelineEvent `json:"timeline"`
	Quests          []types.Quest         `json:"quests"`
	PlayerLocations []types.Location      `json:"player_locations"`
	Map             *types.Map            `json:"map,omitempty"`
	Results         []Result              `json:"results"`
}

func newBatch(campaignID string) *Batch {
	return &Batch{
		CampaignID:      campaignID,
		NPCs:            []types.NPC{},
		Locations:       []types.Location{},
		Lore:            []types.Lore{},
		Encounters:      []types.Encounter{},
		Timeline:        []types.TimelineEvent{},
		Quests:          []types.Quest{},
		PlayerLocations: []types.Location{},
		Results:         []Result{},
	}
}

// Summary returns per-kind counts in the order kinds were first produced.
func (b *Batch) Summary() []CategorySummary {
	var order []types.EntityKind
	byKind := make(map[types.EntityKind]*CategorySummary)
	for _, r := range b.Results {
		s, ok := byKind[r.Kind]
		if !ok {
			s = &CategorySummary{Kind: r.Kind}
			byKind[r.Kind] = s
			order = append(order, r.Kind)
		}
		if r.Generated() {
			s.Generated++
		}
		if r.Saved() {
			s.Saved++
		}
		if r.Generated() && r.GenerationError != "" {
			s.Fallbacks++
		}
		if r.SaveError != "" {
			s.Failures = append(s.Failures, r.SaveError)
		} else if !r.Generated() && r.GenerationError != "" {
			s.Failures = append(s.Failures, r.GenerationError)
		}
	}

	out := make([]CategorySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *byKind[k])
	}
	return out
}

// SaveFailures counts generated items that could not be persisted.
func (b *Batch) SaveFailures() int {
	n := 0
	for _, r := range b.Results {
		if r.Generated() && !r.Saved() {
			n++
		}
	}
	return n
}

// Total counts generated items.
func (b *Batch) Total() int {
	n := 0
	for _, r := range b.Results {
		if r.Generated() {
			n++
		}
	}
	return n
}
