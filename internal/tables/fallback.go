package tables

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/tablekeep/internal/types"
)

// fallbackPartyLevel is the level fallback encounters are pitched at.
const fallbackPartyLevel = 1

// fallbackDifficulties cycles by encounter index.
var fallbackDifficulties = []types.Difficulty{
	types.DifficultyEasy,
	types.DifficultyMedium,
	types.DifficultyHard,
}

// Lore builds the index-th offline lore entry for a campaign, weaving the
// frame's themes and distinctions into table-drawn prose.
func (g *Generator) Lore(set *TableSet, frame types.CampaignFrame, index int) (types.Lore, error) {
	p := &picker{g: g}
	title := p.from("lore.titles", set.Lore.Titles)
	opening := p.from("lore.openings", set.Lore.Openings)
	event := p.from("lore.events", set.Lore.Events)
	if p.err != nil {
		return types.Lore{}, fmt.Errorf("generate lore: %w", p.err)
	}

	category := "history"
	if len(set.Lore.Categories) > 0 {
		category = set.Lore.Categories[index%len(set.Lore.Categories)]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s.", opening, event)
	if len(frame.Distinctions) > 0 {
		d := frame.Distinctions[index%len(frame.Distinctions)]
		fmt.Fprintf(&b, " Some say this is the true origin of %s.", d.Name)
	}
	tags := []string{category}
	if len(frame.Themes) > 0 {
		theme := frame.Themes[index%len(frame.Themes)]
		fmt.Fprintf(&b, " The tale is still told whenever %s is at stake.", strings.ToLower(theme))
		tags = append(tags, theme)
	}

	return types.Lore{
		Title:    title,
		Category: category,
		Content:  b.String(),
		Tags:     tags,
	}, nil
}

// Encounter builds the index-th offline encounter. The first encounter ties
// into the inciting incident when the frame has one.
func (g *Generator) Encounter(set *TableSet, frame types.CampaignFrame, index int) (types.Encounter, error) {
	p := &picker{g: g}
	enc := types.Encounter{
		Name:        p.from("encounter.names", set.Encounter.Names),
		Difficulty:  fallbackDifficulties[index%len(fallbackDifficulties)],
		PartyLevel:  fallbackPartyLevel,
		Environment: p.from("encounter.environments", set.Encounter.Environments),
		Enemies:     p.from("encounter.enemies", set.Encounter.Enemies),
		Tactics:     p.from("encounter.tactics", set.Encounter.Tactics),
		Rewards:     p.from("encounter.rewards", set.Encounter.Rewards),
	}
	if p.err != nil {
		return types.Encounter{}, fmt.Errorf("generate encounter: %w", p.err)
	}

	if index == 0 && frame.IncitingIncident != "" {
		enc.Description = fmt.Sprintf("The party faces %s in %s, in the aftermath of this: %s",
			enc.Enemies, enc.Environment, frame.IncitingIncident)
	} else {
		enc.Description = fmt.Sprintf("The party faces %s in %s.", enc.Enemies, enc.Environment)
	}
	return enc, nil
}
