package orchestrator

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/tablekeep/internal/types"
)

// Timeline derives the campaign's starting timeline from its frame: an
// ancient and a recent event always, and a present-day event when the frame
// has an inciting incident.
func Timeline(frame types.CampaignFrame) []types.TimelineEvent {
	ancient := types.TimelineEvent{
		Title:        "The Age Before",
		Era:          types.EraAncientPast,
		Date:         "Ages ago",
		Description:  "The world takes the shape the campaign inherits.",
		Significance: "Foundation of the setting",
	}
	if len(frame.Distinctions) > 0 {
		d := frame.Distinctions[0]
		ancient.Title = "The Origin of " + d.Name
		if d.Description != "" {
			ancient.Description = d.Description
		}
	} else if frame.Overview != "" {
		ancient.Description = firstSentence(frame.Overview)
	}

	recent := types.TimelineEvent{
		Title:        "Rising Tensions",
		Era:          types.EraRecentPast,
		Date:         "Recent years",
		Description:  "Old grievances resurface and the status quo begins to crack.",
		Significance: "Sets the stage for the campaign",
	}
	if len(frame.Themes) > 0 {
		recent.Description = fmt.Sprintf("Conflicts over %s grow harder to ignore.",
			strings.ToLower(strings.Join(frame.Themes, " and ")))
	}

	events := []types.TimelineEvent{ancient, recent}
	if frame.IncitingIncident != "" {
		events = append(events, types.TimelineEvent{
			Title:        "The Inciting Incident",
			Era:          types.EraPresentDay,
			Date:         "Present day",
			Description:  frame.IncitingIncident,
			Significance: "The campaign begins here",
		})
	}
	return events
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		return s[:i+1]
	}
	return s
}
