package orchestrator

import (
	"strings"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/types"
)

func TestTimeline(t *testing.T) {
	tests := []struct {
		name      string
		frame     types.CampaignFrame
		wantCount int
	}{
		{"empty frame", types.CampaignFrame{}, 2},
		{"with incident", types.CampaignFrame{IncitingIncident: "The bell rings"}, 3},
		{"full frame without incident", testFrame(false), 2},
		{"full frame with incident", testFrame(true), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Timeline(tt.frame)
			if len(events) != tt.wantCount {
				t.Fatalf("got %d events, want %d", len(events), tt.wantCount)
			}
			wantEras := []types.Era{types.EraAncientPast, types.EraRecentPast, types.EraPresentDay}
			for i, ev := range events {
				if ev.Era != wantEras[i] {
					t.Errorf("event %d era = %q, want %q", i, ev.Era, wantEras[i])
				}
				if ev.Title == "" || ev.Description == "" {
					t.Errorf("event %d missing title or description: %+v", i, ev)
				}
			}
		})
	}
}

func TestTimeline_UsesFrame(t *testing.T) {
	events := Timeline(testFrame(true))
	if events[0].Title != "The Origin of The Tides" {
		t.Errorf("ancient title = %q", events[0].Title)
	}
	if !strings.Contains(events[1].Description, "greed and loyalty") {
		t.Errorf("recent description = %q", events[1].Description)
	}
	if events[2].Description != "The vault bell rings at midnight" {
		t.Errorf("present description = %q", events[2].Description)
	}

	overviewOnly := Timeline(types.CampaignFrame{Overview: "First sentence. Second sentence."})
	if overviewOnly[0].Description != "First sentence." {
		t.Errorf("ancient description = %q", overviewOnly[0].Description)
	}
}
