package wizard

import (
	"strings"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/types"
)

func TestCheckStep_EmptyFrame(t *testing.T) {
	gated := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 11: true}
	var frame types.CampaignFrame

	for step := 0; step <= LastFieldStep; step++ {
		got := CanProceedFrom(step, frame)
		if got == gated[step] {
			t.Errorf("step %d (%s): CanProceed = %v on empty frame", step, types.FrameFields[step], got)
		}
	}
	if !CanProceedFrom(ReviewStep, frame) {
		t.Error("review step should always pass")
	}
}

func TestCheckStep_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		step  int
		frame types.CampaignFrame
		want  bool
	}{
		{"pitch 10 chars", 0, types.CampaignFrame{Pitch: strings.Repeat("a", 10)}, false},
		{"pitch 11 chars", 0, types.CampaignFrame{Pitch: strings.Repeat("a", 11)}, true},
		{"tone one entry", 1, types.CampaignFrame{ToneAndFeel: []string{"grim"}}, true},
		{"themes one entry", 2, types.CampaignFrame{Themes: []string{"debt"}}, true},
		{"touchstones empty slice", 3, types.CampaignFrame{Touchstones: []string{}}, false},
		{"touchstones one entry", 3, types.CampaignFrame{Touchstones: []string{"Dune"}}, true},
		{"overview 20 chars", 4, types.CampaignFrame{Overview: strings.Repeat("a", 20)}, false},
		{"overview 21 chars", 4, types.CampaignFrame{Overview: strings.Repeat("a", 21)}, true},
		{"incident 10 chars", 11, types.CampaignFrame{IncitingIncident: strings.Repeat("a", 10)}, false},
		{"incident 11 chars", 11, types.CampaignFrame{IncitingIncident: strings.Repeat("a", 11)}, true},
		{"communities ungated", 5, types.CampaignFrame{}, true},
		{"session zero ungated", 14, types.CampaignFrame{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanProceedFrom(tt.step, tt.frame); got != tt.want {
				t.Errorf("CanProceedFrom(%d) = %v, want %v", tt.step, got, tt.want)
			}
		})
	}
}

func TestCheckStep_ReportsField(t *testing.T) {
	err := CheckStep(4, types.CampaignFrame{Overview: "short"})
	if err == nil {
		t.Fatal("expected gate failure")
	}
	if err.Field != "overview" {
		t.Errorf("Field = %q, want overview", err.Field)
	}
}

func TestFieldForStep(t *testing.T) {
	if f, ok := FieldForStep(0); !ok || f != types.FieldPitch {
		t.Errorf("FieldForStep(0) = %q, %v", f, ok)
	}
	if _, ok := FieldForStep(ReviewStep); ok {
		t.Error("review step has no field")
	}
	if StepOf(types.FieldSessionZero) != 14 {
		t.Errorf("StepOf(sessionZero) = %d, want 14", StepOf(types.FieldSessionZero))
	}
	if StepOf("nope") != -1 {
		t.Error("StepOf(unknown) should be -1")
	}
}
