package wizard

import (
	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
)

// ReviewStep is the index of the review step that follows the last field.
var ReviewStep = len(types.FrameFields)

// LastFieldStep is the index of the last data-entry step.
var LastFieldStep = ReviewStep - 1

// FieldForStep returns the frame field edited at step, or false for the
// review step and out-of-range indices.
func FieldForStep(step int) (types.Field, bool) {
	if step < 0 || step >= len(types.FrameFields) {
		return "", false
	}
	return types.FrameFields[step], true
}

// StepOf returns the step index that edits field, or -1.
func StepOf(field types.Field) int {
	for i, f := range types.FrameFields {
		if f == field {
			return i
		}
	}
	return -1
}

// CheckStep returns the gate failure for step, or nil if the user may proceed.
// Steps without a gate always pass.
func CheckStep(step int, frame types.CampaignFrame) *validation.ValidationError {
	field, ok := FieldForStep(step)
	if !ok {
		return nil
	}
	name := string(field)
	switch field {
	case types.FieldPitch:
		return validation.ValidateLongerThan(name, frame.Pitch, 10)
	case types.FieldToneAndFeel:
		return validation.ValidateNonEmptyList(name, frame.ToneAndFeel)
	case types.FieldThemes:
		return validation.ValidateNonEmptyList(name, frame.Themes)
	case types.FieldTouchstones:
		return validation.ValidateNonEmptyList(name, frame.Touchstones)
	case types.FieldOverview:
		return validation.ValidateLongerThan(name, frame.Overview, 20)
	case types.FieldIncitingIncident:
		return validation.ValidateLongerThan(name, frame.IncitingIncident, 10)
	}
	return nil
}

// CanProceedFrom reports whether step's gate passes for frame.
func CanProceedFrom(step int, frame types.CampaignFrame) bool {
	return CheckStep(step, frame) == nil
}
