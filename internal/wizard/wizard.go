// Package wizard implements the campaign-frame questionnaire: fifteen ordered
// steps, one per frame field, followed by a review step.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
)

var (
	// ErrFinalize wraps failures to finalize the frame on completion.
	ErrFinalize = errors.New("finalize frame")

	// ErrStepOutOfRange is returned for step indices outside 0..ReviewStep.
	ErrStepOutOfRange = errors.New("step out of range")

	// ErrAlreadyCompleted is returned when editing a completed frame.
	ErrAlreadyCompleted = errors.New("frame already completed")
)

// Options tunes wizard navigation.
type Options struct {
	// AdvanceToReview lets NextStep move from the last field step onto the
	// review step. When false NextStep stops at the last field step and the
	// caller jumps to review with GoToStep.
	AdvanceToReview bool
}

// State is a point-in-time copy of the wizard.
type State struct {
	CampaignID     string              `json:"campaign_id"`
	StepIndex      int                 `json:"step_index"`
	CompletedSteps []int               `json:"completed_steps"`
	Frame          types.CampaignFrame `json:"frame"`
	TemplateID     string              `json:"template_id,omitempty"`
	Completed      bool                `json:"completed"`
}

// Wizard holds the in-progress frame for one campaign. Methods are safe for
// concurrent use; the draft itself is last-write-wins.
type Wizard struct {
	campaignID string
	cp         *Checkpointer
	opts       Options

	mu         sync.Mutex
	frame      types.CampaignFrame
	step       int
	completed  map[int]bool
	templateID string
	done       bool

	// edits counts frame changes; saved is the count last written as a draft.
	edits int
	saved int
}

// New returns a wizard at step 0 with an empty frame.
func New(campaignID string, cp *Checkpointer, opts Options) *Wizard {
	return &Wizard{
		campaignID: campaignID,
		cp:         cp,
		opts:       opts,
		completed:  make(map[int]bool),
	}
}

// Mount returns a wizard restored from the checkpoint tiers.
func Mount(ctx context.Context, campaignID string, cp *Checkpointer, opts Options) (*Wizard, error) {
	restored, err := cp.Restore(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("restore wizard: %w", err)
	}

	w := New(campaignID, cp, opts)
	w.frame = restored.Frame
	w.templateID = restored.TemplateID
	w.step = clampStep(restored.Progress.StepIndex)
	for _, s := range restored.Progress.CompletedSteps {
		if s >= 0 && s < ReviewStep {
			w.completed[s] = true
		}
	}
	w.done = restored.Status == types.FrameCompleted

	slog.Info("wizard mounted",
		"component", "wizard",
		"campaign_id", campaignID,
		"source", restored.Source,
		"step", w.step,
	)
	return w, nil
}

func clampStep(i int) int {
	if i < 0 {
		return 0
	}
	if i > ReviewStep {
		return ReviewStep
	}
	return i
}

// CampaignID returns the campaign this wizard edits.
func (w *Wizard) CampaignID() string {
	return w.campaignID
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		CampaignID:     w.campaignID,
		StepIndex:      w.step,
		CompletedSteps: w.completedList(),
		Frame:          w.frame,
		TemplateID:     w.templateID,
		Completed:      w.done,
	}
}

// UpdateData replaces one field. No validation is applied; an error is only
// returned for an unknown field or a value of the wrong shape.
func (w *Wizard) UpdateData(field types.Field, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrAlreadyCompleted
	}
	if err := w.frame.Set(field, value); err != nil {
		return err
	}
	w.edits++
	return nil
}

// LoadTemplate overwrites every field from t and records its id. Step
// position and completed steps are left alone.
func (w *Wizard) LoadTemplate(t types.FrameTemplate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrAlreadyCompleted
	}
	w.frame = t.Frame
	w.templateID = t.ID
	w.edits++
	return nil
}

// GoToStep jumps to step unconditionally. Use CanGoTo to apply navigation policy.
func (w *Wizard) GoToStep(step int) error {
	if step < 0 || step > ReviewStep {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, step)
	}
	w.mu.Lock()
	w.step = step
	p := w.progress()
	w.mu.Unlock()

	w.cp.Progress(w.campaignID, p)
	return nil
}

// CanGoTo reports whether navigation policy allows jumping to step: back to
// any earlier step, forward to one already completed, or to review once every
// field step is completed.
func (w *Wizard) CanGoTo(step int) bool {
	if step < 0 || step > ReviewStep {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if step <= w.step || w.completed[step] {
		return true
	}
	if step != ReviewStep {
		return false
	}
	for i := 0; i < ReviewStep; i++ {
		if !w.completed[i] {
			return false
		}
	}
	return true
}

// NextStep marks the current step completed, advances and saves the draft
// with the new position. The position advances even when the save fails;
// the error is returned so the caller can report it.
func (w *Wizard) NextStep(ctx context.Context) error {
	w.mu.Lock()
	if w.step < ReviewStep {
		w.completed[w.step] = true
	}
	limit := LastFieldStep
	if w.opts.AdvanceToReview {
		limit = ReviewStep
	}
	if w.step < limit {
		w.step++
	}
	snap, err := w.snapshot()
	p := w.progress()
	edits := w.edits
	w.mu.Unlock()

	w.cp.Progress(w.campaignID, p)
	if err != nil {
		return err
	}
	return w.saveDraft(ctx, snap, edits)
}

// PreviousStep moves back one step, stopping at 0.
func (w *Wizard) PreviousStep() {
	w.mu.Lock()
	if w.step > 0 {
		w.step--
	}
	p := w.progress()
	w.mu.Unlock()

	w.cp.Progress(w.campaignID, p)
}

// SaveDraft persists the current frame and position without advancing.
func (w *Wizard) SaveDraft(ctx context.Context) error {
	w.mu.Lock()
	snap, err := w.snapshot()
	edits := w.edits
	w.mu.Unlock()
	if err != nil {
		return err
	}
	return w.saveDraft(ctx, snap, edits)
}

// Unsaved reports whether the frame has edits no draft save has persisted.
func (w *Wizard) Unsaved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.done && w.edits > w.saved
}

func (w *Wizard) saveDraft(ctx context.Context, snap types.FrameSnapshot, edits int) error {
	if err := w.cp.Draft(ctx, snap); err != nil {
		slog.Warn("draft save failed",
			"component", "wizard",
			"campaign_id", w.campaignID,
			"error", err,
		)
		return fmt.Errorf("save draft: %w", err)
	}
	w.mu.Lock()
	w.saved = max(w.saved, edits)
	w.mu.Unlock()
	return nil
}

// CanProceed reports whether the current step's gate passes.
func (w *Wizard) CanProceed() bool {
	return w.Gate() == nil
}

// Gate returns why the current step cannot proceed, or nil.
func (w *Wizard) Gate() *validation.ValidationError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return CheckStep(w.step, w.frame)
}

// Complete finalizes the frame. On success local progress is discarded and
// the wizard is marked completed. Calling it again finalizes again.
func (w *Wizard) Complete(ctx context.Context) (*types.FrameSnapshot, error) {
	w.mu.Lock()
	snap, err := w.snapshot()
	w.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFinalize, err)
	}
	snap.Status = types.FrameCompleted

	final, err := w.cp.Finalize(ctx, snap)
	if err != nil {
		slog.Error("frame finalize failed",
			"component", "wizard",
			"campaign_id", w.campaignID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrFinalize, err)
	}

	w.cp.Discard(w.campaignID)
	w.mu.Lock()
	w.done = true
	w.mu.Unlock()

	slog.Info("frame completed",
		"component", "wizard",
		"campaign_id", w.campaignID,
		"template_id", snap.TemplateID,
	)
	return final, nil
}

// Completed reports whether Complete has succeeded.
func (w *Wizard) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// snapshot builds the durable representation. Caller must hold w.mu.
func (w *Wizard) snapshot() (types.FrameSnapshot, error) {
	fields, err := w.frame.Compact()
	if err != nil {
		return types.FrameSnapshot{}, err
	}
	return types.FrameSnapshot{
		CampaignID: w.campaignID,
		Fields:     fields,
		Progress:   w.progress(),
		TemplateID: w.templateID,
		Status:     types.FrameDraft,
	}, nil
}

// progress returns the current position. Caller must hold w.mu.
func (w *Wizard) progress() types.Progress {
	return types.Progress{StepIndex: w.step, CompletedSteps: w.completedList()}
}

func (w *Wizard) completedList() []int {
	steps := make([]int, 0, len(w.completed))
	for s := range w.completed {
		steps = append(steps, s)
	}
	sort.Ints(steps)
	return steps
}
