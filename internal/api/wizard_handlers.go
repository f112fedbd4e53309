package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
	"github.com/hyperengineering/tablekeep/internal/wizard"
)

// WizardResponse is the wizard state plus what the UI needs to render it.
type WizardResponse struct {
	wizard.State
	Field      types.Field                 `json:"field,omitempty"`
	ReviewStep int                         `json:"review_step"`
	CanProceed bool                        `json:"can_proceed"`
	Gate       *validation.ValidationError `json:"gate,omitempty"`
	// Warning reports a draft save that failed after the position moved.
	Warning string `json:"warning,omitempty"`
}

// UpdateFieldRequest is the body of PUT /wizard/fields/{field}.
type UpdateFieldRequest struct {
	Value any `json:"value"`
}

// GoToStepRequest is the body of POST /wizard/goto.
type GoToStepRequest struct {
	Step int `json:"step"`
}

// CompleteResponse is the body of POST /wizard/complete and POST /generate.
type CompleteResponse struct {
	Batch    *orchestrator.Batch            `json:"batch"`
	Summary  []orchestrator.CategorySummary `json:"summary"`
	Progress []string                       `json:"progress"`
}

func wizardResponse(wz *wizard.Wizard, warning string) WizardResponse {
	st := wz.State()
	field, _ := wizard.FieldForStep(st.StepIndex)
	gate := wz.Gate()
	return WizardResponse{
		State:      st,
		Field:      field,
		ReviewStep: wizard.ReviewStep,
		CanProceed: gate == nil,
		Gate:       gate,
		Warning:    warning,
	}
}

// session mounts the wizard for the campaign in context, writing the error
// response itself when that fails.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, bool) {
	c := MustCampaignFromContext(r.Context())
	wz, err := h.sessions.Get(r.Context(), c.ID)
	if err != nil {
		slog.Error("wizard mount failed",
			"component", "api",
			"campaign_id", c.ID,
			"error", err,
		)
		MapStoreError(w, r, err)
		return nil, false
	}
	return wz, true
}

// WizardState handles GET /api/v1/campaigns/{campaign_id}/wizard
func (h *Handler) WizardState(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wizardResponse(wz, ""))
}

// UpdateField handles PUT /api/v1/campaigns/{campaign_id}/wizard/fields/{field}
func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	field, ok := types.ParseField(chi.URLParam(r, "field"))
	if !ok {
		WriteProblem(w, r, http.StatusBadRequest, "Unknown frame field: "+chi.URLParam(r, "field"))
		return
	}
	var req UpdateFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := wz.UpdateData(field, req.Value); err != nil {
		if errors.Is(err, wizard.ErrAlreadyCompleted) {
			MapStoreError(w, r, err)
			return
		}
		WriteProblemWithErrors(w, r, "Value has the wrong shape for this field", []validation.ValidationError{
			{Field: string(field), Message: err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, wizardResponse(wz, ""))
}

// LoadTemplate handles POST /api/v1/campaigns/{campaign_id}/wizard/template
func (h *Handler) LoadTemplate(w http.ResponseWriter, r *http.Request) {
	var t types.FrameTemplate
	if !decodeJSON(w, r, &t) {
		return
	}
	if v := validation.ValidateRequired("id", t.ID); v != nil {
		WriteProblemWithErrors(w, r, "Template is invalid", []validation.ValidationError{*v})
		return
	}
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := wz.LoadTemplate(t); err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wizardResponse(wz, ""))
}

// GoToStep handles POST /api/v1/campaigns/{campaign_id}/wizard/goto
// Backward jumps are always allowed; forward jumps only to completed steps.
func (h *Handler) GoToStep(w http.ResponseWriter, r *http.Request) {
	var req GoToStepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wz, ok := h.session(w, r)
	if !ok {
		return
	}

	if req.Step < 0 || req.Step > wizard.ReviewStep {
		MapStoreError(w, r, fmt.Errorf("%w: %d", wizard.ErrStepOutOfRange, req.Step))
		return
	}
	if !wz.CanGoTo(req.Step) {
		WriteProblemConflict(w, r, fmt.Sprintf("Step %d has not been reached yet", req.Step))
		return
	}
	if err := wz.GoToStep(req.Step); err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wizardResponse(wz, ""))
}

// NextStep handles POST /api/v1/campaigns/{campaign_id}/wizard/next
// The current step's gate must pass. A failed draft save does not undo the
// move; it is reported as a warning.
func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	if wz.Completed() {
		MapStoreError(w, r, wizard.ErrAlreadyCompleted)
		return
	}
	if gate := wz.Gate(); gate != nil {
		WriteProblemWithErrors(w, r, "Current step is incomplete", []validation.ValidationError{*gate})
		return
	}

	warning := ""
	if err := wz.NextStep(r.Context()); err != nil {
		warning = "Draft could not be saved"
	}
	writeJSON(w, http.StatusOK, wizardResponse(wz, warning))
}

// PreviousStep handles POST /api/v1/campaigns/{campaign_id}/wizard/previous
func (h *Handler) PreviousStep(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	wz.PreviousStep()
	writeJSON(w, http.StatusOK, wizardResponse(wz, ""))
}

// SaveDraft handles POST /api/v1/campaigns/{campaign_id}/wizard/draft
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := wz.SaveDraft(r.Context()); err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wizardResponse(wz, ""))
}

// CompleteWizard handles POST /api/v1/campaigns/{campaign_id}/wizard/complete
// It finalizes the frame and generates starter content in the same request.
func (h *Handler) CompleteWizard(w http.ResponseWriter, r *http.Request) {
	c := MustCampaignFromContext(r.Context())
	creds, provider, err := h.requestCredentials(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	wz, ok := h.session(w, r)
	if !ok {
		return
	}
	if wz.Completed() {
		MapStoreError(w, r, wizard.ErrAlreadyCompleted)
		return
	}

	var progress []string
	batch, err := h.orchestrator.Finish(r.Context(), wz, orchestrator.Request{
		Campaign:    *c,
		Credentials: creds,
		Provider:    provider,
		Progress:    func(line string) { progress = append(progress, line) },
	})
	if err != nil {
		slog.Error("campaign completion failed",
			"component", "api",
			"campaign_id", c.ID,
			"error", err,
		)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Batch: batch, Summary: batch.Summary(), Progress: progress})
}
