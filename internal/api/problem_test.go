package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/validation"
	"github.com/hyperengineering/tablekeep/internal/wizard"
)

func TestProblem_JSONSerialization(t *testing.T) {
	p := Problem{
		Type:     "https://tablekeep.dev/errors/unauthorized",
		Title:    "Unauthorized",
		Status:   401,
		Detail:   "Missing or invalid API key",
		Instance: "/api/v1/campaigns",
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal Problem: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal Problem JSON: %v", err)
	}

	if decoded["type"] != "https://tablekeep.dev/errors/unauthorized" {
		t.Errorf("type = %v", decoded["type"])
	}
	if decoded["title"] != "Unauthorized" {
		t.Errorf("title = %v, want Unauthorized", decoded["title"])
	}
	if decoded["status"] != float64(401) {
		t.Errorf("status = %v, want 401", decoded["status"])
	}
	if decoded["instance"] != "/api/v1/campaigns" {
		t.Errorf("instance = %v, want /api/v1/campaigns", decoded["instance"])
	}
}

func TestWriteProblem_BodyFormat(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)

	WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if p.Type != "https://tablekeep.dev/errors/unauthorized" {
		t.Errorf("type = %v", p.Type)
	}
	if p.Detail != "Missing or invalid API key" {
		t.Errorf("detail = %v", p.Detail)
	}
	if p.Instance != "/api/v1/campaigns" {
		t.Errorf("instance = %v, want /api/v1/campaigns", p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteProblem(w, r, http.StatusTeapot, "short and stout")

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Type != "https://tablekeep.dev/errors/unknown" {
		t.Errorf("type = %v", p.Type)
	}
	if p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("title = %v", p.Title)
	}
}

func TestWriteProblemWithErrors_422(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns", nil)

	errs := []validation.ValidationError{
		{Field: "name", Message: "is required"},
	}
	WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if p.Type != "https://tablekeep.dev/errors/validation-error" {
		t.Errorf("type = %v", p.Type)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "name" {
		t.Errorf("errors = %+v", p.Errors)
	}
}

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"campaign not found", store.ErrCampaignNotFound, http.StatusNotFound, "Campaign not found"},
		{"entity not found", fmt.Errorf("get: %w", store.ErrEntityNotFound), http.StatusNotFound, "Entity not found"},
		{"frame not found", store.ErrFrameNotFound, http.StatusNotFound, "Campaign frame not found"},
		{"frame completed", fmt.Errorf("%w: %w", wizard.ErrFinalize, store.ErrFrameCompleted), http.StatusConflict, "Campaign frame already completed"},
		{"wizard completed", wizard.ErrAlreadyCompleted, http.StatusConflict, "Campaign frame already completed"},
		{"step out of range", fmt.Errorf("%w: 99", wizard.ErrStepOutOfRange), http.StatusBadRequest, "step out of range: 99"},
		{"no credentials", generation.ErrNoCredentials, http.StatusBadRequest, "No generation credentials supplied"},
		{"rate limited", generation.ErrRateLimited, http.StatusTooManyRequests, "Generation requests are too frequent"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/x", nil)

			MapStoreError(w, r, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var p Problem
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if p.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", p.Detail, tt.detail)
			}
		})
	}
}
