package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/validation"
	"github.com/hyperengineering/tablekeep/internal/wizard"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

const problemBaseURI = "https://tablekeep.dev/errors/"

type problemType struct {
	slug  string
	title string
}

var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {"bad-request", "Bad Request"},
	http.StatusUnauthorized:        {"unauthorized", "Unauthorized"},
	http.StatusNotFound:            {"not-found", "Not Found"},
	http.StatusConflict:            {"conflict", "Conflict"},
	http.StatusUnprocessableEntity: {"validation-error", "Validation Error"},
	http.StatusTooManyRequests:     {"rate-limit", "Too Many Requests"},
	http.StatusInternalServerError: {"internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {"upstream-error", "Bad Gateway"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{slug: "unknown", title: http.StatusText(status)}
	}
	return Problem{
		Type:     problemBaseURI + pt.slug,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "component", "api", "error", err)
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

// WriteProblemConflict writes a 409 Conflict problem response.
func WriteProblemConflict(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(w, r, http.StatusConflict, detail)
}

// errorProblems maps domain sentinels to responses, first match wins. An
// empty detail means the error text is safe to show.
var errorProblems = []struct {
	target error
	status int
	detail string
}{
	{store.ErrCampaignNotFound, http.StatusNotFound, "Campaign not found"},
	{store.ErrEntityNotFound, http.StatusNotFound, "Entity not found"},
	{store.ErrFrameNotFound, http.StatusNotFound, "Campaign frame not found"},
	{store.ErrFrameCompleted, http.StatusConflict, "Campaign frame already completed"},
	{wizard.ErrAlreadyCompleted, http.StatusConflict, "Campaign frame already completed"},
	{wizard.ErrStepOutOfRange, http.StatusBadRequest, ""},
	{generation.ErrNoCredentials, http.StatusBadRequest, "No generation credentials supplied"},
	{generation.ErrRateLimited, http.StatusTooManyRequests, "Generation requests are too frequent"},
}

// MapStoreError converts domain errors to Problem Details responses. Unknown
// errors become a bare 500 so internals never reach the client.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	for _, ep := range errorProblems {
		if errors.Is(err, ep.target) {
			detail := ep.detail
			if detail == "" {
				detail = err.Error()
			}
			WriteProblem(w, r, ep.status, detail)
			return
		}
	}
	WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
}
