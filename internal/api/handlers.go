package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/wizard"
)

// Caller-supplied provider keys. They override the server defaults per request.
const (
	headerOpenAIKey    = "X-OpenAI-Key"
	headerAnthropicKey = "X-Anthropic-Key"
	headerHordeKey     = "X-Horde-Key"
	headerProvider     = "X-Generation-Provider"
)

// maxBodyBytes caps request bodies; a full frame is a few kilobytes.
const maxBodyBytes = 1 << 20

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Store        store.Store
	Sessions     *wizard.SessionManager
	Orchestrator *orchestrator.Orchestrator
	// Interactive is the backend for single-item generation, usually a
	// generation.Gate enforcing the minimum interval between calls.
	Interactive generation.Backend
	Prompts     *prompt.Builder
	Metrics     *metrics.Metrics
	// Credentials are server-side defaults merged under caller keys.
	Credentials generation.Credentials
	APIKey      string
	Version     string
	// GenerateRequestsPerMinute limits generation routes per client IP.
	// Zero disables the limit.
	GenerateRequestsPerMinute int
}

// Handler implements the API handlers
type Handler struct {
	store        store.Store
	sessions     *wizard.SessionManager
	orchestrator *orchestrator.Orchestrator
	interactive  generation.Backend
	prompts      *prompt.Builder
	metrics      *metrics.Metrics
	credentials  generation.Credentials
	apiKey       string
	version      string
	generateRPM  int
}

// NewHandler creates a new Handler from its dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:        d.Store,
		sessions:     d.Sessions,
		orchestrator: d.Orchestrator,
		interactive:  d.Interactive,
		prompts:      d.Prompts,
		metrics:      d.Metrics,
		credentials:  d.Credentials,
		apiKey:       d.APIKey,
		version:      d.Version,
		generateRPM:  d.GenerateRequestsPerMinute,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:         "healthy",
		Version:        h.version,
		ActiveSessions: h.sessions.Len(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// requestCredentials merges caller-supplied keys over the server defaults and
// reads the preferred text provider.
func (h *Handler) requestCredentials(r *http.Request) (generation.Credentials, generation.Provider, error) {
	creds := generation.Credentials{
		OpenAIKey:    r.Header.Get(headerOpenAIKey),
		AnthropicKey: r.Header.Get(headerAnthropicKey),
		HordeKey:     r.Header.Get(headerHordeKey),
	}.Merge(h.credentials)

	provider, err := generation.ParseProvider(r.Header.Get(headerProvider))
	if err != nil {
		return creds, "", err
	}
	return creds, provider, nil
}
