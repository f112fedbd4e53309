package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/wizard"
)

// fakeBackend answers every text call with reply or err and records the
// credentials it was handed.
type fakeBackend struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	creds []generation.Credentials
	users []string
}

func (b *fakeBackend) GenerateText(ctx context.Context, req generation.Request, creds generation.Credentials, provider generation.Provider) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.creds = append(b.creds, creds)
	b.users = append(b.users, req.User)
	return b.reply, b.err
}

func (b *fakeBackend) GenerateImage(ctx context.Context, prompt string, creds generation.Credentials) (*generation.Image, error) {
	return nil, generation.ErrNoCredentials
}

type testServer struct {
	router  *chi.Mux
	store   *store.SQLiteStore
	backend *fakeBackend
	metrics *metrics.Metrics
}

type serverOptions struct {
	generateRPM int
	defaults    generation.Credentials
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cache, err := wizard.NewLocalCache(wizard.CacheOptions{})
	if err != nil {
		t.Fatalf("NewLocalCache() error = %v", err)
	}
	sessions := wizard.NewSessionManager(wizard.NewCheckpointer(cache, st), wizard.Options{})

	prompts := prompt.MustNewBuilder()
	m := metrics.New()
	backend := &fakeBackend{reply: `{"name":"Mara Vell","occupation":"smuggler","relationship":"ally"}`}

	h := NewHandler(Deps{
		Store:    st,
		Sessions: sessions,
		// The content backend is never reached: tests run without text keys
		// so completion uses the offline tables.
		Orchestrator:              orchestrator.New(nil, prompts, st, orchestrator.Options{Metrics: m}),
		Interactive:               backend,
		Prompts:                   prompts,
		Metrics:                   m,
		Credentials:               opts.defaults,
		APIKey:                    testAPIKey,
		Version:                   "test",
		GenerateRequestsPerMinute: opts.generateRPM,
	})
	return &testServer{router: NewRouter(h), store: st, backend: backend, metrics: m}
}

// do sends an authenticated request with an optional JSON body.
func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createCampaign(t *testing.T, gameSystem string) types.Campaign {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/campaigns", types.NewCampaign{Name: "Drowned City", GameSystem: gameSystem})
	if w.Code != http.StatusCreated {
		t.Fatalf("create campaign: status = %d, body = %s", w.Code, w.Body.String())
	}
	var c types.Campaign
	decode(t, w, &c)
	return c
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
}

func campaignPath(id string, suffix string) string {
	return "/api/v1/campaigns/" + id + suffix
}

// fullTemplate is a template whose frame passes every gate.
func fullTemplate() types.FrameTemplate {
	return types.FrameTemplate{
		ID:   "drowned-city",
		Name: "The Drowned City",
		Frame: types.CampaignFrame{
			Pitch:            "Smugglers race the tide to loot a sunken vault",
			ToneAndFeel:      []string{"tense", "wry"},
			Themes:           []string{"greed", "loyalty"},
			Touchstones:      []string{"Ocean's Eleven"},
			Overview:         "A port city floods every night and the guilds fight over what the water uncovers.",
			Communities:      types.FreeText("divers, dockers and tide-priests"),
			Distinctions:     []types.Distinction{{Name: "The Glass Sea", Description: "A bay of fused sand"}},
			IncitingIncident: "The vault bell rings at midnight for the first time in a century",
			StartingQuests:   []types.Quest{{Title: "Case the vault"}},
			SessionZero: &types.SessionZero{
				PlayerLocations: []types.PlayerLocation{{Name: "The Salt Stair", MentionedBy: "Ada"}},
			},
		},
	}
}
