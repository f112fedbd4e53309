// Package e2e drives the whole service over HTTP: real store, checkpoint
// cache, wizard sessions and orchestrator, with no provider keys so every
// generated item comes from the genre tables.
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/api"
	"github.com/hyperengineering/tablekeep/internal/blob"
	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/wizard"
)

const testAPIKey = "e2e-key"

// testEnv is one running server over files in dir. Stopping it and starting
// another over the same dir simulates a process restart.
type testEnv struct {
	dir    string
	server *httptest.Server
	store  *store.SQLiteStore
	cache  *wizard.LocalCache
}

func startServer(t *testing.T, dir string) *testEnv {
	t.Helper()

	db, err := store.NewSQLiteStore(filepath.Join(dir, "tablekeep.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cache, err := wizard.NewLocalCache(wizard.CacheOptions{
		Path: filepath.Join(dir, "checkpoints.gob"),
	})
	if err != nil {
		db.Close()
		t.Fatalf("open checkpoint cache: %v", err)
	}

	m := metrics.New()
	client := generation.NewClient(generation.Options{DefaultProvider: generation.ProviderOpenAI})
	prompts := prompt.MustNewBuilder()
	orch := orchestrator.New(
		generation.NewRetrying(client, 0, 0),
		prompts,
		db,
		orchestrator.Options{Blobs: blob.NoopStore{}, Metrics: m},
	)
	sessions := wizard.NewSessionManager(wizard.NewCheckpointer(cache, db), wizard.Options{})

	h := api.NewHandler(api.Deps{
		Store:        db,
		Sessions:     sessions,
		Orchestrator: orch,
		Interactive:  generation.NewGate(client, 0),
		Prompts:      prompts,
		Metrics:      m,
		APIKey:       testAPIKey,
		Version:      "e2e",
	})

	env := &testEnv{
		dir:    dir,
		server: httptest.NewServer(api.NewRouter(h)),
		store:  db,
		cache:  cache,
	}
	t.Cleanup(env.stop)
	return env
}

// stop shuts the server down and flushes state to disk. Safe to call twice.
func (e *testEnv) stop() {
	if e.server == nil {
		return
	}
	e.server.Close()
	e.server = nil
	e.cache.Close()
	e.store.Close()
}

// call sends an authenticated JSON request and decodes a 2xx body into out.
// It returns the status code.
func (e *testEnv) call(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, e.server.URL+path, r)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, path, err, raw)
		}
	}
	return resp.StatusCode
}

func wizardPath(campaignID, suffix string) string {
	return "/api/v1/campaigns/" + campaignID + "/wizard" + suffix
}
