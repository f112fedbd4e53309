package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/tables"
	"github.com/hyperengineering/tablekeep/internal/types"
)

// aiReply is a JSON object every record parser can recover fields from.
func aiReply(n int) string {
	return fmt.Sprintf(`{"name":"AI Item %d","title":"AI Item %d","occupation":"smith","relationship":"ally",`+
		`"type":"city","difficulty":"hard","category":"legend","content":"Once upon a time",`+
		`"description":"Generated by the backend"}`, n, n)
}

func isAI(name string) bool {
	return strings.HasPrefix(name, "AI Item")
}

// scriptedBackend answers text calls through text and image calls through image.
type scriptedBackend struct {
	mu         sync.Mutex
	textCalls  int
	imageCalls int
	text       func(ctx context.Context, call int) (string, error)
	image      func(ctx context.Context) (*generation.Image, error)
}

func (b *scriptedBackend) GenerateText(ctx context.Context, req generation.Request, creds generation.Credentials, provider generation.Provider) (string, error) {
	b.mu.Lock()
	b.textCalls++
	call := b.textCalls
	b.mu.Unlock()
	if b.text == nil {
		return aiReply(call), nil
	}
	return b.text(ctx, call)
}

func (b *scriptedBackend) GenerateImage(ctx context.Context, prompt string, creds generation.Credentials) (*generation.Image, error) {
	b.mu.Lock()
	b.imageCalls++
	b.mu.Unlock()
	if b.image == nil {
		return nil, generation.ErrNoCredentials
	}
	return b.image(ctx)
}

// mockEntities records creates in order.
type mockEntities struct {
	mu      sync.Mutex
	created []types.Record
	calls   int
	failOn  func(call int, rec types.Record) error
}

func (m *mockEntities) CreateEntity(ctx context.Context, campaignID string, rec types.Record) (*types.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != nil {
		if err := m.failOn(m.calls, rec); err != nil {
			return nil, err
		}
	}
	m.created = append(m.created, rec)
	return &types.Entity{
		ID:         fmt.Sprintf("ent-%d", m.calls),
		CampaignID: campaignID,
		Kind:       rec.Kind(),
		Name:       rec.DisplayName(),
	}, nil
}

func (m *mockEntities) kinds() []types.EntityKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.EntityKind, len(m.created))
	for i, r := range m.created {
		out[i] = r.Kind()
	}
	return out
}

func (m *mockEntities) count(kind types.EntityKind) int {
	n := 0
	for _, k := range m.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// mockBlobs records uploads.
type mockBlobs struct {
	err  error
	keys []string
	data [][]byte
}

func (m *mockBlobs) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	m.data = append(m.data, data)
	return "https://blob.example.com/" + key, nil
}

func testCampaign() types.Campaign {
	return types.Campaign{ID: "camp-1", Name: "Saltgate", GameSystem: "Daggerheart"}
}

func testFrame(incident bool) types.CampaignFrame {
	f := types.CampaignFrame{
		Pitch:        "A heist in a city that sinks every night",
		ToneAndFeel:  []string{"tense"},
		Themes:       []string{"Greed", "Loyalty"},
		Touchstones:  []string{"Ocean's Eleven"},
		Overview:     "Saltgate floods at midnight and drains by dawn. Nobody knows why.",
		Distinctions: []types.Distinction{{Name: "The Tides", Description: "The sea swallows the lower city nightly."}},
	}
	if incident {
		f.IncitingIncident = "The vault bell rings at midnight"
	}
	return f
}

func newTestOrchestrator(t *testing.T, backend generation.Backend, entities EntityStore, opts Options) *Orchestrator {
	t.Helper()
	if opts.Tables == nil {
		opts.Tables = tables.NewGenerator(1)
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "map-1" }
	}
	return New(backend, prompt.MustNewBuilder(), entities, opts)
}

var openAICreds = generation.Credentials{OpenAIKey: "sk-test"}
