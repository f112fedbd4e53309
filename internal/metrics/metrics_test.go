package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ItemGenerated("npc", SourceAI)
	m.ItemGenerated("npc", SourceAI)
	m.ItemGenerated("npc", SourceTemplate)
	m.SaveFailed("lore")
	m.GenerationFailed("npc")
	m.Interactive("map", "ok")

	if got := testutil.ToFloat64(m.itemsGenerated.WithLabelValues("npc", SourceAI)); got != 2 {
		t.Errorf("npc/ai = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.itemsGenerated.WithLabelValues("npc", SourceTemplate)); got != 1 {
		t.Errorf("npc/template = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.saveFailures.WithLabelValues("lore")); got != 1 {
		t.Errorf("lore save failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.generationFailures.WithLabelValues("npc")); got != 1 {
		t.Errorf("npc generation failures = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ItemGenerated("npc", SourceAI)
	m.SaveFailed("npc")
	m.GenerationFailed("npc")
	m.Interactive("npc", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ItemGenerated("location", SourceTemplate)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `tablekeep_items_generated_total{category="location",source="template"} 1`) {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}
