package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const testAPIKey = "test-secret-key-12345"

// captureLogs swaps the default logger for a JSON logger writing to the
// returned buffer until the test ends.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

// okHandler records whether it was called.
func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}), &called
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + testAPIKey, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"no bearer prefix", testAPIKey, http.StatusUnauthorized},
		{"lowercase prefix", "bearer " + testAPIKey, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"whitespace token", "Bearer    ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLogs(t)
			handler, called := okHandler()
			mw := AuthMiddleware(testAPIKey)(handler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if *called != (tt.want == http.StatusOK) {
				t.Errorf("handler called = %v", *called)
			}
		})
	}
}

func TestAuthMiddleware_ProblemResponseWithoutKey(t *testing.T) {
	logs := captureLogs(t)
	handler, _ := okHandler()
	mw := AuthMiddleware(testAPIKey)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v", ct)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Type != "https://tablekeep.dev/errors/unauthorized" {
		t.Errorf("type = %v", p.Type)
	}
	if strings.Contains(w.Body.String(), testAPIKey) || strings.Contains(logs.String(), testAPIKey) {
		t.Error("expected API key leaked into response or logs")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer  abc  ", "abc"},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !constantTimeEqual("abc", "abc") {
		t.Error("equal strings should match")
	}
	if constantTimeEqual("abc", "abd") || constantTimeEqual("abc", "abcd") || constantTimeEqual("", "x") {
		t.Error("different strings should not match")
	}
}

func TestLogLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{201, slog.LevelInfo},
		{304, slog.LevelInfo},
		{400, slog.LevelWarn},
		{404, slog.LevelWarn},
		{429, slog.LevelWarn},
		{500, slog.LevelError},
		{503, slog.LevelError},
	}
	for _, tt := range tests {
		if got := logLevelForStatus(tt.status); got != tt.want {
			t.Errorf("logLevelForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	logs := captureLogs(t)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(LoggingMiddleware)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.100:54321"
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log as JSON: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 404", entry["level"])
	}
	for _, field := range []string{"request_id", "method", "path", "status", "duration_ms", "remote_addr"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("missing field %s", field)
		}
	}
	if entry["request_id"] == "" {
		t.Error("request_id is empty")
	}
	if entry["remote_addr"] != "192.168.1.100:54321" {
		t.Errorf("remote_addr = %v", entry["remote_addr"])
	}
	if strings.Contains(logs.String(), testAPIKey) {
		t.Error("log output contains the API key")
	}
}

func TestLoggingMiddleware_SilentHandlerLogsOK(t *testing.T) {
	logs := captureLogs(t)
	mw := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log as JSON: %v", err)
	}
	if entry["status"] != float64(http.StatusOK) || entry["level"] != "INFO" {
		t.Errorf("status = %v, level = %v", entry["status"], entry["level"])
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("GetRequestID = %q, want empty", id)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logs := captureLogs(t)
	secret := "super-secret-database-password-12345"

	mw := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(secret)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Detail != "Internal Server Error" {
		t.Errorf("detail = %q", p.Detail)
	}
	if strings.Contains(w.Body.String(), secret) {
		t.Error("response body contains the panic message")
	}
	if !strings.Contains(logs.String(), "panic recovered") || !strings.Contains(logs.String(), secret) {
		t.Error("expected the panic to be logged")
	}
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler, _ := okHandler()
	w := httptest.NewRecorder()
	RecoveryMiddleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}
