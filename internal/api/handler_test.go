package api

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/tinyconf/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *storage.Store, *controllableClock) {
	t.Helper()

	store := storage.New(map[string]string{
		"writer":            "console",
		"writerFile":        "file",
		"writer.level":      "info",
		"writer.format":     "{message}",
		"level@com.example": "debug",
	})
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	handler := NewHandler(store, append([]HandlerOption{WithClock(clock.Now)}, opts...)...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false), WithRateLimit(0, 0))

	return router, store, clock
}

func serve(router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, _, clock := setupTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestListProperties(t *testing.T) {
	router, store, clock := setupTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/properties", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Properties map[string]string `json:"properties"`
		Count      int               `json:"count"`
		UpdatedAt  time.Time         `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !maps.Equal(body.Properties, store.Snapshot()) || body.Count != store.Len() {
		t.Fatalf("unexpected properties %v", body.Properties)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestListPropertiesFormats(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/properties?format=properties", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "writer.level = info") {
		t.Fatalf("expected properties output, got\n%s", rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/api/properties?format=yaml", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "writer.level: info") {
		t.Fatalf("expected YAML output, got %d\n%s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/api/properties?format=toml", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown format, got %d", rec.Code)
	}
}

func TestGetProperty(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/properties/writer.level", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Key != "writer.level" || body.Value != "info" {
		t.Fatalf("unexpected property %+v", body)
	}

	if rec := serve(router, http.MethodGet, "/api/properties/Writer.level", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for case mismatch, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/api/properties/", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty key, got %d", rec.Code)
	}
}

func TestPutPropertyUpdatesStore(t *testing.T) {
	router, store, clock := setupTestRouter(t)
	clock.Advance(time.Hour)

	rec := serve(router, http.MethodPut, "/api/properties/writer.level", []byte(`{"value":"debug"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got, _ := store.Get("writer.level"); got != "debug" {
		t.Fatalf("expected store to be updated, got %q", got)
	}

	rec = serve(router, http.MethodGet, "/api/properties", nil)
	var body struct {
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutPropertyValidatesInput(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	for _, payload := range []string{`{}`, `not json`, `{"value": 3}`} {
		rec := serve(router, http.MethodPut, "/api/properties/writer", []byte(payload))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %s, got %d", payload, rec.Code)
		}
	}
}

func TestReplaceProperties(t *testing.T) {
	router, store, _ := setupTestRouter(t)

	rec := serve(router, http.MethodPut, "/api/properties", []byte(`{"properties":{"a":"1"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !maps.Equal(store.Snapshot(), map[string]string{"a": "1"}) {
		t.Fatalf("expected store to be replaced, got %v", store.Snapshot())
	}

	rec = serve(router, http.MethodPut, "/api/properties", []byte(`{}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without properties, got %d", rec.Code)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	router, store, _ := setupTestRouter(t, WithReadOnly(true))

	if rec := serve(router, http.MethodPut, "/api/properties/writer", []byte(`{"value":"file"}`)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodPut, "/api/properties", []byte(`{"properties":{}}`)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if got, _ := store.Get("writer"); got != "console" {
		t.Fatalf("expected store to be untouched, got %q", got)
	}
}

func TestSiblingsAndChildren(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	decode := func(rec *httptest.ResponseRecorder) map[string]string {
		t.Helper()
		var body struct {
			Properties map[string]string `json:"properties"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return body.Properties
	}

	got := decode(serve(router, http.MethodGet, "/api/siblings?prefix=writer", nil))
	if want := map[string]string{"writer": "console", "writerFile": "file"}; !maps.Equal(got, want) {
		t.Fatalf("unexpected siblings %v", got)
	}

	got = decode(serve(router, http.MethodGet, "/api/siblings?prefix=level@", nil))
	if want := map[string]string{"level@com.example": "debug"}; !maps.Equal(got, want) {
		t.Fatalf("unexpected siblings %v", got)
	}

	got = decode(serve(router, http.MethodGet, "/api/children?key=writer", nil))
	if want := map[string]string{"level": "info", "format": "{message}"}; !maps.Equal(got, want) {
		t.Fatalf("unexpected children %v", got)
	}

	if rec := serve(router, http.MethodGet, "/api/children", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without key, got %d", rec.Code)
	}
}
