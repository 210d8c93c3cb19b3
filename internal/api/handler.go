package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/tinyconf/internal/export"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Store is the configuration store served by the handler.
type Store interface {
	Get(key string) (string, bool)
	Siblings(prefix string) map[string]string
	Children(key string) map[string]string
	Set(key, value string)
	Replace(entries map[string]string)
	Snapshot() map[string]string
}

// Handler exposes a configuration store over HTTP.
type Handler struct {
	store    Store
	readOnly bool

	clock func() time.Time

	mu        sync.RWMutex
	updatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReadOnly rejects all modifications of the store.
func WithReadOnly(readOnly bool) HandlerOption {
	return func(h *Handler) {
		h.readOnly = readOnly
	}
}

// NewHandler constructs a Handler serving store.
func NewHandler(store Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.updatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListProperties(w http.ResponseWriter, r *http.Request) {
	entries := h.store.Snapshot()

	if name := r.URL.Query().Get("format"); name != "" {
		format, err := export.ParseFormat(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "use one of "+strings.Join(export.Formats(), ", "))
			return
		}
		var buf bytes.Buffer
		if err := export.Write(&buf, entries, format); err != nil {
			writeInternalError(w, err)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
		return
	}

	resp := propertiesResponse{
		Properties: entries,
		Count:      len(entries),
		UpdatedAt:  h.currentUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "property key must not be empty")
		return
	}

	value, ok := h.store.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Property not found", key)
		return
	}
	writeJSON(w, http.StatusOK, propertyResponse{Key: key, Value: value})
}

func (h *Handler) handlePutProperty(w http.ResponseWriter, r *http.Request) {
	if h.readOnly {
		writeReadOnly(w)
		return
	}

	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "property key must not be empty")
		return
	}

	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "value is required")
		return
	}

	h.store.Set(key, *req.Value)
	h.markUpdated()

	writeJSON(w, http.StatusOK, propertyResponse{
		Key:     key,
		Value:   *req.Value,
		Message: "Property updated successfully",
	})
}

func (h *Handler) handleReplaceProperties(w http.ResponseWriter, r *http.Request) {
	if h.readOnly {
		writeReadOnly(w)
		return
	}

	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if req.Properties == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "properties is required")
		return
	}

	h.store.Replace(req.Properties)
	h.markUpdated()

	entries := h.store.Snapshot()
	resp := propertiesResponse{
		Properties: entries,
		Count:      len(entries),
		UpdatedAt:  h.currentUpdatedAt(),
		Message:    "Configuration replaced successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSiblings(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	writeJSON(w, http.StatusOK, queryResponse{
		Prefix:     prefix,
		Properties: h.store.Siblings(prefix),
	})
}

func (h *Handler) handleChildren(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "key query parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Key:        key,
		Properties: h.store.Children(key),
	})
}

func (h *Handler) currentUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updatedAt
}

func (h *Handler) markUpdated() {
	h.mu.Lock()
	h.updatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type propertyRequest struct {
	Value *string `json:"value"`
}

type replaceRequest struct {
	Properties map[string]string `json:"properties"`
}

type propertyResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Message string `json:"message,omitempty"`
}

type propertiesResponse struct {
	Properties map[string]string `json:"properties"`
	Count      int               `json:"count"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Message    string            `json:"message,omitempty"`
}

type queryResponse struct {
	Prefix     string            `json:"prefix,omitempty"`
	Key        string            `json:"key,omitempty"`
	Properties map[string]string `json:"properties"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeReadOnly(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "Read-only configuration", "modifications are disabled on this server")
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
