package simd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/choreography"
	"github.com/GoSim-25-26J-441/gansim/internal/journal"
	"github.com/GoSim-25-26J-441/gansim/internal/walkthrough"
	"github.com/GoSim-25-26J-441/gansim/pkg/logger"
)

// JournalReader serves journaled events back to clients.
type JournalReader interface {
	Entries(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error)
}

type HTTPServer struct {
	mux            *http.ServeMux
	store          *SessionStore
	journal        JournalReader
	effectDelay    time.Duration
	streamInterval time.Duration
}

func NewHTTPServer(store *SessionStore) *HTTPServer {
	s := &HTTPServer{
		mux:            http.NewServeMux(),
		store:          store,
		effectDelay:    choreography.DefaultDelay,
		streamInterval: 500 * time.Millisecond,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/sessions", s.handleSessions)
	s.mux.HandleFunc("/v1/sessions/", s.handleSessionByID)
	s.mux.HandleFunc("/v1/walkthrough", s.handleWalkthrough)

	return s
}

// SetJournal enables the journal endpoint; nil disables it.
func (s *HTTPServer) SetJournal(j JournalReader) {
	s.journal = j
}

// SetEffectDelay sets the spacing between animation phases in step responses.
func (s *HTTPServer) SetEffectDelay(d time.Duration) {
	if d > 0 {
		s.effectDelay = d
	}
}

// SetStreamInterval sets the default polling interval of the state stream.
func (s *HTTPServer) SetStreamInterval(d time.Duration) {
	if d > 0 {
		s.streamInterval = d
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessions":  s.store.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSessions handles /v1/sessions endpoint
func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	case http.MethodGet:
		s.handleListSessions(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type sessionRoute struct {
	suffix  string
	method  string
	handler func(http.ResponseWriter, *http.Request, string)
}

// handleSessionByID handles /v1/sessions/{id} and related endpoints
func (s *HTTPServer) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/sessions/{id}, /v1/sessions/{id}:step or /v1/sessions/{id}/history
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	// Longer suffixes first so /metrics/timeseries is not taken by /metrics
	routes := []sessionRoute{
		{":step", http.MethodPost, s.handleStep},
		{":reset", http.MethodPost, s.handleReset},
		{":noise", http.MethodPost, s.handleNoise},
		{"/history", http.MethodGet, s.handleHistory},
		{"/metrics/timeseries", http.MethodGet, s.handleTimeSeries},
		{"/metrics", http.MethodGet, s.handleMetrics},
		{"/journal", http.MethodGet, s.handleJournal},
		{"/stream", http.MethodGet, s.handleStream},
	}
	for _, route := range routes {
		if !strings.HasSuffix(path, route.suffix) {
			continue
		}
		id := strings.TrimSuffix(path, route.suffix)
		if id == "" {
			s.writeError(w, http.StatusBadRequest, "session ID is required")
			return
		}
		if r.Method != route.method {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		route.handler(w, r, id)
		return
	}

	// Otherwise it's /v1/sessions/{id}
	switch r.Method {
	case http.MethodGet:
		s.handleGetSession(w, r, path)
	case http.MethodDelete:
		s.handleDeleteSession(w, r, path)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateSession handles POST /v1/sessions
func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string    `json:"session_id,omitempty"`
		Seed        int64     `json:"seed,omitempty"`
		Samples     []float64 `json:"samples,omitempty"`
		CallbackURL string    `json:"callback_url,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	for _, v := range req.Samples {
		if v < 0 || v >= 1 {
			s.writeError(w, http.StatusBadRequest, "samples must be in [0, 1)")
			return
		}
	}

	view, err := s.store.Create(CreateOptions{
		SessionID:   req.SessionID,
		Seed:        req.Seed,
		Samples:     req.Samples,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"session": view,
	})
}

// handleListSessions handles GET /v1/sessions
func (s *HTTPServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions := s.store.List(limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    s.store.Len(),
	})
}

func (s *HTTPServer) handleGetSession(w http.ResponseWriter, _ *http.Request, id string) {
	view, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session": view,
	})
}

func (s *HTTPServer) handleDeleteSession(w http.ResponseWriter, _ *http.Request, id string) {
	if err := s.store.Delete(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deleted": id,
	})
}

// handleStep handles POST /v1/sessions/{id}:step
func (s *HTTPServer) handleStep(w http.ResponseWriter, r *http.Request, id string) {
	out, err := s.store.Step(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	effects := choreography.ForStep(out, s.effectDelay)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":       out.State,
		"outcome":     out,
		"effects":     effects,
		"duration_ms": choreography.Duration(effects).Milliseconds(),
	})
}

// handleReset handles POST /v1/sessions/{id}:reset
func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request, id string) {
	st, err := s.store.Reset(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	effects := choreography.ForReset()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":       st,
		"effects":     effects,
		"duration_ms": choreography.Duration(effects).Milliseconds(),
	})
}

// handleNoise handles POST /v1/sessions/{id}:noise. It only describes the
// visual pulse; the session state is untouched.
func (s *HTTPServer) handleNoise(w http.ResponseWriter, _ *http.Request, id string) {
	if _, err := s.store.Get(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	effects := choreography.ForNoise(s.effectDelay)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"effects":     effects,
		"duration_ms": choreography.Duration(effects).Milliseconds(),
	})
}

// handleHistory handles GET /v1/sessions/{id}/history
func (s *HTTPServer) handleHistory(w http.ResponseWriter, _ *http.Request, id string) {
	view, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	h := view.State.LossHistory
	s.writeJSON(w, http.StatusOK, map[string]any{
		"labels": h.StepLabel,
		"series": []map[string]any{
			{"name": "Generator Loss", "values": h.GeneratorLoss},
			{"name": "Discriminator Loss", "values": h.DiscriminatorLoss},
		},
	})
}

// handleMetrics handles GET /v1/sessions/{id}/metrics
func (s *HTTPServer) handleMetrics(w http.ResponseWriter, _ *http.Request, id string) {
	summary, err := s.store.Metrics(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"metrics": summary,
	})
}

// handleTimeSeries handles GET /v1/sessions/{id}/metrics/timeseries?metric=
func (s *HTTPServer) handleTimeSeries(w http.ResponseWriter, r *http.Request, id string) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		s.writeError(w, http.StatusBadRequest, "metric is required")
		return
	}
	points, err := s.store.TimeSeries(id, metric)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"metric":     metric,
		"points":     points,
	})
}

// handleJournal handles GET /v1/sessions/{id}/journal
func (s *HTTPServer) handleJournal(w http.ResponseWriter, r *http.Request, id string) {
	if s.journal == nil {
		s.writeStoreError(w, ErrJournalDisabled)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.journal.Entries(r.Context(), id, limit)
	if err != nil {
		logger.Error("journal read failed", "session_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "journal read failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"entries":    entries,
	})
}

// handleStream handles GET /v1/sessions/{id}/stream (SSE). A state event is
// sent on connect and again whenever the session version changes.
func (s *HTTPServer) handleStream(w http.ResponseWriter, r *http.Request, id string) {
	view, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	interval := s.streamInterval
	if intervalStr := r.URL.Query().Get("interval_ms"); intervalStr != "" {
		if intervalMs, err := strconv.ParseInt(intervalStr, 10, 64); err == nil && intervalMs > 0 {
			interval = time.Duration(intervalMs) * time.Millisecond
		}
	}

	flush := func() {
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}

	lastVersion := view.Version
	s.sendSSEEvent(w, "state", stateEventData(view))
	flush()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view, err := s.store.Get(id)
			if err != nil {
				s.sendSSEEvent(w, "error", map[string]any{
					"error": "session not found",
				})
				flush()
				return
			}
			if view.Version == lastVersion {
				continue
			}
			lastVersion = view.Version
			s.sendSSEEvent(w, "state", stateEventData(view))
			flush()
		}
	}
}

func stateEventData(view SessionView) map[string]any {
	return map[string]any{
		"session_id": view.ID,
		"version":    view.Version,
		"state":      view.State,
	}
}

// handleWalkthrough handles GET /v1/walkthrough?stage=
func (s *HTTPServer) handleWalkthrough(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	current, err := walkthrough.Parse(r.URL.Query().Get("stage"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	next := walkthrough.Next(current)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"current":     current,
		"next":        next,
		"label":       next.Label(),
		"explanation": walkthrough.Explanation(next),
	})
}

// sendSSEEvent sends a Server-Sent Event
func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, data map[string]any) {
	// Format: event: <type>\ndata: <json>\n\n
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to marshal SSE event data", "error", err)
		return
	}

	if _, err := w.Write([]byte("event: " + eventType + "\n")); err != nil {
		logger.Error("failed to write SSE event header", "error", err)
		return
	}
	if _, err := w.Write([]byte("data: " + string(jsonData) + "\n\n")); err != nil {
		logger.Error("failed to write SSE event data", "error", err)
		return
	}
}

// Helper functions

func parseLimit(r *http.Request) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}

// httpStatusFor maps store errors onto HTTP status codes
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, ErrSessionIDMissing), errors.Is(err, ErrSessionIDInvalid),
		errors.Is(err, ErrInvalidURL), errors.Is(err, ErrMetadataEndpoint):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionLimit), errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrJournalDisabled):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeStoreError(w http.ResponseWriter, err error) {
	status := httpStatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
