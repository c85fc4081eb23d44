package simd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoSim-25-26J-441/gansim/internal/sim"
)

func newTestHTTPServer(t *testing.T) (*HTTPServer, *SessionStore) {
	t.Helper()
	store := NewSessionStore(sim.DefaultParams(), 0)
	return NewHTTPServer(store), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)

	var resp map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json %q: %v", rr.Body.String(), err)
		}
	}
	return rr, resp
}

func TestHTTPServerHealthz(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	rr, body := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["timestamp"] == "" {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestHTTPServerCreateSession(t *testing.T) {
	srv, store := newTestHTTPServer(t)
	rr, resp := doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{
		"session_id": "demo",
		"seed":       7,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	sess, ok := resp["session"].(map[string]any)
	if !ok {
		t.Fatalf("expected session in response")
	}
	if sess["id"] != "demo" {
		t.Fatalf("expected id demo, got %v", sess["id"])
	}
	state := sess["state"].(map[string]any)
	if state["generator_skill"] != 0.3 || state["discriminator_skill"] != 0.7 {
		t.Fatalf("unexpected initial skills: %v", state)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session in store, got %d", store.Len())
	}
}

func TestHTTPServerCreateSessionGeneratesID(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	rr, resp := doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	id, _ := resp["session"].(map[string]any)["id"].(string)
	if len(id) <= len("sess-") || id[:5] != "sess-" {
		t.Fatalf("expected generated sess- id, got %q", id)
	}
}

func TestHTTPServerCreateSessionConflict(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{"session_id": "dup"})
	rr, _ := doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{"session_id": "dup"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestHTTPServerStepSession(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{
		"session_id": "s1",
		"samples":    []float64{0.5},
	})

	rr, resp := doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:step", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	outcome := resp["outcome"].(map[string]any)
	if outcome["verdict"] != "Fake" {
		t.Fatalf("expected Fake verdict, got %v", outcome["verdict"])
	}
	state := resp["state"].(map[string]any)
	if state["progress"] != float64(5) {
		t.Fatalf("expected progress 5, got %v", state["progress"])
	}
	log := state["log"].([]any)
	if len(log) != 1 || log[0] != "Fake Score: 0.15 → Fake (G: 0.25, D: 0.75)" {
		t.Fatalf("unexpected log: %v", log)
	}
	effects := resp["effects"].([]any)
	if len(effects) == 0 {
		t.Fatalf("expected effects in step response")
	}
	if resp["duration_ms"] != float64(3600) {
		t.Fatalf("expected step effects to last 3600ms, got %v", resp["duration_ms"])
	}
}

func TestHTTPServerResetSession(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{"session_id": "s1"})
	for i := 0; i < 3; i++ {
		doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:step", nil)
	}

	rr, resp := doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:reset", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	state := resp["state"].(map[string]any)
	if state["progress"] != float64(0) || len(state["log"].([]any)) != 0 {
		t.Fatalf("expected initial state after reset, got %v", state)
	}
	if state["generator_skill"] != 0.3 {
		t.Fatalf("expected generator skill 0.3, got %v", state["generator_skill"])
	}
	if resp["duration_ms"] != float64(0) {
		t.Fatalf("expected reset effects to be immediate, got %v", resp["duration_ms"])
	}
}

func TestHTTPServerNoiseLeavesStateUntouched(t *testing.T) {
	srv, store := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{"session_id": "s1"})

	rr, resp := doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:noise", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(resp["effects"].([]any)) != 2 {
		t.Fatalf("expected 2 noise effects, got %v", resp["effects"])
	}
	if resp["duration_ms"] != float64(1200) {
		t.Fatalf("expected noise effects to last 1200ms, got %v", resp["duration_ms"])
	}
	v, _ := store.Version("s1")
	if v != 0 {
		t.Fatalf("expected version 0 after noise, got %d", v)
	}
}

func TestHTTPServerGetSessionNotFound(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	rr, _ := doJSON(t, srv.Handler(), http.MethodGet, "/v1/sessions/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestHTTPServerDeleteSession(t *testing.T) {
	srv, store := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{"session_id": "s1"})

	rr, _ := doJSON(t, srv.Handler(), http.MethodDelete, "/v1/sessions/s1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
	rr, _ = doJSON(t, srv.Handler(), http.MethodDelete, "/v1/sessions/s1", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second delete, got %d", rr.Code)
	}
}

func TestHTTPServerListSessions(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	for _, id := range []string{"a", "b", "c"} {
		doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{"session_id": id})
	}

	rr, resp := doJSON(t, srv.Handler(), http.MethodGet, "/v1/sessions?limit=2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := len(resp["sessions"].([]any)); got != 2 {
		t.Fatalf("expected 2 sessions, got %d", got)
	}
	if resp["total"] != float64(3) {
		t.Fatalf("expected total 3, got %v", resp["total"])
	}
}

func TestHTTPServerHistory(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{
		"session_id": "s1",
		"samples":    []float64{0.5},
	})
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:step", nil)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:step", nil)

	rr, resp := doJSON(t, srv.Handler(), http.MethodGet, "/v1/sessions/s1/history", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	labels := resp["labels"].([]any)
	if len(labels) != 2 || labels[0] != float64(1) || labels[1] != float64(2) {
		t.Fatalf("unexpected labels: %v", labels)
	}
	series := resp["series"].([]any)
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	gen := series[0].(map[string]any)
	if gen["name"] != "Generator Loss" || len(gen["values"].([]any)) != 2 {
		t.Fatalf("unexpected generator series: %v", gen)
	}
}

func TestHTTPServerMetrics(t *testing.T) {
	srv, _ := newTestHTTPServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions", map[string]any{
		"session_id": "s1",
		"samples":    []float64{0.5},
	})
	for i := 0; i < 4; i++ {
		doJSON(t, srv.Handler(), http.MethodPost, "/v1/sessions/s1:step", nil)
	}

	rr, resp := doJSON(t, srv.Handler(), http.MethodGet, "/v1/sessions/s1/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	m := resp["metrics"].(map[string]any)
	if m["steps"] != float64(4) {
		t.Fatalf("expected 4 steps, got %v", m["steps"])
	}
	if m["fake_verdicts"] != float64(4) {
		t.Fatalf("expected 4 fake verdicts, got %v", m["fake_verdicts"])
	}
	if series := m["series"].([]any); len(series) != 7 {
		t.Fatalf("expected 7 recorded series without real verdicts, got %v", series)
	}

	rr, resp = doJSON(t, srv.Handler(), http.MethodGet, "/v1/sessions/s1/metrics/timeseries?metric=fake_value", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := len(resp["points"].([]any)); got != 4 {
		t.Fatalf("expected 4 points, got %d", got)
	}
}

func TestHTTPServerWalkthrough(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	tests := []struct {
		stage string
		next  string
		label string
	}{
		{"", "noise", "NOISE"},
		{"noise", "generator", "GENERATOR"},
		{"loss", "noise", "NOISE"},
	}
	for _, tt := range tests {
		rr, resp := doJSON(t, srv.Handler(), http.MethodGet, "/v1/walkthrough?stage="+tt.stage, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("stage %q: expected status 200, got %d", tt.stage, rr.Code)
		}
		if resp["next"] != tt.next || resp["label"] != tt.label {
			t.Errorf("stage %q: got next=%v label=%v", tt.stage, resp["next"], resp["label"])
		}
		if resp["explanation"] == "" {
			t.Errorf("stage %q: expected explanation", tt.stage)
		}
	}

	rr, _ := doJSON(t, srv.Handler(), http.MethodGet, "/v1/walkthrough?stage=bogus", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown stage, got %d", rr.Code)
	}
}
