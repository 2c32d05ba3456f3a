package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nantestudio/antworld/internal/config"
	"github.com/nantestudio/antworld/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.World.Cols = 60
	cfg.World.Rows = 40
	cfg.World.ColonyCount = 2
	cfg.Population.InitialAnts = 10
	cfg.Clamp()

	sim, err := engine.NewRandom(cfg, 1)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	return &Server{Sim: sim, Mu: &sync.Mutex{}, AdminKey: "test-key"}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["cols"].(float64) != 60 || body["rows"].(float64) != 40 {
		t.Errorf("dimensions %v x %v, want 60x40", body["cols"], body["rows"])
	}
	if body["colonies"].(float64) != 2 {
		t.Errorf("colonies = %v, want 2", body["colonies"])
	}
	if body["ants"].(float64) <= 0 {
		t.Error("no ants reported")
	}
}

func TestHandleAnts_Filters(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleAnts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ants?caste=queen", nil))
	var queens []map[string]any
	decodeBody(t, rec, &queens)
	if len(queens) != 2 {
		t.Fatalf("queen filter returned %d ants, want 2", len(queens))
	}

	rec = httptest.NewRecorder()
	s.handleAnts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ants?colony=1", nil))
	var colonyAnts []map[string]any
	decodeBody(t, rec, &colonyAnts)
	if len(colonyAnts) == 0 {
		t.Fatal("colony filter returned nothing")
	}
	for _, a := range colonyAnts {
		if a["colony"].(float64) != 1 {
			t.Fatalf("colony filter leaked ant from colony %v", a["colony"])
		}
	}
}

func TestHandleColonyDetail(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleColonyDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/colony/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("known colony: status %d", rec.Code)
	}
	var col map[string]any
	decodeBody(t, rec, &col)
	if col["id"].(float64) != 1 {
		t.Errorf("id = %v, want 1", col["id"])
	}

	rec = httptest.NewRecorder()
	s.handleColonyDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/colony/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown colony: status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleColonyDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/colony/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("garbage id: status %d, want 400", rec.Code)
	}
}

func TestHandlePheromone(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handlePheromone(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pheromone/1/food", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Colony  int    `json:"colony"`
		Channel string `json:"channel"`
		Cols    int    `json:"cols"`
		Rows    int    `json:"rows"`
		Values  string `json:"values"`
	}
	decodeBody(t, rec, &body)
	raw, err := base64.StdEncoding.DecodeString(body.Values)
	if err != nil {
		t.Fatalf("values not base64: %v", err)
	}
	if len(raw) != body.Cols*body.Rows {
		t.Errorf("buffer length %d, want %d", len(raw), body.Cols*body.Rows)
	}

	rec = httptest.NewRecorder()
	s.handlePheromone(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pheromone/1/nectar", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad channel: status %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handlePheromone(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pheromone/9/food", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("bad colony: status %d, want 404", rec.Code)
	}
}

func TestAdminOnly_TokenChecks(t *testing.T) {
	s := newTestServer(t)
	wrapped := s.adminOnly(s.handlePause)

	// GET passes through without auth.
	rec := httptest.NewRecorder()
	wrapped(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pause", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("unauthenticated GET: status %d, want 200", rec.Code)
	}

	// POST without a token is rejected.
	rec = httptest.NewRecorder()
	wrapped(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pause", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", rec.Code)
	}

	// Wrong token is rejected.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pause", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	wrapped(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status %d, want 401", rec.Code)
	}

	// Correct token toggles the pause.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pause", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	wrapped(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status %d, want 200", rec.Code)
	}
	var body map[string]bool
	decodeBody(t, rec, &body)
	if !body["paused"] {
		t.Error("pause did not toggle on")
	}

	// With no key configured, POST is disabled outright.
	s.AdminKey = ""
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pause", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	wrapped(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("disabled admin: status %d, want 403", rec.Code)
	}
}

func TestHandleSpeed_ValidationAndApply(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": 2.5}`))
	s.handleSpeed(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]float64
	decodeBody(t, rec, &body)
	if body["speed"] != 2.5 {
		t.Errorf("applied speed = %v, want 2.5", body["speed"])
	}

	for _, payload := range []string{`{"speed": 0}`, `{"speed": -1}`, `{"speed": 500}`, `not json`} {
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(payload))
		s.handleSpeed(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %q: status %d, want 400", payload, rec.Code)
		}
	}
}

func TestHandleEdit_QueuesAndValidates(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/edit",
		strings.NewReader(`{"kind": "rock", "x": 10, "y": 10, "radius": 1}`))
	s.handleEdit(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid edit: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/edit",
		strings.NewReader(`{"kind": "lava", "x": 10, "y": 10}`))
	s.handleEdit(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: status %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/edit",
		strings.NewReader(`{"kind": "dig", "x": 999, "y": 10}`))
	s.handleEdit(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of bounds: status %d, want 400", rec.Code)
	}
}

func TestHandlePopulation(t *testing.T) {
	s := newTestServer(t)
	before := s.Sim.AntCount()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/population", strings.NewReader(`{"add": 5}`))
	s.handlePopulation(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int
	decodeBody(t, rec, &body)
	if body["ants"] != before+5 {
		t.Errorf("count = %d, want %d", body["ants"], before+5)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/population", strings.NewReader(`{"add": 9999}`))
	s.handlePopulation(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized add: status %d, want 400", rec.Code)
	}
}

func TestHandleSnapshot_NoDatabase(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handleSnapshot(rec, httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := corsMiddleware(inner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q for localhost dev server", got)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q for unknown origin, want unset", got)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}
