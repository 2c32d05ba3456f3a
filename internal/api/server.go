// Package api provides the HTTP API for observing and steering a running
// simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nantestudio/antworld/internal/ants"
	"github.com/nantestudio/antworld/internal/engine"
	"github.com/nantestudio/antworld/internal/persistence"
)

// Server serves simulation state over HTTP. All handlers lock Mu so reads
// never interleave with the tick loop.
type Server struct {
	Sim      *engine.Simulation
	Mu       *sync.Mutex
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Regeneration throws away the whole world; keep it rare even for admins.
	regenLimiter := NewRateLimiter(6, time.Hour)
	editLimiter := NewRateLimiter(600, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/colonies", s.handleColonies)
	mux.HandleFunc("/api/v1/colony/", s.handleColonyDetail)
	mux.HandleFunc("/api/v1/ants", s.handleAnts)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/config", s.handleConfig)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/pheromone/", s.handlePheromone)
	mux.HandleFunc("/api/v1/snapshots", s.handleSnapshotList)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/population", s.adminOnly(s.handlePopulation))
	mux.HandleFunc("/api/v1/scatter-food", s.adminOnly(s.handleScatterFood))
	mux.HandleFunc("/api/v1/edit", s.adminOnly(RateLimitMiddleware(editLimiter, s.handleEdit)))
	mux.HandleFunc("/api/v1/regenerate", s.adminOnly(RateLimitMiddleware(regenLimiter, s.handleRegenerate)))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ANTWORLD_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	grid := s.Sim.Grid()
	status := map[string]any{
		"name":          "antworld",
		"tick":          s.Sim.Tick(),
		"sim_time":      s.Sim.SimTime(),
		"seed":          s.Sim.Seed(),
		"paused":        s.Sim.Paused(),
		"cols":          grid.Cols,
		"rows":          grid.Rows,
		"ants":          s.Sim.AntCount(),
		"colonies":      len(s.Sim.Colonies()),
		"births":        s.Sim.Births(),
		"deaths":        s.Sim.Deaths(),
		"active_scent":  grid.ActivePheromoneCells(),
	}
	writeJSON(w, status)
}

func (s *Server) handleColonies(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	type colonySummary struct {
		ID         int     `json:"id"`
		NestX      int     `json:"nest_x"`
		NestY      int     `json:"nest_y"`
		Food       float64 `json:"food"`
		Population int     `json:"population"`
		Adults     int     `json:"adults"`
		Soldiers   int     `json:"soldiers"`
		Workers    int     `json:"workers"`
		Brood      int     `json:"brood"`
		Alert      bool    `json:"alert"`
		Rooms      int     `json:"rooms"`
	}

	var result []colonySummary
	for _, c := range s.Sim.Colonies() {
		result = append(result, colonySummary{
			ID:         c.ID,
			NestX:      c.Nest.X,
			NestY:      c.Nest.Y,
			Food:       c.Food,
			Population: c.Population(),
			Adults:     c.Adults(),
			Soldiers:   c.CasteCounts[ants.CasteSoldier],
			Workers:    c.CasteCounts[ants.CasteWorker],
			Brood:      c.CasteCounts[ants.CasteEgg] + c.CasteCounts[ants.CasteLarva],
			Alert:      c.AlertActive(),
			Rooms:      len(c.Rooms),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleColonyDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		http.Error(w, "missing colony id", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(parts[4])
	if err != nil {
		http.Error(w, "invalid colony id", http.StatusBadRequest)
		return
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	for _, c := range s.Sim.Colonies() {
		if c.ID == id {
			writeJSON(w, c)
			return
		}
	}
	http.Error(w, "colony not found", http.StatusNotFound)
}

func (s *Server) handleAnts(w http.ResponseWriter, r *http.Request) {
	colonyFilter := -1
	if v := r.URL.Query().Get("colony"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			colonyFilter = n
		}
	}
	casteFilter := strings.ToLower(r.URL.Query().Get("caste"))

	s.Mu.Lock()
	defer s.Mu.Unlock()

	type antSummary struct {
		ID       uint64  `json:"id"`
		Colony   int     `json:"colony"`
		Caste    string  `json:"caste"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		State    string  `json:"state"`
		Energy   float64 `json:"energy"`
		HP       float64 `json:"hp"`
		Carrying bool    `json:"carrying"`
	}

	var result []antSummary
	for _, a := range s.Sim.Ants() {
		if colonyFilter >= 0 && a.ColonyID != colonyFilter {
			continue
		}
		if casteFilter != "" && strings.ToLower(a.Caste.String()) != casteFilter {
			continue
		}
		result = append(result, antSummary{
			ID:       a.ID,
			Colony:   a.ColonyID,
			Caste:    a.Caste.String(),
			X:        a.X,
			Y:        a.Y,
			State:    a.State.String(),
			Energy:   a.Energy,
			HP:       a.HP,
			Carrying: a.Carrying,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	s.Mu.Lock()
	events := s.Sim.Events(limit)
	s.Mu.Unlock()

	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	writeJSON(w, events)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	cfg := s.Sim.Config()
	s.Mu.Unlock()
	writeJSON(w, cfg)
}

// handleMap returns the full cell grid as a base64 byte buffer plus nest
// positions, sized for a renderer to pull once and diff against.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	grid := s.Sim.Grid()
	cells, dirt, _ := grid.CopyCells()
	type nestEntry struct {
		Colony int `json:"colony"`
		X      int `json:"x"`
		Y      int `json:"y"`
	}
	var nests []nestEntry
	for _, c := range s.Sim.Colonies() {
		nests = append(nests, nestEntry{Colony: c.ID, X: c.Nest.X, Y: c.Nest.Y})
	}
	s.Mu.Unlock()

	cellBytes := make([]byte, len(cells))
	for i, c := range cells {
		cellBytes[i] = byte(c)
	}
	dirtBytes := make([]byte, len(dirt))
	for i, d := range dirt {
		dirtBytes[i] = byte(d)
	}

	writeJSON(w, map[string]any{
		"cols":  grid.Cols,
		"rows":  grid.Rows,
		"cells": base64.StdEncoding.EncodeToString(cellBytes),
		"dirt":  base64.StdEncoding.EncodeToString(dirtBytes),
		"nests": nests,
	})
}

// handlePheromone serves one colony channel: /api/v1/pheromone/:colony/:channel
// where channel is "food" or "home". Values quantize to bytes (0..255) to keep
// payloads small.
func (s *Server) handlePheromone(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 6 {
		http.Error(w, "usage: /api/v1/pheromone/:colony/:channel", http.StatusBadRequest)
		return
	}
	colonyID, err := strconv.Atoi(parts[4])
	if err != nil {
		http.Error(w, "invalid colony id", http.StatusBadRequest)
		return
	}
	channel := parts[5]
	if channel != "food" && channel != "home" {
		http.Error(w, "channel must be food or home", http.StatusBadRequest)
		return
	}

	s.Mu.Lock()
	grid := s.Sim.Grid()
	if colonyID < 1 || colonyID > grid.Colonies() {
		s.Mu.Unlock()
		http.Error(w, "colony not found", http.StatusNotFound)
		return
	}
	var values []float32
	if channel == "food" {
		values = grid.CopyFoodPheromone(colonyID)
	} else {
		values = grid.CopyHomePheromone(colonyID)
	}
	limit := s.Sim.Config().Pheromone.Cap
	s.Mu.Unlock()

	if limit <= 0 {
		limit = 1
	}
	quantized := make([]byte, len(values))
	for i, v := range values {
		q := math.Round(float64(v) / limit * 255)
		if q > 255 {
			q = 255
		}
		quantized[i] = byte(q)
	}

	writeJSON(w, map[string]any{
		"colony":  colonyID,
		"channel": channel,
		"cols":    grid.Cols,
		"rows":    grid.Rows,
		"cap":     limit,
		"values":  base64.StdEncoding.EncodeToString(quantized),
	})
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	rows, err := s.DB.ListSnapshots(30)
	if err != nil {
		slog.Error("snapshot list query failed", "error", err)
		writeJSON(w, []persistence.SnapshotInfo{})
		return
	}
	if rows == nil {
		rows = []persistence.SnapshotInfo{}
	}
	writeJSON(w, rows)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if r.Method == http.MethodPost {
		paused := s.Sim.TogglePause()
		slog.Info("pause toggled", "paused", paused)
	}
	writeJSON(w, map[string]bool{"paused": s.Sim.Paused()})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed <= 0 || req.Speed > 100 {
			http.Error(w, "speed must be in (0, 100]", http.StatusBadRequest)
			return
		}
		s.Sim.SetSpeedMultiplier(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Sim.Config().Movement.SpeedMultiplier})
}

func (s *Server) handlePopulation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Add    int `json:"add,omitempty"`
		Remove int `json:"remove,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Add < 0 || req.Add > 500 || req.Remove < 0 || req.Remove > 500 {
		http.Error(w, "add/remove must be 0-500", http.StatusBadRequest)
		return
	}

	s.Mu.Lock()
	if req.Add > 0 {
		s.Sim.AddAnts(req.Add)
	}
	if req.Remove > 0 {
		s.Sim.RemoveAnts(req.Remove)
	}
	count := s.Sim.AntCount()
	s.Mu.Unlock()

	writeJSON(w, map[string]int{"ants": count})
}

func (s *Server) handleScatterFood(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Clusters int `json:"clusters"`
		Radius   int `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Clusters < 1 || req.Clusters > 50 {
		http.Error(w, "clusters must be 1-50", http.StatusBadRequest)
		return
	}
	if req.Radius < 1 || req.Radius > 10 {
		http.Error(w, "radius must be 1-10", http.StatusBadRequest)
		return
	}

	s.Mu.Lock()
	s.Sim.ScatterFood(req.Clusters, req.Radius)
	s.Mu.Unlock()

	writeJSON(w, map[string]any{"message": "food scattered", "clusters": req.Clusters})
}

// handleEdit queues a brush edit applied at the next tick boundary.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Kind   string `json:"kind"` // dig | food | rock
		X      int    `json:"x"`
		Y      int    `json:"y"`
		Radius int    `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var kind engine.EditKind
	switch req.Kind {
	case "dig":
		kind = engine.EditDig
	case "food":
		kind = engine.EditPlaceFood
	case "rock":
		kind = engine.EditPlaceRock
	default:
		http.Error(w, "kind must be dig, food, or rock", http.StatusBadRequest)
		return
	}

	s.Mu.Lock()
	grid := s.Sim.Grid()
	inBounds := req.X >= 0 && req.X < grid.Cols && req.Y >= 0 && req.Y < grid.Rows
	if inBounds {
		s.Sim.QueueEdit(engine.Edit{Kind: kind, X: req.X, Y: req.Y, Radius: req.Radius})
	}
	s.Mu.Unlock()

	if !inBounds {
		http.Error(w, "coordinates out of bounds", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"message": "edit queued"})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Seed     int64 `json:"seed"`
		Cols     int   `json:"cols"`
		Rows     int   `json:"rows"`
		Colonies int   `json:"colonies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	s.Mu.Lock()
	cfg := s.Sim.Config()
	if req.Cols == 0 {
		req.Cols = cfg.World.Cols
	}
	if req.Rows == 0 {
		req.Rows = cfg.World.Rows
	}
	if req.Colonies == 0 {
		req.Colonies = cfg.World.ColonyCount
	}
	err := s.Sim.GenerateRandomWorld(req.Seed, req.Cols, req.Rows, req.Colonies)
	s.Mu.Unlock()

	if err != nil {
		slog.Error("world regeneration failed", "error", err)
		http.Error(w, "generation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, map[string]any{
		"message": "world regenerated",
		"seed":    req.Seed,
		"cols":    req.Cols,
		"rows":    req.Rows,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	s.Mu.Lock()
	snap := s.Sim.ToSnapshot()
	tick := s.Sim.Tick()
	s.Mu.Unlock()

	if err := s.DB.SaveSnapshot(snap); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"id":      snap.ID,
		"tick":    tick,
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
