// Package api provides the read-only HTTP API for observing a running
// game: status, city, map, story, and legacy endpoints. All endpoints
// are GET; the simulation is driven by the tick loop, not by clients.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/talgya/fragile/internal/engine"
	"github.com/talgya/fragile/internal/events"
	"github.com/talgya/fragile/internal/persistence"
	"github.com/talgya/fragile/internal/world"
)

// Server serves game state over HTTP. The mutex serializes access to the
// simulation, which the tick loop mutates from its own goroutine; the
// loop runs each full tick under the same lock via Locked.
type Server struct {
	Sim  *engine.Simulation
	DB   *persistence.DB
	Port int

	mu sync.Mutex
}

// Locked runs fn while holding the simulation lock. The tick loop wraps
// its Tick call in this so handlers never observe a half-applied tick.
func (s *Server) Locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/city", s.handleCity)
	mux.HandleFunc("/api/v1/research", s.handleResearch)
	mux.HandleFunc("/api/v1/story", s.handleStory)
	mux.HandleFunc("/api/v1/legacy", s.handleLegacy)
	mux.HandleFunc("/api/v1/map", s.handleMapRoutes)
	mux.HandleFunc("/api/v1/map/", s.handleMapRoutes)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins;
// localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
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
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"phase":        s.Sim.Phase,
		"seed":         s.Sim.Generator.Seed(),
		"explored":     s.Sim.Visibility.ExploredCount(),
		"harsh_winter": s.Sim.HarshWinter,
		"legacy_runs":  s.Sim.Legacy.RunCount(),
	}

	if snap := s.Sim.City.Snapshot(); snap != nil {
		status["tick"] = snap.TickCount
		status["season"] = events.SeasonForTick(snap.TickCount).String()
		status["population"] = snap.Population
		status["integrity"] = snap.Integrity
		status["unrest"] = snap.Unrest
	} else {
		status["settler_food"] = s.Sim.Settler.Food
		status["settler_position"] = s.Sim.Settler.Position
	}
	writeJSON(w, status)
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.Sim.City.Snapshot()
	if snap == nil {
		http.Error(w, "no city founded", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"city":               snap,
		"unlocked_buildings": s.Sim.City.UnlockedBuildings(),
	})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type techEntry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	var available []techEntry
	for _, t := range s.Sim.Research.AvailableTechs() {
		available = append(available, techEntry{ID: t.ID, Name: t.Name})
	}

	writeJSON(w, map[string]any{
		"researched": s.Sim.Research.Export().ResearchedTechs,
		"current":    s.Sim.Research.CurrentResearch(),
		"available":  available,
		"effects":    s.Sim.Research.TechEffects(),
	})
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// The durable log outlives the in-memory ring buffer; prefer it.
	if s.DB != nil {
		messages, err := s.DB.RecentStory(limit)
		if err == nil {
			writeJSON(w, messages)
			return
		}
		slog.Error("story query failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.Story.Messages())
}

func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Sim.Legacy.LegacyData())
}

// handleMapRoutes dispatches between the explored map (GET /api/v1/map)
// and tile detail (GET /api/v1/map/:q/:r).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		s.handleExploredMap(w, r)
		return
	}
	s.handleTileDetail(w, r)
}

// handleExploredMap returns every explored tile plus overlays: the city,
// the settler, and ruins of past runs. Unexplored terrain is never
// leaked; the fog of war applies to API clients too. Optional
// q0/r0/q1/r1 query params restrict the response to an axial window.
func (s *Server) handleExploredMap(w http.ResponseWriter, r *http.Request) {
	window, hasWindow, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type tileEntry struct {
		Q         int     `json:"q"`
		R         int     `json:"r"`
		Terrain   string  `json:"terrain"`
		Resource  string  `json:"resource,omitempty"`
		Elevation float64 `json:"elevation"`
		Visible   bool    `json:"visible,omitempty"`
	}

	keys := s.Sim.Visibility.ExploredKeys()
	tiles := make([]tileEntry, 0, len(keys))
	for _, key := range keys {
		coord, err := world.ParseKey(key)
		if err != nil {
			continue
		}
		if hasWindow && !window.contains(coord) {
			continue
		}
		t := s.Sim.Generator.GetTile(coord)
		if t == nil {
			continue
		}
		entry := tileEntry{
			Q:         coord.Q,
			R:         coord.R,
			Terrain:   t.Type.ID,
			Elevation: t.Elevation,
			Visible:   s.Sim.Visibility.IsVisible(coord),
		}
		if t.HasResource && t.Resource != nil {
			entry.Resource = t.Resource.ID
		}
		tiles = append(tiles, entry)
	}

	result := map[string]any{
		"tiles": tiles,
		"ruins": s.Sim.Legacy.Ruins(),
	}
	if snap := s.Sim.City.Snapshot(); snap != nil {
		result["city"] = map[string]any{
			"name": snap.Name,
			"q":    snap.Position.Q,
			"r":    snap.Position.R,
		}
	} else {
		result["settler"] = map[string]any{
			"q":    s.Sim.Settler.Position.Q,
			"r":    s.Sim.Settler.Position.R,
			"food": s.Sim.Settler.Food,
		}
	}
	writeJSON(w, result)
}

// mapWindow is an inclusive axial bounding box.
type mapWindow struct {
	q0, r0, q1, r1 int
}

func (m mapWindow) contains(h world.HexCoord) bool {
	return h.Q >= m.q0 && h.Q <= m.q1 && h.R >= m.r0 && h.R <= m.r1
}

// parseWindow reads the optional q0/r0/q1/r1 query params. All four must
// be present together.
func parseWindow(r *http.Request) (mapWindow, bool, error) {
	vals := r.URL.Query()
	params := []string{"q0", "r0", "q1", "r1"}
	present := 0
	for _, p := range params {
		if vals.Get(p) != "" {
			present++
		}
	}
	if present == 0 {
		return mapWindow{}, false, nil
	}
	if present != len(params) {
		return mapWindow{}, false, fmt.Errorf("map window needs all of q0, r0, q1, r1")
	}

	var w mapWindow
	var err error
	parse := func(name string, dst *int) {
		if err != nil {
			return
		}
		*dst, err = strconv.Atoi(vals.Get(name))
	}
	parse("q0", &w.q0)
	parse("r0", &w.r0)
	parse("q1", &w.q1)
	parse("r1", &w.r1)
	if err != nil {
		return mapWindow{}, false, fmt.Errorf("invalid map window: %w", err)
	}
	if w.q0 > w.q1 {
		w.q0, w.q1 = w.q1, w.q0
	}
	if w.r0 > w.r1 {
		w.r0, w.r1 = w.r1, w.r0
	}
	return w, true, nil
}

func (s *Server) handleTileDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	// /api/v1/map/:q/:r → parts[4]=q parts[5]=r
	if len(parts) < 6 {
		http.Error(w, "usage: /api/v1/map/:q/:r", http.StatusBadRequest)
		return
	}
	q, err1 := strconv.Atoi(parts[4])
	rr, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coord := world.HexCoord{Q: q, R: rr}
	if !s.Sim.Visibility.IsExplored(coord) {
		http.Error(w, "tile not explored", http.StatusNotFound)
		return
	}
	tile := s.Sim.Generator.GetTile(coord)
	if tile == nil {
		http.Error(w, "tile not explored", http.StatusNotFound)
		return
	}
	writeJSON(w, tile)
}
