// Package api provides the HTTP API for observing the colony.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/pathfinding"
	"github.com/talgya/mini-colony/internal/persistence"
	"github.com/talgya/mini-colony/internal/world"
)

const (
	maxStreamConns = 8
	streamBatch    = 100
	streamCatchUp  = 50
	writeWait      = 5 * time.Second
	maxSpeed       = 1000
)

// Server serves the colony state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine       // Nil for a server without a running engine
	DB       *persistence.DB      // Nil disables POST /api/v1/snapshot
	Registry *prometheus.Registry // Nil disables /metrics

	AdminKey       string // Bearer token for POST endpoints. Empty = POST disabled.
	StreamInterval time.Duration
	KeepSnapshots  int

	limiter     *RateLimiter
	upgrader    websocket.Upgrader
	streamConns atomic.Int32
}

// NewServer creates a server for sim from the server settings.
func NewServer(sim *engine.Simulation, eng *engine.Engine, cfg config.ServerConfig) *Server {
	return &Server{
		Sim:            sim,
		Eng:            eng,
		AdminKey:       cfg.AdminToken,
		StreamInterval: cfg.StreamInterval,
		KeepSnapshots:  5,
		limiter:        NewRateLimiter(cfg.RateLimit, cfg.Burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/agent/{id}", s.handleAgent)
	mux.HandleFunc("GET /api/v1/broker", s.handleBroker)
	mux.HandleFunc("GET /api/v1/stations", s.handleStations)
	mux.HandleFunc("GET /api/v1/piles", s.handlePiles)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/path", s.handlePath)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/occupation", s.adminOnly(s.handleOccupation))
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	if s.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}
	return corsMiddleware(mux)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Streams watch the request context, so cancelling ctx ends them too.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "metrics", s.Registry != nil)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown", "error", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set COLONY_CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("COLONY_CORS_ORIGINS"); env != "" {
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
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly wraps a handler with rate limiting and bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return RateLimitMiddleware(s.limiter, func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no COLONY_SERVER_ADMIN_TOKEN set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := struct {
		engine.Status
		Speed   float64 `json:"speed"`
		Running bool    `json:"running"`
	}{Status: s.Sim.Status()}
	if s.Eng != nil {
		status.Speed = s.Eng.Speed()
		status.Running = status.Speed > 0
	}
	writeJSON(w, status)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	list := s.Sim.Agents()
	if occ := r.URL.Query().Get("occupation"); occ != "" {
		want, err := agents.ParseOccupation(occ)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filtered := list[:0]
		for _, a := range list {
			if a.Occupation == want {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}
	writeJSON(w, list)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}
	a, ok := s.Sim.Agent(id)
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleBroker(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.HaulRequests())
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stations())
}

func (s *Server) handlePiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Piles())
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	writeJSON(w, map[string]any{
		"tick":   st.Tick,
		"width":  st.Width,
		"height": st.Height,
		"rows":   s.Sim.RenderMap(),
		"legend": map[string]string{
			".": "floor", "#": "rock", "~": "magma",
			"@": "character", "E": "energy generator", "O": "oxygen generator", "*": "pile",
		},
	})
}

// handlePath plans a path the way a colonist would: GET /api/v1/path?from=x,y&to=x,y.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := world.ParsePos(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := world.ParsePos(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	path, err := s.Sim.FindPath(from, to)
	switch {
	case errors.Is(err, pathfinding.ErrUnreachable):
		http.Error(w, "unreachable", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"from":   from,
		"to":     to,
		"length": path.Len(),
		"steps":  path.String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if since := r.URL.Query().Get("since"); since != "" {
		seq, err := strconv.ParseUint(since, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		writeJSON(w, orEmpty(s.Sim.EventsSince(seq, limit)))
		return
	}
	writeJSON(w, orEmpty(s.Sim.RecentEvents(limit)))
}

func (s *Server) handleOccupation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Agent      int    `json:"agent"`
		Occupation string `json:"occupation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	occ, err := agents.ParseOccupation(req.Occupation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Sim.SetOccupation(req.Agent, occ); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrUnknownAgent) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	slog.Info("occupation changed", "agent", req.Agent, "occupation", occ)
	a, _ := s.Sim.Agent(req.Agent)
	writeJSON(w, a)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not running", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > maxSpeed {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	if err := s.Eng.SetSpeed(req.Speed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	info, err := s.DB.SaveSnapshot(s.Sim.Export(), s.KeepSnapshots)
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, info)
}

// handleStream pushes events over a websocket as they happen. ?since=N
// resumes after event N; without it the last few events are replayed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	since := uint64(0)
	if v := r.URL.Query().Get("since"); v != "" {
		seq, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = seq
	} else if recent := s.Sim.RecentEvents(streamCatchUp); len(recent) > 0 {
		since = recent[0].Seq - 1
	}

	if s.streamConns.Add(1) > maxStreamConns {
		s.streamConns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streamConns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: the client sends nothing, but reading notices the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("stream client connected", "remote", clientIP(r), "since", since)
	interval := s.StreamInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for {
			batch := s.Sim.EventsSince(since, streamBatch)
			if len(batch) == 0 {
				break
			}
			for _, e := range batch {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					slog.Debug("stream write failed", "error", err)
					return
				}
				since = e.Seq
			}
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			slog.Info("stream client disconnected", "remote", clientIP(r))
			return
		case <-ticker.C:
		}
	}
}

func orEmpty(events []engine.Event) []engine.Event {
	if events == nil {
		return []engine.Event{}
	}
	return events
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
