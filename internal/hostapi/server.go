// Package hostapi exposes the host's workout controls and event stream over
// HTTP for embedding applications that are not written in Go.
package hostapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/host"
	"FitTrack-Bridge/internal/relay"
)

// Commander is the command surface; relay.Relay satisfies it.
type Commander interface {
	Start() error
	Stop() error
	IsConnected() bool
	Refresh()
	Attempts() []relay.Attempt
}

// StatsSource reports router diagnostics; host.Agent satisfies it.
type StatsSource interface {
	Stats() host.Stats
}

type Server struct {
	cmd   Commander
	stats StatsSource
	bc    *Broadcaster
	log   *logger.Logger
}

func NewServer(cmd Commander, stats StatsSource, bc *Broadcaster, log *logger.Logger) *Server {
	return &Server{cmd: cmd, stats: stats, bc: bc, log: log.Component("hostapi")}
}

// Routes builds the router.
func (s *Server) Routes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.withLogging)
	router.Use(withCORS)

	router.Route("/api/workout", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/connected", s.handleConnected)
		r.Get("/stats", s.handleStats)
		r.Get("/attempts", s.handleAttempts)
		r.Get("/stream", s.handleStream)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return router
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.cmd.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "connected": s.cmd.IsConnected()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.cmd.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "connected": s.cmd.IsConnected()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.cmd.Refresh()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleConnected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"connected": s.cmd.IsConnected()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       s.stats.Stats(),
		"subscribers": s.bc.Subscribers(),
	})
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"attempts": s.cmd.Attempts()})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	events, cancel := s.bc.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if _, err := w.Write([]byte("event: " + ev.Name + "\ndata: " + string(ev.Data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Int("size", ww.BytesWritten()).
			Send()
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
