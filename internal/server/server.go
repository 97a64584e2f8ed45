// Package server exposes the ambassador to the hosting harness over
// HTTP: the round tick, the citizen message callback and the read-only
// reporting surface.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/ambassador"
	"github.com/sells-group/ambassador/internal/model"
)

// Server wraps a Controller behind the harness-facing HTTP API.
type Server struct {
	controller *ambassador.Controller
	port       int
}

// New creates a Server for the given controller.
func New(c *ambassador.Controller, port int) *Server {
	return &Server{controller: c, port: port}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/rounds/advance", s.handleAdvanceRound)
	r.Post("/messages", s.handleMessage)
	r.Post("/citizens/query", s.handleQueryCitizens)
	r.Get("/ledger", s.handleLedger)
	r.Get("/actions", s.handleActions)
	r.Get("/scores", s.handleScores)
	r.Get("/distribution", s.handleDistribution)
	r.Get("/chats", s.handleChats)

	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", s.port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.AdvanceRound(r.Context()); err != nil {
		zap.L().Error("server: round failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "round failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"round": s.controller.Round(),
		"phase": s.controller.Phase(),
		"funds": s.controller.Funds(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID model.CitizenID `json:"sender_id"`
		Content  string          `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SenderID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sender_id is required"})
		return
	}

	reply := s.controller.OnCitizenMessage(r.Context(), req.SenderID, req.Content)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleQueryCitizens(w http.ResponseWriter, r *http.Request) {
	var filter model.CitizenFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	citizens := s.controller.QueryCitizens(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(citizens),
		"citizens": citizens,
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"funds":  s.controller.Funds(),
		"ledger": s.controller.Ledger(),
	})
}

func (s *Server) handleActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Actions())
}

func (s *Server) handleScores(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Scores())
}

func (s *Server) handleDistribution(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Distribution())
}

func (s *Server) handleChats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.ChatHistories())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
