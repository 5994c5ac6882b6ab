// Package server exposes the dashboard API: pipeline stats, the recent
// action feed, and an endpoint that kicks off a prospecting run.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/prospector/internal/auth"
	"github.com/example/prospector/internal/config"
	"github.com/example/prospector/internal/logging"
	"github.com/example/prospector/internal/models"
	"github.com/example/prospector/internal/store"
)

// RunFunc launches one full prospecting run. The server never runs more
// than one at a time.
type RunFunc func(ctx context.Context, keyword string, creds auth.Credentials) error

type Server struct {
	cfg     *config.Config
	st      *store.Store
	run     RunFunc
	running atomic.Bool
	log     *logging.Logger
}

func New(cfg *config.Config, st *store.Store, run RunFunc) *Server {
	return &Server{
		cfg: cfg,
		st:  st,
		run: run,
		log: logging.New(cfg.Logging.Level).With("module", "server"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("POST /api/run", s.handleRun)
	return mux
}

// ListenAndServe blocks. If a cron schedule is configured, runs are also
// triggered on that schedule with credentials taken from the environment.
func (s *Server) ListenAndServe() error {
	if expr := s.cfg.Server.ScheduleCron; expr != "" {
		c := cron.New()
		if _, err := c.AddFunc(expr, s.scheduledRun); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
		s.log.Info("schedule registered", "cron", expr)
	}
	s.log.Info("dashboard listening", "addr", s.cfg.Server.Addr)
	return http.ListenAndServe(s.cfg.Server.Addr, s.Handler())
}

func (s *Server) scheduledRun() {
	creds, err := auth.CredentialsFromEnv()
	if err != nil {
		s.log.Error("scheduled run skipped", "err", err)
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("scheduled run skipped, another run is active")
		return
	}
	go func() {
		defer s.running.Store(false)
		if err := s.run(context.Background(), s.cfg.Search.Keyword, creds); err != nil {
			s.log.Error("scheduled run failed", "err", err)
		}
	}()
}

type statsResponse struct {
	TotalLeads   int `json:"totalLeads"`
	Invited      int `json:"invited"`
	Connected    int `json:"connected"`
	DailyActions int `json:"dailyActions"`
	DailyLimit   int `json:"dailyLimit"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		resp statsResponse
		err  error
	)
	if resp.TotalLeads, err = s.st.CountLeads(ctx); err != nil {
		s.fail(w, err)
		return
	}
	if resp.Invited, err = s.st.CountLeadsByStatus(ctx, models.StatusInvited); err != nil {
		s.fail(w, err)
		return
	}
	if resp.Connected, err = s.st.CountLeadsByStatus(ctx, models.StatusConnected); err != nil {
		s.fail(w, err)
		return
	}
	if resp.DailyActions, err = s.st.CountActionsToday(ctx); err != nil {
		s.fail(w, err)
		return
	}
	if resp.DailyLimit, err = s.st.DailyActionLimit(ctx); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type logEntry struct {
	ActionType string    `json:"actionType"`
	TargetURL  string    `json:"targetUrl"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	actions, err := s.st.RecentActions(r.Context(), 20)
	if err != nil {
		s.fail(w, err)
		return
	}
	entries := make([]logEntry, 0, len(actions))
	for _, a := range actions {
		entries = append(entries, logEntry{
			ActionType: string(a.Type),
			TargetURL:  a.TargetURL,
			Timestamp:  a.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type runRequest struct {
	Keywords string `json:"keywords"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Keywords == "" || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keywords, username and password are required"})
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	runID := uuid.NewString()
	s.log.Info("run accepted", "run_id", runID, "keywords", req.Keywords)
	go func() {
		defer s.running.Store(false)
		creds := auth.Credentials{Username: req.Username, Password: req.Password}
		if err := s.run(context.Background(), req.Keywords, creds); err != nil {
			s.log.Error("run failed", "run_id", runID, "err", err)
			return
		}
		s.log.Info("run finished", "run_id", runID)
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "run_id": runID})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
