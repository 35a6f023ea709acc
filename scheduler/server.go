package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imje/scheduled-helper/internal/fetcher"
	"github.com/imje/scheduled-helper/internal/metrics"
	"github.com/imje/scheduled-helper/internal/models"
	"github.com/imje/scheduled-helper/internal/openai"
	"github.com/imje/scheduled-helper/internal/results"
)

type server struct {
	log     *slog.Logger
	runner  runExecutor
	store   *results.Store
	timeout time.Duration
}

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Items []results.Entry `json:"items"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/runs", s.handleTrigger)
	r.Get("/results", s.handleList)
	r.Get("/results/latest", s.handleLatest)
	r.Get("/results/{name}", s.handleResult)

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTrigger starts a manual run and answers once it has finished.
func (s *server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	debug := parseBool(r.URL.Query().Get("debug"))

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.runner.Run(ctx, fetcher.Options{Trigger: models.TriggerManual, Debug: debug})
	if err != nil {
		writeJSON(w, statusForRunError(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleList(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: entries})
}

func (s *server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.serveResult(w, r, results.LatestName)
}

func (s *server) handleResult(w http.ResponseWriter, r *http.Request) {
	s.serveResult(w, r, chi.URLParam(r, "name"))
}

func (s *server) serveResult(w http.ResponseWriter, r *http.Request, name string) {
	f, err := s.store.Open(name)
	if errors.Is(err, results.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "result not found"})
		return
	}
	if err != nil {
		s.log.Error("open result", slog.String("name", name), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "cannot open result"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "cannot stat result"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func statusForRunError(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) || errors.Is(err, fetcher.ErrMalformedResponse) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
