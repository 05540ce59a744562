// Package server exposes the portfolio solver over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ThejanDulara/MMM-Reach/internal/catalog"
	"github.com/ThejanDulara/MMM-Reach/internal/history"
	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// Analyzer computes a portfolio for a request.
type Analyzer interface {
	Run(ctx context.Context, req portfolio.Request) (*portfolio.Result, error)
}

// ModelLister exposes the selectable models per channel.
type ModelLister interface {
	Has(name string) bool
	ChannelModels() map[string][]catalog.Entry
}

// RunStore records and lists computed portfolios.
type RunStore interface {
	Record(ctx context.Context, req portfolio.Request, res *portfolio.Result) (*history.Run, error)
	List(ctx context.Context, limit int) ([]history.Run, error)
}

// Deps are the collaborators served by the handler. Runs may be nil when run
// history is disabled.
type Deps struct {
	Analyzer Analyzer
	Models   ModelLister
	Runs     RunStore
}

type handler struct {
	logger      *zap.Logger
	deps        Deps
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the analyze API.
func NewHandler(logger *zap.Logger, deps Deps, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	maxBodySize := cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{logger: logger, deps: deps, maxBodySize: maxBodySize, version: trimmedVersion}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.handleRoot)
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.With(rateLimit(cfg.RateLimit)).Post("/analyze", h.handleAnalyze)
		r.Get("/models", h.handleModels)
		r.Get("/runs", h.handleRuns)
		r.Get("/version", h.handleVersion)
	})

	return r
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Backend is running!"))
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req portfolio.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), op)
		return
	}

	res, err := h.deps.Analyzer.Run(r.Context(), req)
	if err != nil {
		var verr *portfolio.ValidationError
		if errors.As(err, &verr) {
			h.respondErrorWithOp(w, http.StatusBadRequest, verr.Error(), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	if h.deps.Runs != nil {
		if _, err := h.deps.Runs.Record(r.Context(), req, res); err != nil {
			h.logger.Warn("failed to record run",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}

	h.logger.Info("analyze request completed",
		zap.String("op", op),
		zap.Float64("totalBudget", res.TotalBudget),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, res)
}

type modelInfo struct {
	Name    string         `json:"name"`
	Domain  catalog.Domain `json:"domain"`
	Sigma   float64        `json:"sigma"`
	Aliases []string       `json:"aliases,omitempty"`
}

type channelModels struct {
	Channel string      `json:"channel"`
	Default string      `json:"default,omitempty"`
	Models  []modelInfo `json:"models"`
}

func (h *handler) handleModels(w http.ResponseWriter, r *http.Request) {
	if h.deps.Models == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "model catalog is not available", "server.handleModels")
		return
	}

	grouped := h.deps.Models.ChannelModels()
	out := make([]channelModels, 0, len(constants.Channels()))
	for _, ch := range constants.Channels() {
		cm := channelModels{Channel: ch, Models: []modelInfo{}}
		if h.deps.Models.Has(ch) {
			cm.Default = ch
		}
		for _, e := range grouped[ch] {
			cm.Models = append(cm.Models, modelInfo{
				Name:    e.Name,
				Domain:  e.Domain,
				Sigma:   e.Sigma,
				Aliases: e.Aliases,
			})
		}
		out = append(out, cm)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"channels": out})
}

func (h *handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRuns"
	if h.deps.Runs == nil {
		h.respondErrorWithOp(w, http.StatusNotFound, "run history is disabled", op)
		return
	}

	limit := constants.DefaultRunsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = n
	}

	runs, err := h.deps.Runs.List(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Info("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// Serve runs an HTTP server on cfg.Address until ctx is cancelled, then shuts it
// down within cfg.ShutdownTimeout.
func Serve(ctx context.Context, logger *zap.Logger, cfg *Config, handler http.Handler) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "server.Serve"),
			zap.String("address", cfg.Address),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received", zap.String("op", "server.Serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
