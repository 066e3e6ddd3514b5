// Package server exposes the compose operation over HTTP for workflow
// orchestrators.
//
// Routes:
//
//	POST /v1/layouts  compose a content package (JSON, or YAML with a YAML content type)
//	GET  /healthz     liveness
//	GET  /version     build and schema version
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/gestalt/pkg/buildinfo"
	"github.com/matzehuels/gestalt/pkg/config"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/pipeline"
)

// Server serves the layout API.
type Server struct {
	runner *pipeline.Runner
	cfg    config.ServerConfig
	logger *log.Logger
}

// New creates a server around runner.
func New(runner *pipeline.Runner, cfg config.ServerConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = config.Default().Server.MaxBodySize
	}
	return &Server{runner: runner, cfg: cfg, logger: logger}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(tracing)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id", "X-Gestalt-Cache", "X-Gestalt-Fingerprint"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.health)
	r.Get("/version", s.version)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layouts", s.composeLayout)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Handlers
// =============================================================================

// LayoutResponse is the body returned by POST /v1/layouts.
type LayoutResponse struct {
	Fingerprint string                `json:"fingerprint"`
	Cache       pipeline.CacheInfo    `json:"cache"`
	Advisory    *AdvisoryInfo         `json:"advisory,omitempty"`
	Layout      *layout.Specification `json:"layout"`
}

// AdvisoryInfo summarizes the advisory overlay run.
type AdvisoryInfo struct {
	RequestID string `json:"request_id"`
	Applied   int    `json:"applied"`
	Dropped   int    `json:"dropped"`
	Degraded  bool   `json:"degraded"`
}

func (s *Server) composeLayout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return
	}
	pkg, err := content.ParsePackage(body, requestFormat(r))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode content package"))
		return
	}

	res, err := s.runner.Compose(r.Context(), pkg)
	if err != nil {
		s.logger.Warn("compose failed", "request_id", chimw.GetReqID(r.Context()), "err", err)
		writeError(w, err)
		return
	}

	resp := LayoutResponse{Fingerprint: res.Fingerprint, Cache: res.CacheInfo, Layout: res.Spec}
	if rep := res.Advisory; rep.RequestID != "" {
		resp.Advisory = &AdvisoryInfo{
			RequestID: rep.RequestID,
			Applied:   rep.Applied,
			Dropped:   rep.Dropped,
			Degraded:  rep.Err != nil,
		}
	}
	cacheState := "miss"
	if res.CacheInfo.Hit {
		cacheState = "hit"
	}
	w.Header().Set("X-Gestalt-Cache", cacheState)
	w.Header().Set("X-Gestalt-Fingerprint", res.Fingerprint)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func requestFormat(r *http.Request) content.Format {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, "yaml") {
		return content.FormatYAML
	}
	return content.FormatJSON
}

// =============================================================================
// Responses
// =============================================================================

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the structured error fields.
type ErrorDetail struct {
	Code       string `json:"code"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message"`
	BlockID    string `json:"block_id,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

// StatusFor maps an error to its HTTP status: structural content problems
// are 422, malformed requests 400, everything else 500.
func StatusFor(err error) int {
	switch {
	case errors.IsStructural(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	detail := ErrorDetail{Code: string(errors.ErrCodeInternal), Message: "internal error"}
	if e, ok := errors.As(err); ok {
		detail = ErrorDetail{
			Code:       string(e.Code),
			Kind:       e.Kind,
			Message:    errors.UserMessage(err),
			BlockID:    e.BlockID,
			Rule:       e.Rule,
			Constraint: e.Constraint,
		}
		if e.Code == errors.ErrCodeInvalidInput && e.Cause != nil {
			detail.Message = e.Message + ": " + e.Cause.Error()
		}
	}
	writeJSON(w, StatusFor(err), ErrorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
