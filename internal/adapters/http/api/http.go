// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/internal/domain/model"
	"github.com/okian/bakery/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BakedGoodDependencies
	BakeryDependencies
}

// BakedGoodDependencies covers the baked good write operations.
type BakedGoodDependencies interface {
	CreateBakedGood(ctx context.Context, name string, price float64) (model.BakedGood, error)
	DeleteBakedGood(ctx context.Context, id int64) error
}

// BakeryDependencies covers the bakery write operations.
type BakeryDependencies interface {
	UpdateBakery(ctx context.Context, id int64, patch model.BakeryPatch) (model.Bakery, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	bakedGoodHandler *BakedGoodHandler
	bakeryHandler    *BakeryHandler

	requestTimeout time.Duration
	log            logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRequestTimeout bounds the context of every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger sets the logger used by the access log and panic recovery.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		bakedGoodHandler: NewBakedGoodHandler(deps),
		bakeryHandler:    NewBakeryHandler(deps),
		requestTimeout:   3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /baked_goods", MetricsMiddleware(s.bakedGoodHandler.HandleCreate, "create_baked_good"))
	mux.HandleFunc("DELETE /baked_goods/{id}", MetricsMiddleware(s.bakedGoodHandler.HandleDelete, "delete_baked_good"))
	mux.HandleFunc("PATCH /bakeries/{id}", MetricsMiddleware(s.bakeryHandler.HandlePatch, "update_bakery"))
}

// Wrap applies the middleware shared by every route, outermost first:
// request id, access log, panic recovery, request timeout.
func (s *Server) Wrap(next http.Handler) http.Handler {
	return RequestIDMiddleware(
		AccessLogMiddleware(s.log,
			RecoverMiddleware(s.log,
				TimeoutMiddleware(s.requestTimeout, next))))
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, title string, err error) {
	resp := errorResponse{Error: title}
	if err != nil {
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}

// errorTitles names the error bodies an endpoint returns per error kind.
type errorTitles struct {
	invalid  string
	notFound string
	failed   string
}

// writeServiceError translates a service error kind into a status and body.
// Not-found bodies carry no message.
func writeServiceError(w http.ResponseWriter, err error, titles errorTitles) {
	cause := err
	var opErr *service.OpError
	if errors.As(err, &opErr) {
		cause = opErr.Cause()
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, titles.notFound, nil)
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, titles.invalid, cause)
	default:
		writeError(w, http.StatusInternalServerError, titles.failed, cause)
	}
}

// pathID parses the {id} wildcard as an unsigned base-10 int64. Signs are
// rejected.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" || strings.Trim(raw, "0123456789") != "" {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrBadRequest, raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrBadRequest, raw)
	}
	return id, nil
}
