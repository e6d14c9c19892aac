package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appHistory "github.com/handlepay/handlepay/internal/application/history"
	appIntent "github.com/handlepay/handlepay/internal/application/intent"
	"github.com/handlepay/handlepay/internal/application/resolver"
	"github.com/handlepay/handlepay/internal/domain/ledger"
	"github.com/handlepay/handlepay/internal/infrastructure/metrics"
	"github.com/handlepay/handlepay/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	flows       *appIntent.Manager
	resolverSvc *resolver.Service
	historySvc  *appHistory.Service
	session     *ledger.Session
	sseHub      *sse.Hub
	metrics     *metrics.Collector
	logger      zerolog.Logger

	// Background approve/submit calls outlive their request.
	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewServer(
	flows *appIntent.Manager,
	resolverSvc *resolver.Service,
	historySvc *appHistory.Service,
	session *ledger.Session,
	sseHub *sse.Hub,
	m *metrics.Collector,
	logger zerolog.Logger,
) *Server {
	bg, cancel := context.WithCancel(context.Background())
	return &Server{
		flows:       flows,
		resolverSvc: resolverSvc,
		historySvc:  historySvc,
		session:     session,
		sseHub:      sseHub,
		metrics:     m,
		logger:      logger.With().Str("service", "http").Logger(),
		bg:          bg,
		cancel:      cancel,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		// The event stream is long-lived and stays outside the request timeout.
		r.Get("/events", s.sseEndpoint)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/session", s.getSession)
			r.Get("/resolve/{identifier}", s.resolveIdentifier)
			r.Get("/registration/{handle}", s.checkRegistration)

			r.Route("/flows", func(r chi.Router) {
				r.Post("/", s.openFlow)
				r.Get("/", s.listFlows)
				r.Get("/{flowId}", s.getFlow)
				r.Delete("/{flowId}", s.closeFlow)
				r.Put("/{flowId}/target", s.setTarget)
				r.Put("/{flowId}/amount", s.setAmount)
				r.Post("/{flowId}/approve", s.approve)
				r.Post("/{flowId}/submit", s.submit)
				r.Post("/{flowId}/retry", s.retry)
				r.Post("/{flowId}/reset", s.reset)
			})

			r.Route("/history", func(r chi.Router) {
				r.Get("/", s.listHistory)
				r.Get("/{executionId}", s.getHistoryEntry)
			})
		})
	})

	return r
}

// Shutdown cancels background executions and waits for them to settle.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"flows":  s.flows.Count(),
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	handle, err := s.resolverSvc.ResolveOwnerOf(r.Context(), s.session.Account)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	resp := map[string]interface{}{"account": s.session.Account.Hex()}
	if handle != "" {
		resp["handle"] = handle
	}
	respondJSON(w, http.StatusOK, resp)
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
