package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/metrics"
	"github.com/pvcore/pointstore/internal/session"
	"github.com/pvcore/pointstore/internal/store"
)

// Server holds the dependencies HTTP handlers need: the store those
// handlers delegate to, the authenticator that validates bearer tokens, and
// the rate limit configuration for the RPC surface.
type Server struct {
	Store     *store.Store
	Auth      *session.Authenticator
	RateLimit RateLimitInfo
}

// DefaultRateLimit provides the default per-identity rate limit for the RPC
// surface.
var DefaultRateLimit = RateLimitInfo{
	WindowSeconds: 60,
	MaxRequests:   600,
	Burst:         120,
}

// Routes builds the HTTP router exposing the session RPC surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(SessionIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.Auth))

		// Capability discovery and session lifecycle need an authenticated
		// identity but not yet an open client session.
		r.Get("/v1/info", s.Info)
		r.Post("/v1/sessions", s.BeginSession)
		r.Get("/v1/sessions/{id}", s.GetSession)
		r.Delete("/v1/sessions/{id}", s.EndSession)

		// The RPC surface proper requires an open client session.
		r.Group(func(r chi.Router) {
			r.Use(SessionRequired)
			r.Use(RateLimitMiddleware(s.RateLimit))

			r.Post("/v1/select", s.Select)
			r.Post("/v1/pull", s.Pull)
			r.Post("/v1/update", s.Update)
			r.Post("/v1/purge", s.Purge)
			r.Post("/v1/subscribe", s.Subscribe)
			r.Post("/v1/unsubscribe", s.Unsubscribe)
			r.Post("/v1/deliver", s.Deliver)
			r.Get("/v1/deliver/stream", s.DeliverWS)
			r.Post("/v1/bindings", s.GetPointBindings)
			r.Get("/v1/stategroups", s.GetStateGroups)
			r.Post("/v1/resolve", s.Resolve)
			r.Post("/v1/impersonate", s.Impersonate)
			r.Post("/v1/interrupt", s.Interrupt)
			r.Get("/v1/probe", s.Probe)
		})
	})

	log.Info().Msg("http routes registered")
	return r
}
