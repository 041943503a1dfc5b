package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brianhealey/phonebook/internal/auth"
	"github.com/brianhealey/phonebook/internal/identity"
	"github.com/brianhealey/phonebook/internal/models"
)

// Options tunes the router. Zero RateLimit disables rate limiting.
type Options struct {
	Identity  identity.Info
	RateLimit float64
	RateBurst int
}

// NewRouter creates and returns the main HTTP router.
func NewRouter(reg Registry, authSvc *auth.Service, bus EventBus, opts Options) http.Handler {
	r := chi.NewRouter()
	m := newMeter(reg, bus)

	// Global middleware. RealIP is left out: the limiter keys on the socket
	// peer, and no proxy sits in front of the server.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)
	r.Use(m.middleware)

	h := &Handlers{reg: reg, bus: bus, ident: opts.Identity}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, models.ErrNotFound("unknown endpoint"))
	})

	// Unauthenticated
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/metrics", m.writePrometheus)
	r.Get("/info", h.getInfo)

	// Record store API
	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(newClientLimiter(opts.RateLimit, opts.RateBurst).middleware)
		}
		if authSvc != nil {
			r.Use(authSvc.Middleware)
		}

		r.Get("/api/persons", h.listPersons)
		r.Post("/api/persons", h.createPerson)
		r.Get("/api/persons/{id}", h.getPerson)
		r.Put("/api/persons/{id}", h.updatePerson)
		r.Delete("/api/persons/{id}", h.deletePerson)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+auth.HeaderAPIKey)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
