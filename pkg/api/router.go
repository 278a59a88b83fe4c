// Package api exposes the permission operations over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/internal/telemetry"
	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/api/auth"
	"github.com/marmos91/dittoacl/pkg/api/handlers"
	"github.com/marmos91/dittoacl/pkg/api/middleware"
	"github.com/marmos91/dittoacl/pkg/directory"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/filesystem/access"
	"github.com/marmos91/dittoacl/pkg/job"
	"github.com/marmos91/dittoacl/pkg/metrics"
)

// Deps are the collaborators served by the router.
type Deps struct {
	Service *filesystem.Service
	Runner  *job.Runner

	// Checker answers can_access_as_user. Optional.
	Checker *access.Checker

	// Pools and Domain back the readiness probe. Optional.
	Pools  directory.PoolLister
	Domain defaults.DomainStateProvider

	// JWT authenticates /api/v1. Nil leaves the API unauthenticated.
	JWT *auth.JWTService
}

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET  /health, /health/ready         unauthenticated probes
//   - GET  /metrics                       Prometheus scrape endpoint
//   - POST /api/v1/filesystem/getacl
//   - POST /api/v1/filesystem/setacl      runs as a job
//   - POST /api/v1/filesystem/setperm     runs as a job
//   - POST /api/v1/filesystem/chown       runs as a job
//   - POST /api/v1/filesystem/acl_is_trivial
//   - GET  /api/v1/filesystem/default_acl_choices
//   - POST /api/v1/filesystem/get_default_acl
//   - POST /api/v1/filesystem/can_access_as_user
//   - GET  /api/v1/jobs, /api/v1/jobs/{id}
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.Pools, deps.Domain)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})
	r.Handle("/metrics", metrics.Handler())

	fsHandler := handlers.NewFilesystemHandler(deps.Service, deps.Runner, deps.Checker)
	jobsHandler := handlers.NewJobsHandler(deps.Runner.Store())

	r.Route("/api/v1", func(r chi.Router) {
		if deps.JWT != nil {
			r.Use(middleware.JWTAuth(deps.JWT))
		}

		r.Route("/filesystem", func(r chi.Router) {
			r.Post("/getacl", fsHandler.GetACL)
			r.Post("/setacl", fsHandler.SetACL)
			r.Post("/setperm", fsHandler.SetPerm)
			r.Post("/chown", fsHandler.Chown)
			r.Post("/acl_is_trivial", fsHandler.ACLIsTrivial)
			r.Get("/default_acl_choices", fsHandler.DefaultACLChoices)
			r.Post("/get_default_acl", fsHandler.DefaultACL)
			r.Post("/can_access_as_user", fsHandler.CanAccess)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobsHandler.List)
			r.Get("/{id}", jobsHandler.Get)
		})
	})

	return r
}

// requestLogger logs each request with the internal logger and seeds the
// request context with a LogContext carrying the client address and the
// active trace.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())
		lc := logger.NewLogContext(r.RemoteAddr)
		ctx := telemetry.WithLogContext(logger.WithContext(r.Context(), lc))

		logger.DebugCtx(ctx, "API request started",
			"request_id", requestID,
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "API request completed",
			"request_id", requestID,
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(lc.DurationMs()),
		)
	})
}
