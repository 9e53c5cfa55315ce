package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/pkg/api/auth"
	"github.com/marmos91/artifactguard/pkg/api/handlers"
	apimw "github.com/marmos91/artifactguard/pkg/api/middleware"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

// Deps are the collaborators the routes need. Monitor and Checks may be
// empty.
type Deps struct {
	Engine  handlers.Engine
	Monitor interface {
		handlers.SpaceReader
		handlers.SpaceChecker
	}
	Catalog catalog.Store
	Queue   handlers.ProtectionQueue
	Checks  []handlers.HealthCheck
}

// NewRouter builds the chi router. jwtService may be nil, in which case
// mutating routes are unauthenticated.
//
// Routes:
//   - GET /health, GET /health/ready
//   - GET /api/v1/purge, POST /api/v1/purge/trigger, GET /api/v1/purge/runs
//   - GET|POST /api/v1/stages, GET /api/v1/stages/{id}, PUT /api/v1/stages/{id}/keep
//   - GET /api/v1/protections, PUT|DELETE /api/v1/protections/{pipeline}/{stage}
func NewRouter(deps Deps, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(deps.Checks...)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	var (
		space   handlers.SpaceReader
		checker handlers.SpaceChecker
	)
	if deps.Monitor != nil {
		space, checker = deps.Monitor, deps.Monitor
	}

	purgeHandler := handlers.NewPurgeHandler(deps.Engine, space, deps.Catalog)
	stagesHandler := handlers.NewStagesHandler(deps.Catalog, checker)
	protectionsHandler := handlers.NewProtectionsHandler(deps.Queue, deps.Catalog)
	requireToken := apimw.JWTAuth(jwtService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/purge", func(r chi.Router) {
			r.Get("/", purgeHandler.Status)
			r.Get("/runs", purgeHandler.Runs)
			r.With(requireToken).Post("/trigger", purgeHandler.Trigger)
		})

		r.Route("/stages", func(r chi.Router) {
			r.Get("/", stagesHandler.List)
			r.Get("/{id}", stagesHandler.Get)
			r.With(requireToken).Post("/", stagesHandler.Register)
			r.With(requireToken).Put("/{id}/keep", stagesHandler.SetKeep)
		})

		r.Route("/protections", func(r chi.Router) {
			r.Get("/", protectionsHandler.List)
			r.With(requireToken).Put("/{pipeline}/{stage}", protectionsHandler.Add)
			r.With(requireToken).Delete("/{pipeline}/{stage}", protectionsHandler.Remove)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(start),
		)
	})
}
