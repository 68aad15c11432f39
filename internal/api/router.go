package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/regula/internal/api/handlers"
	mw "github.com/Harshitk-cp/regula/internal/api/middleware"
	"github.com/Harshitk-cp/regula/internal/buildconfig"
	"github.com/Harshitk-cp/regula/internal/config"
	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/service"
	"github.com/Harshitk-cp/regula/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router      *chi.Mux
	Experiments *service.ExperimentService
	Sessions    *service.SessionService
	Expirer     *service.ExpirerService
	stop        chan struct{}
}

// NewApp wires stores, services and routes. db may be nil, in which case
// experiments are computed but not persisted and snapshots are unavailable.
func NewApp(db *pgxpool.Pool, profiles *service.Profiles, logger *zap.Logger) *App {
	var (
		experimentStore domain.ExperimentStore
		snapshotStore   domain.SnapshotStore
	)
	if db != nil {
		experimentStore = store.NewExperimentStore(db)
		snapshotStore = store.NewSnapshotStore(db)
	} else {
		logger.Warn("no database configured, experiments will not be persisted")
	}

	// Services
	experimentSvc := service.NewExperimentService(experimentStore, profiles, logger)
	experimentSvc.Parallelism = config.ExperimentParallelism()
	experimentSvc.MaxAttempts = config.GeneratorMaxAttempts()
	sessionSvc := service.NewSessionService(snapshotStore, profiles, logger)
	expirerSvc := service.NewExpirerService(sessionSvc, config.SessionIdleTTL(), logger)

	// Handlers
	experimentHandler := handlers.NewExperimentHandler(experimentSvc)
	sessionHandler := handlers.NewSessionHandler(sessionSvc)

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		Experiments: experimentSvc,
		Sessions:    sessionSvc,
		Expirer:     expirerSvc,
		stop:        make(chan struct{}),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst(), app.stop))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/experiments", func(r chi.Router) {
			r.Post("/", experimentHandler.Create)
			r.Get("/", experimentHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", experimentHandler.GetByID)
				r.Get("/similar", experimentHandler.Similar)
			})
		})

		r.Post("/dialogues", experimentHandler.RunDialogue)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", sessionHandler.Delete)
				r.Post("/interactions", sessionHandler.Observe)
				r.Get("/regula", sessionHandler.Regula)
				r.Get("/hypotheses", sessionHandler.Hypotheses)
				r.Post("/evaluate", sessionHandler.Evaluate)
				r.Post("/snapshot", sessionHandler.Snapshot)
			})
		})
	})

	return app
}

// Start launches background services.
func (app *App) Start() {
	app.Expirer.Start()
}

// Stop halts background services.
func (app *App) Stop() {
	app.Expirer.Stop()
	close(app.stop)
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	start := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"status":         "ok",
			"uptime_seconds": time.Since(start).Seconds(),
			"database":       "disabled",
			"build":          buildconfig.VersionInfo(),
		}
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
			body["database"] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.ExperimentStore = (*store.ExperimentStore)(nil)
	_ domain.SnapshotStore   = (*store.SnapshotStore)(nil)
)
