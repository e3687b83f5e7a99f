package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/api/handlers"
	mw "github.com/Harshitk-cp/marketmind/internal/api/middleware"
	"github.com/Harshitk-cp/marketmind/internal/buildconfig"
	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/metrics"
	"github.com/Harshitk-cp/marketmind/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options carries the HTTP surface settings.
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Engine    *service.Engine
	Review    *service.ReviewService
	startTime time.Time
	done      chan struct{}
}

func NewApp(engine *service.Engine, review *service.ReviewService, rec *metrics.Recorder, opts Options, logger *zap.Logger) *App {
	cycleHandler := handlers.NewCycleHandler(engine)
	snapshotHandler := handlers.NewSnapshotHandler(engine)
	hypothesisHandler := handlers.NewHypothesisHandler(engine)
	ruleHandler := handlers.NewRuleHandler(engine)
	reviewHandler := handlers.NewReviewHandler(engine, review)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Engine:    engine,
		Review:    review,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                   // Generate/extract request ID first
	r.Use(middleware.RealIP)                                              // Extract real IP
	r.Use(mw.Metrics(rec))                                                // Collect metrics
	r.Use(mw.Logging(logger))                                             // Log all requests
	r.Use(middleware.Recoverer)                                           // Recover from panics
	r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, app.done)) // Rate limiting

	// Health (no auth)
	r.Get("/health", app.healthHandler())

	// Metrics (no auth)
	r.Handle("/metrics", rec.Handler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Post("/cycles", cycleHandler.Run)

		r.Route("/snapshot", func(r chi.Router) {
			r.Get("/", snapshotHandler.Current)
			r.Get("/export", snapshotHandler.Export)
			r.Get("/{seq}", snapshotHandler.AtSequence)
		})

		r.Get("/hypotheses", hypothesisHandler.List)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", ruleHandler.List)
			r.Post("/", ruleHandler.Record)
		})

		r.Get("/mistakes", reviewHandler.Mistakes)
		r.Get("/flags", reviewHandler.Flags)
		r.Post("/review", reviewHandler.Review)
	})

	return app
}

// Close stops background work owned by the router.
func (app *App) Close() {
	select {
	case <-app.done:
	default:
		close(app.done)
	}
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		snap, err := app.Engine.CurrentSnapshot(r.Context())
		if err != nil {
			status := "error"
			if errors.Is(err, domain.ErrCorruptState) {
				status = "corrupt"
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         "ok",
			"cycle_sequence": snap.CycleSequence,
			"uptime_seconds": time.Since(app.startTime).Seconds(),
			"build":          buildconfig.VersionInfo(),
		})
	}
}
