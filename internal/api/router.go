package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/api/handlers"
	mw "github.com/Harshitk-cp/adaptplan/internal/api/middleware"
	"github.com/Harshitk-cp/adaptplan/internal/buildconfig"
	"github.com/Harshitk-cp/adaptplan/internal/config"
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/knn"
	"github.com/Harshitk-cp/adaptplan/internal/predictor"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/Harshitk-cp/adaptplan/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Planners  *service.PlannerService
	Retention *service.RetentionService
	startTime time.Time

	requestCount atomic.Int64
	errorCount   atomic.Int64
	collector    *mw.MetricsCollector
}

// Services are the application services the router serves.
type Services struct {
	Models    *service.ModelService
	Planners  *service.PlannerService
	Retention *service.RetentionService
}

type pinger interface {
	Ping(ctx context.Context) error
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	modelStore := store.NewModelStore(db)
	referenceStore := store.NewReferenceStore(db)
	curveStore := store.NewCurveStore(db)
	adaptationStore := store.NewAdaptationStore(db)

	opts := service.PlannerOptions{
		Parallelism:   config.PlannerParallelism(),
		MaxSteps:      config.PlannerMaxSteps(),
		NeighborIndex: config.NeighborIndex(),
		Predictor: predictor.Options{
			Timeout: config.PredictorTimeout(),
			RPS:     config.PredictorRPS(),
		},
	}
	logger.Info("planner options",
		zap.Int("parallelism", opts.Parallelism),
		zap.Int("max_steps", opts.MaxSteps),
		zap.String("neighbor_index", opts.NeighborIndex))

	// Services
	modelSvc := service.NewModelService(modelStore, referenceStore, curveStore, logger)
	plannerSvc := service.NewPlannerService(modelSvc, referenceStore, adaptationStore, opts, logger)
	retentionSvc := service.NewRetentionService(adaptationStore, config.AdaptationRetention(), logger)

	return newApp(db, Services{
		Models:    modelSvc,
		Planners:  plannerSvc,
		Retention: retentionSvc,
	}, config.APIKey(), logger)
}

func newApp(db pinger, svcs Services, apiKey string, logger *zap.Logger) *App {
	modelHandler := handlers.NewModelHandler(svcs.Models, svcs.Planners)
	adaptationHandler := handlers.NewAdaptationHandler(svcs.Planners)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Planners:  svcs.Planners,
		Retention: svcs.Retention,
		startTime: time.Now(),
	}
	app.collector = mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.collector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		r.Route("/models", func(r chi.Router) {
			r.Post("/", modelHandler.Create)
			r.Get("/", modelHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", modelHandler.GetByID)
				r.Delete("/", modelHandler.Delete)
				r.Get("/export", modelHandler.Export)
				r.Post("/adaptations", adaptationHandler.Create)
				r.Get("/adaptations", adaptationHandler.ListByModel)
			})
		})

		r.Get("/adaptations/{id}", adaptationHandler.GetByID)
	})

	return app
}

func healthHandler(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		resp := map[string]string{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			resp[k] = v
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":    uptime.Seconds(),
			"uptime_human":      uptime.Round(time.Second).String(),
			"request_count":     app.requestCount.Load(),
			"error_count":       app.errorCount.Load(),
			"requests_inflight": app.collector.InFlight(),
			"cached_planners":   app.Planners.Cached(),
			"goroutines":        runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ModelStore          = (*store.ModelStore)(nil)
	_ domain.ReferenceStore      = (*store.ReferenceStore)(nil)
	_ domain.CurveStore          = (*store.CurveStore)(nil)
	_ domain.AdaptationStore     = (*store.AdaptationStore)(nil)
	_ domain.NeighborIndex       = (*store.ReferenceIndex)(nil)
	_ domain.NeighborIndex       = (*knn.BruteForce)(nil)
	_ domain.ConfidencePredictor = (*predictor.Logistic)(nil)
	_ domain.ConfidencePredictor = (*predictor.HTTPClient)(nil)
	_ domain.ConfidencePredictor = (*predictor.MockClient)(nil)
)
