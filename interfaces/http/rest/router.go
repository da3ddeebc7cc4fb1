package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/application/services"
	"stocktracker-backend/interfaces/http/rest/handlers"
	"stocktracker-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	tracker *services.TrackerService
	prices  *services.PriceService
	kpis    *services.KpiService
	cleanup ports.CleanupQueue
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	tracker *services.TrackerService,
	prices *services.PriceService,
	kpis *services.KpiService,
	cleanup ports.CleanupQueue,
	logger *zap.Logger,
) *Router {
	return &Router{
		tracker: tracker,
		prices:  prices,
		kpis:    kpis,
		cleanup: cleanup,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		// Tracked symbol endpoints
		r.Route("/symbols", func(r chi.Router) {
			symbolHandler := handlers.NewSymbolHandler(rt.tracker, rt.logger)
			r.Post("/", symbolHandler.SaveSymbol)
			r.Get("/", symbolHandler.ListSymbols)
			r.Get("/{symbol}", symbolHandler.GetSymbol)
			r.Delete("/{symbol}", symbolHandler.DeleteSymbol)
		})

		// Price snapshot endpoints
		r.Route("/prices", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(rt.prices, rt.logger)
			r.Post("/", priceHandler.RecordSnapshot)
			r.Get("/{symbol}", priceHandler.GetSnapshotRange)
			r.Get("/{symbol}/{date}", priceHandler.GetSnapshot)
		})

		// KPI endpoints
		r.Route("/kpis", func(r chi.Router) {
			kpiHandler := handlers.NewKpiHandler(rt.kpis, rt.cleanup, rt.logger)
			r.Get("/catalog", kpiHandler.Catalog)
			r.Post("/cleanup", kpiHandler.ScheduleCleanup)
			r.Get("/{symbol}", kpiHandler.ListNames)
			r.Post("/{symbol}/calculate", kpiHandler.Calculate)
			r.Get("/{symbol}/dates", kpiHandler.ListDates)
			r.Get("/{symbol}/{figure}", kpiHandler.GetRange)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
