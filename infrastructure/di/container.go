package di

import (
	"net/http"

	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/application/services"
	"stocktracker-backend/infrastructure/cache"
	"stocktracker-backend/infrastructure/config"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	PriceRepo    ports.PriceRepository
	KpiRepo      ports.KpiRepository
	SymbolRepo   ports.SymbolRepository
	Publisher    ports.EventPublisher
	KpiQueue     ports.KpiQueue
	CleanupQueue ports.CleanupQueue
	QueryCache   *cache.QueryCache
	Kpis         *services.KpiService
	Prices       *services.PriceService
	Tracker      *services.TrackerService
	Handler      http.Handler
}
