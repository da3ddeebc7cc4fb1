package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stocktracker-backend/application/services"
	"stocktracker-backend/domain/stock"
	"stocktracker-backend/pkg/utils"
)

// PriceHandler handles price snapshot HTTP requests
type PriceHandler struct {
	prices *services.PriceService
	logger *zap.Logger
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(prices *services.PriceService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{prices: prices, logger: logger}
}

// RecordSnapshotRequest represents the request body for ingesting one day of prices
type RecordSnapshotRequest struct {
	Symbol string  `json:"symbol" validate:"required,min=1,max=12"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Open   float64 `json:"open" validate:"required,gt=0"`
	High   float64 `json:"high" validate:"required,gt=0"`
	Low    float64 `json:"low" validate:"required,gt=0"`
	Close  float64 `json:"close" validate:"required,gt=0"`
	Source string  `json:"source,omitempty" validate:"omitempty,max=60"`
}

// RecordSnapshot handles POST /prices
func (h *PriceHandler) RecordSnapshot(w http.ResponseWriter, r *http.Request) {
	var req RecordSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	snapshot := stock.PriceSnapshot{
		Symbol: req.Symbol,
		When:   req.Date,
		Open:   req.Open,
		High:   req.High,
		Low:    req.Low,
		Close:  req.Close,
		Source: req.Source,
	}
	if err := h.prices.RecordSnapshot(r.Context(), snapshot); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, snapshot)
}

// GetSnapshot handles GET /prices/{symbol}/{date}
func (h *PriceHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	date := chi.URLParam(r, "date")

	snapshot, err := h.prices.GetSnapshot(r.Context(), symbol, date)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, snapshot)
}

// GetSnapshotRange handles GET /prices/{symbol}?from=...&to=...
func (h *PriceHandler) GetSnapshotRange(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondMessage(w, h.logger, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	snapshots, err := h.prices.GetSnapshotRange(r.Context(), symbol, from, to)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if snapshots == nil {
		snapshots = []stock.PriceSnapshot{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
