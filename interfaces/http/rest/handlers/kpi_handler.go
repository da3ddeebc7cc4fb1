package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/application/services"
	"stocktracker-backend/domain/stock"
	"stocktracker-backend/pkg/utils"
)

// KpiHandler handles KPI HTTP requests
type KpiHandler struct {
	kpis    *services.KpiService
	cleanup ports.CleanupQueue
	logger  *zap.Logger
}

// NewKpiHandler creates a new KPI handler
func NewKpiHandler(kpis *services.KpiService, cleanup ports.CleanupQueue, logger *zap.Logger) *KpiHandler {
	return &KpiHandler{kpis: kpis, cleanup: cleanup, logger: logger}
}

// CalculateRequest represents the request body for a synchronous calculation
type CalculateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// Calculate handles POST /kpis/{symbol}/calculate
func (h *KpiHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	report, err := h.kpis.CalculateKpis(r.Context(), symbol, req.Date)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, report)
}

// figureDTO describes one supported figure in catalog responses.
type figureDTO struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}

// Catalog handles GET /kpis/catalog
func (h *KpiHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	figures := h.kpis.GetFigureCatalog()
	catalog := make([]figureDTO, 0, len(figures))
	for _, figure := range figures {
		catalog = append(catalog, figureDTO{Name: figure.Name, Explanation: figure.Explanation})
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"figures": catalog,
		"count":   len(catalog),
	})
}

// ListNames handles GET /kpis/{symbol}
func (h *KpiHandler) ListNames(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	names, err := h.kpis.GetPersistedKpiNames(r.Context(), symbol)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if names == nil {
		names = map[string]string{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"kpis":   names,
		"count":  len(names),
	})
}

// ListDates handles GET /kpis/{symbol}/dates
func (h *KpiHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	dates, err := h.kpis.GetKpiDates(r.Context(), symbol)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"dates":  dates,
		"count":  len(dates),
	})
}

// GetRange handles GET /kpis/{symbol}/{figure}?from=...&to=...
func (h *KpiHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	figure := chi.URLParam(r, "figure")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondMessage(w, h.logger, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	records, err := h.kpis.GetKpiRange(r.Context(), symbol, figure, from, to)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []stock.KpiRecord{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"figure":  figure,
		"records": records,
		"count":   len(records),
	})
}

// CleanupRequest represents the request body for scheduling a retention sweep
type CleanupRequest struct {
	CleanupLimitDate string `json:"cleanupLimitDate" validate:"required,datetime=2006-01-02"`
}

// ScheduleCleanup handles POST /kpis/cleanup
func (h *KpiHandler) ScheduleCleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.cleanup.EnqueueCleanup(r.Context(), req.CleanupLimitDate); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
		"cleanupLimitDate": req.CleanupLimitDate,
		"scheduled":        true,
	})
}
