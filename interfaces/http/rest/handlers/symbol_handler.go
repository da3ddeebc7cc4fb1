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

// SymbolHandler handles tracked-symbol HTTP requests
type SymbolHandler struct {
	tracker *services.TrackerService
	logger  *zap.Logger
}

// NewSymbolHandler creates a new symbol handler
func NewSymbolHandler(tracker *services.TrackerService, logger *zap.Logger) *SymbolHandler {
	return &SymbolHandler{tracker: tracker, logger: logger}
}

// SaveSymbolRequest represents the request body for tracking a symbol
type SaveSymbolRequest struct {
	Symbol  string `json:"symbol" validate:"required,min=1,max=12"`
	Name    string `json:"name" validate:"required,min=1,max=120"`
	URL     string `json:"url,omitempty" validate:"omitempty,url"`
	Enabled bool   `json:"enabled"`
}

// SaveSymbol handles POST /symbols
func (h *SymbolHandler) SaveSymbol(w http.ResponseWriter, r *http.Request) {
	var req SaveSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondMessage(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	saved, err := h.tracker.SaveTrackedSymbol(r.Context(), stock.TrackedSymbol{
		Symbol:  req.Symbol,
		Name:    req.Name,
		URL:     req.URL,
		Enabled: req.Enabled,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, saved)
}

// ListSymbols handles GET /symbols
func (h *SymbolHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled") == "true"

	symbols, err := h.tracker.GetTrackedSymbols(r.Context(), enabledOnly)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if symbols == nil {
		symbols = []stock.TrackedSymbol{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// GetSymbol handles GET /symbols/{symbol}
func (h *SymbolHandler) GetSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	tracked, err := h.tracker.GetTrackedSymbol(r.Context(), symbol)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, tracked)
}

// DeleteSymbol handles DELETE /symbols/{symbol}
func (h *SymbolHandler) DeleteSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if err := h.tracker.DeleteTrackedSymbol(r.Context(), symbol); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
