package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tennis-market-cache/internal/application/dto"
	"tennis-market-cache/internal/application/services"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/infrastructure/logging"
)

// TokenHandler serves token lookups, snapshot stats and forced refreshes
type TokenHandler struct {
	store     SnapshotReader
	refresher Refresher
	mapper    *dto.SnapshotMapper
}

// NewTokenHandler creates a new instance of the token handler.
// refresher puede ser nil para un handle estático.
func NewTokenHandler(store SnapshotReader, refresher Refresher, policy classification.BufferPolicy) *TokenHandler {
	return &TokenHandler{
		store:     store,
		refresher: refresher,
		mapper:    dto.NewSnapshotMapper(policy),
	}
}

// GetToken godoc
// @Summary Token classification
// @Description Returns the category and price buffer of a token in the active snapshot. Unknown tokens are unclassified with a zero buffer.
// @Tags tokens
// @Produce json
// @Param tokenID path string true "CLOB token id"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid token id"
// @Router /api/v1/tokens/{tokenID} [get]
func (h *TokenHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	request, err := dto.NewTokenRequest(mux.Vars(r)["tokenID"])
	if err != nil {
		writeErrorResponse(r.Context(), w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	response := h.mapper.ToTokenResponse(h.store.Current(), request.TokenID)

	logging.Debug(r.Context(), "Token lookup", logging.Fields{
		logging.FieldToken:    request.TokenID,
		logging.FieldCategory: response.Category,
	})

	writeJSONResponse(r.Context(), w, http.StatusOK, response)
}

// GetSnapshot godoc
// @Summary Snapshot statistics
// @Description Returns the size, per-category counts and build metadata of the active snapshot together with the refresh status.
// @Tags snapshot
// @Produce json
// @Success 200 {object} dto.SnapshotResponse
// @Router /api/v1/snapshot [get]
func (h *TokenHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	var status *services.RefreshStatus
	if h.refresher != nil {
		s := h.refresher.Status()
		status = &s
	}

	response := h.mapper.ToSnapshotResponse(h.store.Current(), h.store.Version(), status)
	writeJSONResponse(r.Context(), w, http.StatusOK, response)
}

// Refresh godoc
// @Summary Force a refresh cycle
// @Description Runs one refresh cycle, or joins the one in progress. The previous snapshot is kept when the cycle fails.
// @Tags snapshot
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.RefreshResponse "New snapshot installed"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid API key"
// @Failure 422 {object} dto.RefreshResponse "Snapshot rejected by validation"
// @Failure 429 {object} dto.ErrorResponse "Rate limit exceeded"
// @Failure 502 {object} dto.RefreshResponse "Market source fetch failed"
// @Failure 503 {object} dto.ErrorResponse "No refresh scheduler configured or shutting down"
// @Router /api/v1/refresh [post]
func (h *TokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.refresher == nil {
		writeErrorResponse(ctx, w, http.StatusServiceUnavailable, "REFRESH_UNAVAILABLE", "no refresh scheduler configured")
		return
	}

	logging.Info(ctx, "Forced refresh requested", nil)

	result, err := h.refresher.RefreshNow(ctx)
	response := h.mapper.ToRefreshResponse(result, err)

	switch {
	case err == nil:
		writeJSONResponse(ctx, w, http.StatusOK, response)
	case services.IsValidationError(err):
		writeJSONResponse(ctx, w, http.StatusUnprocessableEntity, response)
	case services.IsFetchError(err):
		writeJSONResponse(ctx, w, http.StatusBadGateway, response)
	case errors.Is(err, services.ErrSchedulerStopped):
		writeErrorResponse(ctx, w, http.StatusServiceUnavailable, "REFRESH_UNAVAILABLE", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// El cliente se fue; el ciclo sigue corriendo para los demás
		writeErrorResponse(ctx, w, http.StatusGatewayTimeout, "REFRESH_ABANDONED", err.Error())
	default:
		logging.ErrorWithError(ctx, "Unexpected refresh error", err, nil)
		writeErrorResponse(ctx, w, http.StatusInternalServerError, "REFRESH_ERROR", err.Error())
	}
}
