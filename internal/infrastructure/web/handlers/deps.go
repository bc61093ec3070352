package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tennis-market-cache/internal/application/dto"
	"tennis-market-cache/internal/application/services"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/infrastructure/logging"
)

// SnapshotReader is the read side of the snapshot store
type SnapshotReader interface {
	Current() *classification.Snapshot
	Version() uint64
}

// Refresher is the part of the refresh scheduler the ops endpoints drive
type Refresher interface {
	RefreshNow(ctx context.Context) (*services.RefreshResult, error)
	Status() services.RefreshStatus
}

// writeJSONResponse writes a JSON response preserving the request context
func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(ctx, "Failed to encode JSON response", err, logging.Fields{
			logging.FieldHTTPStatusCode: statusCode,
		})
	}
}

// writeErrorResponse writes an error response
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSONResponse(ctx, w, statusCode, dto.NewErrorResponse(errorCode, message))
}
