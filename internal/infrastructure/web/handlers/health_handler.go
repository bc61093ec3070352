package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"tennis-market-cache/internal/application/dto"
)

// dependencyCheckTimeout acota cada check de /ready
const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck prueba una dependencia para /ready. nil significa sana.
type DependencyCheck = func(ctx context.Context) error

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	store     SnapshotReader
	refresher Refresher
	checks    map[string]DependencyCheck
}

// NewHealthHandler crea una nueva instancia del health handler.
// refresher puede ser nil para un handle estático; checks puede ser nil.
func NewHealthHandler(store SnapshotReader, refresher Refresher, checks map[string]DependencyCheck) *HealthHandler {
	return &HealthHandler{
		store:     store,
		refresher: refresher,
		checks:    checks,
	}
}

// Health godoc
// @Summary Basic health check
// @Description Verifies that the service is running. Responds without checking the snapshot or the market source.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is running"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"service": "running",
	}

	writeJSONResponse(r.Context(), w, http.StatusOK, dto.NewHealthResponse("healthy", services))
}

// Ready godoc
// @Summary Readiness check
// @Description Ready once a non-empty classification snapshot is installed. Market source and stream checks are reported; a failing one marks the service degraded, since lookups keep answering from the installed snapshot.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "A snapshot is installed (status ready or degraded)"
// @Failure 503 {object} dto.HealthResponse "No snapshot installed yet"
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	size := h.store.Current().Len()
	services := map[string]string{
		"snapshot_size": strconv.Itoa(size),
	}

	if h.refresher != nil {
		status := h.refresher.Status()
		services["scheduler"] = "stopped"
		if status.Running {
			services["scheduler"] = "running"
		}
		services["consecutive_failures"] = strconv.Itoa(status.ConsecutiveFailures)
	} else {
		services["scheduler"] = "static"
	}

	healthy := true
	for name, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			services[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		services[name] = "ready"
	}

	if size == 0 {
		services["snapshot"] = "empty"
		writeJSONResponse(ctx, w, http.StatusServiceUnavailable, dto.NewHealthResponse("not_ready", services))
		return
	}

	services["snapshot"] = "ready"
	state := "ready"
	if !healthy {
		state = "degraded"
	}
	writeJSONResponse(ctx, w, http.StatusOK, dto.NewHealthResponse(state, services))
}
