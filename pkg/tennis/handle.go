package tennis

import (
	"context"
	"errors"
	"sync"

	"tennis-market-cache/internal/application/services"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/repositories/cache"
)

// Handle bundles the snapshot store, the buffer policy and the scheduler that
// keeps the store fresh. Lookups on a Handle never block and never fail.
type Handle struct {
	store     *cache.SnapshotStore
	policy    classification.BufferPolicy
	scheduler *services.RefreshScheduler

	mu       sync.Mutex
	closers  []func() error
	checks   map[string]func(ctx context.Context) error
	shutdown bool
}

// NewHandle creates a handle. scheduler may be nil for a static handle.
func NewHandle(store *cache.SnapshotStore, policy classification.BufferPolicy, scheduler *services.RefreshScheduler) *Handle {
	if store == nil {
		store = cache.NewSnapshotStore()
	}
	return &Handle{
		store:     store,
		policy:    policy,
		scheduler: scheduler,
	}
}

// NewStaticHandle serves a fixed snapshot with the default policy and no
// refresh loop. A nil snapshot serves the empty one.
func NewStaticHandle(snapshot *classification.Snapshot) *Handle {
	return NewHandle(cache.NewSnapshotStoreWith(snapshot), classification.DefaultBufferPolicy(), nil)
}

// OnShutdown registers fn to run after the scheduler has stopped, in
// registration order.
func (h *Handle) OnShutdown(fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closers = append(h.closers, fn)
}

// AddCheck registers a readiness check for a dependency the handle owns
func (h *Handle) AddCheck(name string, check func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.checks == nil {
		h.checks = make(map[string]func(ctx context.Context) error)
	}
	h.checks[name] = check
}

// Checks returns a copy of the registered readiness checks
func (h *Handle) Checks() map[string]func(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]func(ctx context.Context) error, len(h.checks))
	for name, check := range h.checks {
		out[name] = check
	}
	return out
}

// Start starts the refresh loop, if the handle has one
func (h *Handle) Start(ctx context.Context) error {
	if h.scheduler == nil {
		return nil
	}
	return h.scheduler.Start(ctx)
}

// Shutdown stops the scheduler and then releases registered resources. Lookups
// keep answering from the last installed snapshot afterwards.
func (h *Handle) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		return nil
	}
	h.shutdown = true
	closers := h.closers
	h.closers = nil
	h.mu.Unlock()

	var errs []error
	if h.scheduler != nil {
		if err := h.scheduler.Stop(ctx); err != nil && !errors.Is(err, services.ErrSchedulerNotRunning) {
			errs = append(errs, err)
		}
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		logging.Error(ctx, "Tennis cache handle shutdown completed with errors", logging.Fields{
			logging.FieldError: err.Error(),
		})
		return err
	}

	logging.Info(ctx, "Tennis cache handle shut down", nil)
	return nil
}

// Store exposes the underlying snapshot store
func (h *Handle) Store() *cache.SnapshotStore {
	return h.store
}

// Scheduler returns the refresh scheduler, or nil for a static handle
func (h *Handle) Scheduler() *services.RefreshScheduler {
	return h.scheduler
}

// Policy returns the buffer policy
func (h *Handle) Policy() classification.BufferPolicy {
	return h.policy
}

// Snapshot returns the active snapshot
func (h *Handle) Snapshot() *classification.Snapshot {
	return h.store.Current()
}

// Ready reports whether a non-empty snapshot is installed
func (h *Handle) Ready() bool {
	return h.store.Size() > 0
}

// CategoryOf returns the category of tokenID in the active snapshot
func (h *Handle) CategoryOf(tokenID string) entities.Category {
	return h.store.Current().CategoryOf(tokenID)
}

// IsTennisToken reports whether tokenID belongs to a tennis market
func (h *Handle) IsTennisToken(tokenID string) bool {
	return h.CategoryOf(tokenID) == entities.CategoryTennis
}

// TokenBuffer returns the price buffer for tokenID. Unknown tokens get 0.
func (h *Handle) TokenBuffer(tokenID string) float64 {
	return h.policy.Buffer(h.CategoryOf(tokenID))
}
