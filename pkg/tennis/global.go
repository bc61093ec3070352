package tennis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"tennis-market-cache/internal/infrastructure/logging"
)

// ErrAlreadyInitialized is returned by Configure once Global has run.
var ErrAlreadyInitialized = errors.New("tennis cache handle already initialized")

// HandleFactory builds the process-wide handle. It runs at most once.
type HandleFactory func() (*Handle, error)

var (
	globalMu      sync.Mutex
	globalFactory HandleFactory
	globalBuilt   bool
	globalOnce    sync.Once
	globalHandle  atomic.Pointer[Handle]
)

// Configure registers the factory used by the first call to Global.
func Configure(factory HandleFactory) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalBuilt {
		return ErrAlreadyInitialized
	}
	globalFactory = factory
	return nil
}

// Global returns the process-wide handle, building it and starting its
// refresh loop on first use. Concurrent first callers block until the handle
// is fully built and all receive the same one.
func Global() *Handle {
	if h := globalHandle.Load(); h != nil {
		return h
	}
	globalOnce.Do(initGlobal)
	return globalHandle.Load()
}

// Shutdown stops the global handle if it was ever built
func Shutdown(ctx context.Context) error {
	if h := globalHandle.Load(); h != nil {
		return h.Shutdown(ctx)
	}
	return nil
}

func initGlobal() {
	globalMu.Lock()
	factory := globalFactory
	globalBuilt = true
	globalMu.Unlock()

	// Un factory que entra en pánico no puede dejar Global devolviendo nil
	defer func() {
		if r := recover(); r != nil {
			logging.Error(context.Background(), "Tennis cache factory panicked, serving empty snapshot", logging.Fields{
				"panic": fmt.Sprint(r),
			})
			globalHandle.Store(NewStaticHandle(nil))
		}
	}()

	globalHandle.Store(buildHandle(factory))
}

// buildHandle corre el factory. Si falla, devuelve un handle estático vacío
// para que los lookups sigan respondiendo.
func buildHandle(factory HandleFactory) *Handle {
	ctx := context.Background()

	if factory == nil {
		logging.Warn(ctx, "No tennis cache factory configured, serving empty snapshot", nil)
		return NewStaticHandle(nil)
	}

	h, err := factory()
	if err != nil || h == nil {
		fields := logging.Fields{}
		if err != nil {
			fields[logging.FieldError] = err.Error()
		}
		logging.Error(ctx, "Tennis cache factory failed, serving empty snapshot", fields)
		return NewStaticHandle(nil)
	}

	if err := h.Start(ctx); err != nil {
		logging.ErrorWithError(ctx, "Failed to start tennis cache refresh", err, nil)
	}
	return h
}
