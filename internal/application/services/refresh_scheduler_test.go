package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/infrastructure/repositories/cache"
)

// MockMarketSource is a mock implementation of interfaces.MarketSource
type MockMarketSource struct {
	mock.Mock
}

func (m *MockMarketSource) Name() string {
	return "mock"
}

func (m *MockMarketSource) FetchMarkets(ctx context.Context) ([]*entities.MarketRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]*entities.MarketRecord)
	return records, args.Error(1)
}

type escalation struct {
	consecutive int
	err         error
}

type recordingObserver struct {
	mu          sync.Mutex
	escalations []escalation
	recoveries  []int
}

func (o *recordingObserver) FailuresEscalated(_ context.Context, _ string, err error, consecutive int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.escalations = append(o.escalations, escalation{consecutive: consecutive, err: err})
}

func (o *recordingObserver) Recovered(_ context.Context, _ string, afterFailures int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recoveries = append(o.recoveries, afterFailures)
}

func tennisRecord(token string) *entities.MarketRecord {
	r := entities.NewMarketRecord(token, "m-"+token, "e-"+token)
	r.Sport = "tennis"
	return r
}

func otherRecord(token string) *entities.MarketRecord {
	r := entities.NewMarketRecord(token, "m-"+token, "e-"+token)
	r.Sport = "soccer"
	return r
}

func records(n int) []*entities.MarketRecord {
	out := make([]*entities.MarketRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, otherRecord(fmt.Sprintf("tok-%d", i)))
	}
	return out
}

func testConfig() RefreshConfig {
	return RefreshConfig{
		Interval:         time.Hour,
		FetchTimeout:     time.Second,
		MinSnapshotSize:  1,
		MinRetainRatio:   0.5,
		FailureThreshold: 3,
	}
}

func newTestScheduler(source *MockMarketSource, store *cache.SnapshotStore, cfg RefreshConfig) (*RefreshScheduler, *recordingObserver) {
	observer := &recordingObserver{}
	return NewRefreshScheduler(source, store, nil, cfg, WithFailureObserver(observer)), observer
}

func TestRefreshScheduler_InstallsClassifiedSnapshot(t *testing.T) {
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return([]*entities.MarketRecord{
		tennisRecord("T1"),
		otherRecord("S1"),
		{TokenID: "   "},
		nil,
	}, nil).Once()

	store := cache.NewSnapshotStore()
	scheduler, _ := newTestScheduler(source, store, testConfig())

	result, err := scheduler.RefreshNow(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Installed)
	assert.Equal(t, TriggerManual, result.Trigger)
	assert.Equal(t, 4, result.Records)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 2, result.Size)
	assert.Equal(t, 1, result.TennisTokens)
	assert.Equal(t, 0, result.PreviousSize)
	assert.NotEmpty(t, result.CycleID)

	current := store.Current()
	assert.Equal(t, entities.CategoryTennis, current.CategoryOf("T1"))
	assert.Equal(t, entities.CategoryUnclassified, current.CategoryOf("S1"))
	assert.Equal(t, result.CycleID, current.CycleID())
	assert.Equal(t, "mock", current.Source())
	source.AssertExpectations(t)
}

func TestRefreshScheduler_FetchErrorRetainsPrevious(t *testing.T) {
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(nil, errors.New("upstream down"))

	previous := classification.NewSnapshot("old", "mock", map[string]entities.Category{"T1": entities.CategoryTennis})
	store := cache.NewSnapshotStoreWith(previous)
	scheduler, _ := newTestScheduler(source, store, testConfig())

	result, err := scheduler.RefreshNow(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.True(t, IsFetchError(err))
	assert.False(t, IsValidationError(err))
	assert.False(t, result.Installed)
	assert.Same(t, previous, store.Current())

	status := scheduler.Status()
	assert.Equal(t, 1, status.ConsecutiveFailures)
	assert.Contains(t, status.LastError, "upstream down")
	assert.Equal(t, 1, status.SnapshotSize)
	assert.Equal(t, "old", status.CycleID)
}

func TestRefreshScheduler_FetchTimeoutIsFetchError(t *testing.T) {
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})

	store := cache.NewSnapshotStore()
	cfg := testConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	scheduler, _ := newTestScheduler(source, store, cfg)

	start := time.Now()
	_, err := scheduler.RefreshNow(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, store.Current().Len())
}

func TestRefreshScheduler_Validation(t *testing.T) {
	tests := []struct {
		name         string
		previousSize int
		fetched      int
		minSize      int
		ratio        float64
		wantErr      error
	}{
		{"empty result rejected", 0, 0, 1, 0.5, ErrSnapshotTooSmall},
		{"below minimum size", 0, 2, 3, 0, ErrSnapshotTooSmall},
		{"first load ignores ratio", 0, 1, 1, 0.9, nil},
		{"shrunk below ratio", 10, 4, 1, 0.5, ErrSnapshotShrunk},
		{"exactly at ratio", 10, 5, 1, 0.5, nil},
		{"ratio disabled", 10, 1, 1, 0, nil},
		{"zero minimum accepts empty first load", 0, 0, 0, 0.5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockMarketSource)
			source.On("FetchMarkets", mock.Anything).Return(records(tt.fetched), nil)

			entries := make(map[string]entities.Category, tt.previousSize)
			for i := 0; i < tt.previousSize; i++ {
				entries[fmt.Sprintf("prev-%d", i)] = entities.CategoryUnclassified
			}
			previous := classification.NewSnapshot("prev", "mock", entries)
			store := cache.NewSnapshotStoreWith(previous)

			cfg := testConfig()
			cfg.MinSnapshotSize = tt.minSize
			cfg.MinRetainRatio = tt.ratio
			scheduler, _ := newTestScheduler(source, store, cfg)

			result, err := scheduler.RefreshNow(context.Background())

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, result.Installed)
				assert.Equal(t, tt.fetched, store.Current().Len())
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
			assert.NotErrorIs(t, err, ErrFetchFailed)
			assert.Same(t, previous, store.Current())
			assert.Equal(t, tt.fetched, result.Size)
		})
	}
}

func TestRefreshScheduler_EscalationAndRecovery(t *testing.T) {
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(nil, errors.New("boom")).Times(4)
	source.On("FetchMarkets", mock.Anything).Return([]*entities.MarketRecord{tennisRecord("T1")}, nil).Once()

	store := cache.NewSnapshotStore()
	scheduler, observer := newTestScheduler(source, store, testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := scheduler.RefreshNow(ctx)
		require.Error(t, err)
	}
	assert.Empty(t, observer.escalations)
	assert.False(t, scheduler.Status().Escalated)

	for i := 0; i < 2; i++ {
		_, err := scheduler.RefreshNow(ctx)
		require.Error(t, err)
	}
	require.Len(t, observer.escalations, 2)
	assert.Equal(t, 3, observer.escalations[0].consecutive)
	assert.Equal(t, 4, observer.escalations[1].consecutive)
	assert.ErrorIs(t, observer.escalations[0].err, ErrFetchFailed)
	assert.True(t, scheduler.Status().Escalated)

	_, err := scheduler.RefreshNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, observer.recoveries)

	status := scheduler.Status()
	assert.Equal(t, 0, status.ConsecutiveFailures)
	assert.Empty(t, status.LastError)
	assert.False(t, status.LastSuccess.IsZero())
	source.AssertExpectations(t)
}

func TestRefreshScheduler_ConcurrentRefreshesDoNotOverlap(t *testing.T) {
	var inFlight, maxInFlight, calls atomic.Int32

	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(records(3), nil).Run(func(mock.Arguments) {
		calls.Add(1)
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	})

	store := cache.NewSnapshotStore()
	scheduler, _ := newTestScheduler(source, store, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := scheduler.RefreshNow(context.Background())
			assert.NoError(t, err)
			assert.True(t, result.Installed)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.Equal(t, uint64(calls.Load()), store.Version())
}

func TestRefreshScheduler_CallerCancelDoesNotAbortCycle(t *testing.T) {
	release := make(chan struct{})
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(records(2), nil).Run(func(mock.Arguments) {
		<-release
	}).Once()

	store := cache.NewSnapshotStore()
	scheduler, _ := newTestScheduler(source, store, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := scheduler.RefreshNow(ctx)
		errCh <- err
	}()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool { return store.Current().Len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshScheduler_StartStop(t *testing.T) {
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return([]*entities.MarketRecord{tennisRecord("T1")}, nil)

	store := cache.NewSnapshotStore()
	scheduler, _ := newTestScheduler(source, store, testConfig())
	ctx := context.Background()

	require.ErrorIs(t, scheduler.Stop(ctx), ErrSchedulerNotRunning)

	require.NoError(t, scheduler.Start(ctx))
	assert.ErrorIs(t, scheduler.Start(ctx), ErrSchedulerRunning)
	assert.True(t, scheduler.Status().Running)

	// startup cycle runs without waiting for the first tick
	assert.Eventually(t, func() bool {
		return store.Current().CategoryOf("T1") == entities.CategoryTennis
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))
	assert.False(t, scheduler.Status().Running)

	// restart is allowed after a clean stop
	require.NoError(t, scheduler.Start(ctx))
	require.NoError(t, scheduler.Stop(stopCtx))
}

func TestRefreshScheduler_StopWaitsForInFlightCycle(t *testing.T) {
	var fetching, finished atomic.Bool
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		fetching.Store(true)
		<-args.Get(0).(context.Context).Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	}).Once()

	store := cache.NewSnapshotStore()
	cfg := testConfig()
	cfg.FetchTimeout = time.Minute
	scheduler, observer := newTestScheduler(source, store, cfg)

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, fetching.Load, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.True(t, finished.Load(), "Stop returned while the fetch was still running")
	assert.Equal(t, uint64(0), store.Version())

	status := scheduler.Status()
	assert.Equal(t, 0, status.ConsecutiveFailures)
	assert.Empty(t, status.LastError)
	assert.Empty(t, observer.escalations)
}

func TestRefreshScheduler_NoInstallAfterStop(t *testing.T) {
	release := make(chan struct{})
	var fetching atomic.Bool
	source := new(MockMarketSource)
	// ignora ctx y entrega un snapshot válido cuando ya se pidió Stop
	source.On("FetchMarkets", mock.Anything).Return(records(5), nil).Run(func(mock.Arguments) {
		fetching.Store(true)
		<-release
	}).Once()

	store := cache.NewSnapshotStore()
	scheduler, _ := newTestScheduler(source, store, testConfig())

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, fetching.Load, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, scheduler.Stop(stopCtx), context.DeadlineExceeded)

	close(release)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, uint64(0), store.Version())
	assert.Equal(t, 0, store.Current().Len())
	assert.Equal(t, 0, scheduler.Status().ConsecutiveFailures)
}

func TestRefreshScheduler_ShrinkAcceptedAfterRepeatedRejections(t *testing.T) {
	tests := []struct {
		name          string
		acceptAfter   int
		cycles        int
		wantInstalled bool
	}{
		{"rejected until the limit", 2, 2, false},
		{"accepted once the limit is reached", 2, 3, true},
		{"disabled keeps rejecting", 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockMarketSource)
			source.On("FetchMarkets", mock.Anything).Return(records(4), nil)

			entries := make(map[string]entities.Category, 10)
			for i := 0; i < 10; i++ {
				entries[fmt.Sprintf("prev-%d", i)] = entities.CategoryUnclassified
			}
			previous := classification.NewSnapshot("prev", "mock", entries)
			store := cache.NewSnapshotStoreWith(previous)

			cfg := testConfig()
			cfg.ShrinkAcceptAfter = tt.acceptAfter
			scheduler, _ := newTestScheduler(source, store, cfg)

			var result *RefreshResult
			var err error
			for i := 0; i < tt.cycles; i++ {
				result, err = scheduler.RefreshNow(context.Background())
			}

			if !tt.wantInstalled {
				assert.ErrorIs(t, err, ErrSnapshotShrunk)
				assert.Same(t, previous, store.Current())
				assert.Equal(t, tt.cycles, scheduler.Status().ConsecutiveFailures)
				return
			}

			require.NoError(t, err)
			assert.True(t, result.Installed)
			assert.True(t, result.AcceptedShrink)
			assert.Equal(t, 4, store.Current().Len())
			assert.Equal(t, 0, scheduler.Status().ConsecutiveFailures)
		})
	}
}

func TestRefreshScheduler_TickerRefreshes(t *testing.T) {
	var calls atomic.Int32
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(records(1), nil).Run(func(mock.Arguments) {
		calls.Add(1)
	})

	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	cfg.FetchTimeout = 5 * time.Millisecond
	scheduler, _ := newTestScheduler(source, cache.NewSnapshotStore(), cfg)

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop(context.Background())

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRefreshScheduler_RequestRefresh(t *testing.T) {
	var calls atomic.Int32
	source := new(MockMarketSource)
	source.On("FetchMarkets", mock.Anything).Return(records(1), nil).Run(func(mock.Arguments) {
		calls.Add(1)
	})

	scheduler, _ := newTestScheduler(source, cache.NewSnapshotStore(), testConfig())

	// not running: the request stays queued, a second one is coalesced
	assert.True(t, scheduler.RequestRefresh(TriggerStream))
	assert.False(t, scheduler.RequestRefresh(TriggerStream))

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop(context.Background())

	// startup + queued request
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshConfig_WithDefaults(t *testing.T) {
	cfg := RefreshConfig{MinSnapshotSize: -1, MinRetainRatio: 3}.withDefaults()

	assert.Equal(t, DefaultRefreshInterval, cfg.Interval)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, 0, cfg.MinSnapshotSize)
	assert.Equal(t, 1.0, cfg.MinRetainRatio)
	assert.Equal(t, DefaultFailureThreshold, cfg.FailureThreshold)
	assert.Equal(t, 0, RefreshConfig{ShrinkAcceptAfter: -2}.withDefaults().ShrinkAcceptAfter)
	assert.Equal(t, DefaultRefreshConfig(), DefaultRefreshConfig().withDefaults())
}
