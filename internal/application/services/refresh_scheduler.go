package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/domain/interfaces"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/metrics"
)

const (
	DefaultRefreshInterval   = 60 * time.Second
	DefaultFetchTimeout      = 15 * time.Second
	DefaultMinSnapshotSize   = 1
	DefaultMinRetainRatio    = 0.5
	DefaultFailureThreshold  = 5
	DefaultShrinkAcceptAfter = 3
)

// Refresh triggers, used as log and result labels.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
	TriggerStream   = "stream"
)

const refreshKey = "refresh"

// RefreshConfig controls the refresh loop and the sanity checks a new snapshot
// must pass before it is installed.
type RefreshConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration

	// MinSnapshotSize is the smallest snapshot accepted. Zero accepts an
	// empty universe.
	MinSnapshotSize int

	// MinRetainRatio rejects a snapshot smaller than previous*ratio. Zero
	// disables the check. It is skipped while the installed snapshot is empty.
	MinRetainRatio float64

	// FailureThreshold is the number of consecutive failures at which the
	// FailureObserver is called.
	FailureThreshold int

	// ShrinkAcceptAfter installs a snapshot that only fails the retain-ratio
	// check once that many cycles in a row were rejected for shrinking. Zero
	// keeps rejecting.
	ShrinkAcceptAfter int
}

// DefaultRefreshConfig returns the production defaults.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval:          DefaultRefreshInterval,
		FetchTimeout:      DefaultFetchTimeout,
		MinSnapshotSize:   DefaultMinSnapshotSize,
		MinRetainRatio:    DefaultMinRetainRatio,
		FailureThreshold:  DefaultFailureThreshold,
		ShrinkAcceptAfter: DefaultShrinkAcceptAfter,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultRefreshInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MinSnapshotSize < 0 {
		c.MinSnapshotSize = 0
	}
	if c.MinRetainRatio < 0 {
		c.MinRetainRatio = 0
	}
	if c.MinRetainRatio > 1 {
		c.MinRetainRatio = 1
	}
	if c.FailureThreshold < 1 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.ShrinkAcceptAfter < 0 {
		c.ShrinkAcceptAfter = 0
	}
	return c
}

// RefreshResult describes one completed cycle, successful or not.
type RefreshResult struct {
	CycleID        string
	Source         string
	Trigger        string
	Records        int
	Skipped        int
	Size           int
	TennisTokens   int
	PreviousSize   int
	Installed      bool
	AcceptedShrink bool
	Duration       time.Duration
}

// RefreshStatus is a point-in-time view of the scheduler for ops endpoints.
type RefreshStatus struct {
	Running             bool
	Source              string
	LastAttempt         time.Time
	LastSuccess         time.Time
	ConsecutiveFailures int
	Escalated           bool
	LastError           string
	SnapshotSize        int
	TennisTokens        int
	CycleID             string
}

// SchedulerOption customises a RefreshScheduler.
type SchedulerOption func(*RefreshScheduler)

// WithFailureObserver replaces the default alerting observer.
func WithFailureObserver(observer FailureObserver) SchedulerOption {
	return func(s *RefreshScheduler) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithRefreshLogger sets the logger used for cycle events.
func WithRefreshLogger(logger logging.RefreshLogger) SchedulerOption {
	return func(s *RefreshScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// RefreshScheduler periodically rebuilds the classification snapshot from a
// MarketSource and installs it into a SnapshotStore. It is the only writer of
// the store.
type RefreshScheduler struct {
	source     interfaces.MarketSource
	store      interfaces.SnapshotStore
	classifier *classification.Classifier
	config     RefreshConfig
	observer   FailureObserver
	logger     logging.RefreshLogger

	group    singleflight.Group
	triggers chan string

	// mu also serialises the final install against Stop
	mu               sync.Mutex
	lifeCtx          context.Context
	cancel           context.CancelFunc
	done             chan struct{}
	cycleDone        chan struct{}
	lastAttempt      time.Time
	lastSuccess      time.Time
	consecutive      int
	shrinkRejections int
	lastErr          error
}

// NewRefreshScheduler wires a scheduler. A nil classifier uses the default
// tennis rules.
func NewRefreshScheduler(source interfaces.MarketSource, store interfaces.SnapshotStore, classifier *classification.Classifier, config RefreshConfig, opts ...SchedulerOption) *RefreshScheduler {
	if classifier == nil {
		classifier = classification.NewClassifier()
	}

	s := &RefreshScheduler{
		source:     source,
		store:      store,
		classifier: classifier,
		config:     config.withDefaults(),
		logger:     logging.Refresh(),
		triggers:   make(chan string, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observer == nil {
		s.observer = NewAlertingObserver(s.logger)
	}
	return s
}

// Start runs a refresh right away and then one per interval until Stop is
// called or ctx is cancelled. It does not wait for the first cycle.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrSchedulerRunning
	}

	lifeCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.lifeCtx, s.cancel, s.done = lifeCtx, cancel, done

	go s.loop(lifeCtx, done)

	logging.Info(ctx, "Refresh scheduler started", logging.Fields{
		logging.FieldSource: s.source.Name(),
		"interval_ms":       s.config.Interval.Milliseconds(),
		"fetch_timeout_ms":  s.config.FetchTimeout.Milliseconds(),
		"min_snapshot_size": s.config.MinSnapshotSize,
		"min_retain_ratio":  s.config.MinRetainRatio,
		"failure_threshold": s.config.FailureThreshold,
	})
	return nil
}

// Stop cancels the loop and waits, bounded by ctx, for it and for any cycle
// still running against the source. A cancelled cycle never installs its
// snapshot, even when ctx expires first.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.done == nil {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.cancel()
	done := s.done
	s.lifeCtx, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	cycle := s.cycleDone
	s.mu.Unlock()

	if cycle != nil {
		select {
		case <-cycle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logging.Info(ctx, "Refresh scheduler stopped", logging.Fields{
		logging.FieldSource: s.source.Name(),
	})
	return nil
}

// loop waits for every cycle it starts, even after ctx is cancelled, so done
// only closes once no loop cycle is using the source.
func (s *RefreshScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	<-s.startCycle(ctx, ctx, TriggerStartup)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			<-s.startCycle(ctx, ctx, TriggerInterval)
		case trigger := <-s.triggers:
			<-s.startCycle(ctx, ctx, trigger)
		}
	}
}

// RefreshNow runs one cycle and returns its result. If a cycle is already in
// progress the caller joins it instead of starting another.
func (s *RefreshScheduler) RefreshNow(ctx context.Context) (*RefreshResult, error) {
	return s.refresh(ctx, TriggerManual)
}

// RequestRefresh asks the running loop for an early cycle without waiting for
// it. It returns false when a request is already pending.
func (s *RefreshScheduler) RequestRefresh(reason string) bool {
	if reason == "" {
		reason = TriggerStream
	}
	select {
	case s.triggers <- reason:
		return true
	default:
		return false
	}
}

func (s *RefreshScheduler) refresh(ctx context.Context, trigger string) (*RefreshResult, error) {
	s.mu.Lock()
	life := s.lifeCtx
	s.mu.Unlock()

	ch := s.startCycle(ctx, life, trigger)

	select {
	case res := <-ch:
		result, _ := res.Val.(*RefreshResult)
		return result, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startCycle runs a cycle or joins the one in progress. life is the scheduler
// lifetime the cycle is bound to; nil when the scheduler is not running.
func (s *RefreshScheduler) startCycle(ctx, life context.Context, trigger string) <-chan singleflight.Result {
	return s.group.DoChan(refreshKey, func() (interface{}, error) {
		cycleCtx, release := s.beginCycle(ctx, life)
		defer release()
		return s.runCycle(cycleCtx, life, trigger)
	})
}

// beginCycle detaches the cycle from the caller's cancellation, since other
// callers may have joined it, and ties it to life instead. release marks the
// cycle finished for Stop.
func (s *RefreshScheduler) beginCycle(ctx, life context.Context) (context.Context, func()) {
	cycleCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	finished := make(chan struct{})

	s.mu.Lock()
	s.cycleDone = finished
	s.mu.Unlock()

	stop := func() bool { return false }
	if life != nil {
		stop = context.AfterFunc(life, cancel)
	}

	return cycleCtx, func() {
		stop()
		cancel()

		s.mu.Lock()
		if s.cycleDone == finished {
			s.cycleDone = nil
		}
		s.mu.Unlock()
		close(finished)
	}
}

func stopped(life context.Context) bool {
	return life != nil && life.Err() != nil
}

func (s *RefreshScheduler) runCycle(ctx, life context.Context, trigger string) (*RefreshResult, error) {
	start := time.Now()
	sourceName := s.source.Name()
	previous := s.store.Current()

	result := &RefreshResult{
		CycleID:      uuid.NewString(),
		Source:       sourceName,
		Trigger:      trigger,
		PreviousSize: previous.Len(),
	}
	ctx = logging.WithCycleID(ctx, result.CycleID)

	s.mu.Lock()
	s.lastAttempt = start
	s.mu.Unlock()

	s.logger.CycleStarted(ctx, sourceName, trigger)

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	records, err := s.source.FetchMarkets(fetchCtx)
	if err == nil {
		// a source that ignores ctx still cannot outlive the timeout
		err = fetchCtx.Err()
	}
	cancel()
	if err != nil {
		if stopped(life) {
			return s.abandon(ctx, result, start)
		}
		return s.fail(ctx, result, start, &FetchError{Source: sourceName, Err: err})
	}

	builder := classification.NewSnapshotBuilder(result.CycleID, sourceName, len(records))
	for _, record := range records {
		builder.AddRecord(s.classifier, record)
	}
	next := builder.Build()

	result.Records = len(records)
	result.Skipped = builder.Skipped()
	result.Size = next.Len()
	result.TennisTokens = next.Count(entities.CategoryTennis)
	metrics.RecordSkippedRecords(sourceName, metrics.SkipStageInvalid, result.Skipped)

	if err := s.validate(next, previous); err != nil {
		if !s.acceptShrink(err) {
			return s.fail(ctx, result, start, err)
		}
		result.AcceptedShrink = true
		logging.Warn(ctx, "Installing shrunk snapshot after repeated rejections", logging.Fields{
			logging.FieldSource: sourceName,
			"size":              result.Size,
			"previous_size":     result.PreviousSize,
			"rejections":        s.config.ShrinkAcceptAfter,
		})
	}

	// Stop cancels life under mu: once it has, nothing installs.
	s.mu.Lock()
	if stopped(life) {
		s.mu.Unlock()
		return s.abandon(ctx, result, start)
	}
	s.store.Swap(next)
	recoveredFrom := s.consecutive
	s.consecutive = 0
	s.shrinkRejections = 0
	s.lastErr = nil
	s.lastSuccess = next.BuiltAt()
	s.mu.Unlock()

	result.Installed = true
	result.Duration = time.Since(start)

	metrics.RecordRefresh("success", result.Duration)
	metrics.RecordSnapshotInstalled(countsByCategory(next), next.BuiltAt())
	metrics.UpdateRefreshFailures(0)

	s.logger.CycleSucceeded(ctx, sourceName, result.Records, result.Size, result.TennisTokens, result.Duration)

	if recoveredFrom >= s.config.FailureThreshold {
		s.observer.Recovered(ctx, sourceName, recoveredFrom)
	}

	return result, nil
}

// validate applies the minimum-size and retain-ratio checks.
func (s *RefreshScheduler) validate(next, previous *classification.Snapshot) error {
	size, prev := next.Len(), previous.Len()

	if size < s.config.MinSnapshotSize {
		return &ValidationError{Reason: ErrSnapshotTooSmall, Size: size, Previous: prev, Minimum: s.config.MinSnapshotSize}
	}

	if prev > 0 && s.config.MinRetainRatio > 0 {
		minimum := int(math.Ceil(float64(prev) * s.config.MinRetainRatio))
		if size < minimum {
			return &ValidationError{Reason: ErrSnapshotShrunk, Size: size, Previous: prev, Minimum: minimum}
		}
	}

	return nil
}

// acceptShrink reports whether a retain-ratio rejection has persisted long
// enough to be taken as a real shrink of the universe.
func (s *RefreshScheduler) acceptShrink(err error) bool {
	if s.config.ShrinkAcceptAfter <= 0 || !errors.Is(err, ErrSnapshotShrunk) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shrinkRejections >= s.config.ShrinkAcceptAfter
}

// abandon ends a cycle cut short by Stop. It is not a refresh failure.
func (s *RefreshScheduler) abandon(ctx context.Context, result *RefreshResult, start time.Time) (*RefreshResult, error) {
	result.Duration = time.Since(start)
	metrics.RecordRefresh("cancelled", result.Duration)
	logging.Info(ctx, "Refresh cycle abandoned by shutdown", logging.Fields{
		logging.FieldSource: result.Source,
		"trigger":           result.Trigger,
	})
	return result, ErrSchedulerStopped
}

func (s *RefreshScheduler) fail(ctx context.Context, result *RefreshResult, start time.Time, err error) (*RefreshResult, error) {
	result.Duration = time.Since(start)

	s.mu.Lock()
	s.consecutive++
	consecutive := s.consecutive
	if errors.Is(err, ErrSnapshotShrunk) {
		s.shrinkRejections++
	} else if IsValidationError(err) {
		s.shrinkRejections = 0
	}
	s.lastErr = err
	s.mu.Unlock()

	var label string
	var ve *ValidationError
	if errors.As(err, &ve) {
		label = "validation_error"
		s.logger.CycleRejected(ctx, result.Source, err, ve.Size, ve.Previous)
	} else {
		label = "fetch_error"
		s.logger.CycleFailed(ctx, result.Source, err, consecutive)
	}

	metrics.RecordRefresh(label, result.Duration)
	metrics.UpdateRefreshFailures(consecutive)

	if consecutive >= s.config.FailureThreshold {
		s.observer.FailuresEscalated(ctx, result.Source, err, consecutive)
	}

	return result, err
}

// Status returns a snapshot of the scheduler state.
func (s *RefreshScheduler) Status() RefreshStatus {
	current := s.store.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	status := RefreshStatus{
		Running:             s.done != nil,
		Source:              s.source.Name(),
		LastAttempt:         s.lastAttempt,
		LastSuccess:         s.lastSuccess,
		ConsecutiveFailures: s.consecutive,
		Escalated:           s.consecutive >= s.config.FailureThreshold,
		SnapshotSize:        current.Len(),
		TennisTokens:        current.Count(entities.CategoryTennis),
		CycleID:             current.CycleID(),
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}

func countsByCategory(s *classification.Snapshot) map[string]int {
	counts := make(map[string]int, entities.CategoryCount)
	for _, c := range entities.AllCategories() {
		counts[c.String()] = s.Count(c)
	}
	return counts
}
