package marketdata

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/infrastructure/logging"
)

const mockSourceName = "mock"

// MockSource implementa MarketSource para testing y development.
// Devuelve un universo fijo y permite inyectar fallos y latencia.
type MockSource struct {
	mu      sync.RWMutex
	records []*entities.MarketRecord
	err     error
	delay   time.Duration
	calls   atomic.Int64
}

// NewMockSource creates a mock source serving records
func NewMockSource(records ...*entities.MarketRecord) *MockSource {
	m := &MockSource{}
	m.SetRecords(records)
	return m
}

// NewMockSourceWithDefaults serves a small realistic universe for dev mode
func NewMockSourceWithDefaults() *MockSource {
	return NewMockSource(DefaultMockRecords()...)
}

// DefaultMockRecords returns a mixed tennis / non-tennis universe
func DefaultMockRecords() []*entities.MarketRecord {
	mk := func(token, market, event, title, sport, series string, tags ...string) *entities.MarketRecord {
		r := entities.NewMarketRecord(token, market, event)
		r.EventTitle = title
		r.Sport = sport
		r.SeriesSlug = series
		r.Tags = tags
		return r
	}

	return []*entities.MarketRecord{
		mk("71321045679252212594626385532706912750332728571942532289631379312455583992563", "501", "9001", "Sinner vs. Alcaraz", "tennis", "atp-finals", "tennis", "atp"),
		mk("52114319501245915516055106046884209969926127482827954674443846427813813222426", "501", "9001", "Sinner vs. Alcaraz", "tennis", "atp-finals", "tennis", "atp"),
		mk("21742633143463906290569050155826241533067272736897614950488156847949938836455", "502", "9002", "Swiatek vs. Sabalenka", "", "wta-finals", "WTA"),
		mk("48331043336612883890938759509493159234755048973500640148014422747788308965732", "502", "9002", "Swiatek vs. Sabalenka", "", "wta-finals", "WTA"),
		mk("69236923620077691027083946871148646972011131466059644796654161903044970987404", "601", "9101", "Lakers vs. Celtics", "basketball", "nba", "nba"),
		mk("87584955359245246404952128082451897287778571240979823316620093987046202296181", "601", "9101", "Lakers vs. Celtics", "basketball", "nba", "nba"),
		mk("16678291189211314787145083999015737376658799626183230671758641503291735614088", "701", "9201", "Fed decision in December?", "", "", "economy"),
		mk("104173557214744537570424345347209544585775842950109756851652855913015295701992", "701", "9201", "Fed decision in December?", "", "", "economy"),
	}
}

// Name implements interfaces.MarketSource
func (m *MockSource) Name() string {
	return mockSourceName
}

// FetchMarkets devuelve una copia del universo configurado
func (m *MockSource) FetchMarkets(ctx context.Context) ([]*entities.MarketRecord, error) {
	m.calls.Add(1)

	m.mu.RLock()
	records, err, delay := m.records, m.err, m.delay
	m.mu.RUnlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		logging.Debug(ctx, "MockSource: returning injected error", logging.Fields{
			logging.FieldError: err.Error(),
		})
		return nil, err
	}

	out := make([]*entities.MarketRecord, len(records))
	copy(out, records)
	return out, nil
}

// SetRecords replaces the served universe
func (m *MockSource) SetRecords(records []*entities.MarketRecord) {
	cp := make([]*entities.MarketRecord, len(records))
	copy(cp, records)

	m.mu.Lock()
	m.records = cp
	m.mu.Unlock()
}

// SetError makes every fetch fail with err until cleared with nil
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SetFailing toggles a generic injected failure
func (m *MockSource) SetFailing(failing bool) {
	if failing {
		m.SetError(ErrInjectedFailure)
		return
	}
	m.SetError(nil)
}

// SetDelay adds latency before every fetch, honouring ctx
func (m *MockSource) SetDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// Calls returns how many times FetchMarkets was invoked
func (m *MockSource) Calls() int64 {
	return m.calls.Load()
}
