package gamma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/metrics"
)

const (
	DefaultBaseURL  = "https://gamma-api.polymarket.com"
	DefaultTimeout  = 10 * time.Second
	RequestTimeout  = 5 * time.Second // Context timeout per request
	DefaultPageSize = 500
	DefaultMaxPages = 50
	MaxRetries      = 3
	BaseBackoff     = 200 * time.Millisecond
	MaxBackoff      = 2 * time.Second

	serviceName    = "gamma"
	eventsEndpoint = "/events"
)

// RestClient pages through the active events of a Gamma-style API and turns
// them into market records. It implements interfaces.MarketSource.
type RestClient struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	pageSize       int
	maxPages       int
	maxRetries     uint
	baseBackoff    time.Duration
}

// NewRestClient crea un cliente con la configuración por defecto
func NewRestClient() *RestClient {
	return &RestClient{
		baseURL:        DefaultBaseURL,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		requestTimeout: RequestTimeout,
		pageSize:       DefaultPageSize,
		maxPages:       DefaultMaxPages,
		maxRetries:     MaxRetries,
		baseBackoff:    BaseBackoff,
	}
}

// NewRestClientWithConfig crea un cliente a partir de la configuración de la fuente
func NewRestClientWithConfig(cfg config.HTTPSourceConfig) *RestClient {
	c := NewRestClient()
	if cfg.BaseURL != "" {
		c.baseURL = cfg.BaseURL
	}
	if cfg.RequestTimeout > 0 {
		c.requestTimeout = cfg.RequestTimeout
		c.httpClient.Timeout = 2 * cfg.RequestTimeout
	}
	if cfg.PageSize > 0 {
		c.pageSize = cfg.PageSize
	}
	if cfg.MaxPages > 0 {
		c.maxPages = cfg.MaxPages
	}
	if cfg.MaxRetries > 0 {
		c.maxRetries = uint(cfg.MaxRetries)
	}
	return c
}

// Name implements interfaces.MarketSource
func (c *RestClient) Name() string {
	return serviceName
}

// FetchMarkets reads every page of active, open events. Any page failing
// after retries fails the whole fetch: a partial universe would look like a
// shrunken one.
func (c *RestClient) FetchMarkets(ctx context.Context) ([]*entities.MarketRecord, error) {
	var (
		records []*entities.MarketRecord
		skipped int
		pages   int
	)

	for page := 0; page < c.maxPages; page++ {
		events, err := c.fetchPage(ctx, page*c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events page %d: %w", page, err)
		}
		pages++

		for i := range events {
			recs, sk := events[i].Records()
			records = append(records, recs...)
			skipped += sk
		}

		if len(events) < c.pageSize {
			break
		}
	}

	if skipped > 0 {
		metrics.RecordSkippedRecords(serviceName, metrics.SkipStageDecode, skipped)
		logging.Warn(ctx, "Skipped markets with undecodable token ids", logging.Fields{
			logging.FieldSource:  serviceName,
			logging.FieldSkipped: skipped,
		})
	}

	logging.Debug(ctx, "Fetched market universe", logging.Fields{
		logging.FieldSource:  serviceName,
		logging.FieldRecords: len(records),
		"pages":              pages,
	})

	return records, nil
}

// fetchPage obtiene una página de eventos con retry
func (c *RestClient) fetchPage(ctx context.Context, offset int) ([]Event, error) {
	var events []Event

	err := retry.Do(
		func() error {
			reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
			defer cancel()

			page, reqErr := c.doEventsRequest(reqCtx, offset)
			if reqErr != nil {
				return reqErr
			}

			events = page
			return nil
		},
		retry.Attempts(c.maxRetries),
		retry.Delay(c.baseBackoff),
		retry.MaxDelay(MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryableError),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordExternalAPIRetry(serviceName, eventsEndpoint, int(n+1))

			logging.Warn(ctx, "Gamma API retry attempt", logging.Fields{
				logging.FieldExternalService: serviceName,
				"attempt":                    n + 1,
				"max_attempts":               c.maxRetries,
				"offset":                     offset,
				logging.FieldError:           err.Error(),
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// doEventsRequest performs the actual HTTP request for a single page
func (c *RestClient) doEventsRequest(ctx context.Context, offset int) ([]Event, error) {
	query := url.Values{}
	query.Set("active", "true")
	query.Set("closed", "false")
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("offset", strconv.Itoa(offset))
	endpoint := c.baseURL + eventsEndpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrNonRetryable, err)
	}
	req.Header.Set("Accept", "application/json")

	logging.ExternalAPI().RequestStarted(ctx, serviceName, eventsEndpoint, http.MethodGet)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	durationMs := float64(time.Since(requestStart).Nanoseconds()) / 1e6

	if err != nil {
		logging.ExternalAPI().RequestFailed(ctx, serviceName, eventsEndpoint, 0, err, durationMs)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: context timeout/canceled: %w", ErrRetryable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordExternalAPICall(serviceName, eventsEndpoint, resp.StatusCode, durationMs/1000)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err = fmt.Errorf("%w: %w: HTTP %d (rate limited)", ErrRetryable, ErrUpstreamStatus, resp.StatusCode)
	case resp.StatusCode >= 500:
		err = fmt.Errorf("%w: %w: HTTP %d (server error)", ErrRetryable, ErrUpstreamStatus, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		err = fmt.Errorf("%w: %w: HTTP %d (client error)", ErrNonRetryable, ErrUpstreamStatus, resp.StatusCode)
	}
	if err != nil {
		logging.ExternalAPI().RequestFailed(ctx, serviceName, eventsEndpoint, resp.StatusCode, err, durationMs)
		return nil, err
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		// Un payload truncado suele ser transitorio
		return nil, fmt.Errorf("%w: %w: %v", ErrRetryable, ErrMalformedPayload, err)
	}

	logging.ExternalAPI().RequestCompleted(ctx, serviceName, eventsEndpoint, resp.StatusCode, durationMs)
	return events, nil
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	return errors.Is(err, ErrRetryable)
}
