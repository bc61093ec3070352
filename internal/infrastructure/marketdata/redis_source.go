package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/metrics"
)

const (
	DefaultMarketKey = "tennis_cache:markets"
	DefaultScanCount = 1000

	redisSourceName = "redis"
)

// RedisClient is the subset of the go-redis client the source needs.
type RedisClient interface {
	HScan(ctx context.Context, key string, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisSource reads the market universe from a hash kept up to date by a
// collector process: field = token id, value = JSON MarketRecord.
type RedisSource struct {
	client    RedisClient
	key       string
	scanCount int64
}

// NewRedisSource creates a Redis-backed source from configuration
func NewRedisSource(cfg config.RedisConfig) *RedisSource {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisSourceWithClient(rdb, cfg.MarketKey, cfg.ScanCount)
}

// NewRedisSourceWithClient creates a source over an existing client
func NewRedisSourceWithClient(client RedisClient, key string, scanCount int64) *RedisSource {
	if key == "" {
		key = DefaultMarketKey
	}
	if scanCount <= 0 {
		scanCount = DefaultScanCount
	}
	return &RedisSource{
		client:    client,
		key:       key,
		scanCount: scanCount,
	}
}

// Name implements interfaces.MarketSource
func (r *RedisSource) Name() string {
	return redisSourceName
}

// FetchMarkets scans the whole hash. Undecodable values are skipped; a
// missing key yields an empty universe.
func (r *RedisSource) FetchMarkets(ctx context.Context) ([]*entities.MarketRecord, error) {
	start := time.Now()

	var (
		records []*entities.MarketRecord
		skipped int
		cursor  uint64
	)

	for {
		page, next, err := r.client.HScan(ctx, r.key, cursor, "", r.scanCount).Result()
		if err != nil {
			metrics.RecordExternalAPICall(redisSourceName, "HSCAN", 0, time.Since(start).Seconds())
			return nil, fmt.Errorf("redis hscan %s: %w", r.key, err)
		}

		// HSCAN returns field, value, field, value...
		for i := 0; i+1 < len(page); i += 2 {
			record, err := decodeRecord(page[i], page[i+1])
			if err != nil {
				skipped++
				logging.Debug(ctx, "Skipping malformed market record", logging.Fields{
					logging.FieldSource: redisSourceName,
					logging.FieldToken:  page[i],
					logging.FieldError:  err.Error(),
				})
				continue
			}
			records = append(records, record)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	metrics.RecordExternalAPICall(redisSourceName, "HSCAN", 200, time.Since(start).Seconds())
	metrics.RecordSkippedRecords(redisSourceName, metrics.SkipStageDecode, skipped)
	if skipped > 0 {
		logging.Warn(ctx, "Skipped malformed market records", logging.Fields{
			logging.FieldSource:  redisSourceName,
			logging.FieldSkipped: skipped,
			"key":                r.key,
		})
	}

	return records, nil
}

// decodeRecord parses a hash value. The field name is authoritative for the
// token id.
func decodeRecord(field, value string) (*entities.MarketRecord, error) {
	var record entities.MarketRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	record.TokenID = field
	if !record.Valid() {
		return nil, fmt.Errorf("%w: empty token id", ErrMalformedRecord)
	}
	return &record, nil
}

// Ping checks if Redis connection is alive
func (r *RedisSource) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisSource) Close() error {
	return r.client.Close()
}
