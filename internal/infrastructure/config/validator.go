package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator valida la configuración cargada
type Validator struct{}

// NewValidator crea una nueva instancia del validador
func NewValidator() *Validator {
	return &Validator{}
}

// Validate valida toda la configuración
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateRefresh(config.Refresh); err != nil {
		return fmt.Errorf("refresh config validation failed: %w", err)
	}

	if err := v.validateSource(config.Source); err != nil {
		return fmt.Errorf("source config validation failed: %w", err)
	}

	if err := v.validateStream(config.Stream); err != nil {
		return fmt.Errorf("stream config validation failed: %w", err)
	}

	if err := v.validateRateLimit(config.RateLimit); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := v.validateAuth(config.Auth); err != nil {
		return fmt.Errorf("auth config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateServer valida la configuración del servidor
func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	return nil
}

// validateRefresh valida el loop de refresco y los umbrales del snapshot
func (v *Validator) validateRefresh(config RefreshConfig) error {
	if config.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got: %v", config.Interval)
	}

	if config.Interval < time.Second {
		return fmt.Errorf("refresh interval too short: %v, min 1s", config.Interval)
	}

	if config.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got: %v", config.FetchTimeout)
	}

	// A fetch that outlives the interval would overlap the next tick.
	if config.FetchTimeout >= config.Interval {
		return fmt.Errorf("fetch_timeout (%v) should be less than interval (%v)", config.FetchTimeout, config.Interval)
	}

	if config.MinSnapshotSize < 0 {
		return fmt.Errorf("min_snapshot_size cannot be negative, got: %d", config.MinSnapshotSize)
	}

	if config.MinRetainRatio < 0 || config.MinRetainRatio > 1 {
		return fmt.Errorf("min_retain_ratio must be between 0 and 1, got: %v", config.MinRetainRatio)
	}

	if config.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be at least 1, got: %d", config.FailureThreshold)
	}

	if config.ShrinkAcceptAfter < 0 {
		return fmt.Errorf("shrink_accept_after cannot be negative, got: %d", config.ShrinkAcceptAfter)
	}

	return nil
}

// validateSource valida la fuente de mercados seleccionada
func (v *Validator) validateSource(config SourceConfig) error {
	validBackends := []string{"http", "redis", "mock"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid source backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	switch strings.ToLower(config.Backend) {
	case "http":
		return v.validateHTTPSource(config.HTTP)
	case "redis":
		return v.validateRedis(config.Redis)
	}

	return nil
}

// validateHTTPSource valida el cliente de la API de eventos
func (v *Validator) validateHTTPSource(config HTTPSourceConfig) error {
	if err := v.validateURL(config.BaseURL, "source http base_url"); err != nil {
		return err
	}

	if config.RequestTimeout <= 0 {
		return fmt.Errorf("source http request_timeout must be positive, got: %v", config.RequestTimeout)
	}

	if config.PageSize < 1 || config.PageSize > 1000 {
		return fmt.Errorf("source http page_size must be between 1-1000, got: %d", config.PageSize)
	}

	if config.MaxPages < 1 {
		return fmt.Errorf("source http max_pages must be at least 1, got: %d", config.MaxPages)
	}

	if config.MaxRetries < 1 || config.MaxRetries > 10 {
		return fmt.Errorf("source http max_retries must be between 1-10, got: %d", config.MaxRetries)
	}

	return nil
}

// validateRedis valida la configuración de Redis
func (v *Validator) validateRedis(config RedisConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	if config.MarketKey == "" {
		return fmt.Errorf("redis market_key cannot be empty")
	}

	if config.ScanCount <= 0 {
		return fmt.Errorf("redis scan_count must be positive, got: %d", config.ScanCount)
	}

	return nil
}

// validateStream valida el stream de ciclo de vida, solo si está habilitado
func (v *Validator) validateStream(config StreamConfig) error {
	if !config.Enabled {
		return nil
	}

	if err := v.validateWebSocketURL(config.URL, "stream url"); err != nil {
		return err
	}

	if config.PingInterval <= 0 {
		return fmt.Errorf("stream ping_interval must be positive, got: %v", config.PingInterval)
	}

	if config.TriggerBurst < 1 {
		return fmt.Errorf("stream trigger_burst must be at least 1, got: %d", config.TriggerBurst)
	}

	if config.TriggerPerMin < 1 {
		return fmt.Errorf("stream trigger_per_minute must be at least 1, got: %d", config.TriggerPerMin)
	}

	if config.ReconnectDelay <= 0 {
		return fmt.Errorf("stream reconnect_delay must be positive, got: %v", config.ReconnectDelay)
	}

	return nil
}

// validateRateLimit valida la configuración de rate limiting
func (v *Validator) validateRateLimit(config RateLimitConfig) error {
	if config.Enabled {
		if config.Capacity <= 0 {
			return fmt.Errorf("rate_limit capacity must be positive when enabled, got: %d", config.Capacity)
		}

		if config.RefillRate <= 0 {
			return fmt.Errorf("rate_limit refill_rate must be positive when enabled, got: %d", config.RefillRate)
		}

		if config.Capacity > 10000 {
			return fmt.Errorf("rate_limit capacity too high: %d, max 10000", config.Capacity)
		}

		if config.RefillRate > 1000 {
			return fmt.Errorf("rate_limit refill_rate too high: %d, max 1000", config.RefillRate)
		}
	}

	return nil
}

// validateLogging valida la configuración de logging
func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateAuth valida que haya una API key cuando auth está habilitado
func (v *Validator) validateAuth(config AuthConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.APIKey == "" {
		return fmt.Errorf("auth api_key cannot be empty when auth is enabled")
	}

	if config.HeaderName == "" {
		return fmt.Errorf("auth header_name cannot be empty when auth is enabled")
	}

	return nil
}

// validateURL valida que una URL sea válida para HTTP/HTTPS
func (v *Validator) validateURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s, must be http or https", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

// validateWebSocketURL valida que una URL sea válida para WebSocket
func (v *Validator) validateWebSocketURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "ws" && parsedURL.Scheme != "wss" {
		return fmt.Errorf("invalid %s scheme: %s, must be ws or wss", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

// contains verifica si un slice contiene un elemento
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
