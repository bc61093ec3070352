package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Refresh        RefreshConfig        `yaml:"refresh" mapstructure:"refresh"`
	Source         SourceConfig         `yaml:"source" mapstructure:"source"`
	Stream         StreamConfig         `yaml:"stream" mapstructure:"stream"`
	Classification ClassificationConfig `yaml:"classification" mapstructure:"classification"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth           AuthConfig           `yaml:"auth" mapstructure:"auth"`
	Logging        LoggingConfig        `yaml:"logging" mapstructure:"logging"`
	Development    DevelopmentConfig    `yaml:"development" mapstructure:"development"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// RefreshConfig controls the snapshot refresh loop
type RefreshConfig struct {
	Interval          time.Duration `yaml:"interval" mapstructure:"interval"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	MinSnapshotSize   int           `yaml:"min_snapshot_size" mapstructure:"min_snapshot_size"`
	MinRetainRatio    float64       `yaml:"min_retain_ratio" mapstructure:"min_retain_ratio"`
	FailureThreshold  int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ShrinkAcceptAfter int           `yaml:"shrink_accept_after" mapstructure:"shrink_accept_after"` // 0 = rechazar siempre
}

// SourceConfig selects where raw market metadata comes from
type SourceConfig struct {
	Backend string           `yaml:"backend" mapstructure:"backend"` // http | redis | mock
	HTTP    HTTPSourceConfig `yaml:"http" mapstructure:"http"`
	Redis   RedisConfig      `yaml:"redis" mapstructure:"redis"`
}

// HTTPSourceConfig configures the Gamma-style events API client
type HTTPSourceConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	PageSize       int           `yaml:"page_size" mapstructure:"page_size"`
	MaxPages       int           `yaml:"max_pages" mapstructure:"max_pages"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
}

// RedisConfig contains Redis-specific configuration
type RedisConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	MarketKey string `yaml:"market_key" mapstructure:"market_key"`
	ScanCount int64  `yaml:"scan_count" mapstructure:"scan_count"`
}

// StreamConfig configures the optional market lifecycle websocket
type StreamConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	URL            string        `yaml:"url" mapstructure:"url"`
	PingInterval   time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	TriggerBurst   int           `yaml:"trigger_burst" mapstructure:"trigger_burst"`
	TriggerPerMin  int           `yaml:"trigger_per_minute" mapstructure:"trigger_per_minute"`
	MaxReconnects  uint          `yaml:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`
	AssetIDs       []string      `yaml:"asset_ids" mapstructure:"asset_ids"` // vacío = solo eventos de mercado
}

// ClassificationConfig extends the built-in tennis rules
type ClassificationConfig struct {
	ExtraTennisTags []string `yaml:"extra_tennis_tags" mapstructure:"extra_tennis_tags"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	Capacity   int  `yaml:"capacity" mapstructure:"capacity"`
	RefillRate int  `yaml:"refill_rate" mapstructure:"refill_rate"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	HeaderName  string   `yaml:"header_name" mapstructure:"header_name"`
	UnauthPaths []string `yaml:"unauth_paths" mapstructure:"unauth_paths"`
}

// LoggingConfig contains logging system configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DevelopmentConfig contiene configuraciones para desarrollo y testing
type DevelopmentConfig struct {
	MockMode  bool `yaml:"mock_mode" mapstructure:"mock_mode"`
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval:          60 * time.Second,
			FetchTimeout:      15 * time.Second,
			MinSnapshotSize:   1,
			MinRetainRatio:    0.5,
			FailureThreshold:  5,
			ShrinkAcceptAfter: 3,
		},
		Source: SourceConfig{
			Backend: "http",
			HTTP: HTTPSourceConfig{
				BaseURL:        "https://gamma-api.polymarket.com",
				RequestTimeout: 5 * time.Second,
				PageSize:       500,
				MaxPages:       50,
				MaxRetries:     3,
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				DB:        0,
				MarketKey: "tennis_cache:markets",
				ScanCount: 1000,
			},
		},
		Stream: StreamConfig{
			Enabled:        false,
			URL:            "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			PingInterval:   30 * time.Second,
			TriggerBurst:   2,
			TriggerPerMin:  6,
			MaxReconnects:  0,
			ReconnectDelay: time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Capacity:   20,
			RefillRate: 2,
		},
		Auth: AuthConfig{
			Enabled:     false,
			HeaderName:  "X-API-Key",
			UnauthPaths: []string{"/health", "/ready", "/metrics", "/swagger/", "/docs", "/api/v1/tokens/", "/api/v1/snapshot"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
