package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "TENNIS_CACHE"

var defaultConfigPaths = []string{
	"./configs",  // Configs directory in root
	"../configs", // For when running from cmd/
	".",
	"/etc/tennis-market-cache",
}

// Loader handles configuration loading using Viper
type Loader struct {
	v     *viper.Viper
	paths []string
}

// NewLoader creates a new configuration loader. Without paths it searches the
// default config locations.
func NewLoader(paths ...string) *Loader {
	if len(paths) == 0 {
		paths = defaultConfigPaths
	}
	return &Loader{
		v:     viper.New(),
		paths: paths,
	}
}

// Load loads configuration from files and environment variables
func (l *Loader) Load() (*Config, error) {
	l.setupViper()

	if err := l.v.ReadInConfig(); err != nil {
		// Sin config.yaml usamos solo env vars y defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.overrideWithEnvVars(config)

	return config, nil
}

// setupViper configures Viper to read files and env vars
func (l *Loader) setupViper() {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")
	for _, p := range l.paths {
		l.v.AddConfigPath(p)
	}

	// TENNIS_CACHE_REFRESH_INTERVAL -> refresh.interval
	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.bindEnvVars()
}

// bindEnvVars maps short, deployment-friendly env vars to configuration keys.
// AutomaticEnv only sees keys viper already knows about, so every key with a
// prefixed override is bound here as well.
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"server.port":                      "PORT",
		"server.shutdown_timeout":          "SHUTDOWN_TIMEOUT",
		"refresh.interval":                 "REFRESH_INTERVAL",
		"refresh.fetch_timeout":            "FETCH_TIMEOUT",
		"refresh.min_snapshot_size":        "MIN_SNAPSHOT_SIZE",
		"refresh.min_retain_ratio":         "MIN_RETAIN_RATIO",
		"refresh.failure_threshold":        "FAILURE_THRESHOLD",
		"refresh.shrink_accept_after":      "SHRINK_ACCEPT_AFTER",
		"source.backend":                   "SOURCE_BACKEND",
		"source.http.base_url":             "GAMMA_BASE_URL",
		"source.http.request_timeout":      "GAMMA_REQUEST_TIMEOUT",
		"source.http.page_size":            "GAMMA_PAGE_SIZE",
		"source.http.max_pages":            "GAMMA_MAX_PAGES",
		"source.http.max_retries":          "GAMMA_MAX_RETRIES",
		"source.redis.addr":                "REDIS_ADDR",
		"source.redis.password":            "REDIS_PASSWORD",
		"source.redis.db":                  "REDIS_DB",
		"source.redis.market_key":          "REDIS_MARKET_KEY",
		"stream.enabled":                   "STREAM_ENABLED",
		"stream.url":                       "STREAM_URL",
		"stream.trigger_per_minute":        "STREAM_TRIGGER_PER_MINUTE",
		"auth.enabled":                     "AUTH_ENABLED",
		"auth.api_key":                     "API_KEY",
		"logging.level":                    "LOG_LEVEL",
		"logging.format":                   "LOG_FORMAT",
		"rate_limit.capacity":              "RATE_LIMIT_CAPACITY",
		"rate_limit.refill_rate":           "RATE_LIMIT_REFILL_RATE",
		"rate_limit.enabled":               "RATE_LIMIT_ENABLED",
		"development.mock_mode":            "MOCK_MODE",
		"development.debug_mode":           "DEBUG_MODE",
		"classification.extra_tennis_tags": "EXTRA_TENNIS_TAGS",
	}

	for configKey, envVar := range envMappings {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(configKey, ".", "_"))
		_ = l.v.BindEnv(configKey, prefixed, envVar)
	}
}

// overrideWithEnvVars maneja casos especiales de env vars
func (l *Loader) overrideWithEnvVars(config *Config) {
	// EXTRA_TENNIS_TAGS como string separado por comas
	for _, env := range []string{envPrefix + "_CLASSIFICATION_EXTRA_TENNIS_TAGS", "EXTRA_TENNIS_TAGS"} {
		raw := os.Getenv(env)
		if raw == "" {
			continue
		}

		var tags []string
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		config.Classification.ExtraTennisTags = tags
		break
	}

	// En mock mode no tiene sentido pedirle datos reales a nadie
	if config.Development.MockMode {
		config.Source.Backend = "mock"
		config.Stream.Enabled = false
	}

	if config.Development.DebugMode {
		config.Logging.Level = "debug"
	}
}

// LoadForEnvironment loads specific configuration for an environment
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if environment == "" {
		return config, nil
	}

	l.v.SetConfigName(fmt.Sprintf("config.%s", environment))
	if err := l.v.MergeInConfig(); err != nil {
		// Not a critical error if environment file doesn't exist
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to merge environment config: %w", err)
		}
		return config, nil
	}

	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal merged config: %w", err)
	}
	l.overrideWithEnvVars(config)

	return config, nil
}

// GetEnvironment determina el entorno actual desde ENV vars
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development"
	}
	return env
}
