package logging

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// LoggerFactory facilita la creación de diferentes tipos de loggers
type LoggerFactory struct {
	baseLogger Logger
}

// NewLoggerFactory crea una nueva factory de loggers
func NewLoggerFactory(config *LoggerConfig) (*LoggerFactory, error) {
	baseLogger, err := NewStructuredLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create base logger: %w", err)
	}

	return &LoggerFactory{baseLogger: baseLogger}, nil
}

// GetBaseLogger retorna el logger base
func (f *LoggerFactory) GetBaseLogger() Logger {
	return f.baseLogger
}

// UpdateLogLevel actualiza el nivel de log del logger base
func (f *LoggerFactory) UpdateLogLevel(level LogLevel) {
	f.baseLogger.SetLevel(level)
}

// LoggerSet contiene todos los loggers especializados
type LoggerSet struct {
	Base        Logger
	HTTP        HTTPLogger
	ExternalAPI ExternalAPILogger
	Refresh     RefreshLogger
	Security    SecurityLogger
}

// GetLoggerSet retorna un set completo de loggers especializados
func (f *LoggerFactory) GetLoggerSet() *LoggerSet {
	return &LoggerSet{
		Base:        f.baseLogger,
		HTTP:        NewHTTPLogger(f.baseLogger),
		ExternalAPI: NewExternalAPILogger(f.baseLogger),
		Refresh:     NewRefreshLogger(f.baseLogger),
		Security:    NewSecurityLogger(f.baseLogger),
	}
}

// Background goroutines (refresh loop, stream trigger) log concurrently with
// HTTP handlers, so the global set is published atomically.
var (
	globalFactory  atomic.Pointer[LoggerFactory]
	globalLoggers  atomic.Pointer[LoggerSet]
	globalFallback sync.Once
)

// InitializeGlobalLoggers inicializa los loggers globales
func InitializeGlobalLoggers(config *LoggerConfig) error {
	factory, err := NewLoggerFactory(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global loggers: %w", err)
	}

	globalFactory.Store(factory)
	globalLoggers.Store(factory.GetLoggerSet())
	return nil
}

// GetGlobalLoggers retorna todos los loggers globales
func GetGlobalLoggers() *LoggerSet {
	if set := globalLoggers.Load(); set != nil {
		return set
	}

	globalFallback.Do(func() {
		if globalLoggers.Load() != nil {
			return
		}
		_ = InitializeGlobalLoggers(NewConfig(DefaultServiceName, "1.0.0", getEnvOrDefault("ENVIRONMENT", "development")))
	})
	return globalLoggers.Load()
}

// GetGlobalLogger retorna el logger base global
func GetGlobalLogger() Logger {
	return GetGlobalLoggers().Base
}

// SetGlobalLogLevel actualiza el nivel de log global
func SetGlobalLogLevel(level LogLevel) {
	if f := globalFactory.Load(); f != nil {
		f.UpdateLogLevel(level)
	}
}

// NewTestingConfig crea una configuración para testing
func NewTestingConfig(service string) *LoggerConfig {
	return NewConfig(service, "test", "testing").
		WithLevel(LevelDebug).
		WithFormat(FormatJSON).
		WithOutput(os.Stdout)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
