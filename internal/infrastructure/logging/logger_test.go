package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel, format LogFormat) (*StructuredLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := NewStructuredLogger(NewConfig("test-service", "test", "testing").
		WithLevel(level).
		WithFormat(format).
		WithOutput(buf))
	require.NoError(t, err)
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level LogLevel
		want  int
	}{
		{"debug logs everything", LevelDebug, 4},
		{"info skips debug", LevelInfo, 3},
		{"warn", LevelWarn, 2},
		{"error only", LevelError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(t, tt.level, FormatJSON)
			ctx := context.Background()

			logger.Debug(ctx, "d", nil)
			logger.Info(ctx, "i", nil)
			logger.Warn(ctx, "w", nil)
			logger.Error(ctx, "e", nil)

			assert.Len(t, decodeLines(t, buf), tt.want)
		})
	}
}

func TestStructuredLogger_JSONEntry(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	ctx := WithCycleID(WithRequestID(context.Background(), "req_1"), "cycle_1")

	logger.ErrorWithError(ctx, "refresh failed", errors.New("boom"), Fields{"source": "gamma"})

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, LevelError, e.Level)
	assert.Equal(t, "refresh failed", e.Message)
	assert.Equal(t, "req_1", e.RequestID)
	assert.Equal(t, "cycle_1", e.CycleID)
	assert.Equal(t, "test-service", e.Service)
	assert.Equal(t, "gamma", e.Fields["source"])
	assert.Equal(t, "boom", e.Fields[FieldError])
	assert.Equal(t, "*errors.errorString", e.Fields[FieldErrorType])
}

func TestStructuredLogger_DoesNotMutateCallerFields(t *testing.T) {
	logger, _ := newBufferLogger(t, LevelDebug, FormatJSON)
	fields := Fields{"k": "v"}

	logger.WarnWithError(context.Background(), "msg", errors.New("x"), fields)

	assert.Equal(t, Fields{"k": "v"}, fields)
}

func TestStructuredLogger_TextFormat(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo, FormatText)

	logger.Info(WithRequestID(context.Background(), "req_9"), "hello", Fields{"a": 1})

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "req:req_9")
	assert.Contains(t, line, "hello")
	assert.Contains(t, line, `fields={"a":1}`)
}

func TestStructuredLogger_SetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelError, FormatJSON)

	logger.Info(context.Background(), "hidden", nil)
	logger.SetLevel(LevelInfo)
	logger.Info(context.Background(), "shown", nil)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, LevelInfo, logger.GetLevel())
}

func TestStructuredLogger_StartTimeAddsDuration(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo, FormatJSON)
	ctx := WithStartTime(context.Background(), time.Now().Add(-10*time.Millisecond))

	logger.Info(ctx, "timed", nil)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	d, ok := entries[0].Fields[FieldDuration].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, d, 10.0)
}

func TestRefreshLogger_DomainField(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	refresh := NewRefreshLogger(logger)

	refresh.CycleSucceeded(context.Background(), "gamma", 10, 9, 3, 5*time.Millisecond)
	refresh.FailuresEscalated(context.Background(), "gamma", errors.New("down"), 5)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "refresh", entries[0].Domain)
	assert.Equal(t, float64(9), entries[0].Fields[FieldSnapshotSize])
	assert.Equal(t, float64(3), entries[0].Fields[FieldTennisTokens])
	assert.Equal(t, LevelError, entries[1].Level)
	assert.Equal(t, float64(5), entries[1].Fields[FieldConsecutiveFailures])
	assert.Equal(t, "refresh", refresh.Domain())
}

func TestLoggerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoggerConfig)
		wantErr bool
	}{
		{"default is valid", func(*LoggerConfig) {}, false},
		{"bad level", func(c *LoggerConfig) { c.Level = "TRACE" }, true},
		{"bad format", func(c *LoggerConfig) { c.Format = "xml" }, true},
		{"nil output", func(c *LoggerConfig) { c.Output = nil }, true},
		{"empty service", func(c *LoggerConfig) { c.Service = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLevelAndFormatFromString(t *testing.T) {
	assert.Equal(t, LevelDebug, LogLevelFromString("DEBUG"))
	assert.Equal(t, LevelWarn, LogLevelFromString("warning"))
	assert.Equal(t, LevelError, LogLevelFromString("error"))
	assert.Equal(t, LevelInfo, LogLevelFromString("nonsense"))
	assert.Equal(t, FormatText, LogFormatFromString("TEXT"))
	assert.Equal(t, FormatJSON, LogFormatFromString(""))

	cfg := NewConfig("svc", "v", "test").WithSettings("Warn", "text")
	assert.Equal(t, LevelWarn, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	assert.True(t, strings.HasPrefix(a, "req_"))
	assert.Len(t, a, len("req_")+32)
	assert.NotEqual(t, a, b)

	short := NewRequestIDGenerator("").GenerateShort()
	assert.Len(t, short, len("req_")+8)
}

func TestGetGlobalLoggers_Fallback(t *testing.T) {
	set := GetGlobalLoggers()

	require.NotNil(t, set)
	assert.NotNil(t, set.Base)
	assert.Equal(t, "refresh", Refresh().Domain())
	assert.Equal(t, "http", HTTP().Domain())
}
