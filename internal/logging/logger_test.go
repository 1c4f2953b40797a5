package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "FATAL", LevelFatal.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestFabLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("factory").
		With("blueprint", "counter").
		Warn(context.Background(), errors.New("boom"), "construction failed", "attempt", 2)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "construction failed", record["msg"])
	assert.Equal(t, "factory", record["component"])
	assert.Equal(t, "counter", record["blueprint"])
	assert.Equal(t, "boom", record["error"])
	assert.EqualValues(t, 2, record["attempt"])
}

func TestFabLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})

	logger.Debug(context.Background(), "hidden debug")
	logger.Info(context.Background(), "hidden info")
	assert.Empty(t, buf.String())

	logger.Error(context.Background(), nil, "visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestFabLogger_PrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "pretty", Output: &buf})

	logger.Info(context.Background(), "hello", "who", "world")
	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	parent := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &bytes.Buffer{}})
	child := parent.With("k", "v").(*FabLogger)

	assert.Empty(t, parent.fields)
	assert.Equal(t, "v", child.fields["k"])
}

func TestFileLogger(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileLogger(&LoggerConfig{Level: LevelInfo, Format: "pretty"}, dir)
	require.NoError(t, err)

	logger.Info(context.Background(), "written to disk")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
	assert.False(t, strings.Contains(string(data), "\x1b["), "file output must not carry colour codes")
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiLogger(
		NewLogger(&LoggerConfig{Level: LevelInfo, Output: &a}),
		NewLogger(&LoggerConfig{Level: LevelInfo, Output: &b}),
	)

	multi.WithComponent("server").Info(context.Background(), "fan out")
	assert.Contains(t, a.String(), "fan out")
	assert.Contains(t, b.String(), "component=server")
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Output: &buf})

	op := StartOperation(logger, "construct")
	op.End(context.Background())
	assert.Contains(t, buf.String(), "operation=construct")
	assert.Contains(t, buf.String(), "duration_ms=")

	buf.Reset()
	op.EndWithError(context.Background(), errors.New("nope"))
	assert.Contains(t, buf.String(), "Operation failed")
}
