package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value such as "debug" or "WARN" to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// slogLevel converts to the matching slog level.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Fatal(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// FabLogger implements structured logging on top of slog
type FabLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	fields    map[string]interface{}
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      LogLevel
	Format     string // "text", "json" or "pretty"
	Output     io.Writer
	TimeFormat string
	AddSource  bool
	Component  string
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      LevelInfo,
		Format:     "text",
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
		AddSource:  false,
	}
}

// NewLogger creates a new structured logger
func NewLogger(config *LoggerConfig) *FabLogger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler

	switch config.Format {
	case "json":
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level:     config.Level.slogLevel(),
			AddSource: config.AddSource,
		})
	case "pretty":
		handler = tint.NewHandler(output, &tint.Options{
			Level:      config.Level.slogLevel(),
			AddSource:  config.AddSource,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{
			Level:     config.Level.slogLevel(),
			AddSource: config.AddSource,
		})
	}

	return &FabLogger{
		logger:    slog.New(handler),
		level:     config.Level,
		component: config.Component,
		fields:    make(map[string]interface{}),
	}
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *FabLogger {
	return NewLogger(&LoggerConfig{Level: LevelFatal, Output: io.Discard})
}

// Debug logs a debug message
func (l *FabLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.log(ctx, slog.LevelDebug, nil, msg, fields...)
}

// Info logs an info message
func (l *FabLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.log(ctx, slog.LevelInfo, nil, msg, fields...)
}

// Warn logs a warning message
func (l *FabLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelWarn {
		return
	}
	l.log(ctx, slog.LevelWarn, err, msg, fields...)
}

// Error logs an error message
func (l *FabLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelError {
		return
	}
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// Fatal logs at ERROR level but does not call os.Exit.
// The caller is responsible for handling the fatal condition appropriately.
func (l *FabLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// With creates a new logger with additional fields
func (l *FabLogger) With(fields ...interface{}) Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		newFields[k] = v
	}

	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			newFields[key] = fields[i+1]
		}
	}

	return &FabLogger{
		logger:    l.logger,
		level:     l.level,
		component: l.component,
		fields:    newFields,
	}
}

// WithComponent creates a new logger with component context
func (l *FabLogger) WithComponent(component string) Logger {
	return &FabLogger{
		logger:    l.logger,
		level:     l.level,
		component: component,
		fields:    l.fields,
	}
}

func (l *FabLogger) log(ctx context.Context, level slog.Level, err error, msg string, fields ...interface{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(l.fields)+len(fields)/2+2)

	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	for k, v := range l.fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			attrs = append(attrs, slog.Any(key, fields[i+1]))
		}
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	record.AddAttrs(attrs...)

	_ = l.logger.Handler().Handle(ctx, record)
}

// FileLogger writes to a size-rotated log file
type FileLogger struct {
	*FabLogger
	rotator  *lumberjack.Logger
	filePath string
}

// NewFileLogger creates a file-based logger; files rotate at 10MB and
// old files are kept for a week.
func NewFileLogger(config *LoggerConfig, logDir string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if config == nil {
		config = DefaultConfig()
	}

	filePath := filepath.Join(logDir, "fab.log")
	rotator := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
	}

	fileConfig := *config
	fileConfig.Output = rotator
	// colour codes make no sense in a file
	if fileConfig.Format == "pretty" {
		fileConfig.Format = "text"
	}

	return &FileLogger{
		FabLogger: NewLogger(&fileConfig),
		rotator:   rotator,
		filePath:  filePath,
	}, nil
}

// Path returns the active log file.
func (f *FileLogger) Path() string {
	return f.filePath
}

// Close closes the file logger
func (f *FileLogger) Close() error {
	if f.rotator != nil {
		return f.rotator.Close()
	}
	return nil
}

// MultiLogger writes to multiple loggers
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to multiple destinations
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Debug logs to all loggers
func (m *MultiLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Debug(ctx, msg, fields...)
	}
}

// Info logs to all loggers
func (m *MultiLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Info(ctx, msg, fields...)
	}
}

// Warn logs to all loggers
func (m *MultiLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Warn(ctx, err, msg, fields...)
	}
}

// Error logs to all loggers
func (m *MultiLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Error(ctx, err, msg, fields...)
	}
}

// Fatal logs to all loggers
func (m *MultiLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {
	for _, logger := range m.loggers {
		logger.Fatal(ctx, err, msg, fields...)
	}
}

// With creates a new multi-logger with additional fields
func (m *MultiLogger) With(fields ...interface{}) Logger {
	newLoggers := make([]Logger, len(m.loggers))
	for i, logger := range m.loggers {
		newLoggers[i] = logger.With(fields...)
	}
	return &MultiLogger{loggers: newLoggers}
}

// WithComponent creates a new multi-logger with component context
func (m *MultiLogger) WithComponent(component string) Logger {
	newLoggers := make([]Logger, len(m.loggers))
	for i, logger := range m.loggers {
		newLoggers[i] = logger.WithComponent(component)
	}
	return &MultiLogger{loggers: newLoggers}
}

// PerfLogger tracks how long an operation took
type PerfLogger struct {
	Logger
	startTime time.Time
	operation string
}

// StartOperation begins performance tracking
func StartOperation(logger Logger, operation string) *PerfLogger {
	return &PerfLogger{
		Logger:    logger.With("operation", operation),
		startTime: time.Now(),
		operation: operation,
	}
}

// End completes performance tracking and logs the duration
func (p *PerfLogger) End(ctx context.Context) {
	duration := time.Since(p.startTime)
	p.Debug(ctx, "Operation completed",
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String(),
	)
}

// EndWithError completes performance tracking and logs an error
func (p *PerfLogger) EndWithError(ctx context.Context, err error) {
	duration := time.Since(p.startTime)
	p.Error(ctx, err, "Operation failed",
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String(),
	)
}
