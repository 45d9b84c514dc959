package logger

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"storefront/pkg/tracing"
)

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
	PanicLevel LogLevel = "panic"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	Panic(msg string, fields map[string]interface{})

	WithContext(ctx context.Context) Logger
	DebugContext(ctx context.Context, msg string, fields map[string]interface{})
	InfoContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorContext(ctx context.Context, msg string, fields map[string]interface{})

	WithFields(fields map[string]interface{}) Logger
}

type ZerologLogger struct {
	logger zerolog.Logger
	fields map[string]interface{}
}

func New(level LogLevel, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.CallerFieldName = "source"
	zerolog.CallerMarshalFunc = shortSource
	zerologLevel := getZerologLevel(level)

	var writer io.Writer
	if strings.ToLower(os.Getenv("APP_ENV")) == "development" {
		writer = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	} else {
		writer = output
	}

	zl := zerolog.New(writer).
		Level(zerologLevel).
		With().
		Timestamp().
		Str("service", "storefront").
		Logger()

	return &ZerologLogger{
		logger: zl,
		fields: make(map[string]interface{}),
	}
}

// Nop discards everything; used by tests and CLI commands that only need the interface.
func Nop() Logger {
	return &ZerologLogger{
		logger: zerolog.Nop(),
		fields: make(map[string]interface{}),
	}
}

func shortSource(_ uintptr, file string, line int) string {
	parts := strings.Split(file, "/")
	if len(parts) > 2 {
		file = strings.Join(parts[len(parts)-2:], "/")
	}
	return file + ":" + strconv.Itoa(line)
}

func getZerologLevel(level LogLevel) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(string(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

func (l *ZerologLogger) clone(extra int) *ZerologLogger {
	newLogger := &ZerologLogger{
		logger: l.logger,
		fields: make(map[string]interface{}, len(l.fields)+extra),
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *ZerologLogger) WithFields(fields map[string]interface{}) Logger {
	newLogger := l.clone(len(fields))
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *ZerologLogger) WithContext(ctx context.Context) Logger {
	return l.contextual(ctx)
}

func (l *ZerologLogger) contextual(ctx context.Context) *ZerologLogger {
	newLogger := l.clone(2)

	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		newLogger.fields["trace_id"] = traceID
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasSpanID() {
		newLogger.fields["span_id"] = spanCtx.SpanID().String()
	}

	return newLogger
}

// callerSkip points Event.Caller past write and the exported method.
const callerSkip = 2

// write attaches the source location for debug and error entries, the levels
// someone reads with the code open.
func (l *ZerologLogger) write(level zerolog.Level, skip int, msg string, fields map[string]interface{}) {
	event := l.logger.WithLevel(level)
	if level == zerolog.DebugLevel || level == zerolog.ErrorLevel {
		event = event.Caller(skip)
	}
	event.Fields(l.fields).Fields(fields).Msg(msg)

	switch level {
	case zerolog.FatalLevel:
		os.Exit(1)
	case zerolog.PanicLevel:
		panic(msg)
	}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.write(zerolog.DebugLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.write(zerolog.InfoLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.write(zerolog.WarnLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.write(zerolog.ErrorLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) Fatal(msg string, fields map[string]interface{}) {
	l.write(zerolog.FatalLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) Panic(msg string, fields map[string]interface{}) {
	l.write(zerolog.PanicLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) DebugContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.contextual(ctx).write(zerolog.DebugLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) InfoContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.contextual(ctx).write(zerolog.InfoLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) WarnContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.contextual(ctx).write(zerolog.WarnLevel, callerSkip, msg, fields)
}

func (l *ZerologLogger) ErrorContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.contextual(ctx).write(zerolog.ErrorLevel, callerSkip, msg, fields)
}
