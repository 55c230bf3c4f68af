package logging

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taskvault/taskvault/internal/config"
)

type ctxKey string

// TraceIDKey is the context key carrying the per-request id into log lines.
const TraceIDKey ctxKey = "trace_id"

// Logger 日志记录器接口
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...zap.Field)
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Warn(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
	Fatal(ctx context.Context, msg string, fields ...zap.Field)
	Sync() error
}

type zapLogger struct {
	l *zap.Logger
}

// New builds a zap-backed Logger from cfg. Output may be "stdout", "stderr"
// or a file path; file output rotates via lumberjack.
func New(cfg config.LoggingConfig) (Logger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	sink, err := buildSink(cfg)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, sink, parseLevel(cfg.Level))
	return &zapLogger{l: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel))}, nil
}

func buildSink(cfg config.LoggingConfig) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default: // treat as a file path, rotated
		lumber := &lumberjack.Logger{
			Filename:  cfg.Output,
			MaxSize:   cfg.MaxSizeMB,
			MaxAge:    cfg.MaxAgeDays,
			Compress:  cfg.Compress,
			LocalTime: true,
		}
		return zapcore.AddSync(lumber), nil
	}
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *zapLogger) log(ctx context.Context, fn func(string, ...zap.Field), msg string, fields []zap.Field) {
	if ctx != nil {
		if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
			fields = append(fields, zap.String(string(TraceIDKey), tid))
		}
	}
	fn(msg, fields...)
}

func (z *zapLogger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	z.log(ctx, z.l.Debug, msg, fields)
}
func (z *zapLogger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	z.log(ctx, z.l.Info, msg, fields)
}
func (z *zapLogger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	z.log(ctx, z.l.Warn, msg, fields)
}
func (z *zapLogger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	z.log(ctx, z.l.Error, msg, fields)
}
func (z *zapLogger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	z.log(ctx, z.l.Fatal, msg, fields)
}
func (z *zapLogger) Sync() error { return z.l.Sync() }
