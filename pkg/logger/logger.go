// Package logger предоставляет структурированный логгер на базе zap
// с переносом request_id и user_id через context.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment определяет окружение, под которое настраивается кодировщик.
type Environment string

// Поддерживаемые окружения.
const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Ключи полей, которые logger добавляет самостоятельно.
const (
	RequestID = "request_id"
	UserID    = "user_id"
)

// Logger оборачивает zap.Logger и добавляет поля из контекста запроса.
type Logger struct {
	l *zap.Logger
}

// NewLogger создает консольный logger для указанного окружения и уровня.
func NewLogger(env Environment, level string) (*Logger, error) {
	core := newConsoleCore(env, parseLevel(level))
	return &Logger{l: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

// New создает logger с заданной стратегией вывода.
// Для SinkDatabase требуется store, для SinkFile - путь к файлу.
// SinkDatabase пишет асинхронно, поэтому перед выходом нужен Sync.
func New(cfg Config, store RecordStore) (*Logger, error) {
	lvl := parseLevel(cfg.Level)
	console := newConsoleCore(cfg.Environment, lvl)

	var core zapcore.Core
	switch cfg.Sink {
	case "", SinkConsole:
		core = console
	case SinkFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("%w: file path is empty", ErrInvalidSink)
		}
		core = zapcore.NewTee(console, newFileCore(cfg, lvl))
	case SinkDatabase:
		if store == nil {
			return nil, fmt.Errorf("%w: record store is nil", ErrInvalidSink)
		}
		core = newDatabaseCore(cfg, lvl, store, console)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSink, cfg.Sink)
	}

	return &Logger{l: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

// newDatabaseCore отправляет в хранилище только записи не ниже DatabaseLevel.
func newDatabaseCore(cfg Config, lvl zapcore.Level, store RecordStore, console zapcore.Core) zapcore.Core {
	dbLvl := lvl
	if cfg.DatabaseLevel != "" {
		dbLvl = max(lvl, parseLevel(cfg.DatabaseLevel))
	}

	durable := newDurableCore(store, dbLvl, console, cfg.QueueSize)
	if dbLvl == lvl {
		return durable
	}

	below := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= lvl && l < dbLvl
	})
	return zapcore.NewTee(newConsoleCore(cfg.Environment, below), durable)
}

func newConsoleCore(env Environment, lvl zapcore.LevelEnabler) zapcore.Core {
	var encoder zapcore.Encoder
	if env == Production {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lvl)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With возвращает новый logger с дополнительными полями.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l: l.l.With(fields...)}
}

// Debug пишет сообщение уровня DEBUG.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Debug(msg, addContextFields(ctx, fields)...)
}

// Info пишет сообщение уровня INFO.
func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Info(msg, addContextFields(ctx, fields)...)
}

// Warn пишет сообщение уровня WARN.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Warn(msg, addContextFields(ctx, fields)...)
}

// Error пишет сообщение уровня ERROR.
func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Error(msg, addContextFields(ctx, fields)...)
}

// Fatal пишет сообщение и завершает процесс.
func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	l.l.Fatal(msg, addContextFields(ctx, fields)...)
}

// Sync сбрасывает буферы всех приемников.
func (l *Logger) Sync() error {
	return l.l.Sync()
}

func addContextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	if id, ok := GetRequestID(ctx); ok {
		fields = append(fields, zap.String(RequestID, id))
	}
	if id, ok := GetUserID(ctx); ok {
		fields = append(fields, zap.String(UserID, id))
	}
	return fields
}
