package logger

import (
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink определяет, куда пишутся записи logger.
type Sink string

// Поддерживаемые приемники.
const (
	SinkConsole  Sink = "console"
	SinkFile     Sink = "file"
	SinkDatabase Sink = "database"
)

// ErrInvalidSink возвращается при неверной настройке приемника.
var ErrInvalidSink = errors.New("invalid log sink")

// Config описывает параметры построения logger.
type Config struct {
	Environment Environment
	Level       string
	Sink        Sink
	FilePath    string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int

	// DatabaseLevel - минимальный уровень записей, которые попадают в RecordStore.
	// Записи ниже него, но не ниже Level, пишутся только в консоль.
	DatabaseLevel string
	QueueSize     int
}

func newFileCore(cfg Config, lvl zapcore.Level) zapcore.Core {
	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), lvl)
}
