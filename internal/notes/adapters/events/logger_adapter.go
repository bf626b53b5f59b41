package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// loggerAdapter направляет логи watermill в logger сервиса.
type loggerAdapter struct {
	log *logger.Logger
}

func newLoggerAdapter(log *logger.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{log: log.With(zap.String("component", "watermill"))}
}

func toZapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (a *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(context.Background(), msg, append(toZapFields(fields), zap.Error(err))...)
}

func (a *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, toZapFields(fields)...)
}

func (a *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, toZapFields(fields)...)
}

// Trace отбрасывается: watermill пишет его на каждое сообщение.
func (a *loggerAdapter) Trace(string, watermill.LogFields) {}

func (a *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{log: a.log.With(toZapFields(fields)...)}
}
