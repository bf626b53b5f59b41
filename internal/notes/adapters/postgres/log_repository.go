package postgres

import (
	"context"
	"fmt"

	"notewise/pkg/logger"
)

// LogRepository сохраняет записи журнала в таблицу logs.
// Сам ничего не логирует: ошибки обрабатывает долговременный приемник logger.
type LogRepository struct {
	pool PgxPoolInterface
}

// NewLogRepository создает хранилище записей журнала.
func NewLogRepository(pool PgxPoolInterface) *LogRepository {
	return &LogRepository{pool: pool}
}

// SaveRecord реализует logger.RecordStore.
func (r *LogRepository) SaveRecord(ctx context.Context, rec logger.Record) error {
	var fields interface{}
	if len(rec.Context) > 0 {
		fields = rec.Context
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO logs (level, message, context, timestamp, user_id) VALUES ($1, $2, $3, $4, $5)`,
		rec.Level, rec.Message, fields, rec.Timestamp, rec.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert log record: %w", err)
	}
	return nil
}
