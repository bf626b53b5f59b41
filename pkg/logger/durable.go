package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	durableWriteTimeout = 3 * time.Second
	durableSyncTimeout  = 5 * time.Second

	// DefaultQueueSize - емкость очереди записей для SinkDatabase по умолчанию.
	DefaultQueueSize = 1024
)

var (
	errQueueFull    = errors.New("log queue is full")
	errFlushTimeout = errors.New("log queue flush timed out")
)

// Record - запись журнала в долговременном хранилище.
type Record struct {
	Level     string
	Message   string
	Context   map[string]any
	Timestamp time.Time
	UserID    *string
}

// RecordStore сохраняет записи журнала.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec Record) error
}

// durableCore кладет записи в очередь durableWriter и не ждет хранилища.
// Ошибка хранилища или переполненная очередь не выходят наружу: запись уходит в резервное ядро.
type durableCore struct {
	zapcore.LevelEnabler
	writer *durableWriter
	fields []zapcore.Field
}

func newDurableCore(store RecordStore, lvl zapcore.LevelEnabler, fallback zapcore.Core, queueSize int) *durableCore {
	return &durableCore{LevelEnabler: lvl, writer: newDurableWriter(store, fallback, queueSize)}
}

func (c *durableCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &durableCore{
		LevelEnabler: c.LevelEnabler,
		writer:       c.writer,
		fields:       merged,
	}
}

func (c *durableCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *durableCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields)+1)
	all = append(all, c.fields...)
	all = append(all, fields...)
	return c.writer.enqueue(ent, all)
}

func (c *durableCore) Sync() error {
	return errors.Join(c.writer.flush(), c.writer.fallback.Sync())
}

type durableItem struct {
	rec     Record
	ent     zapcore.Entry
	fields  []zapcore.Field
	flushed chan struct{}
}

// durableWriter сохраняет записи из очереди одной горутиной в порядке поступления.
type durableWriter struct {
	store    RecordStore
	fallback zapcore.Core
	queue    chan durableItem
}

func newDurableWriter(store RecordStore, fallback zapcore.Core, size int) *durableWriter {
	if size <= 0 {
		size = DefaultQueueSize
	}
	w := &durableWriter{
		store:    store,
		fallback: fallback,
		queue:    make(chan durableItem, size),
	}
	go w.run()
	return w
}

// enqueue кодирует запись до постановки в очередь, пока поля принадлежат вызывающему.
func (w *durableWriter) enqueue(ent zapcore.Entry, fields []zapcore.Field) error {
	item := durableItem{rec: newRecord(ent, nil, fields), ent: ent, fields: fields}
	select {
	case w.queue <- item:
		return nil
	default:
		return w.toFallback(ent, fields, errQueueFull)
	}
}

func (w *durableWriter) run() {
	for item := range w.queue {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}
		w.save(item)
	}
}

func (w *durableWriter) save(item durableItem) {
	ctx, cancel := context.WithTimeout(context.Background(), durableWriteTimeout)
	defer cancel()

	if err := w.store.SaveRecord(ctx, item.rec); err != nil {
		_ = w.toFallback(item.ent, item.fields, fmt.Errorf("save log record: %w", err))
	}
}

func (w *durableWriter) toFallback(ent zapcore.Entry, fields []zapcore.Field, cause error) error {
	all := append(fields[:len(fields):len(fields)], zap.NamedError("sink_error", cause))
	return w.fallback.Write(ent, all)
}

// flush ждет, пока горутина сохранит все записи, поставленные в очередь до вызова.
func (w *durableWriter) flush() error {
	timer := time.NewTimer(durableSyncTimeout)
	defer timer.Stop()

	done := make(chan struct{})
	select {
	case w.queue <- durableItem{flushed: done}:
	case <-timer.C:
		return errFlushTimeout
	}

	select {
	case <-done:
		return nil
	case <-timer.C:
		return errFlushTimeout
	}
}

func newRecord(ent zapcore.Entry, base, fields []zapcore.Field) Record {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range base {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	rec := Record{
		Level:     ent.Level.CapitalString(),
		Message:   ent.Message,
		Timestamp: ent.Time,
	}
	if id, ok := enc.Fields[UserID].(string); ok && id != "" {
		rec.UserID = &id
		delete(enc.Fields, UserID)
	}
	if len(enc.Fields) > 0 {
		rec.Context = enc.Fields
	}
	return rec
}
