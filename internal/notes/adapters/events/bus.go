// Package events содержит шину событий сессии на watermill.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/logger"
)

// SessionTopic - топик событий сессии.
const SessionTopic = "identity.session"

const metadataRequestID = "request_id"

// Сообщения логов и ошибок.
const (
	logEventPublished    = "session event published"
	logEventDecodeFailed = "failed to decode session event"
	logSubscriberStopped = "session event subscriber stopped"
	errCtxPublish        = "publishing session event"
	errCtxSubscribe      = "subscribing to session events"
	errCtxEncode         = "encoding session event"
)

// ErrBusClosed возвращается после Close.
var ErrBusClosed = errors.New("session event bus is closed")

// Bus реализует svc.SessionEventBus на in-process pub/sub.
// Публикация блокируется до подтверждения всеми подписчиками, поэтому события доставляются по порядку.
type Bus struct {
	pubSub *gochannel.GoChannel
	log    *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus создает шину событий сессии.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, newLoggerAdapter(log)),
		log: log,
	}
}

var _ svc.SessionEventBus = (*Bus)(nil)

// Publish отправляет событие всем подписчикам.
func (b *Bus) Publish(ctx context.Context, event entities.SessionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("%s: %w", errCtxPublish, ErrBusClosed)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxEncode, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if requestID, ok := logger.GetRequestID(ctx); ok {
		msg.Metadata.Set(metadataRequestID, requestID)
	}

	if err := b.pubSub.Publish(SessionTopic, msg); err != nil {
		return fmt.Errorf("%s: %w", errCtxPublish, err)
	}

	logger.Log(ctx).Debug(ctx, logEventPublished,
		zap.String("event", string(event.Type)),
		zap.String("user_id", event.UserID))
	return nil
}

// Subscribe запускает доставку событий в handler до Unsubscribe, отмены ctx или Close.
func (b *Bus) Subscribe(ctx context.Context, handler svc.SessionEventHandler) (svc.Subscription, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("%s: %w", errCtxSubscribe, ErrBusClosed)
	}

	subCtx, cancel := context.WithCancel(ctx)
	messages, err := b.pubSub.Subscribe(subCtx, SessionTopic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s: %w", errCtxSubscribe, err)
	}

	go b.consume(subCtx, messages, handler)
	return &subscription{cancel: cancel}, nil
}

func (b *Bus) consume(ctx context.Context, messages <-chan *message.Message, handler svc.SessionEventHandler) {
	for msg := range messages {
		msgCtx := logger.NewContext(ctx, b.log)
		if requestID := msg.Metadata.Get(metadataRequestID); requestID != "" {
			msgCtx = logger.NewRequestIDContext(msgCtx, requestID)
		}

		var event entities.SessionEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			b.log.Error(msgCtx, logEventDecodeFailed, zap.Error(err))
			msg.Ack()
			continue
		}

		handler(msgCtx, event)
		msg.Ack()
	}

	b.log.Debug(ctx, logSubscriberStopped)
}

// Close останавливает шину и всех подписчиков.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubSub.Close()
}

type subscription struct {
	once   sync.Once
	cancel context.CancelFunc
}

// Unsubscribe прекращает доставку. Событие, которое уже обрабатывается, завершается.
func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
