package services

import (
	"context"

	"notewise/internal/notes/domain/entities"
)

// SessionEventHandler получает события сессии в порядке публикации.
type SessionEventHandler func(ctx context.Context, event entities.SessionEvent)

// Subscription отменяет подписку на события сессии.
type Subscription interface {
	Unsubscribe()
}

// SessionEventBus публикует и доставляет события изменения сессии.
type SessionEventBus interface {
	Publish(ctx context.Context, event entities.SessionEvent) error
	Subscribe(ctx context.Context, handler SessionEventHandler) (Subscription, error)
	Close() error
}
