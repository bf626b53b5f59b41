package app

import (
	"context"

	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/cache"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/logger"
)

// WatchSessions сбрасывает кэш заметок пользователя при выходе из сессии.
func WatchSessions(ctx context.Context, identity *IdentityUseCase, noteCache cache.NoteCache) (svc.Subscription, error) {
	return identity.Subscribe(ctx, func(ctx context.Context, event entities.SessionEvent) {
		log := logger.Log(ctx).With(zap.String("event", string(event.Type)), zap.String("user_id", event.UserID))

		if event.Type != entities.EventSignedOut || event.UserID == "" {
			return
		}
		if err := noteCache.InvalidateList(ctx, event.UserID); err != nil {
			log.Warn(ctx, msgCacheInvalidFailed, zap.Error(err))
			return
		}
		log.Debug(ctx, "notes cache invalidated on sign out")
	})
}
