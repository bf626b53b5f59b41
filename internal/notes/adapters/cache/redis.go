package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/cache"
	"notewise/pkg/logger"
)

// maxPatchAttempts ограничивает число повторов оптимистичной транзакции.
const maxPatchAttempts = 3

// ErrPatchConflict возвращается, если ключ менялся конкурентно во всех попытках.
var ErrPatchConflict = errors.New("cached list changed concurrently")

// RedisCache реализует cache.NoteCache поверх Redis.
type RedisCache struct {
	client    *redis.Client
	listTTL   time.Duration
	searchTTL time.Duration
}

// NewRedisCache создает кэш заметок на готовом клиенте Redis.
func NewRedisCache(client *redis.Client, listTTL, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, listTTL: listTTL, searchTTL: searchTTL}
}

var _ cache.NoteCache = (*RedisCache)(nil)

func (c *RedisCache) get(ctx context.Context, method, key string) ([]*entities.Note, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		logger.Log(ctx).Error(ctx, ErrorFailedToGet, zap.String("method", method), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}
	return decodeNotes(data)
}

func (c *RedisCache) set(ctx context.Context, method, key string, notes []*entities.Note, ttl time.Duration) error {
	data, err := encodeNotes(notes)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToSet, zap.String("method", method), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}
	return nil
}

// GetList возвращает закэшированный список заметок пользователя.
func (c *RedisCache) GetList(ctx context.Context, userID string) ([]*entities.Note, error) {
	return c.get(ctx, LogMethodGetList, listKey(userID))
}

// ListVersion возвращает текущую версию списка пользователя. Отсутствие ключа - версия 0.
func (c *RedisCache) ListVersion(ctx context.Context, userID string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToGet, zap.String("method", LogMethodListVersion), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}
	return version, nil
}

// SetList кэширует список, наблюдая за ключом версии: конкурентная мутация отменяет запись.
func (c *RedisCache) SetList(ctx context.Context, userID string, version int64, notes []*entities.Note) error {
	data, err := encodeNotes(notes)
	if err != nil {
		return err
	}
	vkey := versionKey(userID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return cache.ErrStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listKey(userID), data, c.listTTL)
			return nil
		})
		return err
	}

	err = c.client.Watch(ctx, txf, vkey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cache.ErrStaleList), errors.Is(err, redis.TxFailedErr):
		return cache.ErrStaleList
	default:
		logger.Log(ctx).Error(ctx, ErrorFailedToSet, zap.String("method", LogMethodSetList), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}
}

// PatchList изменяет закэшированный список в транзакции WATCH/MULTI и увеличивает версию.
func (c *RedisCache) PatchList(ctx context.Context, userID string, patch cache.ListPatch) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodPatchList), zap.String("user_id", userID))
	key := listKey(userID)

	txf := func(tx *redis.Tx) error {
		var patched []byte
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			notes, err := decodeNotes(data)
			if err != nil {
				return err
			}
			if patched, err = encodeNotes(patch(notes)); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			c.bumpVersion(ctx, pipe, userID)
			if patched != nil {
				pipe.Set(ctx, key, patched, c.listTTL)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxPatchAttempts; attempt++ {
		err := c.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug(ctx, "optimistic lock failed, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		log.Error(ctx, ErrorFailedToPatch, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToPatch, err)
	}

	return fmt.Errorf("%s: %w", ErrorFailedToPatch, ErrPatchConflict)
}

// InvalidateList удаляет закэшированный список пользователя и увеличивает версию.
func (c *RedisCache) InvalidateList(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		c.bumpVersion(ctx, pipe, userID)
		pipe.Del(ctx, listKey(userID))
		return nil
	})
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToDelete, zap.String("method", LogMethodInvalid), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDelete, err)
	}
	return nil
}

func (c *RedisCache) bumpVersion(ctx context.Context, pipe redis.Pipeliner, userID string) {
	vkey := versionKey(userID)
	pipe.Incr(ctx, vkey)
	pipe.Expire(ctx, vkey, versionTTL(c.listTTL))
}

// GetSearch возвращает закэшированный результат поиска.
func (c *RedisCache) GetSearch(ctx context.Context, userID, query string) ([]*entities.Note, error) {
	return c.get(ctx, LogMethodGetSearch, searchKey(userID, query))
}

// SetSearch кэширует результат поиска с коротким TTL.
func (c *RedisCache) SetSearch(ctx context.Context, userID, query string, notes []*entities.Note) error {
	return c.set(ctx, LogMethodSetSearch, searchKey(userID, query), notes, c.searchTTL)
}

// Close закрывает соединение с Redis.
func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}
