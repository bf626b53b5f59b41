package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/cache"
)

// MemoryCache реализует cache.NoteCache в памяти процесса.
type MemoryCache struct {
	mu        sync.Mutex
	store     *gocache.Cache
	listTTL   time.Duration
	searchTTL time.Duration
}

// NewMemoryCache создает in-memory кэш заметок.
func NewMemoryCache(listTTL, searchTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		store:     gocache.New(listTTL, 2*listTTL),
		listTTL:   listTTL,
		searchTTL: searchTTL,
	}
}

var _ cache.NoteCache = (*MemoryCache)(nil)

func (c *MemoryCache) get(key string) ([]*entities.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.store.Get(key)
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cloneNotes(v.([]*entities.Note)), nil
}

func (c *MemoryCache) set(key string, notes []*entities.Note, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Set(key, cloneNotes(notes), ttl)
}

// version и bumpVersion вызываются под c.mu.
func (c *MemoryCache) version(userID string) int64 {
	v, ok := c.store.Get(versionKey(userID))
	if !ok {
		return 0
	}
	return v.(int64)
}

func (c *MemoryCache) bumpVersion(userID string) {
	c.store.Set(versionKey(userID), c.version(userID)+1, versionTTL(c.listTTL))
}

// GetList возвращает закэшированный список заметок пользователя.
func (c *MemoryCache) GetList(_ context.Context, userID string) ([]*entities.Note, error) {
	return c.get(listKey(userID))
}

// ListVersion возвращает текущую версию списка пользователя.
func (c *MemoryCache) ListVersion(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version(userID), nil
}

// SetList кэширует список заметок пользователя, если версия не изменилась.
func (c *MemoryCache) SetList(_ context.Context, userID string, version int64, notes []*entities.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version(userID) != version {
		return cache.ErrStaleList
	}
	c.store.Set(listKey(userID), cloneNotes(notes), c.listTTL)
	return nil
}

// PatchList изменяет закэшированный список под мьютексом, сохраняя оставшийся TTL.
func (c *MemoryCache) PatchList(_ context.Context, userID string, patch cache.ListPatch) error {
	key := listKey(userID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.bumpVersion(userID)

	v, expiresAt, ok := c.store.GetWithExpiration(key)
	if !ok {
		return nil
	}

	ttl := c.listTTL
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			c.store.Delete(key)
			return nil
		}
	}

	c.store.Set(key, patch(cloneNotes(v.([]*entities.Note))), ttl)
	return nil
}

// InvalidateList удаляет закэшированный список пользователя.
func (c *MemoryCache) InvalidateList(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpVersion(userID)
	c.store.Delete(listKey(userID))
	return nil
}

// GetSearch возвращает закэшированный результат поиска.
func (c *MemoryCache) GetSearch(_ context.Context, userID, query string) ([]*entities.Note, error) {
	return c.get(searchKey(userID, query))
}

// SetSearch кэширует результат поиска.
func (c *MemoryCache) SetSearch(_ context.Context, userID, query string, notes []*entities.Note) error {
	c.set(searchKey(userID, query), notes, c.searchTTL)
	return nil
}

// Close очищает кэш.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
	return nil
}
