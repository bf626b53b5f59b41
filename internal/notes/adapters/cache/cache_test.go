package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/notes/adapters/cache"
	"notewise/internal/notes/domain/entities"
	cachePorts "notewise/internal/notes/ports/cache"
)

const (
	listTTL   = 10 * time.Minute
	searchTTL = 30 * time.Second
)

func mockRedisServer(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func backends(t *testing.T) map[string]cachePorts.NoteCache {
	t.Helper()

	s := mockRedisServer(t)
	redisCache := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: s.Addr()}), listTTL, searchTTL)
	memoryCache := cache.NewMemoryCache(listTTL, searchTTL)
	t.Cleanup(func() {
		_ = redisCache.Close()
		_ = memoryCache.Close()
	})

	return map[string]cachePorts.NoteCache{
		"redis":  redisCache,
		"memory": memoryCache,
	}
}

func sampleNote(id string, updated time.Time) *entities.Note {
	summary := "summary of " + id
	return &entities.Note{
		ID:              id,
		UserID:          "user-1",
		Title:           "title " + id,
		Content:         "content " + id,
		Summary:         &summary,
		IsSummaryActive: true,
		CreatedAt:       updated,
		UpdatedAt:       updated,
	}
}

func TestNoteCache_ListRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.GetList(ctx, "user-1")
			assert.ErrorIs(t, err, cachePorts.ErrCacheMiss)

			notes := []*entities.Note{sampleNote("b", base.Add(time.Minute)), sampleNote("a", base)}
			require.NoError(t, c.SetList(ctx, "user-1", 0, notes))

			got, err := c.GetList(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, notes, got)

			_, err = c.GetList(ctx, "user-2")
			assert.ErrorIs(t, err, cachePorts.ErrCacheMiss)

			require.NoError(t, c.InvalidateList(ctx, "user-1"))
			_, err = c.GetList(ctx, "user-1")
			assert.ErrorIs(t, err, cachePorts.ErrCacheMiss)
		})
	}
}

func TestNoteCache_EmptyListIsCached(t *testing.T) {
	ctx := context.Background()

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.SetList(ctx, "user-1", 0, nil))

			got, err := c.GetList(ctx, "user-1")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestNoteCache_PatchList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			prepend := func(notes []*entities.Note) []*entities.Note {
				return append([]*entities.Note{sampleNote("new", base.Add(time.Hour))}, notes...)
			}

			require.NoError(t, c.PatchList(ctx, "user-1", prepend))
			_, err := c.GetList(ctx, "user-1")
			assert.ErrorIs(t, err, cachePorts.ErrCacheMiss, "patching a missing list must not create it")

			version, err := c.ListVersion(ctx, "user-1")
			require.NoError(t, err)
			require.NoError(t, c.SetList(ctx, "user-1", version, []*entities.Note{sampleNote("old", base)}))
			require.NoError(t, c.PatchList(ctx, "user-1", prepend))

			got, err := c.GetList(ctx, "user-1")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "new", got[0].ID)
			assert.Equal(t, "old", got[1].ID)
		})
	}
}

func TestNoteCache_SearchIsKeyedByExactQuery(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			notes := []*entities.Note{sampleNote("a", base)}
			require.NoError(t, c.SetSearch(ctx, "user-1", "cat", notes))
			require.NoError(t, c.SetSearch(ctx, "user-1", "cat ", nil))

			got, err := c.GetSearch(ctx, "user-1", "cat")
			require.NoError(t, err)
			assert.Equal(t, notes, got)

			got, err = c.GetSearch(ctx, "user-1", "cat ")
			require.NoError(t, err)
			assert.Empty(t, got)

			for _, query := range []string{"Cat", " cat", "cat  "} {
				_, err = c.GetSearch(ctx, "user-1", query)
				assert.ErrorIs(t, err, cachePorts.ErrCacheMiss, query)
			}

			_, err = c.GetSearch(ctx, "user-2", "cat")
			assert.ErrorIs(t, err, cachePorts.ErrCacheMiss)
		})
	}
}

func TestNoteCache_SetListRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	keep := func(n []*entities.Note) []*entities.Note { return n }

	tests := []struct {
		name   string
		mutate func(c cachePorts.NoteCache) error
	}{
		{
			name:   "patch of a missing list",
			mutate: func(c cachePorts.NoteCache) error { return c.PatchList(ctx, "user-1", keep) },
		},
		{
			name:   "invalidate",
			mutate: func(c cachePorts.NoteCache) error { return c.InvalidateList(ctx, "user-1") },
		},
	}

	for name, c := range backends(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				require.NoError(t, c.InvalidateList(ctx, "user-1"))

				version, err := c.ListVersion(ctx, "user-1")
				require.NoError(t, err)

				require.NoError(t, tt.mutate(c))

				err = c.SetList(ctx, "user-1", version, []*entities.Note{sampleNote("stale", base)})
				assert.ErrorIs(t, err, cachePorts.ErrStaleList)
				_, err = c.GetList(ctx, "user-1")
				assert.ErrorIs(t, err, cachePorts.ErrCacheMiss)

				current, err := c.ListVersion(ctx, "user-1")
				require.NoError(t, err)
				assert.Greater(t, current, version)
				require.NoError(t, c.SetList(ctx, "user-1", current, nil))
			})
		}
	}
}

func TestNoteCache_VersionIsPerUser(t *testing.T) {
	ctx := context.Background()

	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			version, err := c.ListVersion(ctx, "user-2")
			require.NoError(t, err)

			require.NoError(t, c.InvalidateList(ctx, "user-1"))

			assert.NoError(t, c.SetList(ctx, "user-2", version, nil))
		})
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(listTTL, searchTTL)

	notes := []*entities.Note{sampleNote("a", time.Now())}
	require.NoError(t, c.SetList(ctx, "user-1", 0, notes))
	notes[0].Title = "mutated"

	got, err := c.GetList(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "title a", got[0].Title)
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	s := mockRedisServer(t)
	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: s.Addr()}), listTTL, searchTTL)
	defer c.Close()

	require.NoError(t, c.SetList(ctx, "user-1", 0, []*entities.Note{sampleNote("a", time.Now())}))
	require.NoError(t, c.SetSearch(ctx, "user-1", "q", nil))
	require.NoError(t, c.PatchList(ctx, "user-1", func(n []*entities.Note) []*entities.Note { return n }))

	assert.Equal(t, listTTL, s.TTL("notes:list:user-1"))
	assert.Equal(t, 2*listTTL, s.TTL("notes:list-version:user-1"))
	assert.Equal(t, searchTTL, s.TTL("notes:search:user-1:q"))

	s.FastForward(searchTTL + time.Second)
	_, err := c.GetSearch(ctx, "user-1", "q")
	assert.ErrorIs(t, err, cachePorts.ErrCacheMiss)
	_, err = c.GetList(ctx, "user-1")
	assert.NoError(t, err)
}

func TestRedisCache_ConnectionFailure(t *testing.T) {
	ctx := context.Background()
	s := mockRedisServer(t)
	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1}), listTTL, searchTTL)
	s.Close()

	_, err := c.GetList(ctx, "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cachePorts.ErrCacheMiss)

	assert.Error(t, c.PatchList(ctx, "user-1", func(n []*entities.Note) []*entities.Note { return n }))
}
