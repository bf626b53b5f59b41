package app_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/domain/services"
	"notewise/internal/notes/ports/cache"
	"notewise/internal/notes/ports/repositories"
	svc "notewise/internal/notes/ports/services"
)

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) Create(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error) {
	args := m.Called(ctx, noteID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Search(ctx context.Context, userID, query string) ([]*entities.Note, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (*entities.Note, error) {
	args := m.Called(ctx, noteID, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Delete(ctx context.Context, noteID, userID string) error {
	return m.Called(ctx, noteID, userID).Error(0)
}

type mockNoteCache struct {
	mock.Mock
}

func (m *mockNoteCache) GetList(ctx context.Context, userID string) ([]*entities.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteCache) ListVersion(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteCache) SetList(ctx context.Context, userID string, version int64, notes []*entities.Note) error {
	return m.Called(ctx, userID, version, notes).Error(0)
}

func (m *mockNoteCache) PatchList(ctx context.Context, userID string, patch cache.ListPatch) error {
	return m.Called(ctx, userID, patch).Error(0)
}

func (m *mockNoteCache) InvalidateList(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockNoteCache) GetSearch(ctx context.Context, userID, query string) ([]*entities.Note, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteCache) SetSearch(ctx context.Context, userID, query string, notes []*entities.Note) error {
	return m.Called(ctx, userID, query, notes).Error(0)
}

func (m *mockNoteCache) Close() error {
	return m.Called().Error(0)
}

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) StoreRefreshToken(ctx context.Context, token *services.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepository) FindByToken(ctx context.Context, token string) (*services.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RefreshToken), args.Error(1)
}

func (m *mockTokenRepository) RevokeToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockTokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(ctx context.Context, password, hash string) (bool, error) {
	args := m.Called(ctx, password, hash)
	return args.Bool(0), args.Error(1)
}

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateAccessToken(ctx context.Context, userID, username string) (string, time.Time, error) {
	args := m.Called(ctx, userID, username)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) GenerateRefreshToken(ctx context.Context, userID string) (string, time.Time, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type mockOAuthProvider struct {
	mock.Mock
}

func (m *mockOAuthProvider) Name() string {
	return entities.ProviderGoogle
}

func (m *mockOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (m *mockOAuthProvider) Exchange(ctx context.Context, code string) (*services.OAuthProfile, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OAuthProfile), args.Error(1)
}

// recordingBus синхронно доставляет события подписчикам.
type recordingBus struct {
	mu       sync.Mutex
	events   []entities.SessionEvent
	handlers []svc.SessionEventHandler
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

func (b *recordingBus) Publish(ctx context.Context, event entities.SessionEvent) error {
	b.mu.Lock()
	b.events = append(b.events, event)
	handlers := append([]svc.SessionEventHandler(nil), b.handlers...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}

func (b *recordingBus) Subscribe(_ context.Context, handler svc.SessionEventHandler) (svc.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return noopSubscription{}, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) types() []entities.SessionEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.SessionEventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

// memoryNoteRepository ведет себя как хранилище: владелец в каждом фильтре,
// updated_at строго растет, список упорядочен по updated_at DESC.
type memoryNoteRepository struct {
	mu    sync.Mutex
	notes map[string]*entities.Note
	clock time.Time
	calls int
}

func newMemoryNoteRepository() *memoryNoteRepository {
	return &memoryNoteRepository{
		notes: make(map[string]*entities.Note),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memoryNoteRepository) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memoryNoteRepository) Create(_ context.Context, note *entities.Note) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	stored := note.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.tick()
	stored.UpdatedAt = stored.CreatedAt
	r.notes[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *memoryNoteRepository) GetByID(_ context.Context, noteID, userID string) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNoteNotFoundOrNotOwned
	}
	return n.Clone(), nil
}

func (r *memoryNoteRepository) ListByUserID(_ context.Context, userID string) ([]*entities.Note, error) {
	return r.filter(userID, func(*entities.Note) bool { return true }), nil
}

func (r *memoryNoteRepository) Search(_ context.Context, userID, query string) ([]*entities.Note, error) {
	q := strings.ToLower(query)
	return r.filter(userID, func(n *entities.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q)
	}), nil
}

func (r *memoryNoteRepository) filter(userID string, keep func(*entities.Note) bool) []*entities.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	out := []*entities.Note{}
	for _, n := range r.notes {
		if n.UserID == userID && keep(n) {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (r *memoryNoteRepository) Update(_ context.Context, noteID, userID string, patch entities.NotePatch) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if patch.IsEmpty() {
		return nil, fmt.Errorf("update: %w", entities.ErrEmptyPatch)
	}
	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNoteNotFoundOrNotOwned
	}
	updated := patch.Apply(n)
	updated.UpdatedAt = r.tick()
	r.notes[noteID] = updated
	return updated.Clone(), nil
}

func (r *memoryNoteRepository) Delete(_ context.Context, noteID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return repositories.ErrNoteNotFoundOrNotOwned
	}
	delete(r.notes, noteID)
	return nil
}

// pausingListRepository останавливает первое чтение списка после выборки из хранилища,
// пока тест не закроет release.
type pausingListRepository struct {
	*memoryNoteRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingListRepository() *pausingListRepository {
	return &pausingListRepository{
		memoryNoteRepository: newMemoryNoteRepository(),
		read:                 make(chan struct{}),
		release:              make(chan struct{}),
	}
}

func (r *pausingListRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.Note, error) {
	notes, err := r.memoryNoteRepository.ListByUserID(ctx, userID)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return notes, err
}

func (r *memoryNoteRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
