package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notewise/internal/notes/domain/entities"
)

type mockNoteService struct {
	mock.Mock
}

func (m *mockNoteService) List(ctx context.Context, userID string) ([]*entities.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteService) Search(ctx context.Context, userID, query string) ([]*entities.Note, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteService) Create(ctx context.Context, userID, title, content string) (*entities.Note, error) {
	args := m.Called(ctx, userID, title, content)
	return noteArg(args, 0), args.Error(1)
}

func (m *mockNoteService) Get(ctx context.Context, userID, noteID string) (*entities.Note, error) {
	args := m.Called(ctx, userID, noteID)
	return noteArg(args, 0), args.Error(1)
}

func (m *mockNoteService) Update(ctx context.Context, userID, noteID string, patch entities.NotePatch) (*entities.Note, error) {
	args := m.Called(ctx, userID, noteID, patch)
	return noteArg(args, 0), args.Error(1)
}

func (m *mockNoteService) Delete(ctx context.Context, userID, noteID string) error {
	return m.Called(ctx, userID, noteID).Error(0)
}

func (m *mockNoteService) Summarize(ctx context.Context, userID, noteID, content string) (*entities.Note, error) {
	args := m.Called(ctx, userID, noteID, content)
	return noteArg(args, 0), args.Error(1)
}

func (m *mockNoteService) Summarizing(userID string) bool {
	return m.Called(userID).Bool(0)
}

func (m *mockNoteService) DeleteSummary(ctx context.Context, userID, noteID string) (*entities.Note, error) {
	args := m.Called(ctx, userID, noteID)
	return noteArg(args, 0), args.Error(1)
}

func (m *mockNoteService) RestoreSummary(ctx context.Context, userID, noteID string) (*entities.Note, error) {
	args := m.Called(ctx, userID, noteID)
	return noteArg(args, 0), args.Error(1)
}

func (m *mockNoteService) SummarizeText(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func noteArg(args mock.Arguments, i int) *entities.Note {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*entities.Note)
}

type mockIdentityService struct {
	mock.Mock
}

func (m *mockIdentityService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *mockIdentityService) GetCurrentUser(ctx context.Context, accessToken string) (*entities.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockIdentityService) SignUp(ctx context.Context, email, password, displayName string) (*entities.Session, error) {
	args := m.Called(ctx, email, password, displayName)
	return sessionArg(args), args.Error(1)
}

func (m *mockIdentityService) SignIn(ctx context.Context, email, password string) (*entities.Session, error) {
	args := m.Called(ctx, email, password)
	return sessionArg(args), args.Error(1)
}

func (m *mockIdentityService) SignInWithOAuth(ctx context.Context, provider string) (string, string, error) {
	args := m.Called(ctx, provider)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockIdentityService) ExchangeCodeForSession(ctx context.Context, provider, code string) (*entities.Session, error) {
	args := m.Called(ctx, provider, code)
	return sessionArg(args), args.Error(1)
}

func (m *mockIdentityService) RefreshSession(ctx context.Context, refreshToken string) (*entities.Session, error) {
	args := m.Called(ctx, refreshToken)
	return sessionArg(args), args.Error(1)
}

func (m *mockIdentityService) SignOut(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *mockIdentityService) SignOutAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func sessionArg(args mock.Arguments) *entities.Session {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*entities.Session)
}

type failingPinger struct {
	err error
}

func (p failingPinger) Ping(context.Context) error { return p.err }
