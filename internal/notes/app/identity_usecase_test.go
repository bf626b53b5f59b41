package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notewise/internal/notes/app"
	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/domain/services"
)

type identityFixture struct {
	users     *mockUserRepository
	tokens    *mockTokenRepository
	passwords *mockPasswordService
	tokenSvc  *mockTokenService
	google    *mockOAuthProvider
	bus       *recordingBus
	useCase   *app.IdentityUseCase
}

func newIdentityFixture() *identityFixture {
	f := &identityFixture{
		users:     new(mockUserRepository),
		tokens:    new(mockTokenRepository),
		passwords: new(mockPasswordService),
		tokenSvc:  new(mockTokenService),
		google:    new(mockOAuthProvider),
		bus:       &recordingBus{},
	}
	f.useCase = app.NewIdentityUseCase(f.users, f.tokens, f.passwords, f.tokenSvc, f.bus, f.google)
	return f
}

// expectSession настраивает выдачу пары токенов для пользователя.
func (f *identityFixture) expectSession(user *entities.User) {
	f.tokenSvc.On("GenerateAccessToken", mock.Anything, user.ID, user.DisplayName).
		Return("access-"+user.ID, time.Now().Add(15*time.Minute), nil).Once()
	f.tokenSvc.On("GenerateRefreshToken", mock.Anything, user.ID).
		Return("refresh-"+user.ID, time.Now().Add(24*time.Hour), nil).Once()
	f.tokens.On("StoreRefreshToken", mock.Anything, mock.MatchedBy(func(t *services.RefreshToken) bool {
		return t.UserID == user.ID && t.Token == "refresh-"+user.ID
	})).Return(nil).Once()
}

func TestSignUp(t *testing.T) {
	ctx := testContext(t)

	t.Run("creates user and opens session", func(t *testing.T) {
		f := newIdentityFixture()
		created := &entities.User{ID: "user-1", Email: "alice@example.com", DisplayName: "alice", Provider: entities.ProviderEmail}

		f.users.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, entities.ErrUserNotFound).Once()
		f.passwords.On("Hash", mock.Anything, "secret123").Return("hashed", nil).Once()
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.Email == "alice@example.com" && u.DisplayName == "alice" &&
				u.PasswordHash == "hashed" && u.Provider == entities.ProviderEmail
		})).Return(created, nil).Once()
		f.expectSession(created)

		session, err := f.useCase.SignUp(ctx, "  Alice@Example.com ", "secret123", "")

		require.NoError(t, err)
		assert.Equal(t, created, session.User)
		assert.Equal(t, "access-user-1", session.AccessToken)
		assert.Equal(t, "refresh-user-1", session.RefreshToken)
		assert.Equal(t, []entities.SessionEventType{entities.EventSignedIn}, f.bus.types())
		f.users.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "invalid email", email: "not-an-email", password: "secret123", wantErr: entities.ErrInvalidEmail},
		{name: "short password", email: "a@example.com", password: "abc1", wantErr: entities.ErrPasswordTooShort},
		{name: "password without digit", email: "a@example.com", password: "abcdefghij", wantErr: entities.ErrPasswordTooWeak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIdentityFixture()

			_, err := f.useCase.SignUp(ctx, tt.email, tt.password, "")

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, app.ErrInvalidParams)
			f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		})
	}

	t.Run("email taken", func(t *testing.T) {
		f := newIdentityFixture()
		f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(&entities.User{ID: "user-1"}, nil).Once()

		_, err := f.useCase.SignUp(ctx, "a@example.com", "secret123", "")

		assert.ErrorIs(t, err, services.ErrEmailAlreadyExists)
		f.passwords.AssertNotCalled(t, "Hash", mock.Anything, mock.Anything)
		assert.Empty(t, f.bus.types())
	})
}

func TestSignIn(t *testing.T) {
	ctx := testContext(t)
	user := &entities.User{ID: "user-1", Email: "a@example.com", DisplayName: "A", PasswordHash: "hashed"}

	t.Run("success", func(t *testing.T) {
		f := newIdentityFixture()
		f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil).Once()
		f.passwords.On("Verify", mock.Anything, "secret123", "hashed").Return(true, nil).Once()
		f.expectSession(user)

		session, err := f.useCase.SignIn(ctx, "A@example.com", "secret123")

		require.NoError(t, err)
		assert.Equal(t, "access-user-1", session.AccessToken)
		assert.Equal(t, []entities.SessionEventType{entities.EventSignedIn}, f.bus.types())
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newIdentityFixture()
		f.users.On("FindByEmail", mock.Anything, "b@example.com").Return(nil, entities.ErrUserNotFound).Once()

		_, err := f.useCase.SignIn(ctx, "b@example.com", "secret123")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newIdentityFixture()
		f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil).Once()
		f.passwords.On("Verify", mock.Anything, "wrong", "hashed").Return(false, nil).Once()

		_, err := f.useCase.SignIn(ctx, "a@example.com", "wrong")

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		f.tokenSvc.AssertNotCalled(t, "GenerateAccessToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		f := newIdentityFixture()
		f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, errDatabase).Once()

		_, err := f.useCase.SignIn(ctx, "a@example.com", "secret123")

		assert.ErrorIs(t, err, errDatabase)
		assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
	})
}

func TestAuthenticateAndCurrentUser(t *testing.T) {
	ctx := testContext(t)
	f := newIdentityFixture()
	user := &entities.User{ID: "user-1"}

	f.tokenSvc.On("ValidateAccessToken", mock.Anything, "good").Return("user-1", nil)
	f.tokenSvc.On("ValidateAccessToken", mock.Anything, "bad").Return("", services.ErrInvalidJWTToken)
	f.users.On("FindByID", mock.Anything, "user-1").Return(user, nil).Once()

	userID, err := f.useCase.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = f.useCase.Authenticate(ctx, "bad")
	assert.ErrorIs(t, err, app.ErrUnauthorized)
	assert.ErrorIs(t, err, services.ErrInvalidJWTToken)

	got, err := f.useCase.GetCurrentUser(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	f.users.On("FindByID", mock.Anything, "user-1").Return(nil, entities.ErrUserNotFound).Once()
	_, err = f.useCase.GetCurrentUser(ctx, "good")
	assert.ErrorIs(t, err, app.ErrUnauthorized)
}

func TestRefreshSession(t *testing.T) {
	ctx := testContext(t)
	user := &entities.User{ID: "user-1", DisplayName: "A"}

	t.Run("rotates refresh token", func(t *testing.T) {
		f := newIdentityFixture()
		f.tokens.On("FindByToken", mock.Anything, "old").Return(&services.RefreshToken{
			UserID: "user-1", Token: "old", ExpiresAt: time.Now().Add(time.Hour),
		}, nil).Once()
		f.users.On("FindByID", mock.Anything, "user-1").Return(user, nil).Once()
		f.tokens.On("RevokeToken", mock.Anything, "old").Return(nil).Once()
		f.expectSession(user)

		session, err := f.useCase.RefreshSession(ctx, "old")

		require.NoError(t, err)
		assert.Equal(t, "refresh-user-1", session.RefreshToken)
		assert.Equal(t, []entities.SessionEventType{entities.EventTokenRefreshed}, f.bus.types())
		f.tokens.AssertExpectations(t)
	})

	tests := []struct {
		name    string
		token   *services.RefreshToken
		findErr error
		wantErr error
	}{
		{
			name:    "unknown token",
			findErr: errors.New("refresh token not found"),
			wantErr: services.ErrInvalidRefreshToken,
		},
		{
			name:    "revoked token",
			token:   &services.RefreshToken{UserID: "user-1", IsRevoked: true, ExpiresAt: time.Now().Add(time.Hour)},
			wantErr: services.ErrRevokedRefreshToken,
		},
		{
			name:    "expired token",
			token:   &services.RefreshToken{UserID: "user-1", ExpiresAt: time.Now().Add(-time.Minute)},
			wantErr: services.ErrExpiredRefreshToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIdentityFixture()
			if tt.token != nil {
				f.tokens.On("FindByToken", mock.Anything, "tok").Return(tt.token, nil).Once()
			} else {
				f.tokens.On("FindByToken", mock.Anything, "tok").Return(nil, tt.findErr).Once()
			}

			_, err := f.useCase.RefreshSession(ctx, "tok")

			assert.ErrorIs(t, err, tt.wantErr)
			f.tokens.AssertNotCalled(t, "RevokeToken", mock.Anything, mock.Anything)
			assert.Empty(t, f.bus.types())
		})
	}
}

func TestSignOut(t *testing.T) {
	ctx := testContext(t)

	t.Run("revokes and publishes", func(t *testing.T) {
		f := newIdentityFixture()
		f.tokens.On("FindByToken", mock.Anything, "tok").Return(&services.RefreshToken{UserID: "user-1", Token: "tok"}, nil).Once()
		f.tokens.On("RevokeToken", mock.Anything, "tok").Return(nil).Once()

		require.NoError(t, f.useCase.SignOut(ctx, "tok"))

		assert.Equal(t, []entities.SessionEventType{entities.EventSignedOut}, f.bus.types())
		f.tokens.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newIdentityFixture()
		f.tokens.On("FindByToken", mock.Anything, "tok").Return(nil, errors.New("refresh token not found")).Once()

		err := f.useCase.SignOut(ctx, "tok")

		assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
		assert.Empty(t, f.bus.types())
	})

	t.Run("all sessions", func(t *testing.T) {
		f := newIdentityFixture()
		f.tokens.On("RevokeAllUserTokens", mock.Anything, "user-1").Return(nil).Once()

		require.NoError(t, f.useCase.SignOutAll(ctx, "user-1"))
		assert.Equal(t, []entities.SessionEventType{entities.EventSignedOut}, f.bus.types())

		assert.ErrorIs(t, f.useCase.SignOutAll(ctx, ""), app.ErrUnauthorized)
	})
}

func TestOAuth(t *testing.T) {
	ctx := testContext(t)

	t.Run("auth url carries fresh state", func(t *testing.T) {
		f := newIdentityFixture()

		url1, state1, err := f.useCase.SignInWithOAuth(ctx, entities.ProviderGoogle)
		require.NoError(t, err)
		_, state2, err := f.useCase.SignInWithOAuth(ctx, entities.ProviderGoogle)
		require.NoError(t, err)

		assert.NotEmpty(t, state1)
		assert.NotEqual(t, state1, state2)
		assert.True(t, strings.HasSuffix(url1, "state="+state1))
	})

	t.Run("unsupported provider", func(t *testing.T) {
		f := newIdentityFixture()

		_, _, err := f.useCase.SignInWithOAuth(ctx, "github")
		assert.ErrorIs(t, err, services.ErrUnsupportedProvider)

		_, err = f.useCase.ExchangeCodeForSession(ctx, "github", "code")
		assert.ErrorIs(t, err, services.ErrUnsupportedProvider)
	})

	t.Run("first sign in creates user", func(t *testing.T) {
		f := newIdentityFixture()
		created := &entities.User{ID: "user-2", Email: "g@example.com", DisplayName: "G", Provider: entities.ProviderGoogle}

		f.google.On("Exchange", mock.Anything, "code").Return(&services.OAuthProfile{
			Provider: entities.ProviderGoogle, Email: "G@example.com", Name: "G", EmailVerified: true,
		}, nil).Once()
		f.users.On("FindByEmail", mock.Anything, "g@example.com").Return(nil, entities.ErrUserNotFound).Once()
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.Email == "g@example.com" && u.Provider == entities.ProviderGoogle && u.PasswordHash == ""
		})).Return(created, nil).Once()
		f.expectSession(created)

		session, err := f.useCase.ExchangeCodeForSession(ctx, entities.ProviderGoogle, "code")

		require.NoError(t, err)
		assert.Equal(t, created, session.User)
		assert.Equal(t, []entities.SessionEventType{entities.EventSignedIn}, f.bus.types())
		f.users.AssertExpectations(t)
	})

	t.Run("existing user is reused", func(t *testing.T) {
		f := newIdentityFixture()
		existing := &entities.User{ID: "user-1", Email: "g@example.com", DisplayName: "G"}

		f.google.On("Exchange", mock.Anything, "code").
			Return(&services.OAuthProfile{Email: "g@example.com", EmailVerified: true}, nil).Once()
		f.users.On("FindByEmail", mock.Anything, "g@example.com").Return(existing, nil).Once()
		f.expectSession(existing)

		session, err := f.useCase.ExchangeCodeForSession(ctx, entities.ProviderGoogle, "code")

		require.NoError(t, err)
		assert.Equal(t, existing, session.User)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unverified email neither links nor creates", func(t *testing.T) {
		f := newIdentityFixture()
		f.google.On("Exchange", mock.Anything, "code").Return(&services.OAuthProfile{
			Provider: entities.ProviderGoogle, Email: "victim@example.com", Name: "V", EmailVerified: false,
		}, nil).Once()

		session, err := f.useCase.ExchangeCodeForSession(ctx, entities.ProviderGoogle, "code")

		require.ErrorIs(t, err, services.ErrUnverifiedEmail)
		assert.Nil(t, session)
		f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.tokenSvc.AssertNotCalled(t, "GenerateAccessToken", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.bus.types())
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newIdentityFixture()
		f.google.On("Exchange", mock.Anything, "code").Return(nil, services.ErrOAuthExchangeFailed).Once()

		_, err := f.useCase.ExchangeCodeForSession(ctx, entities.ProviderGoogle, "code")
		assert.ErrorIs(t, err, services.ErrOAuthExchangeFailed)

		_, err = f.useCase.ExchangeCodeForSession(ctx, entities.ProviderGoogle, "")
		assert.ErrorIs(t, err, services.ErrEmptyAuthCode)
	})
}

func TestSessionTokenFailure(t *testing.T) {
	ctx := testContext(t)
	f := newIdentityFixture()
	user := &entities.User{ID: "user-1", DisplayName: "A", PasswordHash: "hashed"}

	f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil).Once()
	f.passwords.On("Verify", mock.Anything, "secret123", "hashed").Return(true, nil).Once()
	f.tokenSvc.On("GenerateAccessToken", mock.Anything, "user-1", "A").
		Return("", time.Time{}, services.ErrGeneratingJWTToken).Once()

	_, err := f.useCase.SignIn(ctx, "a@example.com", "secret123")

	assert.ErrorIs(t, err, services.ErrTokenGenerationFailed)
	assert.Empty(t, f.bus.types())
}

func TestCleanupExpiredTokens(t *testing.T) {
	ctx := testContext(t)
	f := newIdentityFixture()

	f.tokens.On("CleanupExpiredTokens", mock.Anything).Return(int64(3), nil).Once()
	f.tokens.On("CleanupExpiredTokens", mock.Anything).Return(int64(0), errDatabase).Once()

	removed, err := f.useCase.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, err = f.useCase.CleanupExpiredTokens(ctx)
	assert.ErrorIs(t, err, errDatabase)
}

func TestRunTokenCleanup_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	f := newIdentityFixture()
	called := make(chan struct{}, 1)
	f.tokens.On("CleanupExpiredTokens", mock.Anything).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	}).Return(int64(0), nil)

	done := make(chan struct{})
	go func() {
		f.useCase.RunTokenCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestWatchSessions_InvalidatesCacheOnSignOut(t *testing.T) {
	ctx := testContext(t)
	f := newIdentityFixture()
	noteCache := new(mockNoteCache)
	noteCache.On("InvalidateList", mock.Anything, "user-1").Return(nil).Once()

	sub, err := app.WatchSessions(ctx, f.useCase, noteCache)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	f.tokens.On("RevokeAllUserTokens", mock.Anything, "user-1").Return(nil).Once()
	require.NoError(t, f.useCase.SignOutAll(ctx, "user-1"))

	user := &entities.User{ID: "user-1", DisplayName: "A", PasswordHash: "hashed"}
	f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil).Once()
	f.passwords.On("Verify", mock.Anything, "secret123", "hashed").Return(true, nil).Once()
	f.expectSession(user)
	_, err = f.useCase.SignIn(ctx, "a@example.com", "secret123")
	require.NoError(t, err)

	noteCache.AssertExpectations(t)
	noteCache.AssertNumberOfCalls(t, "InvalidateList", 1)
}
