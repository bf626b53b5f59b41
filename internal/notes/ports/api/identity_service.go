package api

import (
	"context"

	"notewise/internal/notes/domain/entities"
)

// Authenticator проверяет access токен и возвращает ID пользователя.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// IdentityService определяет операции шлюза идентификации.
type IdentityService interface {
	Authenticator
	GetCurrentUser(ctx context.Context, accessToken string) (*entities.User, error)
	SignUp(ctx context.Context, email, password, displayName string) (*entities.Session, error)
	SignIn(ctx context.Context, email, password string) (*entities.Session, error)
	SignInWithOAuth(ctx context.Context, provider string) (authURL, state string, err error)
	ExchangeCodeForSession(ctx context.Context, provider, code string) (*entities.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*entities.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	SignOutAll(ctx context.Context, userID string) error
}
