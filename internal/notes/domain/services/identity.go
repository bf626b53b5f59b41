// Package services содержит доменные ошибки и модели сервисов идентификации.
package services

import (
	"errors"
	"time"
)

// Ошибки домена аутентификации.
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailAlreadyExists    = errors.New("user with this email already exists")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrRevokedRefreshToken   = errors.New("refresh token has been revoked")
	ErrExpiredRefreshToken   = errors.New("refresh token has expired")
	ErrTokenGenerationFailed = errors.New("failed to generate authentication tokens")
	ErrUnsupportedProvider   = errors.New("unsupported oauth provider")
	ErrOAuthExchangeFailed   = errors.New("failed to exchange oauth code")
	ErrEmptyAuthCode         = errors.New("authorization code is empty")
	ErrUnverifiedEmail       = errors.New("oauth provider did not verify the email")
)

// RefreshToken представляет сохраненный refresh-токен.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	IsRevoked bool
}

// OAuthProfile - профиль пользователя, полученный от OAuth провайдера.
type OAuthProfile struct {
	Provider      string
	Email         string
	Name          string
	EmailVerified bool
}
