package services

import (
	"errors"
	"time"
)

// Ошибки JWT.
var (
	ErrInvalidJWTToken    = errors.New("invalid JWT token")
	ErrExpiredJWTToken    = errors.New("JWT token has expired")
	ErrGeneratingJWTToken = errors.New("failed to generate JWT token")
)

// JWTConfig содержит настройки для JWT сервиса.
type JWTConfig struct {
	SecretKey       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// JWTClaims определяет структуру данных JWT токена.
type JWTClaims struct {
	ID        string
	UserID    string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
