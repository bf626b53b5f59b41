package services

import (
	"context"
	"time"
)

// TokenService определяет операции с JWT токенами.
type TokenService interface {
	GenerateAccessToken(ctx context.Context, userID, username string) (string, time.Time, error)
	GenerateRefreshToken(ctx context.Context, userID string) (string, time.Time, error)
	ValidateAccessToken(ctx context.Context, token string) (string, error)
}
