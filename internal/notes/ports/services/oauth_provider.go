package services

import (
	"context"

	"notewise/internal/notes/domain/services"
)

// OAuthProvider - внешний провайдер входа.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*services.OAuthProfile, error)
}
