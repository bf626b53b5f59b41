package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/services"
	"notewise/internal/notes/ports/repositories"
	"notewise/pkg/logger"
)

// TokenRepository реализует repositories.TokenRepository.
type TokenRepository struct {
	pool PgxPoolInterface
}

// NewTokenRepository создает новый экземпляр репозитория токенов.
func NewTokenRepository(pool PgxPoolInterface) repositories.TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindByToken находит токен по его значению.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*services.RefreshToken, error) {
	log := logger.Log(ctx).With(zap.String("repository", "token"), zap.String("method", "FindByToken"))

	query := `SELECT id, user_id, token, expires_at, created_at, is_revoked
		FROM refresh_tokens
		WHERE token = $1`

	var rt services.RefreshToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt, &rt.IsRevoked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "token not found")
			return nil, services.ErrInvalidRefreshToken
		}
		log.Error(ctx, "error finding refresh token", zap.Error(err))
		return nil, fmt.Errorf("error querying refresh token: %w", err)
	}

	return &rt, nil
}

// StoreRefreshToken сохраняет новый refresh токен.
func (r *TokenRepository) StoreRefreshToken(ctx context.Context, token *services.RefreshToken) error {
	log := logger.Log(ctx).With(zap.String("repository", "token"), zap.String("method", "StoreRefreshToken"))

	query := `INSERT INTO refresh_tokens (user_id, token, expires_at, is_revoked) VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, token.UserID, token.Token, token.ExpiresAt, token.IsRevoked); err != nil {
		log.Error(ctx, "error storing refresh token", zap.Error(err))
		return fmt.Errorf("error storing refresh token: %w", err)
	}
	return nil
}

// RevokeToken отзывает refresh токен.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	log := logger.Log(ctx).With(zap.String("repository", "token"), zap.String("method", "RevokeToken"))

	result, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET is_revoked = true WHERE token = $1`, token)
	if err != nil {
		log.Error(ctx, "error revoking refresh token", zap.Error(err))
		return fmt.Errorf("error revoking refresh token: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "token not found for revocation")
		return services.ErrInvalidRefreshToken
	}
	return nil
}

// RevokeAllUserTokens отзывает все активные токены пользователя.
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	log := logger.Log(ctx).With(zap.String("repository", "token"),
		zap.String("method", "RevokeAllUserTokens"), zap.String("userID", userID))

	result, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = true WHERE user_id = $1 AND is_revoked = false`, userID)
	if err != nil {
		log.Error(ctx, "error revoking all user tokens", zap.Error(err))
		return fmt.Errorf("error revoking all user tokens: %w", err)
	}

	log.Info(ctx, "all user tokens revoked", zap.Int64("count", result.RowsAffected()))
	return nil
}

// CleanupExpiredTokens удаляет просроченные и отозванные токены.
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "token"), zap.String("method", "CleanupExpiredTokens"))

	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now() OR is_revoked = true`)
	if err != nil {
		log.Error(ctx, "error cleaning up expired tokens", zap.Error(err))
		return 0, fmt.Errorf("error cleaning up expired tokens: %w", err)
	}

	log.Info(ctx, "expired tokens cleaned up", zap.Int64("removed_count", result.RowsAffected()))
	return result.RowsAffected(), nil
}
