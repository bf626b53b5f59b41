// Package services содержит реализации сервисов токенов и паролей.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/services"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/logger"
)

// Константы для работы с JWT.
const (
	methodGenerateAccessToken  = "GenerateAccessToken"
	methodGenerateRefreshToken = "GenerateRefreshToken"
	methodValidateAccessToken  = "ValidateAccessToken"
	msgGeneratingToken         = "generating token"
	msgValidatingToken         = "validating token"
	msgTokenGenerated          = "token generated successfully"
	msgTokenValidated          = "token validated successfully"
	msgInvalidToken            = "invalid token format"
	msgTokenExpired            = "token has expired"
	//nolint:gosec
	errSigningToken = "error signing token"
	//nolint:gosec
	errParsingToken       = "error parsing token"
	errCtxGeneratingToken = "generating token"
	errCtxParsingToken    = "parsing token"
	errCtxValidatingToken = "validating token"
)

// Назначение токена.
const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// ErrInvalidAlgorithm представляет ошибку неверного алгоритма подписи.
var ErrInvalidAlgorithm = errors.New("invalid signing algorithm")

// Claims адаптирует доменные claims к библиотеке JWT.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// ServiceJWT реализует svc.TokenService на HS256.
type ServiceJWT struct {
	config services.JWTConfig
	now    func() time.Time
}

// NewJWT создает новый экземпляр сервиса JWT.
func NewJWT(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration) svc.TokenService {
	return &ServiceJWT{
		config: services.JWTConfig{
			SecretKey:       []byte(secretKey),
			AccessTokenTTL:  accessTokenTTL,
			RefreshTokenTTL: refreshTokenTTL,
		},
		now: time.Now,
	}
}

func domainToJWTClaims(claims services.JWTClaims, use string) Claims {
	return Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			Subject:   claims.UserID,
		},
	}
}

// GenerateAccessToken генерирует JWT токен доступа.
func (s *ServiceJWT) GenerateAccessToken(ctx context.Context, userID, username string) (string, time.Time, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGenerateAccessToken), zap.String("userID", userID))
	return s.sign(ctx, log, services.JWTClaims{UserID: userID, Username: username}, s.config.AccessTokenTTL, tokenUseAccess)
}

// GenerateRefreshToken генерирует refresh токен. Каждый токен уникален за счет jti.
func (s *ServiceJWT) GenerateRefreshToken(ctx context.Context, userID string) (string, time.Time, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGenerateRefreshToken), zap.String("userID", userID))
	return s.sign(ctx, log, services.JWTClaims{UserID: userID}, s.config.RefreshTokenTTL, tokenUseRefresh)
}

func (s *ServiceJWT) sign(ctx context.Context, log *logger.Logger, claims services.JWTClaims, ttl time.Duration, use string) (string, time.Time, error) {
	log.Debug(ctx, msgGeneratingToken, zap.String("token_use", use))

	if len(s.config.SecretKey) == 0 {
		log.Error(ctx, "empty secret key provided")
		return "", time.Time{}, fmt.Errorf("%s: %w: empty secret key", errCtxGeneratingToken, services.ErrGeneratingJWTToken)
	}

	now := s.now()
	claims.ID = uuid.NewString()
	claims.IssuedAt = now
	claims.ExpiresAt = now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, domainToJWTClaims(claims, use))
	tokenString, err := token.SignedString(s.config.SecretKey)
	if err != nil {
		log.Error(ctx, errSigningToken, zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%s: %w: %w", errCtxGeneratingToken, services.ErrGeneratingJWTToken, err)
	}

	log.Debug(ctx, msgTokenGenerated, zap.Time("expiresAt", claims.ExpiresAt))
	return tokenString, claims.ExpiresAt, nil
}

// ValidateAccessToken проверяет токен доступа и возвращает ID пользователя.
func (s *ServiceJWT) ValidateAccessToken(ctx context.Context, tokenString string) (string, error) {
	log := logger.Log(ctx).With(zap.String("method", methodValidateAccessToken))
	log.Debug(ctx, msgValidatingToken)

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, token.Header["alg"])
		}
		return s.config.SecretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug(ctx, msgTokenExpired)
			return "", fmt.Errorf("%s: %w", errCtxValidatingToken, services.ErrExpiredJWTToken)
		}
		log.Debug(ctx, errParsingToken, zap.Error(err))
		return "", fmt.Errorf("%s: %w: %w", errCtxParsingToken, services.ErrInvalidJWTToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		log.Debug(ctx, msgInvalidToken)
		return "", fmt.Errorf("%s: %w", errCtxValidatingToken, services.ErrInvalidJWTToken)
	}

	if claims.UserID == "" || claims.TokenUse != tokenUseAccess {
		log.Debug(ctx, msgInvalidToken, zap.String("token_use", claims.TokenUse))
		return "", fmt.Errorf("%s: %w", errCtxValidatingToken, services.ErrInvalidJWTToken)
	}

	log.Debug(ctx, msgTokenValidated, zap.String("userID", claims.UserID))
	return claims.UserID, nil
}
