package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notewise/internal/notes/ports/api"
	"notewise/pkg/logger"
)

// Имена cookie сессии.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token" // #nosec G101 - not a credential
)

// Константы для логирования.
const (
	LogAuthMiddleware = "auth middleware"

	ErrorNoToken      = "no access token provided"
	ErrorInvalidToken = "invalid or expired access token"
)

type localsKey int

const (
	userIDKey localsKey = iota
	accessTokenKey
)

// NewAuthMiddleware проверяет access токен из заголовка Authorization или cookie access_token.
func NewAuthMiddleware(auth api.Authenticator) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, LogAuthMiddleware)

		token := bearerToken(ctx.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = ctx.Cookies(AccessTokenCookie)
		}
		if token == "" {
			log.Debug(requestCtx, ErrorNoToken)
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrorNoToken})
		}

		userID, err := auth.Authenticate(requestCtx, token)
		if err != nil {
			log.Debug(requestCtx, ErrorInvalidToken, zap.Error(err))
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrorInvalidToken})
		}

		ctx.Locals(userIDKey, userID)
		ctx.Locals(accessTokenKey, token)
		ctx.SetContext(logger.NewUserIDContext(requestCtx, userID))

		return ctx.Next()
	}
}

// UserID возвращает ID пользователя, проверенного NewAuthMiddleware.
func UserID(ctx fiber.Ctx) string {
	userID, _ := ctx.Locals(userIDKey).(string)
	return userID
}

// AccessToken возвращает access токен текущего запроса.
func AccessToken(ctx fiber.Ctx) string {
	token, _ := ctx.Locals(accessTokenKey).(string)
	return token
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
