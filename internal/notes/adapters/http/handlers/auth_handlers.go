package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notewise/internal/notes/adapters/http/dto"
	"notewise/internal/notes/adapters/http/middleware"
	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/api"
	"notewise/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerSignUp      = "auth handler: sign up"
	LogHandlerSignIn      = "auth handler: sign in"
	LogHandlerRefresh     = "auth handler: refresh session" // #nosec G101 - not a credential
	LogHandlerSignOut     = "auth handler: sign out"
	LogHandlerSignOutAll  = "auth handler: sign out everywhere"
	LogHandlerCurrentUser = "auth handler: current user"
	LogHandlerOAuth       = "auth handler: oauth redirect"
	LogHandlerCallback    = "auth handler: oauth callback"

	ErrorFailedToServeRequest = "failed to serve request"
	ErrorCallbackFailed       = "oauth callback failed"
)

// Cookie OAuth-потока.
const (
	OAuthStateCookie    = "oauth_state"
	OAuthProviderCookie = "oauth_provider"

	oauthCookieTTL = 10 * time.Minute
)

// AuthConfig содержит параметры cookie и перенаправлений.
type AuthConfig struct {
	SecureCookies   bool
	RefreshTTL      time.Duration
	SuccessRedirect string
	FailureRedirect string
}

// AuthHandler содержит HTTP обработчики шлюза идентификации.
type AuthHandler struct {
	identity api.IdentityService
	config   AuthConfig
}

// NewAuthHandler создает новый экземпляр обработчика авторизации.
func NewAuthHandler(identity api.IdentityService, cfg AuthConfig) *AuthHandler {
	return &AuthHandler{identity: identity, config: cfg}
}

// SignUp регистрирует пользователя и открывает сессию.
func (h *AuthHandler) SignUp(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerSignUp)

	var req dto.SignUpRequest
	if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	session, err := h.identity.SignUp(requestCtx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		log.Debug(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}

	h.setSessionCookies(ctx, session)
	return sendJSON(ctx, fiber.StatusCreated, session)
}

// SignIn выполняет вход по email и паролю.
func (h *AuthHandler) SignIn(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerSignIn)

	var req dto.SignInRequest
	if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	session, err := h.identity.SignIn(requestCtx, req.Email, req.Password)
	if err != nil {
		log.Debug(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}

	h.setSessionCookies(ctx, session)
	return sendJSON(ctx, fiber.StatusOK, session)
}

// RefreshSession выдает новую сессию по refresh токену из тела или cookie.
func (h *AuthHandler) RefreshSession(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerRefresh)

	var req dto.RefreshRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
			return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
		}
	}
	token := req.RefreshToken
	if token == "" {
		token = ctx.Cookies(middleware.RefreshTokenCookie)
	}
	if token == "" {
		return writeError(ctx, fiber.StatusBadRequest, "refresh token is required")
	}

	session, err := h.identity.RefreshSession(requestCtx, token)
	if err != nil {
		log.Debug(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}

	h.setSessionCookies(ctx, session)
	return sendJSON(ctx, fiber.StatusOK, session)
}

// SignOut завершает текущую сессию.
func (h *AuthHandler) SignOut(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerSignOut)

	var req dto.SignOutRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
			return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
		}
	}
	token := req.RefreshToken
	if token == "" {
		token = ctx.Cookies(middleware.RefreshTokenCookie)
	}
	if token == "" {
		return writeError(ctx, fiber.StatusBadRequest, "refresh token is required")
	}

	if err := h.identity.SignOut(requestCtx, token); err != nil {
		log.Debug(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}

	h.clearSessionCookies(ctx)
	return sendStatus(ctx, fiber.StatusNoContent)
}

// SignOutAll завершает все сессии пользователя.
func (h *AuthHandler) SignOutAll(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerSignOutAll)

	if err := h.identity.SignOutAll(requestCtx, middleware.UserID(ctx)); err != nil {
		log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}

	h.clearSessionCookies(ctx)
	return sendStatus(ctx, fiber.StatusNoContent)
}

// CurrentUser возвращает пользователя текущей сессии.
func (h *AuthHandler) CurrentUser(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerCurrentUser)

	user, err := h.identity.GetCurrentUser(requestCtx, middleware.AccessToken(ctx))
	if err != nil {
		log.Debug(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, fiber.StatusOK, user)
}

// OAuthRedirect перенаправляет на страницу согласия провайдера.
func (h *AuthHandler) OAuthRedirect(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	provider := ctx.Params("provider")
	log := logger.Log(requestCtx).With(zap.String("provider", provider))
	log.Debug(requestCtx, LogHandlerOAuth)

	authURL, state, err := h.identity.SignInWithOAuth(requestCtx, provider)
	if err != nil {
		log.Debug(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return handleError(ctx, err)
	}

	h.setCookie(ctx, OAuthStateCookie, state, time.Now().Add(oauthCookieTTL))
	h.setCookie(ctx, OAuthProviderCookie, provider, time.Now().Add(oauthCookieTTL))
	return ctx.Redirect().Status(fiber.StatusFound).To(authURL)
}

// OAuthCallback завершает OAuth-поток. Любая ошибка ведет на страницу входа с error=auth_callback_error.
func (h *AuthHandler) OAuthCallback(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Debug(requestCtx, LogHandlerCallback)

	state := ctx.Cookies(OAuthStateCookie)
	provider := ctx.Cookies(OAuthProviderCookie)
	h.clearCookie(ctx, OAuthStateCookie)
	h.clearCookie(ctx, OAuthProviderCookie)

	if providerErr := ctx.Query("error"); providerErr != "" {
		log.Warn(requestCtx, ErrorCallbackFailed, zap.String("provider_error", providerErr))
		return ctx.Redirect().Status(fiber.StatusFound).To(h.config.FailureRedirect)
	}
	if state == "" || state != ctx.Query("state") {
		log.Warn(requestCtx, ErrorCallbackFailed, zap.String("reason", "state mismatch"))
		return ctx.Redirect().Status(fiber.StatusFound).To(h.config.FailureRedirect)
	}

	session, err := h.identity.ExchangeCodeForSession(requestCtx, provider, ctx.Query("code"))
	if err != nil {
		log.Warn(requestCtx, ErrorCallbackFailed, zap.Error(err))
		return ctx.Redirect().Status(fiber.StatusFound).To(h.config.FailureRedirect)
	}

	h.setSessionCookies(ctx, session)
	return ctx.Redirect().Status(fiber.StatusFound).To(h.config.SuccessRedirect)
}

func (h *AuthHandler) setSessionCookies(ctx fiber.Ctx, session *entities.Session) {
	h.setCookie(ctx, middleware.AccessTokenCookie, session.AccessToken, session.ExpiresAt)
	h.setCookie(ctx, middleware.RefreshTokenCookie, session.RefreshToken, time.Now().Add(h.config.RefreshTTL))
}

func (h *AuthHandler) clearSessionCookies(ctx fiber.Ctx) {
	h.clearCookie(ctx, middleware.AccessTokenCookie)
	h.clearCookie(ctx, middleware.RefreshTokenCookie)
}

func (h *AuthHandler) setCookie(ctx fiber.Ctx, name, value string, expires time.Time) {
	ctx.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   h.config.SecureCookies,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(ctx fiber.Ctx, name string) {
	h.setCookie(ctx, name, "", time.Unix(0, 0))
}
