package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/domain/services"
	"notewise/internal/notes/ports/repositories"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/logger"
)

const (
	methodSignUp          = "IdentityUseCase.SignUp"
	methodSignIn          = "IdentityUseCase.SignIn"
	methodSignInWithOAuth = "IdentityUseCase.SignInWithOAuth"
	methodExchangeCode    = "IdentityUseCase.ExchangeCodeForSession"
	methodSignOut         = "IdentityUseCase.SignOut"
	methodSignOutAll      = "IdentityUseCase.SignOutAll"
	methodRefreshSession  = "IdentityUseCase.RefreshSession"
	methodGetCurrentUser  = "IdentityUseCase.GetCurrentUser"
	methodNewSession      = "IdentityUseCase.newSession"
	methodCleanupTokens   = "IdentityUseCase.CleanupExpiredTokens"

	msgStartRegistration   = "starting user registration"
	msgInvalidEmailFormat  = "invalid email format"
	msgInvalidPassword     = "invalid password"
	msgEmailExists         = "user with this email already exists"
	msgUserRegistered      = "user registered successfully"
	msgLoginAttempt        = "login attempt"
	msgLoginNonExistent    = "login attempt with non-existent email"
	msgInvalidPasswordAuth = "invalid password provided"
	msgUserLoggedIn        = "user logged in successfully"
	msgInvalidRefreshToken = "invalid refresh token"
	msgRevokedTokenAttempt = "attempt to use revoked token"
	msgExpiredTokenAttempt = "attempt to use expired token"
	msgTokensRefreshed     = "tokens refreshed successfully"
	msgUserLoggedOut       = "user logged out successfully"
	msgOAuthUserCreated    = "oauth user created"
	msgOAuthSignedIn       = "oauth sign in completed"
	msgPublishFailed       = "failed to publish session event"
	msgTokensCleaned       = "expired refresh tokens removed"

	msgErrCheckExistingUser = "failed to check existing user"
	msgErrHashPassword      = "failed to hash password"
	msgErrCreateUser        = "failed to create user"
	msgErrFindingUser       = "error finding user"
	msgErrVerifyingPassword = "error verifying password"
	msgErrRevokingToken     = "failed to revoke refresh token"
	msgErrOAuthExchange     = "oauth code exchange failed"
	msgErrUnverifiedEmail   = "oauth profile email is not verified"
	msgErrCleanupTokens     = "failed to cleanup expired tokens"
	msgErrGenerateAccess    = "failed to generate access token"
	msgErrGenerateRefresh   = "failed to generate refresh token"
	msgErrStoreRefresh      = "failed to store refresh token"

	errCtxValidatingEmail        = "validating email"
	errCtxValidatingPassword     = "validating password"
	errCtxCheckingUser           = "checking existing user"
	errCtxEmailRegistered        = "email already registered"
	errCtxHashingPassword        = "hashing password"
	errCtxCreatingUser           = "creating user"
	errCtxGeneratingSession      = "generating session"
	errCtxInvalidCredentials     = "invalid credentials"
	errCtxFindingUser            = "finding user"
	errCtxVerifyingPassword      = "verifying password"
	errCtxFindingRefreshToken    = "finding refresh token"
	errCtxTokenRevoked           = "token revoked"
	errCtxTokenExpired           = "token expired"
	errCtxRevokingToken          = "revoking token"
	errCtxValidatingAccessToken  = "validating access token"
	errCtxExchangingCode         = "exchanging authorization code"
	errCtxGeneratingState        = "generating oauth state"
	errCtxGeneratingAccessToken  = "generating access token"
	errCtxGeneratingRefreshToken = "generating refresh token"
	errCtxStoringRefreshToken    = "storing refresh token"
	errCtxCleanupTokens          = "cleaning up expired tokens"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	letterRegex = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex  = regexp.MustCompile(`\d`)
)

// IdentityUseCase реализует шлюз идентификации и сессий.
type IdentityUseCase struct {
	userRepo    repositories.UserRepository
	tokenRepo   repositories.TokenRepository
	passwordSvc svc.PasswordService
	tokenSvc    svc.TokenService
	providers   map[string]svc.OAuthProvider
	events      svc.SessionEventBus
	now         func() time.Time
}

// NewIdentityUseCase создает шлюз идентификации.
func NewIdentityUseCase(
	userRepo repositories.UserRepository,
	tokenRepo repositories.TokenRepository,
	passwordSvc svc.PasswordService,
	tokenSvc svc.TokenService,
	events svc.SessionEventBus,
	providers ...svc.OAuthProvider,
) *IdentityUseCase {
	byName := make(map[string]svc.OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &IdentityUseCase{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		providers:   byName,
		events:      events,
		now:         time.Now,
	}
}

// Authenticate проверяет access токен и возвращает ID пользователя без обращения к хранилищу.
func (a *IdentityUseCase) Authenticate(ctx context.Context, accessToken string) (string, error) {
	userID, err := a.tokenSvc.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", errCtxValidatingAccessToken, ErrUnauthorized, err)
	}
	return userID, nil
}

// GetCurrentUser возвращает пользователя по access токену.
func (a *IdentityUseCase) GetCurrentUser(ctx context.Context, accessToken string) (*entities.User, error) {
	userID, err := a.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := a.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", errCtxFindingUser, ErrUnauthorized, err)
		}
		logger.Log(ctx).Error(ctx, msgErrFindingUser, zap.String("method", methodGetCurrentUser), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}
	return user, nil
}

// SignUp регистрирует пользователя по email и паролю и открывает сессию.
func (a *IdentityUseCase) SignUp(ctx context.Context, email, password, displayName string) (*entities.Session, error) {
	email = normalizeEmail(email)
	log := logger.Log(ctx).With(zap.String("method", methodSignUp), zap.String("email", email))
	log.Debug(ctx, msgStartRegistration)

	if err := validateEmail(email); err != nil {
		log.Debug(ctx, msgInvalidEmailFormat, zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidatingEmail, ErrInvalidParams, err)
	}
	if err := validatePassword(password); err != nil {
		log.Debug(ctx, msgInvalidPassword, zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidatingPassword, ErrInvalidParams, err)
	}

	existingUser, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		log.Error(ctx, msgErrCheckExistingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxCheckingUser, err)
	}
	if existingUser != nil {
		log.Debug(ctx, msgEmailExists)
		return nil, fmt.Errorf("%s: %w", errCtxEmailRegistered, services.ErrEmailAlreadyExists)
	}

	hashedPassword, err := a.passwordSvc.Hash(ctx, password)
	if err != nil {
		log.Error(ctx, msgErrHashPassword, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	if strings.TrimSpace(displayName) == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	createdUser, err := a.userRepo.Create(ctx, &entities.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		Provider:     entities.ProviderEmail,
	})
	if err != nil {
		log.Error(ctx, msgErrCreateUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	log.Info(ctx, msgUserRegistered, zap.String("user_id", createdUser.ID))
	return a.openSession(ctx, createdUser, entities.EventSignedIn)
}

// SignIn аутентифицирует пользователя по email и паролю.
func (a *IdentityUseCase) SignIn(ctx context.Context, email, password string) (*entities.Session, error) {
	email = normalizeEmail(email)
	log := logger.Log(ctx).With(zap.String("method", methodSignIn), zap.String("email", email))
	log.Debug(ctx, msgLoginAttempt)

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, msgLoginNonExistent)
			return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, services.ErrInvalidCredentials)
		}
		log.Error(ctx, msgErrFindingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	if password == "" {
		return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, services.ErrInvalidCredentials)
	}
	valid, err := a.passwordSvc.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		log.Error(ctx, msgErrVerifyingPassword, zap.Error(err), zap.String("user_id", user.ID))
		return nil, fmt.Errorf("%s: %w", errCtxVerifyingPassword, err)
	}
	if !valid {
		log.Debug(ctx, msgInvalidPasswordAuth, zap.String("user_id", user.ID))
		return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, services.ErrInvalidCredentials)
	}

	log.Info(ctx, msgUserLoggedIn, zap.String("user_id", user.ID))
	return a.openSession(ctx, user, entities.EventSignedIn)
}

// SignInWithOAuth возвращает адрес страницы согласия провайдера и state для проверки на callback.
func (a *IdentityUseCase) SignInWithOAuth(ctx context.Context, provider string) (authURL, state string, err error) {
	p, ok := a.providers[provider]
	if !ok {
		logger.Log(ctx).Debug(ctx, "unsupported oauth provider",
			zap.String("method", methodSignInWithOAuth), zap.String("provider", provider))
		return "", "", fmt.Errorf("%w: %s", services.ErrUnsupportedProvider, provider)
	}

	state, err = generateState()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", errCtxGeneratingState, err)
	}
	return p.AuthCodeURL(state), state, nil
}

// ExchangeCodeForSession обменивает код авторизации на сессию, создавая пользователя при первом входе.
func (a *IdentityUseCase) ExchangeCodeForSession(ctx context.Context, provider, code string) (*entities.Session, error) {
	log := logger.Log(ctx).With(zap.String("method", methodExchangeCode), zap.String("provider", provider))

	p, ok := a.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrUnsupportedProvider, provider)
	}
	if code == "" {
		return nil, fmt.Errorf("%s: %w", errCtxExchangingCode, services.ErrEmptyAuthCode)
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		log.Warn(ctx, msgErrOAuthExchange, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxExchangingCode, err)
	}

	// Учетная запись ищется по email, поэтому непроверенный адрес не может ни создать, ни привязать ее.
	if !profile.EmailVerified {
		log.Warn(ctx, msgErrUnverifiedEmail)
		return nil, fmt.Errorf("%s: %w", errCtxExchangingCode, services.ErrUnverifiedEmail)
	}

	email := normalizeEmail(profile.Email)
	user, err := a.userRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		user, err = a.userRepo.Create(ctx, &entities.User{
			Email:       email,
			DisplayName: profile.Name,
			Provider:    profile.Provider,
		})
		if err != nil {
			log.Error(ctx, msgErrCreateUser, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
		}
		log.Info(ctx, msgOAuthUserCreated, zap.String("user_id", user.ID))
	case err != nil:
		log.Error(ctx, msgErrFindingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	log.Info(ctx, msgOAuthSignedIn, zap.String("user_id", user.ID))
	return a.openSession(ctx, user, entities.EventSignedIn)
}

// RefreshSession выдает новую сессию по refresh токену и отзывает старый токен.
func (a *IdentityUseCase) RefreshSession(ctx context.Context, refreshToken string) (*entities.Session, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRefreshSession))

	token, err := a.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		log.Debug(ctx, msgInvalidRefreshToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingRefreshToken, services.ErrInvalidRefreshToken)
	}
	log = log.With(zap.String("user_id", token.UserID))

	if token.IsRevoked {
		log.Debug(ctx, msgRevokedTokenAttempt)
		return nil, fmt.Errorf("%s: %w", errCtxTokenRevoked, services.ErrRevokedRefreshToken)
	}
	if !token.ExpiresAt.After(a.now()) {
		log.Debug(ctx, msgExpiredTokenAttempt)
		return nil, fmt.Errorf("%s: %w", errCtxTokenExpired, services.ErrExpiredRefreshToken)
	}

	user, err := a.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		log.Error(ctx, msgErrFindingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	if err := a.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		log.Error(ctx, msgErrRevokingToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}

	session, err := a.openSession(ctx, user, entities.EventTokenRefreshed)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, msgTokensRefreshed)
	return session, nil
}

// SignOut отзывает refresh токен сессии.
func (a *IdentityUseCase) SignOut(ctx context.Context, refreshToken string) error {
	log := logger.Log(ctx).With(zap.String("method", methodSignOut))

	token, err := a.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxFindingRefreshToken, services.ErrInvalidRefreshToken)
	}
	log = log.With(zap.String("user_id", token.UserID))

	if err := a.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		log.Error(ctx, msgErrRevokingToken, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}

	log.Info(ctx, msgUserLoggedOut)
	a.publish(ctx, entities.SessionEvent{Type: entities.EventSignedOut, UserID: token.UserID})
	return nil
}

// SignOutAll отзывает все refresh токены пользователя.
func (a *IdentityUseCase) SignOutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := a.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		logger.Log(ctx).Error(ctx, msgErrRevokingToken, zap.String("method", methodSignOutAll), zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}
	a.publish(ctx, entities.SessionEvent{Type: entities.EventSignedOut, UserID: userID})
	return nil
}

// Subscribe подписывает handler на события сессии.
func (a *IdentityUseCase) Subscribe(ctx context.Context, handler svc.SessionEventHandler) (svc.Subscription, error) {
	sub, err := a.events.Subscribe(ctx, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribing to session events: %w", err)
	}
	return sub, nil
}

// CleanupExpiredTokens удаляет просроченные refresh токены.
func (a *IdentityUseCase) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	removed, err := a.tokenRepo.CleanupExpiredTokens(ctx)
	if err != nil {
		logger.Log(ctx).Error(ctx, msgErrCleanupTokens, zap.String("method", methodCleanupTokens), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCtxCleanupTokens, err)
	}
	if removed > 0 {
		logger.Log(ctx).Info(ctx, msgTokensCleaned, zap.Int64("count", removed))
	}
	return removed, nil
}

// RunTokenCleanup периодически удаляет просроченные токены до отмены ctx.
func (a *IdentityUseCase) RunTokenCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = a.CleanupExpiredTokens(ctx)
		}
	}
}

func (a *IdentityUseCase) openSession(ctx context.Context, user *entities.User, event entities.SessionEventType) (*entities.Session, error) {
	session, err := a.newSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingSession, err)
	}
	a.publish(ctx, entities.SessionEvent{Type: event, UserID: user.ID, Session: session})
	return session, nil
}

func (a *IdentityUseCase) newSession(ctx context.Context, user *entities.User) (*entities.Session, error) {
	log := logger.Log(ctx).With(zap.String("method", methodNewSession), zap.String("user_id", user.ID))

	accessToken, accessExpires, err := a.tokenSvc.GenerateAccessToken(ctx, user.ID, user.DisplayName)
	if err != nil {
		log.Error(ctx, msgErrGenerateAccess, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingAccessToken, services.ErrTokenGenerationFailed)
	}

	refreshToken, refreshExpires, err := a.tokenSvc.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		log.Error(ctx, msgErrGenerateRefresh, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingRefreshToken, services.ErrTokenGenerationFailed)
	}

	if err := a.tokenRepo.StoreRefreshToken(ctx, &services.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: refreshExpires,
	}); err != nil {
		log.Error(ctx, msgErrStoreRefresh, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxStoringRefreshToken, err)
	}

	return &entities.Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpires,
	}, nil
}

// publish не прерывает операцию: сессия уже выдана.
func (a *IdentityUseCase) publish(ctx context.Context, event entities.SessionEvent) {
	event.OccurredAt = a.now()
	if err := a.events.Publish(ctx, event); err != nil {
		logger.Log(ctx).Warn(ctx, msgPublishFailed, zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || !emailRegex.MatchString(email) {
		return entities.ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < services.MinPasswordLength {
		return entities.ErrPasswordTooShort
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return entities.ErrPasswordTooWeak
	}
	return nil
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
