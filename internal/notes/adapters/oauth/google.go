// Package oauth содержит адаптеры внешних OAuth провайдеров.
package oauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/domain/services"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/logger"
)

// GoogleUserInfoURL - адрес профиля пользователя Google.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Google реализует svc.OAuthProvider для Google.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
}

// GoogleOption настраивает провайдера Google.
type GoogleOption func(*Google)

// WithEndpoint подменяет адреса авторизации и профиля.
func WithEndpoint(endpoint oauth2.Endpoint, userInfoURL string) GoogleOption {
	return func(g *Google) {
		g.config.Endpoint = endpoint
		g.userInfoURL = userInfoURL
	}
}

// NewGoogle создает провайдера Google.
func NewGoogle(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *Google {
	g := &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       googleScopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ svc.OAuthProvider = (*Google)(nil)

// Name возвращает имя провайдера.
func (g *Google) Name() string {
	return entities.ProviderGoogle
}

// AuthCodeURL возвращает адрес страницы согласия.
func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange обменивает код авторизации на профиль пользователя.
func (g *Google) Exchange(ctx context.Context, code string) (*services.OAuthProfile, error) {
	log := logger.Log(ctx).With(zap.String("method", "Google.Exchange"))

	if code == "" {
		return nil, services.ErrEmptyAuthCode
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		log.Warn(ctx, "code exchange failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", services.ErrOAuthExchangeFailed, err)
	}

	var user googleUser
	resp, err := resty.NewWithClient(g.config.Client(ctx, token)).R().
		SetContext(ctx).
		SetResult(&user).
		Get(g.userInfoURL)
	if err != nil {
		log.Warn(ctx, "failed getting user info", zap.Error(err))
		return nil, fmt.Errorf("%w: user info: %w", services.ErrOAuthExchangeFailed, err)
	}
	if resp.StatusCode() != http.StatusOK {
		log.Warn(ctx, "user info returned error status", zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%w: user info status %d", services.ErrOAuthExchangeFailed, resp.StatusCode())
	}
	if user.Email == "" {
		return nil, fmt.Errorf("%w: user info has no email", services.ErrOAuthExchangeFailed)
	}

	log.Debug(ctx, "received google profile", zap.Bool("verified", user.VerifiedEmail))
	return &services.OAuthProfile{
		Provider:      entities.ProviderGoogle,
		Email:         user.Email,
		Name:          user.Name,
		EmailVerified: user.VerifiedEmail,
	}, nil
}
