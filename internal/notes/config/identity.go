package config

import "strings"

// IdentityConfig содержит настройки шлюза идентификации.
type IdentityConfig struct {
	BaseURL            string `yaml:"base_url" env:"NOTES_IDENTITY_BASE_URL" env-required:"true"`
	CallbackPath       string `yaml:"callback_path" env:"NOTES_IDENTITY_CALLBACK_PATH" env-default:"/auth/callback"`
	SuccessRedirect    string `yaml:"success_redirect" env:"NOTES_IDENTITY_SUCCESS_REDIRECT" env-default:"/dashboard"`
	FailureRedirect    string `yaml:"failure_redirect" env:"NOTES_IDENTITY_FAILURE_REDIRECT" env-default:"/auth/login?error=auth_callback_error"`
	GoogleClientID     string `yaml:"google_client_id" env:"NOTES_OAUTH_GOOGLE_CLIENT_ID" env-default:""`
	GoogleClientSecret string `yaml:"google_client_secret" env:"NOTES_OAUTH_GOOGLE_CLIENT_SECRET" env-default:""`
	SecureCookies      bool   `yaml:"secure_cookies" env:"NOTES_IDENTITY_SECURE_COOKIES" env-default:"false"`
}

// CallbackURL возвращает полный адрес возврата OAuth.
func (c *IdentityConfig) CallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.CallbackPath
}

// GoogleEnabled сообщает, настроен ли вход через Google.
func (c *IdentityConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
