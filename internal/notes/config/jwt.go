package config

import "time"

// JWTConfig содержит ключ подписи сессий и сроки жизни токенов.
type JWTConfig struct {
	SecretKey       string `yaml:"secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	AccessTokenTTL  string `yaml:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl" env:"JWT_REFRESH_TOKEN_TTL" env-default:"168h"`
	BCryptCost      int    `yaml:"bcrypt_cost" env:"JWT_BCRYPT_COST" env-default:"10"`
}

// GetAccessTokenTTL возвращает продолжительность времени жизни access токена.
func (c *JWTConfig) GetAccessTokenTTL() time.Duration {
	duration, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return duration
}

// GetRefreshTokenTTL возвращает продолжительность времени жизни refresh токена.
func (c *JWTConfig) GetRefreshTokenTTL() time.Duration {
	duration, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return duration
}
