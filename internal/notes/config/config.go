// Package config содержит конфигурацию сервиса заметок.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "notewise/pkg/config"
	"notewise/pkg/logger"
)

// ServiceName - имя сервиса в логах и трассировке.
const ServiceName = "notewise"

// Константы сообщений конфигурации.
const (
	LogConfigSummary    = "notes service configuration"
	ErrFailedLoadConfig = "failed to load notes configuration"
)

// DefaultEnvFiles - файлы окружения, которые читаются при наличии.
var DefaultEnvFiles = []string{".env", "deploy/.env"}

// Config представляет полную конфигурацию сервиса.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
	Shutdown   ShutdownConfig   `yaml:"shutdown"`
	JWT        JWTConfig        `yaml:"jwt"`
	Identity   IdentityConfig   `yaml:"identity"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// Load загружает конфигурацию. Отсутствие обязательных параметров - ошибка запуска.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, envFiles...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	logger.Log(ctx).Info(ctx, LogConfigSummary,
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("grpc_address", cfg.GRPC.GetAddress()),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_sink", cfg.Logging.Sink),
		zap.String("identity_base_url", cfg.Identity.BaseURL),
		zap.String("summarizer_model", cfg.Summarizer.Model),
		zap.Bool("tracing_enabled", cfg.Tracing.Enabled))

	return cfg, nil
}
