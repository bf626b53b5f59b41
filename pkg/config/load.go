// Package config предоставляет функциональность для загрузки конфигурации из переменных окружения.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"notewise/pkg/logger"
)

const (
	msgLoadingConfiguration = "loading configuration"
	msgConfigurationLoaded  = "configuration loaded successfully"
	msgEnvFileLoaded        = "env file loaded"

	errFailedLoadEnvFile       = "failed to load env file"
	errFailedLoadConfiguration = "failed to load configuration"

	attrService = "service"
	attrPath    = "path"
)

// Load читает .env файлы (если они есть) и заполняет T из переменных окружения
// по тегам cleanenv. Уже заданные переменные окружения не перезаписываются.
func Load[T any](ctx context.Context, serviceName string, envFiles ...string) (*T, error) {
	log := logger.Log(ctx).With(zap.String(attrService, serviceName))

	log.Info(ctx, msgLoadingConfiguration)

	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			log.Error(ctx, errFailedLoadEnvFile, zap.String(attrPath, path), zap.Error(err))
			return nil, fmt.Errorf("%s %s: %w", errFailedLoadEnvFile, path, err)
		}
		log.Debug(ctx, msgEnvFileLoaded, zap.String(attrPath, path))
	}

	var cfg T
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Error(ctx, errFailedLoadConfiguration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded)
	return &cfg, nil
}
