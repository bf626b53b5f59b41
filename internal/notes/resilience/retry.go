package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// RetryConfig содержит настройки для retry механизма.
type RetryConfig struct {
	// MaxAttempts - максимальное количество попыток, включая первую.
	MaxAttempts int
	// InitialBackoff - начальная задержка между попытками.
	InitialBackoff time.Duration
	// MaxBackoff - максимальная задержка между попытками.
	MaxBackoff time.Duration
	// BackoffFactor - множитель экспоненциального отступа.
	BackoffFactor float64
	// ShouldRetry определяет, нужно ли повторять запрос для данной ошибки.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig возвращает конфигурацию retry механизма по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		ShouldRetry:    defaultShouldRetry,
	}
}

// ErrContextCanceled возвращается, когда контекст отменен во время ожидания перед повторной попыткой.
var ErrContextCanceled = errors.New("context was canceled during retry")

func defaultShouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Константы для логирования.
const (
	LogRetryAttempt     = "retry attempt"
	LogRetrySuccess     = "retry succeeded"
	LogRetryMaxAttempts = "retry max attempts reached"
)

// Retry выполняет функцию с повторными попытками.
type Retry struct {
	name   string
	config RetryConfig
}

// NewRetry создает новый экземпляр retry механизма.
func NewRetry(name string, config RetryConfig) *Retry {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = defaultShouldRetry
	}
	return &Retry{name: name, config: config}
}

// Execute выполняет функцию с автоматическими повторными попытками.
func (r *Retry) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	log := logger.Log(ctx).With(zap.String("retry", r.name))

	backoff := r.config.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := operation(ctx)
		if err == nil || !r.config.ShouldRetry(err) {
			if attempt > 1 && err == nil {
				log.Info(ctx, LogRetrySuccess, zap.Int("attempts", attempt))
			}
			return err
		}

		if attempt >= r.config.MaxAttempts {
			log.Warn(ctx, LogRetryMaxAttempts, zap.Int("attempts", attempt), zap.Error(err))
			return err
		}

		log.Info(ctx, LogRetryAttempt,
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffFactor)
		if r.config.MaxBackoff > 0 && backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}
}
