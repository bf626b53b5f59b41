package resilience

import (
	"context"

	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// ServiceResilience объединяет retry и Circuit Breaker для вызовов одного сервиса.
type ServiceResilience struct {
	serviceName    string
	circuitBreaker *CircuitBreaker
	retry          *Retry
}

// NewServiceResilience создает обертку отказоустойчивости для сервиса.
func NewServiceResilience(serviceName string, retry RetryConfig, breaker CircuitBreakerConfig) *ServiceResilience {
	return &ServiceResilience{
		serviceName:    serviceName,
		circuitBreaker: NewCircuitBreaker(serviceName, breaker),
		retry:          NewRetry(serviceName, retry),
	}
}

// Execute выполняет операцию: повторы идут внутри одного разрешения Circuit Breaker.
func (r *ServiceResilience) Execute(ctx context.Context, operationName string, operation func(ctx context.Context) error) error {
	logger.Log(ctx).Debug(ctx, "executing operation with resilience",
		zap.String("service", r.serviceName),
		zap.String("operation", operationName))

	return r.circuitBreaker.Execute(ctx, func() error {
		return r.retry.Execute(ctx, operation)
	})
}

// State возвращает состояние Circuit Breaker сервиса.
func (r *ServiceResilience) State() CircuitState {
	return r.circuitBreaker.State()
}

// ExecuteWithResult выполняет операцию с результатом под защитой ServiceResilience.
func ExecuteWithResult[T any](
	ctx context.Context,
	r *ServiceResilience,
	operationName string,
	operation func(ctx context.Context) (T, error),
) (T, error) {
	var result T
	err := r.Execute(ctx, operationName, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
