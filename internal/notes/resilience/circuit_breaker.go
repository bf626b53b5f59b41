// Package resilience содержит механизмы обеспечения отказоустойчивости внешних вызовов.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// CircuitState представляет состояние Circuit Breaker.
type CircuitState int

// Состояния Circuit Breaker.
const (
	// StateClosed - нормальное состояние, запросы проходят.
	StateClosed CircuitState = iota
	// StateOpen - состояние отказа, запросы блокируются.
	StateOpen
	// StateHalfOpen - пробные запросы.
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Константы для логирования.
const (
	LogCircuitStateChange = "circuit breaker state changed"
	LogCircuitTrip        = "circuit breaker tripped"
	LogCircuitReset       = "circuit breaker reset"
	LogCircuitReject      = "circuit breaker rejected request"
)

// ErrCircuitOpen возвращается, когда Circuit Breaker находится в открытом состоянии.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig содержит настройки Circuit Breaker.
type CircuitBreakerConfig struct {
	// ErrorThreshold - количество ошибок подряд перед переходом в открытое состояние.
	ErrorThreshold int
	// Timeout - время в открытом состоянии до пробного запроса.
	Timeout time.Duration
	// SuccessThreshold - количество успешных пробных запросов для закрытия.
	SuccessThreshold int
	// IsFailure решает, считать ли ошибку отказом сервиса. По умолчанию любая ошибка.
	IsFailure func(error) bool
}

// DefaultCircuitBreakerConfig возвращает конфигурацию Circuit Breaker по умолчанию.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		ErrorThreshold:   5,
		Timeout:          10 * time.Second,
		SuccessThreshold: 2,
	}
}

// CircuitBreaker реализует паттерн Circuit Breaker.
type CircuitBreaker struct {
	name string
	mu   sync.Mutex
	now  func() time.Time

	state           CircuitState
	config          CircuitBreakerConfig
	failures        int
	successes       int
	lastStateChange time.Time
}

// NewCircuitBreaker создает новый экземпляр Circuit Breaker.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		name:            name,
		now:             time.Now,
		state:           StateClosed,
		config:          config,
		lastStateChange: time.Now(),
	}
}

// Execute выполняет функцию с защитой Circuit Breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.AllowRequest(ctx) {
		return ErrCircuitOpen
	}

	err := fn()
	cb.RecordResult(ctx, err)
	return err
}

// AllowRequest проверяет возможность выполнения запроса.
func (cb *CircuitBreaker) AllowRequest(ctx context.Context) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastStateChange) > cb.config.Timeout {
			cb.setState(ctx, StateHalfOpen)
			return true
		}
		logger.Log(ctx).Info(ctx, LogCircuitReject, zap.String("circuit_breaker", cb.name))
		return false
	default:
		return false
	}
}

// RecordResult записывает результат выполнения функции.
func (cb *CircuitBreaker) RecordResult(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.config.IsFailure(err) {
		cb.onFailure(ctx)
		return
	}
	cb.onSuccess(ctx)
}

func (cb *CircuitBreaker) onFailure(ctx context.Context) {
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.ErrorThreshold {
			cb.trip(ctx)
		}
	case StateHalfOpen:
		cb.trip(ctx)
	}
}

func (cb *CircuitBreaker) onSuccess(ctx context.Context) {
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			logger.Log(ctx).Info(ctx, LogCircuitReset, zap.String("circuit_breaker", cb.name))
			cb.setState(ctx, StateClosed)
		}
	}
}

func (cb *CircuitBreaker) trip(ctx context.Context) {
	logger.Log(ctx).Warn(ctx, LogCircuitTrip,
		zap.String("circuit_breaker", cb.name),
		zap.Int("failures", cb.failures))
	cb.setState(ctx, StateOpen)
}

// setState вызывается под cb.mu.
func (cb *CircuitBreaker) setState(ctx context.Context, state CircuitState) {
	logger.Log(ctx).Info(ctx, LogCircuitStateChange,
		zap.String("circuit_breaker", cb.name),
		zap.Stringer("from", cb.state),
		zap.Stringer("to", state))
	cb.state = state
	cb.lastStateChange = cb.now()
	cb.failures = 0
	cb.successes = 0
}

// State возвращает текущее состояние Circuit Breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
