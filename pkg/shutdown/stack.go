package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// Stack освобождает ресурсы в порядке, обратном их захвату.
// Используется и при штатной остановке, и при ошибке на середине запуска.
type Stack struct {
	mu    sync.Mutex
	hooks []Hook
}

// Push регистрирует хук освобождения только что захваченного ресурса.
func (s *Stack) Push(name string, fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, Hook{Name: name, Fn: fn})
}

// Close последовательно выполняет хуки от последнего к первому в пределах timeout.
// Ошибка хука не останавливает остальные. Повторный вызов ничего не делает.
func (s *Stack) Close(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			errs = append(errs, ErrTimeout)
			break
		}
		h := hooks[i]
		if err := h.Fn(ctx); err != nil {
			logger.Log(ctx).Warn(ctx, "shutdown hook failed", zap.String("hook", h.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
		}
	}
	return errors.Join(errs...)
}
