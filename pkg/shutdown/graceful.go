// Package shutdown предоставляет функциональность для корректного завершения приложения
// путем ожидания сигналов SIGINT и SIGTERM и выполнения хуков закрытия.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// Hook - именованная функция освобождения ресурса.
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// ErrTimeout возвращается, если хуки не уложились в отведенное время.
var ErrTimeout = errors.New("shutdown timeout exceeded")

// Wait блокирует выполнение до получения SIGINT/SIGTERM или отмены ctx,
// затем выполняет все хуки в рамках заданного timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	logger.Log(ctx).Info(ctx, "shutdown signal received", zap.Duration("timeout", timeout))

	return Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run параллельно выполняет хуки и собирает их ошибки.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		wgp  sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range hooks {
		wgp.Add(1)
		go func(h Hook) {
			defer wgp.Done()
			if err := h.Fn(ctx); err != nil {
				logger.Log(ctx).Warn(ctx, "shutdown hook failed", zap.String("hook", h.Name), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				mu.Unlock()
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wgp.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ErrTimeout
	}

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}
