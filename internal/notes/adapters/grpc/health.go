package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"notewise/pkg/logger"
)

// ServiceName - имя сервиса в протоколе health.
const ServiceName = "notewise.Notes"

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WatchDependency периодически проверяет зависимость и обновляет статус сервиса до отмены ctx.
func WatchDependency(ctx context.Context, hs *health.Server, pinger Pinger, interval time.Duration) {
	log := logger.Log(ctx).With(zap.String("component", "health"))

	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err := pinger.Ping(pingCtx); err != nil {
			log.Warn(ctx, "dependency is not available", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
