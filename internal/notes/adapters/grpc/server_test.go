package grpc_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcAdapter "notewise/internal/notes/adapters/grpc"
	"notewise/internal/notes/config"
	"notewise/pkg/logger"
)

type fakePinger struct {
	healthy atomic.Bool
}

func (p *fakePinger) Ping(context.Context) error {
	if p.healthy.Load() {
		return nil
	}
	return errors.New("database is down")
}

func startServer(t *testing.T) (*grpcAdapter.Server, healthpb.HealthClient) {
	t.Helper()

	log, err := logger.NewLogger(logger.Development, "error")
	require.NoError(t, err)
	ctx := logger.NewContext(context.Background(), log)

	server := grpcAdapter.New(&config.GRPCConfig{Host: "127.0.0.1", Port: 0, Reflection: true}, log)
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() { _ = server.Stop(ctx) })

	conn, err := grpc.NewClient(server.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return server, healthpb.NewHealthClient(conn)
}

func TestRegisterService(t *testing.T) {
	log, err := logger.NewLogger(logger.Development, "error")
	require.NoError(t, err)
	server := grpcAdapter.New(&config.GRPCConfig{Host: "localhost", Port: 0}, log)

	called := false
	server.RegisterService(func(*grpc.Server) {
		called = true
	})

	assert.True(t, called)
}

func TestHealth_FollowsDependency(t *testing.T) {
	server, client := startServer(t)

	pinger := &fakePinger{}
	pinger.healthy.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go grpcAdapter.WatchDependency(ctx, server.Health(), pinger, 20*time.Millisecond)

	statusOf := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcAdapter.ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	assert.Eventually(t, func() bool {
		return statusOf() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)

	pinger.healthy.Store(false)
	assert.Eventually(t, func() bool {
		return statusOf() == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)
}

func TestStop(t *testing.T) {
	server, _ := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, server.Stop(ctx))
}
