// Package grpc содержит gRPC сервер проверки состояния сервиса.
package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"notewise/internal/notes/config"
	"notewise/pkg/logger"
)

// Server представляет gRPC сервер.
type Server struct {
	server   *grpc.Server
	health   *health.Server
	address  string
	listener net.Listener
}

// New создает gRPC сервер с сервисом health и, при необходимости, reflection.
func New(cfg *config.GRPCConfig, log *logger.Logger) *Server {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(loggerInterceptor(log)))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	if cfg.Reflection {
		reflection.Register(server)
	}

	return &Server{
		server:  server,
		health:  healthServer,
		address: cfg.GetAddress(),
	}
}

// RegisterService регистрирует дополнительные gRPC сервисы.
func (s *Server) RegisterService(registerFunc func(*grpc.Server)) {
	registerFunc(s.server)
}

// Health возвращает сервер статусов.
func (s *Server) Health() *health.Server {
	return s.health
}

// Start запускает gRPC сервер.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Log(ctx)

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	log.Info(ctx, "gRPC server started", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.server.Serve(listener); err != nil {
			log.Error(ctx, "failed to serve gRPC", zap.Error(err))
		}
	}()

	return nil
}

// Addr возвращает фактический адрес после Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}

// Stop останавливает gRPC сервер.
func (s *Server) Stop(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, "stopping gRPC server")

	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("gRPC graceful stop: %w", ctx.Err())
	}
}

func loggerInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.NewRequestIDContext(ctx, logger.GenerateRequestID())
		ctx = logger.NewContext(ctx, log)

		resp, err := handler(ctx, req)
		if err != nil {
			log.Debug(ctx, "gRPC call failed", zap.String("method", info.FullMethod), zap.Error(err))
		}
		return resp, err
	}
}
