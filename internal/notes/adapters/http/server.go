package http

import (
	"context"
	"fmt"
	"net"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notewise/internal/notes/adapters/http/dto"
	"notewise/internal/notes/adapters/http/handlers"
	"notewise/internal/notes/config"
	"notewise/pkg/logger"
)

// Server представляет HTTP сервер API.
type Server struct {
	app      *fiber.App
	address  string
	listener net.Listener
}

// New создает HTTP сервер с настроенными маршрутами.
func New(cfg *config.HTTPConfig, log *logger.Logger, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:         config.ServiceName,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		BodyLimit:       cfg.BodyLimit,
		ErrorHandler:    handlers.ErrorHandler,
		StructValidator: dto.NewValidator(),
	})
	SetupRouter(app, log, deps)

	return &Server{
		app:     app,
		address: cfg.GetAddress(),
	}
}

// App возвращает экземпляр fiber.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start запускает HTTP сервер в отдельной горутине.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Log(ctx)

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	log.Info(ctx, "HTTP server started", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.app.Listener(listener, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error(ctx, "failed to serve HTTP", zap.Error(err))
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

// Stop останавливает HTTP сервер, дожидаясь активных запросов до отмены ctx.
func (s *Server) Stop(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, "stopping HTTP server")

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}
