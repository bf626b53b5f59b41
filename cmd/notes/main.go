// Package main реализует точку входа службы заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"notewise/internal/notes/adapters/cache"
	"notewise/internal/notes/adapters/events"
	"notewise/internal/notes/adapters/grpc"
	notehttp "notewise/internal/notes/adapters/http"
	"notewise/internal/notes/adapters/http/handlers"
	"notewise/internal/notes/adapters/oauth"
	"notewise/internal/notes/adapters/postgres"
	"notewise/internal/notes/adapters/services"
	"notewise/internal/notes/adapters/summarizer"
	"notewise/internal/notes/app"
	"notewise/internal/notes/config"
	"notewise/internal/notes/db"
	cachePorts "notewise/internal/notes/ports/cache"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/db/redis"
	"notewise/pkg/logger"
	"notewise/pkg/shutdown"
	"notewise/pkg/tracing"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTES_LOGGER_MODE"
	EnvLoggerLevel = "NOTES_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDB               = "failed to initialize database"
	ErrInitTracing          = "failed to initialize tracing"
	ErrInitCache            = "failed to initialize notes cache"
	ErrSubscribeSessions    = "failed to subscribe to session events"
	ErrStartGRPC            = "failed to start gRPC server"
	ErrStartHTTP            = "failed to start HTTP server"
	ErrShutdown             = "graceful shutdown finished with errors"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "note service started"
	LogServiceShutdownDone = "note service shutdown complete"
	LogInitRepo            = "initializing repositories"
	LogInitCache           = "initializing notes cache"
	LogInitServices        = "initializing services"
	LogInitUseCases        = "initializing use cases"
	LogGoogleDisabled      = "google sign-in is not configured"
	LogStartingGRPC        = "starting gRPC server"
	LogStartingHTTP        = "starting HTTP server"
)

// Интервалы фоновых задач.
const (
	tokenCleanupInterval = time.Hour
	healthCheckInterval  = 10 * time.Second
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	ctx := logger.NewRequestIDContext(context.Background(), "")
	ctx = logger.NewContext(ctx, log)

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx, config.DefaultEnvFiles...)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		// Каждый захваченный ресурс сразу регистрирует освобождение; ранний выход и штатная
		// остановка проходят через одни и те же хуки.
		var resources shutdown.Stack
		release := func() {
			if err := resources.Close(context.WithoutCancel(ctx), cfg.Shutdown.GetTimeout()); err != nil {
				log.Error(ctx, ErrShutdown, zap.Error(err))
				exitCode = 1
			}
		}
		fail := func(msg string, err error) {
			log.Error(ctx, msg, zap.Error(err))
			exitCode = 1
			release()
		}

		database, err := db.New(ctx, &cfg.Postgres)
		if err != nil {
			fail(ErrInitDB, err)
			return
		}
		resources.Push("database", database.Close)

		log.Info(ctx, LogInitRepo)
		repoFactory := postgres.NewRepositoryFactory(database.Pool())

		finalLogger, err := logger.New(cfg.Logging.LoggerConfig(), repoFactory.LogRepository())
		if err != nil {
			fail(ErrInitLoggerWithConfig, err)
			return
		}
		log = finalLogger
		ctx = logger.NewContext(ctx, log)

		tracer, err := tracing.New(ctx, tracing.Config{
			ServiceName: config.ServiceName,
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			fail(ErrInitTracing, err)
			return
		}
		resources.Push("tracing", tracer.Shutdown)

		log.Info(ctx, LogInitCache, zap.String("backend", cfg.Cache.Backend))
		noteCache, err := newNoteCache(ctx, &cfg.Cache)
		if err != nil {
			fail(ErrInitCache, err)
			return
		}
		resources.Push("notes cache", func(context.Context) error { return noteCache.Close() })

		log.Info(ctx, LogInitServices)
		serviceFactory := services.NewServiceFactory(
			cfg.JWT.SecretKey,
			cfg.JWT.GetAccessTokenTTL(),
			cfg.JWT.GetRefreshTokenTTL(),
			cfg.JWT.BCryptCost,
		)
		gateway := summarizer.New(summarizer.Config{
			APIURL:         cfg.Summarizer.APIURL,
			APIKey:         cfg.Summarizer.APIKey,
			Model:          cfg.Summarizer.Model,
			MaxTokens:      cfg.Summarizer.MaxTokens,
			Timeout:        cfg.Summarizer.Timeout,
			MaxRetries:     cfg.Summarizer.MaxRetries,
			InitialBackoff: cfg.Summarizer.InitialBackoff,
			MaxBackoff:     cfg.Summarizer.MaxBackoff,
		})
		bus := events.NewBus(log)
		resources.Push("session events", func(context.Context) error { return bus.Close() })

		var providers []svc.OAuthProvider
		if cfg.Identity.GoogleEnabled() {
			providers = append(providers, oauth.NewGoogle(
				cfg.Identity.GoogleClientID,
				cfg.Identity.GoogleClientSecret,
				cfg.Identity.CallbackURL(),
			))
		} else {
			log.Info(ctx, LogGoogleDisabled)
		}

		log.Info(ctx, LogInitUseCases)
		noteUseCase := app.NewNoteUseCase(
			repoFactory.NoteRepository(),
			noteCache,
			gateway,
			tracer.Tracer(config.ServiceName),
		)
		identityUseCase := app.NewIdentityUseCase(
			repoFactory.UserRepository(),
			repoFactory.TokenRepository(),
			serviceFactory.PasswordService(),
			serviceFactory.TokenService(),
			bus,
			providers...,
		)

		bgCtx, cancelBackground := context.WithCancel(ctx)
		resources.Push("background tasks", func(context.Context) error {
			cancelBackground()
			return nil
		})

		subscription, err := app.WatchSessions(bgCtx, identityUseCase, noteCache)
		if err != nil {
			fail(ErrSubscribeSessions, err)
			return
		}
		resources.Push("session subscription", func(context.Context) error {
			subscription.Unsubscribe()
			return nil
		})
		go identityUseCase.RunTokenCleanup(bgCtx, tokenCleanupInterval)

		grpcServer := grpc.New(&cfg.GRPC, log)
		log.Info(ctx, LogStartingGRPC)
		if err := grpcServer.Start(ctx); err != nil {
			fail(ErrStartGRPC, err)
			return
		}
		resources.Push("grpc", grpcServer.Stop)
		go grpc.WatchDependency(bgCtx, grpcServer.Health(), database, healthCheckInterval)

		httpServer := notehttp.New(&cfg.HTTP, log, notehttp.Deps{
			Notes:    noteUseCase,
			Identity: identityUseCase,
			Auth: handlers.AuthConfig{
				SecureCookies:   cfg.Identity.SecureCookies,
				RefreshTTL:      cfg.JWT.GetRefreshTokenTTL(),
				SuccessRedirect: cfg.Identity.SuccessRedirect,
				FailureRedirect: cfg.Identity.FailureRedirect,
			},
			CallbackPath: cfg.Identity.CallbackPath,
			Health:       database,
		})
		log.Info(ctx, LogStartingHTTP)
		if err := httpServer.Start(ctx); err != nil {
			fail(ErrStartHTTP, err)
			return
		}
		resources.Push("http", httpServer.Stop)

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("http_address", httpServer.Addr()),
			zap.String("grpc_address", grpcServer.Addr()),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		// Хуки снимаются в обратном порядке: сначала входы, последней база данных.
		if err := shutdown.Wait(ctx, cfg.Shutdown.GetTimeout()); err != nil {
			log.Error(ctx, ErrShutdown, zap.Error(err))
			exitCode = 1
		}
		release()

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// newNoteCache выбирает реализацию кэша по конфигурации.
func newNoteCache(ctx context.Context, cfg *config.CacheConfig) (cachePorts.NoteCache, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return cache.NewRedisCache(client.RawClient(), cfg.ListTTL, cfg.SearchTTL), nil
	case "", config.CacheBackendMemory:
		return cache.NewMemoryCache(cfg.ListTTL, cfg.SearchTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
