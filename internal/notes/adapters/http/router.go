// Package http содержит HTTP сервер сервиса заметок.
package http

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"notewise/internal/notes/adapters/http/handlers"
	"notewise/internal/notes/adapters/http/middleware"
	"notewise/internal/notes/ports/api"
	"notewise/pkg/logger"
)

// Pinger проверяет доступность зависимости для /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps содержит зависимости маршрутов.
type Deps struct {
	Notes        api.NoteService
	Identity     api.IdentityService
	Auth         handlers.AuthConfig
	CallbackPath string
	Health       Pinger
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, log *logger.Logger, deps Deps) {
	notesHandler := handlers.NewNotesHandler(deps.Notes)
	summarizeHandler := handlers.NewSummarizeHandler(deps.Notes)
	authHandler := handlers.NewAuthHandler(deps.Identity, deps.Auth)

	// Middleware для всех запросов.
	app.Use(middleware.NewRequestIDMiddleware(log))
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	app.Get("/healthz", healthHandler(deps.Health))
	app.Post("/api/summarize", summarizeHandler.Summarize)

	callbackPath := deps.CallbackPath
	if callbackPath == "" {
		callbackPath = "/auth/callback"
	}
	app.Get(callbackPath, authHandler.OAuthCallback)

	requireAuth := middleware.NewAuthMiddleware(deps.Identity)

	// API версии 1.
	apiV1 := app.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/signup", authHandler.SignUp)
	authRoutes.Post("/signin", authHandler.SignIn)
	authRoutes.Post("/refresh", authHandler.RefreshSession)
	authRoutes.Post("/signout", authHandler.SignOut)
	authRoutes.Get("/oauth/:provider", authHandler.OAuthRedirect)
	authRoutes.Post("/signout/all", authHandler.SignOutAll, requireAuth)
	authRoutes.Get("/user", authHandler.CurrentUser, requireAuth)

	notesRoutes := apiV1.Group("/notes", requireAuth)
	notesRoutes.Get("/", notesHandler.ListNotes)
	notesRoutes.Get("/search", notesHandler.SearchNotes)
	notesRoutes.Get("/status", notesHandler.Status)
	notesRoutes.Post("/", notesHandler.CreateNote)
	notesRoutes.Get("/:note_id", notesHandler.GetNote)
	notesRoutes.Patch("/:note_id", notesHandler.UpdateNote)
	notesRoutes.Put("/:note_id", notesHandler.UpdateNote)
	notesRoutes.Delete("/:note_id", notesHandler.DeleteNote)
	notesRoutes.Post("/:note_id/summary", notesHandler.SummarizeNote)
	notesRoutes.Delete("/:note_id/summary", notesHandler.DeleteSummary)
	notesRoutes.Post("/:note_id/summary/restore", notesHandler.RestoreSummary)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}

func healthHandler(pinger Pinger) fiber.Handler {
	return func(c fiber.Ctx) error {
		if pinger != nil {
			if err := pinger.Ping(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
