// Package handlers содержит HTTP обработчики сервиса заметок и шлюза идентификации.
package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"notewise/internal/notes/adapters/http/dto"
	"notewise/internal/notes/app"
	"notewise/internal/notes/domain/services"
)

// Тексты ответов с ошибками.
const (
	ErrMsgInvalidRequestBody  = "invalid request body"
	ErrMsgInvalidNoteID       = "invalid note id"
	ErrMsgInvalidParams       = "invalid parameters"
	ErrMsgUnauthorized        = "unauthorized"
	ErrMsgInvalidCredentials  = "invalid email or password"
	ErrMsgUnverifiedEmail     = "email is not verified by the provider"
	ErrMsgInvalidRefreshToken = "invalid refresh token" // #nosec G101 - not a credential
	ErrMsgNoteNotFound        = "note not found"
	ErrMsgEmailExists         = "user with this email already exists"
	ErrMsgUnsupportedProvider = "unsupported oauth provider"
	ErrMsgInProgress          = "summarization already in progress"
	ErrMsgNoSummary           = "note has no stored summary"
	ErrMsgSummarizeFailed     = "Failed to summarize text"
	ErrMsgInternal            = "Internal server error"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// Порядок важен: первое совпадение определяет ответ.
var errorMappings = []errorMapping{
	{target: app.ErrInvalidParams, status: fiber.StatusBadRequest, message: ErrMsgInvalidParams},
	{target: services.ErrUnsupportedProvider, status: fiber.StatusBadRequest, message: ErrMsgUnsupportedProvider},
	{target: services.ErrInvalidCredentials, status: fiber.StatusUnauthorized, message: ErrMsgInvalidCredentials},
	{target: services.ErrUnverifiedEmail, status: fiber.StatusUnauthorized, message: ErrMsgUnverifiedEmail},
	{target: services.ErrInvalidRefreshToken, status: fiber.StatusUnauthorized, message: ErrMsgInvalidRefreshToken},
	{target: services.ErrRevokedRefreshToken, status: fiber.StatusUnauthorized, message: ErrMsgInvalidRefreshToken},
	{target: services.ErrExpiredRefreshToken, status: fiber.StatusUnauthorized, message: ErrMsgInvalidRefreshToken},
	{target: app.ErrUnauthorized, status: fiber.StatusUnauthorized, message: ErrMsgUnauthorized},
	{target: app.ErrNotFound, status: fiber.StatusNotFound, message: ErrMsgNoteNotFound},
	{target: services.ErrEmailAlreadyExists, status: fiber.StatusConflict, message: ErrMsgEmailExists},
	{target: app.ErrSummarizeInProgress, status: fiber.StatusConflict, message: ErrMsgInProgress},
	{target: app.ErrNoSummary, status: fiber.StatusConflict, message: ErrMsgNoSummary},
	{target: app.ErrSummarizationFailed, status: fiber.StatusInternalServerError, message: ErrMsgSummarizeFailed},
}

// handleError переводит ошибку бизнес-логики в HTTP-ответ.
func handleError(ctx fiber.Ctx, err error) error {
	status, message := fiber.StatusInternalServerError, ErrMsgInternal

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status, message = fiberErr.Code, fiberErr.Message
	} else {
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				status, message = m.status, m.message
				break
			}
		}
	}

	return writeError(ctx, status, message)
}

func writeError(ctx fiber.Ctx, status int, message string) error {
	if err := ctx.Status(status).JSON(dto.ErrorResponse{Error: message}); err != nil {
		return fmt.Errorf("error sending %d response: %w", status, err)
	}
	return nil
}

// ErrorHandler - обработчик ошибок fiber для ошибок, не обработанных в хендлерах.
func ErrorHandler(ctx fiber.Ctx, err error) error {
	return handleError(ctx, err)
}
