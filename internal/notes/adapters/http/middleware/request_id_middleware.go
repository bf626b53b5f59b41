// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"github.com/gofiber/fiber/v3"

	"notewise/pkg/logger"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// NewRequestIDMiddleware кладет в контекст запроса logger и request_id.
// Идентификатор берется из заголовка или генерируется.
func NewRequestIDMiddleware(log *logger.Logger) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestID := ctx.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}

		requestCtx := logger.NewRequestIDContext(ctx.Context(), requestID)
		requestCtx = logger.NewContext(requestCtx, log)
		ctx.SetContext(requestCtx)
		ctx.Set(HeaderRequestID, requestID)

		return ctx.Next()
	}
}
