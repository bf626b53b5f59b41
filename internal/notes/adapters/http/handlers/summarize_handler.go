package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notewise/internal/notes/adapters/http/dto"
	"notewise/internal/notes/app"
	"notewise/internal/notes/ports/api"
	"notewise/pkg/logger"
)

// Сообщения публичного контракта POST /api/summarize.
const (
	ErrMsgValidTextRequired = "Valid text is required"

	LogHandlerSummarize = "handling summarize text request"
)

// SummarizeHandler обслуживает публичную суммаризацию произвольного текста.
type SummarizeHandler struct {
	notes api.NoteService
}

// NewSummarizeHandler создает обработчик суммаризации.
func NewSummarizeHandler(notes api.NoteService) *SummarizeHandler {
	return &SummarizeHandler{notes: notes}
}

// Summarize возвращает сводку текста. Отсутствующий, пустой или нестроковый text - 400,
// любой сбой суммаризации - 500.
func (h *SummarizeHandler) Summarize(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "SummarizeHandler.Summarize"))
	log.Debug(requestCtx, LogHandlerSummarize)

	var req dto.SummarizeRequest
	if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgValidTextRequired, zap.Error(err))
		return writeError(ctx, fiber.StatusBadRequest, ErrMsgValidTextRequired)
	}

	summary, err := h.notes.SummarizeText(requestCtx, req.Text)
	if err != nil {
		if errors.Is(err, app.ErrInvalidParams) {
			return writeError(ctx, fiber.StatusBadRequest, ErrMsgValidTextRequired)
		}
		log.Error(requestCtx, ErrMsgSummarizeFailed, zap.Error(err))
		return writeError(ctx, fiber.StatusInternalServerError, ErrMsgSummarizeFailed)
	}

	return sendJSON(ctx, fiber.StatusOK, dto.SummarizeResponse{Summary: summary})
}
