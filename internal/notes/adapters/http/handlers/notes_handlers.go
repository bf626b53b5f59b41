package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notewise/internal/notes/adapters/http/dto"
	"notewise/internal/notes/adapters/http/middleware"
	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/api"
	"notewise/pkg/logger"
)

// Константы сообщений для логирования.
const (
	LogHandlerListNotes      = "handling list notes request"
	LogHandlerSearchNotes    = "handling search notes request"
	LogHandlerCreateNote     = "handling create note request"
	LogHandlerGetNote        = "handling get note request"
	LogHandlerUpdateNote     = "handling update note request"
	LogHandlerDeleteNote     = "handling delete note request"
	LogHandlerSummarizeNote  = "handling summarize note request"
	LogHandlerDeleteSummary  = "handling delete summary request"
	LogHandlerRestoreSummary = "handling restore summary request"
)

// NotesHandler обработчик HTTP-запросов для работы с заметками.
type NotesHandler struct {
	notes api.NoteService
}

// NewNotesHandler создает новый экземпляр обработчика заметок.
func NewNotesHandler(notes api.NoteService) *NotesHandler {
	return &NotesHandler{notes: notes}
}

// ListNotes возвращает заметки пользователя, начиная с самой свежей.
func (h *NotesHandler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.ListNotes"))
	log.Debug(requestCtx, LogHandlerListNotes)

	notes, err := h.notes.List(requestCtx, middleware.UserID(ctx))
	if err != nil {
		log.Error(requestCtx, "failed to list notes", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, fiber.StatusOK, notes)
}

// SearchNotes ищет заметки по параметру q.
func (h *NotesHandler) SearchNotes(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.SearchNotes"))
	log.Debug(requestCtx, LogHandlerSearchNotes)

	notes, err := h.notes.Search(requestCtx, middleware.UserID(ctx), ctx.Query("q"))
	if err != nil {
		log.Error(requestCtx, "failed to search notes", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, fiber.StatusOK, notes)
}

// Status сообщает, идет ли у пользователя суммаризация.
func (h *NotesHandler) Status(ctx fiber.Ctx) error {
	return sendJSON(ctx, fiber.StatusOK, dto.StatusResponse{
		Summarizing: h.notes.Summarizing(middleware.UserID(ctx)),
	})
}

// CreateNote обрабатывает запрос на создание новой заметки.
func (h *NotesHandler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.CreateNote"))
	log.Debug(requestCtx, LogHandlerCreateNote)

	var req dto.CreateNoteRequest
	if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	note, err := h.notes.Create(requestCtx, middleware.UserID(ctx), req.Title, req.Content)
	if err != nil {
		log.Error(requestCtx, "failed to create note", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, fiber.StatusCreated, note)
}

// GetNote обрабатывает запрос на получение заметки по ID.
func (h *NotesHandler) GetNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.GetNote"))
	log.Debug(requestCtx, LogHandlerGetNote)

	note, err := h.notes.Get(requestCtx, middleware.UserID(ctx), ctx.Params("note_id"))
	if err != nil {
		log.Debug(requestCtx, "failed to get note", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, fiber.StatusOK, note)
}

// UpdateNote применяет частичное обновление. Если заметки нет или она чужая, ответ 204.
func (h *NotesHandler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.UpdateNote"))
	log.Debug(requestCtx, LogHandlerUpdateNote)

	var req dto.UpdateNoteRequest
	if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	note, err := h.notes.Update(requestCtx, middleware.UserID(ctx), ctx.Params("note_id"), req.Patch())
	if err != nil {
		log.Error(requestCtx, "failed to update note", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendNote(ctx, note)
}

// DeleteNote удаляет заметку. Ответ всегда 204.
func (h *NotesHandler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.DeleteNote"))
	log.Debug(requestCtx, LogHandlerDeleteNote)

	if err := h.notes.Delete(requestCtx, middleware.UserID(ctx), ctx.Params("note_id")); err != nil {
		log.Error(requestCtx, "failed to delete note", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendStatus(ctx, fiber.StatusNoContent)
}

// SummarizeNote суммаризирует заметку. Тело необязательно.
func (h *NotesHandler) SummarizeNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.SummarizeNote"))
	log.Debug(requestCtx, LogHandlerSummarizeNote)

	var req dto.SummarizeNoteRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.Bind().WithoutAutoHandling().JSON(&req); err != nil {
			log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
			return writeError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
		}
	}

	note, err := h.notes.Summarize(requestCtx, middleware.UserID(ctx), ctx.Params("note_id"), req.Content)
	if err != nil {
		log.Error(requestCtx, "failed to summarize note", zap.Error(err))
		return handleError(ctx, err)
	}
	if note == nil {
		return writeError(ctx, fiber.StatusNotFound, ErrMsgNoteNotFound)
	}
	return sendJSON(ctx, fiber.StatusOK, note)
}

// DeleteSummary скрывает сводку заметки.
func (h *NotesHandler) DeleteSummary(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.DeleteSummary"))
	log.Debug(requestCtx, LogHandlerDeleteSummary)

	note, err := h.notes.DeleteSummary(requestCtx, middleware.UserID(ctx), ctx.Params("note_id"))
	if err != nil {
		log.Error(requestCtx, "failed to delete summary", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendNote(ctx, note)
}

// RestoreSummary снова показывает сохраненную сводку.
func (h *NotesHandler) RestoreSummary(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.RestoreSummary"))
	log.Debug(requestCtx, LogHandlerRestoreSummary)

	note, err := h.notes.RestoreSummary(requestCtx, middleware.UserID(ctx), ctx.Params("note_id"))
	if err != nil {
		log.Debug(requestCtx, "failed to restore summary", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendNote(ctx, note)
}

// sendNote отвечает 200 с заметкой или 204, если изменение ничего не затронуло.
func sendNote(ctx fiber.Ctx, note *entities.Note) error {
	if note == nil {
		return sendStatus(ctx, fiber.StatusNoContent)
	}
	return sendJSON(ctx, fiber.StatusOK, note)
}

func sendJSON(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

func sendStatus(ctx fiber.Ctx, status int) error {
	if err := ctx.SendStatus(status); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}
