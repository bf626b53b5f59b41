package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/domain/services"
	"notewise/internal/notes/ports/cache"
	"notewise/internal/notes/ports/repositories"
	svc "notewise/internal/notes/ports/services"
	"notewise/pkg/logger"
)

const (
	methodList           = "NoteUseCase.List"
	methodSearch         = "NoteUseCase.Search"
	methodCreate         = "NoteUseCase.Create"
	methodGet            = "NoteUseCase.Get"
	methodUpdate         = "NoteUseCase.Update"
	methodDelete         = "NoteUseCase.Delete"
	methodSummarize      = "NoteUseCase.Summarize"
	methodDeleteSummary  = "NoteUseCase.DeleteSummary"
	methodRestoreSummary = "NoteUseCase.RestoreSummary"
	methodSummarizeText  = "NoteUseCase.SummarizeText"

	msgCacheReadFailed    = "failed to read notes cache"
	msgCacheWriteFailed   = "failed to write notes cache"
	msgCachePatchFailed   = "failed to patch notes cache, invalidating"
	msgCacheInvalidFailed = "failed to invalidate notes cache"
	msgCacheStaleList     = "notes changed while listing, snapshot not cached"
	msgListFailed         = "failed to list notes"
	msgSearchFailed       = "failed to search notes"
	msgCreateFailed       = "failed to create note"
	msgGetFailed          = "failed to get note"
	msgUpdateFailed       = "failed to update note"
	msgDeleteFailed       = "failed to delete note"
	msgSummarizeFailed    = "failed to summarize note"
	msgNoteNotAffected    = "note not found or not owned, nothing changed"
	msgNoteCreated        = "note created"
	msgNoteSummarized     = "note summarized"

	errCtxListNotes      = "listing notes"
	errCtxCreateNote     = "creating note"
	errCtxGetNote        = "getting note"
	errCtxUpdateNote     = "updating note"
	errCtxDeleteNote     = "deleting note"
	errCtxSummarizeNote  = "summarizing note"
	errCtxValidateParams = "validating parameters"
)

// NoteUseCase - слой оркестрации заметок: хранилище, кэш списков и шлюз суммаризации.
type NoteUseCase struct {
	noteRepo   repositories.NoteRepository
	cache      cache.NoteCache
	summarizer svc.Summarizer
	tracer     trace.Tracer

	mu          sync.Mutex
	summarizing map[string]struct{}
}

// NewNoteUseCase создает новый экземпляр NoteUseCase.
func NewNoteUseCase(
	noteRepo repositories.NoteRepository,
	noteCache cache.NoteCache,
	summarizer svc.Summarizer,
	tracer trace.Tracer,
) *NoteUseCase {
	return &NoteUseCase{
		noteRepo:    noteRepo,
		cache:       noteCache,
		summarizer:  summarizer,
		tracer:      tracer,
		summarizing: make(map[string]struct{}),
	}
}

// List возвращает заметки пользователя, начиная с самой свежей.
func (uc *NoteUseCase) List(ctx context.Context, userID string) (notes []*entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodList, attribute.String("user_id", userID))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return []*entities.Note{}, nil
	}
	log := logger.Log(ctx).With(zap.String("method", methodList), zap.String("user_id", userID))

	cached, err := uc.cache.GetList(ctx, userID)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn(ctx, msgCacheReadFailed, zap.Error(err))
	}

	// Версия читается до хранилища: мутация, завершившаяся после чтения, отменит запись снимка.
	version, versionErr := uc.cache.ListVersion(ctx, userID)
	if versionErr != nil {
		log.Warn(ctx, msgCacheReadFailed, zap.Error(versionErr))
	}

	notes, err = uc.noteRepo.ListByUserID(ctx, userID)
	if err != nil {
		log.Error(ctx, msgListFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxListNotes, err)
	}

	if versionErr == nil {
		switch err := uc.cache.SetList(ctx, userID, version, notes); {
		case errors.Is(err, cache.ErrStaleList):
			log.Debug(ctx, msgCacheStaleList)
		case err != nil:
			log.Warn(ctx, msgCacheWriteFailed, zap.Error(err))
		}
	}
	return notes, nil
}

// Search ищет заметки по подстроке в заголовке или содержимом.
// Ошибка хранилища не прерывает работу: пользователь получает пустой результат.
func (uc *NoteUseCase) Search(ctx context.Context, userID, query string) (notes []*entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodSearch, attribute.String("user_id", userID))
	defer func() { endSpan(span, err) }()

	if userID == "" || strings.TrimSpace(query) == "" {
		return []*entities.Note{}, nil
	}
	log := logger.Log(ctx).With(zap.String("method", methodSearch), zap.String("user_id", userID))

	if cached, err := uc.cache.GetSearch(ctx, userID, query); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn(ctx, msgCacheReadFailed, zap.Error(err))
	}

	found, searchErr := uc.noteRepo.Search(ctx, userID, query)
	if searchErr != nil {
		log.Error(ctx, msgSearchFailed, zap.Error(searchErr))
		span.RecordError(searchErr)
		return []*entities.Note{}, nil
	}

	if err := uc.cache.SetSearch(ctx, userID, query, found); err != nil {
		log.Warn(ctx, msgCacheWriteFailed, zap.Error(err))
	}
	return found, nil
}

// Create создает заметку. Заголовок обязателен, содержимое может быть пустым.
func (uc *NoteUseCase) Create(ctx context.Context, userID, title, content string) (created *entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodCreate, attribute.String("user_id", userID))
	defer func() { endSpan(span, err) }()

	log := logger.Log(ctx).With(zap.String("method", methodCreate), zap.String("user_id", userID))

	if userID == "" {
		return nil, ErrUnauthorized
	}
	note, err := entities.NewNote(userID, title, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, err)
	}

	created, err = uc.noteRepo.Create(ctx, note)
	if err != nil {
		log.Error(ctx, msgCreateFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxCreateNote, err)
	}

	log.Info(ctx, msgNoteCreated, zap.String("note_id", created.ID))
	uc.patchList(ctx, userID, putFirst(created))
	return created, nil
}

// Get возвращает заметку пользователя.
func (uc *NoteUseCase) Get(ctx context.Context, userID, noteID string) (note *entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodGet,
		attribute.String("user_id", userID), attribute.String("note_id", noteID))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if noteID == "" {
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, entities.ErrEmptyNoteID)
	}

	note, err = uc.noteRepo.GetByID(ctx, noteID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoteNotFoundOrNotOwned) {
			return nil, ErrNotFound
		}
		logger.Log(ctx).Error(ctx, msgGetFailed,
			zap.String("method", methodGet), zap.String("user_id", userID), zap.String("note_id", noteID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxGetNote, err)
	}
	return note, nil
}

// Update применяет частичное обновление. Если заметки нет или она чужая, ничего не меняется
// и возвращается (nil, nil).
func (uc *NoteUseCase) Update(ctx context.Context, userID, noteID string, patch entities.NotePatch) (note *entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodUpdate,
		attribute.String("user_id", userID), attribute.String("note_id", noteID))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if noteID == "" {
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, entities.ErrEmptyNoteID)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, err)
	}

	return uc.update(ctx, methodUpdate, errCtxUpdateNote, userID, noteID, patch)
}

// Delete удаляет заметку. Отсутствующая или чужая заметка - успешный no-op.
func (uc *NoteUseCase) Delete(ctx context.Context, userID, noteID string) (err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodDelete,
		attribute.String("user_id", userID), attribute.String("note_id", noteID))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return ErrUnauthorized
	}
	if noteID == "" {
		return fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, entities.ErrEmptyNoteID)
	}
	log := logger.Log(ctx).With(zap.String("method", methodDelete), zap.String("user_id", userID), zap.String("note_id", noteID))

	if err := uc.noteRepo.Delete(ctx, noteID, userID); err != nil {
		if errors.Is(err, repositories.ErrNoteNotFoundOrNotOwned) {
			log.Debug(ctx, msgNoteNotAffected)
			return nil
		}
		log.Error(ctx, msgDeleteFailed, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxDeleteNote, err)
	}

	uc.patchList(ctx, userID, removeNote(noteID))
	return nil
}

// Summarize получает сводку содержимого и только после успеха сохраняет ее в заметке.
// Пустой content означает "взять сохраненное содержимое заметки".
// Пока у пользователя идет суммаризация, повторный вызов возвращает ErrSummarizeInProgress.
func (uc *NoteUseCase) Summarize(ctx context.Context, userID, noteID, content string) (note *entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodSummarize,
		attribute.String("user_id", userID), attribute.String("note_id", noteID))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if noteID == "" {
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, entities.ErrEmptyNoteID)
	}
	log := logger.Log(ctx).With(zap.String("method", methodSummarize), zap.String("user_id", userID), zap.String("note_id", noteID))

	if !uc.beginSummarizing(userID) {
		return nil, ErrSummarizeInProgress
	}
	defer uc.endSummarizing(userID)

	if strings.TrimSpace(content) == "" {
		stored, err := uc.Get(ctx, userID, noteID)
		if err != nil {
			return nil, err
		}
		content = stored.Content
	}

	summary, err := uc.summarizer.Summarize(ctx, content)
	if err != nil {
		log.Error(ctx, msgSummarizeFailed, zap.Error(err))
		if errors.Is(err, services.ErrInvalidText) {
			return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", errCtxSummarizeNote, ErrSummarizationFailed, err)
	}

	active := true
	note, err = uc.update(ctx, methodSummarize, errCtxSummarizeNote, userID, noteID, entities.NotePatch{
		Summary:         &summary,
		IsSummaryActive: &active,
	})
	if err == nil && note != nil {
		log.Info(ctx, msgNoteSummarized)
	}
	return note, err
}

// Summarizing сообщает, идет ли сейчас суммаризация у пользователя.
func (uc *NoteUseCase) Summarizing(userID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.summarizing[userID]
	return ok
}

// DeleteSummary скрывает сводку, не стирая ее.
func (uc *NoteUseCase) DeleteSummary(ctx context.Context, userID, noteID string) (note *entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodDeleteSummary,
		attribute.String("user_id", userID), attribute.String("note_id", noteID))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if noteID == "" {
		return nil, fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, entities.ErrEmptyNoteID)
	}

	inactive := false
	return uc.update(ctx, methodDeleteSummary, errCtxUpdateNote, userID, noteID, entities.NotePatch{IsSummaryActive: &inactive})
}

// RestoreSummary снова показывает сохраненную сводку без повторной суммаризации.
func (uc *NoteUseCase) RestoreSummary(ctx context.Context, userID, noteID string) (note *entities.Note, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodRestoreSummary,
		attribute.String("user_id", userID), attribute.String("note_id", noteID))
	defer func() { endSpan(span, err) }()

	stored, err := uc.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if !stored.HasSummary() {
		return nil, ErrNoSummary
	}
	if stored.IsSummaryActive {
		return stored, nil
	}

	active := true
	return uc.update(ctx, methodRestoreSummary, errCtxUpdateNote, userID, noteID, entities.NotePatch{IsSummaryActive: &active})
}

// SummarizeText суммаризирует произвольный текст без сохранения.
func (uc *NoteUseCase) SummarizeText(ctx context.Context, text string) (summary string, err error) {
	ctx, span := startSpan(ctx, uc.tracer, methodSummarizeText)
	defer func() { endSpan(span, err) }()

	summary, err = uc.summarizer.Summarize(ctx, text)
	if err != nil {
		if errors.Is(err, services.ErrInvalidText) {
			return "", fmt.Errorf("%s: %w: %w", errCtxValidateParams, ErrInvalidParams, err)
		}
		logger.Log(ctx).Error(ctx, msgSummarizeFailed, zap.String("method", methodSummarizeText), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
	}
	return summary, nil
}

func (uc *NoteUseCase) update(
	ctx context.Context,
	method, errCtx, userID, noteID string,
	patch entities.NotePatch,
) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", method), zap.String("user_id", userID), zap.String("note_id", noteID))

	note, err := uc.noteRepo.Update(ctx, noteID, userID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNoteNotFoundOrNotOwned) {
			log.Debug(ctx, msgNoteNotAffected)
			return nil, nil
		}
		log.Error(ctx, msgUpdateFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	uc.patchList(ctx, userID, putFirst(note))
	return note, nil
}

// patchList обновляет закэшированный список; при сбое ключ сбрасывается.
func (uc *NoteUseCase) patchList(ctx context.Context, userID string, patch cache.ListPatch) {
	if err := uc.cache.PatchList(ctx, userID, patch); err != nil {
		log := logger.Log(ctx).With(zap.String("user_id", userID))
		log.Warn(ctx, msgCachePatchFailed, zap.Error(err))
		if err := uc.cache.InvalidateList(ctx, userID); err != nil {
			log.Error(ctx, msgCacheInvalidFailed, zap.Error(err))
		}
	}
}

func (uc *NoteUseCase) beginSummarizing(userID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, busy := uc.summarizing[userID]; busy {
		return false
	}
	uc.summarizing[userID] = struct{}{}
	return true
}

func (uc *NoteUseCase) endSummarizing(userID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.summarizing, userID)
}
