// Package repositories определяет интерфейсы хранилищ сервиса заметок.
package repositories

import (
	"context"
	"errors"

	"notewise/internal/notes/domain/entities"
)

// ErrNoteNotFoundOrNotOwned возвращается, если заметки нет или она принадлежит другому пользователю.
var ErrNoteNotFoundOrNotOwned = errors.New("note not found or not owned by user")

// NoteRepository - хранилище заметок. Каждая операция ограничена владельцем userID.
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) (*entities.Note, error)
	GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error)
	ListByUserID(ctx context.Context, userID string) ([]*entities.Note, error)
	Search(ctx context.Context, userID, query string) ([]*entities.Note, error)
	Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (*entities.Note, error)
	Delete(ctx context.Context, noteID, userID string) error
}
