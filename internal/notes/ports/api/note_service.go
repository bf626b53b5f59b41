// Package api определяет интерфейсы, которые сервис предоставляет транспортному слою.
package api

import (
	"context"

	"notewise/internal/notes/domain/entities"
)

// NoteService определяет операции над заметками, доступные HTTP слою.
type NoteService interface {
	List(ctx context.Context, userID string) ([]*entities.Note, error)
	Search(ctx context.Context, userID, query string) ([]*entities.Note, error)
	Create(ctx context.Context, userID, title, content string) (*entities.Note, error)
	Get(ctx context.Context, userID, noteID string) (*entities.Note, error)
	Update(ctx context.Context, userID, noteID string, patch entities.NotePatch) (*entities.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
	Summarize(ctx context.Context, userID, noteID, content string) (*entities.Note, error)
	Summarizing(userID string) bool
	DeleteSummary(ctx context.Context, userID, noteID string) (*entities.Note, error)
	RestoreSummary(ctx context.Context, userID, noteID string) (*entities.Note, error)
	SummarizeText(ctx context.Context, text string) (string, error)
}
