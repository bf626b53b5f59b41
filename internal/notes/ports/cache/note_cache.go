// Package cache определяет интерфейс кэша заметок.
package cache

import (
	"context"
	"errors"

	"notewise/internal/notes/domain/entities"
)

// Ошибки кэша заметок.
var (
	// ErrCacheMiss возвращается, если ключа нет в кэше.
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleList возвращается SetList, если список менялся после чтения версии.
	ErrStaleList = errors.New("cached list version is stale")
)

// ListPatch изменяет закэшированный список заметок пользователя.
type ListPatch func(notes []*entities.Note) []*entities.Note

// NoteCache хранит списки заметок по пользователю и результаты поиска по (пользователь, запрос).
//
// У списка каждого пользователя есть версия. PatchList и InvalidateList увеличивают ее всегда,
// даже когда список не закэширован, а SetList пишет снимок только при неизменной версии.
// Так снимок, прочитанный из хранилища до мутации, не перекрывает ее результат.
type NoteCache interface {
	GetList(ctx context.Context, userID string) ([]*entities.Note, error)
	// ListVersion читается до обращения к хранилищу и передается в SetList.
	ListVersion(ctx context.Context, userID string) (int64, error)
	// SetList возвращает ErrStaleList, если версия изменилась после ListVersion.
	SetList(ctx context.Context, userID string, version int64, notes []*entities.Note) error
	// PatchList применяет patch к списку, если он закэширован. Отсутствие списка не ошибка.
	PatchList(ctx context.Context, userID string, patch ListPatch) error
	InvalidateList(ctx context.Context, userID string) error

	// Результаты поиска хранятся по точной строке запроса, той же, что ушла в хранилище.
	GetSearch(ctx context.Context, userID, query string) ([]*entities.Note, error)
	SetSearch(ctx context.Context, userID, query string, notes []*entities.Note) error

	Close() error
}
