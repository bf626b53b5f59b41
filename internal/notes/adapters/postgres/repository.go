package postgres

import (
	"notewise/internal/notes/ports/repositories"
)

// RepositoryFactory создает репозитории поверх общего пула.
type RepositoryFactory struct {
	notes  repositories.NoteRepository
	users  repositories.UserRepository
	tokens repositories.TokenRepository
	logs   *LogRepository
}

// NewRepositoryFactory создает новую фабрику репозиториев.
func NewRepositoryFactory(pool PgxPoolInterface) *RepositoryFactory {
	return &RepositoryFactory{
		notes:  NewNoteRepository(pool),
		users:  NewUserRepository(pool),
		tokens: NewTokenRepository(pool),
		logs:   NewLogRepository(pool),
	}
}

// NoteRepository возвращает репозиторий заметок.
func (f *RepositoryFactory) NoteRepository() repositories.NoteRepository {
	return f.notes
}

// UserRepository возвращает репозиторий пользователей.
func (f *RepositoryFactory) UserRepository() repositories.UserRepository {
	return f.users
}

// TokenRepository возвращает репозиторий токенов.
func (f *RepositoryFactory) TokenRepository() repositories.TokenRepository {
	return f.tokens
}

// LogRepository возвращает хранилище записей журнала.
func (f *RepositoryFactory) LogRepository() *LogRepository {
	return f.logs
}
