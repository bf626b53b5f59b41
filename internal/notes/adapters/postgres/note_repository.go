package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/ports/repositories"
	"notewise/pkg/logger"
)

// ErrNoteNotFoundOrNotOwned возвращается, если заметки нет или она принадлежит другому пользователю.
var ErrNoteNotFoundOrNotOwned = repositories.ErrNoteNotFoundOrNotOwned

const noteColumns = "id, user_id, title, content, summary, is_summary_active, created_at, updated_at"

// updated_at всегда растет, даже если часы сервера БД не сдвинулись.
const bumpUpdatedAt = "GREATEST(now(), updated_at + interval '1 microsecond')"

const (
	queryCreateNote = `INSERT INTO notes (user_id, title, content) VALUES ($1, $2, $3) RETURNING ` + noteColumns

	queryGetNote = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`

	queryListNotes = `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 ORDER BY updated_at DESC`

	querySearchNotes = `SELECT ` + noteColumns + ` FROM notes
		WHERE user_id = $1 AND (title ILIKE $2 ESCAPE '\' OR content ILIKE $2 ESCAPE '\')
		ORDER BY updated_at DESC`

	queryDeleteNote = `DELETE FROM notes WHERE id = $1 AND user_id = $2`
)

// NoteRepository реализует repositories.NoteRepository.
type NoteRepository struct {
	pool    PgxPoolInterface
	builder sq.StatementBuilderType
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(pool PgxPoolInterface) repositories.NoteRepository {
	return &NoteRepository{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create сохраняет новую заметку. created_at и updated_at выставляются базой и совпадают.
func (r *NoteRepository) Create(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Create"), zap.String("userID", note.UserID))
	log.Debug(ctx, "creating new note")

	created, err := scanNote(r.pool.QueryRow(ctx, queryCreateNote, note.UserID, note.Title, note.Content))
	if err != nil {
		log.Error(ctx, "failed to create note", zap.Error(err))
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	log.Debug(ctx, "note created", zap.String("noteID", created.ID))
	return created, nil
}

// GetByID получает заметку владельца.
func (r *NoteRepository) GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.GetByID"),
		zap.String("noteID", noteID), zap.String("userID", userID))

	note, err := scanNote(r.pool.QueryRow(ctx, queryGetNote, noteID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found")
			return nil, ErrNoteNotFoundOrNotOwned
		}
		log.Error(ctx, "failed to get note", zap.Error(err))
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListByUserID возвращает все заметки пользователя, новые изменения первыми.
func (r *NoteRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.ListByUserID"), zap.String("userID", userID))
	log.Debug(ctx, "listing notes")

	rows, err := r.pool.Query(ctx, queryListNotes, userID)
	if err != nil {
		log.Error(ctx, "failed to list notes", zap.Error(err))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes, err := collectNotes(rows)
	if err != nil {
		log.Error(ctx, "failed to read notes", zap.Error(err))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Search ищет подстроку в заголовке или содержимом без учета регистра.
// Символы шаблона LIKE в запросе экранируются и ищутся буквально.
func (r *NoteRepository) Search(ctx context.Context, userID, query string) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Search"), zap.String("userID", userID))
	log.Debug(ctx, "searching notes", zap.String("query", query))

	rows, err := r.pool.Query(ctx, querySearchNotes, userID, "%"+EscapeLike(query)+"%")
	if err != nil {
		log.Error(ctx, "failed to search notes", zap.Error(err))
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}

	notes, err := collectNotes(rows)
	if err != nil {
		log.Error(ctx, "failed to read notes", zap.Error(err))
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	return notes, nil
}

// Update меняет только переданные поля и продвигает updated_at.
func (r *NoteRepository) Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"),
		zap.String("noteID", noteID), zap.String("userID", userID))

	if patch.IsEmpty() {
		return nil, entities.ErrEmptyPatch
	}

	query, args, err := r.buildUpdate(noteID, userID, patch)
	if err != nil {
		log.Error(ctx, "failed to build update query", zap.Error(err))
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	note, err := scanNote(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found or not owned by user")
			return nil, ErrNoteNotFoundOrNotOwned
		}
		log.Error(ctx, "failed to update note", zap.Error(err))
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return note, nil
}

func (r *NoteRepository) buildUpdate(noteID, userID string, patch entities.NotePatch) (string, []interface{}, error) {
	qb := r.builder.Update("notes")
	if patch.Title != nil {
		qb = qb.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		qb = qb.Set("content", *patch.Content)
	}
	if patch.Summary != nil {
		qb = qb.Set("summary", *patch.Summary)
	}
	if patch.IsSummaryActive != nil {
		qb = qb.Set("is_summary_active", *patch.IsSummaryActive)
	}

	return qb.
		Set("updated_at", sq.Expr(bumpUpdatedAt)).
		Where(sq.Eq{"id": noteID}).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING " + noteColumns).
		ToSql()
}

// Delete удаляет заметку владельца.
func (r *NoteRepository) Delete(ctx context.Context, noteID, userID string) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"),
		zap.String("noteID", noteID), zap.String("userID", userID))

	result, err := r.pool.Exec(ctx, queryDeleteNote, noteID, userID)
	if err != nil {
		log.Error(ctx, "failed to delete note", zap.Error(err))
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found or not owned by user")
		return ErrNoteNotFoundOrNotOwned
	}

	return nil
}

// EscapeLike экранирует \, % и _ для использования в ILIKE ... ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanNote(row pgx.Row) (*entities.Note, error) {
	var n entities.Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Summary, &n.IsSummaryActive,
		&n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNotes(rows pgx.Rows) ([]*entities.Note, error) {
	defer rows.Close()

	notes := make([]*entities.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return notes, nil
}
