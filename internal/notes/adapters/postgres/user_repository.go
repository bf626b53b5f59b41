package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/entities"
	"notewise/internal/notes/domain/services"
	"notewise/internal/notes/ports/repositories"
	"notewise/pkg/logger"
)

const uniqueViolationCode = "23505"

const userColumns = "id, email, display_name, password_hash, provider, created_at, updated_at"

// UserRepository реализует repositories.UserRepository.
type UserRepository struct {
	pool PgxPoolInterface
}

// NewUserRepository создает новый экземпляр репозитория пользователей.
func NewUserRepository(pool PgxPoolInterface) repositories.UserRepository {
	return &UserRepository{pool: pool}
}

// FindByID находит пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail находит пользователя по email без учета регистра.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "FindByEmail", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) findOne(ctx context.Context, method, query, arg string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", method))

	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "user not found")
			return nil, entities.ErrUserNotFound
		}
		log.Error(ctx, "error finding user", zap.Error(err))
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

// Create создает нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "Create"))

	query := `INSERT INTO users (email, display_name, password_hash, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query, user.Email, user.DisplayName, user.PasswordHash, user.Provider))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			log.Debug(ctx, "email already registered")
			return nil, services.ErrEmailAlreadyExists
		}
		log.Error(ctx, "error creating user", zap.Error(err))
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created, nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Provider, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
