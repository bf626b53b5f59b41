package repositories

import (
	"context"

	"notewise/internal/notes/domain/entities"
)

// UserRepository определяет операции хранения пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	FindByID(ctx context.Context, id string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
}
