package entities

import (
	"errors"
	"time"
)

// Ошибки домена пользователя.
var (
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooShort = errors.New("password must contain at least 8 characters")
	ErrPasswordTooWeak  = errors.New("password must contain at least one letter and one digit")
	ErrUserNotFound     = errors.New("user not found")
)

// Провайдеры учетных записей.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// User представляет пользователя шлюза идентификации.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
