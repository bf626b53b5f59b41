// Package services определяет интерфейсы внешних сервисов.
package services

import "context"

// PasswordService определяет операции хеширования паролей.
type PasswordService interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}
