package services

import (
	"time"

	svc "notewise/internal/notes/ports/services"
)

// ServiceFactory создает сервисы токенов и паролей.
type ServiceFactory struct {
	tokenService    svc.TokenService
	passwordService svc.PasswordService
}

// NewServiceFactory создает новую фабрику сервисов.
func NewServiceFactory(secretKey string, accessTTL, refreshTTL time.Duration, bcryptCost int) *ServiceFactory {
	return &ServiceFactory{
		tokenService:    NewJWT(secretKey, accessTTL, refreshTTL),
		passwordService: NewBcrypt(bcryptCost),
	}
}

// TokenService возвращает сервис токенов.
func (f *ServiceFactory) TokenService() svc.TokenService {
	return f.tokenService
}

// PasswordService возвращает сервис паролей.
func (f *ServiceFactory) PasswordService() svc.PasswordService {
	return f.passwordService
}
