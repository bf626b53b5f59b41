package dto

// SignUpRequest содержит данные для регистрации.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// SignInRequest содержит данные для входа.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest содержит refresh токен. Пустое значение берется из cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignOutRequest содержит refresh токен завершаемой сессии.
type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
