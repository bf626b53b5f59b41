// Package dto содержит модели запросов и ответов HTTP API.
package dto

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator проверяет DTO по тегам validate. Подключается к fiber как StructValidator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator создает валидатор DTO.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate проверяет структуру.
func (v *Validator) Validate(out any) error {
	if err := v.validate.Struct(out); err != nil {
		return fmt.Errorf("validating request: %w", err)
	}
	return nil
}
