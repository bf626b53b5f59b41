// Package entities содержит доменные сущности сервиса заметок.
package entities

import (
	"errors"
	"strings"
	"time"
)

// Ошибки домена заметок.
var (
	ErrEmptyTitle  = errors.New("note title cannot be empty")
	ErrEmptyPatch  = errors.New("note patch has no fields to update")
	ErrEmptyNoteID = errors.New("note ID cannot be empty")
)

// Note представляет собой заметку пользователя.
// Summary хранится отдельно от флага IsSummaryActive: скрытие сводки ее не удаляет.
type Note struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Summary         *string   `json:"summary"`
	IsSummaryActive bool      `json:"is_summary_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewNote создает заметку, проверяя заголовок. Содержимое может быть пустым.
func NewNote(userID, title, content string) (*Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	return &Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}, nil
}

// HasSummary сообщает, есть ли у заметки сохраненная сводка.
func (n *Note) HasSummary() bool {
	return n.Summary != nil
}

// Clone возвращает копию заметки, не разделяющую указатель Summary.
func (n *Note) Clone() *Note {
	c := *n
	if n.Summary != nil {
		s := *n.Summary
		c.Summary = &s
	}
	return &c
}

// NotePatch описывает частичное обновление заметки. nil означает "не менять".
type NotePatch struct {
	Title           *string
	Content         *string
	Summary         *string
	IsSummaryActive *bool
}

// IsEmpty сообщает, что в патче нет ни одного поля.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Summary == nil && p.IsSummaryActive == nil
}

// Validate проверяет поля патча.
func (p NotePatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Apply применяет патч к копии заметки.
func (p NotePatch) Apply(n *Note) *Note {
	c := n.Clone()
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Summary != nil {
		s := *p.Summary
		c.Summary = &s
	}
	if p.IsSummaryActive != nil {
		c.IsSummaryActive = *p.IsSummaryActive
	}
	return c
}
