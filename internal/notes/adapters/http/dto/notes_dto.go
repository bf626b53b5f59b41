package dto

import "notewise/internal/notes/domain/entities"

// CreateNoteRequest содержит данные для создания заметки.
type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// UpdateNoteRequest содержит частичное обновление заметки.
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Summary *string `json:"summary"`
}

// Patch переводит запрос в доменный патч.
func (r *UpdateNoteRequest) Patch() entities.NotePatch {
	return entities.NotePatch{
		Title:   r.Title,
		Content: r.Content,
		Summary: r.Summary,
	}
}

// SummarizeNoteRequest содержит текст для суммаризации; пустой content означает сохраненное содержимое.
type SummarizeNoteRequest struct {
	Content string `json:"content"`
}

// StatusResponse сообщает, идет ли суммаризация у пользователя.
type StatusResponse struct {
	Summarizing bool `json:"summarizing"`
}
