package dto

// SummarizeRequest - тело POST /api/summarize.
type SummarizeRequest struct {
	Text string `json:"text" validate:"required"`
}

// SummarizeResponse - ответ POST /api/summarize.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// ErrorResponse - тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
