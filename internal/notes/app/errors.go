// Package app реализует бизнес-логику сервиса заметок и шлюза идентификации.
package app

import "errors"

// Ошибки уровня бизнес-логики.
var (
	ErrNotFound            = errors.New("note not found")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrInvalidParams       = errors.New("invalid parameters")
	ErrSummarizationFailed = errors.New("failed to summarize text")
	ErrSummarizeInProgress = errors.New("summarization already in progress")
	ErrNoSummary           = errors.New("note has no stored summary")
)
