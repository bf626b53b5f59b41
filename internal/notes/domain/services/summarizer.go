package services

import "errors"

// Ошибки шлюза суммаризации.
var (
	ErrInvalidText         = errors.New("valid text is required")
	ErrSummarizationFailed = errors.New("failed to summarize text")
	ErrMalformedResponse   = errors.New("malformed summarization response")
	ErrUpstreamStatus      = errors.New("summarization api returned error status")
)
