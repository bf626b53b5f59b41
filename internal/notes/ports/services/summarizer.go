package services

import "context"

// Summarizer превращает текст в сводку через внешнюю языковую модель.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
