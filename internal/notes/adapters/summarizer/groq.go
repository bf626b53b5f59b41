// Package summarizer реализует шлюз суммаризации поверх OpenAI-совместимого chat-completion API.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"notewise/internal/notes/domain/services"
	svc "notewise/internal/notes/ports/services"
	"notewise/internal/notes/resilience"
	"notewise/pkg/logger"
)

const (
	systemPrompt = "You are an expert summarizer. Read the user's text thoroughly and generate a detailed, " +
		"accurate summary that captures the full scope of the original content. Preserve all key points, " +
		"supporting details, arguments, and context. The summary should be complete yet easy to understand, " +
		"without personal bias or interpretation"
	userPromptPrefix = "Please summarize the following text:\n\n"

	operationSummarize = "summarize"
	resilienceName     = "summarizer"
)

// Сообщения логов.
const (
	logSummarizing       = "requesting summary"
	logSummarized        = "summary received"
	logUpstreamStatus    = "summarization api returned error status"
	logTransportFailure  = "summarization request failed"
	logMalformedResponse = "malformed summarization response"
	logSummarizeFailed   = "error summarizing text"
)

// errTransient помечает ошибки, после которых имеет смысл повторить запрос.
var errTransient = errors.New("transient summarization failure")

// Config содержит параметры клиента.
type Config struct {
	APIURL         string
	APIKey         string
	Model          string
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client вызывает chat-completion API через resty.
type Client struct {
	http       *resty.Client
	cfg        Config
	resilience *resilience.ServiceResilience
}

// New создает клиента шлюза суммаризации.
func New(cfg Config) *Client {
	return NewWithClient(resty.New(), cfg)
}

// NewWithClient создает клиента поверх готового resty.Client.
func NewWithClient(client *resty.Client, cfg Config) *Client {
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		retry.MaxBackoff = cfg.MaxBackoff
	}
	retry.ShouldRetry = isTransient

	breaker := resilience.DefaultCircuitBreakerConfig()
	breaker.IsFailure = isTransient

	return &Client{
		http:       client,
		cfg:        cfg,
		resilience: resilience.NewServiceResilience(resilienceName, retry, breaker),
	}
}

var _ svc.Summarizer = (*Client)(nil)

// Summarize возвращает сводку текста. Любой отказ внешнего API сводится к ErrSummarizationFailed.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	log := logger.Log(ctx).With(zap.String("method", "Summarizer.Summarize"))

	if strings.TrimSpace(text) == "" {
		return "", services.ErrInvalidText
	}

	log.Debug(ctx, logSummarizing, zap.Int("text_length", len(text)))

	summary, err := resilience.ExecuteWithResult(ctx, c.resilience, operationSummarize, func(ctx context.Context) (string, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		log.Error(ctx, logSummarizeFailed, zap.Error(err))
		return "", fmt.Errorf("%w: %w", services.ErrSummarizationFailed, err)
	}

	log.Debug(ctx, logSummarized, zap.Int("summary_length", len(summary)))
	return summary, nil
}

func (c *Client) call(ctx context.Context, text string) (string, error) {
	log := logger.Log(ctx)

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPromptPrefix + text},
			},
			MaxTokens: c.cfg.MaxTokens,
		}).
		SetResult(&out).
		Post(c.cfg.APIURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn(ctx, logTransportFailure, zap.Error(err))
		return "", fmt.Errorf("%w: %w", errTransient, err)
	}

	if status := resp.StatusCode(); status < http.StatusOK || status >= http.StatusMultipleChoices {
		log.Warn(ctx, logUpstreamStatus, zap.Int("status", status))
		if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %w: %d", errTransient, services.ErrUpstreamStatus, status)
		}
		return "", fmt.Errorf("%w: %d", services.ErrUpstreamStatus, status)
	}

	if len(out.Choices) == 0 {
		log.Warn(ctx, logMalformedResponse, zap.String("reason", "no choices"))
		return "", fmt.Errorf("%w: no choices", services.ErrMalformedResponse)
	}
	summary := strings.TrimSpace(out.Choices[0].Message.Content)
	if summary == "" {
		log.Warn(ctx, logMalformedResponse, zap.String("reason", "empty content"))
		return "", fmt.Errorf("%w: empty content", services.ErrMalformedResponse)
	}
	return summary, nil
}

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}
