package config

import "time"

// SummarizerConfig содержит настройки шлюза суммаризации.
type SummarizerConfig struct {
	APIURL         string        `yaml:"api_url" env:"NOTES_SUMMARIZER_API_URL" env-default:"https://api.groq.com/openai/v1/chat/completions"`
	APIKey         string        `yaml:"api_key" env:"NOTES_SUMMARIZER_API_KEY" env-required:"true"`
	Model          string        `yaml:"model" env:"NOTES_SUMMARIZER_MODEL" env-default:"meta-llama/llama-4-scout-17b-16e-instruct"`
	MaxTokens      int           `yaml:"max_tokens" env:"NOTES_SUMMARIZER_MAX_TOKENS" env-default:"500"`
	Timeout        time.Duration `yaml:"timeout" env:"NOTES_SUMMARIZER_TIMEOUT" env-default:"30s"`
	MaxRetries     int           `yaml:"max_retries" env:"NOTES_SUMMARIZER_MAX_RETRIES" env-default:"3"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"NOTES_SUMMARIZER_INITIAL_BACKOFF" env-default:"500ms"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env:"NOTES_SUMMARIZER_MAX_BACKOFF" env-default:"5s"`
}
