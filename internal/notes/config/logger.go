package config

import (
	"notewise/pkg/logger"
)

// LoggingConfig содержит настройки логирования.
type LoggingConfig struct {
	Level         string `yaml:"level" env:"NOTES_LOGGER_LEVEL" env-default:"info"`
	Mode          string `yaml:"mode" env:"NOTES_LOGGER_MODE" env-default:"development"`
	Sink          string `yaml:"sink" env:"NOTES_LOGGER_SINK" env-default:"console"`
	FilePath      string `yaml:"file_path" env:"NOTES_LOGGER_FILE_PATH" env-default:"logs/notes.log"`
	MaxSizeMB     int    `yaml:"max_size_mb" env:"NOTES_LOGGER_MAX_SIZE_MB" env-default:"10"`
	MaxBackups    int    `yaml:"max_backups" env:"NOTES_LOGGER_MAX_BACKUPS" env-default:"5"`
	MaxAgeDays    int    `yaml:"max_age_days" env:"NOTES_LOGGER_MAX_AGE_DAYS" env-default:"30"`
	DatabaseLevel string `yaml:"database_level" env:"NOTES_LOGGER_DATABASE_LEVEL" env-default:"info"`
	QueueSize     int    `yaml:"queue_size" env:"NOTES_LOGGER_QUEUE_SIZE" env-default:"1024"`
}

// GetEnvironment получает строку режима в logger environment.
func (l *LoggingConfig) GetEnvironment() logger.Environment {
	if l.Mode == "production" {
		return logger.Production
	}
	return logger.Development
}

// LoggerConfig собирает параметры построения logger.
func (l *LoggingConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Environment:   l.GetEnvironment(),
		Level:         l.Level,
		Sink:          logger.Sink(l.Sink),
		FilePath:      l.FilePath,
		MaxSizeMB:     l.MaxSizeMB,
		MaxBackups:    l.MaxBackups,
		MaxAgeDays:    l.MaxAgeDays,
		DatabaseLevel: l.DatabaseLevel,
		QueueSize:     l.QueueSize,
	}
}
