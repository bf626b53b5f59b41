package config

// TracingConfig содержит настройки экспорта трассировок.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" env:"NOTES_TRACING_ENABLED" env-default:"false"`
	Endpoint    string  `yaml:"endpoint" env:"NOTES_TRACING_ENDPOINT" env-default:"localhost:4318"`
	Insecure    bool    `yaml:"insecure" env:"NOTES_TRACING_INSECURE" env-default:"true"`
	SampleRatio float64 `yaml:"sample_ratio" env:"NOTES_TRACING_SAMPLE_RATIO" env-default:"1"`
}
