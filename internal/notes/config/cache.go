package config

import (
	"time"

	"notewise/pkg/db/redis"
)

// Поддерживаемые реализации кэша заметок.
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// CacheConfig содержит настройки кэша заметок.
type CacheConfig struct {
	Backend   string        `yaml:"backend" env:"NOTES_CACHE_BACKEND" env-default:"memory"`
	ListTTL   time.Duration `yaml:"list_ttl" env:"NOTES_CACHE_LIST_TTL" env-default:"10m"`
	SearchTTL time.Duration `yaml:"search_ttl" env:"NOTES_CACHE_SEARCH_TTL" env-default:"30s"`
	Redis     RedisConfig   `yaml:"redis"`
}

// RedisConfig представляет конфигурацию Redis.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"NOTES_REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"NOTES_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"NOTES_REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"NOTES_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"NOTES_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"NOTES_REDIS_TIMEOUT" env-default:"3s"`
}

// ClientConfig переводит настройки в конфигурацию общего клиента Redis.
func (c *RedisConfig) ClientConfig() *redis.Config {
	return &redis.Config{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
		Timeout:  c.Timeout,
	}
}
