// Package redis предоставляет общую реализацию клиента Redis.
package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// Client обертывает клиент Redis.
type Client struct {
	client *redis.Client
}

// NewClient создает клиент Redis и проверяет соединение.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Log(ctx).Info(ctx, "connected to Redis", zap.String("addr", addr), zap.Int("db", cfg.DB))
	return &Client{client: rdb}, nil
}

// NewFromRaw оборачивает уже созданный клиент.
func NewFromRaw(rdb *redis.Client) *Client {
	return &Client{client: rdb}
}

// Ping проверяет соединение.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis.
func (c *Client) Close() error {
	return c.client.Close()
}

// RawClient возвращает базовый Redis клиент для транзакций и пайплайнов.
func (c *Client) RawClient() *redis.Client {
	return c.client
}
