// Package redis connects the optional Redis audit stream backend.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"studioreg/internal/platform/config"
)

// Client is a connected go-redis client plus the audit stream it serves.
type Client struct {
	*redis.Client
	auditStream string
}

// New dials Redis from cfg and pings it. A nil client with a nil error means
// Redis is not configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb, auditStream: cfg.AuditStream}, nil
}

// options parses the URL and layers the pool settings from cfg on top; zero
// values keep whatever the URL or go-redis chose.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	setInt(&opts.PoolSize, cfg.PoolSize)
	setInt(&opts.MinIdleConns, cfg.MinIdleConns)
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// AuditStream is the stream key audit events are appended to.
func (c *Client) AuditStream() string {
	return c.auditStream
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
