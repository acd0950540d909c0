// Package cache provides the Redis-backed workflow document read cache.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/graph"
)

// Config is the cache configuration.
type Config struct {
	// Addr is the Redis address. Empty disables the cache.
	Addr string `yaml:"addr" json:"addr"`

	// Password authenticates against Redis.
	Password string `yaml:"password" json:"password"`

	// DB selects the Redis database.
	DB int `yaml:"db" json:"db"`

	// TTL is how long a cached document lives.
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

// Manager caches workflow documents in front of the SQLite store. A miss
// or any Redis failure degrades to the underlying store; the cache is
// never authoritative.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager creates a cache manager and verifies connectivity.
func NewManager(ctx context.Context, cfg Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Manager{client: client, ttl: ttl, logger: logger}, nil
}

func key(id uint) string {
	return fmt.Sprintf("canvasflow:workflow:%d", id)
}

// GetDocument returns the cached document for id, or (nil, false) on a
// miss.
func (m *Manager) GetDocument(ctx context.Context, id uint) (*graph.Document, bool) {
	data, err := m.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			m.logger.Warn("cache read failed", zap.Uint("id", id), zap.Error(err))
		}
		return nil, false
	}
	doc, err := graph.Import(data)
	if err != nil {
		m.logger.Warn("cache entry corrupt, dropping", zap.Uint("id", id), zap.Error(err))
		m.Invalidate(ctx, id)
		return nil, false
	}
	return doc, true
}

// PutDocument stores a document under its id.
func (m *Manager) PutDocument(ctx context.Context, doc *graph.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		m.logger.Warn("cache marshal failed", zap.Uint("id", doc.ID), zap.Error(err))
		return
	}
	if err := m.client.Set(ctx, key(doc.ID), data, m.ttl).Err(); err != nil {
		m.logger.Warn("cache write failed", zap.Uint("id", doc.ID), zap.Error(err))
	}
}

// Invalidate drops a cached document after a save or delete.
func (m *Manager) Invalidate(ctx context.Context, id uint) {
	if err := m.client.Del(ctx, key(id)).Err(); err != nil {
		m.logger.Warn("cache invalidate failed", zap.Uint("id", id), zap.Error(err))
	}
}

// Close releases the Redis connection.
func (m *Manager) Close() error {
	return m.client.Close()
}
