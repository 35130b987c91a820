package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
)

// StoreFactory creates cache stores based on configuration
type StoreFactory struct {
	redisConfig      config.RedisConfig
	logger           *zap.Logger
	allowMemFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true (allow fallback).
func WithMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowMemFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:      cfg,
		logger:           zap.NewNop(),
		allowMemFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-backed cache store
func (f *StoreFactory) CreateRedisStore() (Store, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	store, err := NewRedisStore(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cache store: %w", err)
	}

	return store, nil
}

// CreateMemoryStore creates an in-memory cache store
// This is suitable for single-instance deployments and testing
func (f *StoreFactory) CreateMemoryStore() Store {
	return NewMemoryStore()
}

// CreateStore creates a cache store for the requested backend.
// When backend is "redis" and Redis is unreachable, it falls back to the
// in-memory store unless WithMemoryFallback(false) was set.
func (f *StoreFactory) CreateStore(backend string) (Store, error) {
	if backend != "redis" {
		f.logger.Info("using in-memory cache store")
		return f.CreateMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis cache store")
		return store, nil
	}

	if !f.allowMemFallback {
		return nil, fmt.Errorf("Redis required for cache but unavailable: %w", err)
	}

	// Fall back to in-memory with warning
	f.logger.Warn("Redis unavailable, falling back to in-memory cache store. "+
		"Master data will be cached per instance.",
		zap.Error(err),
	)
	return f.CreateMemoryStore(), nil
}
