package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wms/backend/internal/infrastructure/config"
)

// UIStateStoreFactory creates UI state stores based on configuration
type UIStateStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// UIStateStoreFactoryOption is a functional option for configuring the factory
type UIStateStoreFactoryOption func(*UIStateStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) UIStateStoreFactoryOption {
	return func(f *UIStateStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) UIStateStoreFactoryOption {
	return func(f *UIStateStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewUIStateStoreFactory creates a new factory
func NewUIStateStoreFactory(cfg config.RedisConfig, opts ...UIStateStoreFactoryOption) *UIStateStoreFactory {
	f := &UIStateStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore creates a UI state store for the configured backend.
// The "redis" backend falls back to in-memory when Redis is unreachable
// and fallback is allowed.
func (f *UIStateStoreFactory) CreateStore(backend string) (UIStateStore, error) {
	switch backend {
	case "memory":
		return NewInMemoryUIStateStore(), nil
	case "redis":
		store, err := NewRedisUIStateStore(f.redisConfig)
		if err == nil {
			f.logger.Info("using Redis ui state store")
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for ui state but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory ui state store. "+
			"Client state will not be shared across instances.",
			zap.Error(err),
		)
		return NewInMemoryUIStateStore(), nil
	default:
		return nil, fmt.Errorf("unknown ui state store backend %q", backend)
	}
}
