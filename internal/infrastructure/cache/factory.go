package cache

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/onecube/backend/internal/domain/channel"
	"github.com/onecube/backend/internal/infrastructure/config"
	"github.com/onecube/backend/internal/infrastructure/persistence"
)

// StateStoreFactory creates OAuth state stores based on configuration.
// There is deliberately no in-memory option and no silent fallback: state
// tokens must survive restarts and be shared across instances, so an
// unavailable backend is a startup failure.
type StateStoreFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// StateStoreFactoryOption is a functional option for configuring the factory
type StateStoreFactoryOption func(*StateStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StateStoreFactoryOption {
	return func(f *StateStoreFactory) {
		f.logger = logger
	}
}

// NewStateStoreFactory creates a new factory
func NewStateStoreFactory(cfg config.RedisConfig, opts ...StateStoreFactoryOption) *StateStoreFactory {
	f := &StateStoreFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore creates the state store named by backend. The db argument
// serves the postgres backend and may be nil for redis.
func (f *StateStoreFactory) CreateStore(backend string, db *gorm.DB) (channel.StateStore, error) {
	switch backend {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres state backend requires a database connection")
		}
		f.logger.Info("using postgres oauth state store")
		return persistence.NewGormOAuthStateRepository(db), nil
	case "redis":
		store, err := NewRedisStateStoreFromConfig(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis oauth state store: %w", err)
		}
		f.logger.Info("using redis oauth state store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown oauth state backend %q (want postgres or redis)", backend)
	}
}
