package mapping

import (
	"context"
	"fmt"
	"strings"
)

// Mapping store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreConfiguration selects and locates the mapping store.
type StoreConfiguration struct {
	Backend        string `mapstructure:"backend" yaml:"backend" validate:"omitempty,oneof=memory sqlite redis"`
	SQLitePath     string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisAddress   string `mapstructure:"redis_address" yaml:"redis_address"`
	RedisPassword  string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDatabase  int    `mapstructure:"redis_database" yaml:"redis_database"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix" yaml:"redis_key_prefix"`
}

// OpenStore opens the configured backend. An empty backend selects SQLite.
func OpenStore(executionContext context.Context, configuration StoreConfiguration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(configuration.Backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite, "":
		return OpenSQLiteStore(configuration.SQLitePath)
	case BackendRedis:
		return OpenRedisStore(executionContext, RedisConfiguration{
			Address:   configuration.RedisAddress,
			Password:  configuration.RedisPassword,
			Database:  configuration.RedisDatabase,
			KeyPrefix: configuration.RedisKeyPrefix,
		})
	default:
		return nil, fmt.Errorf(unknownBackendTemplateConstant, configuration.Backend)
	}
}
