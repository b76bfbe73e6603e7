package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	// DefaultRedisKeyPrefix namespaces mapping hashes.
	DefaultRedisKeyPrefix = "billmigrate:id_mappings"

	redisKeyTemplateConstant = "%s:%s"
)

// RedisStore keeps one hash per resource kind, keyed by source identifier.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfiguration locates the Redis server.
type RedisConfiguration struct {
	Address   string
	Password  string
	Database  int
	KeyPrefix string
}

// OpenRedisStore connects to Redis and verifies the connection.
func OpenRedisStore(executionContext context.Context, configuration RedisConfiguration) (*RedisStore, error) {
	if len(configuration.Address) == 0 {
		return nil, errors.New(missingRedisAddressMessage)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     configuration.Address,
		Password: configuration.Password,
		DB:       configuration.Database,
	})
	if pingError := client.Ping(executionContext).Err(); pingError != nil {
		_ = client.Close()
		return nil, StoreError{Operation: storeOperationOpenConstant, Cause: pingError}
	}
	return NewRedisStore(client, configuration.KeyPrefix), nil
}

// NewRedisStore wraps an existing client. An empty prefix selects DefaultRedisKeyPrefix.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if len(keyPrefix) == 0 {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (store *RedisStore) hashKey(kind billing.ResourceKind) string {
	return fmt.Sprintf(redisKeyTemplateConstant, store.keyPrefix, kind)
}

// Load returns every mapping of kind.
func (store *RedisStore) Load(executionContext context.Context, kind billing.ResourceKind) (map[string]string, error) {
	mappings, loadError := store.client.HGetAll(executionContext, store.hashKey(kind)).Result()
	if loadError != nil {
		return nil, StoreError{Operation: storeOperationLoadConstant, Kind: kind, Cause: loadError}
	}
	return mappings, nil
}

// Get returns the destination identifier of sourceID.
func (store *RedisStore) Get(executionContext context.Context, kind billing.ResourceKind, sourceID string) (string, bool, error) {
	destinationID, getError := store.client.HGet(executionContext, store.hashKey(kind), sourceID).Result()
	switch {
	case errors.Is(getError, redis.Nil):
		return "", false, nil
	case getError != nil:
		return "", false, StoreError{Operation: storeOperationGetConstant, Kind: kind, Cause: getError}
	}
	return destinationID, true, nil
}

// Put sets the mapping only when the field is absent.
func (store *RedisStore) Put(executionContext context.Context, kind billing.ResourceKind, sourceID string, destinationID string) error {
	if len(sourceID) == 0 || len(destinationID) == 0 {
		return StoreError{Operation: storeOperationPutConstant, Kind: kind, Cause: errEmptyIdentifier}
	}
	if putError := store.client.HSetNX(executionContext, store.hashKey(kind), sourceID, destinationID).Err(); putError != nil {
		return StoreError{Operation: storeOperationPutConstant, Kind: kind, Cause: putError}
	}
	return nil
}

// Close closes the client.
func (store *RedisStore) Close() error {
	return store.client.Close()
}
