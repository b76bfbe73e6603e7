package mapping

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	storeErrorTemplateConstant       = "mapping store %s %s: %w"
	storeOperationLoadConstant       = "load"
	storeOperationGetConstant        = "get"
	storeOperationPutConstant        = "put"
	storeOperationOpenConstant       = "open"
	emptyIdentifierMessageConstant   = "mapping entries require source and destination identifiers"
	unknownBackendTemplateConstant   = "unknown mapping backend %q"
	missingSQLitePathMessageConstant = "sqlite mapping backend requires a path"
	missingRedisAddressMessage       = "redis mapping backend requires an address"
)

var errEmptyIdentifier = errors.New(emptyIdentifierMessageConstant)

// Store persists source to destination identifier mappings per resource kind. Put never
// overwrites an existing entry.
type Store interface {
	Load(executionContext context.Context, kind billing.ResourceKind) (map[string]string, error)
	Get(executionContext context.Context, kind billing.ResourceKind, sourceID string) (string, bool, error)
	Put(executionContext context.Context, kind billing.ResourceKind, sourceID string, destinationID string) error
	Close() error
}

// StoreError wraps backend failures.
type StoreError struct {
	Operation string
	Kind      billing.ResourceKind
	Cause     error
}

// Error describes the failure.
func (storeError StoreError) Error() string {
	return fmt.Errorf(storeErrorTemplateConstant, storeError.Operation, storeError.Kind, storeError.Cause).Error()
}

// Unwrap exposes the underlying cause.
func (storeError StoreError) Unwrap() error {
	return storeError.Cause
}

// MemoryStore keeps mappings in process memory.
type MemoryStore struct {
	mutex   sync.RWMutex
	entries map[billing.ResourceKind]map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[billing.ResourceKind]map[string]string{}}
}

// Load returns a copy of every mapping of kind.
func (store *MemoryStore) Load(_ context.Context, kind billing.ResourceKind) (map[string]string, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	snapshot := make(map[string]string, len(store.entries[kind]))
	for sourceID, destinationID := range store.entries[kind] {
		snapshot[sourceID] = destinationID
	}
	return snapshot, nil
}

// Get returns the destination identifier of sourceID.
func (store *MemoryStore) Get(_ context.Context, kind billing.ResourceKind, sourceID string) (string, bool, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	destinationID, found := store.entries[kind][sourceID]
	return destinationID, found, nil
}

// Put records a mapping unless sourceID is already mapped.
func (store *MemoryStore) Put(_ context.Context, kind billing.ResourceKind, sourceID string, destinationID string) error {
	if len(sourceID) == 0 || len(destinationID) == 0 {
		return StoreError{Operation: storeOperationPutConstant, Kind: kind, Cause: errEmptyIdentifier}
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	kindEntries, exists := store.entries[kind]
	if !exists {
		kindEntries = map[string]string{}
		store.entries[kind] = kindEntries
	}
	if _, mapped := kindEntries[sourceID]; mapped {
		return nil
	}
	kindEntries[sourceID] = destinationID
	return nil
}

// Close is a no-op.
func (store *MemoryStore) Close() error {
	return nil
}
