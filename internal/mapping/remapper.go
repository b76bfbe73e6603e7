package mapping

import (
	"context"
	"errors"
	"sync"

	"github.com/temirov/billmigrate/internal/billing"
)

const missingStoreMessageConstant = "remapper requires a mapping store"

// Remapper serves identifier lookups from a per-kind snapshot and writes new mappings
// through to its store as soon as they are recorded.
type Remapper struct {
	store     Store
	mutex     sync.RWMutex
	snapshots map[billing.ResourceKind]map[string]string
}

// NewRemapper builds a Remapper over store.
func NewRemapper(store Store) (*Remapper, error) {
	if store == nil {
		return nil, errors.New(missingStoreMessageConstant)
	}
	return &Remapper{store: store, snapshots: map[billing.ResourceKind]map[string]string{}}, nil
}

// Load refreshes the snapshot of every given kind from the store.
func (remapper *Remapper) Load(executionContext context.Context, kinds ...billing.ResourceKind) error {
	for _, kind := range kinds {
		snapshot, loadError := remapper.store.Load(executionContext, kind)
		if loadError != nil {
			return loadError
		}
		remapper.mutex.Lock()
		remapper.snapshots[kind] = snapshot
		remapper.mutex.Unlock()
	}
	return nil
}

// Get returns the destination identifier of sourceID from the loaded snapshot.
func (remapper *Remapper) Get(kind billing.ResourceKind, sourceID string) (string, bool) {
	remapper.mutex.RLock()
	defer remapper.mutex.RUnlock()
	destinationID, found := remapper.snapshots[kind][sourceID]
	return destinationID, found
}

// Mapped reports whether sourceID already has a destination.
func (remapper *Remapper) Mapped(kind billing.ResourceKind, sourceID string) bool {
	_, found := remapper.Get(kind, sourceID)
	return found
}

// Put persists a new mapping and adds it to the snapshot. A source identifier that is
// already mapped keeps its original destination.
func (remapper *Remapper) Put(executionContext context.Context, kind billing.ResourceKind, sourceID string, destinationID string) error {
	if remapper.Mapped(kind, sourceID) {
		return nil
	}
	if putError := remapper.store.Put(executionContext, kind, sourceID, destinationID); putError != nil {
		return putError
	}

	remapper.mutex.Lock()
	defer remapper.mutex.Unlock()
	snapshot, exists := remapper.snapshots[kind]
	if !exists {
		snapshot = map[string]string{}
		remapper.snapshots[kind] = snapshot
	}
	if _, mapped := snapshot[sourceID]; !mapped {
		snapshot[sourceID] = destinationID
	}
	return nil
}

// Count returns the number of mappings loaded or recorded for kind.
func (remapper *Remapper) Count(kind billing.ResourceKind) int {
	remapper.mutex.RLock()
	defer remapper.mutex.RUnlock()
	return len(remapper.snapshots[kind])
}
