package world

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/davide97g/mini-world/internal/storage"
)

const (
	// SaveKeyPrefix prefixes each world's save record key in the store.
	SaveKeyPrefix = "mini-world-save-"

	worldsListKey   = "mini-world-worlds-list"
	currentWorldKey = "mini-world-current-world"
)

// SaveKey returns the store key holding a world's save record.
func SaveKey(worldID string) string {
	return SaveKeyPrefix + worldID
}

// Registry owns the list of known world ids and the current-world pointer.
// It is the only writer of both keys. A corrupt persisted list degrades to
// an empty one; it never surfaces as an error.
type Registry struct {
	store storage.Store

	mu sync.Mutex
}

func NewRegistry(store storage.Store) *Registry {
	return &Registry{store: store}
}

// ListWorldIDs returns the known world ids in insertion order.
func (r *Registry) ListWorldIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.readList()
}

// AddWorld appends a world id to the list. Adding an id already present is a
// no-op, so the list never holds duplicates.
func (r *Registry) AddWorld(worldID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.readList()
	for _, id := range ids {
		if id == worldID {
			return nil
		}
	}

	return r.writeList(append(ids, worldID))
}

// RemoveWorld drops a world id from the list. Removing an absent id is a
// no-op.
func (r *Registry) RemoveWorld(worldID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.readList()
	filtered := ids[:0]
	for _, id := range ids {
		if id != worldID {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == len(ids) {
		return nil
	}

	return r.writeList(filtered)
}

// CurrentWorldID returns the current-world pointer, or "" when unset.
func (r *Registry) CurrentWorldID() string {
	id, _ := r.store.Get(currentWorldKey)
	return id
}

// SetCurrentWorld overwrites the current-world pointer unconditionally.
func (r *Registry) SetCurrentWorld(worldID string) error {
	err := r.store.Set(currentWorldKey, worldID)
	if err != nil {
		return fmt.Errorf("setting current world: %w", err)
	}
	return nil
}

// ClearCurrentWorld removes the current-world pointer.
func (r *Registry) ClearCurrentWorld() {
	r.store.Remove(currentWorldKey)
}

func (r *Registry) readList() []string {
	data, ok := r.store.Get(worldsListKey)
	if !ok {
		return nil
	}

	ids, ok := storage.DecodeJSON[[]string](data, "worlds list")
	if !ok {
		return nil
	}
	return *ids
}

func (r *Registry) writeList(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshalling worlds list: %w", err)
	}

	err = r.store.Set(worldsListKey, string(data))
	if err != nil {
		return fmt.Errorf("writing worlds list: %w", err)
	}
	return nil
}
