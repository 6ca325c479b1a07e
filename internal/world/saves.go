package world

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/davide97g/mini-world/internal/storage"
	"github.com/google/uuid"
)

// DefaultMusicVolume seeds new worlds' audio settings.
const DefaultMusicVolume = 0.5

// Model reads and writes save records. It is the single writer of save keys:
// all persistence flows through Save, which registers the world only after
// the record write succeeds. A missing registry entry is preferable to an
// indexed id whose record never landed.
type Model struct {
	store    storage.Store
	registry *Registry
	clock    func() time.Time

	// onQuotaWarning surfaces a user-visible alert the first time a write is
	// rejected for space. Further rejections stay quiet until a write
	// succeeds again.
	onQuotaWarning func(worldID string)

	mu          sync.Mutex
	quotaWarned bool
}

type ModelOpt func(*Model)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) ModelOpt {
	return func(m *Model) {
		m.clock = clock
	}
}

// WithQuotaWarning registers the user-visible quota alert.
func WithQuotaWarning(fn func(worldID string)) ModelOpt {
	return func(m *Model) {
		m.onQuotaWarning = fn
	}
}

func NewModel(store storage.Store, registry *Registry, opts ...ModelOpt) *Model {
	m := &Model{
		store:    store,
		registry: registry,
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load returns the save record for a world, or nil when the record is absent
// or unreadable. Corruption degrades to absence by design: a fresh start is
// indistinguishable from a first-ever session.
func (m *Model) Load(worldID string) *SaveRecord {
	data, ok := m.store.Get(SaveKey(worldID))
	if !ok {
		return nil
	}

	record, ok := DecodeRecord(data)
	if !ok {
		return nil
	}
	return record
}

// Save validates, serializes, and writes a record, then registers its world
// id. A quota rejection surfaces the warning hook, leaves the previous
// on-disk record authoritative, and skips the registry update.
func (m *Model) Save(record *SaveRecord) error {
	err := record.Validate()
	if err != nil {
		return fmt.Errorf("validating save record: %w", err)
	}

	data, err := EncodeRecord(record)
	if err != nil {
		return err
	}

	err = m.store.Set(SaveKey(record.WorldID), data)
	if err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			m.warnQuota(record.WorldID)
			return fmt.Errorf("saving world %s: %w", record.WorldID, err)
		}
		return fmt.Errorf("saving world %s: %w", record.WorldID, err)
	}

	m.mu.Lock()
	m.quotaWarned = false
	m.mu.Unlock()

	err = m.registry.AddWorld(record.WorldID)
	if err != nil {
		// The record landed; a stale list self-heals on the next save
		slog.Warn("failed to register world after save", "worldId", record.WorldID, "error", err)
	}

	return nil
}

func (m *Model) warnQuota(worldID string) {
	m.mu.Lock()
	warned := m.quotaWarned
	m.quotaWarned = true
	m.mu.Unlock()

	slog.Warn("save rejected: storage quota exceeded", "worldId", worldID)
	if !warned && m.onQuotaWarning != nil {
		m.onQuotaWarning(worldID)
	}
}

// CreateWorld initializes and persists a default record under a fresh id,
// registers it, and makes it the current world. Uniqueness is best-effort:
// millisecond timestamp plus a random suffix.
func (m *Model) CreateWorld(name string) (string, error) {
	now := m.clock().UnixMilli()
	worldID := fmt.Sprintf("world-%d-%s", now, strings.Split(uuid.NewString(), "-")[0])

	record := &SaveRecord{
		Metadata: Metadata{
			WorldID:       worldID,
			WorldName:     name,
			CreatedAt:     now,
			LastPlayedAt:  now,
			TotalPlayTime: 0,
		},
		SessionStart: now,
		Position:     &Position{X: 0, Y: 0},
		Inventory:    map[string]int{},
		Scene: SceneState{
			CollectionCounts: map[string]int{},
		},
		MusicVolume: DefaultMusicVolume,
	}

	err := m.Save(record)
	if err != nil {
		return "", fmt.Errorf("creating world %q: %w", name, err)
	}

	err = m.registry.SetCurrentWorld(worldID)
	if err != nil {
		return "", fmt.Errorf("creating world %q: %w", name, err)
	}

	return worldID, nil
}

// DeleteWorld removes a world's record and registry entry, clearing the
// current-world pointer if it pointed there. Deleting an absent world
// returns true; only an underlying write failure returns false.
func (m *Model) DeleteWorld(worldID string) bool {
	m.store.Remove(SaveKey(worldID))

	err := m.registry.RemoveWorld(worldID)
	if err != nil {
		slog.Warn("failed to remove world from list", "worldId", worldID, "error", err)
		return false
	}

	if m.registry.CurrentWorldID() == worldID {
		m.registry.ClearCurrentWorld()
	}

	return true
}

// AllWorlds returns metadata for every listed world, most recently played
// first. Ids whose record is missing or unreadable are skipped, not fatal:
// the store has no cross-key transactions, so the list may briefly index a
// record that never landed.
func (m *Model) AllWorlds() []Metadata {
	var worlds []Metadata
	for _, worldID := range m.registry.ListWorldIDs() {
		record := m.Load(worldID)
		if record == nil {
			slog.Debug("skipping world with unreadable record", "worldId", worldID)
			continue
		}
		worlds = append(worlds, record.Metadata)
	}

	sort.SliceStable(worlds, func(i, j int) bool {
		return worlds[i].LastPlayedAt > worlds[j].LastPlayedAt
	})
	return worlds
}

// FormatPlayTime renders a play-time duration the way the world list shows
// it: "2h 5m", "3m 20s", or "45s".
func FormatPlayTime(milliseconds int64) string {
	seconds := milliseconds / 1000
	minutes := seconds / 60
	hours := minutes / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	return fmt.Sprintf("%ds", seconds)
}
