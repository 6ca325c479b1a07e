package tiles

import (
	"sync"

	"github.com/davide97g/mini-world/internal/tilemap"
)

// Ledger tracks tiles the player introduced to the map, separate from
// collected/hidden tiles. Entries are keyed by coordinate: placing on an
// occupied coordinate overwrites the earlier entry in place, so the ledger
// always holds the terminal state of each coordinate.
type Ledger struct {
	gameMap *tilemap.Map

	mu      sync.RWMutex
	order   []string
	entries map[string]tilemap.PlacedTile
}

func NewLedger(gameMap *tilemap.Map) *Ledger {
	return &Ledger{
		gameMap: gameMap,
		entries: map[string]tilemap.PlacedTile{},
	}
}

// RecordPlacement applies a placement to the map and records it for
// persistence.
func (l *Ledger) RecordPlacement(x, y, gid int, collides bool) {
	placed := tilemap.PlacedTile{X: x, Y: y, Gid: gid, Collides: collides}
	l.gameMap.PlaceTile(placed)

	l.mu.Lock()
	defer l.mu.Unlock()

	key := tilemap.Key(x, y)
	if _, ok := l.entries[key]; !ok {
		l.order = append(l.order, key)
	}
	l.entries[key] = placed
}

// PlacedTiles exports the ledger in insertion order for saving.
func (l *Ledger) PlacedTiles() []tilemap.PlacedTile {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]tilemap.PlacedTile, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.entries[key])
	}
	return out
}

// LoadPlacedTiles replaces the ledger with persisted entries and replays each
// against the map. Every entry fully specifies its coordinate's final state,
// so replay order does not matter and replaying twice changes nothing.
func (l *Ledger) LoadPlacedTiles(placed []tilemap.PlacedTile) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = nil
	l.entries = make(map[string]tilemap.PlacedTile, len(placed))

	for _, p := range placed {
		l.gameMap.PlaceTile(p)

		key := tilemap.Key(p.X, p.Y)
		if _, ok := l.entries[key]; !ok {
			l.order = append(l.order, key)
		}
		l.entries[key] = p
	}
}
