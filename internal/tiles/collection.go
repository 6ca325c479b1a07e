package tiles

import (
	"log/slog"
	"sync"

	"github.com/davide97g/mini-world/internal/tilemap"
)

// DefaultProximityRadius is the pixel distance within which a collectable
// tile can be harvested (1.5 tiles at the default tile size).
const DefaultProximityRadius = 48.0

// Limits maps an item id to the number of times one tile of that item may be
// collected before it is exhausted and hidden. Items without an entry are
// collectible indefinitely.
type Limits map[string]int

// Limit returns the configured limit for an item and whether one exists.
func (l Limits) Limit(itemID string) (int, bool) {
	limit, ok := l[itemID]
	return limit, ok
}

// Collectable identifies a harvestable tile near the player.
type Collectable struct {
	ItemID string
	TileX  int
	TileY  int
}

// IndicatorView receives progress-indicator updates for limited tiles. The
// rendering layer implements this; the tracker only decides when an
// indicator exists and what it shows.
type IndicatorView interface {
	Update(tileX, tileY int, collected, limit int)
	Remove(tileX, tileY int)
}

type noopIndicator struct{}

func (noopIndicator) Update(int, int, int, int) {}
func (noopIndicator) Remove(int, int)           {}

// Tracker is the per-world collection state machine. A tile is Available
// while its counter is below the item's limit; the collect that reaches the
// limit hides the tile and the tile stays Exhausted for the life of the
// world. Counters only reset when the world is deleted.
type Tracker struct {
	gameMap *tilemap.Map
	limits  Limits
	radius  float64

	indicators IndicatorView

	onCollected    func(itemID string, quantity int)
	onCountChanged func()

	mu     sync.RWMutex
	counts map[string]int
}

type TrackerOpt func(*Tracker)

// WithProximityRadius overrides the pixel radius for collection eligibility.
func WithProximityRadius(radius float64) TrackerOpt {
	return func(t *Tracker) {
		t.radius = radius
	}
}

// WithIndicatorView attaches a progress-indicator renderer.
func WithIndicatorView(v IndicatorView) TrackerOpt {
	return func(t *Tracker) {
		t.indicators = v
	}
}

// WithOnCollected registers the collected-unit notification, fired once per
// successful collect.
func WithOnCollected(fn func(itemID string, quantity int)) TrackerOpt {
	return func(t *Tracker) {
		t.onCollected = fn
	}
}

// WithOnCountChanged registers the count-changed notification used for save
// scheduling. It fires on every collect, whether or not the limit was hit.
func WithOnCountChanged(fn func()) TrackerOpt {
	return func(t *Tracker) {
		t.onCountChanged = fn
	}
}

func NewTracker(gameMap *tilemap.Map, limits Limits, opts ...TrackerOpt) *Tracker {
	t := &Tracker{
		gameMap:    gameMap,
		limits:     limits,
		radius:     DefaultProximityRadius,
		indicators: noopIndicator{},
		counts:     map[string]int{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// CheckProximity scans the 3x3 tile neighborhood around the player's
// containing tile, row-major, and returns the first visible collectable tile
// within the proximity radius whose counter has not reached its limit.
// First match wins; ties resolve by scan order, not by distance.
func (t *Tracker) CheckProximity(playerX, playerY float64) *Collectable {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tileX, tileY := t.gameMap.WorldToTile(playerX, playerY)

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			checkX := tileX + dx
			checkY := tileY + dy

			cx, cy := t.gameMap.TileCenter(checkX, checkY)
			distX := playerX - cx
			distY := playerY - cy
			if distX*distX+distY*distY > t.radius*t.radius {
				continue
			}

			tile := t.gameMap.TileAt(tilemap.LayerWorld, checkX, checkY)
			if tile == nil || tile.Hidden() {
				continue
			}

			itemID := tile.Property(tilemap.PropCollectable)
			if itemID == "" {
				continue
			}

			if limit, ok := t.limits.Limit(itemID); ok {
				if t.counts[tilemap.Key(checkX, checkY)] >= limit {
					// Exhausted tiles are skipped, not returned
					continue
				}
			}

			return &Collectable{ItemID: itemID, TileX: checkX, TileY: checkY}
		}
	}

	return nil
}

// Collect harvests one unit from a tile: the counter increments, the
// count-changed notification always fires, and when the post-increment
// counter reaches the item's limit the tile is hidden via hideTile and its
// progress indicator removed. Unlimited items never exhaust and never get an
// indicator.
func (t *Tracker) Collect(itemID string, tileX, tileY int, hideTile func(tileX, tileY int)) {
	t.mu.Lock()

	key := tilemap.Key(tileX, tileY)
	newCount := t.counts[key] + 1
	t.counts[key] = newCount

	limit, limited := t.limits.Limit(itemID)

	t.mu.Unlock()

	if t.onCountChanged != nil {
		t.onCountChanged()
	}

	if limited {
		t.indicators.Update(tileX, tileY, newCount, limit)

		if newCount >= limit {
			if hideTile != nil {
				hideTile(tileX, tileY)
			}
			t.indicators.Remove(tileX, tileY)
			slog.Debug("tile exhausted", "item", itemID, "x", tileX, "y", tileY, "limit", limit)
		}
	}

	if t.onCollected != nil {
		t.onCollected(itemID, 1)
	}
}

// Counts exports the per-tile collection counters for saving.
func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// LoadCounts replaces the counters with persisted state. Tiles already at or
// above their limit re-enter the exhausted state immediately: hideTile is
// invoked for each so a reloaded world cannot offer an exhausted tile again.
func (t *Tracker) LoadCounts(counts map[string]int, hideTile func(tileX, tileY int)) {
	t.mu.Lock()

	t.counts = make(map[string]int, len(counts))
	for k, v := range counts {
		t.counts[k] = v
	}

	var exhausted [][2]int
	if hideTile != nil {
		for key, count := range t.counts {
			x, y, ok := tilemap.ParseKey(key)
			if !ok {
				slog.Debug("skipping malformed tile key", "key", key)
				continue
			}

			tile := t.gameMap.TileAt(tilemap.LayerWorld, x, y)
			if tile == nil {
				continue
			}
			itemID := tile.Property(tilemap.PropCollectable)
			if itemID == "" {
				continue
			}
			if limit, ok := t.limits.Limit(itemID); ok && count >= limit {
				exhausted = append(exhausted, [2]int{x, y})
			}
		}
	}

	t.mu.Unlock()

	for _, c := range exhausted {
		hideTile(c[0], c[1])
	}
}
