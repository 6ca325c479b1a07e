package world

import (
	"fmt"

	"github.com/davide97g/mini-world/internal/storage"
	"github.com/davide97g/mini-world/internal/tilemap"
	"github.com/pixil98/go-errors"
)

// Direction is the player's facing at save time.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Position is a pixel coordinate plus optional facing.
type Position struct {
	X         float64
	Y         float64
	Direction Direction
}

// Metadata is the subset of a save record shown in world lists.
type Metadata struct {
	WorldID       string
	WorldName     string
	CreatedAt     int64 // unix milliseconds
	LastPlayedAt  int64 // unix milliseconds
	TotalPlayTime int64 // milliseconds
}

// SceneState is the tile-level state one scene owns: collection counters,
// player-placed tiles, and tiles hidden by exhaustion.
type SceneState struct {
	CollectionCounts map[string]int
	PlacedTiles      []tilemap.PlacedTile
	HiddenTiles      []tilemap.HiddenTile
}

// SaveRecord is the canonical in-memory form of a world's serialized state.
// Exactly one record exists per world id; last write wins. The legacy/scene
// dual-field layout of the wire format lives only in the codec — nothing
// else reasons about which JSON field wins.
type SaveRecord struct {
	Metadata

	// SessionStart is non-zero only while a play session is active.
	SessionStart int64

	// Position is nil when the record predates position tracking; loading
	// then falls back to the map spawn point.
	Position *Position

	Inventory map[string]int

	Scene SceneState

	MusicVolume float64
	Muted       bool

	// Energy is nil on records created before the first in-game save.
	Energy *float64

	// Foreign carries fields owned by other scenes, round-tripped verbatim
	// so saving from this scene never clobbers their state.
	Foreign storage.RawState
}

// Validate rejects records that violate the schema's hard constraints.
// Absent optional fields are fine; out-of-range values are not.
func (r *SaveRecord) Validate() error {
	el := errors.NewErrorList()

	if r.WorldID == "" {
		el.Add(fmt.Errorf("worldId must be set"))
	}
	if r.MusicVolume < 0 || r.MusicVolume > 1 {
		el.Add(fmt.Errorf("musicVolume must be in [0,1], got %v", r.MusicVolume))
	}
	if r.TotalPlayTime < 0 {
		el.Add(fmt.Errorf("totalPlayTime must be non-negative"))
	}
	if r.Energy != nil && *r.Energy < 0 {
		el.Add(fmt.Errorf("energy must be non-negative"))
	}
	for key, count := range r.Scene.CollectionCounts {
		if count < 0 {
			el.Add(fmt.Errorf("collection count for %q must be non-negative", key))
		}
	}
	for id, qty := range r.Inventory {
		if qty < 0 {
			el.Add(fmt.Errorf("inventory quantity for %q must be non-negative", id))
		}
	}

	return el.Err()
}

// IsNewGame reports whether the record shows no progress: position absent or
// exactly (0,0), empty inventory, nothing placed and nothing hidden. Loading
// such a record substitutes the map's spawn point for the stored position.
func (r *SaveRecord) IsNewGame() bool {
	if r.Position != nil && (r.Position.X != 0 || r.Position.Y != 0) {
		return false
	}

	for _, qty := range r.Inventory {
		if qty != 0 {
			return false
		}
	}

	return len(r.Scene.PlacedTiles) == 0 && len(r.Scene.HiddenTiles) == 0
}
