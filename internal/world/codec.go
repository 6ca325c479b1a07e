package world

import (
	"encoding/json"
	"fmt"

	"github.com/davide97g/mini-world/internal/storage"
	"github.com/davide97g/mini-world/internal/tilemap"
)

// The wire format carries two parallel representations of position and tile
// state: scene-specific fields (gameScenePosition, gameSceneState) and the
// legacy top-level fields older builds wrote. Writes keep both in sync;
// reads prefer the scene-specific fields and fall back to legacy. Fields
// this codec does not know about (other scenes' state) pass through intact.
const (
	fieldWorldID          = "worldId"
	fieldWorldName        = "worldName"
	fieldCreatedAt        = "createdAt"
	fieldLastPlayedAt     = "lastPlayedAt"
	fieldTotalPlayTime    = "totalPlayTime"
	fieldSessionStartTime = "sessionStartTime"
	fieldScenePosition    = "gameScenePosition"
	fieldLegacyPosition   = "playerPosition"
	fieldInventory        = "inventory"
	fieldSceneState       = "gameSceneState"
	fieldLegacyCounts     = "tileCollectionCounts"
	fieldLegacyPlaced     = "modifiedTiles"
	fieldLegacyHidden     = "hiddenTiles"
	fieldMusicVolume      = "musicVolume"
	fieldIsMuted          = "isMuted"
	fieldEnergy           = "energy"
)

type positionJSON struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Direction Direction `json:"direction,omitempty"`
}

type sceneStateJSON struct {
	TileCollectionCounts map[string]int       `json:"tileCollectionCounts"`
	ModifiedTiles        []tilemap.PlacedTile `json:"modifiedTiles"`
	HiddenTiles          []tilemap.HiddenTile `json:"hiddenTiles"`
}

// EncodeRecord serializes a record into the dual legacy/scene wire shape.
func EncodeRecord(r *SaveRecord) (string, error) {
	doc := r.Foreign.Clone()
	if doc == nil {
		doc = storage.RawState{}
	}

	set := func(key string, v any) error {
		return doc.Set(key, v)
	}

	if err := set(fieldWorldID, r.WorldID); err != nil {
		return "", err
	}
	if err := set(fieldWorldName, r.WorldName); err != nil {
		return "", err
	}
	if err := set(fieldCreatedAt, r.CreatedAt); err != nil {
		return "", err
	}
	if err := set(fieldLastPlayedAt, r.LastPlayedAt); err != nil {
		return "", err
	}
	if err := set(fieldTotalPlayTime, r.TotalPlayTime); err != nil {
		return "", err
	}

	if r.SessionStart != 0 {
		if err := set(fieldSessionStartTime, r.SessionStart); err != nil {
			return "", err
		}
	} else {
		doc.Delete(fieldSessionStartTime)
	}

	if r.Position != nil {
		pos := positionJSON{X: r.Position.X, Y: r.Position.Y, Direction: r.Position.Direction}
		if err := set(fieldScenePosition, pos); err != nil {
			return "", err
		}
		if err := set(fieldLegacyPosition, pos); err != nil {
			return "", err
		}
	} else {
		doc.Delete(fieldScenePosition)
		doc.Delete(fieldLegacyPosition)
	}

	// Zero quantities mean the same as absence; prune them on the way out
	inventory := map[string]int{}
	for id, qty := range r.Inventory {
		if qty > 0 {
			inventory[id] = qty
		}
	}
	if err := set(fieldInventory, inventory); err != nil {
		return "", err
	}

	scene := sceneStateJSON{
		TileCollectionCounts: r.Scene.CollectionCounts,
		ModifiedTiles:        r.Scene.PlacedTiles,
		HiddenTiles:          r.Scene.HiddenTiles,
	}
	if scene.TileCollectionCounts == nil {
		scene.TileCollectionCounts = map[string]int{}
	}
	if scene.ModifiedTiles == nil {
		scene.ModifiedTiles = []tilemap.PlacedTile{}
	}
	if scene.HiddenTiles == nil {
		scene.HiddenTiles = []tilemap.HiddenTile{}
	}
	if err := set(fieldSceneState, scene); err != nil {
		return "", err
	}
	if err := set(fieldLegacyCounts, scene.TileCollectionCounts); err != nil {
		return "", err
	}
	if err := set(fieldLegacyPlaced, scene.ModifiedTiles); err != nil {
		return "", err
	}
	if err := set(fieldLegacyHidden, scene.HiddenTiles); err != nil {
		return "", err
	}

	if err := set(fieldMusicVolume, r.MusicVolume); err != nil {
		return "", err
	}
	if err := set(fieldIsMuted, r.Muted); err != nil {
		return "", err
	}
	if r.Energy != nil {
		if err := set(fieldEnergy, *r.Energy); err != nil {
			return "", err
		}
	} else {
		doc.Delete(fieldEnergy)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshalling save record: %w", err)
	}
	return string(data), nil
}

// DecodeRecord parses the wire form back into the canonical record. Corrupt
// input degrades to (nil, false); it is never an error the caller must
// distinguish from absence.
func DecodeRecord(data string) (*SaveRecord, bool) {
	docPtr, ok := storage.DecodeJSON[storage.RawState](data, "save record")
	if !ok {
		return nil, false
	}
	doc := *docPtr

	r := &SaveRecord{}

	if !getField(doc, fieldWorldID, &r.WorldID) {
		return nil, false
	}
	if !getField(doc, fieldWorldName, &r.WorldName) {
		return nil, false
	}
	if !getField(doc, fieldCreatedAt, &r.CreatedAt) {
		return nil, false
	}
	if !getField(doc, fieldLastPlayedAt, &r.LastPlayedAt) {
		return nil, false
	}
	if !getField(doc, fieldTotalPlayTime, &r.TotalPlayTime) {
		return nil, false
	}
	if !getField(doc, fieldSessionStartTime, &r.SessionStart) {
		return nil, false
	}

	// Scene-specific position wins; legacy is the fallback
	var pos *positionJSON
	if !getField(doc, fieldScenePosition, &pos) {
		return nil, false
	}
	if pos == nil {
		if !getField(doc, fieldLegacyPosition, &pos) {
			return nil, false
		}
	}
	if pos != nil {
		r.Position = &Position{X: pos.X, Y: pos.Y, Direction: pos.Direction}
	}

	if !getField(doc, fieldInventory, &r.Inventory) {
		return nil, false
	}
	if r.Inventory == nil {
		r.Inventory = map[string]int{}
	}

	var scene *sceneStateJSON
	if !getField(doc, fieldSceneState, &scene) {
		return nil, false
	}
	if scene != nil {
		r.Scene = SceneState{
			CollectionCounts: scene.TileCollectionCounts,
			PlacedTiles:      scene.ModifiedTiles,
			HiddenTiles:      scene.HiddenTiles,
		}
	} else {
		if !getField(doc, fieldLegacyCounts, &r.Scene.CollectionCounts) {
			return nil, false
		}
		if !getField(doc, fieldLegacyPlaced, &r.Scene.PlacedTiles) {
			return nil, false
		}
		if !getField(doc, fieldLegacyHidden, &r.Scene.HiddenTiles) {
			return nil, false
		}
	}
	if r.Scene.CollectionCounts == nil {
		r.Scene.CollectionCounts = map[string]int{}
	}

	if !getField(doc, fieldMusicVolume, &r.MusicVolume) {
		return nil, false
	}
	if !getField(doc, fieldIsMuted, &r.Muted) {
		return nil, false
	}
	if !getField(doc, fieldEnergy, &r.Energy) {
		return nil, false
	}

	// Whatever remains belongs to other scenes
	foreign := doc.Clone()
	for _, key := range knownFields() {
		foreign.Delete(key)
	}
	if len(foreign) > 0 {
		r.Foreign = foreign
	}

	return r, true
}

// getField reads a known key into out. Absence is fine; a present key that
// fails to unmarshal marks the whole record corrupt.
func getField(doc storage.RawState, key string, out any) bool {
	_, err := doc.Get(key, out)
	return err == nil
}

func knownFields() []string {
	return []string{
		fieldWorldID, fieldWorldName, fieldCreatedAt, fieldLastPlayedAt,
		fieldTotalPlayTime, fieldSessionStartTime, fieldScenePosition,
		fieldLegacyPosition, fieldInventory, fieldSceneState,
		fieldLegacyCounts, fieldLegacyPlaced, fieldLegacyHidden,
		fieldMusicVolume, fieldIsMuted, fieldEnergy,
	}
}
