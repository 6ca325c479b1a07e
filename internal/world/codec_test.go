package world

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/davide97g/mini-world/internal/tilemap"
	"github.com/pixil98/go-testutil"
)

func sampleRecord() *SaveRecord {
	energy := 72.5
	return &SaveRecord{
		Metadata: Metadata{
			WorldID:       "world-1700000000000-abc123",
			WorldName:     "Farm",
			CreatedAt:     1700000000000,
			LastPlayedAt:  1700000500000,
			TotalPlayTime: 360000,
		},
		SessionStart: 1700000500000,
		Position:     &Position{X: 412, Y: 218, Direction: DirectionLeft},
		Inventory:    map[string]int{"wood": 12, "berry": 3},
		Scene: SceneState{
			CollectionCounts: map[string]int{"5,5": 3, "7,2": 1},
			PlacedTiles: []tilemap.PlacedTile{
				{X: 8, Y: 9, Gid: 42, Collides: true},
			},
			HiddenTiles: []tilemap.HiddenTile{
				{X: 5, Y: 5, Layer: tilemap.LayerWorld},
				{X: 5, Y: 4, Layer: tilemap.LayerAbove},
			},
		},
		MusicVolume: 0.7,
		Muted:       true,
		Energy:      &energy,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	original := sampleRecord()

	data, err := EncodeRecord(original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, ok := DecodeRecord(data)
	if !ok {
		t.Fatal("expected record to decode")
	}

	testutil.AssertEqual(t, "worldId", decoded.WorldID, original.WorldID)
	testutil.AssertEqual(t, "worldName", decoded.WorldName, original.WorldName)
	testutil.AssertEqual(t, "createdAt", decoded.CreatedAt, original.CreatedAt)
	testutil.AssertEqual(t, "lastPlayedAt", decoded.LastPlayedAt, original.LastPlayedAt)
	testutil.AssertEqual(t, "totalPlayTime", decoded.TotalPlayTime, original.TotalPlayTime)
	testutil.AssertEqual(t, "sessionStart", decoded.SessionStart, original.SessionStart)
	testutil.AssertEqual(t, "position x", decoded.Position.X, original.Position.X)
	testutil.AssertEqual(t, "direction", decoded.Position.Direction, DirectionLeft)
	testutil.AssertEqual(t, "wood", decoded.Inventory["wood"], 12)
	testutil.AssertEqual(t, "count 5,5", decoded.Scene.CollectionCounts["5,5"], 3)
	testutil.AssertEqual(t, "placed tiles", len(decoded.Scene.PlacedTiles), 1)
	testutil.AssertEqual(t, "placed gid", decoded.Scene.PlacedTiles[0].Gid, 42)
	testutil.AssertEqual(t, "hidden tiles", len(decoded.Scene.HiddenTiles), 2)
	testutil.AssertEqual(t, "hidden layer", decoded.Scene.HiddenTiles[1].Layer, tilemap.LayerAbove)
	testutil.AssertEqual(t, "musicVolume", decoded.MusicVolume, 0.7)
	testutil.AssertEqual(t, "isMuted", decoded.Muted, true)
	testutil.AssertEqual(t, "energy", *decoded.Energy, 72.5)
}

func TestCodec_WritesLegacyAndSceneFields(t *testing.T) {
	data, err := EncodeRecord(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc map[string]json.RawMessage
	err = json.Unmarshal([]byte(data), &doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both representations are present and in sync on the wire
	for _, key := range []string{
		"gameScenePosition", "playerPosition",
		"gameSceneState", "tileCollectionCounts", "modifiedTiles", "hiddenTiles",
	} {
		if _, ok := doc[key]; !ok {
			t.Errorf("expected wire field %q", key)
		}
	}
	testutil.AssertEqual(t, "positions match",
		string(doc["gameScenePosition"]), string(doc["playerPosition"]))
}

func TestCodec_LegacyFallback(t *testing.T) {
	// A record written by an old build: no scene-specific fields, hidden
	// tiles without a layer.
	legacy := `{
		"worldId": "world-old",
		"worldName": "Old World",
		"createdAt": 1000,
		"lastPlayedAt": 2000,
		"totalPlayTime": 500,
		"playerPosition": {"x": 10, "y": 20, "direction": "down"},
		"inventory": {"stone": 4},
		"tileCollectionCounts": {"1,1": 2},
		"modifiedTiles": [{"x": 3, "y": 3, "gid": 7, "collides": false}],
		"hiddenTiles": [{"x": 1, "y": 1}],
		"musicVolume": 0.5,
		"isMuted": false
	}`

	decoded, ok := DecodeRecord(legacy)
	if !ok {
		t.Fatal("expected legacy record to decode")
	}

	testutil.AssertEqual(t, "position x", decoded.Position.X, 10.0)
	testutil.AssertEqual(t, "direction", decoded.Position.Direction, DirectionDown)
	testutil.AssertEqual(t, "count", decoded.Scene.CollectionCounts["1,1"], 2)
	testutil.AssertEqual(t, "placed", len(decoded.Scene.PlacedTiles), 1)
	testutil.AssertEqual(t, "hidden layer default",
		decoded.Scene.HiddenTiles[0].ResolvedLayer(), tilemap.LayerWorld)
	if decoded.Energy != nil {
		t.Error("expected absent energy to stay nil")
	}
	testutil.AssertEqual(t, "no session", decoded.SessionStart, int64(0))
}

func TestCodec_ScenePositionWins(t *testing.T) {
	data := `{
		"worldId": "w",
		"worldName": "W",
		"createdAt": 1,
		"lastPlayedAt": 1,
		"totalPlayTime": 0,
		"gameScenePosition": {"x": 99, "y": 98},
		"playerPosition": {"x": 1, "y": 2},
		"inventory": {},
		"tileCollectionCounts": {},
		"modifiedTiles": [],
		"hiddenTiles": [],
		"musicVolume": 0.5,
		"isMuted": false
	}`

	decoded, ok := DecodeRecord(data)
	if !ok {
		t.Fatal("expected record to decode")
	}
	testutil.AssertEqual(t, "scene position wins", decoded.Position.X, 99.0)
}

func TestCodec_ForeignFieldsPassThrough(t *testing.T) {
	original := sampleRecord()
	err := original.Foreign.Set("noAnimalsScenePosition", map[string]float64{"x": 7, "y": 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := EncodeRecord(original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, ok := DecodeRecord(data)
	if !ok {
		t.Fatal("expected record to decode")
	}

	var pos map[string]float64
	found, err := decoded.Foreign.Get("noAnimalsScenePosition", &pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "foreign field survives", found, true)
	testutil.AssertEqual(t, "foreign x", pos["x"], 7.0)

	// Re-encoding keeps it on the wire
	again, err := EncodeRecord(decoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(again, "noAnimalsScenePosition") {
		t.Error("expected foreign field in re-encoded record")
	}
}

func TestCodec_ZeroInventoryPruned(t *testing.T) {
	record := sampleRecord()
	record.Inventory["empty"] = 0

	data, err := EncodeRecord(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, _ := DecodeRecord(data)

	if _, ok := decoded.Inventory["empty"]; ok {
		t.Error("expected zero-quantity entry to be pruned")
	}
	testutil.AssertEqual(t, "non-zero entries kept", decoded.Inventory["wood"], 12)
}

func TestCodec_CorruptInput(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"not json":     "hello",
		"wrong shape":  `[1,2,3]`,
		"bad worldId":  `{"worldId": 42}`,
		"bad position": `{"worldId": "w", "playerPosition": "nowhere"}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			record, ok := DecodeRecord(data)
			testutil.AssertEqual(t, "ok", ok, false)
			if record != nil {
				t.Errorf("expected nil record, got %+v", record)
			}
		})
	}
}

func TestSaveRecord_IsNewGame(t *testing.T) {
	tests := map[string]struct {
		mutate func(*SaveRecord)
		expNew bool
	}{
		"fresh record": {
			mutate: func(r *SaveRecord) {},
			expNew: true,
		},
		"nil position": {
			mutate: func(r *SaveRecord) { r.Position = nil },
			expNew: true,
		},
		"zero-quantity inventory still new": {
			mutate: func(r *SaveRecord) { r.Inventory["wood"] = 0 },
			expNew: true,
		},
		"moved player": {
			mutate: func(r *SaveRecord) { r.Position = &Position{X: 5, Y: 0} },
			expNew: false,
		},
		"has inventory": {
			mutate: func(r *SaveRecord) { r.Inventory["wood"] = 1 },
			expNew: false,
		},
		"has placed tiles": {
			mutate: func(r *SaveRecord) {
				r.Scene.PlacedTiles = []tilemap.PlacedTile{{X: 1, Y: 1, Gid: 2}}
			},
			expNew: false,
		},
		"has hidden tiles": {
			mutate: func(r *SaveRecord) {
				r.Scene.HiddenTiles = []tilemap.HiddenTile{{X: 1, Y: 1}}
			},
			expNew: false,
		},
		"collection counts alone do not count": {
			mutate: func(r *SaveRecord) { r.Scene.CollectionCounts["1,1"] = 5 },
			expNew: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			record := &SaveRecord{
				Metadata:  Metadata{WorldID: "w"},
				Position:  &Position{X: 0, Y: 0},
				Inventory: map[string]int{},
				Scene:     SceneState{CollectionCounts: map[string]int{}},
			}
			tt.mutate(record)

			testutil.AssertEqual(t, "isNewGame", record.IsNewGame(), tt.expNew)
		})
	}
}

func TestSaveRecord_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*SaveRecord)
		expErr bool
	}{
		"valid":           {mutate: func(r *SaveRecord) {}},
		"missing worldId": {mutate: func(r *SaveRecord) { r.WorldID = "" }, expErr: true},
		"volume too high": {mutate: func(r *SaveRecord) { r.MusicVolume = 1.5 }, expErr: true},
		"negative play time": {
			mutate: func(r *SaveRecord) { r.TotalPlayTime = -1 }, expErr: true,
		},
		"negative count": {
			mutate: func(r *SaveRecord) { r.Scene.CollectionCounts["1,1"] = -2 }, expErr: true,
		},
		"negative inventory": {
			mutate: func(r *SaveRecord) { r.Inventory["wood"] = -1 }, expErr: true,
		},
		"negative energy": {
			mutate: func(r *SaveRecord) { e := -5.0; r.Energy = &e }, expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			record := sampleRecord()
			tt.mutate(record)

			err := record.Validate()
			if tt.expErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.expErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
