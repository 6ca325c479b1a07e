package game

import (
	"context"
	"testing"
	"time"

	"github.com/davide97g/mini-world/internal/storage"
	"github.com/davide97g/mini-world/internal/tilemap"
	"github.com/davide97g/mini-world/internal/tiles"
	"github.com/davide97g/mini-world/internal/world"
	"github.com/pixil98/go-testutil"
)

type fixture struct {
	store   *storage.MemStore
	model   *world.Model
	clock   *fakeClock
	gameMap *tilemap.Map
	player  *Player
	inv     *Inventory
	energy  *Energy
	audio   *AudioSettings
	tracker *tiles.Tracker
	ledger  *tiles.Ledger
	orch    *Orchestrator
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testMap() *tilemap.Map {
	m := tilemap.NewMap(5, 5, 32, 32)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			m.SetTile(tilemap.LayerWorld, x, y, &tilemap.Tile{Gid: 1, Alpha: 1})
		}
	}
	// One berry bush with an overlay tile above it
	m.SetTile(tilemap.LayerWorld, 2, 2, &tilemap.Tile{
		Gid:        7,
		Alpha:      1,
		Collides:   true,
		Properties: map[string]string{tilemap.PropCollectable: "berry"},
	})
	m.SetTile(tilemap.LayerAbove, 2, 2, &tilemap.Tile{Gid: 8, Alpha: 1})
	m.AddObject(tilemap.Object{Name: tilemap.SpawnPointName, X: 80, Y: 112})
	return m
}

func newFixture(t *testing.T, store *storage.MemStore, opts ...OrchestratorOpt) *fixture {
	t.Helper()

	f := &fixture{
		store:   store,
		clock:   &fakeClock{now: time.UnixMilli(1700000000000)},
		gameMap: testMap(),
		player:  NewPlayer(),
		inv:     NewInventory(),
		energy:  NewEnergy(100),
		audio:   NewAudioSettings(),
	}
	f.tracker = tiles.NewTracker(f.gameMap, tiles.Limits{"berry": 2})
	f.ledger = tiles.NewLedger(f.gameMap)

	f.model = world.NewModel(store, world.NewRegistry(store), world.WithClock(f.clock.Now))
	session := world.NewSessionTracker(f.model, world.WithSessionClock(f.clock.Now))

	opts = append([]OrchestratorOpt{WithOrchestratorClock(f.clock.Now)}, opts...)
	f.orch = NewOrchestrator(
		f.model, session,
		f.player, f.inv, f.energy, f.audio,
		f.gameMap, f.tracker, f.ledger,
		opts...,
	)
	return f
}

func TestOrchestrator_SaveLoadRoundTrip(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)

	worldID, err := f.model.CreateWorld("Round Trip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.orch.SetWorldID(worldID)

	f.player.SetPosition(world.Position{X: 96, Y: 64, Direction: world.DirectionLeft})
	f.inv.AddItem("wood", 4)
	f.energy.Set(55)
	f.audio.LoadMusicSettings(0.8, true)
	f.ledger.RecordPlacement(1, 1, 42, true)
	f.tracker.Collect("berry", 2, 2, nil)

	err = f.orch.ForceSave()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh set of subsystems over the same store sees everything back
	g := newFixture(t, store)
	err = g.orch.LoadGameState(worldID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := g.player.Position()
	testutil.AssertEqual(t, "position x", pos.X, 96.0)
	testutil.AssertEqual(t, "direction", pos.Direction, world.DirectionLeft)
	testutil.AssertEqual(t, "inventory", g.inv.GetItemQuantity("wood"), 4)
	testutil.AssertEqual(t, "energy", g.energy.Current(), 55.0)
	testutil.AssertEqual(t, "volume", g.audio.MusicVolumeForSave(), 0.8)
	testutil.AssertEqual(t, "muted", g.audio.MutedStateForSave(), true)
	testutil.AssertEqual(t, "placed tiles", len(g.ledger.PlacedTiles()), 1)
	testutil.AssertEqual(t, "placed gid", g.gameMap.TileAt(tilemap.LayerWorld, 1, 1).Gid, 42)
	testutil.AssertEqual(t, "counts", g.tracker.Counts()["2,2"], 1)
}

func TestOrchestrator_ThrottleCoalescesSaves(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store, WithSaveThrottle(5*time.Second))

	worldID, err := f.model.CreateWorld("Throttled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.orch.SetWorldID(worldID)

	f.inv.AddItem("wood", 1)
	err = f.orch.SaveGameState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Inside the throttle window the write is deferred, not performed
	f.inv.AddItem("wood", 9)
	err = f.orch.SaveGameState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "deferred", f.model.Load(worldID).Inventory["wood"], 1)

	// Past the window the pending state lands
	f.clock.Advance(6 * time.Second)
	err = f.orch.SaveGameState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "flushed", f.model.Load(worldID).Inventory["wood"], 10)
}

func TestOrchestrator_ForceSaveBypassesThrottle(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store, WithSaveThrottle(5*time.Second))

	worldID, err := f.model.CreateWorld("Forced")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.orch.SetWorldID(worldID)

	if err := f.orch.SaveGameState(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.inv.AddItem("wood", 3)
	if err := f.orch.ForceSave(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "written immediately", f.model.Load(worldID).Inventory["wood"], 3)
}

func TestOrchestrator_NewGameStartsAtSpawn(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)

	// CreateWorld leaves the player at (0,0) with nothing collected
	worldID, err := f.model.CreateWorld("Fresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = f.orch.LoadGameState(worldID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := f.player.Position()
	testutil.AssertEqual(t, "spawn x", pos.X, 80.0)
	testutil.AssertEqual(t, "spawn y", pos.Y, 112.0)
}

func TestOrchestrator_ProgressedGameKeepsPosition(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)

	worldID, err := f.model.CreateWorld("Progressed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.orch.SetWorldID(worldID)
	f.player.SetPosition(world.Position{X: 33, Y: 44})
	f.inv.AddItem("wood", 1)
	if err := f.orch.ForceSave(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := newFixture(t, store)
	if err := g.orch.LoadGameState(worldID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := g.player.Position()
	testutil.AssertEqual(t, "stored x", pos.X, 33.0)
	testutil.AssertEqual(t, "stored y", pos.Y, 44.0)
}

func TestOrchestrator_LoadWithoutRecordStartsFresh(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)
	f.inv.AddItem("stale", 5)

	// Loading an id with no record behaves like a brand-new world. The
	// session starts on the first save, not here.
	err := f.orch.LoadGameState("world-unsaved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := f.player.Position()
	testutil.AssertEqual(t, "spawn x", pos.X, 80.0)
	testutil.AssertEqual(t, "stale inventory cleared", f.inv.GetItemQuantity("stale"), 0)
	testutil.AssertEqual(t, "full energy", f.energy.Current(), 100.0)
}

func TestOrchestrator_SavePreservesForeignSceneState(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)

	worldID, err := f.model.CreateWorld("Shared")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Another scene wrote its own position into the record
	record := f.model.Load(worldID)
	err = record.Foreign.Set("noAnimalsScenePosition", map[string]float64{"x": 7, "y": 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.model.Save(record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.orch.LoadGameState(worldID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.player.SetPosition(world.Position{X: 50, Y: 60})
	if err := f.orch.ForceSave(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded := f.model.Load(worldID)
	var foreign map[string]float64
	found, err := reloaded.Foreign.Get("noAnimalsScenePosition", &foreign)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "foreign survives save", found, true)
	testutil.AssertEqual(t, "foreign x", foreign["x"], 7.0)

	// Metadata carried over, not reset
	testutil.AssertEqual(t, "name preserved", reloaded.WorldName, "Shared")
	testutil.AssertEqual(t, "createdAt preserved", reloaded.CreatedAt, record.CreatedAt)
}

func TestOrchestrator_LoadRehidesExhaustedTiles(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)

	worldID, err := f.model.CreateWorld("Exhausted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.orch.SetWorldID(worldID)

	// Collect the berry bush to its limit of 2
	f.tracker.Collect("berry", 2, 2, f.orch.HideCollectedTile)
	f.tracker.Collect("berry", 2, 2, f.orch.HideCollectedTile)
	if err := f.orch.ForceSave(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := newFixture(t, store)
	if err := g.orch.LoadGameState(worldID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.gameMap.TileAt(tilemap.LayerWorld, 2, 2).Hidden() {
		t.Error("expected exhausted tile hidden after load")
	}
	if !g.gameMap.TileAt(tilemap.LayerAbove, 2, 2).Hidden() {
		t.Error("expected overlay tile hidden after load")
	}
	// The exhausted tile is no longer offered
	if got := g.tracker.CheckProximity(80, 80); got != nil {
		t.Errorf("expected no collectable, got %+v", got)
	}
}

func TestOrchestrator_TickAccruesAndFlushes(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store, WithSaveThrottle(5*time.Second))

	worldID, err := f.model.CreateWorld("Ticking")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.orch.LoadGameState(worldID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.inv.AddItem("wood", 2)
	f.orch.ScheduleSave()
	f.clock.Advance(30 * time.Second)

	err = f.orch.Tick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := f.model.Load(worldID)
	testutil.AssertEqual(t, "flushed on tick", record.Inventory["wood"], 2)
	testutil.AssertEqual(t, "play time accrued", record.TotalPlayTime, int64(30_000))
}

func TestOrchestrator_ShutdownSavesAndStopsSession(t *testing.T) {
	store := storage.NewMemStore()
	f := newFixture(t, store)

	worldID, err := f.model.CreateWorld("Quitting")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.orch.LoadGameState(worldID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.inv.AddItem("wood", 1)
	f.clock.Advance(42 * time.Second)

	err = f.orch.Shutdown()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := f.model.Load(worldID)
	testutil.AssertEqual(t, "final snapshot", record.Inventory["wood"], 1)
	testutil.AssertEqual(t, "session closed", record.SessionStart, int64(0))
	testutil.AssertEqual(t, "time banked", record.TotalPlayTime, int64(42_000))
}

func TestOrchestrator_NoActiveWorldIsNoop(t *testing.T) {
	f := newFixture(t, storage.NewMemStore())

	if err := f.orch.SaveGameState(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.orch.ForceSave(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.orch.Tick(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.orch.Shutdown(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "nothing stored", f.store.Len(), 0)
}
