package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/davide97g/mini-world/internal/tilemap"
	"github.com/davide97g/mini-world/internal/tiles"
	"github.com/davide97g/mini-world/internal/world"
)

// DefaultSaveThrottle is the minimum interval between ordinary saves. Forced
// saves bypass it.
const DefaultSaveThrottle = 5 * time.Second

// Orchestrator owns the save/load flow for the active world. It snapshots
// every subsystem into a single record per save, so a record is always
// internally consistent, and it throttles ordinary saves so bursts of
// activity collapse into one write.
type Orchestrator struct {
	model   *world.Model
	session *world.SessionTracker

	player    *Player
	inventory *Inventory
	energy    *Energy
	audio     *AudioSettings
	gameMap   *tilemap.Map
	tracker   *tiles.Tracker
	ledger    *tiles.Ledger

	clock    func() time.Time
	throttle time.Duration

	mu       sync.Mutex
	worldID  string
	lastSave time.Time
	pending  bool
}

type OrchestratorOpt func(*Orchestrator)

// WithSaveThrottle overrides the minimum interval between ordinary saves.
func WithSaveThrottle(d time.Duration) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.throttle = d
	}
}

// WithOrchestratorClock overrides the time source, for tests.
func WithOrchestratorClock(clock func() time.Time) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

func NewOrchestrator(
	model *world.Model,
	session *world.SessionTracker,
	player *Player,
	inventory *Inventory,
	energy *Energy,
	audio *AudioSettings,
	gameMap *tilemap.Map,
	tracker *tiles.Tracker,
	ledger *tiles.Ledger,
	opts ...OrchestratorOpt,
) *Orchestrator {
	o := &Orchestrator{
		model:     model,
		session:   session,
		player:    player,
		inventory: inventory,
		energy:    energy,
		audio:     audio,
		gameMap:   gameMap,
		tracker:   tracker,
		ledger:    ledger,
		clock:     time.Now,
		throttle:  DefaultSaveThrottle,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// SetWorldID switches the world subsequent saves target. It does not load
// anything; pair it with LoadGameState.
func (o *Orchestrator) SetWorldID(worldID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.worldID = worldID
	o.lastSave = time.Time{}
	o.pending = false
}

// WorldID returns the id of the world saves currently target.
func (o *Orchestrator) WorldID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.worldID
}

// ScheduleSave marks state dirty without writing. The next tick flushes it.
func (o *Orchestrator) ScheduleSave() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = true
}

// SaveGameState writes a snapshot unless one landed within the throttle
// window. A throttled call marks the state dirty instead, so the change is
// never lost — only deferred to the next tick.
func (o *Orchestrator) SaveGameState() error {
	now := o.clock()

	o.mu.Lock()
	if o.worldID == "" {
		o.mu.Unlock()
		return nil
	}
	if !o.lastSave.IsZero() && now.Sub(o.lastSave) < o.throttle {
		o.pending = true
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	return o.write(now)
}

// ForceSave writes a snapshot immediately, ignoring the throttle. Teardown
// paths use this so quitting never loses the last few seconds of play.
func (o *Orchestrator) ForceSave() error {
	o.mu.Lock()
	if o.worldID == "" {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	return o.write(o.clock())
}

func (o *Orchestrator) write(now time.Time) error {
	o.mu.Lock()
	worldID := o.worldID
	o.mu.Unlock()

	record := &world.SaveRecord{
		Metadata: world.Metadata{
			WorldID:   worldID,
			CreatedAt: now.UnixMilli(),
		},
	}

	// Identity, play time, the active-session marker, and fields owned by
	// other scenes carry over from the record on disk. Everything else is
	// snapshotted fresh.
	if prior := o.model.Load(worldID); prior != nil {
		record.Metadata = prior.Metadata
		record.SessionStart = prior.SessionStart
		record.Foreign = prior.Foreign
	}
	record.LastPlayedAt = now.UnixMilli()

	pos := o.player.Position()
	record.Position = &pos
	record.Inventory = o.inventory.Data()
	record.Scene = world.SceneState{
		CollectionCounts: o.tracker.Counts(),
		PlacedTiles:      o.ledger.PlacedTiles(),
		HiddenTiles:      o.gameMap.HiddenTiles(),
	}
	record.MusicVolume = o.audio.MusicVolumeForSave()
	record.Muted = o.audio.MutedStateForSave()
	energy := o.energy.Current()
	record.Energy = &energy

	err := o.model.Save(record)
	if err != nil {
		return fmt.Errorf("saving game state: %w", err)
	}

	o.mu.Lock()
	o.lastSave = now
	o.pending = false
	o.mu.Unlock()

	slog.Debug("game state saved", "worldId", worldID)
	return nil
}

// LoadGameState restores every subsystem from a world's record and makes it
// the active world. A record showing no progress (or no record at all) starts
// at the map's spawn point instead of the stored position.
func (o *Orchestrator) LoadGameState(worldID string) error {
	record := o.model.Load(worldID)

	o.mu.Lock()
	o.worldID = worldID
	o.lastSave = time.Time{}
	o.pending = false
	o.mu.Unlock()

	if record == nil || record.IsNewGame() || record.Position == nil {
		o.startAtSpawn(record)
	} else {
		o.player.SetPosition(*record.Position)
	}

	if record != nil {
		o.inventory.LoadData(record.Inventory)
		o.audio.LoadMusicSettings(record.MusicVolume, record.Muted)
		if record.Energy != nil {
			o.energy.Set(*record.Energy)
		} else {
			o.energy.Set(o.energy.Max())
		}

		o.ledger.LoadPlacedTiles(record.Scene.PlacedTiles)
		for _, h := range record.Scene.HiddenTiles {
			o.gameMap.HideTile(h.ResolvedLayer(), h.X, h.Y)
		}
		o.tracker.LoadCounts(record.Scene.CollectionCounts, o.hideExhausted)
	} else {
		o.inventory.LoadData(nil)
		o.audio.LoadMusicSettings(world.DefaultMusicVolume, false)
		o.energy.Set(o.energy.Max())
		o.ledger.LoadPlacedTiles(nil)
		o.tracker.LoadCounts(nil, nil)
	}

	// Visibility and placements changed under the map; group membership is
	// stale until rebuilt.
	o.gameMap.RebuildGroups()

	err := o.session.StartSession(worldID)
	if err != nil {
		return fmt.Errorf("loading game state: %w", err)
	}

	slog.Info("game state loaded", "worldId", worldID, "newGame", record == nil || record.IsNewGame())
	return nil
}

// startAtSpawn positions the player at the map spawn, keeping whatever
// position the record had when the map defines none.
func (o *Orchestrator) startAtSpawn(record *world.SaveRecord) {
	if spawn := o.gameMap.FindSpawn(); spawn != nil {
		o.player.SetPosition(world.Position{X: spawn.X, Y: spawn.Y, Direction: world.DirectionDown})
		return
	}

	if record != nil && record.Position != nil {
		o.player.SetPosition(*record.Position)
	} else {
		o.player.SetPosition(world.Position{})
	}
}

// hideExhausted re-hides a tile whose collection counter is at its limit,
// taking the above-layer overlay with it.
func (o *Orchestrator) hideExhausted(tileX, tileY int) {
	o.gameMap.HideTile(tilemap.LayerWorld, tileX, tileY)
	o.gameMap.HideTile(tilemap.LayerAbove, tileX, tileY)
}

// HideCollectedTile hides a freshly exhausted tile and its overlay, then
// schedules a save. The collection tracker calls this at the moment a tile's
// counter reaches its limit.
func (o *Orchestrator) HideCollectedTile(tileX, tileY int) {
	o.hideExhausted(tileX, tileY)
	o.gameMap.RebuildGroups()
	o.ScheduleSave()
}

// Tick accrues play time and flushes saves on the autosave cadence. It
// implements the driver's Manager.
func (o *Orchestrator) Tick(ctx context.Context) error {
	o.mu.Lock()
	worldID := o.worldID
	o.mu.Unlock()

	if worldID == "" {
		return nil
	}

	err := o.session.UpdatePlayTime(worldID)
	if err != nil {
		slog.Warn("failed to update play time", "worldId", worldID, "error", err)
	}

	err = o.SaveGameState()
	if err != nil {
		// Autosave failures are logged, not fatal: the driver keeps ticking
		// and the next attempt may succeed.
		slog.Warn("autosave failed", "worldId", worldID, "error", err)
	}

	return nil
}

// Shutdown writes a final snapshot and closes the play session. Called once
// on teardown, after the driver stops ticking.
func (o *Orchestrator) Shutdown() error {
	o.mu.Lock()
	worldID := o.worldID
	o.mu.Unlock()

	if worldID == "" {
		return nil
	}

	err := o.ForceSave()
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	err = o.session.StopSession(worldID)
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}
