package command

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/davide97g/mini-world/internal/display"
	"github.com/davide97g/mini-world/internal/driver"
	"github.com/davide97g/mini-world/internal/game"
	"github.com/davide97g/mini-world/internal/messaging"
	"github.com/davide97g/mini-world/internal/tiles"
	"github.com/davide97g/mini-world/internal/world"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	store, err := cfg.Storage.buildStore()
	if err != nil {
		return nil, fmt.Errorf("creating save store: %w", err)
	}

	registry := world.NewRegistry(store)
	model := world.NewModel(store, registry, world.WithQuotaWarning(func(worldID string) {
		fmt.Fprintln(os.Stderr, display.Alert("storage full",
			"Your world could not be saved because the save storage is full. "+
				"Delete an old world to free up space."))
	}))
	session := world.NewSessionTracker(model)

	gameMap, err := cfg.Game.buildMap()
	if err != nil {
		return nil, fmt.Errorf("loading map: %w", err)
	}

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	bus := messaging.NewEventBus(natsServer)

	player := game.NewPlayer()
	energy := game.NewEnergy(cfg.Game.MaxEnergy)
	audio := game.NewAudioSettings()

	// The tracker's callbacks reference the orchestrator, which in turn needs
	// the tracker; the closure binds late.
	var orch *game.Orchestrator

	inventory := game.NewInventory(game.WithInventoryChanged(func() {
		if orch != nil {
			orch.ScheduleSave()
		}
	}))

	var trackerOpts []tiles.TrackerOpt
	if cfg.Game.ProximityRadius > 0 {
		trackerOpts = append(trackerOpts, tiles.WithProximityRadius(cfg.Game.ProximityRadius))
	}
	trackerOpts = append(trackerOpts,
		tiles.WithOnCollected(func(itemID string, quantity int) {
			inventory.AddItem(itemID, quantity)
			err := bus.PublishCollectionChanged(messaging.CollectionChangedEvent{ItemID: itemID})
			if err != nil {
				slog.Debug("failed to publish collection event", "error", err)
			}
		}),
		tiles.WithOnCountChanged(func() {
			if orch != nil {
				orch.ScheduleSave()
			}
		}),
	)
	tracker := tiles.NewTracker(gameMap, cfg.Game.limits(), trackerOpts...)
	ledger := tiles.NewLedger(gameMap)

	var orchOpts []game.OrchestratorOpt
	if cfg.SaveThrottle != "" {
		d, err := time.ParseDuration(cfg.SaveThrottle)
		if err != nil {
			return nil, fmt.Errorf("parsing save_throttle: %w", err)
		}
		orchOpts = append(orchOpts, game.WithSaveThrottle(d))
	}
	orch = game.NewOrchestrator(
		model, session,
		player, inventory, energy, audio,
		gameMap, tracker, ledger,
		orchOpts...,
	)

	var driverOpts []driver.DriverOpt
	if cfg.AutosaveInterval != "" {
		d, err := time.ParseDuration(cfg.AutosaveInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing autosave_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}

	return service.WorkerList{
		"nats":    natsServer,
		"driver":  driver.NewDriver([]driver.Manager{orch}, driverOpts...),
		"session": newSessionHost(bus, orch, model, registry, cfg.Game.worldName()),
	}, nil
}
