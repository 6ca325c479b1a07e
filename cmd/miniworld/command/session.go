package command

import (
	"context"
	"fmt"
	"time"

	"github.com/davide97g/mini-world/internal/game"
	"github.com/davide97g/mini-world/internal/messaging"
	"github.com/davide97g/mini-world/internal/world"
)

// sessionHost opens the play session on startup and closes it on shutdown.
// It resumes the current world from the last run, or creates the first world,
// and bridges save-request events to the orchestrator.
type sessionHost struct {
	bus       *messaging.EventBus
	orch      *game.Orchestrator
	model     *world.Model
	registry  *world.Registry
	worldName string
}

func newSessionHost(bus *messaging.EventBus, orch *game.Orchestrator, model *world.Model, registry *world.Registry, worldName string) *sessionHost {
	return &sessionHost{
		bus:       bus,
		orch:      orch,
		model:     model,
		registry:  registry,
		worldName: worldName,
	}
}

func (h *sessionHost) Start(ctx context.Context) error {
	worldID := h.registry.CurrentWorldID()
	if worldID == "" {
		id, err := h.model.CreateWorld(h.worldName)
		if err != nil {
			return fmt.Errorf("creating initial world: %w", err)
		}
		worldID = id
	}

	err := h.orch.LoadGameState(worldID)
	if err != nil {
		return fmt.Errorf("loading world %s: %w", worldID, err)
	}

	unsub, err := h.subscribe(ctx)
	if err != nil {
		return err
	}
	if unsub != nil {
		defer unsub()
	}

	<-ctx.Done()
	return h.orch.Shutdown()
}

// subscribe retries briefly: the nats worker starts concurrently and may not
// be accepting connections yet.
func (h *sessionHost) subscribe(ctx context.Context) (func(), error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		unsub, err := h.bus.OnSaveRequested(h.orch.ScheduleSave)
		if err == nil {
			return unsub, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("subscribing to save requests: %w", lastErr)
}
