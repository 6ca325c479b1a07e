package messaging

import (
	"encoding/json"
	"fmt"
)

// Subjects the game publishes on. Everything is scoped under "game." so
// external tools can subscribe with a single wildcard.
const (
	SubjectSaveRequested     = "game.save"
	SubjectInventoryChanged  = "game.inventory.changed"
	SubjectCollectionChanged = "game.collection.changed"
	SubjectTilePlaced        = "game.tile.placed"
)

// InventoryChangedEvent announces a change to an item's held quantity.
type InventoryChangedEvent struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// CollectionChangedEvent announces a harvested tile.
type CollectionChangedEvent struct {
	ItemID string `json:"itemId"`
	TileX  int    `json:"tileX"`
	TileY  int    `json:"tileY"`
}

// TilePlacedEvent announces a player-placed tile.
type TilePlacedEvent struct {
	TileX int  `json:"tileX"`
	TileY int  `json:"tileY"`
	Gid   int  `json:"gid"`
	Solid bool `json:"solid"`
}

// EventBus publishes and subscribes to game events over the embedded NATS
// server. Payloads are JSON; a save request carries none.
type EventBus struct {
	server *NatsServer
}

func NewEventBus(server *NatsServer) *EventBus {
	return &EventBus{server: server}
}

// RequestSave asks the save orchestrator to schedule a save.
func (b *EventBus) RequestSave() error {
	return b.server.Publish(SubjectSaveRequested, nil)
}

// OnSaveRequested subscribes to save requests.
func (b *EventBus) OnSaveRequested(fn func()) (func(), error) {
	return b.server.Subscribe(SubjectSaveRequested, func([]byte) {
		fn()
	})
}

// PublishInventoryChanged announces an inventory mutation.
func (b *EventBus) PublishInventoryChanged(ev InventoryChangedEvent) error {
	return b.publish(SubjectInventoryChanged, ev)
}

// PublishCollectionChanged announces a harvested tile.
func (b *EventBus) PublishCollectionChanged(ev CollectionChangedEvent) error {
	return b.publish(SubjectCollectionChanged, ev)
}

// PublishTilePlaced announces a placed tile.
func (b *EventBus) PublishTilePlaced(ev TilePlacedEvent) error {
	return b.publish(SubjectTilePlaced, ev)
}

// OnCollectionChanged subscribes to harvested-tile events.
func (b *EventBus) OnCollectionChanged(fn func(CollectionChangedEvent)) (func(), error) {
	return b.server.Subscribe(SubjectCollectionChanged, func(data []byte) {
		var ev CollectionChangedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return
		}
		fn(ev)
	})
}

func (b *EventBus) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", subject, err)
	}
	return b.server.Publish(subject, data)
}
