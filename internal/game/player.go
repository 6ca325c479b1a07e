package game

import (
	"sync"

	"github.com/davide97g/mini-world/internal/world"
)

// Player holds the live position and facing of the player between saves.
type Player struct {
	mu  sync.RWMutex
	pos world.Position
}

func NewPlayer() *Player {
	return &Player{}
}

// Position returns the player's current pixel position.
func (p *Player) Position() world.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

// SetPosition moves the player.
func (p *Player) SetPosition(pos world.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
}
