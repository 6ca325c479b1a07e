package game

import "sync"

// DefaultMaxEnergy is the energy pool a new player starts with.
const DefaultMaxEnergy = 100.0

// Energy is the player's action budget. The value is always clamped to
// [0, max]; persisted values outside the range are repaired on load.
type Energy struct {
	mu      sync.RWMutex
	max     float64
	current float64
}

func NewEnergy(max float64) *Energy {
	if max <= 0 {
		max = DefaultMaxEnergy
	}
	return &Energy{
		max:     max,
		current: max,
	}
}

// Current returns the available energy.
func (e *Energy) Current() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Max returns the energy cap.
func (e *Energy) Max() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.max
}

// Set replaces the current energy, clamped to [0, max].
func (e *Energy) Set(value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = clamp(value, 0, e.max)
}

// Consume spends energy. Returns false and changes nothing when the pool
// holds less than the requested amount.
func (e *Energy) Consume(amount float64) bool {
	if amount < 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current < amount {
		return false
	}
	e.current -= amount
	return true
}

// Restore adds energy back, clamped at the cap.
func (e *Energy) Restore(amount float64) {
	if amount <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = clamp(e.current+amount, 0, e.max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
