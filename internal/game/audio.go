package game

import (
	"sync"

	"github.com/davide97g/mini-world/internal/world"
)

// AudioSettings holds the per-world music volume and mute flag. Volume lives
// in [0, 1]; out-of-range persisted values clamp on load instead of failing.
type AudioSettings struct {
	mu     sync.RWMutex
	volume float64
	muted  bool
}

func NewAudioSettings() *AudioSettings {
	return &AudioSettings{
		volume: world.DefaultMusicVolume,
	}
}

// LoadMusicSettings applies persisted audio state, clamping the volume.
func (a *AudioSettings) LoadMusicSettings(volume float64, muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volume = clamp(volume, 0, 1)
	a.muted = muted
}

// SetVolume updates the music volume, clamped to [0, 1].
func (a *AudioSettings) SetVolume(volume float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volume = clamp(volume, 0, 1)
}

// ToggleMute flips the mute flag and returns the new state.
func (a *AudioSettings) ToggleMute() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = !a.muted
	return a.muted
}

// MusicVolumeForSave returns the volume as written into a save record.
func (a *AudioSettings) MusicVolumeForSave() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.volume
}

// MutedStateForSave returns the mute flag as written into a save record.
func (a *AudioSettings) MutedStateForSave() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.muted
}
