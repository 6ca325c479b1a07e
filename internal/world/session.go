package world

import (
	"fmt"
	"time"
)

// SessionTracker accrues play time per world. A session is Active between
// StartSession and StopSession; UpdatePlayTime banks the elapsed time and
// restarts the span, so periodic accrual never double-counts. TotalPlayTime
// only ever grows.
type SessionTracker struct {
	model *Model
	clock func() time.Time
}

type SessionTrackerOpt func(*SessionTracker)

// WithSessionClock overrides the time source, for tests.
func WithSessionClock(clock func() time.Time) SessionTrackerOpt {
	return func(t *SessionTracker) {
		t.clock = clock
	}
}

func NewSessionTracker(model *Model, opts ...SessionTrackerOpt) *SessionTracker {
	t := &SessionTracker{
		model: model,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// StartSession marks the session active and refreshes lastPlayedAt.
// Unknown worlds are a no-op.
func (t *SessionTracker) StartSession(worldID string) error {
	record := t.model.Load(worldID)
	if record == nil {
		return nil
	}

	now := t.clock().UnixMilli()
	record.SessionStart = now
	record.LastPlayedAt = now

	err := t.model.Save(record)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	return nil
}

// UpdatePlayTime banks elapsed session time into totalPlayTime and restarts
// the span, keeping the session active. If no session was running the span
// simply starts now — recovery for a missed StartSession.
func (t *SessionTracker) UpdatePlayTime(worldID string) error {
	record := t.model.Load(worldID)
	if record == nil {
		return nil
	}

	t.accrue(record)

	err := t.model.Save(record)
	if err != nil {
		return fmt.Errorf("updating play time: %w", err)
	}
	return nil
}

// StopSession banks elapsed time like UpdatePlayTime, then marks the session
// inactive. Stopping twice accrues ~0 on the second call and is harmless.
func (t *SessionTracker) StopSession(worldID string) error {
	record := t.model.Load(worldID)
	if record == nil {
		return nil
	}

	t.accrue(record)
	record.SessionStart = 0

	err := t.model.Save(record)
	if err != nil {
		return fmt.Errorf("stopping session: %w", err)
	}
	return nil
}

func (t *SessionTracker) accrue(record *SaveRecord) {
	now := t.clock().UnixMilli()

	if record.SessionStart != 0 {
		elapsed := now - record.SessionStart
		if elapsed > 0 {
			record.TotalPlayTime += elapsed
		}
	}

	record.SessionStart = now
	record.LastPlayedAt = now
}
