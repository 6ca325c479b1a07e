package driver

import (
	"context"
	"time"
)

const (
	// DefaultTickLength matches the autosave cadence.
	DefaultTickLength = time.Second * 30
)

// Manager is any subsystem driven on the tick cadence.
type Manager interface {
	Tick(context.Context) error
}

// Driver runs its managers once per tick until the context ends. The save
// orchestrator hangs off this loop for autosave and play-time accrual.
type Driver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *Driver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
