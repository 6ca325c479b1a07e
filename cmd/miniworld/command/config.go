package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	AutosaveInterval string        `json:"autosave_interval"`
	SaveThrottle     string        `json:"save_throttle"`
	Storage          StorageConfig `json:"storage"`
	Nats             NatsConfig    `json:"nats"`
	Game             GameConfig    `json:"game"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.AutosaveInterval != "" {
		d, err := time.ParseDuration(c.AutosaveInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing autosave_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("autosave_interval must be at least 1 second"))
		}
	}

	if c.SaveThrottle != "" {
		_, err := time.ParseDuration(c.SaveThrottle)
		if err != nil {
			el.Add(fmt.Errorf("parsing save_throttle: %w", err))
		}
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Game.validate())

	return el.Err()
}
