package command

import (
	"fmt"
	"os"

	"github.com/davide97g/mini-world/internal/tilemap"
	"github.com/davide97g/mini-world/internal/tiles"
	"github.com/pixil98/go-errors"
)

type GameConfig struct {
	MapPath          string         `json:"map"`
	WorldName        string         `json:"world_name"`
	CollectionLimits map[string]int `json:"collection_limits"`
	MaxEnergy        float64        `json:"max_energy"`
	ProximityRadius  float64        `json:"proximity_radius"`
}

func (c *GameConfig) validate() error {
	el := errors.NewErrorList()

	if c.MapPath == "" {
		el.Add(fmt.Errorf("game: map is required"))
	} else if _, err := os.Stat(c.MapPath); err != nil {
		el.Add(fmt.Errorf("game: invalid map path %q: %w", c.MapPath, err))
	}

	for itemID, limit := range c.CollectionLimits {
		if limit <= 0 {
			el.Add(fmt.Errorf("game: collection limit for %q must be positive", itemID))
		}
	}

	if c.MaxEnergy < 0 {
		el.Add(fmt.Errorf("game: max_energy must be non-negative"))
	}
	if c.ProximityRadius < 0 {
		el.Add(fmt.Errorf("game: proximity_radius must be non-negative"))
	}

	return el.Err()
}

func (c *GameConfig) buildMap() (*tilemap.Map, error) {
	return tilemap.LoadMap(c.MapPath)
}

func (c *GameConfig) limits() tiles.Limits {
	return tiles.Limits(c.CollectionLimits)
}

func (c *GameConfig) worldName() string {
	if c.WorldName == "" {
		return "New World"
	}
	return c.WorldName
}
