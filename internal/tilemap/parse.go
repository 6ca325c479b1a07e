package tilemap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
)

// MapSpec is the on-disk JSON definition of a map: geometry, the initial
// tiles of each layer, and the object layer.
type MapSpec struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	TileWidth  int `json:"tile_width"`
	TileHeight int `json:"tile_height"`

	Layers  map[Layer][]TileSpec `json:"layers"`
	Objects []Object             `json:"objects"`
}

// TileSpec is one initial tile within a layer.
type TileSpec struct {
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Gid        int               `json:"gid"`
	Collides   bool              `json:"collides,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Validate satisfies the config contract for map definitions.
func (s *MapSpec) Validate() error {
	el := errors.NewErrorList()

	if s.Width <= 0 {
		el.Add(fmt.Errorf("width must be positive"))
	}
	if s.Height <= 0 {
		el.Add(fmt.Errorf("height must be positive"))
	}
	if s.TileWidth <= 0 {
		el.Add(fmt.Errorf("tile_width must be positive"))
	}
	if s.TileHeight <= 0 {
		el.Add(fmt.Errorf("tile_height must be positive"))
	}

	for layer, tiles := range s.Layers {
		if layer != LayerWorld && layer != LayerAbove {
			el.Add(fmt.Errorf("unknown layer %q (must be %s or %s)", layer, LayerWorld, LayerAbove))
			continue
		}
		for i, t := range tiles {
			if t.X < 0 || t.X >= s.Width || t.Y < 0 || t.Y >= s.Height {
				el.Add(fmt.Errorf("layer %s tile %d: coordinate (%d,%d) out of bounds", layer, i, t.X, t.Y))
			}
		}
	}

	return el.Err()
}

// Build constructs a live Map from the spec and computes the initial tile
// groups.
func (s *MapSpec) Build() *Map {
	m := NewMap(s.Width, s.Height, s.TileWidth, s.TileHeight)

	for layer, tiles := range s.Layers {
		for _, t := range tiles {
			m.SetTile(layer, t.X, t.Y, &Tile{
				Gid:        t.Gid,
				Alpha:      1,
				Collides:   t.Collides,
				Properties: t.Properties,
			})
		}
	}
	for _, obj := range s.Objects {
		m.AddObject(obj)
	}

	m.RebuildGroups()
	return m
}

// LoadMap reads, validates, and builds a map from a JSON definition file.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}

	var spec MapSpec
	err = json.Unmarshal(data, &spec)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling map file: %w", err)
	}

	err = spec.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating map %s: %w", path, err)
	}

	return spec.Build(), nil
}
