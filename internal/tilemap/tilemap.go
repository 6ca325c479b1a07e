package tilemap

import (
	"fmt"
	"strconv"
	"strings"
)

// Layer names the two tile layers that carry mutable state. The world layer
// holds ground-level collectables and collision; the above layer holds
// canopy/overlay tiles hidden together with their base tile.
type Layer string

const (
	LayerWorld Layer = "world"
	LayerAbove Layer = "above"
)

const (
	// PropCollectable marks a tile as harvestable; its value is the item id.
	PropCollectable = "collectable"

	SpawnPointName       = "Spawn Point"
	StairsSpawnPointName = "Stairs Spawn Point"
)

// PlacedTile is a tile the player introduced on the world layer. Each entry
// fully specifies the terminal state of its coordinate, so replaying entries
// in any order, any number of times, yields the same map.
type PlacedTile struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Gid      int  `json:"gid"`
	Collides bool `json:"collides"`
}

// HiddenTile records a collected/exhausted tile to re-hide on load. Entries
// saved before layers existed carry no layer and default to the world layer.
type HiddenTile struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Layer Layer `json:"layer,omitempty"`
}

// ResolvedLayer returns the entry's layer, defaulting to world for the old
// save format.
func (h HiddenTile) ResolvedLayer() Layer {
	if h.Layer == LayerAbove {
		return LayerAbove
	}
	return LayerWorld
}

// Key builds the canonical "x,y" tile key used by collection counters.
func Key(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

// ParseKey splits a "x,y" tile key. Returns false on malformed keys.
func ParseKey(key string) (int, int, bool) {
	parts := strings.SplitN(key, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

// Tile is one cell of a layer. Alpha zero means hidden; hidden world-layer
// tiles also drop their collision.
type Tile struct {
	Gid        int
	Alpha      float64
	Collides   bool
	Properties map[string]string
}

// Hidden reports whether the tile is invisible.
func (t *Tile) Hidden() bool {
	return t.Alpha == 0
}

// Property returns the named tile property, or "" if unset.
func (t *Tile) Property(name string) string {
	if t.Properties == nil {
		return ""
	}
	return t.Properties[name]
}

// Object is a named point placed on the map's object layer, such as a spawn
// marker. Coordinates are in pixels.
type Object struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Map is the in-memory tile map the session mutates. It owns tile
// visibility, collision, and the derived tile-group index.
type Map struct {
	width      int
	height     int
	tileWidth  int
	tileHeight int

	layers  map[Layer][]*Tile
	objects []Object

	// groups maps a world-layer tile key to the keys of its contiguous
	// same-gid group, rebuilt after load since hidden and placed tiles
	// change membership.
	groups map[string][]string
}

func NewMap(width, height, tileWidth, tileHeight int) *Map {
	return &Map{
		width:      width,
		height:     height,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		layers: map[Layer][]*Tile{
			LayerWorld: make([]*Tile, width*height),
			LayerAbove: make([]*Tile, width*height),
		},
		groups: map[string][]string{},
	}
}

func (m *Map) Width() int      { return m.width }
func (m *Map) Height() int     { return m.height }
func (m *Map) TileWidth() int  { return m.tileWidth }
func (m *Map) TileHeight() int { return m.tileHeight }

// AddObject registers a named object such as a spawn point.
func (m *Map) AddObject(obj Object) {
	m.objects = append(m.objects, obj)
}

// FindObject returns the first object with the given name, or nil.
func (m *Map) FindObject(name string) *Object {
	for i := range m.objects {
		if m.objects[i].Name == name {
			return &m.objects[i]
		}
	}
	return nil
}

// FindSpawn returns the primary spawn point, falling back to the stairs
// spawn point. Returns nil if the map has neither.
func (m *Map) FindSpawn() *Object {
	if obj := m.FindObject(SpawnPointName); obj != nil {
		return obj
	}
	return m.FindObject(StairsSpawnPointName)
}

// SetTile places a tile on a layer, replacing whatever was there. New tiles
// start visible.
func (m *Map) SetTile(layer Layer, x, y int, tile *Tile) {
	if !m.inBounds(x, y) {
		return
	}
	m.layers[layer][y*m.width+x] = tile
}

// TileAt returns the tile at a coordinate, or nil for empty cells or
// out-of-bounds coordinates.
func (m *Map) TileAt(layer Layer, x, y int) *Tile {
	if !m.inBounds(x, y) {
		return nil
	}
	return m.layers[layer][y*m.width+x]
}

// HideTile makes the tile at a coordinate invisible. World-layer tiles also
// lose their collision so the player can walk through the empty spot.
func (m *Map) HideTile(layer Layer, x, y int) {
	tile := m.TileAt(layer, x, y)
	if tile == nil {
		return
	}
	tile.Alpha = 0
	if layer == LayerWorld {
		tile.Collides = false
	}
}

// PlaceTile applies a player-introduced tile to the world layer. Applying
// the same placement twice yields the same state.
func (m *Map) PlaceTile(p PlacedTile) {
	if !m.inBounds(p.X, p.Y) {
		return
	}
	m.SetTile(LayerWorld, p.X, p.Y, &Tile{
		Gid:      p.Gid,
		Alpha:    1,
		Collides: p.Collides,
	})
}

// HiddenTiles scans every cell of both layers in row-major order and returns
// the tiles whose visibility is zero. This is the authoritative hidden-tile
// set written into a save record.
func (m *Map) HiddenTiles() []HiddenTile {
	var hidden []HiddenTile
	for _, layer := range []Layer{LayerWorld, LayerAbove} {
		for y := 0; y < m.height; y++ {
			for x := 0; x < m.width; x++ {
				tile := m.TileAt(layer, x, y)
				if tile != nil && tile.Hidden() {
					hidden = append(hidden, HiddenTile{X: x, Y: y, Layer: layer})
				}
			}
		}
	}
	return hidden
}

// WorldToTile converts pixel coordinates to the containing tile coordinate.
func (m *Map) WorldToTile(px, py float64) (int, int) {
	return int(px) / m.tileWidth, int(py) / m.tileHeight
}

// TileCenter returns the pixel center of a tile.
func (m *Map) TileCenter(x, y int) (float64, float64) {
	cx := float64(x*m.tileWidth) + float64(m.tileWidth)/2
	cy := float64(y*m.tileHeight) + float64(m.tileHeight)/2
	return cx, cy
}

func (m *Map) inBounds(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// RebuildGroups recomputes contiguous same-gid groups of visible world-layer
// tiles. Multi-tile features (trees) hide as a unit, so group membership must
// be rebuilt whenever hidden or placed tiles change the layout.
func (m *Map) RebuildGroups() {
	m.groups = map[string][]string{}
	seen := make(map[string]bool)

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			key := Key(x, y)
			if seen[key] {
				continue
			}
			tile := m.TileAt(LayerWorld, x, y)
			if tile == nil || tile.Hidden() {
				continue
			}

			group := m.floodGroup(x, y, tile.Gid, seen)
			for _, k := range group {
				m.groups[k] = group
			}
		}
	}
}

// GroupTiles returns the keys of the group containing the given world-layer
// tile, including the tile itself. Ungrouped or hidden tiles return nil.
func (m *Map) GroupTiles(x, y int) []string {
	return m.groups[Key(x, y)]
}

func (m *Map) floodGroup(x, y, gid int, seen map[string]bool) []string {
	var group []string
	stack := [][2]int{{x, y}}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := Key(c[0], c[1])
		if seen[key] {
			continue
		}
		tile := m.TileAt(LayerWorld, c[0], c[1])
		if tile == nil || tile.Hidden() || tile.Gid != gid {
			continue
		}

		seen[key] = true
		group = append(group, key)
		stack = append(stack,
			[2]int{c[0] + 1, c[1]},
			[2]int{c[0] - 1, c[1]},
			[2]int{c[0], c[1] + 1},
			[2]int{c[0], c[1] - 1},
		)
	}

	return group
}
