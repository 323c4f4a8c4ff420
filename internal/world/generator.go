// Deterministic lazy terrain generation.
// Each tile is a pure function of (seed, q, r) plus a clustering bias from
// already-generated neighbors; tiles are memoized on first generation.
package world

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/fragile/internal/catalog"
)

// Tile is one generated hex of terrain.
type Tile struct {
	Coord       HexCoord              `json:"coord"`
	Type        *catalog.TileType     `json:"type"`
	HasResource bool                  `json:"hasResource"`
	Resource    *catalog.ResourceType `json:"resource,omitempty"`

	// Elevation and moisture are presentation metadata sampled from
	// seeded noise. They never feed terrain selection, which must stay
	// exactly reproducible from the hash draws alone.
	Elevation float64 `json:"elevation"`
	Moisture  float64 `json:"moisture"`
}

// Coordinate offsets deriving independent hash draws per tile.
// Terrain, resource presence, and resource choice must not correlate.
const (
	resourceDrawOffset = 1000
	resourcePickOffset = 2000

	// Chance that an eligible tile carries a map resource.
	resourceChance = 0.12
)

// Generator produces deterministic terrain, memoized per coordinate.
// Same seed and same generation order reproduce the same world; the
// clustering bias reads only tiles that already exist, so generation
// order matters at biome boundaries.
type Generator struct {
	seed  int32
	cat   *catalog.Catalog
	tiles map[HexCoord]*Tile

	elevNoise  opensimplex.Noise
	moistNoise opensimplex.Noise
}

// NewGenerator creates a generator for the given seed and data tables.
func NewGenerator(seed int32, cat *catalog.Catalog) *Generator {
	return &Generator{
		seed:       seed,
		cat:        cat,
		tiles:      make(map[HexCoord]*Tile),
		elevNoise:  opensimplex.NewNormalized(int64(seed)),
		moistNoise: opensimplex.NewNormalized(int64(seed) + 1),
	}
}

// Seed returns the world seed, for save snapshots.
func (g *Generator) Seed() int32 { return g.seed }

// GeneratedCount returns the number of memoized tiles.
func (g *Generator) GeneratedCount() int { return len(g.tiles) }

// GenerateTile returns the tile at the given coordinate, generating and
// memoizing it on first access.
func (g *Generator) GenerateTile(coord HexCoord) *Tile {
	if t, ok := g.tiles[coord]; ok {
		return t
	}

	tileType := g.selectTileType(coord)
	hasResource, resource := g.rollResource(coord, tileType)

	x := float64(coord.Q) + float64(coord.R)*0.5
	y := float64(coord.R) * sqrt3 / 2.0

	t := &Tile{
		Coord:       coord,
		Type:        tileType,
		HasResource: hasResource,
		Resource:    resource,
		Elevation:   octaveNoise(g.elevNoise, x, y, 4, 0.08, 0.5),
		Moisture:    octaveNoise(g.moistNoise, x, y, 3, 0.06, 0.5),
	}
	g.tiles[coord] = t
	return t
}

// GetTile returns the tile at the coordinate if it has been generated,
// or nil. Lookup only: simulation code that scans terrain (e.g. city
// bonus calculation) must not materialize new tiles as a side effect.
func (g *Generator) GetTile(coord HexCoord) *Tile {
	return g.tiles[coord]
}

// GenerateKeys materializes tiles for a list of "q,r" keys, in sorted key
// order so that restoring an explored set replays clustering decisions
// identically on every load.
func (g *Generator) GenerateKeys(keys []string) error {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	for _, key := range sorted {
		coord, err := ParseKey(key)
		if err != nil {
			return err
		}
		g.GenerateTile(coord)
	}
	return nil
}

// roll returns a deterministic value in [0, 1) for a coordinate.
// Two structurally different avalanche mixes are XORed to break up the
// axis-aligned streaking a single LCG-style hash produces on a grid.
func (g *Generator) roll(q, r int) float64 {
	seed := int64(g.seed)

	a := uint32(int64(q)*1664525 + int64(r)*1013904223 + seed)
	a = (a ^ (a >> 16)) * 0x85ebca6b
	a = (a ^ (a >> 13)) * 0xc2b2ae35
	a ^= a >> 16

	b := uint32(int64(r)*22695477 + int64(q)*1366128477 + seed*2654435761)
	b = (b ^ (b >> 16)) * 0x45d9f3b
	b = (b ^ (b >> 16)) * 0x45d9f3b
	b ^= b >> 16

	return float64(a^b) / 4294967296.0
}

// clusterBonus returns the per-matching-neighbor weight multiplier for a
// tile type. Rarer terrain clusters harder: a lone river hex is noise, a
// river that continues reads as a river.
func clusterBonus(weight float64) float64 {
	switch {
	case weight <= 3:
		return 2.0
	case weight <= 10:
		return 1.0
	case weight <= 20:
		return 0.4
	case weight <= 30:
		return 0.1
	default:
		return 0
	}
}

// modifiedWeights computes the clustering-adjusted weight for each tile
// type, consulting only neighbors that already exist.
func (g *Generator) modifiedWeights(coord HexCoord) ([]float64, float64) {
	neighborCounts := make(map[string]int)
	for _, nc := range coord.Neighbors() {
		if nt, ok := g.tiles[nc]; ok {
			neighborCounts[nt.Type.ID]++
		}
	}

	types := g.cat.TilesByWeight()
	weights := make([]float64, len(types))
	total := 0.0
	for i, tt := range types {
		w := tt.Weight
		if n := neighborCounts[tt.ID]; n > 0 {
			w *= 1 + clusterBonus(tt.Weight)*float64(n)
		}
		weights[i] = w
		total += w
	}
	return weights, total
}

// selectTileType makes the weighted terrain choice for a coordinate.
func (g *Generator) selectTileType(coord HexCoord) *catalog.TileType {
	weights, total := g.modifiedWeights(coord)
	target := g.roll(coord.Q, coord.R) * total

	types := g.cat.TilesByWeight()
	cumulative := 0.0
	for i, tt := range types {
		cumulative += weights[i]
		if cumulative >= target {
			return tt
		}
	}
	// Floating point slop on the last bucket.
	return types[len(types)-1]
}

// rollResource decides whether the tile carries a resource and which one,
// using draws independent of the terrain roll.
func (g *Generator) rollResource(coord HexCoord, tileType *catalog.TileType) (bool, *catalog.ResourceType) {
	if len(tileType.Resources) == 0 {
		return false, nil
	}

	if g.roll(coord.Q+resourceDrawOffset, coord.R+resourceDrawOffset) >= resourceChance {
		return false, nil
	}

	pick := g.roll(coord.Q+resourcePickOffset, coord.R+resourcePickOffset)
	idx := int(math.Floor(pick * float64(len(tileType.Resources))))
	if idx >= len(tileType.Resources) {
		idx = len(tileType.Resources) - 1
	}
	return true, g.cat.Resource(tileType.Resources[idx])
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns the terrain distribution over generated tiles.
func (g *Generator) TerrainCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range g.tiles {
		counts[t.Type.ID]++
	}
	return counts
}
