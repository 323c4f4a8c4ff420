// Package catalog holds the static data tables the simulation runs on:
// tile types, resource types, building types, and technologies.
// Catalogs are constructed once at startup and passed into the systems
// that consume them; nothing in this package is mutable after load.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

//go:embed data/tiles.json data/buildings.json data/techs.json
var defaultData embed.FS

// TileType describes one kind of terrain.
// Weight is the generation probability mass; it doubles as the
// rarity class used for neighbor clustering bonuses.
type TileType struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	Resources []string `json:"resources"`
	Weight    float64  `json:"weight"`
}

// ResourceType describes a harvestable map resource.
type ResourceType struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ScalingType selects how a building's cost grows with each copy built.
type ScalingType string

const (
	ScalingExponential ScalingType = "exponential"
	ScalingLinear      ScalingType = "linear"
	ScalingFixed       ScalingType = "fixed"
)

// Pricing controls build-cost growth for a building type.
type Pricing struct {
	ScalingFactor float64     `json:"scalingFactor"`
	ScalingType   ScalingType `json:"scalingType"`
}

// BuildingEffects are the per-level contributions a building makes to
// derived city stats. All fields are additive across buildings.
type BuildingEffects struct {
	PopulationCapacity int     `json:"populationCapacity,omitempty"`
	FoodPerTick        float64 `json:"foodPerTick,omitempty"`
	WoodPerTick        float64 `json:"woodPerTick,omitempty"`
	StonePerTick       float64 `json:"stonePerTick,omitempty"`
	ResearchPerTick    float64 `json:"researchPerTick,omitempty"`
	FoodStorage        float64 `json:"foodStorage,omitempty"`
	WoodStorage        float64 `json:"woodStorage,omitempty"`
	StoneStorage       float64 `json:"stoneStorage,omitempty"`
	DefenseRating      int     `json:"defenseRating,omitempty"`
}

// BuildingType is one entry in the building table.
type BuildingType struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Icon            string             `json:"icon"`
	BaseCost        map[string]float64 `json:"baseCost"`
	Pricing         Pricing            `json:"pricing"`
	Effects         BuildingEffects    `json:"effects"`
	RequiresWorker  bool               `json:"requiresWorker"`
	RequiresTerrain []string           `json:"requiresTerrain,omitempty"`
	MaxLevel        int                `json:"maxLevel"`
}

// TechEffects are the cumulative multipliers a researched tech grants.
type TechEffects struct {
	WorkerEfficiency         float64 `json:"workerEfficiency,omitempty"`
	FoodProduction           float64 `json:"foodProduction,omitempty"`
	BuildingCostReduction    float64 `json:"buildingCostReduction,omitempty"`
	StoneProduction          float64 `json:"stoneProduction,omitempty"`
	FoodConsumptionReduction float64 `json:"foodConsumptionReduction,omitempty"`
}

// TechType is one entry in the technology table.
type TechType struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Icon             string      `json:"icon"`
	Cost             TechCost    `json:"cost"`
	ResearchTime     float64     `json:"researchTime"` // seconds
	Prerequisites    []string    `json:"prerequisites"`
	Effects          TechEffects `json:"effects"`
	UnlocksBuildings []string    `json:"unlocksBuildings,omitempty"`
}

// TechCost is the research-point price of a tech.
type TechCost struct {
	Research float64 `json:"research"`
}

// Catalog bundles every static table.
type Catalog struct {
	tiles     map[string]*TileType
	resources map[string]*ResourceType
	buildings map[string]*BuildingType
	techs     map[string]*TechType

	// Tile types sorted by descending weight. Selection order matters
	// for reproducing saved worlds, so it is fixed at load time.
	tilesByWeight []*TileType
}

type tileFile struct {
	TileTypes map[string]*TileType     `json:"tileTypes"`
	Resources map[string]*ResourceType `json:"resources"`
}

type buildingFile struct {
	Buildings map[string]*BuildingType `json:"buildings"`
}

type techFile struct {
	Techs map[string]*TechType `json:"techs"`
}

// Default loads the embedded data tables.
func Default() (*Catalog, error) {
	tiles, err := defaultData.ReadFile("data/tiles.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded tiles: %w", err)
	}
	buildings, err := defaultData.ReadFile("data/buildings.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded buildings: %w", err)
	}
	techs, err := defaultData.ReadFile("data/techs.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded techs: %w", err)
	}
	return Parse(tiles, buildings, techs)
}

// LoadDir reads tiles.json, buildings.json, and techs.json from a directory,
// for running against modded data tables.
func LoadDir(dir string) (*Catalog, error) {
	tiles, err := os.ReadFile(dir + "/tiles.json")
	if err != nil {
		return nil, fmt.Errorf("read tiles: %w", err)
	}
	buildings, err := os.ReadFile(dir + "/buildings.json")
	if err != nil {
		return nil, fmt.Errorf("read buildings: %w", err)
	}
	techs, err := os.ReadFile(dir + "/techs.json")
	if err != nil {
		return nil, fmt.Errorf("read techs: %w", err)
	}
	return Parse(tiles, buildings, techs)
}

// Parse builds a Catalog from raw JSON tables.
func Parse(tilesJSON, buildingsJSON, techsJSON []byte) (*Catalog, error) {
	var tf tileFile
	if err := json.Unmarshal(tilesJSON, &tf); err != nil {
		return nil, fmt.Errorf("parse tiles: %w", err)
	}
	var bf buildingFile
	if err := json.Unmarshal(buildingsJSON, &bf); err != nil {
		return nil, fmt.Errorf("parse buildings: %w", err)
	}
	var xf techFile
	if err := json.Unmarshal(techsJSON, &xf); err != nil {
		return nil, fmt.Errorf("parse techs: %w", err)
	}

	c := &Catalog{
		tiles:     tf.TileTypes,
		resources: tf.Resources,
		buildings: bf.Buildings,
		techs:     xf.Techs,
	}
	if len(c.tiles) == 0 {
		return nil, fmt.Errorf("tile table is empty")
	}

	for _, t := range c.tiles {
		c.tilesByWeight = append(c.tilesByWeight, t)
	}
	sort.Slice(c.tilesByWeight, func(i, j int) bool {
		a, b := c.tilesByWeight[i], c.tilesByWeight[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.ID < b.ID // stable order for equal weights
	})

	for id, tech := range c.techs {
		if tech.ResearchTime <= 0 {
			return nil, fmt.Errorf("tech %s: research time must be positive, got %v", id, tech.ResearchTime)
		}
		for _, prereq := range tech.Prerequisites {
			if _, ok := c.techs[prereq]; !ok {
				return nil, fmt.Errorf("tech %s: unknown prerequisite %s", id, prereq)
			}
		}
	}

	return c, nil
}

// Tile returns the tile type with the given id, or nil.
func (c *Catalog) Tile(id string) *TileType { return c.tiles[id] }

// Resource returns the resource type with the given id, or nil.
func (c *Catalog) Resource(id string) *ResourceType { return c.resources[id] }

// Building returns the building type with the given id, or nil.
func (c *Catalog) Building(id string) *BuildingType { return c.buildings[id] }

// Tech returns the tech with the given id, or nil.
func (c *Catalog) Tech(id string) *TechType { return c.techs[id] }

// TilesByWeight returns tile types sorted by descending weight.
// Callers must not modify the returned slice.
func (c *Catalog) TilesByWeight() []*TileType { return c.tilesByWeight }

// Buildings returns every building type, sorted by id.
func (c *Catalog) Buildings() []*BuildingType {
	out := make([]*BuildingType, 0, len(c.buildings))
	for _, b := range c.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Techs returns every tech, sorted by id.
func (c *Catalog) Techs() []*TechType {
	out := make([]*TechType, 0, len(c.techs))
	for _, t := range c.techs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
