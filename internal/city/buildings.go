// Building construction: cost scaling, affordability checks, atomic
// builds, and the storage/population unlock gates.
package city

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/talgya/fragile/internal/catalog"
)

// BuildResult reports the outcome of a build attempt.
type BuildResult struct {
	OK       bool      `json:"ok"`
	Reason   string    `json:"reason,omitempty"`
	Building *Building `json:"building,omitempty"`
}

// CurrentBuildingCost returns the scaled cost of the next copy of a
// building type, ceil-rounded per resource. costReduction is the combined
// tech and legacy discount in [0, 1).
func (s *System) CurrentBuildingCost(id string, costReduction float64) (map[string]float64, error) {
	bt := s.cat.Building(id)
	if bt == nil {
		return nil, fmt.Errorf("unknown building type %q", id)
	}

	existing := 0
	if s.city != nil {
		for _, b := range s.city.Buildings {
			if b.Type == id {
				existing++
			}
		}
	}

	scale := 1.0
	switch bt.Pricing.ScalingType {
	case catalog.ScalingExponential:
		scale = math.Pow(bt.Pricing.ScalingFactor, float64(existing))
	case catalog.ScalingLinear:
		scale = 1 + (bt.Pricing.ScalingFactor-1)*float64(existing)
	case catalog.ScalingFixed:
		// Base cost unchanged regardless of count.
	}

	cost := make(map[string]float64, len(bt.BaseCost))
	for res, base := range bt.BaseCost {
		c := base * scale * (1 - costReduction)
		cost[res] = math.Ceil(c)
	}
	return cost, nil
}

// resourceAmount reads a resource by its catalog id.
func (c *City) resourceAmount(res string) float64 {
	switch res {
	case "food":
		return c.Resources.Food
	case "wood":
		return c.Resources.Wood
	case "stone":
		return c.Resources.Stone
	case "research":
		return c.Resources.Research
	}
	return 0
}

func (c *City) debitResource(res string, amount float64) {
	switch res {
	case "food":
		c.Resources.Food -= amount
	case "wood":
		c.Resources.Wood -= amount
	case "stone":
		c.Resources.Stone -= amount
	case "research":
		c.Resources.Research -= amount
	}
}

// CanBuild reports whether the next copy of a building type is
// affordable and unlocked. The reason names the first blocking problem.
func (s *System) CanBuild(id string, costReduction float64) (bool, string) {
	if s.city == nil {
		return false, "no city founded"
	}
	bt := s.cat.Building(id)
	if bt == nil {
		return false, fmt.Sprintf("unknown building %q", id)
	}
	if _, ok := s.unlocked[id]; !ok {
		return false, fmt.Sprintf("%s is not unlocked yet", bt.Name)
	}

	cost, err := s.CurrentBuildingCost(id, costReduction)
	if err != nil {
		return false, err.Error()
	}
	// Stable check order so the reported shortfall is deterministic.
	for _, res := range [...]string{"food", "wood", "stone", "research"} {
		need, ok := cost[res]
		if !ok {
			continue
		}
		if s.city.resourceAmount(res) < need {
			return false, fmt.Sprintf("not enough %s (need %.0f)", res, need)
		}
	}

	if len(bt.RequiresTerrain) > 0 && !s.hasNearbyTerrain(bt.RequiresTerrain) {
		return false, fmt.Sprintf("%s requires nearby terrain", bt.Name)
	}

	return true, ""
}

// Build debits the scaled cost and appends a new level-1 building.
// Never partially debits: affordability is checked first and the debit
// loop runs only on success.
func (s *System) Build(id string, costReduction float64) BuildResult {
	ok, reason := s.CanBuild(id, costReduction)
	if !ok {
		return BuildResult{Reason: reason}
	}

	bt := s.cat.Building(id)
	cost, _ := s.CurrentBuildingCost(id, costReduction)
	for res, amount := range cost {
		s.city.debitResource(res, amount)
	}

	maxWorkers := 0
	if bt.RequiresWorker {
		maxWorkers = 1
	}
	b := &Building{
		ID:         uuid.NewString(),
		Type:       bt.ID,
		Name:       bt.Name,
		Level:      1,
		MaxLevel:   bt.MaxLevel,
		MaxWorkers: maxWorkers,
	}
	s.city.Buildings = append(s.city.Buildings, b)

	s.RecomputeDerived()
	s.CheckUnlocks()

	copied := *b
	return BuildResult{OK: true, Building: &copied}
}

// CheckUnlocks evaluates the runtime unlock gates and returns the ids of
// building types that just became available. Idempotent: already-unlocked
// types are never reported again.
//
// Gates: the shed unlocks on storage pressure (wood at cap); the library
// unlocks at population 10.
func (s *System) CheckUnlocks() []string {
	if s.city == nil {
		return nil
	}
	var newly []string

	if _, ok := s.unlocked["shed"]; !ok && s.cat.Building("shed") != nil {
		if s.city.Resources.Wood >= s.city.Storage.Wood {
			s.unlocked["shed"] = struct{}{}
			newly = append(newly, "shed")
		}
	}

	if _, ok := s.unlocked["library"]; !ok && s.cat.Building("library") != nil {
		if s.city.Population >= 10 {
			s.unlocked["library"] = struct{}{}
			newly = append(newly, "library")
		}
	}

	return newly
}

// RecomputeDerived rebuilds every derived stat from base values plus
// building effects: population cap, storage caps, defense rating, worker
// availability. Capped resources are clamped to the (possibly smaller)
// new caps; excess is lost, not refunded.
func (s *System) RecomputeDerived() {
	c := s.city
	if c == nil {
		return
	}

	c.MaxPopulation = 0
	c.Storage = Storage{Food: BaseFoodStorage, Wood: BaseWoodStorage, Stone: BaseStoneStorage}
	c.DefenseRating = 0

	for _, b := range c.Buildings {
		bt := s.cat.Building(b.Type)
		if bt == nil {
			continue
		}
		lv := float64(b.Level)
		c.MaxPopulation += bt.Effects.PopulationCapacity * b.Level
		c.Storage.Food += bt.Effects.FoodStorage * lv
		c.Storage.Wood += bt.Effects.WoodStorage * lv
		c.Storage.Stone += bt.Effects.StoneStorage * lv
		c.DefenseRating += bt.Effects.DefenseRating * b.Level
	}

	if c.Population > c.MaxPopulation {
		c.Population = c.MaxPopulation
	}

	assigned := 0
	for _, b := range c.Buildings {
		assigned += b.AssignedWorkers
	}
	c.AvailableWorkers = c.Population - assigned

	c.Resources.Food = min(c.Resources.Food, c.Storage.Food)
	c.Resources.Wood = min(c.Resources.Wood, c.Storage.Wood)
	c.Resources.Stone = min(c.Resources.Stone, c.Storage.Stone)
}

// hasNearbyTerrain reports whether any generated tile within radius 1 of
// the city matches one of the given terrain ids.
func (s *System) hasNearbyTerrain(terrains []string) bool {
	return s.scanNearby(func(tileTypeID string) bool {
		for _, want := range terrains {
			if tileTypeID == want {
				return true
			}
		}
		return false
	})
}

// scanNearby runs fn over the terrain ids of the city tile and its six
// neighbors, using lookup-only tile access. Returns true on first match.
func (s *System) scanNearby(fn func(tileTypeID string) bool) bool {
	if s.gen == nil || s.city == nil {
		return false
	}
	if t := s.gen.GetTile(s.city.Position); t != nil && fn(t.Type.ID) {
		return true
	}
	for _, nc := range s.city.Position.Neighbors() {
		if t := s.gen.GetTile(nc); t != nil && fn(t.Type.ID) {
			return true
		}
	}
	return false
}
