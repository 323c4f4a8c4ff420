// The per-tick economic step: passive trickle, population growth,
// staffing-proportional terrain-boosted building production, and the
// worker assignment operations.
package city

import (
	"github.com/talgya/fragile/internal/catalog"
)

// TickModifiers are the external multipliers for one production tick:
// summed tech effects, the legacy production bonus, and the seasonal food
// factor. Zero values mean "no effect" except SeasonFoodMult, which the
// caller must set (1.0 outside winter).
type TickModifiers struct {
	WorkerEfficiency float64
	FoodProduction   float64
	StoneProduction  float64
	ProductionBonus  float64
	SeasonFoodMult   float64
}

// TickReport describes what happened during a production tick.
type TickReport struct {
	PopulationGrew bool
	NewPopulation  int
	Unlocked       []string
}

// GenerateResources advances the city economy by one tick.
func (s *System) GenerateResources(mods TickModifiers) TickReport {
	var report TickReport
	c := s.city
	if c == nil {
		return report
	}

	c.TickCount++

	// Passive city-wide trickle, capped by storage.
	c.Resources.Wood = min(c.Resources.Wood+PassiveWoodPerTick, c.Storage.Wood)
	c.Resources.Stone = min(c.Resources.Stone+PassiveStonePerTick, c.Storage.Stone)

	report.Unlocked = append(report.Unlocked, s.CheckUnlocks()...)

	// Stochastic population growth while fed and under the cap.
	if c.Resources.Food >= GrowthFoodCost && c.Population < c.MaxPopulation && s.rng.Float64() < GrowthChance {
		c.Population++
		c.Resources.Food -= GrowthFoodCost
		s.RecomputeDerived()
		report.PopulationGrew = true
		report.NewPopulation = c.Population
		report.Unlocked = append(report.Unlocked, s.CheckUnlocks()...)
	}

	for _, b := range c.Buildings {
		bt := s.cat.Building(b.Type)
		if bt == nil {
			continue
		}

		// Partial staffing produces partial output; worker-less
		// buildings always run at full rate.
		staffing := 1.0
		if b.MaxWorkers > 0 {
			staffing = float64(b.AssignedWorkers) / float64(b.MaxWorkers)
		}
		if staffing == 0 {
			continue
		}

		mult := staffing * float64(b.Level) * s.TerrainBonus(bt) * (1 + mods.ProductionBonus)
		if bt.RequiresWorker {
			mult *= 1 + mods.WorkerEfficiency
		}

		if bt.Effects.FoodPerTick > 0 {
			food := bt.Effects.FoodPerTick * mult * (1 + mods.FoodProduction) * mods.SeasonFoodMult
			c.Resources.Food = min(c.Resources.Food+food, c.Storage.Food)
		}
		if bt.Effects.WoodPerTick > 0 {
			c.Resources.Wood = min(c.Resources.Wood+bt.Effects.WoodPerTick*mult, c.Storage.Wood)
		}
		if bt.Effects.StonePerTick > 0 {
			stone := bt.Effects.StonePerTick * mult * (1 + mods.StoneProduction)
			c.Resources.Stone = min(c.Resources.Stone+stone, c.Storage.Stone)
		}
		if bt.Effects.ResearchPerTick > 0 {
			c.Resources.Research += bt.Effects.ResearchPerTick * mult
		}
	}

	report.Unlocked = append(report.Unlocked, s.CheckUnlocks()...)
	return report
}

// TerrainBonus returns the production multiplier a building type gets
// from terrain within radius 1 of the city (7 hexes). Only tiles already
// generated by exploration count; lookups never materialize new tiles.
func (s *System) TerrainBonus(bt *catalog.BuildingType) float64 {
	if s.gen == nil || s.city == nil {
		return 1.0
	}

	perTile := func(tileTypeID string) float64 {
		switch bt.ID {
		case "lumber_yard":
			if tileTypeID == "forest" {
				return 0.10
			}
		case "quarry":
			if tileTypeID == "hills" || tileTypeID == "mountain" {
				return 0.20
			}
		case "farm":
			if tileTypeID == "plains" {
				return 0.05
			}
		}
		return 0
	}

	bonus := 0.0
	if t := s.gen.GetTile(s.city.Position); t != nil {
		bonus += perTile(t.Type.ID)
	}
	for _, nc := range s.city.Position.Neighbors() {
		if t := s.gen.GetTile(nc); t != nil {
			bonus += perTile(t.Type.ID)
		}
	}
	return 1 + bonus
}

// AssignWorker places one worker in the building with the given instance
// id. Fails without state change when no workers are free or the building
// is fully staffed.
func (s *System) AssignWorker(buildingID string) (bool, string) {
	if s.city == nil {
		return false, "no city founded"
	}
	if s.city.AvailableWorkers <= 0 {
		return false, "no available workers"
	}
	for _, b := range s.city.Buildings {
		if b.ID != buildingID {
			continue
		}
		if b.AssignedWorkers >= b.MaxWorkers {
			return false, b.Name + " is fully staffed"
		}
		b.AssignedWorkers++
		s.RecomputeDerived()
		return true, ""
	}
	return false, "unknown building"
}

// UnassignWorker removes one worker from the building with the given
// instance id.
func (s *System) UnassignWorker(buildingID string) (bool, string) {
	if s.city == nil {
		return false, "no city founded"
	}
	for _, b := range s.city.Buildings {
		if b.ID != buildingID {
			continue
		}
		if b.AssignedWorkers <= 0 {
			return false, b.Name + " has no workers"
		}
		b.AssignedWorkers--
		s.RecomputeDerived()
		return true, ""
	}
	return false, "unknown building"
}

// AssignWorkerToType staffs the first building of the given type with
// spare capacity.
func (s *System) AssignWorkerToType(typeID string) (bool, string) {
	if s.city == nil {
		return false, "no city founded"
	}
	if s.city.AvailableWorkers <= 0 {
		return false, "no available workers"
	}
	for _, b := range s.city.Buildings {
		if b.Type == typeID && b.AssignedWorkers < b.MaxWorkers {
			b.AssignedWorkers++
			s.RecomputeDerived()
			return true, ""
		}
	}
	return false, "no building of that type with free slots"
}

// UnassignWorkerFromType pulls a worker from the first staffed building
// of the given type.
func (s *System) UnassignWorkerFromType(typeID string) (bool, string) {
	if s.city == nil {
		return false, "no city founded"
	}
	for _, b := range s.city.Buildings {
		if b.Type == typeID && b.AssignedWorkers > 0 {
			b.AssignedWorkers--
			s.RecomputeDerived()
			return true, ""
		}
	}
	return false, "no staffed building of that type"
}

// UnassignAllWorkers zeroes every building's staffing in one pass.
func (s *System) UnassignAllWorkers() {
	if s.city == nil {
		return
	}
	for _, b := range s.city.Buildings {
		b.AssignedWorkers = 0
	}
	s.RecomputeDerived()
}

// ApplyDamage applies event losses: integrity, resources, population.
// Everything clamps at zero; population loss triggers a derived-state
// recompute since worker math depends on it.
func (s *System) ApplyDamage(integrity, food, wood float64, population int) {
	c := s.city
	if c == nil {
		return
	}
	c.Integrity = max(c.Integrity-integrity, 0)
	c.Resources.Food = max(c.Resources.Food-food, 0)
	c.Resources.Wood = max(c.Resources.Wood-wood, 0)
	if population > 0 {
		c.Population -= population
		if c.Population < 0 {
			c.Population = 0
		}
		// Workers may now exceed population; pull them off buildings
		// until the conservation invariant holds again.
		s.shedExcessWorkers()
		s.RecomputeDerived()
	}
}

// shedExcessWorkers removes assigned workers until the total no longer
// exceeds the population.
func (s *System) shedExcessWorkers() {
	c := s.city
	assigned := 0
	for _, b := range c.Buildings {
		assigned += b.AssignedWorkers
	}
	for _, b := range c.Buildings {
		for assigned > c.Population && b.AssignedWorkers > 0 {
			b.AssignedWorkers--
			assigned--
		}
	}
}

// AdjustUnrest moves unrest by delta, clamped to [0, MaxUnrest].
func (s *System) AdjustUnrest(delta float64) {
	c := s.city
	if c == nil {
		return
	}
	c.Unrest += delta
	if c.Unrest < 0 {
		c.Unrest = 0
	}
	if c.Unrest > c.MaxUnrest {
		c.Unrest = c.MaxUnrest
	}
}

// ConsumeFood debits upkeep food and returns the unmet shortfall.
func (s *System) ConsumeFood(amount float64) float64 {
	c := s.city
	if c == nil {
		return 0
	}
	if c.Resources.Food >= amount {
		c.Resources.Food -= amount
		return 0
	}
	shortfall := amount - c.Resources.Food
	c.Resources.Food = 0
	return shortfall
}

// DecayIntegrity erodes integrity (starvation, neglect), clamped at zero.
func (s *System) DecayIntegrity(amount float64) {
	c := s.city
	if c == nil {
		return
	}
	c.Integrity = max(c.Integrity-amount, 0)
}
