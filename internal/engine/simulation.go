// Package engine orchestrates a run: it owns every subsystem, drives the
// tick-shaped entry points, applies hazard effects back onto the city,
// forwards milestone events to the story log, and detects collapse.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/fragile/internal/catalog"
	"github.com/talgya/fragile/internal/city"
	"github.com/talgya/fragile/internal/events"
	"github.com/talgya/fragile/internal/prestige"
	"github.com/talgya/fragile/internal/settler"
	"github.com/talgya/fragile/internal/story"
	"github.com/talgya/fragile/internal/tech"
	"github.com/talgya/fragile/internal/world"
)

// Phase is the run's top-level state: wandering or settled.
type Phase string

const (
	PhaseExploration Phase = "exploration"
	PhaseCity        Phase = "city"
)

// ViewRange is how far the settler (and later the city) can see.
const ViewRange = 2

// Food upkeep tuning.
const (
	foodPerCapita      = 0.2
	winterUpkeepFactor = 1.5
	harshUpkeepFactor  = 2.0

	starvationUnrest    = 2.0
	starvationIntegrity = 1.0
	calmUnrestDecay     = 0.5

	winterFoodMult = 0.5
	harshFoodMult  = 0.25

	forageFood = 2
)

// Simulation is the full state of one session: the persistent world plus
// the current run.
type Simulation struct {
	Catalog    *catalog.Catalog
	Generator  *world.Generator
	Visibility *world.Visibility
	Settler    *settler.Settler
	City       *city.System
	Research   *tech.System
	Hazards    *events.System
	Story      *story.System
	Legacy     *prestige.System

	Phase       Phase
	HarshWinter bool
	CurrentTab  string // "buildings" | "research", presentation state carried in the save

	rng        *rand.Rand
	lastSeason events.Season
}

// TickSummary reports what one tick did, for logging and the API.
type TickSummary struct {
	Tick              int                `json:"tick"`
	Season            string             `json:"season"`
	Events            []events.GameEvent `json:"events,omitempty"`
	ResearchCompleted string             `json:"researchCompleted,omitempty"`
	Collapsed         bool               `json:"collapsed,omitempty"`
	CollapseReason    string             `json:"collapseReason,omitempty"`
}

// NewSimulation starts a fresh session with the given world seed.
// Legacy bonuses from previous sessions apply immediately (starting food).
func NewSimulation(seed int32, cat *catalog.Catalog, legacy *prestige.System, rng *rand.Rand) *Simulation {
	s := &Simulation{
		Catalog:    cat,
		Generator:  world.NewGenerator(seed, cat),
		Visibility: world.NewVisibility(),
		Legacy:     legacy,
		Story:      story.NewSystem(),
		Phase:      PhaseExploration,
		CurrentTab: "buildings",
		rng:        rng,
	}
	s.startRun()
	slog.Info("new game", "seed", seed, "legacy_shards", legacy.TotalShards())
	return s
}

// startRun resets the per-run subsystems. The generator, visibility, the
// story log, and the legacy ledger persist across runs in a session.
func (s *Simulation) startRun() {
	s.Settler = settler.New(s.Legacy.Bonuses().StartingFood)
	s.City = city.NewSystem(s.Catalog, s.Generator, s.rng)
	s.Research = tech.NewSystem(s.Catalog)
	s.Hazards = events.NewSystem(s.rng)
	s.Phase = PhaseExploration
	s.HarshWinter = false
	s.lastSeason = events.SeasonSpring
	s.reveal(s.Settler.Position)
}

// reveal updates visibility around a viewer and materializes every tile
// in view, in deterministic scan order.
func (s *Simulation) reveal(viewer world.HexCoord) {
	s.Visibility.Update(viewer, ViewRange)
	for q := viewer.Q - ViewRange; q <= viewer.Q+ViewRange; q++ {
		for r := viewer.R - ViewRange; r <= viewer.R+ViewRange; r++ {
			hex := world.HexCoord{Q: q, R: r}
			if world.Distance(viewer, hex) <= ViewRange {
				s.Generator.GenerateTile(hex)
			}
		}
	}
}

// MoveSettler steps the settler to an adjacent hex, spending food and
// revealing terrain. Foraging: stepping onto a berry resource restores
// some food and picks the bush clean.
func (s *Simulation) MoveSettler(to world.HexCoord) (bool, string) {
	if s.Phase != PhaseExploration {
		return false, "the settler has already settled"
	}
	if world.Distance(s.Settler.Position, to) != 1 {
		return false, "can only move to adjacent hexes"
	}
	if !s.Settler.Move(to) {
		return false, "the settler is out of food"
	}

	s.reveal(to)

	if tile := s.Generator.GetTile(to); tile != nil && tile.HasResource && tile.Resource != nil && tile.Resource.ID == "berries" {
		s.Settler.AddFood(forageFood)
		tile.HasResource = false
		tile.Resource = nil
	}
	return true, ""
}

// FoundCity converts the settler into a city at its current position.
func (s *Simulation) FoundCity() (*city.City, error) {
	if s.City.HasCity() {
		return nil, fmt.Errorf("city already founded")
	}
	if s.Phase != PhaseExploration {
		return nil, fmt.Errorf("not in exploration phase")
	}

	c := s.City.Found(s.Settler.Position, s.Settler.Food)
	s.Phase = PhaseCity
	s.Story.CityFounded()
	s.reveal(c.Position)
	slog.Info("city founded", "position", c.Position.Key(), "food", c.Resources.Food)
	return c, nil
}

// costReduction combines the tech and legacy building discounts.
func (s *Simulation) costReduction() float64 {
	return s.Research.TechEffects().BuildingCostReduction + s.Legacy.Bonuses().BuildingCostReduction
}

// CanBuild checks affordability of a building at current discounts.
func (s *Simulation) CanBuild(id string) (bool, string) {
	return s.City.CanBuild(id, s.costReduction())
}

// Build constructs a building at current discounts.
func (s *Simulation) Build(id string) city.BuildResult {
	res := s.City.Build(id, s.costReduction())
	if res.OK {
		slog.Info("building constructed", "type", id)
	}
	return res
}

// StartResearch begins a research if the tech is available and the city
// has the points; the city ledger is debited here, on success only.
func (s *Simulation) StartResearch(id string) (bool, string) {
	snap := s.City.Snapshot()
	if snap == nil {
		return false, "no city founded"
	}
	if ok, reason := s.Research.CanResearch(id); !ok {
		return false, reason
	}
	t := s.Catalog.Tech(id)
	if snap.Resources.Research < t.Cost.Research {
		return false, fmt.Sprintf("not enough research points (need %.0f)", t.Cost.Research)
	}
	if !s.Research.StartResearch(id, snap.Resources.Research) {
		return false, "cannot start research"
	}
	s.City.SpendResearch(t.Cost.Research)
	slog.Info("research started", "tech", id)
	return true, ""
}

// Tick advances the simulation by one step. Safe to call in any phase;
// outside the city phase it is a no-op.
func (s *Simulation) Tick() TickSummary {
	if s.Phase != PhaseCity {
		return TickSummary{}
	}

	techFx := s.Research.TechEffects()
	bonuses := s.Legacy.Bonuses()

	tick := s.City.Snapshot().TickCount + 1
	season := events.SeasonForTick(tick)

	foodMult := 1.0
	if season == events.SeasonWinter {
		foodMult = winterFoodMult
		if s.HarshWinter {
			foodMult = harshFoodMult
		}
	}

	report := s.City.GenerateResources(city.TickModifiers{
		WorkerEfficiency: techFx.WorkerEfficiency,
		FoodProduction:   techFx.FoodProduction,
		StoneProduction:  techFx.StoneProduction,
		ProductionBonus:  bonuses.ProductionBonus,
		SeasonFoodMult:   foodMult,
	})
	if report.PopulationGrew {
		s.Story.PopulationGrowth(report.NewPopulation)
	}
	for _, id := range report.Unlocked {
		if bt := s.Catalog.Building(id); bt != nil {
			s.Story.BuildingUnlocked(id, bt.Name)
		}
	}

	summary := TickSummary{Tick: tick, Season: season.String()}

	research := s.Research.UpdateResearch()
	if research.Completed != "" {
		summary.ResearchCompleted = research.Completed
		t := s.Catalog.Tech(research.Completed)
		s.Story.ResearchComplete(t.Name)
		slog.Info("research complete", "tech", research.Completed)
		for _, b := range t.UnlocksBuildings {
			if s.City.UnlockBuilding(b) {
				if bt := s.Catalog.Building(b); bt != nil {
					s.Story.BuildingUnlocked(b, bt.Name)
				}
			}
		}
	}

	s.applyUpkeep(season, techFx)

	snap := s.City.Snapshot()
	evts := s.Hazards.CheckForEvents(snap, season, s.HarshWinter)
	for _, e := range evts {
		s.applyEvent(e)
	}
	summary.Events = evts

	s.trackSeasons(season, snap)

	if reason, collapsed := s.collapseReason(); collapsed {
		s.collapse(reason)
		summary.Collapsed = true
		summary.CollapseReason = reason
	}

	return summary
}

// applyUpkeep consumes food for the population and applies the
// starvation spiral or calm-down accordingly.
func (s *Simulation) applyUpkeep(season events.Season, techFx tech.Effects) {
	snap := s.City.Snapshot()
	if snap == nil || snap.Population == 0 {
		return
	}

	perCapita := foodPerCapita * (1 - techFx.FoodConsumptionReduction)
	if season == events.SeasonWinter {
		perCapita *= winterUpkeepFactor
		if s.HarshWinter {
			perCapita = foodPerCapita * (1 - techFx.FoodConsumptionReduction) * harshUpkeepFactor
		}
	}

	shortfall := s.City.ConsumeFood(float64(snap.Population) * perCapita)
	if shortfall > 0 {
		s.City.AdjustUnrest(starvationUnrest)
		s.City.DecayIntegrity(starvationIntegrity)
	} else {
		s.City.AdjustUnrest(-calmUnrestDecay)
	}
}

// applyEvent applies one hazard's effects to the city and the story log.
func (s *Simulation) applyEvent(e events.GameEvent) {
	if e.Effects.HarshWinter {
		s.HarshWinter = true
		s.Story.HarshWinter()
	}
	s.City.ApplyDamage(e.Effects.Integrity, e.Effects.Food, e.Effects.Wood, e.Effects.Population)
	s.Story.Add(fmt.Sprintf("%s_%d", e.Type, e.Tick), e.Description)
	slog.Info("event", "type", e.Type, "severity", e.Severity, "tick", e.Tick)
}

// trackSeasons handles season-boundary bookkeeping: the first-winter
// story beat and the winters-survived counter.
func (s *Simulation) trackSeasons(season events.Season, snap *city.City) {
	if season == events.SeasonWinter && s.lastSeason != events.SeasonWinter && snap != nil && snap.WintersSurvived == 0 {
		s.Story.FirstWinter()
	}
	if s.lastSeason == events.SeasonWinter && season != events.SeasonWinter {
		s.City.MarkWinterSurvived()
		s.HarshWinter = false
	}
	s.lastSeason = season
}

// collapseReason checks the end-of-run conditions.
func (s *Simulation) collapseReason() (string, bool) {
	snap := s.City.Snapshot()
	if snap == nil {
		return "", false
	}
	if snap.Integrity <= 0 {
		return "The city's structures crumbled beyond repair.", true
	}
	if snap.Population <= 0 {
		return "The last citizens perished or fled.", true
	}
	return "", false
}

// collapse records the run in the legacy ledger and resets to a fresh
// exploration phase. The world, the explored map, and the story log
// survive into the next run.
func (s *Simulation) collapse(reason string) {
	snap := s.City.Snapshot()
	run := s.Legacy.RecordCollapse(snap, s.Research.ResearchedCount(), reason)
	s.Story.Collapse(reason)
	slog.Info("city collapsed",
		"reason", reason,
		"ticks", run.TicksSurvived,
		"shards", run.RelicShardsEarned,
	)
	s.startRun()
}
