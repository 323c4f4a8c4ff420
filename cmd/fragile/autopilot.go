package main

import (
	"math/rand"

	"log/slog"

	"github.com/talgya/fragile/internal/engine"
	"github.com/talgya/fragile/internal/world"
)

// autopilot plays the game headless: it walks the settler to a decent
// founding spot, then runs the city on simple priorities. It exists so
// the simulation can be observed over the API without a player.
type autopilot struct {
	sim *engine.Simulation
	rng *rand.Rand
}

func newAutopilot(sim *engine.Simulation, rng *rand.Rand) *autopilot {
	return &autopilot{sim: sim, rng: rng}
}

// Step makes at most one decision per tick.
func (p *autopilot) Step() {
	switch p.sim.Phase {
	case engine.PhaseExploration:
		p.explore()
	case engine.PhaseCity:
		p.manageCity()
	}
}

// Founding terrain preference. Plains get the farm bonus; forests feed
// lumber yards.
var settleTerrains = map[string]bool{"plains": true, "forest": true}

// explore walks toward fresh terrain and settles when the spot is good
// or the food is about to run out.
func (p *autopilot) explore() {
	stl := p.sim.Settler
	origin := world.HexCoord{}

	tile := p.sim.Generator.GetTile(stl.Position)
	goodSpot := tile != nil && settleTerrains[tile.Type.ID] && world.Distance(origin, stl.Position) >= 2
	if goodSpot || stl.Food <= 5 {
		if _, err := p.sim.FoundCity(); err != nil {
			slog.Error("autopilot founding failed", "error", err)
		}
		return
	}

	// Prefer stepping onto unexplored hexes; fall back to a random walk.
	neighbors := stl.Position.Neighbors()
	var unexplored []world.HexCoord
	for _, n := range neighbors {
		if !p.sim.Visibility.IsExplored(n) {
			unexplored = append(unexplored, n)
		}
	}
	var target world.HexCoord
	if len(unexplored) > 0 {
		target = unexplored[p.rng.Intn(len(unexplored))]
	} else {
		target = neighbors[p.rng.Intn(len(neighbors))]
	}
	if ok, reason := p.sim.MoveSettler(target); !ok {
		slog.Debug("autopilot move blocked", "reason", reason)
	}
}

// Build priorities, first affordable wins. Food security, then housing,
// then economy, then defense.
var buildPriority = []string{"farm", "hut", "shed", "library", "palisade", "lumber_yard", "quarry"}

func (p *autopilot) manageCity() {
	snap := p.sim.City.Snapshot()
	if snap == nil {
		return
	}

	// Keep everyone working. Farms first when food is thin.
	if snap.AvailableWorkers > 0 {
		order := []string{"lumber_yard", "quarry", "library", "farm"}
		if snap.Resources.Food < snap.Storage.Food/2 {
			order = []string{"farm", "lumber_yard", "quarry", "library"}
		}
		for _, typeID := range order {
			if ok, _ := p.sim.City.AssignWorkerToType(typeID); ok {
				return
			}
		}
	}

	for _, id := range buildPriority {
		if !p.sim.City.IsUnlocked(id) {
			continue
		}
		if ok, _ := p.sim.CanBuild(id); ok {
			res := p.sim.Build(id)
			if res.OK {
				return
			}
		}
	}

	// Research whatever is available and paid for.
	for _, t := range p.sim.Research.AvailableTechs() {
		if snap.Resources.Research >= t.Cost.Research {
			if ok, _ := p.sim.StartResearch(t.ID); ok {
				return
			}
		}
	}
}
