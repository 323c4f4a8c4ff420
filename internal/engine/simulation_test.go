package engine

import (
	"math/rand"
	"testing"

	"github.com/talgya/fragile/internal/catalog"
	"github.com/talgya/fragile/internal/prestige"
	"github.com/talgya/fragile/internal/world"
)

// memStore is an in-memory prestige.Store for tests.
type memStore struct {
	blob []byte
}

func (m *memStore) LoadLegacy() ([]byte, error)  { return m.blob, nil }
func (m *memStore) SaveLegacy(data []byte) error { m.blob = data; return nil }

func testSim(t *testing.T, seed int32) *Simulation {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	legacy := prestige.NewSystem(&memStore{})
	return NewSimulation(seed, cat, legacy, rand.New(rand.NewSource(1)))
}

func TestNewSimulationStartsExploring(t *testing.T) {
	sim := testSim(t, 42)

	if sim.Phase != PhaseExploration {
		t.Errorf("phase = %s, want exploration", sim.Phase)
	}
	if sim.Settler.Food != 20 {
		t.Errorf("settler food = %d, want 20 without legacy bonuses", sim.Settler.Food)
	}
	// The starting view is materialized: a radius-2 disk of 19 hexes.
	if sim.Visibility.ExploredCount() != 19 {
		t.Errorf("explored = %d, want 19", sim.Visibility.ExploredCount())
	}
	if sim.Generator.GeneratedCount() < 19 {
		t.Errorf("generated = %d, want at least the visible disk", sim.Generator.GeneratedCount())
	}
	if sim.City.HasCity() {
		t.Error("no city should exist before founding")
	}
}

func TestMoveSettlerAdjacencyRule(t *testing.T) {
	sim := testSim(t, 42)

	if ok, _ := sim.MoveSettler(world.HexCoord{Q: 2, R: 0}); ok {
		t.Error("move to a distance-2 hex should fail")
	}

	ok, reason := sim.MoveSettler(world.HexCoord{Q: 1, R: 0})
	if !ok {
		t.Fatalf("adjacent move failed: %s", reason)
	}
	if sim.Settler.Position != (world.HexCoord{Q: 1, R: 0}) {
		t.Errorf("settler at %v", sim.Settler.Position)
	}
	// Moving costs food; foraging can restore at most 2.
	if sim.Settler.Food < 18 || sim.Settler.Food > 20 {
		t.Errorf("settler food = %d after one move", sim.Settler.Food)
	}
	// The view follows the settler.
	if !sim.Visibility.IsExplored(world.HexCoord{Q: 3, R: 0}) {
		t.Error("new view edge should be explored after moving")
	}
}

func TestFoundCityEndsExploration(t *testing.T) {
	sim := testSim(t, 42)

	c, err := sim.FoundCity()
	if err != nil {
		t.Fatalf("FoundCity: %v", err)
	}
	if sim.Phase != PhaseCity {
		t.Errorf("phase = %s, want city", sim.Phase)
	}
	if c.Position != sim.Settler.Position {
		t.Error("city should stand where the settler stood")
	}

	if _, err := sim.FoundCity(); err == nil {
		t.Error("second founding should fail")
	}
	if ok, _ := sim.MoveSettler(world.HexCoord{Q: 1, R: 0}); ok {
		t.Error("settler movement should end after founding")
	}
}

func TestTickIsNoOpBeforeFounding(t *testing.T) {
	sim := testSim(t, 42)
	summary := sim.Tick()
	if summary.Tick != 0 || summary.Collapsed {
		t.Errorf("exploration-phase tick returned %+v", summary)
	}
}

func TestTickAdvancesCity(t *testing.T) {
	sim := testSim(t, 42)
	if _, err := sim.FoundCity(); err != nil {
		t.Fatal(err)
	}

	summary := sim.Tick()
	if summary.Tick != 1 {
		t.Errorf("tick = %d, want 1", summary.Tick)
	}
	if summary.Season != "Spring" {
		t.Errorf("season = %s, want Spring", summary.Season)
	}
	if sim.City.Snapshot().TickCount != 1 {
		t.Errorf("city tick count = %d", sim.City.Snapshot().TickCount)
	}
}

func TestStartResearchRequiresPoints(t *testing.T) {
	sim := testSim(t, 42)
	if ok, reason := sim.StartResearch("basic_tools"); ok || reason != "no city founded" {
		t.Errorf("pre-city research: ok=%v reason=%q", ok, reason)
	}

	if _, err := sim.FoundCity(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := sim.StartResearch("basic_tools"); ok {
		t.Error("research should fail with zero points")
	}

	sim.City.AddResearch(10)
	if ok, reason := sim.StartResearch("basic_tools"); !ok {
		t.Fatalf("research start failed: %s", reason)
	}
	// The city ledger was debited on success.
	if got := sim.City.Snapshot().Resources.Research; got != 0 {
		t.Errorf("research points after start = %f, want 0", got)
	}
}

func TestCollapseRecordsRunAndResets(t *testing.T) {
	sim := testSim(t, 42)
	if _, err := sim.FoundCity(); err != nil {
		t.Fatal(err)
	}
	pos := sim.City.Snapshot().Position

	// Ruin the city and let the next tick notice.
	sim.City.ApplyDamage(500, 0, 0, 0)
	summary := sim.Tick()

	if !summary.Collapsed {
		t.Fatal("tick should report the collapse")
	}
	if summary.CollapseReason == "" {
		t.Error("collapse needs a reason")
	}
	if sim.Phase != PhaseExploration {
		t.Errorf("post-collapse phase = %s, want exploration", sim.Phase)
	}
	if sim.City.HasCity() {
		t.Error("the fallen city should be gone")
	}
	if sim.Legacy.RunCount() != 1 {
		t.Errorf("legacy runs = %d, want 1", sim.Legacy.RunCount())
	}

	// The ruin stays on the persistent world.
	ruins := sim.Legacy.Ruins()
	if len(ruins) != 1 || ruins[0].Position != pos {
		t.Errorf("ruins = %+v, want one at %v", ruins, pos)
	}
	// The explored map survives into the next run.
	if sim.Visibility.ExploredCount() < 19 {
		t.Error("explored map should survive a collapse")
	}
}

func TestUpkeepConsumesFood(t *testing.T) {
	sim := testSim(t, 42)
	if _, err := sim.FoundCity(); err != nil {
		t.Fatal(err)
	}

	before := sim.City.Snapshot().Resources.Food
	sim.Tick()
	after := sim.City.Snapshot().Resources.Food

	// Population 1 eats 0.2 per tick; growth may additionally debit 3.
	if after >= before {
		t.Errorf("food did not decrease: %f -> %f", before, after)
	}
}
