package prestige

import (
	"encoding/json"
	"testing"

	"github.com/talgya/fragile/internal/city"
	"github.com/talgya/fragile/internal/world"
)

// memStore is an in-memory prestige.Store for tests.
type memStore struct {
	blob []byte
}

func (m *memStore) LoadLegacy() ([]byte, error)  { return m.blob, nil }
func (m *memStore) SaveLegacy(data []byte) error { m.blob = data; return nil }

func sampleCity() *city.City {
	return &city.City{
		Name:            "Oakfall",
		Position:        world.HexCoord{Q: 3, R: -2},
		Population:      12,
		WintersSurvived: 2,
		TickCount:       120,
		Buildings:       make([]*city.Building, 6), // town hall + 5
	}
}

func TestCalculateRelicShards(t *testing.T) {
	c := sampleCity()
	// 3 techs * 2 + 2 winters * 3 + pop milestones (5, 10) = 2 + 3
	// + 120/60 ticks + 5 buildings milestone = 2.
	got := CalculateRelicShards(c, 3)
	want := 6 + 6 + 5 + 2 + 2
	if got != want {
		t.Errorf("shards = %d, want %d", got, want)
	}
}

func TestCalculateRelicShardsMinimalRun(t *testing.T) {
	c := &city.City{
		Name:       "Dust",
		Population: 1,
		TickCount:  10,
		Buildings:  make([]*city.Building, 1),
	}
	if got := CalculateRelicShards(c, 0); got != 0 {
		t.Errorf("minimal run shards = %d, want 0", got)
	}
}

func TestRecordCollapsePersists(t *testing.T) {
	store := &memStore{}
	s := NewSystem(store)

	run := s.RecordCollapse(sampleCity(), 3, "testing")
	if run.RelicShardsEarned != 21 {
		t.Errorf("run shards = %d, want 21", run.RelicShardsEarned)
	}
	if s.TotalShards() != 21 || s.RunCount() != 1 {
		t.Errorf("ledger totals: %d shards, %d runs", s.TotalShards(), s.RunCount())
	}

	ruins := s.Ruins()
	if len(ruins) != 1 {
		t.Fatalf("ruin count = %d, want 1", len(ruins))
	}
	if ruins[0].Position != (world.HexCoord{Q: 3, R: -2}) {
		t.Errorf("ruin position = %v", ruins[0].Position)
	}

	// A fresh system over the same store sees the same ledger.
	reloaded := NewSystem(store)
	if reloaded.TotalShards() != 21 || reloaded.RunCount() != 1 {
		t.Error("ledger did not survive reload")
	}
}

func TestBonusesDeriveFromShards(t *testing.T) {
	store := &memStore{}
	s := NewSystem(store)
	s.data.TotalRelicShards = 21
	s.recalculateBonuses()

	b := s.Bonuses()
	if b.ProductionBonus != 0.04 {
		t.Errorf("production bonus = %f, want 0.04", b.ProductionBonus)
	}
	if b.StartingFood != 4 {
		t.Errorf("starting food = %d, want 4", b.StartingFood)
	}
	if b.BuildingCostReduction != 0.02 {
		t.Errorf("cost reduction = %f, want 0.02", b.BuildingCostReduction)
	}
}

func TestBonusesAreCapped(t *testing.T) {
	store := &memStore{}
	s := NewSystem(store)
	s.data.TotalRelicShards = 100_000
	s.recalculateBonuses()

	b := s.Bonuses()
	if b.ProductionBonus != 0.20 {
		t.Errorf("production bonus = %f, want cap 0.20", b.ProductionBonus)
	}
	if b.StartingFood != 20 {
		t.Errorf("starting food = %d, want cap 20", b.StartingFood)
	}
	if b.BuildingCostReduction != 0.10 {
		t.Errorf("cost reduction = %f, want cap 0.10", b.BuildingCostReduction)
	}
}

func TestRuinsBackfillFromOldLedger(t *testing.T) {
	// A pre-ruins ledger carries runs with city positions but no ruins
	// array at all.
	pos := world.HexCoord{Q: 5, R: 5}
	old := map[string]any{
		"totalRelicShards": 7,
		"runs": []Run{{
			CityName:          "Elder Rest",
			CityPosition:      &pos,
			RelicShardsEarned: 7,
		}},
		"bonuses": Bonuses{},
	}
	blob, err := json.Marshal(old)
	if err != nil {
		t.Fatal(err)
	}

	s := NewSystem(&memStore{blob: blob})
	ruins := s.Ruins()
	if len(ruins) != 1 {
		t.Fatalf("backfilled ruin count = %d, want 1", len(ruins))
	}
	if ruins[0].CityName != "Elder Rest" || ruins[0].Position != pos {
		t.Errorf("backfilled ruin = %+v", ruins[0])
	}
}

func TestCorruptLedgerDegradesToFresh(t *testing.T) {
	s := NewSystem(&memStore{blob: []byte("{not json")})
	if s.TotalShards() != 0 || s.RunCount() != 0 {
		t.Error("corrupt ledger should degrade to an empty one")
	}
}

func TestReset(t *testing.T) {
	store := &memStore{}
	s := NewSystem(store)
	s.RecordCollapse(sampleCity(), 3, "testing")

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.TotalShards() != 0 || s.RunCount() != 0 {
		t.Error("reset did not clear the ledger")
	}
	if NewSystem(store).RunCount() != 0 {
		t.Error("reset did not persist")
	}
}
