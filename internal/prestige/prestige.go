// Package prestige keeps the cross-run legacy ledger: relic shards
// earned per collapsed city, the permanent bonuses they fund, and the
// ruin markers collapsed cities leave on the map.
package prestige

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/talgya/fragile/internal/city"
	"github.com/talgya/fragile/internal/world"
)

// Store persists the legacy ledger, independent of the active-run save.
type Store interface {
	LoadLegacy() ([]byte, error) // (nil, nil) when no ledger exists
	SaveLegacy(data []byte) error
}

// Run is the post-mortem record of one collapsed city.
type Run struct {
	CityName          string          `json:"cityName"`
	CityPosition      *world.HexCoord `json:"cityPosition,omitempty"`
	Population        int             `json:"population"`
	TicksSurvived     int             `json:"ticksSurvived"`
	WintersSurvived   int             `json:"wintersSurvived"`
	TechsResearched   int             `json:"techsResearched"`
	BuildingsBuilt    int             `json:"buildingsBuilt"`
	CollapseReason    string          `json:"collapseReason"`
	RelicShardsEarned int             `json:"relicShardsEarned"`
	Timestamp         int64           `json:"timestamp"`
}

// Ruin marks where a collapsed city stood, for display on future maps.
type Ruin struct {
	Position    world.HexCoord `json:"position"`
	CityName    string         `json:"cityName"`
	RelicShards int            `json:"relicShards"`
	Timestamp   int64          `json:"timestamp"`
}

// Bonuses are the permanent cross-run boons funded by relic shards.
// All are monotonic in total shards and explicitly capped.
type Bonuses struct {
	ProductionBonus       float64 `json:"productionBonus"`
	StartingFood          int     `json:"startingFood"`
	BuildingCostReduction float64 `json:"buildingCostReduction"`
}

// Data is the full persisted ledger.
type Data struct {
	TotalRelicShards int     `json:"totalRelicShards"`
	Runs             []Run   `json:"runs"`
	Ruins            []Ruin  `json:"ruins"`
	Bonuses          Bonuses `json:"bonuses"`
}

// System owns the ledger for the lifetime of the process.
type System struct {
	store Store
	data  Data
}

// rawData mirrors Data with Ruins left nullable so pre-ruins payloads can
// be detected and backfilled.
type rawData struct {
	TotalRelicShards int     `json:"totalRelicShards"`
	Runs             []Run   `json:"runs"`
	Ruins            []Ruin  `json:"ruins"`
	Bonuses          Bonuses `json:"bonuses"`
}

// NewSystem loads the ledger from the store. A missing or unreadable
// ledger degrades to a fresh one; it never fails the caller.
func NewSystem(store Store) *System {
	s := &System{store: store}
	s.data = s.load()
	return s
}

func (s *System) load() Data {
	blob, err := s.store.LoadLegacy()
	if err != nil {
		slog.Error("legacy ledger load failed, starting fresh", "error", err)
		return Data{}
	}
	if blob == nil {
		return Data{}
	}

	var raw rawData
	if err := json.Unmarshal(blob, &raw); err != nil {
		slog.Error("legacy ledger corrupt, starting fresh", "error", err)
		return Data{}
	}

	d := Data(raw)
	// Older ledgers predate ruins: synthesize them from runs that
	// recorded a city position.
	if raw.Ruins == nil {
		for _, r := range raw.Runs {
			if r.CityPosition == nil {
				continue
			}
			d.Ruins = append(d.Ruins, Ruin{
				Position:    *r.CityPosition,
				CityName:    r.CityName,
				RelicShards: r.RelicShardsEarned,
				Timestamp:   r.Timestamp,
			})
		}
		if len(d.Ruins) > 0 {
			slog.Info("backfilled ruins from legacy runs", "count", len(d.Ruins))
		}
	}
	return d
}

func (s *System) save() {
	blob, err := json.Marshal(s.data)
	if err != nil {
		slog.Error("legacy ledger marshal failed", "error", err)
		return
	}
	if err := s.store.SaveLegacy(blob); err != nil {
		slog.Error("legacy ledger save failed", "error", err)
	}
}

// CalculateRelicShards scores a city at collapse time.
func CalculateRelicShards(c *city.City, techsResearched int) int {
	shards := 0

	// Techs researched: 2 shards each.
	shards += techsResearched * 2

	// Winters survived: 3 shards each.
	shards += c.WintersSurvived * 3

	// Population milestones, cumulative.
	for _, m := range [...]struct{ pop, bonus int }{{5, 2}, {10, 3}, {15, 5}, {20, 8}} {
		if c.Population >= m.pop {
			shards += m.bonus
		}
	}

	// Survival duration: 1 shard per 60 ticks.
	shards += c.TickCount / 60

	// Building count milestones, cumulative. Town hall doesn't count.
	buildings := len(c.Buildings) - 1
	for _, m := range [...]struct{ count, bonus int }{{5, 2}, {10, 3}, {15, 5}} {
		if buildings >= m.count {
			shards += m.bonus
		}
	}

	return shards
}

// RecordCollapse scores the run, appends its record and ruin marker,
// updates the bonuses, and persists the ledger.
func (s *System) RecordCollapse(c *city.City, techsResearched int, reason string) Run {
	shards := CalculateRelicShards(c, techsResearched)
	pos := c.Position

	run := Run{
		CityName:          c.Name,
		CityPosition:      &pos,
		Population:        c.Population,
		TicksSurvived:     c.TickCount,
		WintersSurvived:   c.WintersSurvived,
		TechsResearched:   techsResearched,
		BuildingsBuilt:    len(c.Buildings) - 1,
		CollapseReason:    reason,
		RelicShardsEarned: shards,
		Timestamp:         time.Now().UnixMilli(),
	}

	s.data.Runs = append(s.data.Runs, run)
	s.data.Ruins = append(s.data.Ruins, Ruin{
		Position:    pos,
		CityName:    c.Name,
		RelicShards: shards,
		Timestamp:   run.Timestamp,
	})
	s.data.TotalRelicShards += shards
	s.recalculateBonuses()
	s.save()

	slog.Info("run recorded in legacy ledger",
		"city", c.Name,
		"reason", reason,
		"shards", shards,
		"total_shards", s.data.TotalRelicShards,
	)
	return run
}

// recalculateBonuses derives the permanent bonuses from the shard total.
func (s *System) recalculateBonuses() {
	shards := float64(s.data.TotalRelicShards)

	// +1% production per 5 shards, capped at 20%.
	s.data.Bonuses.ProductionBonus = math.Min(0.20, math.Floor(shards/5)*0.01)

	// +2 starting food per 10 shards, capped at 20.
	s.data.Bonuses.StartingFood = int(math.Min(20, math.Floor(shards/10)*2))

	// +1% building cost reduction per 8 shards, capped at 10%.
	s.data.Bonuses.BuildingCostReduction = math.Min(0.10, math.Floor(shards/8)*0.01)
}

// LegacyData returns a copy of the ledger.
func (s *System) LegacyData() Data {
	d := s.data
	d.Runs = append([]Run(nil), s.data.Runs...)
	d.Ruins = append([]Ruin(nil), s.data.Ruins...)
	return d
}

// Bonuses returns the current permanent bonuses.
func (s *System) Bonuses() Bonuses { return s.data.Bonuses }

// TotalShards returns the running shard total.
func (s *System) TotalShards() int { return s.data.TotalRelicShards }

// RunCount returns how many runs have collapsed.
func (s *System) RunCount() int { return len(s.data.Runs) }

// Ruins returns the ruin markers for map display.
func (s *System) Ruins() []Ruin {
	return append([]Ruin(nil), s.data.Ruins...)
}

// Reset wipes the ledger. Irreversible.
func (s *System) Reset() error {
	s.data = Data{}
	blob, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshal empty ledger: %w", err)
	}
	if err := s.store.SaveLegacy(blob); err != nil {
		return fmt.Errorf("reset legacy ledger: %w", err)
	}
	return nil
}
