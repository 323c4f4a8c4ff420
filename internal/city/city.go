// Package city implements the settlement aggregate and its economic
// simulation: resources under storage caps, buildings, worker allocation,
// unlock gating, cost scaling, and per-tick production.
package city

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/fragile/internal/catalog"
	"github.com/talgya/fragile/internal/world"
)

// Base values a fresh city starts from. Buildings add on top of these
// every time derived state is recomputed.
const (
	BaseFoodStorage  = 15.0
	BaseWoodStorage  = 20.0
	BaseStoneStorage = 10.0

	StartingWood = 5.0

	// Passive city-wide trickle, independent of buildings.
	PassiveWoodPerTick  = 1.0
	PassiveStonePerTick = 1.0

	// Population growth: chance per tick while fed and under the cap.
	GrowthChance   = 0.20
	GrowthFoodCost = 3.0
)

// Resources is the city resource ledger. Food, wood, and stone are capped
// by storage; research is unbounded.
type Resources struct {
	Food     float64 `json:"food"`
	Wood     float64 `json:"wood"`
	Stone    float64 `json:"stone"`
	Research float64 `json:"research"`
}

// Storage holds the current caps for the capped resources.
type Storage struct {
	Food  float64 `json:"food"`
	Wood  float64 `json:"wood"`
	Stone float64 `json:"stone"`
}

// Building is one constructed building instance.
type Building struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Name            string `json:"name"`
	Level           int    `json:"level"`
	MaxLevel        int    `json:"maxLevel"`
	AssignedWorkers int    `json:"assignedWorkers"`
	MaxWorkers      int    `json:"maxWorkers"`
}

// City is the central aggregate of the city phase.
type City struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Position world.HexCoord `json:"position"`
	Founded  int64          `json:"founded"` // epoch ms

	Population       int `json:"population"`
	MaxPopulation    int `json:"maxPopulation"`
	AvailableWorkers int `json:"availableWorkers"`

	Integrity       float64 `json:"integrity"`
	MaxIntegrity    float64 `json:"maxIntegrity"`
	Unrest          float64 `json:"unrest"`
	MaxUnrest       float64 `json:"maxUnrest"`
	DefenseRating   int     `json:"defenseRating"`
	WintersSurvived int     `json:"wintersSurvived"`
	TickCount       int     `json:"tickCount"`

	Resources Resources   `json:"resources"`
	Storage   Storage     `json:"storage"`
	Buildings []*Building `json:"buildings"`
}

// System owns the single city of a run. Exactly one city may exist;
// founding a second is a programming error and panics.
type System struct {
	cat *catalog.Catalog
	gen *world.Generator // terrain bonus scans, lookup-only
	rng *rand.Rand

	city     *City
	unlocked map[string]struct{}
}

// NewSystem creates a city system over the given catalog and world.
// gen may be nil (no terrain bonuses), as in synthetic-catalog tests.
func NewSystem(cat *catalog.Catalog, gen *world.Generator, rng *rand.Rand) *System {
	return &System{
		cat:      cat,
		gen:      gen,
		rng:      rng,
		unlocked: make(map[string]struct{}),
	}
}

// Buildings always available once a city exists.
var initialUnlocks = []string{"hut", "farm", "lumber_yard", "quarry"}

// Found creates the city. Settler food transfers in, capped by base food
// storage; the founding wood bonus is applied on top. Panics if a city
// already exists this run.
func (s *System) Found(position world.HexCoord, settlerFood int) *City {
	if s.city != nil {
		panic("city: Found called twice in one run")
	}

	food := float64(settlerFood)
	if food > BaseFoodStorage {
		food = BaseFoodStorage
	}

	s.city = &City{
		ID:       uuid.NewString(),
		Name:     "New Settlement",
		Position: position,
		Founded:  time.Now().UnixMilli(),

		Population:   1,
		Integrity:    100,
		MaxIntegrity: 100,
		Unrest:       0,
		MaxUnrest:    100,

		Resources: Resources{Food: food, Wood: StartingWood},
		Storage:   Storage{Food: BaseFoodStorage, Wood: BaseWoodStorage, Stone: BaseStoneStorage},
	}

	townHall := s.cat.Building("town_hall")
	s.city.Buildings = append(s.city.Buildings, &Building{
		ID:       uuid.NewString(),
		Type:     "town_hall",
		Name:     townHall.Name,
		Level:    1,
		MaxLevel: townHall.MaxLevel,
	})

	for _, id := range initialUnlocks {
		if s.cat.Building(id) != nil {
			s.unlocked[id] = struct{}{}
		}
	}

	s.RecomputeDerived()
	return s.Snapshot()
}

// HasCity reports whether a city exists this run.
func (s *System) HasCity() bool { return s.city != nil }

// Snapshot returns a deep copy of the city, or nil. Callers can never
// mutate internal state through the returned value.
func (s *System) Snapshot() *City {
	if s.city == nil {
		return nil
	}
	c := *s.city
	c.Buildings = make([]*Building, len(s.city.Buildings))
	for i, b := range s.city.Buildings {
		copied := *b
		c.Buildings[i] = &copied
	}
	return &c
}

// UnlockedBuildings returns the ids of buildable building types.
func (s *System) UnlockedBuildings() []string {
	out := make([]string, 0, len(s.unlocked))
	for _, bt := range s.cat.Buildings() {
		if _, ok := s.unlocked[bt.ID]; ok {
			out = append(out, bt.ID)
		}
	}
	return out
}

// IsUnlocked reports whether a building type can currently be built.
func (s *System) IsUnlocked(id string) bool {
	_, ok := s.unlocked[id]
	return ok
}

// UnlockBuilding adds a building type to the buildable set (tech rewards).
// Returns true if it was newly unlocked.
func (s *System) UnlockBuilding(id string) bool {
	if s.cat.Building(id) == nil {
		return false
	}
	if _, ok := s.unlocked[id]; ok {
		return false
	}
	s.unlocked[id] = struct{}{}
	return true
}

// State is the persisted form of the city system. The building-type
// catalog is static data and is not part of it.
type State struct {
	City              *City    `json:"city"`
	UnlockedBuildings []string `json:"unlockedBuildings"`
}

// Export captures the city system state for a save snapshot.
func (s *System) Export() State {
	return State{
		City:              s.Snapshot(),
		UnlockedBuildings: s.UnlockedBuildings(),
	}
}

// Import restores city system state from a save snapshot.
func (s *System) Import(st State) {
	s.city = st.City
	s.unlocked = make(map[string]struct{}, len(st.UnlockedBuildings))
	for _, id := range st.UnlockedBuildings {
		s.unlocked[id] = struct{}{}
	}
	if s.city != nil {
		s.RecomputeDerived()
	}
}

// MarkWinterSurvived bumps the winters-survived counter at the
// winter-to-spring transition.
func (s *System) MarkWinterSurvived() {
	if s.city != nil {
		s.city.WintersSurvived++
	}
}

// AddResearch credits research points (used when refunding is needed by
// callers that debit optimistically).
func (s *System) AddResearch(points float64) {
	if s.city == nil {
		return
	}
	s.city.Resources.Research += points
}

// SpendResearch debits research points if available.
func (s *System) SpendResearch(points float64) bool {
	if s.city == nil || s.city.Resources.Research < points {
		return false
	}
	s.city.Resources.Research -= points
	return true
}
