// Package settler models the pre-founding exploration phase: a single
// settler walking the map, spending food on every step.
package settler

import (
	"github.com/talgya/fragile/internal/world"
)

// Settler is the exploration-phase entity. It exists from game start
// until a city is founded, at which point its remaining food transfers
// to the city and the settler is discarded.
type Settler struct {
	ID       string         `json:"id"`
	Position world.HexCoord `json:"position"`
	Food     int            `json:"food"`
	MaxFood  int            `json:"maxFood"`
}

// StartingFood is the base food a fresh settler carries.
const StartingFood = 20

// New creates a settler at the origin. Legacy bonuses can grant extra
// starting food on top of the base.
func New(bonusFood int) *Settler {
	food := StartingFood + bonusFood
	return &Settler{
		ID:       "settler_1",
		Position: world.HexCoord{Q: 0, R: 0},
		Food:     food,
		MaxFood:  food,
	}
}

// CanMove reports whether the settler has food left to spend on a step.
func (s *Settler) CanMove() bool {
	return s.Food > 0
}

// Move relocates the settler, spending one food. Returns false and leaves
// state unchanged when out of food.
func (s *Settler) Move(to world.HexCoord) bool {
	if !s.CanMove() {
		return false
	}
	s.Position = to
	s.Food--
	return true
}

// AddFood feeds the settler (foraging), capped at MaxFood.
func (s *Settler) AddFood(amount int) {
	s.Food += amount
	if s.Food > s.MaxFood {
		s.Food = s.MaxFood
	}
}
