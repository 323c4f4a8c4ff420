package settler

import (
	"testing"

	"github.com/talgya/fragile/internal/world"
)

func TestNewWithLegacyBonus(t *testing.T) {
	s := New(0)
	if s.Food != StartingFood || s.MaxFood != StartingFood {
		t.Errorf("fresh settler food = %d/%d", s.Food, s.MaxFood)
	}

	boosted := New(4)
	if boosted.Food != StartingFood+4 || boosted.MaxFood != StartingFood+4 {
		t.Errorf("boosted settler food = %d/%d, want %d", boosted.Food, boosted.MaxFood, StartingFood+4)
	}
}

func TestMoveSpendsFood(t *testing.T) {
	s := New(0)
	if !s.Move(world.HexCoord{Q: 1, R: 0}) {
		t.Fatal("move failed with food available")
	}
	if s.Food != StartingFood-1 {
		t.Errorf("food = %d, want %d", s.Food, StartingFood-1)
	}
	if s.Position != (world.HexCoord{Q: 1, R: 0}) {
		t.Errorf("position = %v", s.Position)
	}
}

func TestMoveFailsWhenStarving(t *testing.T) {
	s := New(0)
	s.Food = 0
	if s.CanMove() {
		t.Error("CanMove should be false at zero food")
	}
	if s.Move(world.HexCoord{Q: 1, R: 0}) {
		t.Error("move should fail at zero food")
	}
	if s.Position != (world.HexCoord{}) {
		t.Error("failed move changed position")
	}
}

func TestAddFoodCapsAtMax(t *testing.T) {
	s := New(0)
	s.Food = StartingFood - 1
	s.AddFood(5)
	if s.Food != StartingFood {
		t.Errorf("food = %d, want cap %d", s.Food, StartingFood)
	}
}
