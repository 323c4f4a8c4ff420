// Package tech implements the research state machine: a prerequisite
// graph over the tech catalog with a single concurrent research slot and
// wall-clock-based progress.
package tech

import (
	"fmt"
	"time"

	"github.com/talgya/fragile/internal/catalog"
)

// ResearchProgress tracks the single active research.
type ResearchProgress struct {
	TechID       string  `json:"techId"`
	Progress     float64 `json:"progress"` // 0..100
	StartTime    int64   `json:"startTime"` // epoch ms
	ResearchTime int64   `json:"researchTime"` // ms
}

// Effects are the summed numeric bonuses of every researched tech.
// All stacking is additive.
type Effects struct {
	WorkerEfficiency         float64 `json:"workerEfficiency"`
	FoodProduction           float64 `json:"foodProduction"`
	BuildingCostReduction    float64 `json:"buildingCostReduction"`
	StoneProduction          float64 `json:"stoneProduction"`
	FoodConsumptionReduction float64 `json:"foodConsumptionReduction"`
}

// UpdateResult reports one research update: either progress moved or a
// tech completed.
type UpdateResult struct {
	Completed string  `json:"completed,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
}

// System owns research state for a run.
type System struct {
	cat        *catalog.Catalog
	researched map[string]struct{}
	current    *ResearchProgress
}

// NewSystem creates a research system over the given tech table.
func NewSystem(cat *catalog.Catalog) *System {
	return &System{
		cat:        cat,
		researched: make(map[string]struct{}),
	}
}

// IsResearched reports whether a tech has been completed.
func (s *System) IsResearched(id string) bool {
	_, ok := s.researched[id]
	return ok
}

// ResearchedCount returns the number of completed techs.
func (s *System) ResearchedCount() int { return len(s.researched) }

// CurrentResearch returns a copy of the active research, or nil.
func (s *System) CurrentResearch() *ResearchProgress {
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// CanResearch reports whether a tech can be started now. The reason names
// the first blocking problem; for missing prerequisites that is the
// prerequisite's display name.
func (s *System) CanResearch(id string) (bool, string) {
	t := s.cat.Tech(id)
	if t == nil {
		return false, fmt.Sprintf("unknown tech %q", id)
	}
	if s.IsResearched(id) {
		return false, t.Name + " is already researched"
	}
	if s.current != nil {
		return false, "another research is in progress"
	}
	for _, prereq := range t.Prerequisites {
		if !s.IsResearched(prereq) {
			name := prereq
			if pt := s.cat.Tech(prereq); pt != nil {
				name = pt.Name
			}
			return false, "requires " + name
		}
	}
	return true, ""
}

// StartResearch begins researching a tech if it is available and the
// caller has enough research points. The points are NOT debited here:
// the city owns the resource ledger and debits on a true return.
func (s *System) StartResearch(id string, availablePoints float64) bool {
	if ok, _ := s.CanResearch(id); !ok {
		return false
	}
	t := s.cat.Tech(id)
	if availablePoints < t.Cost.Research {
		return false
	}

	s.current = &ResearchProgress{
		TechID:       id,
		StartTime:    time.Now().UnixMilli(),
		ResearchTime: int64(t.ResearchTime * 1000),
	}
	return true
}

// UpdateResearch advances the active research from wall-clock elapsed
// time. Progress clamps at 100, so ticks arriving late (or after a long
// offline gap) complete the research on the next call rather than
// overshooting. No-op when idle.
func (s *System) UpdateResearch() UpdateResult {
	if s.current == nil {
		return UpdateResult{}
	}

	// Catalog parsing rejects non-positive research times, but a
	// restored progress record is not under its control; complete
	// immediately rather than wedge the slot on a NaN.
	progress := 100.0
	if s.current.ResearchTime > 0 {
		elapsed := time.Now().UnixMilli() - s.current.StartTime
		progress = float64(elapsed) / float64(s.current.ResearchTime) * 100
		if progress > 100 {
			progress = 100
		}
	}
	s.current.Progress = progress

	if progress >= 100 {
		completed := s.current.TechID
		s.researched[completed] = struct{}{}
		s.current = nil
		return UpdateResult{Completed: completed}
	}
	return UpdateResult{Progress: progress}
}

// TechEffects sums the effect fields of every researched tech.
func (s *System) TechEffects() Effects {
	var e Effects
	for id := range s.researched {
		t := s.cat.Tech(id)
		if t == nil {
			continue
		}
		e.WorkerEfficiency += t.Effects.WorkerEfficiency
		e.FoodProduction += t.Effects.FoodProduction
		e.BuildingCostReduction += t.Effects.BuildingCostReduction
		e.StoneProduction += t.Effects.StoneProduction
		e.FoodConsumptionReduction += t.Effects.FoodConsumptionReduction
	}
	return e
}

// UnlockedBuildings returns every building id granted by researched techs.
func (s *System) UnlockedBuildings() []string {
	var out []string
	for _, t := range s.cat.Techs() {
		if !s.IsResearched(t.ID) {
			continue
		}
		out = append(out, t.UnlocksBuildings...)
	}
	return out
}

// AvailableTechs returns techs that could be started right now.
func (s *System) AvailableTechs() []*catalog.TechType {
	var out []*catalog.TechType
	for _, t := range s.cat.Techs() {
		if ok, _ := s.CanResearch(t.ID); ok {
			out = append(out, t)
		}
	}
	return out
}

// State is the persisted research state.
type State struct {
	ResearchedTechs []string          `json:"researchedTechs"`
	CurrentResearch *ResearchProgress `json:"currentResearch"`
}

// Export captures research state for a save snapshot.
func (s *System) Export() State {
	st := State{ResearchedTechs: make([]string, 0, len(s.researched))}
	for _, t := range s.cat.Techs() {
		if s.IsResearched(t.ID) {
			st.ResearchedTechs = append(st.ResearchedTechs, t.ID)
		}
	}
	st.CurrentResearch = s.CurrentResearch()
	return st
}

// Import restores research state from a save snapshot.
func (s *System) Import(st State) {
	s.researched = make(map[string]struct{}, len(st.ResearchedTechs))
	for _, id := range st.ResearchedTechs {
		s.researched[id] = struct{}{}
	}
	s.current = nil
	if st.CurrentResearch != nil {
		c := *st.CurrentResearch
		s.current = &c
	}
}
