// Package events generates the stochastic hazards a city faces: harsh
// winters, bandit raids, and civil unrest. The system reads the city and
// returns effect records for the caller to apply; the only state it
// mutates is its own raid cooldown bookkeeping.
package events

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/fragile/internal/city"
)

// Season of the 120-tick year. Each season lasts TicksPerSeason ticks.
type Season uint8

const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

// TicksPerSeason is the length of one season in ticks.
const TicksPerSeason = 30

// SeasonForTick returns the season a tick falls in.
func SeasonForTick(tick int) Season {
	return Season((tick / TicksPerSeason) % 4)
}

// String returns the season name.
func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// EventType identifies a hazard kind.
type EventType string

const (
	EventHarshWinter EventType = "harsh_winter"
	EventBanditRaid  EventType = "bandit_raid"
	EventCivilUnrest EventType = "civil_unrest"
)

// Effects are the losses an event inflicts. The caller applies them to
// the city; a defended raid carries zero effects.
type Effects struct {
	Integrity   float64 `json:"integrity,omitempty"`
	Food        float64 `json:"food,omitempty"`
	Wood        float64 `json:"wood,omitempty"`
	Population  int     `json:"population,omitempty"`
	HarshWinter bool    `json:"harshWinter,omitempty"`
}

// GameEvent is one hazard occurrence.
type GameEvent struct {
	Type        EventType `json:"type"`
	Tick        int       `json:"tick"`
	Description string    `json:"description"`
	Severity    string    `json:"severity,omitempty"`
	Effects     Effects   `json:"effects"`
}

// Hazard tuning.
const (
	banditRaidMinTick  = 60
	banditRaidCooldown = 30

	harshWinterChance = 0.25

	unrestThreshold = 70.0
	severeUnrest    = 90.0
)

// System rolls hazards each tick.
type System struct {
	rng                *rand.Rand
	lastBanditRaidTick int
}

// NewSystem creates an event system drawing from the given source.
func NewSystem(rng *rand.Rand) *System {
	return &System{rng: rng}
}

// CheckForEvents evaluates every hazard for the current tick and returns
// the events that fired. The city is read, never written.
func (s *System) CheckForEvents(c *city.City, season Season, harshWinter bool) []GameEvent {
	if c == nil {
		return nil
	}
	var out []GameEvent

	// Harsh winter: decided once, at the first tick of a winter.
	if season == SeasonWinter && c.TickCount%TicksPerSeason == 0 && !harshWinter {
		if s.rng.Float64() < harshWinterChance {
			out = append(out, GameEvent{
				Type:        EventHarshWinter,
				Tick:        c.TickCount,
				Description: "A brutal cold front settles in. This winter will be harsher than most.",
				Effects:     Effects{HarshWinter: true},
			})
		}
	}

	if e, ok := s.checkBanditRaid(c); ok {
		out = append(out, e)
	}
	if e, ok := s.checkCivilUnrest(c); ok {
		out = append(out, e)
	}

	return out
}

// checkBanditRaid rolls for a raid. The cooldown window resets on every
// attempt, successful or not, so at most one raid roll happens per
// 30-tick window.
func (s *System) checkBanditRaid(c *city.City) (GameEvent, bool) {
	if c.TickCount <= banditRaidMinTick {
		return GameEvent{}, false
	}
	if c.TickCount-s.lastBanditRaidTick < banditRaidCooldown {
		return GameEvent{}, false
	}
	s.lastBanditRaidTick = c.TickCount

	chance := 0.02 + float64(c.Population)*0.003
	if chance > 0.08 {
		chance = 0.08
	}
	if s.rng.Float64() >= chance {
		return GameEvent{}, false
	}

	strength := 5 + c.TickCount/30

	if c.DefenseRating >= strength {
		return GameEvent{
			Type:        EventBanditRaid,
			Tick:        c.TickCount,
			Severity:    "defended",
			Description: fmt.Sprintf("Bandits probed the defenses (strength %d) and were driven off without loss.", strength),
		}, true
	}

	damage := strength - c.DefenseRating
	if damage < 1 {
		damage = 1
	}
	eff := Effects{
		Integrity: math.Min(15, float64(damage*2)),
		Food:      math.Min(c.Resources.Food, math.Floor(float64(damage)*1.5)),
		Wood:      math.Min(c.Resources.Wood, float64(damage)),
	}
	return GameEvent{
		Type:        EventBanditRaid,
		Tick:        c.TickCount,
		Severity:    "raided",
		Description: fmt.Sprintf("Bandits raided the settlement (strength %d), plundering stores and damaging buildings.", strength),
		Effects:     eff,
	}, true
}

// checkCivilUnrest rolls for unrest incidents once unrest passes the
// threshold; past 90 the incident turns severe.
func (s *System) checkCivilUnrest(c *city.City) (GameEvent, bool) {
	if c.Unrest <= unrestThreshold {
		return GameEvent{}, false
	}
	chance := (c.Unrest - unrestThreshold) / 100
	if s.rng.Float64() >= chance {
		return GameEvent{}, false
	}

	if c.Unrest > severeUnrest {
		return GameEvent{
			Type:        EventCivilUnrest,
			Tick:        c.TickCount,
			Severity:    "severe",
			Description: "Riots sweep the settlement. Buildings burn and a family abandons the city.",
			Effects:     Effects{Integrity: 10, Population: 1},
		}, true
	}
	return GameEvent{
		Type:        EventCivilUnrest,
		Tick:        c.TickCount,
		Severity:    "moderate",
		Description: "Angry crowds gather in the square. Scuffles leave their mark on the settlement.",
		Effects:     Effects{Integrity: 5},
	}, true
}

// State is the persisted event-system state.
type State struct {
	LastBanditRaidTick int `json:"lastBanditRaidTick"`
}

// Export captures cooldown bookkeeping for a save snapshot.
func (s *System) Export() State {
	return State{LastBanditRaidTick: s.lastBanditRaidTick}
}

// Import restores cooldown bookkeeping.
func (s *System) Import(st State) {
	s.lastBanditRaidTick = st.LastBanditRaidTick
}
