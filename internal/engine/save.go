package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/talgya/fragile/internal/catalog"
	"github.com/talgya/fragile/internal/city"
	"github.com/talgya/fragile/internal/events"
	"github.com/talgya/fragile/internal/prestige"
	"github.com/talgya/fragile/internal/settler"
	"github.com/talgya/fragile/internal/story"
	"github.com/talgya/fragile/internal/tech"
	"github.com/talgya/fragile/internal/world"
)

// SaveVersion is the current save schema version.
//
// Version history:
//
//	1: initial schema. No tick counter, defense rating, winters-survived,
//	   event-system state, or harsh-winter flag.
//	2: adds those five fields.
const SaveVersion = 2

// SaveData is the serialized form of a Simulation, flat keys as the
// browser builds wrote them. The world itself is not stored; it is
// regenerated from the seed and the explored-hex list.
type SaveData struct {
	Version     int    `json:"version"`
	Timestamp   int64  `json:"timestamp"`
	Seed        int32  `json:"seed"`
	Phase       Phase  `json:"phase"`
	CurrentTab  string `json:"currentTab"`
	HarshWinter bool   `json:"harshWinter"`

	Settler           *settler.Settler       `json:"settler,omitempty"`
	City              *city.City             `json:"city"`
	UnlockedBuildings []string               `json:"unlockedBuildings"`
	ResearchedTechs   []string               `json:"researchedTechs"`
	CurrentResearch   *tech.ResearchProgress `json:"currentResearch,omitempty"`
	EventState        *events.State          `json:"eventState,omitempty"`
	StoryMessages     []story.Message        `json:"storyMessages"`
	ExploredHexes     []string               `json:"exploredHexes"`
}

// BuildSnapshot captures the simulation for persistence.
func (s *Simulation) BuildSnapshot() SaveData {
	cityState := s.City.Export()
	research := s.Research.Export()
	data := SaveData{
		Version:     SaveVersion,
		Timestamp:   time.Now().UnixMilli(),
		Seed:        s.Generator.Seed(),
		Phase:       s.Phase,
		CurrentTab:  s.CurrentTab,
		HarshWinter: s.HarshWinter,

		City:              cityState.City,
		UnlockedBuildings: cityState.UnlockedBuildings,
		ResearchedTechs:   research.ResearchedTechs,
		CurrentResearch:   research.CurrentResearch,
		StoryMessages:     s.Story.Export(),
		ExploredHexes:     s.Visibility.ExploredKeys(),
	}
	evState := s.Hazards.Export()
	data.EventState = &evState
	if s.Phase == PhaseExploration {
		stl := *s.Settler
		data.Settler = &stl
	}
	return data
}

// Marshal serializes the snapshot.
func (d SaveData) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// ParseSave decodes and migrates a save blob. Returns nil for anything
// unusable: corrupt JSON, or a version this build does not know how to
// migrate. A nil result means "start a new game".
func ParseSave(blob []byte) *SaveData {
	var data SaveData
	if err := json.Unmarshal(blob, &data); err != nil {
		slog.Warn("save corrupt, ignoring", "error", err)
		return nil
	}

	switch data.Version {
	case SaveVersion:
		return &data
	case 1:
		return migrateV1(&data)
	default:
		slog.Warn("save version not supported, ignoring", "version", data.Version)
		return nil
	}
}

// migrateV1 upgrades a version-1 save in place. The fields version 2
// added default to a pre-winter, never-raided state; JSON decoding has
// already zeroed the city-level counters.
func migrateV1(data *SaveData) *SaveData {
	if data.EventState == nil {
		data.EventState = &events.State{}
	}
	data.HarshWinter = false
	data.Version = SaveVersion
	slog.Info("migrated save", "from_version", 1, "to_version", SaveVersion)
	return data
}

// Restore reconstructs a Simulation from a migrated snapshot. The world
// is regenerated by replaying the explored hexes in sorted order, which
// reproduces every clustering decision of the original session.
func Restore(data *SaveData, cat *catalog.Catalog, legacy *prestige.System, rng *rand.Rand) (*Simulation, error) {
	s := &Simulation{
		Catalog:     cat,
		Generator:   world.NewGenerator(data.Seed, cat),
		Visibility:  world.NewVisibility(),
		Legacy:      legacy,
		Story:       story.NewSystem(),
		Phase:       data.Phase,
		CurrentTab:  data.CurrentTab,
		HarshWinter: data.HarshWinter,
		rng:         rng,
	}

	if err := s.Generator.GenerateKeys(data.ExploredHexes); err != nil {
		return nil, fmt.Errorf("regenerate world: %w", err)
	}
	if err := s.Visibility.ImportExplored(data.ExploredHexes); err != nil {
		return nil, fmt.Errorf("restore explored set: %w", err)
	}

	s.City = city.NewSystem(cat, s.Generator, rng)
	s.City.Import(city.State{
		City:              data.City,
		UnlockedBuildings: data.UnlockedBuildings,
	})
	s.Research = tech.NewSystem(cat)
	s.Research.Import(tech.State{
		ResearchedTechs: data.ResearchedTechs,
		CurrentResearch: data.CurrentResearch,
	})
	s.Hazards = events.NewSystem(rng)
	if data.EventState != nil {
		s.Hazards.Import(*data.EventState)
	}
	s.Story.Import(data.StoryMessages)

	switch data.Phase {
	case PhaseCity:
		snap := s.City.Snapshot()
		if snap == nil {
			return nil, fmt.Errorf("save in city phase but carries no city")
		}
		s.Settler = settler.New(legacy.Bonuses().StartingFood)
		s.lastSeason = events.SeasonForTick(snap.TickCount)
		s.reveal(snap.Position)
	case PhaseExploration:
		if data.Settler == nil {
			s.Settler = settler.New(legacy.Bonuses().StartingFood)
		} else {
			stl := *data.Settler
			s.Settler = &stl
		}
		s.lastSeason = events.SeasonSpring
		s.reveal(s.Settler.Position)
	default:
		return nil, fmt.Errorf("save carries unknown phase %q", data.Phase)
	}

	slog.Info("game restored",
		"seed", data.Seed,
		"phase", data.Phase,
		"explored", len(data.ExploredHexes),
	)
	return s, nil
}
