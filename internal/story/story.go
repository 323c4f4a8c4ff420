// Package story keeps the append-only narrative log: short messages
// fired at game milestones, capped to the most recent 50.
package story

import "time"

// MaxMessages is the ring-buffer cap on retained messages.
const MaxMessages = 50

// Message is one narrative entry. The ID is the milestone key, so each
// milestone reads naturally in the log exactly once.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// System is the narrative log.
type System struct {
	messages []Message
}

// NewSystem creates an empty log.
func NewSystem() *System {
	return &System{}
}

// Add appends a message, trimming the log to MaxMessages.
func (s *System) Add(id, text string) Message {
	m := Message{
		ID:        id,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	s.messages = append(s.messages, m)
	if len(s.messages) > MaxMessages {
		s.messages = s.messages[len(s.messages)-MaxMessages:]
	}
	return m
}

// Messages returns a copy of the log, oldest first.
func (s *System) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Latest returns the most recent message, or nil.
func (s *System) Latest() *Message {
	if len(s.messages) == 0 {
		return nil
	}
	m := s.messages[len(s.messages)-1]
	return &m
}

// Export captures the log for a save snapshot.
func (s *System) Export() []Message {
	return s.Messages()
}

// Import restores the log from a save snapshot.
func (s *System) Import(messages []Message) {
	s.messages = make([]Message, len(messages))
	copy(s.messages, messages)
	if len(s.messages) > MaxMessages {
		s.messages = s.messages[len(s.messages)-MaxMessages:]
	}
}

// ── Milestone messages ───────────────────────────────────────────────

// CityFounded logs the founding moment.
func (s *System) CityFounded() {
	s.Add("city_founded", "After days of travel, your settler has found the perfect spot. The first foundations are laid, marking the birth of a new settlement.")
}

var unlockMessages = map[string]string{
	"shed":        "Your wood stores are overflowing! The settlement's carpenter suggests building a shed to properly store the surplus timber.",
	"lumber_yard": "With growing construction needs, the village elders propose establishing a proper lumber yard to organize wood production.",
	"quarry":      "Stone deposits have been discovered nearby. The miners are eager to establish a quarry to extract this valuable resource.",
	"farm":        "The fertile soil calls for cultivation. Your people are ready to establish proper farmland to secure the settlement's food supply.",
	"library":     "Your settlement has grown into a proper community! The wisest citizens propose establishing a library to preserve knowledge and advance learning.",
	"palisade":    "The carpenters have drawn up plans for a palisade wall. Bandits will think twice.",
}

// BuildingUnlocked logs a newly available building type.
func (s *System) BuildingUnlocked(id, name string) {
	text, ok := unlockMessages[id]
	if !ok {
		text = "The settlement has discovered new construction techniques. " + name + " is now available to build."
	}
	s.Add("building_"+id, text)
}

// PopulationGrowth logs population milestones.
func (s *System) PopulationGrowth(newPopulation int) {
	switch newPopulation {
	case 2:
		s.Add("pop_2", "A traveling family has decided to join your settlement, drawn by the promise of a new life.")
	case 5:
		s.Add("pop_5", "Word of your thriving community spreads. More settlers arrive, bringing skills and hope for the future.")
	case 10:
		s.Add("pop_10", "Your settlement has grown into a proper village! The increased population brings new opportunities and challenges.")
	}
}

// FirstWinter logs the first winter of a run.
func (s *System) FirstWinter() {
	s.Add("first_winter", "Frost creeps across the fields. The settlement's first winter has arrived, and the granary will be tested.")
}

// HarshWinter logs a harsh-winter event.
func (s *System) HarshWinter() {
	s.Add("harsh_winter", "The elders say they have never seen cold like this. Food will be scarce until spring.")
}

// ResearchComplete logs a finished technology.
func (s *System) ResearchComplete(name string) {
	s.Add("tech_"+name, "The scholars emerge triumphant: "+name+" has been mastered.")
}

// Collapse logs the end of a run.
func (s *System) Collapse(reason string) {
	s.Add("collapse", "The settlement could not endure. "+reason+" What remains will be remembered.")
}
