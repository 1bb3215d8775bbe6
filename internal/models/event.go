package models

type EventType string

const (
	EventStudy   EventType = "STUDY"
	EventLife    EventType = "LIFE"
	EventRomance EventType = "ROMANCE"
	EventOI      EventType = "OI"
	EventSpecial EventType = "SPECIAL"
	EventAI      EventType = "AI"
)

// TriggerType controls how a statically defined event becomes eligible.
type TriggerType string

const (
	TriggerRandom      TriggerType = "RANDOM"
	TriggerConditional TriggerType = "CONDITIONAL"
	TriggerFixed       TriggerType = "FIXED"
)

// GameEvent is a narrative event with branching choices. Description is a
// text/template rendered against the GameState when presented.
type GameEvent struct {
	ID          string        `yaml:"id" json:"id"`
	Title       string        `yaml:"title" json:"title"`
	Description string        `yaml:"description" json:"description"`
	Type        EventType     `yaml:"type,omitempty" json:"type,omitempty"`
	Choices     []EventChoice `yaml:"choices" json:"choices"`
	Condition   *Condition    `yaml:"condition,omitempty" json:"condition,omitempty"`
	Once        bool          `yaml:"once,omitempty" json:"once,omitempty"`
	TriggerType TriggerType   `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	FixedWeek   int           `yaml:"fixed_week,omitempty" json:"fixed_week,omitempty"`
	FixedPhase  Phase         `yaml:"fixed_phase,omitempty" json:"fixed_phase,omitempty"`
}

// EventChoice is one option of an event. NextEventID names an event from any
// content table to chain to after the result is confirmed; ChainedEvent
// carries an inline follow-up instead.
type EventChoice struct {
	Text         string     `yaml:"text" json:"text"`
	Effect       Effect     `yaml:"effect,omitempty" json:"effect,omitempty"`
	NextEventID  string     `yaml:"next_event_id,omitempty" json:"next_event_id,omitempty"`
	ChainedEvent *GameEvent `yaml:"chained_event,omitempty" json:"chained_event,omitempty"`
}

func (e GameEvent) Clone() GameEvent {
	c := e
	if e.Condition != nil {
		cond := e.Condition.Clone()
		c.Condition = &cond
	}
	c.Choices = make([]EventChoice, len(e.Choices))
	for i, ch := range e.Choices {
		c.Choices[i] = ch.Clone()
	}
	return c
}

func (c EventChoice) Clone() EventChoice {
	out := c
	out.Effect = c.Effect.Clone()
	if c.ChainedEvent != nil {
		ev := c.ChainedEvent.Clone()
		out.ChainedEvent = &ev
	}
	return out
}
