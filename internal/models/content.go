package models

// StatusTemplate is the static definition a GameStatus is copied from.
// Stacks decides whether a second instance of the same id may coexist.
type StatusTemplate struct {
	ID                string       `yaml:"id"`
	Name              string       `yaml:"name"`
	Type              StatusType   `yaml:"type"`
	Icon              string       `yaml:"icon"`
	DefaultDuration   int          `yaml:"default_duration"`
	Stacks            bool         `yaml:"stacks"`
	EffectDescription string       `yaml:"effect_description"`
	Tick              GeneralStats `yaml:"tick"`
}

// Instance copies the template into an active status lasting duration weeks.
func (t StatusTemplate) Instance(duration int) GameStatus {
	if duration <= 0 {
		duration = t.DefaultDuration
	}
	return GameStatus{
		ID:                t.ID,
		Name:              t.Name,
		Type:              t.Type,
		Duration:          duration,
		Icon:              t.Icon,
		EffectDescription: t.EffectDescription,
	}
}

type Talent struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Rarity      string `yaml:"rarity"`
	Cost        int    `yaml:"cost"`
	Description string `yaml:"description"`
	Effect      Effect `yaml:"effect"`
}

type Item struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Price       float64 `yaml:"price"`
	Consumable  bool    `yaml:"consumable"`
	Description string  `yaml:"description"`
	Effect      Effect  `yaml:"effect"`
}

// Club effects are applied automatically every fourth semester week.
type Club struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Effect      Effect `yaml:"effect"`
}

type WeekendActivity struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Cost        int        `yaml:"cost"`
	Description string     `yaml:"description"`
	Condition   *Condition `yaml:"condition,omitempty"`
	Effect      Effect     `yaml:"effect"`
}

// Achievement without a Condition is only unlocked by the engine inline
// (exam ranks, awards).
type Achievement struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Hidden      bool       `yaml:"hidden"`
	Condition   *Condition `yaml:"condition,omitempty"`
}

// OIProblem is one contest task; Weights map OI dimensions to their share
// of the required ability.
type OIProblem struct {
	Name       string             `yaml:"name"`
	Difficulty float64            `yaml:"difficulty"`
	Weights    map[string]float64 `yaml:"weights"`
}

// LeaderboardEntry is one uploaded ending.
type LeaderboardEntry struct {
	PlayerName  string             `json:"player_name"`
	Score       int                `json:"score"`
	ChallengeID *string            `json:"challenge_id"`
	Difficulty  Difficulty         `json:"difficulty"`
	Details     LeaderboardDetails `json:"details"`
}

type LeaderboardDetails struct {
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}
