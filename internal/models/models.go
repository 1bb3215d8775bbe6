package models

// Phase is a stage of the school year.
type Phase string

const (
	PhaseSummer      Phase = "SUMMER"
	PhaseMilitary    Phase = "MILITARY"
	PhaseSelection   Phase = "SUBJECT_SELECTION"
	PhasePlacement   Phase = "PLACEMENT_EXAM"
	PhaseSemester    Phase = "SEMESTER"
	PhaseMidterm     Phase = "MIDTERM_EXAM"
	PhaseReselection Phase = "SUBJECT_RESELECTION"
	PhaseFinal       Phase = "FINAL_EXAM"
	PhaseCSP         Phase = "CSP_EXAM"
	PhaseNOIP        Phase = "NOIP_EXAM"
	PhaseEnding      Phase = "ENDING"
	PhaseWithdrawal  Phase = "WITHDRAWAL"
)

var phaseNames = map[Phase]string{
	PhaseSummer:      "暑假",
	PhaseMilitary:    "军训",
	PhaseSelection:   "选科",
	PhasePlacement:   "分班考试",
	PhaseSemester:    "高一上学期",
	PhaseMidterm:     "期中考试",
	PhaseReselection: "重新选科",
	PhaseFinal:       "期末考试",
	PhaseCSP:         "CSP-J/S",
	PhaseNOIP:        "NOIP",
	PhaseEnding:      "结局",
	PhaseWithdrawal:  "休学",
}

// DisplayName returns the in-game name of the phase.
func (p Phase) DisplayName() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return string(p)
}

func (p Phase) IsExam() bool {
	switch p {
	case PhasePlacement, PhaseMidterm, PhaseFinal, PhaseCSP, PhaseNOIP:
		return true
	}
	return false
}

// IsCompetition reports whether the phase is an OI contest rather than a school exam.
func (p Phase) IsCompetition() bool {
	return p == PhaseCSP || p == PhaseNOIP
}

func (p Phase) IsSelection() bool {
	return p == PhaseSelection || p == PhaseReselection
}

func (p Phase) IsTerminal() bool {
	return p == PhaseEnding || p == PhaseWithdrawal
}

type Difficulty string

const (
	DifficultyNormal  Difficulty = "NORMAL"
	DifficultyHard    Difficulty = "HARD"
	DifficultyReality Difficulty = "REALITY"
)

// Competition is the optional competition track chosen at game start.
type Competition string

const (
	CompetitionNone Competition = ""
	CompetitionOI   Competition = "OI"
)

// GeneralStats holds the seven general attributes. The same shape is used
// for additive deltas in effects and per-tick status effects.
type GeneralStats struct {
	Mindset    float64 `yaml:"mindset,omitempty" json:"mindset"`
	Experience float64 `yaml:"experience,omitempty" json:"experience"`
	Luck       float64 `yaml:"luck,omitempty" json:"luck"`
	Romance    float64 `yaml:"romance,omitempty" json:"romance"`
	Health     float64 `yaml:"health,omitempty" json:"health"`
	Money      float64 `yaml:"money,omitempty" json:"money"`
	Efficiency float64 `yaml:"efficiency,omitempty" json:"efficiency"`
}

const (
	StatMindset    = "mindset"
	StatExperience = "experience"
	StatLuck       = "luck"
	StatRomance    = "romance"
	StatHealth     = "health"
	StatMoney      = "money"
	StatEfficiency = "efficiency"
)

// GeneralStatNames lists the general attributes in display order.
var GeneralStatNames = []string{
	StatMindset, StatExperience, StatLuck, StatRomance, StatHealth, StatMoney, StatEfficiency,
}

var statDisplayNames = map[string]string{
	StatMindset:    "心态",
	StatExperience: "经验",
	StatLuck:       "运气",
	StatRomance:    "情感",
	StatHealth:     "健康",
	StatMoney:      "金钱",
	StatEfficiency: "效率",
}

// StatDisplayName returns the in-game label of a general stat.
func StatDisplayName(stat string) string {
	if name, ok := statDisplayNames[stat]; ok {
		return name
	}
	return stat
}

func (g GeneralStats) Get(stat string) (float64, bool) {
	switch stat {
	case StatMindset:
		return g.Mindset, true
	case StatExperience:
		return g.Experience, true
	case StatLuck:
		return g.Luck, true
	case StatRomance:
		return g.Romance, true
	case StatHealth:
		return g.Health, true
	case StatMoney:
		return g.Money, true
	case StatEfficiency:
		return g.Efficiency, true
	}
	return 0, false
}

// Add returns the field-wise sum of g and d.
func (g GeneralStats) Add(d GeneralStats) GeneralStats {
	return GeneralStats{
		Mindset:    g.Mindset + d.Mindset,
		Experience: g.Experience + d.Experience,
		Luck:       g.Luck + d.Luck,
		Romance:    g.Romance + d.Romance,
		Health:     g.Health + d.Health,
		Money:      g.Money + d.Money,
		Efficiency: g.Efficiency + d.Efficiency,
	}
}

// ClampNonNegative floors every attribute except money at zero.
func (g GeneralStats) ClampNonNegative() GeneralStats {
	floor := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}
	g.Mindset = floor(g.Mindset)
	g.Experience = floor(g.Experience)
	g.Luck = floor(g.Luck)
	g.Romance = floor(g.Romance)
	g.Health = floor(g.Health)
	g.Efficiency = floor(g.Efficiency)
	return g
}

// Subject is one of the nine academic subject keys.
type Subject string

const (
	Chinese   Subject = "chinese"
	Math      Subject = "math"
	English   Subject = "english"
	Physics   Subject = "physics"
	Chemistry Subject = "chemistry"
	Biology   Subject = "biology"
	History   Subject = "history"
	Geography Subject = "geography"
	Politics  Subject = "politics"
)

var (
	AllSubjects         = []Subject{Chinese, Math, English, Physics, Chemistry, Biology, History, Geography, Politics}
	CoreSubjects        = []Subject{Chinese, Math, English}
	ElectiveSubjects    = []Subject{Physics, Chemistry, Biology, History, Geography, Politics}
	DefaultElectives    = []Subject{Physics, Chemistry, Biology}
	subjectDisplayNames = map[Subject]string{
		Chinese:   "语文",
		Math:      "数学",
		English:   "英语",
		Physics:   "物理",
		Chemistry: "化学",
		Biology:   "生物",
		History:   "历史",
		Geography: "地理",
		Politics:  "政治",
	}
)

func (s Subject) DisplayName() string {
	if name, ok := subjectDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// MaxScore is the full mark of the subject: 150 for the core three, 100 otherwise.
func (s Subject) MaxScore() float64 {
	switch s {
	case Chinese, Math, English:
		return 150
	}
	return 100
}

func (s Subject) IsCore() bool {
	return s == Chinese || s == Math || s == English
}

// SubjectStats is the per-subject academic state. Aptitude is rolled at
// start; Level is the mutable mastery that decays every week.
type SubjectStats struct {
	Aptitude float64 `yaml:"aptitude" json:"aptitude"`
	Level    float64 `yaml:"level" json:"level"`
}

// OIStats are the competitive-programming skill dimensions.
type OIStats struct {
	DP     float64 `yaml:"dp,omitempty" json:"dp"`
	DS     float64 `yaml:"ds,omitempty" json:"ds"`
	Math   float64 `yaml:"math,omitempty" json:"math"`
	String float64 `yaml:"string,omitempty" json:"string"`
	Graph  float64 `yaml:"graph,omitempty" json:"graph"`
	Misc   float64 `yaml:"misc,omitempty" json:"misc"`
}

var OIDimensions = []string{"dp", "ds", "math", "string", "graph", "misc"}

func (o OIStats) Get(dim string) (float64, bool) {
	switch dim {
	case "dp":
		return o.DP, true
	case "ds":
		return o.DS, true
	case "math":
		return o.Math, true
	case "string":
		return o.String, true
	case "graph":
		return o.Graph, true
	case "misc":
		return o.Misc, true
	}
	return 0, false
}

func (o OIStats) Add(d OIStats) OIStats {
	return OIStats{
		DP:     o.DP + d.DP,
		DS:     o.DS + d.DS,
		Math:   o.Math + d.Math,
		String: o.String + d.String,
		Graph:  o.Graph + d.Graph,
		Misc:   o.Misc + d.Misc,
	}
}

// Uniform returns an OIStats with every dimension set to v.
func UniformOI(v float64) OIStats {
	return OIStats{DP: v, DS: v, Math: v, String: v, Graph: v, Misc: v}
}

type StatusType string

const (
	StatusBuff    StatusType = "BUFF"
	StatusDebuff  StatusType = "DEBUFF"
	StatusNeutral StatusType = "NEUTRAL"
)

// GameStatus is an active timed effect: a copy of a StatusTemplate with the
// duration assigned when it was applied.
type GameStatus struct {
	ID                string     `yaml:"id" json:"id"`
	Name              string     `yaml:"name" json:"name"`
	Type              StatusType `yaml:"type" json:"type"`
	Duration          int        `yaml:"duration" json:"duration"`
	Icon              string     `yaml:"icon,omitempty" json:"icon,omitempty"`
	EffectDescription string     `yaml:"effect_description,omitempty" json:"effect_description,omitempty"`
}

// HistoryEntry records one resolved choice.
type HistoryEntry struct {
	Phase   Phase  `yaml:"phase" json:"phase"`
	Week    int    `yaml:"week" json:"week"`
	EventID string `yaml:"event_id" json:"event_id"`
	Event   string `yaml:"event" json:"event"`
	Choice  string `yaml:"choice" json:"choice"`
	Summary string `yaml:"summary" json:"summary"`
}

// StatDelta is one signed change of a general stat.
type StatDelta struct {
	Stat  string  `yaml:"stat" json:"stat"`
	Name  string  `yaml:"name" json:"name"`
	Delta float64 `yaml:"delta" json:"delta"`
}

// EventResult is a resolved choice waiting for the player's confirmation.
type EventResult struct {
	EventID     string      `yaml:"event_id" json:"event_id"`
	Title       string      `yaml:"title" json:"title"`
	Choice      string      `yaml:"choice" json:"choice"`
	Message     string      `yaml:"message,omitempty" json:"message,omitempty"`
	Summary     string      `yaml:"summary" json:"summary"`
	Deltas      []StatDelta `yaml:"deltas,omitempty" json:"deltas,omitempty"`
	NextEventID string      `yaml:"next_event_id,omitempty" json:"next_event_id,omitempty"`
	Chained     *GameEvent  `yaml:"chained,omitempty" json:"chained,omitempty"`
}

// Notification is a display-only achievement toast. Toasts do not survive
// the next tick.
type Notification struct {
	AchievementID string `yaml:"achievement_id" json:"achievement_id"`
	Name          string `yaml:"name" json:"name"`
	Description   string `yaml:"description" json:"description"`
}

// ScoreLine is the score of one subject or one contest problem.
type ScoreLine struct {
	Key   string `yaml:"key" json:"key"`
	Name  string `yaml:"name" json:"name"`
	Score int    `yaml:"score" json:"score"`
	Max   int    `yaml:"max" json:"max"`
}

// ExamResult is the outcome of one exam or contest.
type ExamResult struct {
	Kind   Phase       `yaml:"kind" json:"kind"`
	Scores []ScoreLine `yaml:"scores" json:"scores"`
	Total  int         `yaml:"total" json:"total"`
	Max    int         `yaml:"max" json:"max"`
	Rank   int         `yaml:"rank" json:"rank"`
	Cohort int         `yaml:"cohort" json:"cohort"`
	Tier   string      `yaml:"tier,omitempty" json:"tier,omitempty"`
	Award  string      `yaml:"award,omitempty" json:"award,omitempty"`
}

// GameState is the aggregate root of one playthrough.
type GameState struct {
	PlayerName  string      `yaml:"player_name" json:"player_name"`
	Phase       Phase       `yaml:"phase" json:"phase"`
	Week        int         `yaml:"week" json:"week"`
	TotalWeeks  int         `yaml:"total_weeks" json:"total_weeks"`
	IsPlaying   bool        `yaml:"is_playing" json:"is_playing"`
	Difficulty  Difficulty  `yaml:"difficulty" json:"difficulty"`
	Competition Competition `yaml:"competition,omitempty" json:"competition,omitempty"`

	General  GeneralStats             `yaml:"general" json:"general"`
	Baseline GeneralStats             `yaml:"baseline" json:"baseline"`
	Subjects map[Subject]SubjectStats `yaml:"subjects" json:"subjects"`
	OI       OIStats                  `yaml:"oi" json:"oi"`
	Statuses []GameStatus             `yaml:"statuses,omitempty" json:"statuses,omitempty"`

	Talents     []string  `yaml:"talents,omitempty" json:"talents,omitempty"`
	Inventory   []string  `yaml:"inventory,omitempty" json:"inventory,omitempty"`
	Electives   []Subject `yaml:"electives,omitempty" json:"electives,omitempty"`
	ClassTier   string    `yaml:"class_tier,omitempty" json:"class_tier,omitempty"`
	Club        string    `yaml:"club,omitempty" json:"club,omitempty"`
	ClubOffered bool      `yaml:"club_offered,omitempty" json:"club_offered,omitempty"`
	ClubPending bool      `yaml:"club_pending,omitempty" json:"club_pending,omitempty"`
	Partner     string    `yaml:"partner,omitempty" json:"partner,omitempty"`

	IsWeekend        bool `yaml:"is_weekend,omitempty" json:"is_weekend,omitempty"`
	ActionPoints     int  `yaml:"action_points,omitempty" json:"action_points,omitempty"`
	WeekendProcessed bool `yaml:"weekend_processed,omitempty" json:"weekend_processed,omitempty"`

	EventQueue   []GameEvent  `yaml:"event_queue,omitempty" json:"event_queue,omitempty"`
	CurrentEvent *GameEvent   `yaml:"current_event,omitempty" json:"current_event,omitempty"`
	EventResult  *EventResult `yaml:"event_result,omitempty" json:"event_result,omitempty"`

	ExamResult  *ExamResult    `yaml:"exam_result,omitempty" json:"exam_result,omitempty"`
	ExamsTaken  map[Phase]bool `yaml:"exams_taken,omitempty" json:"exams_taken,omitempty"`
	MidtermRank int            `yaml:"midterm_rank,omitempty" json:"midterm_rank,omitempty"`
	FinalRank   int            `yaml:"final_rank,omitempty" json:"final_rank,omitempty"`
	Awards      []string       `yaml:"awards,omitempty" json:"awards,omitempty"`

	TriggeredEvents []string      `yaml:"triggered_events,omitempty" json:"triggered_events,omitempty"`
	Achievements    []string      `yaml:"achievements,omitempty" json:"achievements,omitempty"`
	Notifications   []Notification `yaml:"-" json:"notifications,omitempty"`

	History []HistoryEntry `yaml:"history,omitempty" json:"history,omitempty"`
	Log     []string       `yaml:"log,omitempty" json:"log,omitempty"`
}

func (s *GameState) IsOI() bool {
	return s.Competition == CompetitionOI
}

func (s *GameState) HasStatus(id string) bool {
	for _, st := range s.Statuses {
		if st.ID == id {
			return true
		}
	}
	return false
}

func (s *GameState) HasItem(id string) bool {
	return contains(s.Inventory, id)
}

func (s *GameState) HasTriggered(id string) bool {
	return contains(s.TriggeredEvents, id)
}

func (s *GameState) HasAchievement(id string) bool {
	return contains(s.Achievements, id)
}

// StudiedSubjects returns the core subjects followed by the chosen electives,
// falling back to the default electives before selection.
func (s *GameState) StudiedSubjects() []Subject {
	electives := s.Electives
	if len(electives) == 0 {
		electives = DefaultElectives
	}
	out := make([]Subject, 0, len(CoreSubjects)+len(electives))
	out = append(out, CoreSubjects...)
	return append(out, electives...)
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s GameState) Clone() GameState {
	c := s
	c.Subjects = make(map[Subject]SubjectStats, len(s.Subjects))
	for k, v := range s.Subjects {
		c.Subjects[k] = v
	}
	c.ExamsTaken = make(map[Phase]bool, len(s.ExamsTaken))
	for k, v := range s.ExamsTaken {
		c.ExamsTaken[k] = v
	}
	c.Statuses = append([]GameStatus(nil), s.Statuses...)
	c.Talents = append([]string(nil), s.Talents...)
	c.Inventory = append([]string(nil), s.Inventory...)
	c.Electives = append([]Subject(nil), s.Electives...)
	c.Awards = append([]string(nil), s.Awards...)
	c.TriggeredEvents = append([]string(nil), s.TriggeredEvents...)
	c.Achievements = append([]string(nil), s.Achievements...)
	c.History = append([]HistoryEntry(nil), s.History...)
	c.Log = append([]string(nil), s.Log...)
	c.EventQueue = make([]GameEvent, len(s.EventQueue))
	for i, ev := range s.EventQueue {
		c.EventQueue[i] = ev.Clone()
	}
	if s.CurrentEvent != nil {
		ev := s.CurrentEvent.Clone()
		c.CurrentEvent = &ev
	}
	if s.EventResult != nil {
		r := *s.EventResult
		r.Deltas = append([]StatDelta(nil), s.EventResult.Deltas...)
		if r.Chained != nil {
			ev := r.Chained.Clone()
			r.Chained = &ev
		}
		c.EventResult = &r
	}
	if s.ExamResult != nil {
		r := *s.ExamResult
		r.Scores = append([]ScoreLine(nil), s.ExamResult.Scores...)
		c.ExamResult = &r
	}
	if s.Notifications != nil {
		c.Notifications = append([]Notification(nil), s.Notifications...)
	}
	return c
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
