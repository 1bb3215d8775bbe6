package models

import "strings"

// StatCheck compares one stat against a constant. Stat is a general stat
// name ("money"), "subject.<key>" for a subject level, "oi.<dim>", "week"
// or "total_weeks".
type StatCheck struct {
	Stat  string  `yaml:"stat" json:"stat"`
	Op    string  `yaml:"op" json:"op"`
	Value float64 `yaml:"value" json:"value"`
}

// Condition is a data predicate over the game state. Every set field must
// hold; a nil *Condition is always true.
type Condition struct {
	Stats       []StatCheck `yaml:"stats,omitempty" json:"stats,omitempty"`
	Competition Competition `yaml:"competition,omitempty" json:"competition,omitempty"`
	HasPartner  *bool       `yaml:"has_partner,omitempty" json:"has_partner,omitempty"`
	HasStatus   string      `yaml:"has_status,omitempty" json:"has_status,omitempty"`
	LacksStatus string      `yaml:"lacks_status,omitempty" json:"lacks_status,omitempty"`
	HasItem     string      `yaml:"has_item,omitempty" json:"has_item,omitempty"`
	InClub      *bool       `yaml:"in_club,omitempty" json:"in_club,omitempty"`
	Difficulty  Difficulty  `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	MinWeek     int         `yaml:"min_week,omitempty" json:"min_week,omitempty"`
	MaxWeek     int         `yaml:"max_week,omitempty" json:"max_week,omitempty"`
}

func (c *Condition) Eval(s *GameState) bool {
	if c == nil {
		return true
	}
	for _, check := range c.Stats {
		v, ok := s.StatValue(check.Stat)
		if !ok || !compare(v, check.Op, check.Value) {
			return false
		}
	}
	if c.Competition != CompetitionNone && s.Competition != c.Competition {
		return false
	}
	if c.HasPartner != nil && (s.Partner != "") != *c.HasPartner {
		return false
	}
	if c.HasStatus != "" && !s.HasStatus(c.HasStatus) {
		return false
	}
	if c.LacksStatus != "" && s.HasStatus(c.LacksStatus) {
		return false
	}
	if c.HasItem != "" && !s.HasItem(c.HasItem) {
		return false
	}
	if c.InClub != nil && (s.Club != "") != *c.InClub {
		return false
	}
	if c.Difficulty != "" && s.Difficulty != c.Difficulty {
		return false
	}
	if c.MinWeek > 0 && s.Week < c.MinWeek {
		return false
	}
	if c.MaxWeek > 0 && s.Week > c.MaxWeek {
		return false
	}
	return true
}

func (c Condition) Clone() Condition {
	out := c
	out.Stats = append([]StatCheck(nil), c.Stats...)
	if c.HasPartner != nil {
		v := *c.HasPartner
		out.HasPartner = &v
	}
	if c.InClub != nil {
		v := *c.InClub
		out.InClub = &v
	}
	return out
}

// StatValue resolves a stat path used by conditions.
func (s *GameState) StatValue(path string) (float64, bool) {
	switch {
	case path == "week":
		return float64(s.Week), true
	case path == "total_weeks":
		return float64(s.TotalWeeks), true
	case strings.HasPrefix(path, "subject."):
		sub, ok := s.Subjects[Subject(strings.TrimPrefix(path, "subject."))]
		return sub.Level, ok
	case strings.HasPrefix(path, "oi."):
		return s.OI.Get(strings.TrimPrefix(path, "oi."))
	}
	return s.General.Get(strings.TrimPrefix(path, "general."))
}

func compare(v float64, op string, target float64) bool {
	switch op {
	case ">=":
		return v >= target
	case ">":
		return v > target
	case "<=":
		return v <= target
	case "<":
		return v < target
	case "==":
		return v == target
	case "!=":
		return v != target
	}
	return false
}
