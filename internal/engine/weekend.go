package engine

import (
	"errors"
	"fmt"

	"github.com/tatianab/campus-life/internal/models"
)

var (
	ErrNotWeekend      = errors.New("not a weekend")
	ErrUnknownActivity = errors.New("unknown activity")
	ErrActivityLocked  = errors.New("activity not available")
	ErrNotEnoughPoints = errors.New("not enough action points")
)

// DoWeekendActivity spends action points on a weekend activity. The weekend
// ends when the points run out.
func DoWeekendActivity(s models.GameState, env *Env, id string) (models.GameState, string, error) {
	if !s.IsWeekend {
		return s, "", ErrNotWeekend
	}
	act, ok := env.Content.Activity(id)
	if !ok {
		return s, "", fmt.Errorf("%w: %s", ErrUnknownActivity, id)
	}
	if !act.Condition.Eval(&s) {
		return s, "", fmt.Errorf("%w: %s", ErrActivityLocked, id)
	}
	cost := act.Cost
	if cost <= 0 {
		cost = 1
	}
	if cost > s.ActionPoints {
		return s, "", fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPoints, cost, s.ActionPoints)
	}

	s = s.Clone()
	before := s.General
	msg := ApplyEffect(&s, env, act.Effect)
	summary := FormatDiff(DiffGeneral(before, s.General))
	s.ActionPoints -= cost
	s.Log = append(s.Log, fmt.Sprintf("周末·%s：%s（%s）", act.Name, msg, summary))

	if s.ActionPoints <= 0 {
		s = EndWeekend(s)
	}
	return s, msg, nil
}

// EndWeekend leaves the weekend menu; the next tick resumes the week.
func EndWeekend(s models.GameState) models.GameState {
	if !s.IsWeekend {
		return s
	}
	s = s.Clone()
	s.IsWeekend = false
	s.ActionPoints = 0
	return s
}
