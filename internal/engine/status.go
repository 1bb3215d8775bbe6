package engine

import (
	"fmt"

	"github.com/tatianab/campus-life/internal/models"
)

// Status thresholds checked once per tick after durations are decremented.
const (
	CrushPendingRomance = 25
	CrushPendingChance  = 0.20
	CrushRomance        = 35
	ExhaustedHealth     = 30
	ExhaustedChance     = 0.30
	FocusedEfficiency   = 15
	FocusedMindset      = 70
	FocusedChance       = 0.20
)

// grantStatus applies a status from the table. A status whose template does
// not stack is skipped when an instance is already active.
func grantStatus(s *models.GameState, env *Env, id string, duration int) bool {
	tmpl, ok := env.Content.Status(id)
	if !ok {
		return false
	}
	if !tmpl.Stacks && s.HasStatus(id) {
		return false
	}
	s.Statuses = append(s.Statuses, tmpl.Instance(duration))
	return true
}

func cureStatus(s *models.GameState, id string) {
	kept := s.Statuses[:0]
	for _, st := range s.Statuses {
		if st.ID != id {
			kept = append(kept, st)
		}
	}
	s.Statuses = kept
}

// tickStatuses runs the status lifecycle: decrement and expire, append the
// statuses granted earlier in this tick, roll threshold statuses, then apply
// every active status's weekly delta.
func tickStatuses(s *models.GameState, env *Env, fresh []models.GameStatus) {
	kept := make([]models.GameStatus, 0, len(s.Statuses)+len(fresh))
	for _, st := range s.Statuses {
		st.Duration--
		if st.Duration > 0 {
			kept = append(kept, st)
		}
	}
	s.Statuses = append(kept, fresh...)

	g := s.General
	if g.Romance >= CrushPendingRomance && s.Partner == "" && env.chance(CrushPendingChance) {
		grantStatus(s, env, "crush_pending", 0)
	}
	if g.Romance >= CrushRomance && s.Partner == "" {
		grantStatus(s, env, "crush", 0)
	}
	if g.Health < ExhaustedHealth && env.chance(ExhaustedChance) {
		grantStatus(s, env, "exhausted", 0)
	}
	if g.Efficiency > FocusedEfficiency && g.Mindset > FocusedMindset && env.chance(FocusedChance) {
		grantStatus(s, env, "focused", 0)
	}

	for _, st := range s.Statuses {
		tmpl, ok := env.Content.Status(st.ID)
		if !ok {
			continue
		}
		s.General = s.General.Add(tmpl.Tick)
	}
}

// DebtTier grades a balance into the debt_1..debt_5 severities. A
// non-negative balance is tier 0.
func DebtTier(money float64) int {
	switch {
	case money >= 0:
		return 0
	case money < -1000:
		return 5
	case money < -600:
		return 4
	case money < -300:
		return 3
	case money < -100:
		return 2
	}
	return 1
}

// DebtTierStatus returns the status id for the balance's tier, or "" when
// there is no debt.
func DebtTierStatus(money float64) string {
	tier := DebtTier(money)
	if tier == 0 {
		return ""
	}
	return fmt.Sprintf("debt_%d", tier)
}
