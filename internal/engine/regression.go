package engine

import "github.com/tatianab/campus-life/internal/models"

const (
	RegressionRate           = 0.05
	EfficiencyRegressionRate = 0.15
	SubjectDecay             = 0.98
)

// Regress pulls the general stats toward the baseline and decays every
// subject level. Money is left alone.
func Regress(s models.GameState) models.GameState {
	s = s.Clone()
	regress(&s)
	return s
}

func regress(s *models.GameState) {
	pull := func(v, base, rate float64) float64 {
		return v - (v-base)*rate
	}
	g, b := &s.General, s.Baseline
	g.Mindset = pull(g.Mindset, b.Mindset, RegressionRate)
	g.Experience = pull(g.Experience, b.Experience, RegressionRate)
	g.Luck = pull(g.Luck, b.Luck, RegressionRate)
	g.Romance = pull(g.Romance, b.Romance, RegressionRate)
	g.Health = pull(g.Health, b.Health, RegressionRate)
	g.Efficiency = pull(g.Efficiency, b.Efficiency, EfficiencyRegressionRate)

	for k, sub := range s.Subjects {
		sub.Level *= SubjectDecay
		if sub.Level < 0 {
			sub.Level = 0
		}
		s.Subjects[k] = sub
	}
}
