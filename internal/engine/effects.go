package engine

import (
	"math"

	"github.com/tatianab/campus-life/internal/models"
)

// Named effect variants for outcomes that need a roll or a branch.
const (
	VariantGamble        = "gamble"
	VariantConfess       = "confess"
	VariantRandomSubject = "random_subject"
	VariantLottery       = "lottery"
	VariantBreakup       = "breakup"
	VariantDebtTier      = "debt_tier"
)

var partnerNames = []string{"林晓", "陈雨", "苏念", "周宁", "许安", "沈星"}

// ApplyEffect applies eff to s in place and returns the message to show.
// General stats other than money are floored at zero; subject levels,
// aptitudes and OI skills never drop below zero.
func ApplyEffect(s *models.GameState, env *Env, eff models.Effect) string {
	s.General = s.General.Add(eff.General).ClampNonNegative()

	if s.Subjects == nil {
		s.Subjects = make(map[models.Subject]models.SubjectStats)
	}
	for _, sub := range models.AllSubjects {
		d := eff.AllSubjects + eff.Subjects[sub]
		a := eff.AllAptitude + eff.Aptitude[sub]
		if d == 0 && a == 0 {
			continue
		}
		st := s.Subjects[sub]
		st.Level = math.Max(0, st.Level+d)
		st.Aptitude = math.Max(0, st.Aptitude+a)
		s.Subjects[sub] = st
	}

	s.OI = floorOI(s.OI.Add(eff.OI))

	for _, g := range eff.Statuses {
		grantStatus(s, env, g.ID, g.Duration)
	}
	for _, id := range eff.Cure {
		cureStatus(s, id)
	}
	for _, id := range eff.Items {
		if !s.HasItem(id) {
			s.Inventory = append(s.Inventory, id)
		}
	}
	if eff.ClearPartner {
		s.Partner = ""
		cureStatus(s, "in_love")
	}
	if eff.Partner != "" {
		s.Partner = eff.Partner
	}

	msg := eff.Message
	if eff.Variant != "" {
		if vm := applyVariant(s, env, eff.Variant); vm != "" {
			msg = vm
		}
	}
	return msg
}

func floorOI(o models.OIStats) models.OIStats {
	o.DP = math.Max(0, o.DP)
	o.DS = math.Max(0, o.DS)
	o.Math = math.Max(0, o.Math)
	o.String = math.Max(0, o.String)
	o.Graph = math.Max(0, o.Graph)
	o.Misc = math.Max(0, o.Misc)
	return o
}

func addGeneral(s *models.GameState, d models.GeneralStats) {
	s.General = s.General.Add(d).ClampNonNegative()
}

func applyVariant(s *models.GameState, env *Env, variant string) string {
	switch variant {
	case VariantGamble:
		p := 0.5 + (s.General.Luck-50)/200
		if env.chance(p) {
			addGeneral(s, models.GeneralStats{Money: 30, Mindset: 2})
			return "你赢了，后桌不情不愿地转给你三十块。"
		}
		addGeneral(s, models.GeneralStats{Money: -30, Mindset: -3})
		return "你输了三十块，还被嘲笑了一整天。"

	case VariantConfess:
		p := math.Min(0.9, math.Max(0.1, (s.General.Romance-20)/40+(s.General.Luck-50)/200))
		if env.chance(p) {
			s.Partner = partnerNames[env.pick(len(partnerNames))]
			cureStatus(s, "crush_pending")
			cureStatus(s, "crush")
			grantStatus(s, env, "in_love", 0)
			addGeneral(s, models.GeneralStats{Romance: 5, Mindset: 5})
			return "TA 红着脸点了点头。你和" + s.Partner + "在一起了！"
		}
		grantStatus(s, env, "anxious", 2)
		addGeneral(s, models.GeneralStats{Romance: -3, Mindset: -8})
		return "TA 说：「对不起，我现在只想好好学习。」"

	case VariantRandomSubject:
		sub := models.AllSubjects[env.pick(len(models.AllSubjects))]
		st := s.Subjects[sub]
		st.Level += 2
		s.Subjects[sub] = st
		return sub.DisplayName() + "突然开窍了。"

	case VariantLottery:
		addGeneral(s, models.GeneralStats{Money: -5})
		if env.chance(0.05) {
			addGeneral(s, models.GeneralStats{Money: 200, Luck: 5})
			return "中了两百块！"
		}
		return "谢谢惠顾。"

	case VariantBreakup:
		s.Partner = ""
		cureStatus(s, "in_love")
		grantStatus(s, env, "anxious", 3)
		addGeneral(s, models.GeneralStats{Mindset: -10, Romance: -5})
		return "你们分手了。"

	case VariantDebtTier:
		if id := DebtTierStatus(s.General.Money); id != "" {
			grantStatus(s, env, id, 0)
		}
	}
	return ""
}
