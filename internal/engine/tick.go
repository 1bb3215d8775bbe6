package engine

import (
	"fmt"

	"github.com/tatianab/campus-life/internal/models"
)

// Pending names the interaction a state is waiting on.
type Pending string

const (
	PendingNone             Pending = ""
	PendingEvent            Pending = "EVENT"
	PendingEventResult      Pending = "EVENT_RESULT"
	PendingWeekend          Pending = "WEEKEND"
	PendingClubSelection    Pending = "CLUB_SELECTION"
	PendingSubjectSelection Pending = "SUBJECT_SELECTION"
	PendingExam             Pending = "EXAM"
	PendingExamResult       Pending = "EXAM_RESULT"
	PendingEnding           Pending = "ENDING"
)

// Phase length and exam weeks.
const (
	SummerWeeks   = 8
	MilitaryWeeks = 2
	CSPWeek       = 10
	MidtermWeek   = 11
	NOIPWeek      = 18
	FinalWeek     = 21

	ClubOfferWeek = 2

	WeeklyHealthCost = 0.8
	WeeklyStipend    = 2
	DebtChance       = 0.30

	WeekendPoints = 2
	WeekendOIGain = 0.3
	ClubWeekEvery = 4
)

// TickResult is the outcome of one AdvanceWeek call.
type TickResult struct {
	State   models.GameState
	Pending Pending
	// Unlocked lists achievements unlocked by this tick's scan.
	Unlocked []string
	// ClubOffered is set on the tick that opened club selection.
	ClubOffered bool
	// DebtCollected is set when the debt roll queued a collection.
	DebtCollected bool
}

// PendingOf reports what s is waiting on. Ticks only run on PendingNone.
func PendingOf(s *models.GameState) Pending {
	switch {
	case s.Phase.IsTerminal():
		return PendingEnding
	case s.ExamResult != nil:
		return PendingExamResult
	case s.EventResult != nil:
		return PendingEventResult
	case s.CurrentEvent != nil || len(s.EventQueue) > 0:
		return PendingEvent
	case s.Phase.IsExam():
		return PendingExam
	case s.Phase.IsSelection():
		return PendingSubjectSelection
	case s.ClubPending:
		return PendingClubSelection
	case s.IsWeekend:
		return PendingWeekend
	}
	return PendingNone
}

// AdvanceWeek runs one weekly tick. A semester tick that opened the weekend
// window stops there; the next call after the weekend resumes at the passive
// costs without repeating the achievement scan or regression.
func AdvanceWeek(s models.GameState, env *Env) TickResult {
	s = s.Clone()
	s.Notifications = nil
	res := TickResult{}

	if s.General.Health <= 0 || s.General.Mindset <= 0 {
		s.Phase = models.PhaseWithdrawal
		s.IsPlaying = false
		s.CurrentEvent = nil
		s.EventQueue = nil
		s.Log = append(s.Log, "身心俱疲，你办理了休学手续。")
		res.State = s
		res.Pending = PendingEnding
		return res
	}

	resumed := s.WeekendProcessed
	if !resumed {
		res.Unlocked = scanAchievements(&s, env)
		regress(&s)
	}

	if pending, moved := transition(&s); moved {
		res.State = s
		res.Pending = pending
		return res
	}

	if s.Phase == models.PhaseSemester && s.Week == ClubOfferWeek && s.Club == "" && !s.ClubOffered {
		s.ClubOffered = true
		s.ClubPending = true
		res.ClubOffered = true
	}

	if s.Phase == models.PhaseSemester && !s.WeekendProcessed && !s.IsWeekend {
		if openWeekend(&s, env) {
			res.State = s
			res.Pending = PendingOf(&s)
			return res
		}
	}

	s.General.Health -= WeeklyHealthCost
	s.General.Money += WeeklyStipend

	var fresh []models.GameStatus
	if s.General.Money < 0 && !s.HasStatus("debt") && env.chance(DebtChance) {
		if ev, ok := env.Content.Event("debt_collection"); ok {
			enqueue(&s, ev)
		}
		if tmpl, ok := env.Content.Status("debt"); ok {
			fresh = append(fresh, tmpl.Instance(1))
		}
		res.DebtCollected = true
	}

	tickStatuses(&s, env, fresh)
	generateEvents(&s, env)

	s.Week++
	s.TotalWeeks++
	s.WeekendProcessed = false
	s.Log = append(s.Log, fmt.Sprintf("—— %s 第 %d 周 ——", s.Phase.DisplayName(), s.Week))

	promoteNext(&s)
	res.State = s
	res.Pending = PendingOf(&s)
	return res
}

// transition applies the week-threshold phase changes. It reports whether
// the tick must stop here.
func transition(s *models.GameState) (Pending, bool) {
	switch s.Phase {
	case models.PhaseSummer:
		if s.Week >= SummerWeeks {
			s.Phase = models.PhaseMilitary
			s.Week = 1
			s.Log = append(s.Log, "暑假结束，军训开始了。")
			return PendingNone, true
		}
	case models.PhaseMilitary:
		if s.Week >= MilitaryWeeks {
			s.Phase = models.PhaseSelection
			s.Log = append(s.Log, "军训结束，该选科了。")
			return PendingSubjectSelection, true
		}
	case models.PhaseSemester:
		taken := func(p models.Phase) bool { return s.ExamsTaken[p] }
		var exam models.Phase
		switch {
		case s.IsOI() && s.Week == CSPWeek && !taken(models.PhaseCSP):
			exam = models.PhaseCSP
		case s.IsOI() && s.Week == NOIPWeek && !taken(models.PhaseNOIP):
			exam = models.PhaseNOIP
		case s.Week == MidtermWeek && !taken(models.PhaseMidterm):
			exam = models.PhaseMidterm
		case s.Week == FinalWeek && !taken(models.PhaseFinal):
			exam = models.PhaseFinal
		}
		if exam != "" {
			s.Phase = exam
			s.ExamResult = nil
			s.Log = append(s.Log, exam.DisplayName()+"来了。")
			return PendingExam, true
		}
	}
	return PendingNone, false
}

// openWeekend computes the week's free action points. It reports whether
// the weekend menu should open.
func openWeekend(s *models.GameState, env *Env) bool {
	s.WeekendProcessed = true
	points := WeekendPoints

	if s.IsOI() {
		points--
		s.OI = s.OI.Add(models.UniformOI(WeekendOIGain))
		s.Log = append(s.Log, "周末去机房集训，OI 能力小幅提升。")
	}
	if s.Club != "" && s.Week%ClubWeekEvery == 0 {
		points--
		if club, ok := env.Content.Club(s.Club); ok {
			ApplyEffect(s, env, club.Effect)
			s.Log = append(s.Log, fmt.Sprintf("%s活动：%s", club.Name, club.Effect.Message))
		}
	}

	if points > 0 {
		s.IsWeekend = true
		s.ActionPoints = points
		return true
	}
	s.ActionPoints = 0
	s.Log = append(s.Log, "这周日程排满了，没有空闲的周末。")
	return false
}
