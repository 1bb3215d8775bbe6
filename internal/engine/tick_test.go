package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/campus-life/internal/models"
)

func TestRegress_Convergence(t *testing.T) {
	s := newState(models.PhaseSummer, 1)
	s.General.Mindset = 90
	s.General.Luck = 20
	s.General.Health = 100
	s.General.Efficiency = 30
	s.General.Money = -40

	for i := 0; i < 50; i++ {
		next := Regress(s)
		for _, stat := range []string{models.StatMindset, models.StatExperience, models.StatLuck, models.StatRomance, models.StatHealth} {
			v, _ := s.General.Get(stat)
			b, _ := s.Baseline.Get(stat)
			nv, _ := next.General.Get(stat)
			gap, ngap := v-b, nv-b
			assert.InDelta(t, gap*(1-RegressionRate), ngap, 1e-9, "%s step %d", stat, i)
			if gap != 0 {
				assert.Equal(t, math.Signbit(gap), math.Signbit(ngap), "%s overshot", stat)
			}
		}
		eGap := s.General.Efficiency - s.Baseline.Efficiency
		assert.InDelta(t, eGap*(1-EfficiencyRegressionRate), next.General.Efficiency-s.Baseline.Efficiency, 1e-9)
		assert.Equal(t, -40.0, next.General.Money)
		s = next
	}
	assert.InDelta(t, 60, s.General.Mindset, 3)
}

func TestRegress_SubjectDecay(t *testing.T) {
	s := newState(models.PhaseSummer, 1)
	s.Subjects[models.Math] = models.SubjectStats{Aptitude: 70, Level: 50}

	prev := 50.0
	for i := 0; i < 30; i++ {
		s = Regress(s)
		level := s.Subjects[models.Math].Level
		assert.InDelta(t, prev*SubjectDecay, level, 1e-9)
		assert.LessOrEqual(t, level, prev)
		assert.GreaterOrEqual(t, level, 0.0)
		prev = level
	}
	assert.Equal(t, 70.0, s.Subjects[models.Math].Aptitude)
}

func TestRegress_DoesNotMutateInput(t *testing.T) {
	s := newState(models.PhaseSummer, 1)
	s.General.Mindset = 90
	_ = Regress(s)
	assert.Equal(t, 90.0, s.General.Mindset)
	assert.Equal(t, 10.0, s.Subjects[models.Math].Level)
}

func TestAdvanceWeek_Terminal(t *testing.T) {
	env := testEnv(t, 1)

	s := newState(models.PhaseSemester, 5)
	s.General.Health = 0
	res := AdvanceWeek(s, env)
	assert.Equal(t, models.PhaseWithdrawal, res.State.Phase)
	assert.False(t, res.State.IsPlaying)
	assert.Equal(t, PendingEnding, res.Pending)
	assert.Equal(t, 5, res.State.Week)

	s = newState(models.PhaseSummer, 2)
	s.General.Mindset = -1
	res = AdvanceWeek(s, env)
	assert.Equal(t, models.PhaseWithdrawal, res.State.Phase)
	assert.False(t, res.State.IsPlaying)
}

func TestAdvanceWeek_SummerToMilitary(t *testing.T) {
	res := AdvanceWeek(newState(models.PhaseSummer, SummerWeeks), testEnv(t, 1))
	assert.Equal(t, models.PhaseMilitary, res.State.Phase)
	assert.Equal(t, 1, res.State.Week)
	assert.Equal(t, PendingNone, res.Pending)
}

func TestAdvanceWeek_MilitaryToSelection(t *testing.T) {
	res := AdvanceWeek(newState(models.PhaseMilitary, MilitaryWeeks), testEnv(t, 1))
	assert.Equal(t, models.PhaseSelection, res.State.Phase)
	assert.Equal(t, PendingSubjectSelection, res.Pending)
}

func TestAdvanceWeek_MilitaryAlwaysDrawsEvent(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		res := AdvanceWeek(newState(models.PhaseMilitary, 1), testEnv(t, seed))
		assert.NotNil(t, res.State.CurrentEvent, "seed %d", seed)
		assert.Equal(t, 2, res.State.Week)
	}
}

func TestAdvanceWeek_ExamTransitions(t *testing.T) {
	env := testEnv(t, 1)

	res := AdvanceWeek(newState(models.PhaseSemester, MidtermWeek), env)
	assert.Equal(t, models.PhaseMidterm, res.State.Phase)
	assert.Equal(t, PendingExam, res.Pending)
	assert.Equal(t, MidtermWeek, res.State.Week)

	res = AdvanceWeek(newState(models.PhaseSemester, FinalWeek), env)
	assert.Equal(t, models.PhaseFinal, res.State.Phase)

	oi := newState(models.PhaseSemester, CSPWeek)
	oi.Competition = models.CompetitionOI
	res = AdvanceWeek(oi, env)
	assert.Equal(t, models.PhaseCSP, res.State.Phase)

	oi.Week = NOIPWeek
	res = AdvanceWeek(oi, env)
	assert.Equal(t, models.PhaseNOIP, res.State.Phase)

	// Without the OI track the contest weeks are ordinary weeks.
	plain := newState(models.PhaseSemester, CSPWeek)
	plain.WeekendProcessed = true
	res = AdvanceWeek(plain, env)
	assert.Equal(t, models.PhaseSemester, res.State.Phase)
	assert.Equal(t, CSPWeek+1, res.State.Week)

	// An exam already sat is not sat again.
	taken := newState(models.PhaseSemester, MidtermWeek)
	taken.ExamsTaken[models.PhaseMidterm] = true
	taken.WeekendProcessed = true
	res = AdvanceWeek(taken, env)
	assert.Equal(t, models.PhaseSemester, res.State.Phase)
	assert.Equal(t, MidtermWeek+1, res.State.Week)
}

func TestAdvanceWeek_WeekendExhaustion(t *testing.T) {
	s := newState(models.PhaseSemester, 4)
	s.Competition = models.CompetitionOI
	s.Club = "debate"

	res := AdvanceWeek(s, testEnv(t, 7))

	assert.False(t, res.State.IsWeekend)
	assert.Equal(t, 0, res.State.ActionPoints)
	assert.Equal(t, 5, res.State.Week)
	assert.InDelta(t, WeekendOIGain, res.State.OI.DP, 1e-9)
	assert.NotEqual(t, PendingWeekend, res.Pending)

	full := false
	for _, line := range res.State.Log {
		if strings.Contains(line, "日程排满") {
			full = true
		}
	}
	assert.True(t, full, "expected a schedule-full log line, got %v", res.State.Log)
}

func TestAdvanceWeek_WeekendOpensAndResumes(t *testing.T) {
	env := testEnv(t, 3)
	s := newState(models.PhaseSemester, 3)
	s.General.Mindset = 90

	res := AdvanceWeek(s, env)
	require.Equal(t, PendingWeekend, res.Pending)
	assert.True(t, res.State.IsWeekend)
	assert.Equal(t, WeekendPoints, res.State.ActionPoints)
	assert.Equal(t, 3, res.State.Week)
	assert.Empty(t, res.State.EventQueue)

	regressed := res.State.General.Mindset
	assert.InDelta(t, 88.5, regressed, 1e-9)

	resumed := AdvanceWeek(EndWeekend(res.State), env)
	assert.Equal(t, 4, resumed.State.Week)
	assert.Equal(t, regressed, resumed.State.General.Mindset, "regression must not run twice in one week")
	assert.InDelta(t, res.State.General.Health-WeeklyHealthCost, resumed.State.General.Health, 1e-9)
	assert.False(t, resumed.State.WeekendProcessed)
}

func TestAdvanceWeek_ClubOffer(t *testing.T) {
	res := AdvanceWeek(newState(models.PhaseSemester, ClubOfferWeek), testEnv(t, 1))
	assert.True(t, res.ClubOffered)
	assert.True(t, res.State.ClubPending)
	assert.Equal(t, PendingClubSelection, res.Pending)

	declined := DeclineClub(res.State)
	assert.False(t, declined.ClubPending)
	assert.True(t, declined.ClubOffered)
	assert.Equal(t, PendingWeekend, PendingOf(&declined))
}

func TestAdvanceWeek_FixedEventScheduled(t *testing.T) {
	s := newState(models.PhaseSemester, 4)
	s.WeekendProcessed = true

	res := AdvanceWeek(s, fixedEnv(t, 0.99))
	assert.Equal(t, 5, res.State.Week)
	assert.Contains(t, queuedIDs(res.State), "sem_monthly_test")
}

func TestAdvanceWeek_SemesterGeneratesStudyAndFlavor(t *testing.T) {
	s := newState(models.PhaseSemester, 7)
	s.WeekendProcessed = true

	res := AdvanceWeek(s, fixedEnv(t, 0.99))
	ids := queuedIDs(res.State)
	require.GreaterOrEqual(t, len(ids), 2)
	assert.True(t, strings.HasPrefix(ids[0], "gen_study_"), "got %v", ids)
}

func TestAdvanceWeek_PassiveCosts(t *testing.T) {
	s := newState(models.PhaseSummer, 3)
	s.General.Health = 0.5
	s.Baseline.Health = 0.5

	res := AdvanceWeek(s, fixedEnv(t, 0.99))
	assert.LessOrEqual(t, res.State.General.Health, 0.0)
	assert.Equal(t, InitialStats.Money+WeeklyStipend, res.State.General.Money)

	next := AdvanceWeek(res.State, fixedEnv(t, 0.99))
	assert.Equal(t, models.PhaseWithdrawal, next.State.Phase)
}

func TestAdvanceWeek_DebtRate(t *testing.T) {
	hits := 0
	const trials = 1000
	for seed := uint64(0); seed < trials; seed++ {
		s := newState(models.PhaseSummer, 3)
		s.General.Money = -50

		res := AdvanceWeek(s, testEnv(t, seed))
		if !res.DebtCollected {
			continue
		}
		hits++
		assert.Contains(t, queuedIDs(res.State), "debt_collection")
		assert.True(t, res.State.HasStatus("debt"))
	}
	assert.InDelta(t, 300, hits, 50, "debt collection fired %d of %d times", hits, trials)
}

func TestAdvanceWeek_DebtNotRepeatedWhileActive(t *testing.T) {
	s := newState(models.PhaseSummer, 3)
	s.General.Money = -50
	s.Statuses = []models.GameStatus{{ID: "debt", Duration: 1}}

	res := AdvanceWeek(s, fixedEnv(t, 0))
	assert.False(t, res.DebtCollected)
	assert.NotContains(t, queuedIDs(res.State), "debt_collection")
}

func TestAdvanceWeek_FreshDebtSurvivesItsTick(t *testing.T) {
	s := newState(models.PhaseSummer, 3)
	s.General.Money = -50

	res := AdvanceWeek(s, fixedEnv(t, 0))
	require.True(t, res.DebtCollected)
	require.True(t, res.State.HasStatus("debt"))
	// debt applies mindset -2 on the tick it is granted.
	assert.InDelta(t, InitialStats.Mindset-2, res.State.General.Mindset, 1e-9)

	// It expires on the following tick.
	res.State.CurrentEvent = nil
	res.State.EventQueue = nil
	res.State.General.Money = 10
	next := AdvanceWeek(res.State, fixedEnv(t, 0.99))
	assert.False(t, next.State.HasStatus("debt"))
}

func TestAdvanceWeek_StatusLifecycle(t *testing.T) {
	s := newState(models.PhaseSummer, 3)
	s.General.Romance = 40
	s.Baseline.Romance = 40
	s.Statuses = []models.GameStatus{
		{ID: "anxious", Duration: 1},
		{ID: "focused", Duration: 3},
	}

	res := AdvanceWeek(s, fixedEnv(t, 0.99))
	st := res.State

	assert.False(t, st.HasStatus("anxious"))
	require.True(t, st.HasStatus("focused"))
	for _, status := range st.Statuses {
		if status.ID == "focused" {
			assert.Equal(t, 2, status.Duration)
		}
	}
	assert.True(t, st.HasStatus("crush"), "romance >= 35 without a partner always adds crush")
	assert.False(t, st.HasStatus("crush_pending"), "a 0.99 draw never hits the 20% roll")

	// focused +0.5, crush -0.4 on top of the regressed baseline efficiency.
	assert.InDelta(t, InitialStats.Efficiency+0.5-0.4, st.General.Efficiency, 1e-9)
}

func TestAdvanceWeek_StatusTicksDoNotClamp(t *testing.T) {
	base := newState(models.PhaseSummer, 3)
	base.General.Health, base.Baseline.Health = 0.5, 0.5
	base.General.Efficiency, base.Baseline.Efficiency = 0.2, 0.2

	plain := AdvanceWeek(base, fixedEnv(t, 0.99)).State
	assert.InDelta(t, -0.3, plain.General.Health, 1e-9)

	withStatus := base.Clone()
	withStatus.Statuses = []models.GameStatus{
		{ID: "in_love", Duration: 4},
		{ID: "crush", Duration: 3},
	}
	next := AdvanceWeek(withStatus, fixedEnv(t, 0.99)).State
	assert.InDelta(t, plain.General.Health, next.General.Health, 1e-9, "an unrelated status must not change the health cost")
	assert.InDelta(t, -0.2, next.General.Efficiency, 1e-9, "crush can push efficiency below zero")
}

func TestGrantStatus_Stacking(t *testing.T) {
	env := testEnv(t, 1)
	s := newState(models.PhaseSummer, 1)

	assert.True(t, grantStatus(&s, env, "focused", 0))
	assert.False(t, grantStatus(&s, env, "focused", 0))
	assert.True(t, grantStatus(&s, env, "anxious", 0))
	assert.True(t, grantStatus(&s, env, "anxious", 0))
	assert.False(t, grantStatus(&s, env, "no_such_status", 0))

	count := map[string]int{}
	for _, st := range s.Statuses {
		count[st.ID]++
	}
	assert.Equal(t, map[string]int{"focused": 1, "anxious": 2}, count)
	assert.Equal(t, 3, s.Statuses[0].Duration)
}

func TestDebtTier(t *testing.T) {
	cases := []struct {
		money float64
		tier  int
	}{
		{10, 0},
		{0, 0},
		{-1, 1},
		{-100, 1},
		{-101, 2},
		{-301, 3},
		{-601, 4},
		{-1001, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.tier, DebtTier(c.money), "money %v", c.money)
	}
	assert.Equal(t, "", DebtTierStatus(5))
	assert.Equal(t, "debt_3", DebtTierStatus(-400))
}

func TestPendingOf(t *testing.T) {
	s := newState(models.PhaseSemester, 3)
	assert.Equal(t, PendingNone, PendingOf(&s))

	s.IsWeekend = true
	assert.Equal(t, PendingWeekend, PendingOf(&s))

	s.EventQueue = []models.GameEvent{{ID: "x"}}
	assert.Equal(t, PendingEvent, PendingOf(&s))

	s.ExamResult = &models.ExamResult{}
	assert.Equal(t, PendingExamResult, PendingOf(&s))

	s.Phase = models.PhaseEnding
	assert.Equal(t, PendingEnding, PendingOf(&s))
}
