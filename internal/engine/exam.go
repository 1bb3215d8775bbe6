package engine

import (
	"fmt"
	"math"

	"github.com/tatianab/campus-life/internal/models"
)

const (
	// FailRatio is the share of a subject's full mark at or below which the
	// head teacher asks for a talk.
	FailRatio = 0.6

	oiPerfectRatio = 0.98
	oiZeroRatio    = 0.15
)

// DifficultyMultiplier scales OI contest ratios by game difficulty.
func DifficultyMultiplier(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyHard:
		return 0.7
	case models.DifficultyReality:
		return 0.5
	}
	return 1.0
}

// SubjectRatio is the pre-curve score ratio of one academic subject before
// the random factor.
func SubjectRatio(sub models.SubjectStats, g models.GeneralStats) float64 {
	base := math.Max(0.3, (sub.Aptitude*0.2+sub.Level)/80)
	return base + (g.Luck-50)*0.001 + (g.Mindset-50)*0.002 + g.Efficiency*0.004
}

// SubjectScore curves a ratio (already multiplied by the random factor) into
// a score out of max.
func SubjectScore(ratio, max float64) int {
	ratio = math.Min(1, math.Max(0, ratio))
	return int(math.Floor(math.Pow(ratio, 0.9) * max))
}

// OIRatio compares the player's weighted skills against a problem.
func OIRatio(oi models.OIStats, g models.GeneralStats, d models.Difficulty, p models.OIProblem) float64 {
	var ability float64
	for dim, w := range p.Weights {
		v, _ := oi.Get(dim)
		ability += w * v
	}
	required := p.Difficulty * 7.5
	if required <= 0 {
		return 1
	}
	ratio := ability / required
	ratio *= 1 + (g.Luck-50)/500 + (g.Mindset-50)/500
	return ratio * DifficultyMultiplier(d)
}

// OIScoreFromRatio maps a problem ratio onto 0..100.
func OIScoreFromRatio(ratio float64) int {
	switch {
	case ratio >= oiPerfectRatio:
		return 100
	case ratio <= oiZeroRatio:
		return 0
	}
	return int(math.Floor(math.Pow(ratio, 0.8) * 100))
}

// ScoreExam sits the exam of the current phase.
func ScoreExam(s models.GameState, env *Env) models.ExamResult {
	res := models.ExamResult{Kind: s.Phase, Cohort: CohortSize}

	if s.Phase.IsCompetition() {
		for _, p := range env.Content.OIProblems[s.Phase] {
			score := OIScoreFromRatio(OIRatio(s.OI, s.General, s.Difficulty, p))
			res.Scores = append(res.Scores, models.ScoreLine{Key: p.Name, Name: p.Name, Score: score, Max: 100})
			res.Total += score
			res.Max += 100
		}
		return res
	}

	for _, sub := range s.StudiedSubjects() {
		max := sub.MaxScore()
		ratio := SubjectRatio(s.Subjects[sub], s.General) * env.uniform(0.85, 1.15)
		score := SubjectScore(ratio, max)
		res.Scores = append(res.Scores, models.ScoreLine{Key: string(sub), Name: sub.DisplayName(), Score: score, Max: int(max)})
		res.Total += score
		res.Max += int(max)
	}
	res.Rank = ComputeRank(float64(res.Total), float64(res.Max), CohortSize)
	return res
}

// ClassTier places a placement-exam total into a class and returns the
// efficiency bonus it grants.
func ClassTier(total int) (string, float64) {
	switch {
	case total > 540:
		return "一类实验班", 4
	case total > 480:
		return "二类实验班", 2
	}
	return "普通班", 0
}

// Award maps a contest total onto its prize tier, or "" for none.
func Award(kind models.Phase, total int) string {
	switch kind {
	case models.PhaseCSP:
		switch {
		case total >= 200:
			return "一等奖"
		case total >= 140:
			return "二等奖"
		case total >= 90:
			return "三等奖"
		}
	case models.PhaseNOIP:
		switch {
		case total >= 300:
			return "省一"
		case total >= 200:
			return "省二"
		case total >= 120:
			return "省三"
		}
	}
	return ""
}

// ResolveExam applies an exam result: placement, phase change, awards,
// inline achievements and the fail talk. The result stays pending until
// DismissExamResult.
func ResolveExam(s models.GameState, env *Env, result models.ExamResult) models.GameState {
	s = s.Clone()
	if s.ExamsTaken == nil {
		s.ExamsTaken = make(map[models.Phase]bool)
	}
	s.ExamsTaken[result.Kind] = true
	academic := !result.Kind.IsCompetition()

	switch result.Kind {
	case models.PhasePlacement:
		tier, bonus := ClassTier(result.Total)
		result.Tier = tier
		s.ClassTier = tier
		s.General.Efficiency += bonus
		s.Phase = models.PhaseSemester
		s.Week = 1
		s.TotalWeeks = 0
		s.Log = append(s.Log, fmt.Sprintf("分班考试 %d 分，分入%s。", result.Total, tier))

	case models.PhaseMidterm:
		s.MidtermRank = result.Rank
		s.Phase = models.PhaseReselection
		s.Log = append(s.Log, fmt.Sprintf("期中考试年级第 %d 名。", result.Rank))

	case models.PhaseCSP, models.PhaseNOIP:
		award := Award(result.Kind, result.Total)
		result.Award = award
		if award != "" {
			s.Awards = append(s.Awards, result.Kind.DisplayName()+" "+award)
			s.Log = append(s.Log, fmt.Sprintf("%s %d 分，获得%s！", result.Kind.DisplayName(), result.Total, award))
		} else {
			s.Log = append(s.Log, fmt.Sprintf("%s %d 分，遗憾未获奖。", result.Kind.DisplayName(), result.Total))
		}
		s.Phase = models.PhaseSemester
		if result.Kind == models.PhaseNOIP && award == "省一" {
			unlock(&s, env, "oi_legend")
		}

	case models.PhaseFinal:
		s.FinalRank = result.Rank
		s.Phase = models.PhaseEnding
		s.IsPlaying = false
		s.Log = append(s.Log, fmt.Sprintf("期末考试年级第 %d 名。高一上学期结束了。", result.Rank))
		unlock(&s, env, "finisher")
	}

	if academic {
		if result.Rank == 1 {
			unlock(&s, env, "top_rank")
		}
		if float64(result.Rank) > float64(result.Cohort)*0.98 {
			unlock(&s, env, "bottom_rank")
		}
		for _, line := range result.Scores {
			if line.Score == line.Max {
				unlock(&s, env, "nerd")
				break
			}
		}
	}

	// Any failed score line, contests included, earns a talk.
	for _, line := range result.Scores {
		if float64(line.Score) <= float64(line.Max)*FailRatio {
			if ev, ok := env.Content.Event("exam_fail_talk"); ok {
				enqueue(&s, ev)
			}
			break
		}
	}

	s.ExamResult = &result
	return s
}

// DismissExamResult closes the result popup and presents any queued event.
func DismissExamResult(s models.GameState) models.GameState {
	if s.ExamResult == nil {
		return s
	}
	s = s.Clone()
	s.ExamResult = nil
	promoteNext(&s)
	return s
}

// Ending is the scored outcome of a finished playthrough.
type Ending struct {
	Score int    `json:"score"`
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

// EndingScore scores a finished playthrough from the final rank, the
// accumulated stats, awards and achievements.
func EndingScore(s models.GameState) Ending {
	g := s.General
	stats := g.Mindset + g.Experience + g.Luck + g.Romance + g.Health + g.Efficiency*2 + math.Max(0, g.Money)/10
	bonus := 200*len(s.Awards) + 50*len(s.Achievements)

	if s.Phase == models.PhaseWithdrawal || s.FinalRank == 0 {
		return Ending{Score: int(stats) + bonus, Title: "休学回家"}
	}

	rankScore := (CohortSize - s.FinalRank + 1) * 1000 / CohortSize
	var title string
	switch r := s.FinalRank; {
	case r <= 10:
		title = "清北苗子"
	case r <= 60:
		title = "985预备役"
	case r <= 200:
		title = "211有望"
	case r <= 450:
		title = "稳稳本科"
	default:
		title = "还需努力"
	}
	return Ending{Score: rankScore + int(stats) + bonus, Title: title, Rank: s.FinalRank}
}
