package engine

import (
	"fmt"
	"math"

	"github.com/tatianab/campus-life/internal/models"
)

// Generation odds for the weekly event synthesis.
const (
	SummerLifeChance   = 0.70
	SummerOIChance     = 0.50
	SemesterDateChance = 0.25
	EligibleChance     = 0.40

	ScienceFestivalWeek = 6
	NewYearWeek         = 17
)

var oiDimensionNames = map[string]string{
	"dp":     "动态规划",
	"ds":     "数据结构",
	"math":   "数学",
	"string": "字符串",
	"graph":  "图论",
	"misc":   "杂题",
}

func oiDelta(dim string, v float64) models.OIStats {
	var d models.OIStats
	switch dim {
	case "dp":
		d.DP = v
	case "ds":
		d.DS = v
	case "math":
		d.Math = v
	case "string":
		d.String = v
	case "graph":
		d.Graph = v
	case "misc":
		d.Misc = v
	}
	return d
}

// fromPool copies a random template out of pool.
func fromPool(pool []models.GameEvent, env *Env) (models.GameEvent, bool) {
	if len(pool) == 0 {
		return models.GameEvent{}, false
	}
	return pool[env.pick(len(pool))].Clone(), true
}

// SummerLifeEvent draws a summer-break event from the content pool.
func SummerLifeEvent(s *models.GameState, env *Env) (models.GameEvent, bool) {
	ev, ok := fromPool(env.Content.Pools.Summer, env)
	if ok && ev.Type == "" {
		ev.Type = models.EventLife
	}
	return ev, ok
}

// OIPracticeEvent builds a practice session on one random OI dimension.
func OIPracticeEvent(s *models.GameState, env *Env) models.GameEvent {
	dim := models.OIDimensions[env.pick(len(models.OIDimensions))]
	name := oiDimensionNames[dim]
	return models.GameEvent{
		ID:          "gen_oi_" + dim,
		Title:       "机房训练：" + name,
		Description: fmt.Sprintf("教练布置了一套%s专题，机房里只剩键盘声。", name),
		Type:        models.EventOI,
		Choices: []models.EventChoice{
			{Text: "死磕到底", Effect: models.Effect{
				OI:      oiDelta(dim, 1.5),
				General: models.GeneralStats{Mindset: -1, Health: -0.5},
				Message: "终于过了，提交记录一片红之后的那抹绿。",
			}},
			{Text: "看题解", Effect: models.Effect{
				OI:      oiDelta(dim, 0.8),
				Message: "原来还能这么做。",
			}},
			{Text: "摸鱼", Effect: models.Effect{
				General: models.GeneralStats{Mindset: 1.5},
				Message: "刷了一下午 B 站。",
			}},
		},
	}
}

// StudyEvent picks one studied subject at random. Gains scale with
// efficiency.
func StudyEvent(s *models.GameState, env *Env) models.GameEvent {
	subjects := s.StudiedSubjects()
	sub := subjects[env.pick(len(subjects))]
	boost := 1 + math.Max(0, s.General.Efficiency)/100
	name := sub.DisplayName()
	return models.GameEvent{
		ID:          "gen_study_" + string(sub),
		Title:       name + "课",
		Description: fmt.Sprintf("这周的%s课讲到了新章节，进度有点快。", name),
		Type:        models.EventStudy,
		Choices: []models.EventChoice{
			{Text: "课后专项突破", Effect: models.Effect{
				Subjects: map[models.Subject]float64{sub: 2 * boost},
				General:  models.GeneralStats{Mindset: -1.5, Health: -0.5},
				Message:  "把课本上的例题全做了一遍。",
			}},
			{Text: "正常听课", Effect: models.Effect{
				Subjects: map[models.Subject]float64{sub: 1 * boost},
			}},
			{Text: "开小差", Effect: models.Effect{
				General: models.GeneralStats{Mindset: 1.5},
				Message: "窗外的云很好看。",
			}},
		},
	}
}

// FlavorEvent draws a good or bad everyday event. Luck shifts the odds.
func FlavorEvent(s *models.GameState, env *Env) (models.GameEvent, bool) {
	pGood := math.Min(0.9, math.Max(0.1, 0.5+(s.General.Luck-50)/100))
	if env.chance(pGood) {
		return fromPool(env.Content.Pools.FlavorGood, env)
	}
	return fromPool(env.Content.Pools.FlavorBad, env)
}

// DateEvent is a weekend outing with the partner.
func DateEvent(s *models.GameState, env *Env) models.GameEvent {
	return models.GameEvent{
		ID:          "gen_date",
		Title:       "周末约会",
		Description: s.Partner + "约你这周末出去走走。",
		Type:        models.EventRomance,
		Choices: []models.EventChoice{
			{Text: "去看电影", Effect: models.Effect{
				General: models.GeneralStats{Romance: 4, Mindset: 3, Money: -30},
				Message: "电影讲了什么已经不记得了。",
			}},
			{Text: "一起去图书馆", Effect: models.Effect{
				General:     models.GeneralStats{Romance: 2},
				AllSubjects: 0.5,
				Message:     "互相讲题，效率奇高。",
			}},
			{Text: "这周要复习", Effect: models.Effect{
				General: models.GeneralStats{Romance: -2},
				Message: "TA 有点失落。",
			}},
		},
	}
}

// partyChoice is injected into festival events when a partner exists.
func partyChoice(s *models.GameState, text string, eff models.Effect) []models.EventChoice {
	if s.Partner == "" {
		return nil
	}
	return []models.EventChoice{{Text: fmt.Sprintf(text, s.Partner), Effect: eff}}
}

func ScienceFestivalEvent(s *models.GameState) models.GameEvent {
	choices := []models.EventChoice{
		{Text: "报名做展示", Effect: models.Effect{
			General:  models.GeneralStats{Experience: 3, Mindset: 1},
			Subjects: map[models.Subject]float64{models.Physics: 1, models.Chemistry: 1},
			Message:  "你的水火箭飞过了教学楼。",
		}},
		{Text: "随便逛逛", Effect: models.Effect{
			General: models.GeneralStats{Mindset: 2},
		}},
	}
	choices = append(choices, partyChoice(s, "和%s一起逛展", models.Effect{
		General: models.GeneralStats{Romance: 4, Mindset: 3},
		Message: "在全息投影前拍了一张合照。",
	})...)
	return models.GameEvent{
		ID:          "gen_science_festival",
		Title:       "科技节",
		Description: "一年一度的科技节开幕了，操场上摆满了展台。",
		Type:        models.EventSpecial,
		Choices:     choices,
	}
}

func NewYearEvent(s *models.GameState) models.GameEvent {
	choices := []models.EventChoice{
		{Text: "上台表演节目", Effect: models.Effect{
			General: models.GeneralStats{Romance: 3, Mindset: 3, Experience: 1},
			Message: "台下掌声雷动。",
		}},
		{Text: "在台下嗑瓜子", Effect: models.Effect{
			General: models.GeneralStats{Mindset: 2},
		}},
		{Text: "回教室自习", Effect: models.Effect{
			AllSubjects: 0.8,
			General:     models.GeneralStats{Mindset: -1},
		}},
	}
	choices = append(choices, partyChoice(s, "和%s一起跨年", models.Effect{
		General:  models.GeneralStats{Romance: 5, Mindset: 4},
		Statuses: []models.StatusGrant{{ID: "in_love", Duration: 2}},
		Message:  "零点的钟声里，你们相视一笑。",
	})...)
	return models.GameEvent{
		ID:          "gen_new_year",
		Title:       "元旦晚会",
		Description: "班里要办元旦晚会，桌子已经拼成了一圈。",
		Type:        models.EventSpecial,
		Choices:     choices,
	}
}

// generateEvents fills the queue for the upcoming week.
func generateEvents(s *models.GameState, env *Env) {
	next := s.Week + 1

	switch s.Phase {
	case models.PhaseSummer:
		if env.chance(SummerLifeChance) {
			if ev, ok := SummerLifeEvent(s, env); ok {
				enqueue(s, ev)
			}
		}
		if s.IsOI() && env.chance(SummerOIChance) {
			enqueue(s, OIPracticeEvent(s, env))
		}
	case models.PhaseSemester:
		enqueue(s, StudyEvent(s, env))
		if ev, ok := FlavorEvent(s, env); ok {
			enqueue(s, ev)
		}
		if next == ScienceFestivalWeek {
			enqueue(s, ScienceFestivalEvent(s))
		}
		if next == NewYearWeek {
			enqueue(s, NewYearEvent(s))
		}
		if s.Partner != "" && env.chance(SemesterDateChance) {
			enqueue(s, DateEvent(s, env))
		}
	}

	phaseEvents := env.Content.EventsFor(s.Phase)
	for _, ev := range FixedFor(phaseEvents, s.Phase, next) {
		enqueue(s, ev)
	}

	p := EligibleChance
	if s.Phase == models.PhaseMilitary {
		p = 1
	}
	eligible := SelectEligible(phaseEvents, s)
	if len(eligible) > 0 && env.chance(p) {
		if ev, ok := PickOne(eligible, env.Rand); ok {
			enqueue(s, ev)
		}
	}
}

// enqueue appends an event to the queue. Once-events are recorded on the
// ledger as soon as they are queued.
func enqueue(s *models.GameState, ev models.GameEvent) {
	if ev.Once {
		markTriggered(s, ev.ID)
	}
	s.EventQueue = append(s.EventQueue, ev)
}

func markTriggered(s *models.GameState, id string) {
	if id == "" || s.HasTriggered(id) {
		return
	}
	s.TriggeredEvents = append(s.TriggeredEvents, id)
}
