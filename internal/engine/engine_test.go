package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/models"
)

func testEnv(t *testing.T, seed uint64) *Env {
	t.Helper()
	c, err := content.Default()
	require.NoError(t, err)
	return NewEnv(c, seed)
}

// fixedRand returns the same draw every time.
type fixedRand struct {
	f float64
	i int
}

func (r fixedRand) Float64() float64 { return r.f }

func (r fixedRand) IntN(n int) int {
	if r.i >= n {
		return n - 1
	}
	return r.i
}

func fixedEnv(t *testing.T, f float64) *Env {
	t.Helper()
	env := testEnv(t, 1)
	env.Rand = fixedRand{f: f}
	return env
}

func newState(phase models.Phase, week int) models.GameState {
	s := models.GameState{
		PlayerName: "测试",
		Phase:      phase,
		Week:       week,
		IsPlaying:  true,
		Difficulty: models.DifficultyNormal,
		General:    InitialStats,
		Baseline:   InitialStats,
		Subjects:   make(map[models.Subject]models.SubjectStats),
		ExamsTaken: make(map[models.Phase]bool),
	}
	for _, sub := range models.AllSubjects {
		s.Subjects[sub] = models.SubjectStats{Aptitude: 50, Level: 10}
	}
	return s
}

func queuedIDs(s models.GameState) []string {
	var ids []string
	if s.CurrentEvent != nil {
		ids = append(ids, s.CurrentEvent.ID)
	}
	for _, ev := range s.EventQueue {
		ids = append(ids, ev.ID)
	}
	return ids
}
