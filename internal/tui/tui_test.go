package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/campus-life/internal/aievents"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/models"
)

type failingGenerator struct{}

func (failingGenerator) GenerateContent(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("quota exceeded")
}

func newTestModel(t *testing.T) (Model, *engine.Session) {
	t.Helper()
	catalog, err := content.Default()
	require.NoError(t, err)
	sess := engine.NewSession(engine.NewEnv(catalog, 1), nil, nil, "")
	return NewModel(Options{Session: sess, Content: catalog, Seed: 3}), sess
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, cmd = send(t, m, msg)
	}
	return m, cmd
}

// started returns a model that has begun a plain game.
func started(t *testing.T) (Model, *engine.Session) {
	t.Helper()
	m, sess := newTestModel(t)
	m.textInput.SetValue("阿杰")
	m, _ = press(t, m, "enter", "enter")
	require.Equal(t, screenPlaying, m.screen)
	return m, sess
}

func TestNewModel_Screens(t *testing.T) {
	m, sess := newTestModel(t)
	assert.Equal(t, screenName, m.screen)
	assert.Contains(t, m.View(), "你叫什么名字")

	_, err := sess.NewGame(context.Background(), engine.Options{Name: "小红"})
	require.NoError(t, err)
	resumed := NewModel(Options{Session: sess, Content: m.opts.Content})
	assert.Equal(t, screenMenu, resumed.screen)
	assert.Contains(t, resumed.View(), "小红")

	resumed, cmd := press(t, resumed, "c")
	assert.Equal(t, screenPlaying, resumed.screen)
	assert.NotNil(t, cmd)
}

func TestSetupFlow(t *testing.T) {
	m, sess := newTestModel(t)
	m.textInput.SetValue("  阿杰 ")
	m, _ = press(t, m, "enter")
	require.Equal(t, screenTalents, m.screen)
	assert.Equal(t, "阿杰", m.name)

	// genius 6 + math_prodigy 4 fills the budget; oi_sense no longer fits.
	m, _ = press(t, m, "x", "j", "x", "j", "x")
	assert.Equal(t, 10, m.spent())
	assert.Equal(t, "天赋点不足", m.status)
	assert.Equal(t, []string{"genius", "math_prodigy"}, m.pickedTalents())

	m, _ = press(t, m, "d", "o")
	assert.Equal(t, models.DifficultyHard, m.difficulty)
	assert.True(t, m.oi)
	assert.Contains(t, m.View(), "10 / 10")

	m, cmd := press(t, m, "enter")
	require.Equal(t, screenPlaying, m.screen)
	assert.NotNil(t, cmd)
	assert.True(t, m.ticking)

	st := sess.State()
	assert.Equal(t, "阿杰", st.PlayerName)
	assert.Equal(t, []string{"genius", "math_prodigy"}, st.Talents)
	assert.Equal(t, models.DifficultyHard, st.Difficulty)
	assert.Equal(t, models.CompetitionOI, st.Competition)
	assert.Contains(t, m.View(), "阿杰")
}

func TestNextDifficultyCycles(t *testing.T) {
	d := models.DifficultyNormal
	d = nextDifficulty(d)
	d = nextDifficulty(d)
	assert.Equal(t, models.DifficultyReality, d)
	assert.Equal(t, models.DifficultyNormal, nextDifficulty(d))
}

func TestTicksUntilBlocked(t *testing.T) {
	m, sess := started(t)

	for i := 0; i < 40 && sess.CanTick(); i++ {
		m, _ = send(t, m, tickMsg{})
	}
	require.False(t, sess.CanTick())
	assert.False(t, m.ticking)
	assert.Greater(t, sess.State().TotalWeeks, 0)

	_, cmd := send(t, m, tickMsg{})
	assert.Nil(t, cmd, "blocked sessions do not reschedule")

	if sess.Pending() == engine.PendingEvent {
		m, _ = press(t, m, "1")
		assert.Equal(t, engine.PendingEventResult, sess.Pending())
		assert.Contains(t, m.View(), "回车继续")
		press(t, m, "enter")
		assert.NotEqual(t, engine.PendingEventResult, sess.Pending())
	}
}

func TestPauseStopsTicks(t *testing.T) {
	m, sess := started(t)
	before := sess.State().TotalWeeks

	m, cmd := press(t, m, "p")
	assert.True(t, m.paused)
	assert.Nil(t, cmd)

	m, _ = send(t, m, tickMsg{})
	assert.Equal(t, before, sess.State().TotalWeeks)

	m.ticking = false
	m, cmd = press(t, m, "p")
	assert.False(t, m.paused)
	assert.NotNil(t, cmd)
}

func TestShop(t *testing.T) {
	m, sess := started(t)
	money := sess.State().General.Money

	m, _ = press(t, m, "s")
	require.Equal(t, screenShop, m.screen)
	assert.Contains(t, m.View(), "小卖部")

	m, _ = press(t, m, "1")
	st := sess.State()
	assert.Equal(t, money-10, st.General.Money)
	assert.Equal(t, []string{"coffee"}, st.Inventory)
	assert.Contains(t, m.status, "买了")
	assert.Contains(t, m.View(), "a. 使用")

	m, _ = press(t, m, "a")
	assert.Empty(t, sess.State().Inventory)
	assert.Contains(t, m.status, "使用了")

	m, _ = press(t, m, "esc")
	assert.Equal(t, screenPlaying, m.screen)
}

func TestToggleElective(t *testing.T) {
	m, _ := newTestModel(t)
	for _, sub := range []models.Subject{models.Physics, models.Chemistry, models.Biology, models.History} {
		m.toggleElective(sub)
	}
	assert.Equal(t, []models.Subject{models.Physics, models.Chemistry, models.Biology}, m.electives)

	m.toggleElective(models.Chemistry)
	m.toggleElective(models.History)
	assert.Equal(t, []models.Subject{models.Physics, models.Biology, models.History}, m.electives)
}

func TestMergeAIEvents(t *testing.T) {
	m, sess := started(t)

	stale := sess.Epoch()
	sess.Invalidate()
	m, _ = send(t, m, aiEventsMsg{epoch: stale, events: []models.GameEvent{aievents.Filler()}})
	assert.Nil(t, sess.State().CurrentEvent)

	m.aiInFlight = true
	m, _ = send(t, m, aiEventsMsg{epoch: sess.Epoch(), events: []models.GameEvent{aievents.Filler()}, err: errors.New("timeout")})
	assert.False(t, m.aiInFlight)
	require.NotNil(t, sess.State().CurrentEvent)
	assert.Equal(t, aievents.FillerID, sess.State().CurrentEvent.ID)
	assert.Contains(t, m.View(), "平静的一周")
}

func TestRequestAI(t *testing.T) {
	m, _ := started(t)
	m.opts.AI = aievents.NewSourceWithGenerator(failingGenerator{}, nil)
	m.opts.AIEvery = 3
	m.opts.AITimeout = time.Second

	s := models.GameState{Phase: models.PhaseSemester, Week: 4, TotalWeeks: 10}
	assert.Nil(t, m.requestAI(s))

	s.Week, s.TotalWeeks = 3, 9
	cmd := m.requestAI(s)
	require.NotNil(t, cmd)
	assert.True(t, m.aiInFlight)

	msg, ok := cmd().(aiEventsMsg)
	require.True(t, ok)
	assert.Error(t, msg.err)
	require.Len(t, msg.events, 1)
	assert.Equal(t, aievents.FillerID, msg.events[0].ID)

	m.aiInFlight = false
	assert.Nil(t, m.requestAI(s), "one request per week")

	s.Phase = models.PhaseSummer
	s.TotalWeeks = 12
	assert.Nil(t, m.requestAI(s))
}

func TestConfigMsg(t *testing.T) {
	m, _ := newTestModel(t)
	cfg := &config.Config{}
	cfg.Game.TickInterval = 200 * time.Millisecond
	cfg.AI.Every = 5

	m, _ = send(t, m, ConfigMsg{Config: cfg})
	assert.Equal(t, 200*time.Millisecond, m.tickInterval)
	assert.Equal(t, 5, m.opts.AIEvery)

	m, _ = send(t, m, ConfigMsg{})
	assert.Equal(t, 200*time.Millisecond, m.tickInterval)
}

func TestDigit(t *testing.T) {
	i, ok := digit("3")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = digit("0")
	assert.False(t, ok)
	_, ok = digit("enter")
	assert.False(t, ok)
}

func TestToastExpires(t *testing.T) {
	ctx := context.Background()
	catalog, err := content.Default()
	require.NoError(t, err)
	env := engine.NewEnv(catalog, 1)

	st, err := engine.StartGame(env, engine.Options{Name: "阿杰", Difficulty: models.DifficultyReality})
	require.NoError(t, err)
	st.General.Money = 600
	st.CurrentEvent, st.EventQueue = nil, nil
	data, err := models.EncodeSave(st)
	require.NoError(t, err)
	blobs := models.NewFileStore(t.TempDir())
	require.NoError(t, blobs.Put(ctx, models.SaveKey, data))

	sess := engine.NewSession(env, blobs, nil, "")
	_, err = sess.Load(ctx)
	require.NoError(t, err)

	m := NewModel(Options{Session: sess, Content: catalog})
	m, _ = press(t, m, "c")
	m, cmd := send(t, m, tickMsg{})
	assert.NotNil(t, cmd)
	require.Len(t, sess.State().Notifications, 1)
	assert.Equal(t, "rich", m.toastKey)
	assert.Contains(t, m.View(), "小富翁")

	m, _ = send(t, m, toastExpiredMsg{key: "zen"})
	assert.Len(t, sess.State().Notifications, 1, "a timer for other toasts leaves these up")

	m, _ = send(t, m, toastExpiredMsg{key: "rich"})
	assert.Empty(t, sess.State().Notifications)
	assert.Empty(t, m.toastKey)
	assert.NotContains(t, m.View(), "成就解锁")
}
