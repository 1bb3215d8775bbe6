package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/campus-life/internal/models"
)

func aiEvent(id string) models.GameEvent {
	return models.GameEvent{
		ID:          id,
		Title:       "天降横财",
		Description: "{{.PlayerName}}在操场上捡到一张饭卡。",
		Type:        models.EventAI,
		Choices:     []models.EventChoice{{Text: "交给老师", Effect: models.Effect{General: models.GeneralStats{Luck: 2}}}},
	}
}

func TestSession_NoGame(t *testing.T) {
	sess := NewSession(testEnv(t, 1), nil, nil, "")
	_, err := sess.Tick(context.Background())
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = sess.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrNoSave)
	assert.False(t, sess.MergeExternal(context.Background(), sess.Epoch(), []models.GameEvent{aiEvent("ai_1")}))
}

func TestSession_TickAndBlock(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(testEnv(t, 1), nil, nil, "")
	_, err := sess.NewGame(ctx, Options{Name: "阿杰", Seed: 3})
	require.NoError(t, err)
	assert.True(t, sess.CanTick())

	for i := 0; i < 20 && sess.CanTick(); i++ {
		res, err := sess.Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, res.Pending, sess.Pending())
	}
	require.False(t, sess.CanTick())

	_, err = sess.Tick(ctx)
	assert.ErrorIs(t, err, ErrTickBlocked)

	if sess.Pending() == PendingEvent {
		_, err := sess.Choose(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, PendingEventResult, sess.Pending())
		sess.Confirm(ctx)
		assert.NotEqual(t, PendingEventResult, sess.Pending())
	}

	_, err = sess.SitExam(ctx)
	assert.ErrorIs(t, err, ErrNotExam)
}

func TestSession_MergeExternalEpochs(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(testEnv(t, 1), nil, nil, "")
	_, err := sess.NewGame(ctx, Options{Name: "阿杰"})
	require.NoError(t, err)

	stale := sess.Epoch()
	sess.Invalidate()
	assert.False(t, sess.MergeExternal(ctx, stale, []models.GameEvent{aiEvent("ai_old")}))
	assert.Nil(t, sess.State().CurrentEvent)

	current := sess.Epoch()
	assert.False(t, sess.MergeExternal(ctx, current, nil))
	require.True(t, sess.MergeExternal(ctx, current, []models.GameEvent{aiEvent("ai_new")}))

	st := sess.State()
	require.NotNil(t, st.CurrentEvent)
	assert.Equal(t, "ai_new", st.CurrentEvent.ID)
	assert.Equal(t, "阿杰在操场上捡到一张饭卡。", st.CurrentEvent.Description)

	// A new game invalidates work started against the old one.
	_, err = sess.NewGame(ctx, Options{Name: "小红"})
	require.NoError(t, err)
	assert.False(t, sess.MergeExternal(ctx, current, []models.GameEvent{aiEvent("ai_late")}))
}

func TestSession_Persistence(t *testing.T) {
	ctx := context.Background()
	store := models.NewFileStore(t.TempDir())

	sess := NewSession(testEnv(t, 1), store, nil, "")
	started, err := sess.NewGame(ctx, Options{Name: "阿杰", Difficulty: models.DifficultyHard})
	require.NoError(t, err)
	_, err = sess.Tick(ctx)
	require.NoError(t, err)
	want := sess.State()

	restored := NewSession(testEnv(t, 2), store, nil, "")
	got, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, started.PlayerName, got.PlayerName)
	assert.Equal(t, want.Week, got.Week)
	assert.Equal(t, want.General, got.General)
	assert.Equal(t, models.DifficultyHard, got.Difficulty)

	other := NewSession(testEnv(t, 3), store, nil, "player-2")
	_, err = other.Load(ctx)
	assert.ErrorIs(t, err, models.ErrNoSave)

	require.NoError(t, restored.Discard(ctx))
	_, err = NewSession(testEnv(t, 1), store, nil, "").Load(ctx)
	assert.ErrorIs(t, err, models.ErrNoSave)
}

func TestSession_AchievementsOutliveGames(t *testing.T) {
	ctx := context.Background()
	store := models.NewFileStore(t.TempDir())

	s := newState(models.PhaseSummer, 3)
	s.Difficulty = models.DifficultyReality
	s.General.Money = 600
	data, err := models.EncodeSave(s)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, models.SaveKey, data))

	sess := NewSession(testEnv(t, 1), store, nil, "")
	_, err = sess.Load(ctx)
	require.NoError(t, err)
	res, err := sess.Tick(ctx)
	require.NoError(t, err)
	assert.Contains(t, res.Unlocked, "rich")
	assert.Contains(t, sess.Unlocked(), "rich")

	fresh := NewSession(testEnv(t, 1), store, nil, "")
	require.NoError(t, fresh.LoadAchievements(ctx))
	assert.Equal(t, []string{"rich"}, fresh.Unlocked())

	st, err := fresh.NewGame(ctx, Options{Difficulty: models.DifficultyReality})
	require.NoError(t, err)
	assert.Equal(t, []string{"rich"}, st.Achievements)
}
