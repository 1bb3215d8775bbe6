package engine

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
)

var (
	ErrTickBlocked = errors.New("tick blocked by a pending interaction")
	ErrNotExam     = errors.New("no exam to sit")
	ErrNoGame      = errors.New("no game in progress")
)

// Session owns the GameState of one player. Ticks and intents are serialized
// behind its mutex, every change is saved to the blob store, and results of
// asynchronous work are only merged when their epoch is still current.
type Session struct {
	mu     sync.Mutex
	env    *Env
	state  models.GameState
	epoch  uint64
	store  models.BlobStore
	logger *zap.Logger

	saveKey        string
	achievementKey string
	unlocked       []string
}

// NewSession creates a session. A nil store disables persistence; namespace
// separates the keys of sessions that share one store.
func NewSession(env *Env, store models.BlobStore, logger *zap.Logger, namespace string) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	saveKey, achievementKey := models.KeysFor(namespace)
	return &Session{
		env:            env,
		store:          store,
		logger:         logger,
		saveKey:        saveKey,
		achievementKey: achievementKey,
	}
}

// State returns a copy of the current state.
func (s *Session) State() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Epoch identifies the current game and view. Asynchronous work captures it
// before starting and hands it back to MergeExternal.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Invalidate discards every in-flight asynchronous result.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// Pending reports what the current state is waiting on.
func (s *Session) Pending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PendingOf(&s.state)
}

func (s *Session) CanTick() bool {
	return s.Pending() == PendingNone
}

// Unlocked returns every achievement unlocked across playthroughs.
func (s *Session) Unlocked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.unlocked)
}

// LoadAchievements reads the persisted achievement set.
func (s *Session) LoadAchievements(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := s.store.Get(ctx, s.achievementKey)
	if errors.Is(err, models.ErrNoSave) {
		return nil
	}
	if err != nil {
		return err
	}
	ids, err := models.DecodeAchievements(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = ids
	return nil
}

// NewGame starts a fresh playthrough, replacing any current one.
func (s *Session) NewGame(ctx context.Context, opts Options) (models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.Seed != 0 {
		s.env = NewEnv(s.env.Content, opts.Seed)
	}
	state, err := StartGame(s.env, opts)
	if err != nil {
		return models.GameState{}, err
	}
	state.Achievements = slices.Clone(s.unlocked)
	s.epoch++
	s.state = state
	s.save(ctx)
	s.logger.Info("new game",
		zap.String("player", state.PlayerName),
		zap.String("difficulty", string(state.Difficulty)),
		zap.String("competition", string(state.Competition)),
		zap.Strings("talents", state.Talents),
	)
	return state.Clone(), nil
}

// Load restores the saved playthrough.
func (s *Session) Load(ctx context.Context) (models.GameState, error) {
	if s.store == nil {
		return models.GameState{}, models.ErrNoSave
	}
	data, err := s.store.Get(ctx, s.saveKey)
	if err != nil {
		return models.GameState{}, err
	}
	state, err := models.DecodeSave(data)
	if err != nil {
		s.logger.Warn("unreadable save", zap.Error(err))
		return models.GameState{}, models.ErrNoSave
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.state = *state
	s.logger.Info("game loaded",
		zap.String("player", state.PlayerName),
		zap.String("phase", string(state.Phase)),
		zap.Int("week", state.Week),
	)
	return s.state.Clone(), nil
}

// Discard drops the current playthrough and its save.
func (s *Session) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.state = models.GameState{}
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, s.saveKey)
}

// Tick advances one week when nothing is pending.
func (s *Session) Tick(ctx context.Context) (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == "" {
		return TickResult{}, ErrNoGame
	}
	if p := PendingOf(&s.state); p != PendingNone {
		return TickResult{State: s.state.Clone(), Pending: p}, ErrTickBlocked
	}

	res := AdvanceWeek(s.state, s.env)
	s.commit(ctx, res.State)
	if res.DebtCollected {
		s.logger.Debug("debt collection queued", zap.Float64("money", res.State.General.Money))
	}
	if res.State.Phase == models.PhaseWithdrawal {
		s.logger.Info("player withdrew", zap.Int("total_weeks", res.State.TotalWeeks))
	}
	res.State = res.State.Clone()
	return res, nil
}

// Choose resolves a choice of the current event.
func (s *Session) Choose(ctx context.Context, index int) (models.EventResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, result, err := ResolveChoice(s.state, s.env, index)
	if err != nil {
		return result, err
	}
	s.commit(ctx, next)
	return result, nil
}

// Confirm acknowledges the pending event result.
func (s *Session) Confirm(ctx context.Context) models.GameState {
	return s.apply(ctx, func(st models.GameState) models.GameState {
		return ResolveConfirm(st, s.env)
	})
}

// SitExam scores and resolves the exam of the current phase.
func (s *Session) SitExam(ctx context.Context) (models.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Phase.IsExam() || s.state.ExamResult != nil {
		return models.ExamResult{}, ErrNotExam
	}
	result := ScoreExam(s.state, s.env)
	next := ResolveExam(s.state, s.env, result)
	s.commit(ctx, next)
	s.logger.Info("exam resolved",
		zap.String("kind", string(result.Kind)),
		zap.Int("total", result.Total),
		zap.Int("max", result.Max),
		zap.Int("rank", next.ExamResult.Rank),
		zap.String("award", next.ExamResult.Award),
	)
	return *next.ExamResult, nil
}

func (s *Session) DismissExamResult(ctx context.Context) models.GameState {
	return s.apply(ctx, DismissExamResult)
}

func (s *Session) ClearNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = ClearNotification(s.state)
}

// Weekend runs one weekend activity and returns its message.
func (s *Session) Weekend(ctx context.Context, activity string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, msg, err := DoWeekendActivity(s.state, s.env, activity)
	if err != nil {
		return "", err
	}
	s.commit(ctx, next)
	return msg, nil
}

func (s *Session) EndWeekend(ctx context.Context) models.GameState {
	return s.apply(ctx, EndWeekend)
}

func (s *Session) SelectSubjects(ctx context.Context, electives []models.Subject) error {
	return s.applyErr(ctx, func(st models.GameState) (models.GameState, error) {
		return SelectSubjects(st, electives)
	})
}

func (s *Session) JoinClub(ctx context.Context, id string) error {
	return s.applyErr(ctx, func(st models.GameState) (models.GameState, error) {
		return JoinClub(st, s.env, id)
	})
}

func (s *Session) DeclineClub(ctx context.Context) models.GameState {
	return s.apply(ctx, DeclineClub)
}

func (s *Session) BuyItem(ctx context.Context, id string) error {
	return s.applyErr(ctx, func(st models.GameState) (models.GameState, error) {
		return BuyItem(st, s.env, id)
	})
}

func (s *Session) UseItem(ctx context.Context, id string) error {
	return s.applyErr(ctx, func(st models.GameState) (models.GameState, error) {
		return UseItem(st, s.env, id)
	})
}

// MergeExternal queues events produced by asynchronous work started at epoch.
// Results from an older epoch, or arriving after the game ended, are dropped.
func (s *Session) MergeExternal(ctx context.Context, epoch uint64, events []models.GameEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.logger.Debug("discarding stale result", zap.Uint64("epoch", epoch), zap.Uint64("current", s.epoch))
		return false
	}
	if s.state.Phase == "" || s.state.Phase.IsTerminal() || len(events) == 0 {
		return false
	}

	next := s.state.Clone()
	for _, ev := range events {
		enqueue(&next, ev.Clone())
	}
	promoteNext(&next)
	s.commit(ctx, next)
	return true
}

func (s *Session) apply(ctx context.Context, fn func(models.GameState) models.GameState) models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, fn(s.state))
	return s.state.Clone()
}

func (s *Session) applyErr(ctx context.Context, fn func(models.GameState) (models.GameState, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.state)
	if err != nil {
		return err
	}
	s.commit(ctx, next)
	return nil
}

// commit installs next, persisting it and any newly unlocked achievements.
// Must be called with mu held.
func (s *Session) commit(ctx context.Context, next models.GameState) {
	s.state = next
	s.save(ctx)

	var fresh []string
	for _, id := range next.Achievements {
		if !slices.Contains(s.unlocked, id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return
	}
	s.unlocked = append(s.unlocked, fresh...)
	s.logger.Info("achievements unlocked", zap.Strings("ids", fresh))
	if s.store == nil {
		return
	}
	data, err := models.EncodeAchievements(s.unlocked)
	if err == nil {
		err = s.store.Put(ctx, s.achievementKey, data)
	}
	if err != nil {
		s.logger.Error("failed to save achievements", zap.Error(err))
	}
}

func (s *Session) save(ctx context.Context) {
	if s.store == nil {
		return
	}
	data, err := models.EncodeSave(s.state)
	if err == nil {
		err = s.store.Put(ctx, s.saveKey, data)
	}
	if err != nil {
		s.logger.Error("failed to save game", zap.Error(err))
	}
}
