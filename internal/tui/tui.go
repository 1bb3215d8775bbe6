package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tatianab/campus-life/internal/aievents"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/leaderboard"
	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
)

type screen int

const (
	screenMenu screen = iota
	screenName
	screenTalents
	screenPlaying
	screenShop
)

const (
	defaultTickInterval = 1500 * time.Millisecond
	boardSize           = 10
)

// Options wires the model to the game. AI and Leaderboard may be nil.
type Options struct {
	Session      *engine.Session
	Content      *content.Catalog
	AI           *aievents.Source
	AIEvery      int
	AICount      int
	AITimeout    time.Duration
	Leaderboard  *leaderboard.Client
	ChallengeID  string
	TickInterval time.Duration
	Difficulty   models.Difficulty
	Competition  models.Competition
	Seed         uint64
	Logger       *zap.Logger
}

type Model struct {
	opts      Options
	log       *zap.Logger
	screen    screen
	textInput textinput.Model
	viewport  viewport.Model
	width     int
	height    int

	// new game setup
	name       string
	cursor     int
	picked     map[string]bool
	difficulty models.Difficulty
	oi         bool

	electives    []models.Subject
	paused       bool
	ticking      bool
	tickInterval time.Duration
	aiInFlight   bool
	aiWeek       int
	uploaded     bool
	toastKey     string
	board        []models.LeaderboardEntry
	boardErr     error
	status       string
}

type tickMsg struct{}

type aiEventsMsg struct {
	epoch  uint64
	events []models.GameEvent
	err    error
}

// toastExpiredMsg clears the toasts identified by key once they have been
// shown for engine.NotificationTTL.
type toastExpiredMsg struct {
	key string
}

type uploadMsg struct {
	err error
}

type boardMsg struct {
	entries []models.LeaderboardEntry
	err     error
}

// ConfigMsg hands a reloaded configuration to a running program.
type ConfigMsg struct {
	Config *config.Config
}

func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.AIEvery <= 0 {
		opts.AIEvery = 3
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 20 * time.Second
	}
	if opts.Difficulty == "" {
		opts.Difficulty = models.DifficultyNormal
	}

	ti := textinput.New()
	ti.Placeholder = "你的名字"
	ti.Focus()
	ti.CharLimit = 16
	ti.Width = 30

	m := Model{
		opts:         opts,
		log:          opts.Logger,
		screen:       screenName,
		textInput:    ti,
		viewport:     viewport.New(80, 16),
		picked:       map[string]bool{},
		difficulty:   opts.Difficulty,
		oi:           opts.Competition == models.CompetitionOI,
		tickInterval: opts.TickInterval,
	}
	if opts.Session.State().Phase != "" {
		m.screen = screenMenu
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.7)
		m.viewport.Height = max(msg.Height-14, 6)
		m.refresh()
		return m, nil

	case tickMsg:
		m.ticking = false
		return m.onTick()

	case aiEventsMsg:
		m.aiInFlight = false
		if msg.err != nil {
			m.log.Warn("ai events unavailable, using filler", zap.Error(msg.err))
		}
		if m.opts.Session.MergeExternal(context.Background(), msg.epoch, msg.events) {
			m.refresh()
		}
		cmd := m.schedule()
		return m, cmd

	case toastExpiredMsg:
		if msg.key != "" && msg.key == toastKey(m.opts.Session.State()) {
			m.opts.Session.ClearNotification()
			m.toastKey = ""
		}
		return m, nil

	case uploadMsg:
		if msg.err != nil {
			m.log.Warn("leaderboard upload failed", zap.Error(msg.err))
			m.status = "成绩上传失败"
		}
		return m, nil

	case boardMsg:
		m.board, m.boardErr = msg.entries, msg.err
		return m, nil

	case ConfigMsg:
		m.applyConfig(msg.Config)
		return m, nil
	}

	if m.screen == screenName {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.screen {
	case screenMenu:
		switch key {
		case "c", "enter":
			m.screen = screenPlaying
			m.refresh()
			cmd := m.afterAction()
			return m, cmd
		case "n":
			m.opts.Session.Invalidate()
			m.screen = screenName
			return m, textinput.Blink
		case "q", "esc":
			return m, tea.Quit
		}

	case screenName:
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.name = strings.TrimSpace(m.textInput.Value())
			m.screen = screenTalents
			m.cursor = 0
			m.status = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	case screenTalents:
		return m.talentKey(key)

	case screenShop:
		return m.shopKey(key)

	case screenPlaying:
		return m.playKey(key)
	}
	return m, nil
}

func (m Model) talentKey(key string) (tea.Model, tea.Cmd) {
	talents := m.opts.Content.Talents
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(talents)-1 {
			m.cursor++
		}
	case " ", "space", "x":
		if len(talents) == 0 {
			break
		}
		t := talents[m.cursor]
		if m.picked[t.ID] {
			delete(m.picked, t.ID)
			m.status = ""
			break
		}
		if m.spent()+t.Cost > engine.TalentBudget {
			m.status = "天赋点不足"
			break
		}
		m.picked[t.ID] = true
		m.status = ""
	case "d":
		m.difficulty = nextDifficulty(m.difficulty)
	case "o":
		m.oi = !m.oi
	case "esc":
		m.screen = screenName
	case "enter":
		return m.startGame()
	}
	return m, nil
}

func (m Model) startGame() (tea.Model, tea.Cmd) {
	opts := engine.Options{
		Name:       m.name,
		Talents:    m.pickedTalents(),
		Difficulty: m.difficulty,
		Seed:       m.opts.Seed,
	}
	if m.oi {
		opts.Competition = models.CompetitionOI
	}
	if _, err := m.opts.Session.NewGame(context.Background(), opts); err != nil {
		m.status = err.Error()
		return m, nil
	}

	m.screen = screenPlaying
	m.status = ""
	m.paused = false
	m.uploaded = false
	m.board, m.boardErr = nil, nil
	m.aiWeek = 0
	m.electives = nil
	m.refresh()
	cmd := m.afterAction()
	return m, cmd
}

func (m Model) playKey(key string) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	sess := m.opts.Session
	if key == "q" || key == "esc" {
		return m, tea.Quit
	}

	state := sess.State()
	m.status = ""
	switch engine.PendingOf(&state) {
	case engine.PendingNone:
		switch key {
		case "p", " ", "space":
			m.paused = !m.paused
		case "s":
			m.screen = screenShop
			return m, nil
		}

	case engine.PendingEvent:
		if i, ok := digit(key); ok {
			if _, err := sess.Choose(ctx, i); err != nil {
				m.status = err.Error()
			}
		}

	case engine.PendingEventResult:
		if key == "enter" {
			sess.Confirm(ctx)
		}

	case engine.PendingWeekend:
		if key == "enter" {
			sess.EndWeekend(ctx)
			break
		}
		if key == "s" {
			m.screen = screenShop
			return m, nil
		}
		if i, ok := digit(key); ok {
			acts := availableActivities(m.opts.Content, &state)
			if i < len(acts) {
				msg, err := sess.Weekend(ctx, acts[i].ID)
				if err != nil {
					m.status = err.Error()
				} else {
					m.status = msg
				}
			}
		}

	case engine.PendingClubSelection:
		if key == "x" {
			sess.DeclineClub(ctx)
			break
		}
		if i, ok := digit(key); ok && i < len(m.opts.Content.Clubs) {
			if err := sess.JoinClub(ctx, m.opts.Content.Clubs[i].ID); err != nil {
				m.status = err.Error()
			}
		}

	case engine.PendingSubjectSelection:
		if key == "enter" {
			if err := sess.SelectSubjects(ctx, m.electives); err != nil {
				m.status = err.Error()
			} else {
				m.electives = nil
			}
			break
		}
		if i, ok := digit(key); ok && i < len(models.ElectiveSubjects) {
			m.toggleElective(models.ElectiveSubjects[i])
		}

	case engine.PendingExam:
		if key == "enter" {
			if _, err := sess.SitExam(ctx); err != nil {
				m.status = err.Error()
			}
		}

	case engine.PendingExamResult:
		if key == "enter" {
			sess.DismissExamResult(ctx)
		}

	case engine.PendingEnding:
		if key == "n" {
			sess.Invalidate()
			m.textInput.Reset()
			m.screen = screenName
			return m, textinput.Blink
		}
	}

	m.refresh()
	cmd := m.afterAction()
	return m, cmd
}

func (m Model) shopKey(key string) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch key {
	case "esc", "s", "q":
		m.screen = screenPlaying
		m.refresh()
		cmd := m.afterAction()
		return m, cmd
	}

	var err error
	switch {
	case isDigitKey(key):
		i, _ := digit(key)
		if i >= len(m.opts.Content.Items) {
			return m, nil
		}
		err = m.opts.Session.BuyItem(ctx, m.opts.Content.Items[i].ID)
	case len(key) == 1 && key[0] >= 'a' && key[0] <= 'z':
		state := m.opts.Session.State()
		usable := usableItems(m.opts.Content, &state)
		i := int(key[0] - 'a')
		if i >= len(usable) {
			return m, nil
		}
		err = m.opts.Session.UseItem(ctx, usable[i].ID)
	default:
		return m, nil
	}

	if err != nil {
		m.status = err.Error()
	} else {
		m.status = lastLog(m.opts.Session.State())
	}
	m.refresh()
	return m, nil
}

func (m Model) onTick() (tea.Model, tea.Cmd) {
	if m.screen != screenPlaying || m.paused {
		return m, nil
	}
	res, err := m.opts.Session.Tick(context.Background())
	if err != nil {
		if !errors.Is(err, engine.ErrTickBlocked) {
			m.log.Warn("tick failed", zap.Error(err))
		}
		m.refresh()
		cmd := m.afterAction()
		return m, cmd
	}
	m.refresh()
	cmd := tea.Batch(m.afterAction(), m.requestAI(res.State))
	return m, cmd
}

// afterAction keeps the scheduler running, arms the toast timer and uploads a
// finished game once.
func (m *Model) afterAction() tea.Cmd {
	var cmds []tea.Cmd
	if m.screen == screenPlaying && m.opts.Session.Pending() == engine.PendingEnding && !m.uploaded {
		m.uploaded = true
		cmds = append(cmds, m.upload())
	}
	if key := toastKey(m.opts.Session.State()); key != "" && key != m.toastKey {
		m.toastKey = key
		cmds = append(cmds, tea.Tick(engine.NotificationTTL, func(time.Time) tea.Msg {
			return toastExpiredMsg{key: key}
		}))
	}
	cmds = append(cmds, m.schedule())
	return tea.Batch(cmds...)
}

// schedule arms the next tick. At most one tick is ever in flight.
func (m *Model) schedule() tea.Cmd {
	if m.ticking || m.paused || m.screen != screenPlaying || !m.opts.Session.CanTick() {
		return nil
	}
	m.ticking = true
	return tea.Tick(m.tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) requestAI(s models.GameState) tea.Cmd {
	if m.opts.AI == nil || m.aiInFlight || s.Phase != models.PhaseSemester {
		return nil
	}
	if s.Week == 0 || s.Week%m.opts.AIEvery != 0 || s.TotalWeeks == m.aiWeek {
		return nil
	}
	m.aiInFlight = true
	m.aiWeek = s.TotalWeeks

	src, timeout := m.opts.AI, m.opts.AITimeout
	epoch := m.opts.Session.Epoch()
	sum := aievents.SummaryOf(s)
	sum.Count = m.opts.AICount
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		events, err := src.Generate(ctx, sum)
		return aiEventsMsg{epoch: epoch, events: events, err: err}
	}
}

func (m *Model) upload() tea.Cmd {
	client := m.opts.Leaderboard
	if !client.Enabled() {
		return nil
	}
	entry := leaderboard.EntryFor(m.opts.Session.State(), m.opts.ChallengeID)
	challenge := m.opts.ChallengeID
	return tea.Sequence(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return uploadMsg{err: client.Submit(ctx, entry)}
		},
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			entries, err := client.Top(ctx, challenge, boardSize)
			return boardMsg{entries: entries, err: err}
		},
	)
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.Game.TickInterval > 0 {
		m.tickInterval = cfg.Game.TickInterval
	}
	if cfg.AI.Every > 0 {
		m.opts.AIEvery = cfg.AI.Every
	}
	m.log.Info("config reloaded", zap.Duration("tick_interval", m.tickInterval), zap.Int("ai_every", m.opts.AIEvery))
}

func (m *Model) toggleElective(sub models.Subject) {
	if i := slices.Index(m.electives, sub); i >= 0 {
		m.electives = slices.Delete(m.electives, i, i+1)
		return
	}
	if len(m.electives) < 3 {
		m.electives = append(m.electives, sub)
	}
}

func (m Model) spent() int {
	total := 0
	for _, t := range m.opts.Content.Talents {
		if m.picked[t.ID] {
			total += t.Cost
		}
	}
	return total
}

// pickedTalents lists the selected talents in catalog order.
func (m Model) pickedTalents() []string {
	var ids []string
	for _, t := range m.opts.Content.Talents {
		if m.picked[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func nextDifficulty(d models.Difficulty) models.Difficulty {
	switch d {
	case models.DifficultyNormal:
		return models.DifficultyHard
	case models.DifficultyHard:
		return models.DifficultyReality
	}
	return models.DifficultyNormal
}

func availableActivities(c *content.Catalog, s *models.GameState) []models.WeekendActivity {
	var out []models.WeekendActivity
	for _, a := range c.Activities {
		if a.Condition.Eval(s) {
			out = append(out, a)
		}
	}
	return out
}

// usableItems lists owned consumables, once each.
func usableItems(c *content.Catalog, s *models.GameState) []models.Item {
	var out []models.Item
	for _, it := range c.Items {
		if it.Consumable && s.HasItem(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

func isDigitKey(key string) bool {
	return len(key) == 1 && key[0] >= '1' && key[0] <= '9'
}

// digit maps "1".."9" to a zero-based index.
func digit(key string) (int, bool) {
	if !isDigitKey(key) {
		return 0, false
	}
	return int(key[0] - '1'), true
}

// toastKey identifies the toasts currently on screen.
func toastKey(s models.GameState) string {
	ids := make([]string, 0, len(s.Notifications))
	for _, n := range s.Notifications {
		ids = append(ids, n.AchievementID)
	}
	return strings.Join(ids, ",")
}

func lastLog(s models.GameState) string {
	if len(s.Log) == 0 {
		return ""
	}
	return s.Log[len(s.Log)-1]
}

// NewProgram builds the full-screen program for opts.
func NewProgram(opts Options) *tea.Program {
	return tea.NewProgram(NewModel(opts), tea.WithAltScreen())
}
