package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tatianab/campus-life/internal/models"
)

// TalentBudget is the number of points a new character may spend on talents.
const TalentBudget = 10

var (
	ErrTalentBudget     = errors.New("talent budget exceeded")
	ErrUnknownTalent    = errors.New("unknown talent")
	ErrInvalidElectives = errors.New("choose three different elective subjects")
	ErrNotSelecting     = errors.New("subject selection is not open")
	ErrUnknownClub      = errors.New("unknown club")
	ErrNoClubOffer      = errors.New("club selection is not open")
	ErrUnknownItem      = errors.New("unknown item")
	ErrNotEnoughMoney   = errors.New("not enough money")
	ErrAlreadyOwned     = errors.New("item already owned")
	ErrItemNotOwned     = errors.New("item not in inventory")
	ErrNotConsumable    = errors.New("item cannot be used")
)

// Options configure a new playthrough. A non-zero Seed makes the session
// reseed its random source.
type Options struct {
	Name        string             `json:"name"`
	Talents     []string           `json:"talents"`
	Competition models.Competition `json:"competition"`
	Difficulty  models.Difficulty  `json:"difficulty"`
	Seed        uint64             `json:"seed"`
}

// InitialStats are the general stats of a new character before talents.
var InitialStats = models.GeneralStats{
	Mindset:    60,
	Experience: 10,
	Luck:       50,
	Romance:    10,
	Health:     80,
	Money:      50,
	Efficiency: 10,
}

// StartGame rolls a new character and opens the summer break.
func StartGame(env *Env, opts Options) (models.GameState, error) {
	spent := 0
	for i, id := range opts.Talents {
		t, ok := env.Content.Talent(id)
		if !ok {
			return models.GameState{}, fmt.Errorf("%w: %s", ErrUnknownTalent, id)
		}
		if slices.Contains(opts.Talents[:i], id) {
			return models.GameState{}, fmt.Errorf("%w: %s picked twice", ErrUnknownTalent, id)
		}
		spent += t.Cost
	}
	if spent > TalentBudget {
		return models.GameState{}, fmt.Errorf("%w: %d of %d", ErrTalentBudget, spent, TalentBudget)
	}

	name := opts.Name
	if name == "" {
		name = "新同学"
	}
	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyNormal
	}

	s := models.GameState{
		PlayerName:  name,
		Phase:       models.PhaseSummer,
		Week:        1,
		IsPlaying:   true,
		Difficulty:  difficulty,
		Competition: opts.Competition,
		General:     InitialStats,
		Subjects:    make(map[models.Subject]models.SubjectStats, len(models.AllSubjects)),
		ExamsTaken:  make(map[models.Phase]bool),
	}
	for _, sub := range models.AllSubjects {
		s.Subjects[sub] = models.SubjectStats{
			Aptitude: env.uniform(20, 80),
			Level:    env.uniform(5, 15),
		}
	}
	if s.IsOI() {
		s.OI = models.UniformOI(5)
	}

	for _, id := range opts.Talents {
		t, _ := env.Content.Talent(id)
		ApplyEffect(&s, env, t.Effect)
		s.Talents = append(s.Talents, id)
	}
	s.Baseline = s.General
	s.Log = append(s.Log, fmt.Sprintf("%s，欢迎来到高中。暑假开始了。", name))
	return s, nil
}

// SelectSubjects records the three electives and leaves the selection phase.
func SelectSubjects(s models.GameState, electives []models.Subject) (models.GameState, error) {
	if !s.Phase.IsSelection() {
		return s, ErrNotSelecting
	}
	if len(electives) != 3 {
		return s, ErrInvalidElectives
	}
	for i, sub := range electives {
		if !slices.Contains(models.ElectiveSubjects, sub) || slices.Contains(electives[:i], sub) {
			return s, fmt.Errorf("%w: %s", ErrInvalidElectives, sub)
		}
	}

	s = s.Clone()
	s.Electives = slices.Clone(electives)
	names := make([]string, len(electives))
	for i, sub := range electives {
		names[i] = sub.DisplayName()
	}
	if s.Phase == models.PhaseSelection {
		s.Phase = models.PhasePlacement
		s.Log = append(s.Log, fmt.Sprintf("选科：%v。分班考试即将开始。", names))
	} else {
		s.Phase = models.PhaseSemester
		s.Log = append(s.Log, fmt.Sprintf("重新选科：%v。", names))
	}
	return s, nil
}

// JoinClub answers the club offer.
func JoinClub(s models.GameState, env *Env, id string) (models.GameState, error) {
	if !s.ClubPending {
		return s, ErrNoClubOffer
	}
	club, ok := env.Content.Club(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownClub, id)
	}
	s = s.Clone()
	s.Club = club.ID
	s.ClubPending = false
	s.Log = append(s.Log, "你加入了"+club.Name+"。")
	return s, nil
}

// DeclineClub turns the club offer down.
func DeclineClub(s models.GameState) models.GameState {
	if !s.ClubPending {
		return s
	}
	s = s.Clone()
	s.ClubPending = false
	s.Log = append(s.Log, "你决定不参加社团。")
	return s
}

// BuyItem pays for an item. Non-consumable items take effect on purchase.
func BuyItem(s models.GameState, env *Env, id string) (models.GameState, error) {
	item, ok := env.Content.Item(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if !item.Consumable && s.HasItem(id) {
		return s, fmt.Errorf("%w: %s", ErrAlreadyOwned, id)
	}
	if s.General.Money < item.Price {
		return s, fmt.Errorf("%w: %s costs %.0f", ErrNotEnoughMoney, item.Name, item.Price)
	}

	s = s.Clone()
	s.General.Money -= item.Price
	s.Inventory = append(s.Inventory, id)
	if !item.Consumable {
		ApplyEffect(&s, env, item.Effect)
	}
	s.Log = append(s.Log, fmt.Sprintf("买了%s，花费 %.0f 元。", item.Name, item.Price))
	return s, nil
}

// UseItem consumes one owned item.
func UseItem(s models.GameState, env *Env, id string) (models.GameState, error) {
	item, ok := env.Content.Item(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	idx := slices.Index(s.Inventory, id)
	if idx < 0 {
		return s, fmt.Errorf("%w: %s", ErrItemNotOwned, id)
	}
	if !item.Consumable {
		return s, fmt.Errorf("%w: %s", ErrNotConsumable, id)
	}

	s = s.Clone()
	s.Inventory = slices.Delete(s.Inventory, idx, idx+1)
	msg := ApplyEffect(&s, env, item.Effect)
	if msg == "" {
		msg = item.Description
	}
	s.Log = append(s.Log, fmt.Sprintf("使用了%s：%s", item.Name, msg))
	return s, nil
}
