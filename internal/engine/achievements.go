package engine

import (
	"time"

	"github.com/tatianab/campus-life/internal/models"
)

// NotificationTTL is how long unlock toasts stay up.
const NotificationTTL = 3 * time.Second

// CheckAndUnlock unlocks achievement id. Outside REALITY difficulty, or when
// the id is already unlocked or unknown, the state is returned untouched.
func CheckAndUnlock(s models.GameState, env *Env, id string) (models.GameState, bool) {
	if !unlockable(&s, env, id) {
		return s, false
	}
	s = s.Clone()
	unlock(&s, env, id)
	return s, true
}

func unlockable(s *models.GameState, env *Env, id string) bool {
	if s.Difficulty != models.DifficultyReality || s.HasAchievement(id) {
		return false
	}
	_, ok := env.Content.Achievement(id)
	return ok
}

func unlock(s *models.GameState, env *Env, id string) bool {
	if !unlockable(s, env, id) {
		return false
	}
	a, _ := env.Content.Achievement(id)
	s.Achievements = append(s.Achievements, id)
	s.Notifications = append(s.Notifications, models.Notification{
		AchievementID: a.ID,
		Name:          a.Name,
		Description:   a.Description,
	})
	return true
}

// scanAchievements unlocks every condition-bearing achievement whose
// condition holds for s.
func scanAchievements(s *models.GameState, env *Env) []string {
	if s.Difficulty != models.DifficultyReality {
		return nil
	}
	var unlocked []string
	for _, a := range env.Content.Achievements {
		if a.Condition == nil || s.HasAchievement(a.ID) {
			continue
		}
		if a.Condition.Eval(s) && unlock(s, env, a.ID) {
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}

// ClearNotification drops the transient unlock toasts.
func ClearNotification(s models.GameState) models.GameState {
	if len(s.Notifications) == 0 {
		return s
	}
	s = s.Clone()
	s.Notifications = nil
	return s
}
