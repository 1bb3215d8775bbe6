package engine

import "github.com/tatianab/campus-life/internal/models"

// SelectEligible filters static events down to those that may be drawn at
// random: not FIXED, not a once-event that already fired, and with a
// condition that holds (or none).
func SelectEligible(events []models.GameEvent, s *models.GameState) []models.GameEvent {
	var out []models.GameEvent
	for _, ev := range events {
		if ev.TriggerType == models.TriggerFixed {
			continue
		}
		if ev.Once && s.HasTriggered(ev.ID) {
			continue
		}
		if !ev.Condition.Eval(s) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// PickOne draws one event uniformly.
func PickOne(events []models.GameEvent, r Rand) (models.GameEvent, bool) {
	if len(events) == 0 {
		return models.GameEvent{}, false
	}
	return events[r.IntN(len(events))].Clone(), true
}

// FixedFor returns the FIXED events scheduled for week of phase. An event
// without a FixedPhase matches the phase it is listed under.
func FixedFor(events []models.GameEvent, phase models.Phase, week int) []models.GameEvent {
	var out []models.GameEvent
	for _, ev := range events {
		if ev.TriggerType != models.TriggerFixed || ev.FixedWeek != week {
			continue
		}
		if ev.FixedPhase != "" && ev.FixedPhase != phase {
			continue
		}
		out = append(out, ev.Clone())
	}
	return out
}
