package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tatianab/campus-life/internal/models"
)

var (
	ErrNoEvent       = errors.New("no event to resolve")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrResultPending = errors.New("event result awaiting confirmation")
)

// ResolveChoice applies choice index of the current event and stores the
// result for confirmation.
func ResolveChoice(s models.GameState, env *Env, index int) (models.GameState, models.EventResult, error) {
	if s.CurrentEvent == nil {
		return s, models.EventResult{}, ErrNoEvent
	}
	if s.EventResult != nil {
		return s, models.EventResult{}, ErrResultPending
	}
	if index < 0 || index >= len(s.CurrentEvent.Choices) {
		return s, models.EventResult{}, fmt.Errorf("%w: %d", ErrInvalidChoice, index)
	}

	s = s.Clone()
	ev := s.CurrentEvent
	choice := ev.Choices[index]

	before := s.General
	msg := ApplyEffect(&s, env, choice.Effect)
	deltas := DiffGeneral(before, s.General)
	summary := FormatDiff(deltas)

	result := models.EventResult{
		EventID:     ev.ID,
		Title:       ev.Title,
		Choice:      choice.Text,
		Message:     msg,
		Summary:     summary,
		Deltas:      deltas,
		NextEventID: choice.NextEventID,
	}
	if choice.ChainedEvent != nil {
		chained := choice.ChainedEvent.Clone()
		result.Chained = &chained
	}

	s.History = append(s.History, models.HistoryEntry{
		Phase:   s.Phase,
		Week:    s.Week,
		EventID: ev.ID,
		Event:   ev.Title,
		Choice:  choice.Text,
		Summary: summary,
	})
	if msg != "" {
		s.Log = append(s.Log, fmt.Sprintf("【%s】%s", ev.Title, msg))
	}

	stored := result
	stored.Deltas = append([]models.StatDelta(nil), deltas...)
	s.EventResult = &stored
	return s, result, nil
}

// ResolveConfirm acknowledges the pending result. A chained event becomes
// current; otherwise the next queued event is presented, or the screen is
// cleared so the tick can resume. Without a pending result it is a no-op.
func ResolveConfirm(s models.GameState, env *Env) models.GameState {
	if s.EventResult == nil {
		return s
	}
	s = s.Clone()
	result := s.EventResult
	s.EventResult = nil
	s.CurrentEvent = nil

	switch {
	case result.NextEventID != "":
		if ev, ok := env.Content.Event(result.NextEventID); ok {
			present(&s, ev)
			return s
		}
		s.Log = append(s.Log, "后续剧情暂时没有下文。")
	case result.Chained != nil:
		present(&s, result.Chained.Clone())
		return s
	}

	promoteNext(&s)
	return s
}

// DiffGeneral lists the general stats whose change is at least 1 in either
// direction.
func DiffGeneral(before, after models.GeneralStats) []models.StatDelta {
	var out []models.StatDelta
	for _, name := range models.GeneralStatNames {
		b, _ := before.Get(name)
		a, _ := after.Get(name)
		d := a - b
		if math.Abs(d) < 1 {
			continue
		}
		out = append(out, models.StatDelta{
			Stat:  name,
			Name:  models.StatDisplayName(name),
			Delta: d,
		})
	}
	return out
}

// FormatDiff renders deltas as "心态 +3，金钱 -20".
func FormatDiff(deltas []models.StatDelta) string {
	if len(deltas) == 0 {
		return "无明显变化"
	}
	parts := make([]string, len(deltas))
	for i, d := range deltas {
		parts[i] = fmt.Sprintf("%s %+d", d.Name, int(math.Round(d.Delta)))
	}
	return strings.Join(parts, "，")
}
