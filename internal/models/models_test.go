package models

import (
	"context"
	"errors"
	"testing"
)

func sampleState() GameState {
	return GameState{
		PlayerName: "小明",
		Phase:      PhaseSemester,
		Week:       5,
		IsPlaying:  true,
		Difficulty: DifficultyReality,
		General:    GeneralStats{Mindset: 60, Health: 80, Money: -12},
		Subjects: map[Subject]SubjectStats{
			Math: {Aptitude: 55, Level: 20},
		},
		Statuses: []GameStatus{{ID: "focused", Name: "专注", Type: StatusBuff, Duration: 2}},
		EventQueue: []GameEvent{{
			ID:    "sem_sick",
			Title: "感冒",
			Choices: []EventChoice{
				{Text: "去医务室", Effect: Effect{General: GeneralStats{Health: 5}}},
			},
		}},
		TriggeredEvents: []string{"military_song"},
		Notifications:   []Notification{{AchievementID: "rich"}},
	}
}

func TestSaveRoundTrip(t *testing.T) {
	state := sampleState()

	data, err := EncodeSave(state)
	if err != nil {
		t.Fatalf("Failed to encode save: %v", err)
	}

	loaded, err := DecodeSave(data)
	if err != nil {
		t.Fatalf("Failed to decode save: %v", err)
	}

	if loaded.General.Money != -12 {
		t.Errorf("Expected money -12, got %v", loaded.General.Money)
	}
	if len(loaded.EventQueue) != 1 || loaded.EventQueue[0].Choices[0].Effect.General.Health != 5 {
		t.Errorf("Expected queued event effect to survive, got %+v", loaded.EventQueue)
	}
	if loaded.Notifications != nil {
		t.Errorf("Expected transient notifications to be dropped, got %+v", loaded.Notifications)
	}
}

func TestDecodeLegacySave(t *testing.T) {
	legacy := []byte(`
player_name: 老玩家
phase: SUMMER
week: 3
general:
  mindset: 50
  money: 20
`)

	loaded, err := DecodeSave(legacy)
	if err != nil {
		t.Fatalf("Failed to decode legacy save: %v", err)
	}
	if loaded.Phase != PhaseSummer || loaded.Week != 3 {
		t.Errorf("Expected SUMMER week 3, got %s week %d", loaded.Phase, loaded.Week)
	}
	if loaded.General.Money != 20 {
		t.Errorf("Expected money 20, got %v", loaded.General.Money)
	}
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	if _, err := DecodeSave([]byte("version: 99\nstate: {}\n")); err == nil {
		t.Fatal("Expected an error for a newer save version")
	}
}

func TestCloneIsDeep(t *testing.T) {
	state := sampleState()
	clone := state.Clone()

	clone.Subjects[Math] = SubjectStats{Level: 99}
	clone.EventQueue[0].Choices[0].Text = "changed"
	clone.Statuses[0].Duration = 0

	if state.Subjects[Math].Level != 20 {
		t.Errorf("Clone shares the subjects map")
	}
	if state.EventQueue[0].Choices[0].Text != "去医务室" {
		t.Errorf("Clone shares event choices")
	}
	if state.Statuses[0].Duration != 2 {
		t.Errorf("Clone shares statuses")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	if _, err := store.Get(ctx, SaveKey); !errors.Is(err, ErrNoSave) {
		t.Fatalf("Expected ErrNoSave, got %v", err)
	}

	if err := store.Put(ctx, SaveKey, []byte("version: 1\n")); err != nil {
		t.Fatalf("Failed to put blob: %v", err)
	}
	data, err := store.Get(ctx, SaveKey)
	if err != nil {
		t.Fatalf("Failed to get blob: %v", err)
	}
	if string(data) != "version: 1\n" {
		t.Errorf("Expected stored blob back, got %q", data)
	}

	if err := store.Delete(ctx, SaveKey); err != nil {
		t.Fatalf("Failed to delete blob: %v", err)
	}
	if err := store.Delete(ctx, SaveKey); err != nil {
		t.Errorf("Deleting a missing blob should be a no-op, got %v", err)
	}
}

func TestConditionEval(t *testing.T) {
	state := sampleState()
	yes := true

	cond := &Condition{
		Stats:       []StatCheck{{Stat: "money", Op: "<", Value: 0}, {Stat: "subject.math", Op: ">=", Value: 20}},
		HasStatus:   "focused",
		LacksStatus: "debt",
	}
	if !cond.Eval(&state) {
		t.Errorf("Expected condition to hold")
	}

	partner := &Condition{HasPartner: &yes}
	if partner.Eval(&state) {
		t.Errorf("Expected partner condition to fail without a partner")
	}

	var none *Condition
	if !none.Eval(&state) {
		t.Errorf("Expected nil condition to hold")
	}
}
