package engine

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/tatianab/campus-life/internal/models"
)

// Describe renders an event description against the state. Descriptions
// without template actions, or that fail to parse or execute, come back as
// written.
func Describe(text string, s *models.GameState) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New("event").Option("missingkey=zero").Parse(text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return text
	}
	return buf.String()
}

// present makes ev the current event, rendering its description and
// recording it on the triggered ledger.
func present(s *models.GameState, ev models.GameEvent) {
	ev.Description = Describe(ev.Description, s)
	s.CurrentEvent = &ev
	markTriggered(s, ev.ID)
}

// promoteNext pops the next queued event when nothing else is on screen.
func promoteNext(s *models.GameState) {
	if s.CurrentEvent != nil || s.EventResult != nil || s.ExamResult != nil {
		return
	}
	if len(s.EventQueue) == 0 {
		return
	}
	next := s.EventQueue[0]
	s.EventQueue = s.EventQueue[1:]
	present(s, next)
}
