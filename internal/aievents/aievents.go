// Package aievents asks Gemini for extra weekly events. Generated events are
// plain numeric effects; every failure degrades to a single no-op filler.
package aievents

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/generate_events.txt
var generateEventsPrompt string

const (
	DefaultModel = "gemini-2.5-flash"
	DefaultCount = 2

	// IDPrefix marks events that did not come from the content tables.
	IDPrefix = "ai_"
	FillerID = IDPrefix + "filler"

	maxStatDelta     = 5
	maxMoneyDelta    = 50
	maxSubjectDelta  = 2
	minSubjectDelta  = -1
	maxChoices       = 3
	recentHistoryLen = 3
)

var (
	ErrNoContent    = errors.New("no content returned from Gemini")
	ErrUnexpected   = errors.New("unexpected response type from Gemini")
	ErrNoValidEvent = errors.New("response contained no usable event")
)

var promptTemplate = template.Must(template.New("generate_events").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(generateEventsPrompt))

// Generator is the model call a Source depends on. *genai.GenerativeModel
// satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Source struct {
	client *genai.Client
	model  Generator
	logger *zap.Logger
	count  int
}

func NewSource(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Source, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModel
	}
	src := NewSourceWithGenerator(client.GenerativeModel(model), logger)
	src.client = client
	return src, nil
}

// NewSourceWithGenerator wraps an existing generator.
func NewSourceWithGenerator(gen Generator, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{model: gen, logger: logger, count: DefaultCount}
}

func (s *Source) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Summary is the slice of the game state the prompt is rendered from.
type Summary struct {
	PlayerName string
	Phase      string
	Week       int
	General    models.GeneralStats
	Statuses   []string
	Partner    string
	Club       string
	Recent     []string
	Count      int
}

// SummaryOf extracts a prompt summary from a state.
func SummaryOf(s models.GameState) Summary {
	sum := Summary{
		PlayerName: s.PlayerName,
		Phase:      s.Phase.DisplayName(),
		Week:       s.Week,
		General:    s.General,
		Partner:    s.Partner,
		Club:       s.Club,
	}
	for _, st := range s.Statuses {
		sum.Statuses = append(sum.Statuses, st.Name)
	}
	start := max(0, len(s.History)-recentHistoryLen)
	for _, h := range s.History[start:] {
		sum.Recent = append(sum.Recent, fmt.Sprintf("%s：%s", h.Event, h.Choice))
	}
	return sum
}

// Generate asks the model for events. On any failure it returns the filler
// event together with the error so callers can log it and carry on.
func (s *Source) Generate(ctx context.Context, sum Summary) ([]models.GameEvent, error) {
	events, err := s.generate(ctx, sum)
	if err != nil {
		s.logger.Warn("ai event generation failed", zap.Error(err))
		return []models.GameEvent{Filler()}, err
	}
	s.logger.Debug("ai events generated", zap.Int("count", len(events)))
	return events, nil
}

func (s *Source) generate(ctx context.Context, sum Summary) ([]models.GameEvent, error) {
	if sum.Count <= 0 {
		sum.Count = s.count
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, sum); err != nil {
		return nil, err
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		return nil, err
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoContent
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", ErrUnexpected
	}
	return string(text), nil
}

type responseFile struct {
	Events []responseEvent `yaml:"events"`
}

type responseEvent struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Choices     []responseChoice `yaml:"choices"`
}

type responseChoice struct {
	Text    string             `yaml:"text"`
	Message string             `yaml:"message"`
	Effects map[string]float64 `yaml:"effects"`
}

// Parse reads a model response into events. Code fences are stripped, effect
// deltas are clamped and unknown effect keys are dropped. Events without a
// title or a choice are skipped.
func Parse(text string) ([]models.GameEvent, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```yaml")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	var f responseFile
	if err := yaml.Unmarshal([]byte(clean), &f); err != nil {
		return nil, fmt.Errorf("failed to parse events YAML: %w", err)
	}

	var out []models.GameEvent
	for _, re := range f.Events {
		if strings.TrimSpace(re.Title) == "" {
			continue
		}
		ev := models.GameEvent{
			ID:          IDPrefix + uuid.NewString(),
			Title:       sanitize(re.Title),
			Description: sanitize(re.Description),
			Type:        models.EventAI,
		}
		for _, rc := range re.Choices {
			if len(ev.Choices) == maxChoices {
				break
			}
			if strings.TrimSpace(rc.Text) == "" {
				continue
			}
			ev.Choices = append(ev.Choices, models.EventChoice{
				Text:   sanitize(rc.Text),
				Effect: effectOf(rc),
			})
		}
		if len(ev.Choices) == 0 {
			continue
		}
		out = append(out, ev)
	}
	if len(out) == 0 {
		return nil, ErrNoValidEvent
	}
	return out, nil
}

func effectOf(rc responseChoice) models.Effect {
	eff := models.Effect{Message: sanitize(rc.Message)}
	for key, v := range rc.Effects {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		switch key {
		case models.StatMindset:
			eff.General.Mindset = clamp(v, -maxStatDelta, maxStatDelta)
		case models.StatExperience:
			eff.General.Experience = clamp(v, -maxStatDelta, maxStatDelta)
		case models.StatLuck:
			eff.General.Luck = clamp(v, -maxStatDelta, maxStatDelta)
		case models.StatRomance:
			eff.General.Romance = clamp(v, -maxStatDelta, maxStatDelta)
		case models.StatHealth:
			eff.General.Health = clamp(v, -maxStatDelta, maxStatDelta)
		case models.StatEfficiency:
			eff.General.Efficiency = clamp(v, -maxStatDelta, maxStatDelta)
		case models.StatMoney:
			eff.General.Money = clamp(v, -maxMoneyDelta, maxMoneyDelta)
		case "all_subjects":
			eff.AllSubjects = clamp(v, minSubjectDelta, maxSubjectDelta)
		}
	}
	return eff
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// sanitize removes template delimiters; event descriptions are rendered as
// templates when presented.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "{{", "")
	s = strings.ReplaceAll(s, "}}", "")
	return strings.TrimSpace(s)
}

// Filler is the no-op event shown when generation fails.
func Filler() models.GameEvent {
	return models.GameEvent{
		ID:          FillerID,
		Title:       "平静的一周",
		Description: "这周什么特别的事都没有发生。",
		Type:        models.EventAI,
		Choices: []models.EventChoice{
			{Text: "继续", Effect: models.Effect{Message: "日子照常过去。"}},
		},
	}
}
