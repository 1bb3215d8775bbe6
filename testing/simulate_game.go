// Command simulate_game plays whole school years without a terminal. Choices
// come from a Gemini "player" when an API key is configured, otherwise from
// the seeded random source.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/campus-life/internal/aievents"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/models"
	"google.golang.org/api/option"
)

const maxSteps = 5000

// player decides which choice to take for an event.
type player interface {
	choose(ctx context.Context, s models.GameState) int
}

type randomPlayer struct {
	r *rand.Rand
}

func (p randomPlayer) choose(_ context.Context, s models.GameState) int {
	return p.r.IntN(len(s.CurrentEvent.Choices))
}

type llmPlayer struct {
	model    aievents.Generator
	fallback player
}

func (p llmPlayer) choose(ctx context.Context, s models.GameState) int {
	ev := s.CurrentEvent
	var choices strings.Builder
	for i, c := range ev.Choices {
		fmt.Fprintf(&choices, "%d. %s\n", i+1, c.Text)
	}
	g := s.General
	prompt := fmt.Sprintf(`You are a first-year high school student playing a life simulation.
Week %d of %s. Mindset %.0f, Health %.0f, Money %.0f, Experience %.0f.

%s
%s

%s
Which choice do you take? Return ONLY the number.`,
		s.Week, s.Phase.DisplayName(), g.Mindset, g.Health, g.Money, g.Experience,
		ev.Title, ev.Description, choices.String())

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return p.fallback.choose(ctx, s)
	}
	text := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	n, err := strconv.Atoi(strings.Trim(text, ". "))
	if err != nil || n < 1 || n > len(ev.Choices) {
		return p.fallback.choose(ctx, s)
	}
	return n - 1
}

func main() {
	games := flag.Int("games", 1, "number of games to play")
	seed := flag.Uint64("seed", 1, "first seed; game i uses seed+i")
	difficulty := flag.String("difficulty", "NORMAL", "NORMAL, HARD or REALITY")
	oi := flag.Bool("oi", false, "join the OI track")
	verbose := flag.Bool("v", false, "print the weekly log")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	catalog, err := content.Default()
	if err != nil {
		log.Fatalf("Failed to load content: %v", err)
	}

	var model aievents.Generator
	if cfg.AI.APIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.AI.APIKey))
		if err != nil {
			log.Fatalf("Failed to create player client: %v", err)
		}
		defer client.Close()
		name := cfg.AI.Model
		if name == "" {
			name = aievents.DefaultModel
		}
		model = client.GenerativeModel(name)
		fmt.Println("Player: Gemini", name)
	}

	opts := engine.Options{
		Name:       "模拟玩家",
		Difficulty: models.Difficulty(strings.ToUpper(*difficulty)),
	}
	if *oi {
		opts.Competition = models.CompetitionOI
	}

	for i := 0; i < *games; i++ {
		gameSeed := *seed + uint64(i)
		env := engine.NewEnv(catalog, gameSeed)
		rng := rand.New(rand.NewPCG(gameSeed, gameSeed))
		var pl player = randomPlayer{r: rng}
		if model != nil {
			pl = llmPlayer{model: model, fallback: pl}
		}
		final, err := play(ctx, env, pl, rng, opts, *verbose)
		if err != nil {
			log.Fatalf("Game %d: %v", i+1, err)
		}
		ending := engine.EndingScore(final)
		fmt.Printf("--- Game %d (seed %d) ---\n", i+1, gameSeed)
		fmt.Printf("Ending: %s  Score: %d  Rank: %d  Weeks: %d\n", ending.Title, ending.Score, ending.Rank, final.TotalWeeks)
		fmt.Printf("Awards: %v\nAchievements: %v\n\n", final.Awards, final.Achievements)
	}
}

// play drives one game to its end. Weekend and club picks draw from rng so a
// seed replays the same game.
func play(ctx context.Context, env *engine.Env, pl player, rng *rand.Rand, opts engine.Options, verbose bool) (models.GameState, error) {
	sess := engine.NewSession(env, nil, nil, "")
	if _, err := sess.NewGame(ctx, opts); err != nil {
		return models.GameState{}, err
	}
	logged := 0

	for step := 0; step < maxSteps; step++ {
		s := sess.State()
		if verbose {
			for _, line := range s.Log[logged:] {
				fmt.Println(line)
			}
			logged = len(s.Log)
		}

		switch engine.PendingOf(&s) {
		case engine.PendingEnding:
			return s, nil
		case engine.PendingNone:
			if _, err := sess.Tick(ctx); err != nil {
				return s, err
			}
		case engine.PendingEvent:
			if _, err := sess.Choose(ctx, pl.choose(ctx, s)); err != nil {
				return s, err
			}
		case engine.PendingEventResult:
			sess.Confirm(ctx)
		case engine.PendingWeekend:
			if id, ok := pickActivity(rng, &s, env.Content.Activities); ok {
				if _, err := sess.Weekend(ctx, id); err != nil {
					log.Printf("Week %d: weekend %s rejected: %v", s.Week, id, err)
				}
			}
			sess.EndWeekend(ctx)
		case engine.PendingClubSelection:
			clubs := env.Content.Clubs
			if err := sess.JoinClub(ctx, clubs[rng.IntN(len(clubs))].ID); err != nil {
				return s, err
			}
		case engine.PendingSubjectSelection:
			if err := sess.SelectSubjects(ctx, models.DefaultElectives); err != nil {
				return s, err
			}
		case engine.PendingExam:
			if _, err := sess.SitExam(ctx); err != nil {
				return s, err
			}
		case engine.PendingExamResult:
			sess.DismissExamResult(ctx)
		}
	}
	s := sess.State()
	return s, fmt.Errorf("stuck in %s week %d", s.Phase, s.Week)
}

// pickActivity picks one weekend activity whose condition holds for s.
func pickActivity(rng *rand.Rand, s *models.GameState, activities []models.WeekendActivity) (string, bool) {
	var open []string
	for _, a := range activities {
		if a.Condition.Eval(s) {
			open = append(open, a.ID)
		}
	}
	if len(open) == 0 {
		return "", false
	}
	return open[rng.IntN(len(open))], true
}
