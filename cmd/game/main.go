package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/tatianab/campus-life/internal/aievents"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/leaderboard"
	"github.com/tatianab/campus-life/internal/logger"
	"github.com/tatianab/campus-life/internal/models"
	"github.com/tatianab/campus-life/internal/store"
	"github.com/tatianab/campus-life/internal/tui"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	fresh := flag.Bool("new", false, "ignore the existing save")
	flag.Parse()

	ctx := context.Background()

	loader, err := config.New(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg := loader.Get()

	// The alt screen owns stdout, so logs always go to the file.
	logCfg := cfg.Log
	logCfg.Output = "file"
	log, err := logger.Init(&logCfg)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	catalog, err := content.Default()
	if err != nil {
		log.Fatal("load content", zap.Error(err))
	}

	blobs, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open save store", zap.Error(err))
	}
	defer closeStore()

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	sess := engine.NewSession(engine.NewEnv(catalog, seed), blobs, logger.Named("session"), "")
	if err := sess.LoadAchievements(ctx); err != nil {
		log.Warn("load achievements", zap.Error(err))
	}
	if !*fresh {
		if _, err := sess.Load(ctx); err != nil && !errors.Is(err, models.ErrNoSave) {
			log.Warn("load save", zap.Error(err))
		}
	}

	var ai *aievents.Source
	if cfg.AI.Available() {
		ai, err = aievents.NewSource(ctx, cfg.AI.APIKey, cfg.AI.Model, logger.Named("ai"))
		if err != nil {
			log.Warn("ai events disabled", zap.Error(err))
			ai = nil
		} else {
			defer ai.Close()
		}
	}

	p := tui.NewProgram(tui.Options{
		Session:      sess,
		Content:      catalog,
		AI:           ai,
		AIEvery:      cfg.AI.Every,
		AICount:      cfg.AI.Count,
		AITimeout:    cfg.AI.Timeout,
		Leaderboard:  leaderboard.NewClient(cfg.Leaderboard.URL, cfg.Leaderboard.Timeout, logger.Named("leaderboard")),
		ChallengeID:  cfg.Leaderboard.ChallengeID,
		TickInterval: cfg.Game.TickInterval,
		Difficulty:   models.Difficulty(strings.ToUpper(cfg.Game.Difficulty)),
		Competition:  models.Competition(strings.ToUpper(cfg.Game.Competition)),
		Seed:         cfg.Game.Seed,
		Logger:       logger.Named("tui"),
	})

	loader.Watch(func(c *config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		p.Send(tui.ConfigMsg{Config: c})
	})

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// openStore picks the save backend named by game.storage.
func openStore(cfg *config.Config, log *zap.Logger) (models.BlobStore, func(), error) {
	switch cfg.Game.Storage {
	case "database", "db":
		db, err := store.Open(&cfg.Database, log.Named("db"))
		if err != nil {
			return nil, nil, err
		}
		return store.NewBlobRepository(db), func() { store.Close(db) }, nil
	case "none":
		return nil, func() {}, nil
	default:
		return models.NewFileStore(cfg.Game.SaveDir), func() {}, nil
	}
}
