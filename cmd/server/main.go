package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/logger"
	"github.com/tatianab/campus-life/internal/server"
	"github.com/tatianab/campus-life/internal/store"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log.Info("starting campus-life server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("mode", cfg.Server.Mode),
		zap.String("driver", cfg.Database.Driver),
	)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := store.Open(&cfg.Database, logger.Named("db"))
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close(db)

	catalog, err := content.Default()
	if err != nil {
		log.Fatal("failed to load content", zap.Error(err))
	}

	router := server.NewRouter(db, catalog, logger.Named("http"))
	srv := server.NewServer(cfg.Server, router, log)
	errCh := srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-quit:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
