package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/bulk-sub-translator/internal/config"
	"github.com/MimeLyc/bulk-sub-translator/internal/jobs"
	"github.com/MimeLyc/bulk-sub-translator/internal/persistence"
	"github.com/MimeLyc/bulk-sub-translator/internal/service"
	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
)

func main() {
	// .env is optional, environment variables win
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}
	log.InitLogger(log.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	store, err := persistence.NewSQLiteStore(cfg.Runtime.DBPath)
	if err != nil {
		log.Fatal("Failed to open job store: %v", err)
	}
	defer store.Close()

	queue := jobs.NewQueue(cfg.Runtime.QueueWorkers, store)
	c := cron.New()
	svc := service.NewSweepService(*cfg, c, queue, store)

	queue.Start(svc.RunJob)
	if err := svc.Schedule(context.Background()); err != nil {
		log.Fatal("Failed to schedule sweep: %v", err)
	}
	c.Start()
	log.Info("Batch subtitle translator started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	<-c.Stop().Done()
	queue.Stop()
}
