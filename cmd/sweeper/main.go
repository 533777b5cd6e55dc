package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wind-walker-open-source/forge-ledger/internal/config"
	"github.com/wind-walker-open-source/forge-ledger/internal/storage/postgres"
	"github.com/wind-walker-open-source/forge-ledger/internal/sweeper"
)

func main() {
	log.Println("Starting expiration sweeper...")

	ctx := context.Background()

	appCfg, err := config.LoadAppConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load app config:", err)
	}

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load db config:", err)
	}

	db, err := postgres.ConnectDB(ctx, dbCfg)
	if err != nil {
		log.Fatal("Connection failed:", err)
	}

	repo := postgres.NewLedgerRepository(db)

	sw := sweeper.NewSweeper(repo, appCfg.SweepInterval, appCfg.SweepBatchSize)
	sw.Start()
	log.Println("Sweeper active. Press Ctrl+C to stop.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sw.Stop()
	log.Println("Shutdown complete.")
}
