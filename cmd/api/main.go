package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/wind-walker-open-source/forge-ledger/internal/config"
	"github.com/wind-walker-open-source/forge-ledger/internal/ledger"
	"github.com/wind-walker-open-source/forge-ledger/internal/models"
	"github.com/wind-walker-open-source/forge-ledger/internal/secrets"
	"github.com/wind-walker-open-source/forge-ledger/internal/storage/postgres"
	"github.com/wind-walker-open-source/forge-ledger/middleware"
)

func main() {
	log.Println("Starting ledger API...")

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

	if err := postgres.MigrateModels(db, &models.Job{}, &models.Item{}); err != nil {
		log.Fatal("Migration failed:", err)
	}

	secretCache := secrets.NewCache(secrets.StaticSource(appCfg.WebhookSecret), appCfg.WebhookSecretTTL)
	notifier := ledger.NewWebhookNotifier(appCfg.WebhookTimeout, secretCache)

	repo := postgres.NewLedgerRepository(db)
	service := ledger.NewLedgerService(repo, notifier, appCfg.DefaultExpirationDays)
	handler := ledger.NewLedgerHandler(service)

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	handler.RegisterRoutes(r)

	log.Printf("Listening on %s", appCfg.ListenAddr)
	if err := r.Run(appCfg.ListenAddr); err != nil {
		log.Fatal("Server failed:", err)
	}
}
