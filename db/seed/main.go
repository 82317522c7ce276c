package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
	"github.com/onurcolak/unified-inbox-service/pkg/database"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := environments.Load()
	logger.Init(cfg.Log.Level)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedTestData(db); err != nil {
		logger.Fatalf("Failed to seed test data: %v", err)
	}

	logger.Infof("Seed completed successfully")

	// Operator token for local API calls against the seeded data.
	if cfg.Auth.JWTSecret != "" {
		token, err := middlewares.IssueToken(cfg.Auth.JWTSecret, database.SeedUserID, 24*time.Hour)
		if err != nil {
			logger.Fatalf("Failed to issue operator token: %v", err)
		}
		fmt.Printf("Authorization: Bearer %s\n", token)
	}
}
