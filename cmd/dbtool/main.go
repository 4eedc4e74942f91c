package main

import (
	"database/sql"
	"os"
	"strings"
	"time"

	"route-planning-service/internal/adapters/repositories"
	"route-planning-service/internal/config"
	"route-planning-service/internal/platform/db"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logging.Fatal().Msg("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer sqlDB.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/users.json")
	if err := initAndSeed(sqlDB, seedPath); err != nil {
		logging.Fatal().Err(err).Msg("dbtool")
	}
}

func initAndSeed(sqlDB *sql.DB, seedPath string) error {
	logging.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(sqlDB); err != nil {
		return err
	}
	logging.Info().Msg("schema ready")

	if _, err := os.Stat(seedPath); err != nil {
		logging.Warn().Str("path", seedPath).Msg("no user seed file; skipping seed")
		return nil
	}

	// Only hashing is used, so the secret and ttl are irrelevant here.
	auth := services.NewAuthService(nil, "dbtool", time.Minute)

	logging.Info().Str("path", seedPath).Msg("seeding users")
	if err := repositories.SeedUsersFromJSON(sqlDB, seedPath, auth.HashPassword); err != nil {
		return err
	}
	logging.Info().Msg("seeding complete")

	return nil
}
