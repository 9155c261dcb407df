package main

import (
	"flag"

	"github.com/pageza/recipematch/backend/config"
	"github.com/pageza/recipematch/backend/internal/database"
	"github.com/pageza/recipematch/backend/internal/logging"
)

func main() {
	migrationsDir := flag.String("dir", "migrations", "Directory holding SQL migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.RecipeStore == "neo4j" {
		logging.Fatal().Msg("RECIPE_STORE=neo4j has no relational schema; set it to postgres or sqlite")
	}

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.RunMigrations(db, *migrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("Migration failed")
	}
	logging.Info().Str("store", cfg.RecipeStore).Msg("All migrations applied successfully")
}
