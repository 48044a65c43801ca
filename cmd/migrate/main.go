package main

import (
	"context"
	"flag"
	"log"

	"github.com/momcare/mealplan/backend/config"
	"github.com/momcare/mealplan/backend/internal/database"
)

func main() {
	migrationsDir := flag.String("dir", "migrations", "directory holding the SQL migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db.Gorm, *migrationsDir); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("All migrations applied successfully.")
}
