package main

import (
	"context"
	"flag"
	"log"

	"github.com/momcare/mealplan/backend/config"
	"github.com/momcare/mealplan/backend/internal/catalog"
	"github.com/momcare/mealplan/backend/internal/database"
)

func main() {
	path := flag.String("file", "catalog.yaml", "YAML or JSON dataset to publish")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.AutoMigrate(db.Gorm); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ds, err := catalog.NewFileSource(*path).Load(ctx)
	if err != nil {
		log.Fatalf("failed to read dataset: %v", err)
	}
	// refuse datasets the planner could not index
	if _, err := catalog.BuildIndex(ds); err != nil {
		log.Fatalf("invalid dataset: %v", err)
	}

	if err := catalog.NewSQLSource(db.SQL, db.Driver).Publish(ctx, ds); err != nil {
		log.Fatalf("failed to publish catalog: %v", err)
	}
	log.Printf("Published catalog version %d with %d items", ds.Version, len(ds.Items))
}
