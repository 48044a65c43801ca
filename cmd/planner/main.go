package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momcare/mealplan/backend/config"
	"github.com/momcare/mealplan/backend/internal/catalog"
	"github.com/momcare/mealplan/backend/internal/composer"
	"github.com/momcare/mealplan/backend/internal/database"
	"github.com/momcare/mealplan/backend/internal/filter"
	"github.com/momcare/mealplan/backend/internal/history"
	"github.com/momcare/mealplan/backend/internal/logger"
	"github.com/momcare/mealplan/backend/internal/server"
	"github.com/momcare/mealplan/backend/internal/service"
	"github.com/momcare/mealplan/backend/internal/stage"
	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	once := flag.Bool("once", false, "run a single planning cycle and exit")
	dateFlag := flag.String("date", "", "plan date (YYYY-MM-DD) for -once, defaults to today")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.InitWithConfig(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
		Format:     cfg.LogFormat,
	}); err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	logger.Info("Starting planner", "environment", config.GetEnvironment(), "catalog_source", cfg.CatalogSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()
	if err := database.AutoMigrate(db.Gorm); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	// the plan and goal caches are optional
	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without plan cache", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	source, err := newCatalogSource(ctx, cfg, db)
	if err != nil {
		logger.Fatal("Failed to configure catalog source", "error", err)
	}
	store := catalog.NewStore(nil)
	refresher := catalog.NewRefresher(source, store, cfg.CatalogRefresh, logger.WithFields("component", "catalog"))
	if _, err := refresher.Refresh(ctx); err != nil {
		logger.Fatal("Failed to load catalog", "error", err)
	}

	planner, closeAI := newPlanner(ctx, cfg, db, redisClient, store)
	defer closeAI()

	profiles := service.NewProfileService(db.Gorm)
	runner := service.NewDailyRunner(planner, profiles, cfg.Engine.Concurrency, logger.WithFields("component", "runner"))

	if *once {
		date := time.Now()
		if *dateFlag != "" {
			date, err = time.Parse(types.DateLayout, *dateFlag)
			if err != nil {
				logger.Fatal("Invalid -date", "value", *dateFlag, "error", err)
			}
		}
		summary, err := runner.RunOnce(ctx, date)
		if err != nil {
			logger.Fatal("Planning cycle failed", "error", err)
		}
		fmt.Printf("%s: %d users, %d generated, %d failed\n", summary.Date, summary.Users, summary.Generated, summary.Failed)
		return
	}

	checks := []server.Check{{Name: "database", Probe: db.HealthCheck}}
	if redisClient != nil {
		checks = append(checks, server.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	srv := server.New(net.JoinHostPort(cfg.ServerHost, cfg.ServerPort), store, logger.WithFields("component", "ops"), checks...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refresher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down planner")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Planner stopped with error", "error", err)
	}
	logger.Info("Planner stopped")
}

func newCatalogSource(ctx context.Context, cfg *config.Config, db *database.DB) (catalog.Source, error) {
	switch cfg.CatalogSource {
	case config.CatalogSourceS3:
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return catalog.NewS3Source(s3cfg.Client, s3cfg.BucketName, s3cfg.Key), nil
	case config.CatalogSourceDatabase:
		return catalog.NewSQLSource(db.SQL, db.Driver), nil
	default:
		return catalog.NewFileSource(cfg.CatalogPath), nil
	}
}

// newPlanner assembles the planning pipeline. Gemini and Redis are wired in only
// when configured; the returned func releases the Gemini client.
func newPlanner(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, store *catalog.Store) (*service.PlannerService, func()) {
	engine := cfg.Engine
	closeAI := func() {}

	var (
		enricher  service.GoalEnricher
		goalCache service.GoalCache
		opts      []service.PlannerOption
	)

	if cfg.GeminiAPIKey != "" {
		gemini, err := service.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini unavailable, using static goals", "error", err)
		} else {
			enricher = gemini
			opts = append(opts, service.WithInsights(gemini, engine.InsightTimeout))
			closeAI = func() { gemini.Close() }
		}
	}

	if redisClient != nil {
		cache := service.NewRedisCache(redisClient, 0)
		goalCache = cache
		opts = append(opts, service.WithPlanCache(cache))
	} else if enricher != nil {
		goalCache = service.NewMemoryGoalCache(0)
	}

	plannerLogger := logger.WithFields("component", "planner")
	goals := service.NewGoalResolver(stage.NewGoalTable(engine.Tolerance), enricher, goalCache, engine.EnrichmentTimeout, plannerLogger)

	planner := service.NewPlannerService(
		store,
		history.NewTracker(history.NewGormStore(db.Gorm)),
		stage.NewCalculator(engine.GraceDays),
		goals,
		filter.New(filter.WithWeights(engine.Weights), filter.WithMoodTags(engine.MoodTable())),
		composer.New(engine.NormalizedSlots()),
		plannerLogger,
		opts...,
	)
	return planner, closeAI
}
