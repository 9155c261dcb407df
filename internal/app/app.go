// Package app assembles the retrieval engine from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipematch/backend/config"
	"github.com/pageza/recipematch/backend/internal/api"
	"github.com/pageza/recipematch/backend/internal/database"
	"github.com/pageza/recipematch/backend/internal/graph"
	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

// MigrationsDir holds the relational catalog's SQL migrations.
const MigrationsDir = "migrations"

// Catalog is a recipe store that can also be written to and probed.
type Catalog interface {
	service.RecipeStore
	SaveRecipe(ctx context.Context, r model.Recipe) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// App owns every long-lived dependency of the engine.
type App struct {
	Config    *config.Config
	Catalog   Catalog
	Sessions  service.SessionStore
	Retriever *service.RetrievalService
	Redis     *redis.Client

	closers []func(context.Context) error
}

// NewCatalog opens the recipe store selected by cfg.RecipeStore. The returned
// func releases its connections.
func NewCatalog(ctx context.Context, cfg *config.Config) (Catalog, func(context.Context) error, error) {
	switch cfg.RecipeStore {
	case "neo4j":
		store, err := graph.NewStore(ctx, graph.Config{
			URI:      cfg.Neo4jURI,
			User:     cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "postgres", "sqlite":
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		closer := func(context.Context) error { return sqlDB.Close() }
		if err := database.RunMigrations(db, MigrationsDir); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return database.NewRecipeCatalog(db), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown recipe store %q", cfg.RecipeStore)
	}
}

// New connects the configured stores and NLP clients and wires the retrieval
// service. Close must be called to release them.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	catalog, closeCatalog, err := NewCatalog(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s recipe store: %w", cfg.RecipeStore, err)
	}
	a.Catalog = catalog
	a.closers = append(a.closers, closeCatalog)

	if cfg.SessionBackend == "redis" || cfg.RedisURL != "" || cfg.RedisHost != "" {
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	}

	if cfg.SessionBackend == "redis" {
		a.Sessions = service.NewRedisSessionStore(a.Redis, cfg.SessionTTL)
	} else {
		mem := service.NewMemorySessionStore(cfg.SessionTTL, cfg.SessionTTL/4)
		a.Sessions = mem
		a.closers = append(a.closers, func(context.Context) error { return mem.Close() })
	}

	generator, err := service.NewDeepSeekClient(service.DeepSeekConfig{
		APIKey:  cfg.DeepSeekAPIKey,
		APIURL:  cfg.DeepSeekAPIURL,
		Model:   cfg.DeepSeekModel,
		Timeout: cfg.ExternalTimeout,
	})
	if err != nil {
		return nil, err
	}
	classifier := service.NewZeroShotClient(service.ZeroShotConfig{
		APIToken: cfg.HFAPIToken,
		APIURL:   cfg.HFAPIURL,
		Model:    cfg.ClassifierModel,
		Timeout:  cfg.ExternalTimeout,
	})

	tagMatch, err := service.ParseTagMatchPolicy(cfg.TagMatch)
	if err != nil {
		return nil, err
	}

	extractor := service.NewConstraintExtractor(generator, classifier, service.ExtractorConfig{
		TagThreshold: cfg.TagThreshold,
		CallTimeout:  cfg.ExternalTimeout,
	})
	planner := service.NewQueryPlanner(catalog, tagMatch, cfg.ExternalTimeout)

	var flair *service.FlairWriter
	if cfg.FlairEnabled {
		flair = service.NewFlairWriter(generator)
	}
	a.Retriever = service.NewRetrievalService(extractor, planner, a.Sessions, flair)

	logging.Info().
		Str("recipe_store", cfg.RecipeStore).
		Str("session_backend", cfg.SessionBackend).
		Str("tag_match", string(tagMatch)).
		Bool("flair", cfg.FlairEnabled).
		Msg("retrieval engine ready")
	return a, nil
}

// HealthChecks lists the components /health probes.
func (a *App) HealthChecks() map[string]api.Pinger {
	checks := map[string]api.Pinger{"recipe_store": a.Catalog}
	if a.Redis != nil {
		checks["redis"] = redisPinger{a.Redis}
	}
	return checks
}

// Close releases dependencies in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
