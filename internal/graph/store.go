// Package graph is the Neo4j-backed recipe store.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

// Config holds the Neo4j connection settings.
type Config struct {
	URI      string
	User     string
	Password string
	// Database is empty for the server's default database.
	Database string
}

// Store implements service.RecipeStore over a shared driver. Each call opens
// its own session and closes it before returning.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewStore creates the driver and verifies the server is reachable.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", cfg.URI, err)
	}

	logging.Info().Str("uri", cfg.URI).Msg("Successfully connected to Neo4j")
	return &Store{driver: driver, database: cfg.Database}, nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// FindRecipes implements service.RecipeStore.
func (s *Store) FindRecipes(ctx context.Context, q service.RecipeQuery) (model.RankedResult, error) {
	if q.Limit <= 0 {
		q.Limit = service.MaxResults
	}
	cypher, params := buildQuery(q)

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		results := make(model.RankedResult, 0, len(records))
		for _, rec := range records {
			ranked, err := decodeRanked(rec)
			if err != nil {
				return nil, err
			}
			results = append(results, ranked)
		}
		return results, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j %s query failed: %w", q.Branch(), err)
	}

	results := out.(model.RankedResult)
	logging.Ctx(ctx).Debug().Str("branch", q.Branch()).Int("results", len(results)).Msg("recipes ranked")
	return results, nil
}

// SaveRecipe upserts a recipe node and replaces its ingredient and tag edges.
func (s *Store) SaveRecipe(ctx context.Context, r model.Recipe) error {
	if r.ID == 0 {
		return fmt.Errorf("recipe id is required")
	}

	ingredients := model.NormalizeSet(r.Ingredients)
	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, saveCypher, map[string]any{
			"id":          r.ID,
			"name":        r.Name,
			"description": r.Description,
			"steps":       steps,
			"ingredients": ingredients,
			"tags":        model.NormalizeSet(r.Tags),
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to save recipe %d: %w", r.ID, err)
	}
	return nil
}

// Count returns the number of recipe nodes.
func (s *Store) Count(ctx context.Context) (int64, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	n, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, countCypher, nil)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := rec.Get("n")
		return v, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	count, _ := n.(int64)
	return count, nil
}

// Ping implements the readiness check used by /health.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the driver and its connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
