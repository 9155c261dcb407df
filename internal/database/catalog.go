package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

// RecipeCatalog is the relational RecipeStore. The ranking runs as one SQL
// statement; ingredients and tags of the surviving rows are loaded afterwards.
type RecipeCatalog struct {
	db *gorm.DB
}

// NewRecipeCatalog creates a new RecipeCatalog instance
func NewRecipeCatalog(db *gorm.DB) *RecipeCatalog {
	return &RecipeCatalog{db: db}
}

type rankedRow struct {
	ID                   int64
	ExtraIngredientCount int
	MatchedTagCount      int
}

const (
	ingredientCountExpr = `(SELECT COUNT(DISTINCT LOWER(ri.name)) FROM recipe_ingredients ri WHERE ri.recipe_id = r.id)`
	ingredientPrefix    = `EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND LOWER(ri.name) LIKE ? ESCAPE '\')`
	matchedTagExpr      = `(SELECT COUNT(*) FROM recipe_tags rt WHERE rt.recipe_id = r.id AND LOWER(rt.tag) IN ?)`
)

// buildRankQuery renders the ranking statement and its arguments for q.
func buildRankQuery(q service.RecipeQuery) (string, []interface{}) {
	var (
		sb   strings.Builder
		args []interface{}
	)

	sb.WriteString("SELECT r.id AS id, ")
	sb.WriteString(ingredientCountExpr + " - ? AS extra_ingredient_count, ")
	args = append(args, len(q.Ingredients))
	if q.Tagged() {
		sb.WriteString(matchedTagExpr + " AS matched_tag_count")
		args = append(args, q.Tags)
	} else {
		sb.WriteString("0 AS matched_tag_count")
	}
	sb.WriteString(" FROM recipes r")

	var where []string
	for _, ing := range q.Ingredients {
		where = append(where, ingredientPrefix)
		args = append(args, escapeLike(ing)+"%")
	}
	if q.Tagged() {
		if q.TagMatch == service.TagMatchAny {
			where = append(where, matchedTagExpr+" > 0")
			args = append(args, q.Tags)
		} else {
			where = append(where, matchedTagExpr+" = ?")
			args = append(args, q.Tags, len(q.Tags))
		}
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	if q.Tagged() {
		sb.WriteString(" ORDER BY matched_tag_count DESC, extra_ingredient_count ASC, r.id ASC")
	} else {
		sb.WriteString(" ORDER BY extra_ingredient_count ASC, r.id ASC")
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, q.Limit)

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(strings.ToLower(s))
}

// FindRecipes implements service.RecipeStore.
func (c *RecipeCatalog) FindRecipes(ctx context.Context, q service.RecipeQuery) (model.RankedResult, error) {
	if q.Limit <= 0 {
		q.Limit = service.MaxResults
	}
	query, args := buildRankQuery(q)

	var ranked []rankedRow
	if err := c.db.WithContext(ctx).Raw(query, args...).Scan(&ranked).Error; err != nil {
		return nil, fmt.Errorf("failed to rank recipes: %w", err)
	}
	if len(ranked) == 0 {
		return model.RankedResult{}, nil
	}

	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	byID, err := c.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make(model.RankedResult, 0, len(ranked))
	for _, r := range ranked {
		recipe, ok := byID[r.ID]
		if !ok {
			// deleted between the two statements
			continue
		}
		results = append(results, model.RankedRecipe{
			Recipe:               recipe,
			ExtraIngredientCount: r.ExtraIngredientCount,
			MatchedTagCount:      r.MatchedTagCount,
		})
	}

	logging.Ctx(ctx).Debug().Str("branch", q.Branch()).Int("results", len(results)).Msg("recipes ranked")
	return results, nil
}

func (c *RecipeCatalog) load(ctx context.Context, ids []int64) (map[int64]model.Recipe, error) {
	var rows []RecipeRow
	err := c.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tag ASC") }).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	out := make(map[int64]model.Recipe, len(rows))
	for _, row := range rows {
		out[row.ID] = row.toModel()
	}
	return out, nil
}

// GetRecipe returns one recipe by id.
func (c *RecipeCatalog) GetRecipe(ctx context.Context, id int64) (*model.Recipe, error) {
	byID, err := c.load(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	r, ok := byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

// SaveRecipe inserts or replaces a recipe with its ingredients and tags.
func (c *RecipeCatalog) SaveRecipe(ctx context.Context, recipe model.Recipe) error {
	if recipe.ID == 0 {
		return fmt.Errorf("recipe id is required")
	}
	row := toRow(recipe)

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", row.ID).Delete(&RecipeIngredientRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", row.ID).Delete(&RecipeTagRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
		if err := tx.Omit("Ingredients", "Tags").Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save recipe: %w", err)
		}
		if len(row.Ingredients) > 0 {
			if err := tx.Create(&row.Ingredients).Error; err != nil {
				return fmt.Errorf("failed to save ingredients: %w", err)
			}
		}
		if len(row.Tags) > 0 {
			if err := tx.Create(&row.Tags).Error; err != nil {
				return fmt.Errorf("failed to save tags: %w", err)
			}
		}
		return nil
	})
}

// Count returns the number of stored recipes.
func (c *RecipeCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&RecipeRow{}).Count(&n).Error
	return n, err
}

// Ping implements the readiness check used by /health.
func (c *RecipeCatalog) Ping(ctx context.Context) error {
	return HealthCheck(ctx, c.db)
}
