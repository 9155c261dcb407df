package database

import (
	"time"

	"github.com/pageza/recipematch/backend/internal/model"
)

// RecipeRow is the relational form of a recipe. Steps are kept as a JSON
// column; ingredients and tags live in child tables so they can be filtered.
type RecipeRow struct {
	ID          int64                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Name        string                `gorm:"not null" json:"name"`
	Description string                `gorm:"type:text" json:"description"`
	Steps       []string              `gorm:"serializer:json;type:text" json:"steps"`
	Ingredients []RecipeIngredientRow `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
	Tags        []RecipeTagRow        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"tags"`
}

// TableName returns the table name for the RecipeRow model
func (RecipeRow) TableName() string {
	return "recipes"
}

// RecipeIngredientRow is one ingredient line; Position keeps the recipe's order.
type RecipeIngredientRow struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	RecipeID int64  `gorm:"not null;index" json:"recipe_id"`
	Position int    `gorm:"not null" json:"position"`
	Name     string `gorm:"not null;index" json:"name"`
}

// TableName returns the table name for the RecipeIngredientRow model
func (RecipeIngredientRow) TableName() string {
	return "recipe_ingredients"
}

// RecipeTagRow attaches a normalized tag to a recipe.
type RecipeTagRow struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	RecipeID int64  `gorm:"not null;uniqueIndex:idx_recipe_tag" json:"recipe_id"`
	Tag      string `gorm:"not null;uniqueIndex:idx_recipe_tag;index" json:"tag"`
}

// TableName returns the table name for the RecipeTagRow model
func (RecipeTagRow) TableName() string {
	return "recipe_tags"
}

// toRow converts a domain recipe. Ingredients and tags are lower-cased and
// deduplicated, keeping first-seen order, so the (recipe_id, tag) index holds.
func toRow(r model.Recipe) RecipeRow {
	row := RecipeRow{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Steps:       r.Steps,
	}
	for i, name := range model.NormalizeSet(r.Ingredients) {
		row.Ingredients = append(row.Ingredients, RecipeIngredientRow{RecipeID: r.ID, Position: i, Name: name})
	}
	for _, tag := range model.NormalizeSet(r.Tags) {
		row.Tags = append(row.Tags, RecipeTagRow{RecipeID: r.ID, Tag: tag})
	}
	return row
}

// toModel normalizes again on the way out; rows may have been written by other
// tools.
func (row RecipeRow) toModel() model.Recipe {
	r := model.Recipe{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Steps:       row.Steps,
		Ingredients: make([]string, 0, len(row.Ingredients)),
		Tags:        make([]string, 0, len(row.Tags)),
	}
	if r.Steps == nil {
		r.Steps = []string{}
	}
	for _, ing := range row.Ingredients {
		r.Ingredients = append(r.Ingredients, ing.Name)
	}
	for _, tag := range row.Tags {
		r.Tags = append(r.Tags, tag.Tag)
	}
	r.Ingredients = model.NormalizeSet(r.Ingredients)
	r.Tags = model.NormalizeSet(r.Tags)
	return r
}
