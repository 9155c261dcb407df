package model

import (
	"strings"
)

// Recipe is the read-only projection of a recipe held by the recipe store.
type Recipe struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Tags        []string `json:"tags"`
}

// RankedRecipe carries the ordering keys computed by the store alongside the recipe.
// The ranking fields are never persisted.
type RankedRecipe struct {
	Recipe
	ExtraIngredientCount int `json:"extra_ingredient_count"`
	MatchedTagCount      int `json:"matched_tag_count"`
}

// RankedResult is an ordered sequence of ranked recipes, best match first.
type RankedResult []RankedRecipe

// Recipes returns the plain recipes in ranked order.
func (r RankedResult) Recipes() []Recipe {
	out := make([]Recipe, len(r))
	for i := range r {
		out[i] = r[i].Recipe
	}
	return out
}

// Page is one position of a session's cursor over its ranked result.
type Page struct {
	Recipe Recipe `json:"recipe"`
	Index  int    `json:"index"`
	Total  int    `json:"total"`
}

// ParseSerializedList turns a list that was serialized upstream as a single string,
// e.g. "['preheat oven', 'mix']", into its items. Fragments are split on commas,
// stripped of bracket and quote characters, trimmed, and empty fragments are dropped.
func ParseSerializedList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		p := serializationResidue.Replace(part)
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var serializationResidue = strings.NewReplacer("[", "", "]", "", "'", "", `"`, "")

// NormalizeTerm trims and lower-cases an ingredient or tag.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
