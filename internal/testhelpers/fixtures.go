package testhelpers

import "github.com/pageza/recipematch/backend/internal/model"

// SampleRecipes is a small catalog with known rankings:
//
//   - rice+egg: 1 (extra 1), 2 (extra 2), 4 (extra 3)
//   - egg alone: 1, 3 (via "eggplant"), 2, 4
//   - tags asian+30-minutes-or-less: only 1; any of them: 1, 2, 4
//   - no constraint: 5 (no ingredients), 1, 3, 2, 4
func SampleRecipes() []model.Recipe {
	return []model.Recipe{
		{
			ID:          1,
			Name:        "egg fried rice",
			Description: "a quick wok dinner",
			Ingredients: []string{"rice", "eggs", "scallions"},
			Steps:       []string{"cook the rice", "scramble the eggs", "fry together"},
			Tags:        []string{"asian", "30-minutes-or-less", "vegetarian"},
		},
		{
			ID:          2,
			Name:        "omurice",
			Ingredients: []string{"rice", "egg yolk", "ketchup", "onion"},
			Steps:       []string{"fry the rice with ketchup", "wrap in omelette"},
			Tags:        []string{"asian", "60-minutes-or-less"},
		},
		{
			ID:          3,
			Name:        "baba ganoush",
			Ingredients: []string{"eggplant", "tahini", "lemon"},
			Steps:       []string{"roast the eggplant", "blend"},
			Tags:        []string{"vegan", "middle-eastern"},
		},
		{
			ID:          4,
			Name:        "congee",
			Ingredients: []string{"rice", "egg", "ginger", "stock", "scallions"},
			Steps:       []string{"simmer rice in stock", "top with egg"},
			Tags:        []string{"asian"},
		},
		{
			ID:          5,
			Name:        "plain toast",
			Ingredients: []string{},
			Steps:       []string{"toast the bread"},
		},
	}
}
