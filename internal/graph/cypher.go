package graph

import (
	"strings"

	"github.com/pageza/recipematch/backend/internal/service"
)

// Schema:
//
//	(:Recipe {id, name, description, steps})-[:HAS_INGREDIENT]->(:Ingredient {name})
//	(:Recipe)-[:HAS_TAG]->(:Tag {tag})
//
// Older imports stored the tag text under "tags", so both properties are read.

const matchIngredients = `
MATCH (r:Recipe)
OPTIONAL MATCH (r)-[:HAS_INGREDIENT]->(ing:Ingredient)
WITH r, collect(DISTINCT toLower(ing.name)) AS allIng
WHERE all(req IN $ingredients WHERE any(real IN allIng WHERE real STARTS WITH req))
WITH r, allIng, size(allIng) - size($ingredients) AS extra
OPTIONAL MATCH (r)-[:HAS_TAG]->(t:Tag)
WITH r, allIng, extra, collect(DISTINCT toLower(coalesce(t.tag, t.tags))) AS allTags
`

const returnRecipe = `
RETURN coalesce(r.id, id(r)) AS id,
       r.name AS name,
       r.description AS description,
       r.steps AS steps,
       allIng AS ingredients,
       allTags AS tags,
       extra AS extraIngredientCount,
       matched AS matchedTagCount
`

// untaggedCypher ranks by extra ingredient count only.
const untaggedCypher = matchIngredients + `WITH r, allIng, extra, allTags, 0 AS matched` + returnRecipe + `
ORDER BY extraIngredientCount ASC, id ASC
LIMIT $limit
`

const taggedHead = matchIngredients + `WITH r, allIng, extra, allTags, size([tag IN $tags WHERE tag IN allTags]) AS matched
`

const taggedOrder = `
ORDER BY matchedTagCount DESC, extraIngredientCount ASC, id ASC
LIMIT $limit
`

// taggedAllCypher keeps recipes that carry every required tag.
const taggedAllCypher = taggedHead + `WHERE matched = size($tags)` + returnRecipe + taggedOrder

// taggedAnyCypher keeps recipes that carry at least one required tag.
const taggedAnyCypher = taggedHead + `WHERE matched > 0` + returnRecipe + taggedOrder

// buildQuery selects the Cypher text for q and binds its parameters.
// Ingredients and tags are lower-cased to match the toLower'd graph values.
func buildQuery(q service.RecipeQuery) (string, map[string]any) {
	params := map[string]any{
		"ingredients": lowerAll(q.Ingredients),
		"limit":       int64(q.Limit),
	}
	if !q.Tagged() {
		return untaggedCypher, params
	}

	params["tags"] = lowerAll(q.Tags)
	if q.TagMatch == service.TagMatchAny {
		return taggedAnyCypher, params
	}
	return taggedAllCypher, params
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// saveCypher upserts a recipe and replaces its ingredient and tag edges.
const saveCypher = `
MERGE (r:Recipe {id: $id})
SET r.name = $name, r.description = $description, r.steps = $steps
WITH r
OPTIONAL MATCH (r)-[old:HAS_INGREDIENT|HAS_TAG]->()
DELETE old
WITH DISTINCT r
FOREACH (name IN $ingredients | MERGE (i:Ingredient {name: name}) MERGE (r)-[:HAS_INGREDIENT]->(i))
FOREACH (tag IN $tags | MERGE (t:Tag {tag: tag}) MERGE (r)-[:HAS_TAG]->(t))
`

const countCypher = `MATCH (r:Recipe) RETURN count(r) AS n`
