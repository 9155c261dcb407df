package graph

import (
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pageza/recipematch/backend/internal/model"
)

// decodeRanked maps one result row onto the domain type. List properties may
// come back as real lists or as a single serialized string, depending on how
// the catalog was imported.
func decodeRanked(rec *neo4j.Record) (model.RankedRecipe, error) {
	m := rec.AsMap()

	id, ok := m["id"].(int64)
	if !ok {
		return model.RankedRecipe{}, fmt.Errorf("recipe id has unexpected type %T", m["id"])
	}
	name, _ := m["name"].(string)
	description, _ := m["description"].(string)

	return model.RankedRecipe{
		Recipe: model.Recipe{
			ID:          id,
			Name:        name,
			Description: description,
			Ingredients: stringList(m["ingredients"]),
			Steps:       stringList(m["steps"]),
			Tags:        stringList(m["tags"]),
		},
		ExtraIngredientCount: intValue(m["extraIngredientCount"]),
		MatchedTagCount:      intValue(m["matchedTagCount"]),
	}, nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		return model.ParseSerializedList(t)
	case []string:
		return trimAll(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return trimAll(out)
	default:
		return []string{fmt.Sprint(t)}
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
