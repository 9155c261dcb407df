package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/recipematch/backend/internal/service"
)

func TestBuildRankQuery(t *testing.T) {
	t.Run("untagged", func(t *testing.T) {
		sql, args := buildRankQuery(service.RecipeQuery{Ingredients: []string{"rice", "egg"}, Limit: 10})

		assert.Equal(t, 2, strings.Count(sql, "LIKE ?"))
		assert.Contains(t, sql, "0 AS matched_tag_count")
		assert.True(t, strings.HasSuffix(sql, "ORDER BY extra_ingredient_count ASC, r.id ASC LIMIT ?"))
		assert.Equal(t, []interface{}{2, "rice%", "egg%", 10}, args)
	})

	t.Run("tagged all", func(t *testing.T) {
		tags := []string{"asian", "vegan"}
		sql, args := buildRankQuery(service.RecipeQuery{Tags: tags, TagMatch: service.TagMatchAll, Limit: 10})

		assert.NotContains(t, sql, "LIKE")
		assert.Contains(t, sql, "IN ?) = ?")
		assert.Contains(t, sql, "ORDER BY matched_tag_count DESC, extra_ingredient_count ASC, r.id ASC")
		assert.Equal(t, []interface{}{0, tags, tags, 2, 10}, args)
	})

	t.Run("tagged any", func(t *testing.T) {
		tags := []string{"asian"}
		sql, args := buildRankQuery(service.RecipeQuery{Tags: tags, TagMatch: service.TagMatchAny, Limit: 5})

		assert.Contains(t, sql, "IN ?) > 0")
		assert.Equal(t, []interface{}{0, tags, tags, 5}, args)
	})

	t.Run("no constraint", func(t *testing.T) {
		sql, _ := buildRankQuery(service.RecipeQuery{Limit: 10})
		assert.NotContains(t, sql, "WHERE")
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% cream`, escapeLike("50% Cream"))
	assert.Equal(t, `a\_b\\c`, escapeLike(`a_b\c`))
}
