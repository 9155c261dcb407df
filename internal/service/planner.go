package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/metrics"
	"github.com/pageza/recipematch/backend/internal/model"
)

// MaxResults caps every ranked result.
const MaxResults = 10

// TagMatchPolicy decides how required tags filter recipes.
type TagMatchPolicy string

const (
	// TagMatchAll keeps recipes carrying every required tag.
	TagMatchAll TagMatchPolicy = "all"
	// TagMatchAny keeps recipes carrying at least one required tag and ranks
	// them by how many they carry.
	TagMatchAny TagMatchPolicy = "any"
)

// ParseTagMatchPolicy maps a config value to a policy, defaulting to TagMatchAll.
func ParseTagMatchPolicy(s string) (TagMatchPolicy, error) {
	switch TagMatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TagMatchAll:
		return TagMatchAll, nil
	case TagMatchAny:
		return TagMatchAny, nil
	default:
		return "", fmt.Errorf("unknown tag match policy %q", s)
	}
}

// RecipeQuery is the store-independent description of one ranked retrieval.
//
// Every required ingredient must be a prefix of at least one recipe ingredient.
// Untagged queries rank by extra ingredient count ascending. Tagged queries also
// filter by TagMatch and rank by matched tag count descending first. Ties are
// broken by recipe id ascending. At most Limit rows are returned.
type RecipeQuery struct {
	Ingredients []string
	Tags        []string
	TagMatch    TagMatchPolicy
	Limit       int
}

// Tagged reports whether the tag-aware branch applies.
func (q RecipeQuery) Tagged() bool {
	return len(q.Tags) > 0
}

// Branch names the query shape for logs and metrics.
func (q RecipeQuery) Branch() string {
	if q.Tagged() {
		return "tagged"
	}
	return "untagged"
}

// QueryPlanner turns constraints into ranked recipe lists.
type QueryPlanner struct {
	store    RecipeStore
	tagMatch TagMatchPolicy
	timeout  time.Duration
}

// NewQueryPlanner creates a new QueryPlanner instance. timeout bounds each store
// query; zero disables the extra deadline.
func NewQueryPlanner(store RecipeStore, tagMatch TagMatchPolicy, timeout time.Duration) *QueryPlanner {
	if tagMatch == "" {
		tagMatch = TagMatchAll
	}
	return &QueryPlanner{store: store, tagMatch: tagMatch, timeout: timeout}
}

// BuildQuery translates a constraint into a RecipeQuery.
func (p *QueryPlanner) BuildQuery(c model.Constraint) RecipeQuery {
	return RecipeQuery{
		Ingredients: c.Ingredients,
		Tags:        c.Tags,
		TagMatch:    p.tagMatch,
		Limit:       MaxResults,
	}
}

// Plan returns the ranked recipes for c. An empty result is not an error here.
func (p *QueryPlanner) Plan(ctx context.Context, c model.Constraint) (model.RankedResult, error) {
	q := p.BuildQuery(c)
	if c.IsEmpty() {
		logging.Ctx(ctx).Warn().Msg("planning a query without ingredients or tags")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := p.store.FindRecipes(ctx, q)
	metrics.StoreQueryDuration.WithLabelValues(q.Branch()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, dependencyError("recipe store", err)
	}

	SortRanked(results, q.Tagged())
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// PlanFirst returns only the best-ranked recipe, or ErrNoMatch.
func (p *QueryPlanner) PlanFirst(ctx context.Context, c model.Constraint) (*model.RankedRecipe, error) {
	results, err := p.Plan(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	first := results[0]
	return &first, nil
}

// SortRanked applies the ranking policy in place. Stores already order their
// rows; sorting again keeps the order identical across backends.
func SortRanked(results model.RankedResult, tagged bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if tagged && a.MatchedTagCount != b.MatchedTagCount {
			return a.MatchedTagCount > b.MatchedTagCount
		}
		if a.ExtraIngredientCount != b.ExtraIngredientCount {
			return a.ExtraIngredientCount < b.ExtraIngredientCount
		}
		return a.ID < b.ID
	})
}
