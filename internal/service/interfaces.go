package service

import (
	"context"

	"github.com/pageza/recipematch/backend/internal/model"
)

// TextGenerator produces free text for a prompt. It backs ingredient extraction
// and the optional Markdown flair step.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TagClassifier scores candidate labels against text. Labels are scored
// independently (multi-label), so scores need not sum to one.
type TagClassifier interface {
	Classify(ctx context.Context, text string, candidateLabels []string) ([]LabelScore, error)
}

// Extractor derives a constraint from free text.
type Extractor interface {
	Extract(ctx context.Context, text string) (model.Constraint, error)
}

// RecipeStore executes ranked recipe queries.
type RecipeStore interface {
	FindRecipes(ctx context.Context, q RecipeQuery) (model.RankedResult, error)
}

// Planner ranks recipes for a constraint.
type Planner interface {
	Plan(ctx context.Context, c model.Constraint) (model.RankedResult, error)
}

// SessionStore holds ranked results and a cursor per conversation.
//
// Create never accepts an empty result list. Advance moves the cursor one step,
// clamped to the last result, and returns the recipe under it. Get returns the
// current position without moving. Unknown or expired ids yield ErrSessionNotFound.
// Delete ends a session early; deleting an unknown id is not an error.
type SessionStore interface {
	Create(ctx context.Context, results model.RankedResult) (string, error)
	Get(ctx context.Context, id string) (model.Page, error)
	Advance(ctx context.Context, id string) (model.Page, error)
	Delete(ctx context.Context, id string) error
}

// Retriever is the surface exposed to transport layers.
type Retriever interface {
	StartQuery(ctx context.Context, text string) (*QueryResult, error)
	AdvanceSession(ctx context.Context, sessionID string) (*QueryResult, error)
	CurrentPage(ctx context.Context, sessionID string) (*QueryResult, error)
	EndSession(ctx context.Context, sessionID string) error
}
