package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/metrics"
	"github.com/pageza/recipematch/backend/internal/model"
)

// QueryResult is one rendered page of a session.
type QueryResult struct {
	SessionID string       `json:"session_id"`
	Markdown  string       `json:"markdown"`
	Recipe    model.Recipe `json:"recipe"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	// Constraint is set only on the page that starts a session.
	Constraint *model.Constraint `json:"constraint,omitempty"`
}

// RetrievalService composes extraction, planning, sessions and rendering.
type RetrievalService struct {
	extractor Extractor
	planner   Planner
	sessions  SessionStore
	flair     *FlairWriter
}

// NewRetrievalService creates a new RetrievalService instance. flair may be nil
// to skip the decoration step.
func NewRetrievalService(extractor Extractor, planner Planner, sessions SessionStore, flair *FlairWriter) *RetrievalService {
	return &RetrievalService{
		extractor: extractor,
		planner:   planner,
		sessions:  sessions,
		flair:     flair,
	}
}

// StartQuery extracts a constraint from text, ranks recipes, opens a session
// over the ranking and renders its first entry. Zero matches fail with
// ErrNoMatch and leave no session behind.
func (s *RetrievalService) StartQuery(ctx context.Context, text string) (result *QueryResult, err error) {
	defer func() { observeOutcome("start", err) }()

	constraint, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	ranked, err := s.planner.Plan(ctx, constraint)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		logging.Ctx(ctx).Info().Strs("ingredients", constraint.Ingredients).Strs("tags", constraint.Tags).Msg("no recipes matched")
		return nil, ErrNoMatch
	}

	id, err := s.sessions.Create(ctx, ranked)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	page := model.Page{Recipe: ranked[0].Recipe, Index: 0, Total: len(ranked)}
	res := s.present(ctx, id, page)
	res.Constraint = &constraint
	return res, nil
}

// AdvanceSession moves the session to its next recipe. Past the last recipe
// the last one is returned again.
func (s *RetrievalService) AdvanceSession(ctx context.Context, sessionID string) (result *QueryResult, err error) {
	defer func() { observeOutcome("advance", err) }()

	page, err := s.sessions.Advance(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, sessionID, page), nil
}

// CurrentPage renders the session's current recipe without moving the cursor.
func (s *RetrievalService) CurrentPage(ctx context.Context, sessionID string) (result *QueryResult, err error) {
	defer func() { observeOutcome("current", err) }()

	page, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, sessionID, page), nil
}

// EndSession discards a session.
func (s *RetrievalService) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *RetrievalService) present(ctx context.Context, sessionID string, page model.Page) *QueryResult {
	md := Polish(Render(page.Recipe))
	if s.flair != nil {
		md = s.flair.AddFlair(ctx, md)
	}
	return &QueryResult{
		SessionID: sessionID,
		Markdown:  md,
		Recipe:    page.Recipe,
		Index:     page.Index,
		Total:     page.Total,
	}
}

// Outcome names the error class of err for logs, metrics and HTTP mapping.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrDependencyTimeout):
		return "dependency_timeout"
	case errors.Is(err, ErrDependencyFailure):
		return "dependency_failure"
	default:
		return "internal"
	}
}

func observeOutcome(op string, err error) {
	metrics.RetrievalOutcomes.WithLabelValues(op, Outcome(err)).Inc()
}
