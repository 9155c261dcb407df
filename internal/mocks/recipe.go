package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

// MockRecipeStore is a mock implementation of service.RecipeStore
type MockRecipeStore struct {
	mock.Mock
}

// FindRecipes mocks the FindRecipes method
func (m *MockRecipeStore) FindRecipes(ctx context.Context, q service.RecipeQuery) (model.RankedResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.RankedResult), args.Error(1)
}

// MockRetriever is a mock implementation of service.Retriever
type MockRetriever struct {
	mock.Mock
}

// StartQuery mocks the StartQuery method
func (m *MockRetriever) StartQuery(ctx context.Context, text string) (*service.QueryResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QueryResult), args.Error(1)
}

// AdvanceSession mocks the AdvanceSession method
func (m *MockRetriever) AdvanceSession(ctx context.Context, sessionID string) (*service.QueryResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QueryResult), args.Error(1)
}

// CurrentPage mocks the CurrentPage method
func (m *MockRetriever) CurrentPage(ctx context.Context, sessionID string) (*service.QueryResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QueryResult), args.Error(1)
}

// EndSession mocks the EndSession method
func (m *MockRetriever) EndSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
