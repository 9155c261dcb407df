package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

// MockTextGenerator is a mock implementation of service.TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockTagClassifier is a mock implementation of service.TagClassifier
type MockTagClassifier struct {
	mock.Mock
}

func (m *MockTagClassifier) Classify(ctx context.Context, text string, labels []string) ([]service.LabelScore, error) {
	args := m.Called(ctx, text, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.LabelScore), args.Error(1)
}

// MockExtractor is a mock implementation of service.Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string) (model.Constraint, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(model.Constraint), args.Error(1)
}

// MockPlanner is a mock implementation of service.Planner
type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) Plan(ctx context.Context, c model.Constraint) (model.RankedResult, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.RankedResult), args.Error(1)
}
