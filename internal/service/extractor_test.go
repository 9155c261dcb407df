package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/mocks"
	"github.com/pageza/recipematch/backend/internal/service"
)

func TestParseIngredientList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"labelled", "Ingredients: rice, egg, pork", []string{"rice", "egg", "pork"}},
		{"label case-insensitive", "INGREDIENTS:flour ,sugar", []string{"flour", "sugar"}},
		{"raw list", "rice, egg", []string{"rice", "egg"}},
		{"duplicates collapsed", "rice, rice, egg", []string{"rice", "egg"}},
		{"empties dropped", " , rice,, ", []string{"rice"}},
		{"only first colon splits", "Ingredients: soy sauce: dark, ginger", []string{"soy sauce: dark", "ginger"}},
		{"nothing parseable", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ParseIngredientList(tt.in))
		})
	}
}

func TestAcceptedLabels(t *testing.T) {
	scores := []service.LabelScore{
		{Label: "asian", Score: 0.93},
		{Label: "30-minutes-or-less", Score: 0.8},
		{Label: "vegan", Score: 0.79},
	}
	assert.Equal(t, []string{"asian", "30-minutes-or-less"}, service.AcceptedLabels(scores, 0.8))
}

func TestConstraintExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	text := `I have rice, egg and pork, something "Asian" under 30 minutes`

	gen := new(mocks.MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "User: \"I have rice, egg and pork, something 'Asian' under 30 minutes\"")
	})).Return("Ingredients: Rice, egg, pork, rice", nil)

	cls := new(mocks.MockTagClassifier)
	cls.On("Classify", mock.Anything, text, service.TagTaxonomy).Return([]service.LabelScore{
		{Label: "asian", Score: 0.95},
		{Label: "30-minutes-or-less", Score: 0.9},
		{Label: "60-minutes-or-less", Score: 0.85},
		{Label: "vegan", Score: 0.1},
	}, nil)

	ex := service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{})
	c, err := ex.Extract(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, []string{"rice", "egg", "pork"}, c.Ingredients)
	assert.Equal(t, []string{"asian", "60-minutes-or-less"}, c.Tags)
	gen.AssertExpectations(t)
	cls.AssertExpectations(t)
}

func TestConstraintExtractor_DegradesOnSingleFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("classifier down keeps ingredients", func(t *testing.T) {
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("egg", nil)
		cls := new(mocks.MockTagClassifier)
		cls.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("503"))

		c, err := service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{}).Extract(ctx, "egg please")
		require.NoError(t, err)
		assert.Equal(t, []string{"egg"}, c.Ingredients)
		assert.Empty(t, c.Tags)
	})

	t.Run("generator down keeps tags", func(t *testing.T) {
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))
		cls := new(mocks.MockTagClassifier)
		cls.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return([]service.LabelScore{{Label: "vegan", Score: 0.99}}, nil)

		c, err := service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{}).Extract(ctx, "vegan food")
		require.NoError(t, err)
		assert.Empty(t, c.Ingredients)
		assert.Equal(t, []string{"vegan"}, c.Tags)
	})

	t.Run("unparseable generator output is empty", func(t *testing.T) {
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(" , ,", nil)
		cls := new(mocks.MockTagClassifier)
		cls.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return([]service.LabelScore{}, nil)

		c, err := service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{}).Extract(ctx, "hmm")
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})
}

func TestConstraintExtractor_BothFail(t *testing.T) {
	gen := new(mocks.MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("boom"))
	cls := new(mocks.MockTagClassifier)
	cls.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{}).Extract(context.Background(), "rice")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrDependencyFailure)
	assert.NotErrorIs(t, err, service.ErrDependencyTimeout)
}

func TestConstraintExtractor_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	extract := func(genErr, clsErr error) string {
		buf.Reset()
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("rice", genErr)
		cls := new(mocks.MockTagClassifier)
		cls.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return([]service.LabelScore{}, clsErr)
		_, _ = service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{}).Extract(context.Background(), "rice")
		return buf.String()
	}

	out := extract(errors.New("boom"), errors.New("boom"))
	assert.Contains(t, out, "constraint extraction failed")
	assert.Contains(t, out, `"level":"error"`)
	assert.NotContains(t, out, "continuing without")

	out = extract(nil, errors.New("503"))
	assert.Contains(t, out, "continuing without tags")
	assert.NotContains(t, out, "continuing without ingredients")
	assert.NotContains(t, out, "constraint extraction failed")
}

func TestConstraintExtractor_CallTimeout(t *testing.T) {
	blocked := func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}
	gen := new(mocks.MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Run(blocked).Return("", context.DeadlineExceeded)
	cls := new(mocks.MockTagClassifier)
	cls.On("Classify", mock.Anything, mock.Anything, mock.Anything).Run(blocked).Return(nil, context.DeadlineExceeded)

	ex := service.NewConstraintExtractor(gen, cls, service.ExtractorConfig{CallTimeout: 20 * time.Millisecond})
	_, err := ex.Extract(context.Background(), "rice")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrDependencyTimeout)
}
