package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipematch/backend/internal/mocks"
	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

func sampleRecipe() model.Recipe {
	return model.Recipe{
		ID:          42,
		Name:        "egg fried rice",
		Description: "a quick weeknight dinner",
		Ingredients: []string{"rice", "egg", "soy sauce"},
		Steps:       []string{"cook the rice", "scramble the eggs", "fry everything together"},
	}
}

func TestRender(t *testing.T) {
	want := "### 🍽️ Egg Fried Rice\n\n" +
		"#### ✒️ Description:\n" +
		"a quick weeknight dinner\n\n" +
		"#### 📋 Ingredients:\n" +
		"- rice\n" +
		"- egg\n" +
		"- soy sauce\n\n" +
		"#### 🍳 Steps:\n" +
		"1. cook the rice\n" +
		"2. scramble the eggs\n" +
		"3. fry everything together\n"

	assert.Equal(t, want, service.Render(sampleRecipe()))
}

func TestRender_NoDescription(t *testing.T) {
	r := sampleRecipe()
	r.Description = "   "
	md := service.Render(r)
	assert.NotContains(t, md, "Description")
	assert.True(t, strings.HasPrefix(md, "### 🍽️ Egg Fried Rice\n\n#### 📋 Ingredients:\n"))
}

func TestRender_SerializedSteps(t *testing.T) {
	r := sampleRecipe()
	r.Steps = []string{"['boil water', 'add pasta', \"drain\"]"}
	md := service.Render(r)
	assert.Contains(t, md, "1. boil water\n2. add pasta\n3. drain\n")
}

func TestRender_KeepsApostrophesInSteps(t *testing.T) {
	r := sampleRecipe()
	r.Steps = []string{"don't overcook the egg"}
	assert.Contains(t, service.Render(r), "1. don't overcook the egg\n")
}

func TestPolish(t *testing.T) {
	in := "### 🍽️ egg FRIED rice\n\n#### 📋 ingredients:\n- rice\n* eGG\n\n#### 🍳 steps:\n1. cook it\n10. serve\nenjoy!"
	want := "### 🍽️ Egg Fried Rice\n\n#### 📋 Ingredients:\n- Rice\n* EGG\n\n#### 🍳 Steps:\n1. Cook it\n10. Serve\nEnjoy!"
	assert.Equal(t, want, service.Polish(in))
}

func TestPolish_TitleCaseWords(t *testing.T) {
	tests := map[string]string{
		"## grandma's apple pie": "## Grandma's Apple Pie",
		"# 30-minute chili":      "# 30-Minute Chili",
		"#### mac & cheese":      "#### Mac & Cheese",
	}
	for in, want := range tests {
		assert.Equal(t, want, service.Polish(in), in)
	}
}

func TestPolish_Idempotent(t *testing.T) {
	once := service.Polish(service.Render(sampleRecipe()))
	assert.Equal(t, once, service.Polish(once))
}

func TestFlairWriter(t *testing.T) {
	ctx := context.Background()
	md := service.Polish(service.Render(sampleRecipe()))

	t.Run("decorates", func(t *testing.T) {
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, md)
		})).Return("  Here you go! 🎉\n\n"+md, nil)

		out := service.NewFlairWriter(gen).AddFlair(ctx, md)
		assert.True(t, strings.HasPrefix(out, "Here you go!"))
		assert.Contains(t, out, "Egg Fried Rice")
	})

	t.Run("falls back on error", func(t *testing.T) {
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))
		assert.Equal(t, md, service.NewFlairWriter(gen).AddFlair(ctx, md))
	})

	t.Run("falls back on empty reply", func(t *testing.T) {
		gen := new(mocks.MockTextGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(" \n", nil)
		assert.Equal(t, md, service.NewFlairWriter(gen).AddFlair(ctx, md))
	})

	t.Run("nil writer is a no-op", func(t *testing.T) {
		var f *service.FlairWriter
		assert.Equal(t, md, f.AddFlair(ctx, md))
	})
}
