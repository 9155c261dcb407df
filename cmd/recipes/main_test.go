package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipematch/backend/internal/mocks"
	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

func page(index, total int, name string) *service.QueryResult {
	return &service.QueryResult{
		SessionID: "s1",
		Markdown:  "### " + name + "\n",
		Recipe:    model.Recipe{Name: name},
		Index:     index,
		Total:     total,
	}
}

func identity(md string) (string, error) { return md, nil }

func TestConverse_PagesUntilLast(t *testing.T) {
	r := new(mocks.MockRetriever)
	r.On("StartQuery", mock.Anything, "rice and egg").Return(page(0, 3, "Egg Fried Rice"), nil)
	r.On("AdvanceSession", mock.Anything, "s1").Return(page(1, 3, "Omurice"), nil).Once()
	r.On("AdvanceSession", mock.Anything, "s1").Return(page(2, 3, "Congee"), nil).Once()
	r.On("EndSession", mock.Anything, "s1").Return(nil)

	var out bytes.Buffer
	err := converse(context.Background(), r, "rice and egg", strings.NewReader("\nnext\n"), &out, identity)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "### Egg Fried Rice\n\n(1 of 3)")
	assert.Contains(t, text, "(2 of 3)")
	assert.Contains(t, text, "### Congee")
	assert.Contains(t, text, "That was the last match.")
	r.AssertExpectations(t)
}

func TestConverse_Quit(t *testing.T) {
	r := new(mocks.MockRetriever)
	r.On("StartQuery", mock.Anything, "rice").Return(page(0, 3, "Egg Fried Rice"), nil)
	r.On("EndSession", mock.Anything, "s1").Return(nil)

	var out bytes.Buffer
	require.NoError(t, converse(context.Background(), r, "rice", strings.NewReader("what\nquit\n"), &out, identity))

	assert.Contains(t, out.String(), `Type "next" or "quit".`)
	r.AssertNotCalled(t, "AdvanceSession", mock.Anything, mock.Anything)
	r.AssertExpectations(t)
}

func TestConverse_UnknownCommandKeepsPrompting(t *testing.T) {
	r := new(mocks.MockRetriever)
	r.On("StartQuery", mock.Anything, "rice").Return(page(0, 3, "Egg Fried Rice"), nil)
	r.On("AdvanceSession", mock.Anything, "s1").Return(page(1, 3, "Omurice"), nil).Once()
	r.On("EndSession", mock.Anything, "s1").Return(nil)

	var out bytes.Buffer
	require.NoError(t, converse(context.Background(), r, "rice", strings.NewReader("what\nhuh\nnext\nquit\n"), &out, identity))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "### Egg Fried Rice"), "recipe is shown once")
	assert.Equal(t, 2, strings.Count(text, `Type "next" or "quit".`))
	assert.Equal(t, 1, strings.Count(text, "### Omurice"))
	r.AssertNumberOfCalls(t, "AdvanceSession", 1)
	r.AssertExpectations(t)
}

func TestConverse_NoMatch(t *testing.T) {
	r := new(mocks.MockRetriever)
	r.On("StartQuery", mock.Anything, "durian").Return(nil, service.ErrNoMatch)

	var out bytes.Buffer
	require.NoError(t, converse(context.Background(), r, "durian", strings.NewReader(""), &out, identity))
	assert.Contains(t, out.String(), "No recipes match")
}

func TestConverse_DependencyFailure(t *testing.T) {
	r := new(mocks.MockRetriever)
	r.On("StartQuery", mock.Anything, "rice").Return(nil, &service.DependencyError{Dependency: "recipe store", Err: assert.AnError})

	err := converse(context.Background(), r, "rice", strings.NewReader(""), &bytes.Buffer{}, identity)
	assert.ErrorIs(t, err, service.ErrDependencyFailure)
}

func TestConverse_EndOfInput(t *testing.T) {
	r := new(mocks.MockRetriever)
	r.On("StartQuery", mock.Anything, "rice").Return(page(0, 2, "Egg Fried Rice"), nil)
	r.On("EndSession", mock.Anything, "s1").Return(nil)

	require.NoError(t, converse(context.Background(), r, "rice", strings.NewReader(""), &bytes.Buffer{}, identity))
	r.AssertExpectations(t)
}
