package api_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipematch/backend/internal/api"
	"github.com/pageza/recipematch/backend/internal/middleware"
	"github.com/pageza/recipematch/backend/internal/mocks"
	"github.com/pageza/recipematch/backend/internal/model"
	"github.com/pageza/recipematch/backend/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := api.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupRecipeRouter(t *testing.T) (*gin.Engine, *mocks.MockRetriever) {
	t.Helper()
	retriever := new(mocks.MockRetriever)
	t.Cleanup(func() { retriever.AssertExpectations(t) })

	router := gin.New()
	api.NewRecipeHandler(retriever).RegisterRoutes(router.Group("/api/v1"))
	return router, retriever
}

func do(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func pageResult(id string, index, total int) *service.QueryResult {
	return &service.QueryResult{
		SessionID: id,
		Markdown:  "# Egg Fried Rice\n",
		Recipe:    model.Recipe{ID: 1, Name: "egg fried rice"},
		Index:     index,
		Total:     total,
	}
}

func TestQuery(t *testing.T) {
	router, retriever := setupRecipeRouter(t)
	start := pageResult("s1", 0, 3)
	constraint := model.NewConstraint([]string{"rice", "egg"}, nil)
	start.Constraint = &constraint
	retriever.On("StartQuery", mock.Anything, "rice and eggs please").Return(start, nil)

	rr := do(router, http.MethodPost, "/api/v1/recipes/query", map[string]string{"question": "rice and eggs please"})

	require.Equal(t, http.StatusCreated, rr.Code)
	var got service.QueryResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, "# Egg Fried Rice\n", got.Markdown)
	require.NotNil(t, got.Constraint)
	assert.Equal(t, []string{"rice", "egg"}, got.Constraint.Ingredients)
}

func TestQuery_InvalidBody(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"missing question", map[string]string{}, "question is required"},
		{"blank question", map[string]string{"question": "   "}, "question is required"},
		{"not an object", []int{1, 2}, "request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRecipeRouter(t)
			rr := do(router, http.MethodPost, "/api/v1/recipes/query", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var body middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "invalid_request", body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no match", service.ErrNoMatch, http.StatusNotFound, "no_match"},
		{"timeout", &service.DependencyError{Dependency: "deepseek", Timeout: true, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "dependency_timeout"},
		{"failure", &service.DependencyError{Dependency: "recipe store", Err: fmt.Errorf("connection refused")}, http.StatusBadGateway, "dependency_failure"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, retriever := setupRecipeRouter(t)
			retriever.On("StartQuery", mock.Anything, "anything").Return(nil, tt.err)

			rr := do(router, http.MethodPost, "/api/v1/recipes/query", map[string]string{"question": "anything"})

			assert.Equal(t, tt.status, rr.Code)
			var body middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestQuery_DependencyNameIsReported(t *testing.T) {
	router, retriever := setupRecipeRouter(t)
	retriever.On("StartQuery", mock.Anything, "q").
		Return(nil, &service.DependencyError{Dependency: "recipe store", Err: fmt.Errorf("down")})

	rr := do(router, http.MethodPost, "/api/v1/recipes/query", map[string]string{"question": "q"})
	assert.JSONEq(t, `{"error":"upstream service failed","code":"dependency_failure","message":"recipe store"}`, rr.Body.String())
}

func TestSessionRoutes(t *testing.T) {
	t.Run("next", func(t *testing.T) {
		router, retriever := setupRecipeRouter(t)
		retriever.On("AdvanceSession", mock.Anything, "s1").Return(pageResult("s1", 1, 3), nil)

		rr := do(router, http.MethodPost, "/api/v1/recipes/sessions/s1/next", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var got service.QueryResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 1, got.Index)
		assert.NotContains(t, rr.Body.String(), `"constraint"`)
	})

	t.Run("current", func(t *testing.T) {
		router, retriever := setupRecipeRouter(t)
		retriever.On("CurrentPage", mock.Anything, "s1").Return(pageResult("s1", 2, 3), nil)

		rr := do(router, http.MethodGet, "/api/v1/recipes/sessions/s1", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		router, retriever := setupRecipeRouter(t)
		retriever.On("AdvanceSession", mock.Anything, "gone").Return(nil, service.ErrSessionNotFound)

		rr := do(router, http.MethodPost, "/api/v1/recipes/sessions/gone/next", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "session_not_found")
	})

	t.Run("end", func(t *testing.T) {
		router, retriever := setupRecipeRouter(t)
		retriever.On("EndSession", mock.Anything, "s1").Return(nil)

		rr := do(router, http.MethodDelete, "/api/v1/recipes/sessions/s1", nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestQueryMiddlewareRunsFirst(t *testing.T) {
	retriever := new(mocks.MockRetriever)
	router := gin.New()
	blocked := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	api.NewRecipeHandler(retriever).RegisterRoutes(router.Group("/api/v1"), blocked)

	rr := do(router, http.MethodPost, "/api/v1/recipes/query", map[string]string{"question": "rice"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	retriever.AssertNotCalled(t, "StartQuery", mock.Anything, mock.Anything)
}
