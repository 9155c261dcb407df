package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/middleware"
	"github.com/pageza/recipematch/backend/internal/service"
)

// QueryRequest is the body of POST /recipes/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required,notblank,max=2000"`
}

type RecipeHandler struct {
	retriever service.Retriever
}

func NewRecipeHandler(retriever service.Retriever) *RecipeHandler {
	return &RecipeHandler{retriever: retriever}
}

// RegisterRoutes mounts the query and session routes under router. Extra
// handlers, such as a rate limiter, run in front of the query route only.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, queryMiddleware ...gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		recipes.POST("/query", append(queryMiddleware, h.Query)...)
		recipes.GET("/sessions/:id", h.Current)
		recipes.POST("/sessions/:id/next", h.Next)
		recipes.DELETE("/sessions/:id", h.End)
	}
}

// Query starts a new retrieval session from a free-text question.
func (h *RecipeHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{
			Error:   "invalid request",
			Code:    "invalid_request",
			Message: bindingMessage(err),
		})
		return
	}

	res, err := h.retriever.StartQuery(c.Request.Context(), req.Question)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Next advances the session and returns its next recipe.
func (h *RecipeHandler) Next(c *gin.Context) {
	res, err := h.retriever.AdvanceSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Current returns the session's current recipe.
func (h *RecipeHandler) Current(c *gin.Context) {
	res, err := h.retriever.CurrentPage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// End discards the session.
func (h *RecipeHandler) End(c *gin.Context) {
	if err := h.retriever.EndSession(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) fail(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	log := logging.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", resp.Code).Msg("recipe request failed")
	} else {
		log.Info().Err(err).Str("code", resp.Code).Msg("recipe request rejected")
	}
	c.JSON(status, resp)
}

// errorResponse maps a retrieval error onto its HTTP status and body.
func errorResponse(err error) (int, middleware.ErrorResponse) {
	outcome := service.Outcome(err)
	switch outcome {
	case "no_match":
		return http.StatusNotFound, middleware.ErrorResponse{Error: "no matching recipes", Code: outcome}
	case "session_not_found":
		return http.StatusNotFound, middleware.ErrorResponse{Error: "session not found or expired", Code: outcome}
	case "dependency_timeout":
		return http.StatusGatewayTimeout, middleware.ErrorResponse{Error: "upstream service timed out", Code: outcome, Message: dependencyName(err)}
	case "dependency_failure":
		return http.StatusBadGateway, middleware.ErrorResponse{Error: "upstream service failed", Code: outcome, Message: dependencyName(err)}
	default:
		return http.StatusInternalServerError, middleware.ErrorResponse{Error: "Internal Server Error", Code: "internal"}
	}
}

func dependencyName(err error) string {
	var de *service.DependencyError
	if errors.As(err, &de) {
		return de.Dependency
	}
	return ""
}
