package scores

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/cooljasonmelton/follow-the-money/internal/repositories/leaningscore"
	"github.com/cooljasonmelton/follow-the-money/pkg/graph"
	"github.com/cooljasonmelton/follow-the-money/pkg/leaning"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// Handler exposes leaning scores over HTTP
type Handler struct {
	scores     *leaningscore.Repository
	calculator *leaning.Calculator
	flow       *graph.FlowService
	logger     ectologger.Logger
	validate   *validator.Validate
}

// NewHandler creates a new scores handler. flow may be nil when the graph
// projection is disabled.
func NewHandler(scores *leaningscore.Repository, calculator *leaning.Calculator, flow *graph.FlowService, logger ectologger.Logger) *Handler {
	return &Handler{
		scores:     scores,
		calculator: calculator,
		flow:       flow,
		logger:     logger,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers score endpoints
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/scores", h.ListScores)
	g.GET("/scores/:entityType/:entityKey/latest", h.GetLatestScore)
	g.POST("/scores/compute", h.ComputeScores)
	g.GET("/committees/:id/funders", h.GetCommitteeFunders)
}

// ListScores lists scores, optionally filtered by entity
func (h *Handler) ListScores(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	items, total, err := h.scores.List(ctx, leaningscore.ListFilter{
		EntityType: c.QueryParam("entity_type"),
		EntityKey:  c.QueryParam("entity_key"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.LeaningScoreListResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetLatestScore returns the newest score for one entity
func (h *Handler) GetLatestScore(c echo.Context) error {
	ctx := c.Request().Context()

	score, err := h.scores.GetLatest(ctx, c.Param("entityType"), c.Param("entityKey"))
	if err != nil {
		return err
	}
	if score == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no score for entity")
	}
	return c.JSON(http.StatusOK, score)
}

// ComputeScoresRequest triggers a score computation
type ComputeScoresRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// ComputeScores recomputes the score window ending at as_of (default today)
func (h *Handler) ComputeScores(c echo.Context) error {
	ctx := c.Request().Context()

	var req ComputeScoresRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
		asOf = parsed
	}

	written, err := h.calculator.Compute(ctx, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"as_of":          asOf.Format("2006-01-02"),
		"scores_written": written,
	})
}

// GetCommitteeFunders returns the employers funding a committee from the
// graph projection
func (h *Handler) GetCommitteeFunders(c echo.Context) error {
	ctx := c.Request().Context()

	if h.flow == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph projection is disabled")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	funders, err := h.flow.Neighborhood(ctx, c.Param("id"), limit)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read funders")
	}
	return c.JSON(http.StatusOK, funders)
}
