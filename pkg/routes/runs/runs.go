package runs

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/cooljasonmelton/follow-the-money/internal/repositories/ingestrun"
	"github.com/cooljasonmelton/follow-the-money/pkg/pipeline"
	"github.com/cooljasonmelton/follow-the-money/pkg/validation"
)

// Handler exposes ingest runs over HTTP
type Handler struct {
	runs      *ingestrun.Repository
	pipeline  *pipeline.Pipeline
	validator *validation.Runner
	logger    ectologger.Logger
}

// NewHandler creates a new runs handler
func NewHandler(runs *ingestrun.Repository, pipe *pipeline.Pipeline, validator *validation.Runner, logger ectologger.Logger) *Handler {
	return &Handler{
		runs:      runs,
		pipeline:  pipe,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes registers run endpoints
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/runs", h.ListRuns)
	g.GET("/runs/:id", h.GetRun)
	g.POST("/runs/:id/normalize", h.NormalizeRun)
	g.POST("/runs/:id/validate", h.ValidateRun)
}

// ListRuns lists ingest runs newest first
func (h *Handler) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	runs, err := h.runs.List(ctx, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runs)
}

// GetRun returns a single run
func (h *Handler) GetRun(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := h.runs.GetByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if run == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, run)
}

// NormalizeRun runs normalization over a staged run
func (h *Handler) NormalizeRun(c echo.Context) error {
	ctx := c.Request().Context()
	runID := c.Param("id")

	counts, err := h.pipeline.Run(ctx, runID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"run_id":     runID,
		"row_counts": counts,
	})
}

// ValidateRun validates a succeeded run
func (h *Handler) ValidateRun(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.validator.Validate(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	code := http.StatusOK
	if !report.Passed {
		code = http.StatusUnprocessableEntity
	}
	return c.JSON(code, report)
}
