package employers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/cooljasonmelton/follow-the-money/internal/repositories/employer"
	"github.com/cooljasonmelton/follow-the-money/pkg/normalize"
)

// Handler exposes canonicalized employers over HTTP
type Handler struct {
	employers *employer.Repository
	logger    ectologger.Logger
}

// NewHandler creates a new employers handler
func NewHandler(employers *employer.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		employers: employers,
		logger:    logger,
	}
}

// RegisterRoutes registers employer endpoints
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/employers/lookup", h.Lookup)
	g.GET("/employers/:hash", h.GetByHash)
}

// Lookup canonicalizes a raw employer name and returns the matching employer
// row, if one was ever seen.
func (h *Handler) Lookup(c echo.Context) error {
	ctx := c.Request().Context()

	name := c.QueryParam("name")
	if name == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "name query parameter is required")
	}

	normalized := normalize.NormalizeName(name)
	hash := normalize.EmployerHash(normalized)

	emp, err := h.employers.GetByHash(ctx, hash)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"normalized_name": normalized,
		"employer_hash":   hash,
		"employer":        emp,
	})
}

// GetByHash returns one employer by its canonical hash
func (h *Handler) GetByHash(c echo.Context) error {
	ctx := c.Request().Context()

	emp, err := h.employers.GetByHash(ctx, c.Param("hash"))
	if err != nil {
		return err
	}
	if emp == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "employer not found")
	}
	return c.JSON(http.StatusOK, emp)
}
