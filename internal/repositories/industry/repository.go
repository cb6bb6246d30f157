package industry

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/cooljasonmelton/follow-the-money/internal/database"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// Repository handles industry classification persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new industry repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const upsertQuery = `
	INSERT INTO industries (code, name, sector, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (code) DO UPDATE SET
		name = EXCLUDED.name,
		sector = EXCLUDED.sector
`

// Seed makes sure every industry in the rule set has a row before
// classification references them.
func (r *Repository) Seed(ctx context.Context, industries []models.Industry) error {
	ctx, span := tracing.StartSpan(ctx, "industry.Repository.Seed")
	defer span.End()

	now := time.Now().UTC()
	exec := database.ExecutorFromContext(ctx, r.db)
	for _, ind := range industries {
		if _, err := exec.ExecContext(ctx, upsertQuery, ind.Code, ind.Name, ind.Sector, now); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"code": ind.Code}).Error("Failed to seed industry")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to seed industry")
		}
	}
	return nil
}

// List returns all industries ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Industry, error) {
	ctx, span := tracing.StartSpan(ctx, "industry.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("code", "name", "sector", "created_at")
	sb.From("industries")
	sb.OrderBy("code ASC")

	query, args := sb.Build()
	var industries []models.Industry
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &industries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list industries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list industries")
	}
	return industries, nil
}
