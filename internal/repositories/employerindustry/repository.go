package employerindustry

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

// Repository handles employer-to-industry classification persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new employer industry repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const upsertQuery = `
	INSERT INTO employer_industries (employer_hash, industry_code, confidence, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (employer_hash, industry_code) DO NOTHING
`

// Upsert records that an employer belongs to an industry. Re-classifying the
// same pair is a no-op; the first confidence sticks.
func (r *Repository) Upsert(ctx context.Context, employerHash, industryCode string, confidence float64) error {
	ctx, span := tracing.StartSpan(ctx, "employerindustry.Repository.Upsert")
	defer span.End()

	exec := database.ExecutorFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, upsertQuery, employerHash, industryCode, confidence, time.Now().UTC()); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"employer_hash": employerHash, "industry_code": industryCode}).Error("Failed to upsert employer industry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert employer industry")
	}
	return nil
}

// ListByEmployer returns the industries an employer is classified into.
func (r *Repository) ListByEmployer(ctx context.Context, employerHash string) ([]models.EmployerIndustry, error) {
	ctx, span := tracing.StartSpan(ctx, "employerindustry.Repository.ListByEmployer")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("employer_hash", "industry_code", "confidence", "created_at")
	sb.From("employer_industries")
	sb.Where(sb.Equal("employer_hash", employerHash))
	sb.OrderBy("industry_code ASC")

	query, args := sb.Build()
	var links []models.EmployerIndustry
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &links, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"employer_hash": employerHash}).Error("Failed to list employer industries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list employer industries")
	}
	return links, nil
}
