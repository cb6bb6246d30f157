package employer

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

var columns = []string{"employer_hash", "normalized_name", "raw_name", "city", "state", "country", "created_at", "updated_at"}

// Repository handles canonicalized employer persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new employer repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const upsertQuery = `
	INSERT INTO employers (employer_hash, normalized_name, raw_name, city, state, country, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (employer_hash) DO UPDATE SET
		city = COALESCE(EXCLUDED.city, employers.city),
		state = COALESCE(EXCLUDED.state, employers.state),
		country = COALESCE(EXCLUDED.country, employers.country),
		updated_at = EXCLUDED.updated_at
	RETURNING employer_hash, normalized_name, raw_name, city, state, country, created_at, updated_at
`

// Upsert creates the employer row on first sight of a hash. Later rows fill
// location fields in when they carry them, but never clear a filled one.
func (r *Repository) Upsert(ctx context.Context, req models.UpsertEmployerRequest) (*models.Employer, error) {
	ctx, span := tracing.StartSpan(ctx, "employer.Repository.Upsert")
	defer span.End()

	exec := database.ExecutorFromContext(ctx, r.db)
	row := exec.QueryRowxContext(ctx, upsertQuery,
		req.EmployerHash, req.NormalizedName, req.RawName, req.City, req.State, req.Country, time.Now().UTC())

	var employer models.Employer
	if err := row.StructScan(&employer); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"employer_hash": req.EmployerHash, "normalized_name": req.NormalizedName}).Error("Failed to upsert employer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert employer")
	}
	return &employer, nil
}

// GetByHash returns an employer, or nil when it does not exist.
func (r *Repository) GetByHash(ctx context.Context, employerHash string) (*models.Employer, error) {
	ctx, span := tracing.StartSpan(ctx, "employer.Repository.GetByHash")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("employers")
	sb.Where(sb.Equal("employer_hash", employerHash))
	sb.Limit(1)

	query, args := sb.Build()
	var employer models.Employer
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &employer, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"employer_hash": employerHash}).Error("Failed to get employer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get employer")
	}
	return &employer, nil
}

// List pages employers in hash order.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Employer, error) {
	ctx, span := tracing.StartSpan(ctx, "employer.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("employers")
	sb.OrderBy("employer_hash ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var employers []models.Employer
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &employers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"offset": offset}).Error("Failed to list employers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list employers")
	}
	return employers, nil
}

// Count returns the total number of distinct employers.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "employer.Repository.Count")
	defer span.End()

	var count int
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM employers`); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count employers")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count employers")
	}
	return count, nil
}
