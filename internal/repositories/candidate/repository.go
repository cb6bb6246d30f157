package candidate

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/cooljasonmelton/follow-the-money/internal/database"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

var columns = []string{"fec_candidate_id", "name", "party", "office", "state", "district", "election_year", "status", "raw", "created_at", "updated_at"}

// Repository handles normalized candidate persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new candidate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult reports whether the upsert inserted a new row.
type UpsertResult struct {
	Candidate *models.Candidate
	IsNew     bool
}

type upsertRow struct {
	models.Candidate
	Inserted bool `db:"inserted"`
}

const upsertQuery = `
	INSERT INTO candidates (fec_candidate_id, name, party, office, state, district, election_year, status, raw, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (fec_candidate_id) DO UPDATE SET
		name = EXCLUDED.name,
		party = EXCLUDED.party,
		office = EXCLUDED.office,
		state = EXCLUDED.state,
		district = EXCLUDED.district,
		election_year = EXCLUDED.election_year,
		status = EXCLUDED.status,
		raw = EXCLUDED.raw,
		updated_at = EXCLUDED.updated_at
	RETURNING fec_candidate_id, name, party, office, state, district, election_year, status, raw, created_at, updated_at, (xmax = 0) AS inserted
`

// Upsert creates or updates a candidate keyed by FEC candidate id. created_at
// sticks to the first insert; conflicting upserts only move updated_at.
func (r *Repository) Upsert(ctx context.Context, req models.UpsertCandidateRequest) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	createdAt := now
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}

	exec := database.ExecutorFromContext(ctx, r.db)
	row := exec.QueryRowxContext(ctx, upsertQuery,
		req.FECCandidateID, req.Name, req.Party, req.Office, req.State, req.District, req.ElectionYear, req.Status, []byte(req.Raw), createdAt, now)

	var result upsertRow
	if err := row.StructScan(&result); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_candidate_id": req.FECCandidateID}).Error("Failed to upsert candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert candidate")
	}
	return &UpsertResult{Candidate: &result.Candidate, IsNew: result.Inserted}, nil
}

// GetByID returns a candidate, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, fecCandidateID string) (*models.Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("candidates")
	sb.Where(sb.Equal("fec_candidate_id", fecCandidateID))
	sb.Limit(1)

	query, args := sb.Build()
	var candidate models.Candidate
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &candidate, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_candidate_id": fecCandidateID}).Error("Failed to get candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get candidate")
	}
	return &candidate, nil
}

// KnownIDs returns which of the given FEC candidate ids exist.
func (r *Repository) KnownIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.KnownIDs")
	defer span.End()

	known := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return known, nil
	}

	var found []string
	exec := database.ExecutorFromContext(ctx, r.db)
	query := `SELECT fec_candidate_id FROM candidates WHERE fec_candidate_id = ANY($1)`
	if err := exec.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id_count": len(ids)}).Error("Failed to resolve known candidate ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve known candidate ids")
	}
	for _, id := range found {
		known[id] = struct{}{}
	}
	return known, nil
}

// List pages candidates in id order.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("candidates")
	sb.OrderBy("fec_candidate_id ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var candidates []models.Candidate
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"offset": offset}).Error("Failed to list candidates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list candidates")
	}
	return candidates, nil
}

// Count returns the total number of candidates.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Repository.Count")
	defer span.End()

	var count int
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM candidates`); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count candidates")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count candidates")
	}
	return count, nil
}
