package committee

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

var columns = []string{"fec_committee_id", "name", "committee_type", "party", "state", "connected_org", "status", "raw", "created_at", "updated_at"}

// Repository handles normalized committee persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new committee repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult reports whether the upsert inserted a new row.
type UpsertResult struct {
	Committee *models.Committee
	IsNew     bool
}

type upsertRow struct {
	models.Committee
	Inserted bool `db:"inserted"`
}

const upsertQuery = `
	INSERT INTO committees (fec_committee_id, name, committee_type, party, state, connected_org, status, raw, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (fec_committee_id) DO UPDATE SET
		name = EXCLUDED.name,
		committee_type = EXCLUDED.committee_type,
		party = EXCLUDED.party,
		state = EXCLUDED.state,
		connected_org = EXCLUDED.connected_org,
		status = EXCLUDED.status,
		raw = EXCLUDED.raw,
		updated_at = EXCLUDED.updated_at
	RETURNING fec_committee_id, name, committee_type, party, state, connected_org, status, raw, created_at, updated_at, (xmax = 0) AS inserted
`

// Upsert creates or updates a committee keyed by FEC committee id. created_at
// sticks to the first insert; conflicting upserts only move updated_at.
func (r *Repository) Upsert(ctx context.Context, req models.UpsertCommitteeRequest) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	createdAt := now
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}

	exec := database.ExecutorFromContext(ctx, r.db)
	row := exec.QueryRowxContext(ctx, upsertQuery,
		req.FECCommitteeID, req.Name, req.CommitteeType, req.Party, req.State, req.ConnectedOrg, req.Status, []byte(req.Raw), createdAt, now)

	var result upsertRow
	if err := row.StructScan(&result); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_committee_id": req.FECCommitteeID}).Error("Failed to upsert committee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert committee")
	}
	return &UpsertResult{Committee: &result.Committee, IsNew: result.Inserted}, nil
}

// GetByID returns a committee, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, fecCommitteeID string) (*models.Committee, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("committees")
	sb.Where(sb.Equal("fec_committee_id", fecCommitteeID))
	sb.Limit(1)

	query, args := sb.Build()
	var committee models.Committee
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &committee, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_committee_id": fecCommitteeID}).Error("Failed to get committee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get committee")
	}
	return &committee, nil
}

// KnownIDs returns which of the given FEC committee ids exist.
func (r *Repository) KnownIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.KnownIDs")
	defer span.End()

	known := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return known, nil
	}

	var found []string
	exec := database.ExecutorFromContext(ctx, r.db)
	query := `SELECT fec_committee_id FROM committees WHERE fec_committee_id = ANY($1)`
	if err := exec.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id_count": len(ids)}).Error("Failed to resolve known committee ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve known committee ids")
	}
	for _, id := range found {
		known[id] = struct{}{}
	}
	return known, nil
}

// List pages committees in id order.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Committee, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("committees")
	sb.OrderBy("fec_committee_id ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var committees []models.Committee
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &committees, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"offset": offset}).Error("Failed to list committees")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list committees")
	}
	return committees, nil
}

// Count returns the total number of committees.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.Count")
	defer span.End()

	var count int
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM committees`); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count committees")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count committees")
	}
	return count, nil
}
