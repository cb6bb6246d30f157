package contribution

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

// Repository handles normalized contribution persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contribution repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const insertQuery = `
	INSERT INTO contributions (fec_record_id, ingest_run_id, fec_candidate_id, fec_committee_id, employer_hash, industry_code, contributor_name, occupation, amount_cents, transaction_date, cycle, receipt_type, memo, is_individual, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (fec_record_id) DO NOTHING
`

// Insert writes one normalized receipt. A duplicate fec_record_id is dropped
// and reported as inserted=false so the first-seen row always wins.
func (r *Repository) Insert(ctx context.Context, req models.CreateContributionRequest) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contribution.Repository.Insert")
	defer span.End()

	exec := database.ExecutorFromContext(ctx, r.db)
	result, err := exec.ExecContext(ctx, insertQuery,
		req.FECRecordID, req.IngestRunID, req.FECCandidateID, req.FECCommitteeID, req.EmployerHash,
		req.IndustryCode, req.ContributorName, req.Occupation, req.AmountCents, req.TransactionDate,
		req.Cycle, req.ReceiptType, req.Memo, req.IsIndividual, time.Now().UTC())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_record_id": req.FECRecordID, "run_id": req.IngestRunID}).Error("Failed to insert contribution")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert contribution")
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// ListForWindow returns every contribution dated inside [start, end] with the
// funded committee's party joined in. Rows with no transaction date fall
// outside every window.
func (r *Repository) ListForWindow(ctx context.Context, start, end time.Time) ([]models.ContributionWindowRow, error) {
	ctx, span := tracing.StartSpan(ctx, "contribution.Repository.ListForWindow")
	defer span.End()

	query := `
		SELECT c.fec_candidate_id, c.fec_committee_id, c.employer_hash, c.industry_code, c.amount_cents, cm.party AS committee_party
		FROM contributions c
		LEFT JOIN committees cm ON cm.fec_committee_id = c.fec_committee_id
		WHERE c.transaction_date >= $1 AND c.transaction_date <= $2
	`

	var rows []models.ContributionWindowRow
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &rows, query, start, end); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"window_start": start, "window_end": end}).Error("Failed to list contributions for window")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contributions for window")
	}
	return rows, nil
}

// CountByRun returns the number of contributions landed by one run.
func (r *Repository) CountByRun(ctx context.Context, runID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "contribution.Repository.CountByRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("contributions")
	sb.Where(sb.Equal("ingest_run_id", runID))

	query, args := sb.Build()
	var count int
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to count contributions for run")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count contributions for run")
	}
	return count, nil
}

// TotalsByCandidate sums a run's contributions per resolved candidate. Rows
// with no candidate reference are not represented.
func (r *Repository) TotalsByCandidate(ctx context.Context, runID string) ([]models.CandidateTotal, error) {
	ctx, span := tracing.StartSpan(ctx, "contribution.Repository.TotalsByCandidate")
	defer span.End()

	query := `
		SELECT fec_candidate_id, SUM(amount_cents) AS total_cents
		FROM contributions
		WHERE ingest_run_id = $1 AND fec_candidate_id IS NOT NULL
		GROUP BY fec_candidate_id
	`

	var totals []models.CandidateTotal
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &totals, query, runID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to sum contributions by candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to sum contributions by candidate")
	}
	return totals, nil
}

// SumAmountCentsByRun returns the total cents landed by one run.
func (r *Repository) SumAmountCentsByRun(ctx context.Context, runID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "contribution.Repository.SumAmountCentsByRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COALESCE(SUM(amount_cents), 0)")
	sb.From("contributions")
	sb.Where(sb.Equal("ingest_run_id", runID))

	query, args := sb.Build()
	var total int64
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to sum contributions for run")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to sum contributions for run")
	}
	return total, nil
}
