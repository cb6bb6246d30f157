package ingestrun

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/cooljasonmelton/follow-the-money/internal/database"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

var columns = []string{"id", "source", "cycle", "status", "row_counts", "error", "started_at", "finished_at"}

// Repository handles ingest run audit persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ingest run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create opens a new run in the running state and returns it.
func (r *Repository) Create(ctx context.Context, req models.CreateIngestRunRequest) (*models.IngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.Create")
	defer span.End()

	run := &models.IngestRun{
		ID:        uuid.NewString(),
		Source:    req.Source,
		Cycle:     req.Cycle,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("ingest_runs")
	ib.Cols("id", "source", "cycle", "status", "started_at")
	ib.Values(run.ID, run.Source, run.Cycle, run.Status, run.StartedAt)

	query, args := ib.Build()
	exec := database.ExecutorFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source": req.Source, "cycle": req.Cycle}).Error("Failed to create ingest run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create ingest run")
	}
	return run, nil
}

// MarkSucceeded closes a run with its final row counts.
func (r *Repository) MarkSucceeded(ctx context.Context, runID string, counts models.RowCounts) error {
	return r.close(ctx, runID, models.RunStatusSucceeded, &counts, nil)
}

// MarkFailed closes a run with the error that stopped it.
func (r *Repository) MarkFailed(ctx context.Context, runID string, runErr error) error {
	msg := runErr.Error()
	return r.close(ctx, runID, models.RunStatusFailed, nil, &msg)
}

// MarkValidated promotes a succeeded run after validation passes.
func (r *Repository) MarkValidated(ctx context.Context, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.MarkValidated")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("ingest_runs")
	ub.Set(ub.Assign("status", models.RunStatusValidated))
	ub.Where(ub.Equal("id", runID), ub.Equal("status", models.RunStatusSucceeded))

	query, args := ub.Build()
	exec := database.ExecutorFromContext(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to mark ingest run validated")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark ingest run validated")
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return httperror.NewHTTPErrorf(http.StatusConflict, "run %s is not in succeeded state", runID)
	}
	return nil
}

func (r *Repository) close(ctx context.Context, runID, status string, counts *models.RowCounts, errMsg *string) error {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.close")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("ingest_runs")
	assignments := []string{
		ub.Assign("status", status),
		ub.Assign("finished_at", time.Now().UTC()),
	}
	if counts != nil {
		assignments = append(assignments, ub.Assign("row_counts", database.JSONB[models.RowCounts]{Data: *counts}))
	}
	if errMsg != nil {
		assignments = append(assignments, ub.Assign("error", *errMsg))
	}
	ub.Set(assignments...)
	ub.Where(ub.Equal("id", runID))

	query, args := ub.Build()
	exec := database.ExecutorFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID, "status": status}).Error("Failed to close ingest run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to close ingest run")
	}
	return nil
}

// GetByID returns a run, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, runID string) (*models.IngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("ingest_runs")
	sb.Where(sb.Equal("id", runID))
	sb.Limit(1)

	query, args := sb.Build()
	var run models.IngestRun
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to get ingest run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ingest run")
	}
	return &run, nil
}

// List returns runs newest first.
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.IngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("ingest_runs")
	sb.OrderBy("started_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var runs []models.IngestRun
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list ingest runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list ingest runs")
	}
	return runs, nil
}
