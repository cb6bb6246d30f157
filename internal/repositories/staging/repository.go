package staging

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

var columns = []string{"id", "ingest_run_id", "record_type", "source_file", "line_number", "data", "created_at"}

// Repository handles raw staging row persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new staging repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// InsertBatch lands a batch of raw rows in one statement.
func (r *Repository) InsertBatch(ctx context.Context, records []models.CreateStagingRecordRequest) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.InsertBatch")
	defer span.End()

	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("staging_records")
	ib.Cols(columns...)
	for _, rec := range records {
		ib.Values(uuid.NewString(), rec.IngestRunID, rec.RecordType, rec.SourceFile, rec.LineNumber, []byte(rec.Data), now)
	}

	query, args := ib.Build()
	exec := database.ExecutorFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": records[0].IngestRunID, "record_type": records[0].RecordType, "batch_size": len(records)}).Error("Failed to insert staging batch")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert staging batch")
	}
	return len(records), nil
}

// SelectBatch pages staging rows for a run and record type in insertion order.
func (r *Repository) SelectBatch(ctx context.Context, runID, recordType string, limit, offset int) ([]models.StagingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.SelectBatch")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("staging_records")
	sb.Where(
		sb.Equal("ingest_run_id", runID),
		sb.Equal("record_type", recordType),
	)
	sb.OrderBy("line_number ASC", "id ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var rows []models.StagingRecord
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID, "record_type": recordType, "offset": offset}).Error("Failed to select staging batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select staging batch")
	}
	return rows, nil
}

// CountByRunAndType returns the number of staged rows for a run and type.
func (r *Repository) CountByRunAndType(ctx context.Context, runID, recordType string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.CountByRunAndType")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("staging_records")
	sb.Where(
		sb.Equal("ingest_run_id", runID),
		sb.Equal("record_type", recordType),
	)

	query, args := sb.Build()
	var count int
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID, "record_type": recordType}).Error("Failed to count staging rows")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count staging rows")
	}
	return count, nil
}

// DeleteByRun removes all staged rows for a run once they are normalized.
func (r *Repository) DeleteByRun(ctx context.Context, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "staging.Repository.DeleteByRun")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("staging_records")
	db.Where(db.Equal("ingest_run_id", runID))

	query, args := db.Build()
	exec := database.ExecutorFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).Error("Failed to delete staging rows")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete staging rows")
	}
	return nil
}
