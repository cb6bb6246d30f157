package leaningscore

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

var columns = []string{"id", "entity_type", "entity_key", "window_start", "window_end", "methodology_version", "sample_size", "left_total_cents", "right_total_cents", "score", "computed_at"}

// Repository handles leaning score persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new leaning score repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ReplaceWindow atomically swaps the score set for one (window, methodology)
// tuple: previous rows are deleted, then the new set is inserted. Callers run
// this inside a transaction so readers never see a half-replaced window.
func (r *Repository) ReplaceWindow(ctx context.Context, windowStart, windowEnd time.Time, methodologyVersion string, scores []models.LeaningScore) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "leaningscore.Repository.ReplaceWindow")
	defer span.End()

	exec := database.ExecutorFromContext(ctx, r.db)

	del := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	del.DeleteFrom("leaning_scores")
	del.Where(
		del.Equal("window_start", windowStart),
		del.Equal("window_end", windowEnd),
		del.Equal("methodology_version", methodologyVersion),
	)
	query, args := del.Build()
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"window_start": windowStart, "window_end": windowEnd, "methodology_version": methodologyVersion}).Error("Failed to delete previous leaning scores")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete previous leaning scores")
	}

	if len(scores) == 0 {
		return 0, nil
	}

	computedAt := time.Now().UTC()
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("leaning_scores")
	ib.Cols(columns...)
	for _, s := range scores {
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		ib.Values(id, s.EntityType, s.EntityKey, windowStart, windowEnd, methodologyVersion,
			s.SampleSize, s.LeftTotalCents, s.RightTotalCents, s.Score, computedAt)
	}
	query, args = ib.Build()
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"window_start": windowStart, "window_end": windowEnd, "score_count": len(scores)}).Error("Failed to insert leaning scores")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert leaning scores")
	}
	return len(scores), nil
}

// ListFilter narrows a score listing.
type ListFilter struct {
	EntityType string
	EntityKey  string
	Page       int
	PageSize   int
}

// List returns scores for the most interesting ordering first: latest window,
// then strongest lean.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.LeaningScore, int, error) {
	ctx, span := tracing.StartSpan(ctx, "leaningscore.Repository.List")
	defer span.End()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 500 {
		filter.PageSize = 50
	}

	exec := database.ExecutorFromContext(ctx, r.db)

	countBuilder := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countBuilder.Select("COUNT(*)")
	countBuilder.From("leaning_scores")
	applyFilter(countBuilder, filter)
	query, args := countBuilder.Build()
	var total int
	if err := exec.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count leaning scores")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count leaning scores")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("leaning_scores")
	applyFilter(sb, filter)
	sb.OrderBy("window_end DESC", "ABS(score - 0.5) DESC", "entity_key ASC")
	sb.Limit(filter.PageSize)
	sb.Offset((filter.Page - 1) * filter.PageSize)

	query, args = sb.Build()
	var scores []models.LeaningScore
	if err := exec.SelectContext(ctx, &scores, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_type": filter.EntityType, "entity_key": filter.EntityKey}).Error("Failed to list leaning scores")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leaning scores")
	}
	return scores, total, nil
}

func applyFilter(sb *sqlbuilder.SelectBuilder, filter ListFilter) {
	if filter.EntityType != "" {
		sb.Where(sb.Equal("entity_type", filter.EntityType))
	}
	if filter.EntityKey != "" {
		sb.Where(sb.Equal("entity_key", filter.EntityKey))
	}
}

// GetLatest returns the newest score for one entity, or nil when none exists.
func (r *Repository) GetLatest(ctx context.Context, entityType, entityKey string) (*models.LeaningScore, error) {
	ctx, span := tracing.StartSpan(ctx, "leaningscore.Repository.GetLatest")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("leaning_scores")
	sb.Where(
		sb.Equal("entity_type", entityType),
		sb.Equal("entity_key", entityKey),
	)
	sb.OrderBy("window_end DESC", "computed_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var score models.LeaningScore
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.GetContext(ctx, &score, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_type": entityType, "entity_key": entityKey}).Error("Failed to get latest leaning score")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest leaning score")
	}
	return &score, nil
}
