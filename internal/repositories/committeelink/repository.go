package committeelink

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

// Repository handles committee-to-candidate link persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new committee link repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const upsertQuery = `
	INSERT INTO committee_candidate_links (fec_committee_id, fec_candidate_id, link_type, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (fec_committee_id, fec_candidate_id) DO NOTHING
`

// Upsert records that a committee funds a candidate. Re-linking the same pair
// is a no-op.
func (r *Repository) Upsert(ctx context.Context, fecCommitteeID, fecCandidateID, linkType string) error {
	ctx, span := tracing.StartSpan(ctx, "committeelink.Repository.Upsert")
	defer span.End()

	exec := database.ExecutorFromContext(ctx, r.db)
	if _, err := exec.ExecContext(ctx, upsertQuery, fecCommitteeID, fecCandidateID, linkType, time.Now().UTC()); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_committee_id": fecCommitteeID, "fec_candidate_id": fecCandidateID}).Error("Failed to upsert committee candidate link")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert committee candidate link")
	}
	return nil
}

// ListByCommittee returns the candidates a committee is linked to.
func (r *Repository) ListByCommittee(ctx context.Context, fecCommitteeID string) ([]models.CommitteeCandidateLink, error) {
	ctx, span := tracing.StartSpan(ctx, "committeelink.Repository.ListByCommittee")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("fec_committee_id", "fec_candidate_id", "link_type", "created_at")
	sb.From("committee_candidate_links")
	sb.Where(sb.Equal("fec_committee_id", fecCommitteeID))
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var links []models.CommitteeCandidateLink
	exec := database.ExecutorFromContext(ctx, r.db)
	if err := exec.SelectContext(ctx, &links, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"fec_committee_id": fecCommitteeID}).Error("Failed to list committee candidate links")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list committee candidate links")
	}
	return links, nil
}
