// Package validation checks a finished run's normalized output against what
// was staged, and promotes the run when the numbers hold up.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/repositories/contribution"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/ingestrun"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/staging"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// Check is one named comparison inside a validation report.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Report summarizes the validation of one run.
type Report struct {
	RunID                   string  `json:"run_id"`
	StagedReceipts          int     `json:"staged_receipts"`
	NormalizedContributions int     `json:"normalized_contributions"`
	TotalAmountCents        int64   `json:"total_amount_cents"`
	Drift                   float64 `json:"drift"`
	Passed                  bool    `json:"passed"`
	Checks                  []Check `json:"checks"`
}

// Runner validates normalized output against staging.
type Runner struct {
	logger        ectologger.Logger
	runs          *ingestrun.Repository
	staging       *staging.Repository
	contributions *contribution.Repository
	tolerance     float64
}

// NewRunner creates a validation runner. tolerance is the acceptable fraction
// of staged receipts that may be dropped during normalization.
func NewRunner(logger ectologger.Logger, runs *ingestrun.Repository, stagingRepo *staging.Repository, contributions *contribution.Repository, tolerance float64) *Runner {
	return &Runner{
		logger:        logger,
		runs:          runs,
		staging:       stagingRepo,
		contributions: contributions,
		tolerance:     tolerance,
	}
}

// Validate checks one succeeded run and marks it validated when every check
// passes. A failing check is reported, not an error.
func (r *Runner) Validate(ctx context.Context, runID string) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "validation.Runner.Validate")
	defer span.End()

	run, err := r.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "ingest run %s not found", runID)
	}
	if run.Status != models.RunStatusSucceeded && run.Status != models.RunStatusValidated {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "run %s is %s, only succeeded runs can be validated", runID, run.Status)
	}

	var recorded models.RowCounts
	if len(run.RowCounts) > 0 {
		if err := json.Unmarshal(run.RowCounts, &recorded); err != nil {
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "run %s has unreadable row counts: %v", runID, err)
		}
	}

	stagedReceipts, err := r.staging.CountByRunAndType(ctx, runID, models.StagingTypeReceipt)
	if err != nil {
		return nil, err
	}
	normalized, err := r.contributions.CountByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	totalCents, err := r.contributions.SumAmountCentsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	totals, err := r.contributions.TotalsByCandidate(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:                   runID,
		StagedReceipts:          stagedReceipts,
		NormalizedContributions: normalized,
		TotalAmountCents:        totalCents,
	}

	report.Checks = append(report.Checks, Check{
		Name:   "recorded_counts_match",
		Passed: normalized == recorded.Contributions,
		Detail: fmt.Sprintf("run recorded %d contributions, found %d", recorded.Contributions, normalized),
	})

	drift := driftFor(stagedReceipts, normalized)
	report.Drift = drift
	report.Checks = append(report.Checks, Check{
		Name:   "drift_within_tolerance",
		Passed: drift <= r.tolerance,
		Detail: fmt.Sprintf("%.2f%% of staged receipts dropped, tolerance %.2f%%", drift*100, r.tolerance*100),
	})

	negatives := negativeCandidateTotals(totals)
	detail := fmt.Sprintf("%d candidate totals checked", len(totals))
	if len(negatives) > 0 {
		detail = fmt.Sprintf("negative totals for %s", strings.Join(negatives, ", "))
	}
	report.Checks = append(report.Checks, Check{
		Name:   "candidate_totals_non_negative",
		Passed: len(negatives) == 0,
		Detail: detail,
	})

	report.Passed = true
	for _, check := range report.Checks {
		if !check.Passed {
			report.Passed = false
			break
		}
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":     runID,
		"staged":     stagedReceipts,
		"normalized": normalized,
		"drift":      drift,
	})
	if !report.Passed {
		log.Warn("Run failed validation")
		return report, nil
	}

	if run.Status == models.RunStatusSucceeded {
		if err := r.runs.MarkValidated(ctx, runID); err != nil {
			return nil, err
		}
	}
	log.Info("Run validated")
	return report, nil
}

// driftFor is the fraction of staged receipts that did not land.
func driftFor(staged, normalized int) float64 {
	if staged <= 0 {
		return 0
	}
	return float64(staged-normalized) / float64(staged)
}

// negativeCandidateTotals returns the candidate ids whose summed amounts went
// below zero. Refund-heavy sources can push a candidate negative, which means
// the run landed refunds without their matching receipts.
func negativeCandidateTotals(totals []models.CandidateTotal) []string {
	var ids []string
	for _, total := range totals {
		if total.TotalCents < 0 {
			ids = append(ids, total.FECCandidateID)
		}
	}
	return ids
}
