// Package leaning computes partisan-leaning scores over normalized
// contributions. A score is the fraction of classified money that went to the
// right: 1.0 is all-right, 0.0 is all-left, 0.5 is balanced or unknown.
package leaning

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/database"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/contribution"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/leaningscore"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// Party labels treated as left-leaning. The misspelled variants appear in
// real source files and are kept on purpose.
var PartyLeft = map[string]struct{}{
	"DEM":       {},
	"D":         {},
	"DEMCRATIC": {},
	"DEMCRAT":   {},
}

// Party labels treated as right-leaning.
var PartyRight = map[string]struct{}{
	"REP":        {},
	"R":          {},
	"REPUBLICAN": {},
	"GOP":        {},
}

type bucket struct {
	sampleSize int
	leftCents  int64
	rightCents int64
}

type bucketKey struct {
	entityType string
	entityKey  string
}

// Aggregate folds window rows into one score per entity dimension. Every row
// fans out to its candidate, committee, employer and industry, skipping the
// dimensions the row lacks. Rows whose committee party is unclassified still
// count toward sample size but move no money.
func Aggregate(rows []models.ContributionWindowRow) []models.LeaningScore {
	buckets := make(map[bucketKey]*bucket)

	add := func(entityType string, entityKey *string, leftCents, rightCents int64) {
		if entityKey == nil || *entityKey == "" {
			return
		}
		key := bucketKey{entityType: entityType, entityKey: *entityKey}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sampleSize++
		b.leftCents += leftCents
		b.rightCents += rightCents
	}

	for _, row := range rows {
		var leftCents, rightCents int64
		if row.CommitteeParty != nil {
			party := strings.ToUpper(*row.CommitteeParty)
			if _, ok := PartyLeft[party]; ok {
				leftCents = row.AmountCents
			} else if _, ok := PartyRight[party]; ok {
				rightCents = row.AmountCents
			}
		}

		add(models.LeaningEntityCandidate, row.FECCandidateID, leftCents, rightCents)
		add(models.LeaningEntityCommittee, row.FECCommitteeID, leftCents, rightCents)
		add(models.LeaningEntityEmployer, row.EmployerHash, leftCents, rightCents)
		add(models.LeaningEntityIndustry, row.IndustryCode, leftCents, rightCents)
	}

	scores := make([]models.LeaningScore, 0, len(buckets))
	for key, b := range buckets {
		scores = append(scores, models.LeaningScore{
			EntityType:      key.entityType,
			EntityKey:       key.entityKey,
			SampleSize:      b.sampleSize,
			LeftTotalCents:  b.leftCents,
			RightTotalCents: b.rightCents,
			Score:           Score(b.leftCents, b.rightCents),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].EntityType != scores[j].EntityType {
			return scores[i].EntityType < scores[j].EntityType
		}
		return scores[i].EntityKey < scores[j].EntityKey
	})
	return scores
}

// Score computes rightCents over the classified total, rounded to three
// decimal places. With no classified money the entity sits at 0.5.
func Score(leftCents, rightCents int64) float64 {
	total := leftCents + rightCents
	if total == 0 {
		return 0.5
	}
	return math.Round(float64(rightCents)/float64(total)*1000) / 1000
}

// Calculator runs the windowed score computation end to end.
type Calculator struct {
	db            database.DB
	logger        ectologger.Logger
	contributions *contribution.Repository
	scores        *leaningscore.Repository

	lookbackDays int
	// minSampleSize is carried but not yet applied; small-sample scores are
	// written unfiltered.
	minSampleSize      int
	methodologyVersion string
}

// NewCalculator creates a calculator over the given repositories.
func NewCalculator(db database.DB, logger ectologger.Logger, contributions *contribution.Repository, scores *leaningscore.Repository, lookbackDays, minSampleSize int, methodologyVersion string) *Calculator {
	return &Calculator{
		db:                 db,
		logger:             logger,
		contributions:      contributions,
		scores:             scores,
		lookbackDays:       lookbackDays,
		minSampleSize:      minSampleSize,
		methodologyVersion: methodologyVersion,
	}
}

// Compute scores the lookback window ending at asOf and replaces the stored
// score set for that window in one transaction. Returns the number of scores
// written.
func (c *Calculator) Compute(ctx context.Context, asOf time.Time) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "leaning.Calculator.Compute")
	defer span.End()

	asOf = asOf.UTC()
	windowStart := asOf.AddDate(0, 0, -c.lookbackDays)

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"window_start":        windowStart,
		"window_end":          asOf,
		"methodology_version": c.methodologyVersion,
	})

	rows, err := c.contributions.ListForWindow(ctx, windowStart, asOf)
	if err != nil {
		return 0, err
	}

	scores := Aggregate(rows)
	log.WithFields(map[string]any{"row_count": len(rows), "score_count": len(scores)}).Info("Aggregated leaning scores")

	ctx, tx, err := database.GetTx(ctx, c.logger, c.db, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	written, err := c.scores.ReplaceWindow(ctx, windowStart, asOf, c.methodologyVersion, scores)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	log.WithFields(map[string]any{"written": written}).Info("Replaced leaning score window")
	return written, nil
}
