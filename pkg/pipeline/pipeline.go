// Package pipeline turns staged raw rows into normalized entities and
// contributions. One run is processed inside one database transaction: either
// every staged row lands or none do.
package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/database"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/candidate"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/committee"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/committeelink"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/contribution"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/employer"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/employerindustry"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/industry"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/ingestrun"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/staging"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/events"
	"github.com/cooljasonmelton/follow-the-money/pkg/metrics"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
	"github.com/cooljasonmelton/follow-the-money/pkg/normalize"
	"github.com/cooljasonmelton/follow-the-money/pkg/payload"
)

// Skip reasons surfaced through metrics.
const (
	reasonUnparseable = "unparseable"
	reasonMissingID   = "missing_id"
	reasonDuplicate   = "duplicate"
)

// Confidence recorded for keyword-rule industry classifications.
const keywordConfidence = 1.0

// Pipeline normalizes the staged rows of one ingest run.
type Pipeline struct {
	db     database.DB
	logger ectologger.Logger

	runs       *ingestrun.Repository
	staging    *staging.Repository
	candidates *candidate.Repository
	committees *committee.Repository
	links      *committeelink.Repository
	employers          *employer.Repository
	employerIndustries *employerindustry.Repository
	industries         *industry.Repository
	contributions      *contribution.Repository

	classifier *normalize.Classifier
	emitter    events.Emitter
	batchSize  int
}

// Deps bundles the repositories a pipeline operates over.
type Deps struct {
	Runs               *ingestrun.Repository
	Staging            *staging.Repository
	Candidates         *candidate.Repository
	Committees         *committee.Repository
	Links              *committeelink.Repository
	Employers          *employer.Repository
	EmployerIndustries *employerindustry.Repository
	Industries         *industry.Repository
	Contributions      *contribution.Repository
}

// NewPipeline creates a pipeline. A nil classifier falls back to the default
// keyword rules; a nil emitter drops events.
func NewPipeline(db database.DB, logger ectologger.Logger, deps Deps, classifier *normalize.Classifier, emitter events.Emitter, batchSize int) *Pipeline {
	if classifier == nil {
		classifier = normalize.NewClassifier(normalize.DefaultKeywordRules)
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if batchSize < 1 {
		batchSize = 500
	}
	return &Pipeline{
		db:                 db,
		logger:             logger,
		runs:               deps.Runs,
		staging:            deps.Staging,
		candidates:         deps.Candidates,
		committees:         deps.Committees,
		links:              deps.Links,
		employers:          deps.Employers,
		employerIndustries: deps.EmployerIndustries,
		industries:         deps.Industries,
		contributions:      deps.Contributions,
		classifier:         classifier,
		emitter:            emitter,
		batchSize:          batchSize,
	}
}

// Run normalizes every staged row of the given run in one transaction and
// closes the run with its row counts. Entity order is fixed: candidates, then
// committees and their links, then contributions, so foreign references can
// be resolved against rows landed earlier in the same run.
func (p *Pipeline) Run(ctx context.Context, runID string) (*models.RowCounts, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.Run")
	defer span.End()

	run, err := p.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "ingest run %s not found", runID)
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID, "source": run.Source})
	start := time.Now()

	counts, err := p.normalizeRun(ctx, run)
	if err != nil {
		metrics.RunDuration.WithLabelValues(models.RunStatusFailed).Observe(time.Since(start).Seconds())
		log.WithError(err).Error("Normalization run failed")
		if markErr := p.runs.MarkFailed(ctx, runID, err); markErr != nil {
			log.WithError(markErr).Error("Failed to mark run failed")
		}
		if emitErr := p.emitter.EmitRunFailed(ctx, run, err); emitErr != nil {
			log.WithError(emitErr).Warn("Failed to emit run.failed event")
		}
		return nil, err
	}

	metrics.RunDuration.WithLabelValues(models.RunStatusSucceeded).Observe(time.Since(start).Seconds())
	log.WithFields(map[string]any{
		"candidates":    counts.Candidates,
		"committees":    counts.Committees,
		"contributions": counts.Contributions,
		"skipped":       counts.Skipped,
		"duration":      time.Since(start).String(),
	}).Info("Normalization run succeeded")

	if emitErr := p.emitter.EmitRunCompleted(ctx, run, *counts); emitErr != nil {
		log.WithError(emitErr).Warn("Failed to emit run.completed event")
	}
	return counts, nil
}

func (p *Pipeline) normalizeRun(ctx context.Context, run *models.IngestRun) (*models.RowCounts, error) {
	ctx, tx, err := database.GetTx(ctx, p.logger, p.db, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := p.industries.Seed(ctx, p.classifier.Industries()); err != nil {
		return nil, err
	}

	counts := &models.RowCounts{}
	if err := p.normalizeCandidates(ctx, run.ID, counts); err != nil {
		return nil, err
	}
	if err := p.normalizeCommittees(ctx, run.ID, counts); err != nil {
		return nil, err
	}
	if err := p.normalizeContributions(ctx, run.ID, counts); err != nil {
		return nil, err
	}

	if err := p.runs.MarkSucceeded(ctx, run.ID, *counts); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return counts, nil
}

func (p *Pipeline) normalizeCandidates(ctx context.Context, runID string, counts *models.RowCounts) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.normalizeCandidates")
	defer span.End()

	return p.eachBatch(ctx, runID, models.StagingTypeCandidate, func(records []models.StagingRecord) error {
		for _, rec := range records {
			data, ok := p.decode(ctx, rec, counts)
			if !ok {
				continue
			}

			req := buildCandidate(data)
			if req == nil {
				p.skip(ctx, rec, reasonMissingID, counts)
				continue
			}
			req.Raw = rec.Data

			if _, err := p.candidates.Upsert(ctx, *req); err != nil {
				return err
			}
			counts.Candidates++
			metrics.RowsNormalizedTotal.WithLabelValues(models.StagingTypeCandidate).Inc()
		}
		return nil
	})
}

func (p *Pipeline) normalizeCommittees(ctx context.Context, runID string, counts *models.RowCounts) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.normalizeCommittees")
	defer span.End()

	return p.eachBatch(ctx, runID, models.StagingTypeCommittee, func(records []models.StagingRecord) error {
		type pendingLink struct {
			committeeID string
			candidateID string
		}
		var pending []pendingLink

		for _, rec := range records {
			data, ok := p.decode(ctx, rec, counts)
			if !ok {
				continue
			}

			req, linkedCandidate := buildCommittee(data)
			if req == nil {
				p.skip(ctx, rec, reasonMissingID, counts)
				continue
			}
			req.Raw = rec.Data

			if _, err := p.committees.Upsert(ctx, *req); err != nil {
				return err
			}
			counts.Committees++
			metrics.RowsNormalizedTotal.WithLabelValues(models.StagingTypeCommittee).Inc()

			if linkedCandidate != nil {
				pending = append(pending, pendingLink{committeeID: req.FECCommitteeID, candidateID: *linkedCandidate})
			}
		}

		// Links only land when the candidate exists; a dangling reference is
		// dropped, not an error.
		if len(pending) > 0 {
			ids := make([]string, 0, len(pending))
			for _, link := range pending {
				ids = append(ids, link.candidateID)
			}
			known, err := p.candidates.KnownIDs(ctx, ids)
			if err != nil {
				return err
			}
			for _, link := range pending {
				if _, ok := known[link.candidateID]; !ok {
					continue
				}
				if err := p.links.Upsert(ctx, link.committeeID, link.candidateID, "principal"); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (p *Pipeline) normalizeContributions(ctx context.Context, runID string, counts *models.RowCounts) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.normalizeContributions")
	defer span.End()

	return p.eachBatch(ctx, runID, models.StagingTypeReceipt, func(records []models.StagingRecord) error {
		type pendingReceipt struct {
			req          models.CreateContributionRequest
			employer     models.UpsertEmployerRequest
			candidateRef *string
			committeeRef *string
		}
		pending := make([]pendingReceipt, 0, len(records))
		var candidateIDs, committeeIDs []string

		for _, rec := range records {
			data, ok := p.decode(ctx, rec, counts)
			if !ok {
				continue
			}

			receipt, reason := buildContribution(data, runID, p.classifier)
			if reason != "" {
				p.skip(ctx, rec, reason, counts)
				continue
			}

			if receipt.candidateRef != nil {
				candidateIDs = append(candidateIDs, *receipt.candidateRef)
			}
			if receipt.committeeRef != nil {
				committeeIDs = append(committeeIDs, *receipt.committeeRef)
			}
			pending = append(pending, pendingReceipt{
				req:          receipt.req,
				employer:     receipt.employer,
				candidateRef: receipt.candidateRef,
				committeeRef: receipt.committeeRef,
			})
		}

		knownCandidates, err := p.candidates.KnownIDs(ctx, candidateIDs)
		if err != nil {
			return err
		}
		knownCommittees, err := p.committees.KnownIDs(ctx, committeeIDs)
		if err != nil {
			return err
		}

		seenEmployers := make(map[string]struct{})
		seenClassifications := make(map[string]struct{})
		seenLinks := make(map[string]struct{})
		for _, receipt := range pending {
			if _, seen := seenEmployers[receipt.employer.EmployerHash]; !seen {
				if _, err := p.employers.Upsert(ctx, receipt.employer); err != nil {
					return err
				}
				seenEmployers[receipt.employer.EmployerHash] = struct{}{}
			}
			if receipt.req.IndustryCode != nil {
				key := receipt.employer.EmployerHash + "|" + *receipt.req.IndustryCode
				if _, seen := seenClassifications[key]; !seen {
					if err := p.employerIndustries.Upsert(ctx, receipt.employer.EmployerHash, *receipt.req.IndustryCode, keywordConfidence); err != nil {
						return err
					}
					seenClassifications[key] = struct{}{}
				}
			}

			req := receipt.req
			// References to entities never seen upstream degrade to null.
			if receipt.candidateRef != nil {
				if _, ok := knownCandidates[*receipt.candidateRef]; ok {
					req.FECCandidateID = receipt.candidateRef
				}
			}
			if receipt.committeeRef != nil {
				if _, ok := knownCommittees[*receipt.committeeRef]; ok {
					req.FECCommitteeID = receipt.committeeRef
				}
			}

			// A receipt naming both sides also records the committee-candidate
			// link, labeled with the receipt type. Unresolved sides drop the
			// link silently.
			if req.FECCommitteeID != nil && req.FECCandidateID != nil {
				linkType := "contribution"
				if req.ReceiptType != nil {
					linkType = *req.ReceiptType
				}
				key := *req.FECCommitteeID + "|" + *req.FECCandidateID
				if _, seen := seenLinks[key]; !seen {
					if err := p.links.Upsert(ctx, *req.FECCommitteeID, *req.FECCandidateID, linkType); err != nil {
						return err
					}
					seenLinks[key] = struct{}{}
				}
			}

			inserted, err := p.contributions.Insert(ctx, req)
			if err != nil {
				return err
			}
			if !inserted {
				counts.Skipped++
				metrics.RowsSkippedTotal.WithLabelValues(models.StagingTypeReceipt, reasonDuplicate).Inc()
				continue
			}
			counts.Contributions++
			metrics.RowsNormalizedTotal.WithLabelValues(models.StagingTypeReceipt).Inc()
		}
		return nil
	})
}

// eachBatch pages through the staged rows of one record type.
func (p *Pipeline) eachBatch(ctx context.Context, runID, recordType string, fn func([]models.StagingRecord) error) error {
	offset := 0
	for {
		records, err := p.staging.SelectBatch(ctx, runID, recordType, p.batchSize, offset)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		if err := fn(records); err != nil {
			return err
		}
		if len(records) < p.batchSize {
			return nil
		}
		offset += len(records)
	}
}

func (p *Pipeline) decode(ctx context.Context, rec models.StagingRecord, counts *models.RowCounts) (map[string]any, bool) {
	var data map[string]any
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"staging_id": rec.ID, "record_type": rec.RecordType}).Warn("Dropping unparseable staging row")
		counts.Skipped++
		metrics.RowsSkippedTotal.WithLabelValues(rec.RecordType, reasonUnparseable).Inc()
		return nil, false
	}
	return data, true
}

func (p *Pipeline) skip(ctx context.Context, rec models.StagingRecord, reason string, counts *models.RowCounts) {
	counts.Skipped++
	metrics.RowsSkippedTotal.WithLabelValues(rec.RecordType, reason).Inc()
	p.logger.WithContext(ctx).WithFields(map[string]any{"staging_id": rec.ID, "record_type": rec.RecordType, "reason": reason}).Debug("Skipped staging row")
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	upper := strings.ToUpper(*s)
	return &upper
}

// buildCandidate maps a raw candidate payload onto an upsert request, or nil
// when the row carries no candidate id.
func buildCandidate(data map[string]any) *models.UpsertCandidateRequest {
	id := payload.FirstString(data, payload.CandidateIDAliases...)
	if id == nil {
		return nil
	}
	return &models.UpsertCandidateRequest{
		FECCandidateID: *id,
		Name:           payload.FirstString(data, "name"),
		Party:          upperPtr(payload.FirstString(data, "party")),
		Office:         payload.FirstString(data, "office"),
		State:          payload.FirstString(data, "state"),
		District:       payload.FirstString(data, "district"),
		ElectionYear:   payload.FirstInt(data, "election_year", "year"),
		Status:         payload.FirstString(data, "status", "cand_status"),
		CreatedAt:      payload.ParseTimestamp(data["created_at"]),
	}
}

// buildCommittee maps a raw committee payload onto an upsert request plus the
// candidate id it funds, when the payload names one.
func buildCommittee(data map[string]any) (*models.UpsertCommitteeRequest, *string) {
	id := payload.FirstString(data, payload.CommitteeIDAliases...)
	if id == nil {
		return nil, nil
	}
	req := &models.UpsertCommitteeRequest{
		FECCommitteeID: *id,
		Name:           payload.FirstString(data, payload.CommitteeNameAliases...),
		CommitteeType:  payload.FirstString(data, "committee_type", "type"),
		Party:          upperPtr(payload.FirstString(data, "party")),
		State:          payload.FirstString(data, "state"),
		ConnectedOrg:   payload.FirstString(data, "connected_org", "connected_organization"),
		Status:         payload.FirstString(data, "status", "cmte_status"),
		CreatedAt:      payload.ParseTimestamp(data["created_at"]),
	}
	return req, payload.FirstString(data, payload.ReceiptCandidateAliases...)
}

type builtContribution struct {
	req          models.CreateContributionRequest
	employer     models.UpsertEmployerRequest
	candidateRef *string
	committeeRef *string
}

// buildContribution maps a raw receipt payload onto a contribution plus its
// canonicalized employer. A non-empty reason means the row must be skipped.
// An unparseable or missing amount is not a skip; it defaults to zero cents.
func buildContribution(data map[string]any, runID string, classifier *normalize.Classifier) (*builtContribution, string) {
	recordID := payload.FirstString(data, payload.ReceiptTransactionAliases...)
	if recordID == nil {
		return nil, reasonMissingID
	}

	amountRaw, ok := data["amount"]
	if !ok {
		amountRaw = data["transaction_amt"]
	}
	amountCents, err := payload.ParseCents(amountRaw)
	if err != nil {
		amountCents = 0
	}

	rawEmployer := ""
	if s := payload.FirstString(data, "employer"); s != nil {
		rawEmployer = *s
	}
	occupation := ""
	if s := payload.FirstString(data, "occupation"); s != nil {
		occupation = *s
	}

	normalizedName := normalize.NormalizeName(rawEmployer)
	employerHash := normalize.EmployerHash(normalizedName)

	// Classification sees the canonical name, so raw spellings that collapse
	// onto one employer always classify the same way.
	var industryCode *string
	if rule := classifier.Classify(normalizedName, occupation); rule != nil {
		industryCode = &rule.Code
	}

	employerReq := models.UpsertEmployerRequest{
		EmployerHash:   employerHash,
		NormalizedName: normalizedName,
		City:           payload.FirstString(data, "employer_city"),
		State:          payload.FirstString(data, "employer_state"),
		Country:        payload.FirstString(data, "employer_country"),
	}
	if rawEmployer != "" {
		employerReq.RawName = &rawEmployer
	}

	transactionDate := payload.ParseDate(data, "transaction_date", "transaction_dt", "date")
	cycle := payload.FirstInt(data, "cycle", "two_year_transaction_period")
	if cycle == nil && transactionDate != nil {
		year := transactionDate.Year()
		cycle = &year
	}

	isIndividual := true
	if v, ok := data["is_individual"].(bool); ok {
		isIndividual = v
	}

	built := &builtContribution{
		req: models.CreateContributionRequest{
			FECRecordID:     *recordID,
			IngestRunID:     runID,
			EmployerHash:    &employerHash,
			IndustryCode:    industryCode,
			ContributorName: payload.FirstString(data, "contributor_name", "name"),
			AmountCents:     amountCents,
			TransactionDate: transactionDate,
			Cycle:           cycle,
			ReceiptType:     payload.FirstString(data, "receipt_type", "transaction_tp"),
			Memo:            payload.FirstString(data, "memo", "memo_text"),
			IsIndividual:    isIndividual,
		},
		employer:     employerReq,
		candidateRef: payload.FirstString(data, payload.ReceiptCandidateAliases...),
		committeeRef: payload.FirstString(data, payload.ReceiptCommitteeAliases...),
	}
	if occupation != "" {
		built.req.Occupation = &occupation
	}
	return built, ""
}
