package ingest

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/repositories/ingestrun"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/staging"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/events"
	"github.com/cooljasonmelton/follow-the-money/pkg/metrics"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// Loader lands raw source files in staging under a fresh ingest run.
type Loader struct {
	logger    ectologger.Logger
	runs      *ingestrun.Repository
	staging   *staging.Repository
	emitter   events.Emitter
	batchSize int
}

// NewLoader creates a staging loader. A nil emitter drops events.
func NewLoader(logger ectologger.Logger, runs *ingestrun.Repository, stagingRepo *staging.Repository, emitter events.Emitter, batchSize int) *Loader {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if batchSize < 1 {
		batchSize = 500
	}
	return &Loader{
		logger:    logger,
		runs:      runs,
		staging:   stagingRepo,
		emitter:   emitter,
		batchSize: batchSize,
	}
}

// Load opens a run, stages every row of every file, and leaves the run in the
// running state for normalization to close. A parse or database failure marks
// the run failed and returns it alongside the error.
func (l *Loader) Load(ctx context.Context, source string, cycle int, files []FileSpec) (*models.IngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Loader.Load")
	defer span.End()

	run, err := l.runs.Create(ctx, models.CreateIngestRunRequest{Source: source, Cycle: cycle})
	if err != nil {
		return nil, err
	}

	log := l.logger.WithContext(ctx).WithFields(map[string]any{"run_id": run.ID, "source": source, "cycle": cycle})
	if emitErr := l.emitter.EmitRunStarted(ctx, run); emitErr != nil {
		log.WithError(emitErr).Warn("Failed to emit run.started event")
	}

	total := 0
	for _, spec := range files {
		landed, err := l.loadFile(ctx, run.ID, spec)
		if err != nil {
			log.WithError(err).WithFields(map[string]any{"file": spec.Path}).Error("Failed to stage source file")
			if markErr := l.runs.MarkFailed(ctx, run.ID, err); markErr != nil {
				log.WithError(markErr).Error("Failed to mark run failed")
			}
			if emitErr := l.emitter.EmitRunFailed(ctx, run, err); emitErr != nil {
				log.WithError(emitErr).Warn("Failed to emit run.failed event")
			}
			return run, err
		}
		total += landed
		log.WithFields(map[string]any{"file": spec.Path, "record_type": spec.RecordType, "rows": landed}).Info("Staged source file")
	}

	log.WithFields(map[string]any{"total_rows": total}).Info("Staging load complete")
	return run, nil
}

func (l *Loader) loadFile(ctx context.Context, runID string, spec FileSpec) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Loader.loadFile")
	defer span.End()

	batch := make([]models.CreateStagingRecordRequest, 0, l.batchSize)
	landed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := l.staging.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		landed += n
		metrics.StagingRowsLandedTotal.WithLabelValues(spec.RecordType).Add(float64(n))
		batch = batch[:0]
		return nil
	}

	err := ParseFile(spec, func(row Row) error {
		batch = append(batch, models.CreateStagingRecordRequest{
			IngestRunID: runID,
			RecordType:  spec.RecordType,
			SourceFile:  spec.Path,
			LineNumber:  row.LineNumber,
			Data:        row.Data,
		})
		if len(batch) >= l.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return landed, err
	}
	if err := flush(); err != nil {
		return landed, err
	}
	return landed, nil
}
