// Package events handles event emission for run lifecycle changes
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/kafka"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes run lifecycle events. Implementations must tolerate being
// called with a nil producer path disabled.
type Emitter interface {
	EmitRunStarted(ctx context.Context, run *models.IngestRun) error
	EmitRunCompleted(ctx context.Context, run *models.IngestRun, counts models.RowCounts) error
	EmitRunFailed(ctx context.Context, run *models.IngestRun, runErr error) error
	EmitScoresComputed(ctx context.Context, windowStart, windowEnd time.Time, methodologyVersion string, count int) error
}

// KafkaEmitter emits run events through a Kafka producer.
type KafkaEmitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new Kafka-backed event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunStarted emits a run.started event
func (e *KafkaEmitter) EmitRunStarted(ctx context.Context, run *models.IngestRun) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunStarted")
	defer span.End()

	event := &kafka.RunEvent{
		EventType: "run.started",
		RunID:     run.ID,
		Source:    run.Source,
		Cycle:     run.Cycle,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.started event")
		return err
	}
	return nil
}

// EmitRunCompleted emits a run.completed event with the final row counts
func (e *KafkaEmitter) EmitRunCompleted(ctx context.Context, run *models.IngestRun, counts models.RowCounts) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"row_counts":     counts,
	})

	event := &kafka.RunEvent{
		EventType: "run.completed",
		RunID:     run.ID,
		Source:    run.Source,
		Cycle:     run.Cycle,
		Data:      data,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}
	return nil
}

// EmitRunFailed emits a run.failed event
func (e *KafkaEmitter) EmitRunFailed(ctx context.Context, run *models.IngestRun, runErr error) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunFailed")
	defer span.End()

	event := &kafka.RunEvent{
		EventType: "run.failed",
		RunID:     run.ID,
		Source:    run.Source,
		Cycle:     run.Cycle,
		Error:     runErr.Error(),
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.failed event")
		return err
	}
	return nil
}

// EmitScoresComputed emits a scores.computed event after a window replace
func (e *KafkaEmitter) EmitScoresComputed(ctx context.Context, windowStart, windowEnd time.Time, methodologyVersion string, count int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitScoresComputed")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":      SchemaVersion,
		"window_start":        windowStart,
		"window_end":          windowEnd,
		"methodology_version": methodologyVersion,
		"score_count":         count,
	})

	event := &kafka.RunEvent{
		EventType: "scores.computed",
		Data:      data,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit scores.computed event")
		return err
	}
	return nil
}

// NoopEmitter drops every event. Used when Kafka is disabled.
type NoopEmitter struct{}

func (NoopEmitter) EmitRunStarted(context.Context, *models.IngestRun) error { return nil }
func (NoopEmitter) EmitRunCompleted(context.Context, *models.IngestRun, models.RowCounts) error {
	return nil
}
func (NoopEmitter) EmitRunFailed(context.Context, *models.IngestRun, error) error { return nil }
func (NoopEmitter) EmitScoresComputed(context.Context, time.Time, time.Time, string, int) error {
	return nil
}
