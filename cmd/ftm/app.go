package main

import (
	"context"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/cooljasonmelton/follow-the-money/config"
	"github.com/cooljasonmelton/follow-the-money/internal/database"
	"github.com/cooljasonmelton/follow-the-money/internal/logging"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/candidate"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/committee"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/committeelink"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/contribution"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/employer"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/employerindustry"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/industry"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/ingestrun"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/leaningscore"
	"github.com/cooljasonmelton/follow-the-money/internal/repositories/staging"
	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/events"
	"github.com/cooljasonmelton/follow-the-money/pkg/graph"
	"github.com/cooljasonmelton/follow-the-money/pkg/ingest"
	"github.com/cooljasonmelton/follow-the-money/pkg/kafka"
	"github.com/cooljasonmelton/follow-the-money/pkg/leaning"
	"github.com/cooljasonmelton/follow-the-money/pkg/pipeline"
	"github.com/cooljasonmelton/follow-the-money/pkg/sources"
	"github.com/cooljasonmelton/follow-the-money/pkg/validation"
)

// app wires configuration, storage and services for one command invocation.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
	db     database.DB

	runs               *ingestrun.Repository
	staging            *staging.Repository
	candidates         *candidate.Repository
	committees         *committee.Repository
	links              *committeelink.Repository
	employers          *employer.Repository
	employerIndustries *employerindustry.Repository
	industries         *industry.Repository
	contributions      *contribution.Repository
	scores             *leaningscore.Repository

	producer    *kafka.Producer
	emitter     events.Emitter
	graphClient *graph.Client
	flow        *graph.FlowService

	loader     *ingest.Loader
	pipeline   *pipeline.Pipeline
	calculator *leaning.Calculator
	validator  *validation.Runner

	shutdownTracing func(context.Context) error
}

func loadConfig() (*config.Config, error) {
	// A missing .env file is fine; env vars still apply.
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to bind configuration")
	}
	return cfg, nil
}

// newApp builds the full service graph. Kafka and the graph projection stay
// nil when disabled.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.TracingEnabled {
		shutdown, err := tracing.InitProvider(ctx, cfg.AppName, cfg.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
		a.shutdownTracing = shutdown
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.db = db

	a.runs = ingestrun.NewRepository(db, logger)
	a.staging = staging.NewRepository(db, logger)
	a.candidates = candidate.NewRepository(db, logger)
	a.committees = committee.NewRepository(db, logger)
	a.links = committeelink.NewRepository(db, logger)
	a.employers = employer.NewRepository(db, logger)
	a.employerIndustries = employerindustry.NewRepository(db, logger)
	a.industries = industry.NewRepository(db, logger)
	a.contributions = contribution.NewRepository(db, logger)
	a.scores = leaningscore.NewRepository(db, logger)

	a.emitter = events.NoopEmitter{}
	if cfg.KafkaEnabled {
		a.producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		a.emitter = events.NewEmitter(a.producer, logger)
	}

	if cfg.GraphDBEnabled {
		client, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.graphClient = client
		a.flow = graph.NewFlowService(client, logger)
	}

	a.loader = ingest.NewLoader(logger, a.runs, a.staging, a.emitter, cfg.StagingBatchSize)
	a.pipeline = pipeline.NewPipeline(db, logger, pipeline.Deps{
		Runs:               a.runs,
		Staging:            a.staging,
		Candidates:         a.candidates,
		Committees:         a.committees,
		Links:              a.links,
		Employers:          a.employers,
		EmployerIndustries: a.employerIndustries,
		Industries:         a.industries,
		Contributions:      a.contributions,
	}, nil, a.emitter, cfg.StagingBatchSize)
	a.calculator = leaning.NewCalculator(db, logger, a.contributions, a.scores,
		cfg.LeaningLookbackDays, cfg.LeaningMinSampleSize, cfg.LeaningMethodology)
	a.validator = validation.NewRunner(logger, a.runs, a.staging, a.contributions, cfg.ValidationTolerancePct)

	return a, nil
}

func (a *app) downloader() *sources.Downloader {
	return sources.NewDownloader(a.logger, a.cfg.DownloadDir, a.cfg.DownloadTimeout, a.cfg.DownloadMaxRetries)
}

func (a *app) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close kafka producer")
		}
	}
	if a.graphClient != nil {
		if err := a.graphClient.Close(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to close graph client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close database")
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}
}
