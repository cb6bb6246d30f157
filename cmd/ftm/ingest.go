package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cooljasonmelton/follow-the-money/pkg/ingest"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
	"github.com/cooljasonmelton/follow-the-money/pkg/sources"
)

func ingestCmd() *cobra.Command {
	var (
		cycle  int
		source string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Download source data and land it in staging",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			var run *models.IngestRun
			switch source {
			case "fec_bulk":
				run, err = ingestBulk(cmd, a, cycle)
			case "openfec":
				run, err = ingestOpenFEC(cmd, a, cycle)
			default:
				return fmt.Errorf("unknown source %q (use fec_bulk or openfec)", source)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "staged run %s from %s cycle %d\n", run.ID, run.Source, run.Cycle)
			fmt.Fprintf(cmd.OutOrStdout(), "next: ftm normalize %s\n", run.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&cycle, "cycle", 2024, "election cycle to ingest")
	cmd.Flags().StringVar(&source, "source", "fec_bulk", "data source (fec_bulk or openfec)")
	return cmd
}

func ingestBulk(cmd *cobra.Command, a *app, cycle int) (*models.IngestRun, error) {
	ctx := cmd.Context()

	catalog := sources.NewBulkCatalog(a.cfg.FECBulkBaseURL)
	downloader := a.downloader()

	var specs []ingest.FileSpec
	for _, rf := range catalog.Files(cycle) {
		path, err := downloader.Download(ctx, rf)
		if err != nil {
			return nil, err
		}
		specs = append(specs, ingest.FileSpec{
			Path:       path,
			RecordType: rf.RecordType,
			Delimiter:  rf.Delimiter,
			Headers:    rf.Headers,
			HasHeader:  rf.HasHeader,
		})
	}

	return a.loader.Load(ctx, "fec_bulk", cycle, specs)
}

// ingestOpenFEC pages individual receipts from the REST API straight into
// staging, bypassing file downloads.
func ingestOpenFEC(cmd *cobra.Command, a *app, cycle int) (*models.IngestRun, error) {
	ctx := cmd.Context()

	run, err := a.runs.Create(ctx, models.CreateIngestRunRequest{Source: "openfec", Cycle: cycle})
	if err != nil {
		return nil, err
	}
	if emitErr := a.emitter.EmitRunStarted(ctx, run); emitErr != nil {
		a.logger.WithContext(ctx).WithError(emitErr).Warn("Failed to emit run.started event")
	}

	client := sources.NewOpenFECClient(a.logger, a.cfg.OpenFECBaseURL, a.cfg.OpenFECAPIKey, a.cfg.DownloadTimeout)

	params := url.Values{}
	params.Set("two_year_transaction_period", strconv.Itoa(cycle))
	params.Set("per_page", "100")

	line := 0
	err = client.FetchPages(ctx, "/schedules/schedule_a/", params, func(results []map[string]any) error {
		batch := make([]models.CreateStagingRecordRequest, 0, len(results))
		for _, row := range results {
			raw, err := json.Marshal(row)
			if err != nil {
				return err
			}
			line++
			batch = append(batch, models.CreateStagingRecordRequest{
				IngestRunID: run.ID,
				RecordType:  models.StagingTypeReceipt,
				SourceFile:  "openfec:/schedules/schedule_a/",
				LineNumber:  line,
				Data:        raw,
			})
		}
		_, err := a.staging.InsertBatch(ctx, batch)
		return err
	})
	if err != nil {
		if markErr := a.runs.MarkFailed(ctx, run.ID, err); markErr != nil {
			a.logger.WithContext(ctx).WithError(markErr).Error("Failed to mark run failed")
		}
		if emitErr := a.emitter.EmitRunFailed(ctx, run, err); emitErr != nil {
			a.logger.WithContext(ctx).WithError(emitErr).Warn("Failed to emit run.failed event")
		}
		return run, err
	}
	return run, nil
}
