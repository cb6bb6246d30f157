package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cooljasonmelton/follow-the-money/pkg/metrics"
)

func computeLeaningCmd() *cobra.Command {
	var (
		asOfStr      string
		projectGraph bool
	)

	cmd := &cobra.Command{
		Use:   "compute-leaning",
		Short: "Compute leaning scores for the lookback window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			asOf := time.Now().UTC()
			if asOfStr != "" {
				asOf, err = time.Parse("2006-01-02", asOfStr)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
			}

			start := time.Now()
			written, err := a.calculator.Compute(ctx, asOf)
			if err != nil {
				return err
			}
			metrics.LeaningComputeDuration.Observe(time.Since(start).Seconds())
			metrics.LeaningScoresWritten.Set(float64(written))

			windowStart := asOf.AddDate(0, 0, -a.cfg.LeaningLookbackDays)
			if emitErr := a.emitter.EmitScoresComputed(ctx, windowStart, asOf, a.cfg.LeaningMethodology, written); emitErr != nil {
				a.logger.WithContext(ctx).WithError(emitErr).Warn("Failed to emit scores.computed event")
			}

			if projectGraph {
				if a.flow == nil {
					return fmt.Errorf("graph projection requested but GRAPH_DB_ENABLED is false")
				}
				if err := rebuildGraph(ctx, a, windowStart, asOf); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d leaning scores for window %s to %s\n",
				written, windowStart.Format("2006-01-02"), asOf.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfStr, "as-of", "", "window end date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&projectGraph, "project-graph", false, "rebuild the money flow graph for the window")
	return cmd
}

const graphPageSize = 500

// rebuildGraph clears the graph and reprojects every normalized entity plus
// the window's money flow. Totals are only correct over a full rebuild, so
// the clear is not optional.
func rebuildGraph(ctx context.Context, a *app, windowStart, windowEnd time.Time) error {
	if err := a.flow.Clear(ctx); err != nil {
		return err
	}

	for offset := 0; ; offset += graphPageSize {
		candidates, err := a.candidates.List(ctx, graphPageSize, offset)
		if err != nil {
			return err
		}
		for i := range candidates {
			if err := a.flow.ProjectCandidate(ctx, &candidates[i]); err != nil {
				return err
			}
		}
		if len(candidates) < graphPageSize {
			break
		}
	}

	for offset := 0; ; offset += graphPageSize {
		committees, err := a.committees.List(ctx, graphPageSize, offset)
		if err != nil {
			return err
		}
		for i := range committees {
			links, err := a.links.ListByCommittee(ctx, committees[i].FECCommitteeID)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				if err := a.flow.ProjectCommittee(ctx, &committees[i], nil); err != nil {
					return err
				}
				continue
			}
			for _, link := range links {
				if err := a.flow.ProjectCommittee(ctx, &committees[i], &link.FECCandidateID); err != nil {
					return err
				}
			}
		}
		if len(committees) < graphPageSize {
			break
		}
	}

	for offset := 0; ; offset += graphPageSize {
		employers, err := a.employers.List(ctx, graphPageSize, offset)
		if err != nil {
			return err
		}
		for i := range employers {
			classifications, err := a.employerIndustries.ListByEmployer(ctx, employers[i].EmployerHash)
			if err != nil {
				return err
			}
			codes := make([]string, 0, len(classifications))
			for _, c := range classifications {
				codes = append(codes, c.IndustryCode)
			}
			if err := a.flow.ProjectEmployer(ctx, &employers[i], codes); err != nil {
				return err
			}
		}
		if len(employers) < graphPageSize {
			break
		}
	}

	rows, err := a.contributions.ListForWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return err
	}
	return a.flow.ProjectFlow(ctx, rows)
}
