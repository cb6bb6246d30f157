package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func normalizeCmd() *cobra.Command {
	var purgeStaging bool

	cmd := &cobra.Command{
		Use:   "normalize <run-id>",
		Short: "Normalize the staged rows of an ingest run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			counts, err := a.pipeline.Run(ctx, args[0])
			if err != nil {
				return err
			}

			if purgeStaging {
				if err := a.staging.DeleteByRun(ctx, args[0]); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"run %s normalized: %d candidates, %d committees, %d contributions, %d skipped\n",
				args[0], counts.Candidates, counts.Committees, counts.Contributions, counts.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&purgeStaging, "purge-staging", false, "drop the run's staged rows after a successful normalization")
	return cmd
}
