package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ftm",
	Short: "Campaign finance ingestion, normalization and leaning scores",
	Long: `ftm ingests raw campaign finance filings, normalizes them into
candidates, committees, employers and contributions, and computes
partisan-leaning scores over the normalized money flow.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(computeLeaningCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(serveCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
