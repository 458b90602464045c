package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagIngestLimit int

	flagDigestLimit int
	flagMinScore    float64
	flagDir         string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch news from NewsAPI once and store new stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.ingestService().Ingest(cmd.Context(), flagIngestLimit)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		fmt.Printf("Fetched %d, stored %d, skipped %d.\n", stats.Fetched, stats.New, stats.Skipped)
		return nil
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate today's digest and save it as markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		minScore := a.cfg.Digest.MinScore
		if cmd.Flags().Changed("min-score") {
			minScore = flagMinScore
		}
		limit := a.cfg.Digest.Limit
		if cmd.Flags().Changed("limit") {
			limit = flagDigestLimit
		}
		dir := a.cfg.Digest.Directory
		if flagDir != "" {
			dir = flagDir
		}

		digestService, err := a.digestService()
		if err != nil {
			return err
		}

		path, err := digestService.GenerateAndSave(cmd.Context(), minScore, limit, dir)
		if err != nil {
			return fmt.Errorf("generate digest: %w", err)
		}

		fmt.Printf("Digest saved to %s\n", path)
		return nil
	},
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recalculate every story score from all signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.rescoreService()
		if err != nil {
			return err
		}

		stats, err := svc.Rescore(cmd.Context())
		if err != nil {
			return fmt.Errorf("rescore: %w", err)
		}

		fmt.Printf("Scanned %d, updated %d, unchanged %d, failed %d.\n",
			stats.Scanned, stats.Updated, stats.Unchanged, stats.Errors)
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&flagIngestLimit, "limit", 0, "number of articles to request (default: news_api.page_size)")

	digestCmd.Flags().IntVar(&flagDigestLimit, "limit", 10, "maximum number of stories in the digest")
	digestCmd.Flags().Float64Var(&flagMinScore, "min-score", 0.7, "minimum interest score")
	digestCmd.Flags().StringVar(&flagDir, "dir", "", "output directory (default: digest.directory)")
}
