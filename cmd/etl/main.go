package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spotifyetl.com/m/internal/config"
	"spotifyetl.com/m/internal/db"
	"spotifyetl.com/m/internal/pipeline"
	"spotifyetl.com/m/internal/spotify"
)

var (
	flagLimit  int
	flagHours  int
	flagSource string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "etl",
		Short:         "Spotify listening-data ETL pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().IntVar(&flagLimit, "limit", 0, "maximum tracks to extract (defaults to PIPELINE_TRACK_LIMIT)")

	fullCmd := &cobra.Command{
		Use:   "full",
		Short: "Run a full extract-transform-load cycle",
		RunE:  runFull,
	}
	fullCmd.Flags().StringVar(&flagSource, "source", string(pipeline.SourceRecent), "extraction source: recent, liked or playlists")

	incrementalCmd := &cobra.Command{
		Use:   "incremental",
		Short: "Run an incremental cycle over recent plays",
		RunE:  runIncremental,
	}
	incrementalCmd.Flags().IntVar(&flagHours, "hours", 0, "hours of history to pull (defaults to PIPELINE_HOURS_BACK)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print row counts for every target table",
		RunE:  runStats,
	}

	rootCmd.AddCommand(fullCmd, incrementalCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap wires the pipeline from environment configuration. The caller
// must close the returned store.
func bootstrap(ctx context.Context) (*pipeline.Pipeline, *db.Store, *config.Config, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	spotify.InitializeLogger(logger)
	pipeline.InitializeLogger(logger)
	db.InitializeLogger(logger)

	store, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	client := spotify.NewClient(cfg.Spotify)
	extractor := pipeline.NewSpotifyExtractor(client, cfg.Pipeline.PlaylistNameFilter)

	return pipeline.New(extractor, store), store, cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("DEBUG") == "true" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runFull(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, store, cfg, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	limit := flagLimit
	if limit <= 0 {
		limit = cfg.Pipeline.DefaultLimit
	}

	result := p.Run(ctx, pipeline.Source(flagSource), limit)
	return report(result)
}

func runIncremental(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, store, cfg, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	limit := flagLimit
	if limit <= 0 {
		limit = cfg.Pipeline.DefaultLimit
	}
	hours := flagHours
	if hours <= 0 {
		hours = cfg.Pipeline.DefaultHoursBack
	}

	result := p.RunIncremental(ctx, limit, hours)
	return report(result)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, store, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := p.Stats(ctx)
	if err != nil {
		return err
	}
	return printJSON(counts)
}

// report prints the run result and fails the command when any stage failed.
func report(result pipeline.Result) error {
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		for _, msg := range result.Errors {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		return fmt.Errorf("pipeline run failed with %d error(s)", len(result.Errors))
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
