package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LoadCounts reports rows written per target table during one load.
type LoadCounts struct {
	Artists          int `json:"artists"`
	Albums           int `json:"albums"`
	Tracks           int `json:"tracks"`
	AudioFeatures    int `json:"audio_features"`
	ListeningHistory int `json:"listening_history"`
}

func (c LoadCounts) Total() int {
	return c.Artists + c.Albums + c.Tracks + c.AudioFeatures + c.ListeningHistory
}

// Loader persists a transformed record set. LoadAll reports per-table
// counts even on partial failure.
type Loader interface {
	LoadAll(ctx context.Context, records []Record) (LoadCounts, error)
	TableCounts(ctx context.Context) (map[string]int64, error)
}

// Result is the structured outcome of one pipeline run. Stage failures are
// collected in Errors rather than propagated; Success is true only when
// every stage completed.
type Result struct {
	Success   bool          `json:"success"`
	Source    Source        `json:"source"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	RecordsExtracted int           `json:"records_extracted"`
	RecordsLoaded    int           `json:"records_loaded"`
	LoadCounts       LoadCounts    `json:"load_counts"`
	Quality          QualityReport `json:"quality"`

	TotalRecordsProcessed int      `json:"total_records_processed"`
	Errors                []string `json:"errors,omitempty"`
}

// Pipeline orchestrates one extract-transform-load cycle.
type Pipeline struct {
	extractor   Extractor
	transformer *Transformer
	loader      Loader

	now func() time.Time
}

func New(extractor Extractor, loader Loader) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transformer: NewTransformer(),
		loader:      loader,
		now:         time.Now,
	}
}

// Run executes a full pipeline cycle against the given source, pulling up
// to limit rows with no time bound.
func (p *Pipeline) Run(ctx context.Context, source Source, limit int) Result {
	return p.run(ctx, source, limit, time.Time{})
}

// RunIncremental executes a recently-played cycle bounded to the last
// hoursBack hours. Runs scheduled close together mostly re-see the same
// plays; the loader's existence checks keep the history table free of
// duplicates.
func (p *Pipeline) RunIncremental(ctx context.Context, limit, hoursBack int) Result {
	after := p.now().Add(-time.Duration(hoursBack) * time.Hour)
	return p.run(ctx, SourceRecent, limit, after)
}

func (p *Pipeline) run(ctx context.Context, source Source, limit int, after time.Time) Result {
	result := Result{
		Source:    source,
		StartedAt: p.now().UTC(),
	}

	logger.Info("Pipeline run starting",
		zap.String("source", string(source)),
		zap.Int("limit", limit))

	records, err := p.extractor.Extract(ctx, source, limit, after)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("extract: %v", err))
		return p.finish(result)
	}
	result.RecordsExtracted = len(records)
	if len(records) == 0 {
		// Nothing to do is still a successful run.
		result.Success = true
		return p.finish(result)
	}

	transformed, report, err := p.transformer.Transform(records)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("transform: %v", err))
		return p.finish(result)
	}
	result.Quality = report

	counts, err := p.loader.LoadAll(ctx, transformed)
	result.LoadCounts = counts
	result.RecordsLoaded = counts.Total()
	result.TotalRecordsProcessed = len(transformed)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("load: %v", err))
		return p.finish(result)
	}

	result.Success = true

	// Post-load quality check.
	if tables, statsErr := p.loader.TableCounts(ctx); statsErr == nil {
		logger.Info("Post-load table counts", zap.Any("tables", tables))
	}

	return p.finish(result)
}

func (p *Pipeline) finish(result Result) Result {
	result.Duration = p.now().UTC().Sub(result.StartedAt)
	if result.Success {
		logger.Info("Pipeline run complete",
			zap.String("source", string(result.Source)),
			zap.Int("processed", result.TotalRecordsProcessed),
			zap.Duration("duration", result.Duration))
	} else {
		logger.Error("Pipeline run failed",
			zap.String("source", string(result.Source)),
			zap.Strings("errors", result.Errors))
	}
	return result
}

// Stats returns current row counts for every target table.
func (p *Pipeline) Stats(ctx context.Context) (map[string]int64, error) {
	return p.loader.TableCounts(ctx)
}
