package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"spotifyetl.com/m/internal/pipeline"
)

// RunType selects which pipeline cycle a scheduled job triggers.
type RunType string

const (
	RunTypeFull        RunType = "full"
	RunTypeIncremental RunType = "incremental"
)

const (
	queueSize     = 16
	maxJobRetries = 2
	retryDelay    = 30 * time.Second
)

// Config controls the cadence of scheduled runs.
type Config struct {
	FullInterval        time.Duration
	IncrementalInterval time.Duration
	Limit               int
	HoursBack           int
}

// Job is one queued pipeline run.
type Job struct {
	Type    RunType
	Retries int
}

// Scheduler triggers pipeline runs on a fixed cadence: frequent incremental
// runs to capture recent plays and an occasional full run to refresh the
// rest. Jobs go through a queue so overlapping triggers serialize instead of
// running concurrent pipelines against the same account.
type Scheduler struct {
	pipeline *pipeline.Pipeline
	cfg      Config
	metrics  *Metrics
	logger   *zap.Logger

	jobs chan Job
}

// NewScheduler creates a new scheduler
func NewScheduler(p *pipeline.Pipeline, cfg Config, metrics *Metrics, logger *zap.Logger) *Scheduler {
	if cfg.FullInterval <= 0 {
		cfg.FullInterval = 24 * time.Hour
	}
	if cfg.IncrementalInterval <= 0 {
		cfg.IncrementalInterval = time.Hour
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.HoursBack <= 0 {
		cfg.HoursBack = 1
	}
	return &Scheduler{
		pipeline: p,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		jobs:     make(chan Job, queueSize),
	}
}

// Start runs the scheduler until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler",
		zap.Duration("full_interval", s.cfg.FullInterval),
		zap.Duration("incremental_interval", s.cfg.IncrementalInterval))

	go s.scheduleRun(ctx, RunTypeFull, s.cfg.FullInterval)
	go s.scheduleRun(ctx, RunTypeIncremental, s.cfg.IncrementalInterval)
	go s.work(ctx)

	// Kick off one full run at startup so a fresh deployment has data
	// before the first tick.
	s.enqueue(ctx, Job{Type: RunTypeFull})

	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// scheduleRun enqueues one job of the given type at every tick.
func (s *Scheduler) scheduleRun(ctx context.Context, runType RunType, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx, Job{Type: runType})
		}
	}
}

func (s *Scheduler) enqueue(ctx context.Context, job Job) {
	select {
	case s.jobs <- job:
		s.metrics.QueueDepth.Set(float64(len(s.jobs)))
	case <-ctx.Done():
	default:
		s.logger.Warn("Run queue full, skipping scheduled run",
			zap.String("run_type", string(job.Type)))
	}
}

// work drains the queue one job at a time.
func (s *Scheduler) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.metrics.QueueDepth.Set(float64(len(s.jobs)))
			s.runJob(ctx, job)
		}
	}
}

// runJob executes one pipeline run and requeues it with a delay when it
// fails, up to maxJobRetries attempts.
func (s *Scheduler) runJob(ctx context.Context, job Job) {
	s.metrics.RunsTotal.Inc()
	start := time.Now()

	var result pipeline.Result
	switch job.Type {
	case RunTypeFull:
		result = s.pipeline.Run(ctx, pipeline.SourceRecent, s.cfg.Limit)
	case RunTypeIncremental:
		result = s.pipeline.RunIncremental(ctx, s.cfg.Limit, s.cfg.HoursBack)
	}

	s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.metrics.ExtractedRecords.Observe(float64(result.RecordsExtracted))
	s.metrics.RecordsProcessed.Add(float64(result.TotalRecordsProcessed))

	if result.Success {
		s.logger.Info("Scheduled run completed",
			zap.String("run_type", string(job.Type)),
			zap.Int("processed", result.TotalRecordsProcessed),
			zap.Duration("duration", result.Duration))
		return
	}

	s.metrics.RunErrors.Inc()
	s.logger.Error("Scheduled run failed",
		zap.String("run_type", string(job.Type)),
		zap.Int("retries", job.Retries),
		zap.Strings("errors", result.Errors))

	if job.Retries >= maxJobRetries {
		s.logger.Error("Run retries exhausted, dropping job",
			zap.String("run_type", string(job.Type)))
		return
	}

	job.Retries++
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(retryDelay):
			s.enqueue(ctx, job)
		}
	}()
}
