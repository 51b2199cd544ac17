// Package engine runs jobs against one remote predictor: it owns the job
// table, the bounded worker pool, the polling loop and the retry policy.
// Adapters plug in the per-service wire protocol.
package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"stabbench/internal/config"
	"stabbench/internal/health"
	"stabbench/pkg/circuitbreaker"
)

// Options configures an Engine.
type Options struct {
	Settings    config.Settings
	Credentials config.Credentials
	// Permissive retries poll cycles whose response could not be parsed
	// instead of failing the job.
	Permissive bool
	Prober     health.Prober
	Breakers   *circuitbreaker.Registry
	Metrics    MetricsRecorder
	Logger     *slog.Logger
}

// Engine executes all jobs of one predictor run.
type Engine struct {
	adapter Adapter
	table   *Table
	opts    Options
	log     *slog.Logger
	metrics MetricsRecorder
}

// New builds an engine for the given adapter and requested mutations.
func New(adapter Adapter, descs []Descriptor, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	if opts.Prober == nil {
		opts.Prober = health.NewChecker()
	}
	if opts.Settings.WaitInterval <= 0 {
		opts.Settings.WaitInterval = config.DefaultWaitInterval
	}
	if opts.Settings.MaxRetries <= 0 {
		opts.Settings.MaxRetries = config.DefaultMaxRetries
	}

	table := NewTable(descs, adapter.Flags(), TableOptions{
		Predictor:   adapter.Header().Name,
		Credentials: opts.Credentials,
		MaxRetries:  opts.Settings.MaxRetries,
		Logger:      opts.Logger,
	})
	return &Engine{
		adapter: adapter,
		table:   table,
		opts:    opts,
		log:     opts.Logger.With(slog.String("predictor", adapter.Header().Name)),
		metrics: opts.Metrics,
	}
}

// Table exposes the job table for snapshots and progress reporting.
func (e *Engine) Table() *Table {
	return e.table
}

// Compute probes the predictor, prepares payloads and drives every job to a
// terminal state through a bounded worker pool. On cancellation the error
// is the context's and still-blocking jobs keep their last state; Rows
// reflects whatever was reached.
func (e *Engine) Compute(ctx context.Context) error {
	hdr := e.adapter.Header()

	avail := e.opts.Prober.Probe(ctx, hdr.BaseURL)
	e.metrics.RecordProbe(ctx, hdr.Name, avail == health.Available)
	if avail != health.Available {
		e.log.Warn("predictor offline, skipping batch", slog.String("url", hdr.BaseURL))
		e.table.MarkAll(StateNotAvailable, "")
		return nil
	}

	pending := 0
	for i := range e.table.Len() {
		job := e.table.Job(i)
		if err := e.adapter.PreparePayload(job); err != nil {
			job.SetState(StateParsingFailed, err.Error())
			continue
		}
		pending++
	}
	if pending == 0 {
		return nil
	}

	batch := e.opts.Settings.BatchSize
	if batch <= 0 || batch > pending {
		batch = pending
	}
	e.log.Info("starting batch",
		slog.Int("jobs", e.table.Len()),
		slog.Int("workers", batch))

	queue := make(chan int, batch)
	g, gctx := errgroup.WithContext(ctx)
	for range batch {
		g.Go(func() error {
			return e.worker(gctx, queue)
		})
	}
	g.Go(func() error {
		return e.feed(gctx, queue)
	})
	return g.Wait()
}
