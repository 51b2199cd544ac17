// Package bench runs a mutation batch against a set of predictors at once
// and assembles their rows into one table, snapshotting progress to disk
// while the engines work.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stabbench/internal/apperrors"
	"stabbench/internal/config"
	"stabbench/internal/engine"
	"stabbench/internal/health"
	"stabbench/internal/predictor"
	"stabbench/internal/report"
	"stabbench/pkg/circuitbreaker"
)

// Options configures a Runner.
type Options struct {
	Config *config.Run
	// Include restricts the run to the named predictors; empty means all
	// registered ones. Exclude is applied afterwards.
	Include []string
	Exclude []string
	// Kinds restricts the run to predictors accepting these input kinds.
	Kinds []engine.InputKind
	// OutputDir is the parent of the per-run destination folder. Empty
	// disables snapshots and on-disk output.
	OutputDir    string
	WithMessages bool
	// SnapshotInterval defaults to the run's global wait interval.
	SnapshotInterval time.Duration
	Metrics          engine.MetricsRecorder
	Prober           health.Prober
	Breakers         *circuitbreaker.Registry
	Logger           *slog.Logger
}

// Runner fans a batch out to the selected predictors.
type Runner struct {
	opts  Options
	names []string
	log   *slog.Logger

	mu      sync.RWMutex
	engines []*engine.Engine

	// waitOverride shortens every engine's wait interval, bypassing the
	// one-second granularity of the run configuration.
	waitOverride time.Duration
}

// New resolves the predictor selection. Unknown names in Include are an
// error; an empty selection after filtering is reported by Run.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = &config.Run{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = opts.Config.SettingsFor("").WaitInterval
	}
	if opts.Breakers == nil {
		opts.Breakers = circuitbreaker.NewRegistry(circuitbreaker.Config{})
	}

	registered := predictor.List()
	names := registered
	if len(opts.Include) > 0 {
		names = nil
		for _, want := range opts.Include {
			want = strings.ToLower(want)
			if !slices.Contains(registered, want) {
				return nil, fmt.Errorf("unknown predictor %q", want)
			}
			names = append(names, want)
		}
	}
	names = slices.DeleteFunc(slices.Clone(names), func(name string) bool {
		return slices.ContainsFunc(opts.Exclude, func(ex string) bool {
			return strings.EqualFold(ex, name)
		})
	})
	if len(opts.Kinds) > 0 {
		names = slices.DeleteFunc(names, func(name string) bool {
			a, err := predictor.New(name)
			if err != nil {
				return true
			}
			return !slices.Contains(opts.Kinds, a.Header().InputKind)
		})
	}

	return &Runner{
		opts:  opts,
		names: names,
		log:   opts.Logger,
	}, nil
}

// Predictors returns the resolved selection, for listings and dry runs.
func (r *Runner) Predictors() []string {
	return slices.Clone(r.names)
}

// Rows gathers the current unified table across all engines. Safe to call
// while Run is in flight; used by the snapshot loop and by signal handlers
// that want a last flush.
func (r *Runner) Rows() []report.Row {
	r.mu.RLock()
	engines := r.engines
	r.mu.RUnlock()

	var rows []report.Row
	for _, eng := range engines {
		rows = append(rows, eng.Rows()...)
	}
	return rows
}

// Run executes the batch and returns the final unified table. On
// cancellation it returns the rows gathered so far together with the
// context error.
func (r *Runner) Run(ctx context.Context, descs []engine.Descriptor) ([]report.Row, error) {
	if len(r.names) == 0 {
		return nil, apperrors.Config("no predictors selected")
	}
	if len(descs) == 0 {
		return nil, apperrors.Input("empty batch")
	}

	var dst *report.Destination
	if r.opts.OutputDir != "" {
		var err error
		dst, err = report.NewDestination(r.opts.OutputDir, r.opts.WithMessages)
		if err != nil {
			return nil, err
		}
		if err := dst.WriteSummary(r.summarize(descs)); err != nil {
			return nil, err
		}
		r.log.Info("writing results", slog.String("dir", dst.Dir()))
	}

	var engines []*engine.Engine
	for _, name := range r.names {
		adapter, err := predictor.New(name)
		if err != nil {
			return nil, err
		}
		sub := matching(descs, adapter.Header().InputKind)
		if len(sub) == 0 {
			r.log.Warn("no inputs match predictor, skipping",
				slog.String("predictor", name),
				slog.String("input_kind", string(adapter.Header().InputKind)))
			continue
		}
		settings := r.opts.Config.SettingsFor(name)
		if r.waitOverride > 0 {
			settings.WaitInterval = r.waitOverride
		}
		engines = append(engines, engine.New(adapter, sub, engine.Options{
			Settings:    settings,
			Credentials: r.opts.Config.Credentials,
			Permissive:  r.opts.Config.Permissive,
			Prober:      r.opts.Prober,
			Breakers:    r.opts.Breakers,
			Metrics:     r.opts.Metrics,
			Logger:      r.log,
		}))
	}
	if len(engines) == 0 {
		return nil, apperrors.Input("no predictor accepts any of the given inputs")
	}
	r.mu.Lock()
	r.engines = engines
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, eng := range engines {
		g.Go(func() error {
			return eng.Compute(gctx)
		})
	}

	snapDone := make(chan struct{})
	snapStopped := make(chan struct{})
	if dst != nil {
		go r.snapshotLoop(ctx, dst, snapDone, snapStopped)
	} else {
		close(snapStopped)
	}

	err := g.Wait()
	close(snapDone)
	<-snapStopped

	rows := r.Rows()
	if dst != nil {
		if werr := dst.WriteResults(rows); werr != nil && err == nil {
			err = werr
		}
	}
	return rows, err
}

// snapshotLoop periodically overwrites results.csv until the engines are
// done, then exits. Snapshot failures are logged, never fatal.
func (r *Runner) snapshotLoop(ctx context.Context, dst *report.Destination, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(r.opts.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := dst.WriteResults(r.Rows()); err != nil {
				r.log.Warn("snapshot failed", slog.String("error", err.Error()))
				continue
			}
			if rec, ok := r.opts.Metrics.(snapshotRecorder); ok {
				rec.RecordSnapshot(ctx)
			}
		}
	}
}

type snapshotRecorder interface {
	RecordSnapshot(ctx context.Context)
}

func matching(descs []engine.Descriptor, kind engine.InputKind) []engine.Descriptor {
	var out []engine.Descriptor
	for _, d := range descs {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// summarize describes the input batch before execution begins.
func (r *Runner) summarize(descs []engine.Descriptor) *report.Summary {
	byID := make(map[string]int)
	byKind := make(map[string]int)
	for _, d := range descs {
		byID[d.Identifier]++
		byKind[string(d.Kind)]++
	}
	perID := make([]int, 0, len(byID))
	for _, n := range byID {
		perID = append(perID, n)
	}
	return &report.Summary{
		RunID:                  uuid.New().String(),
		CreatedAt:              time.Now().UTC(),
		TotalMutations:         len(descs),
		UniqueIdentifiers:      len(byID),
		ByInputKind:            byKind,
		Predictors:             r.Predictors(),
		MutationsPerIdentifier: report.ComputeStats(perID),
	}
}
